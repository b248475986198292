package leaderboard

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"

	"driver-review-service/internal/models"
	"driver-review-service/internal/storage/memory"
	"driver-review-service/pkg/logger"
	rredis "driver-review-service/pkg/redis"
)

type fixture struct {
	store *memory.Store
	svc   *Service
	mr    *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	store := memory.New()
	return &fixture{
		store: store,
		svc:   NewService(store, rredis.Wrap(rdb, logger.NewNop()), time.Minute, DefaultLimit, logger.NewNop()),
		mr:    mr,
	}
}

func (f *fixture) addDriver(t *testing.T, vehicle string, owner *models.Profile, ratings ...int) *models.Driver {
	t.Helper()
	ctx := context.Background()
	var by *string
	if owner != nil {
		id := owner.ID
		by = &id
	}
	d, err := f.store.Driver().Create(ctx, models.NewDriver{VehicleNumber: vehicle, Platform: models.PlatformUber, ContributedBy: by})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range ratings {
		reviewer := f.store.AddProfile(vehicle+"-reviewer@example.com", nil)
		if _, err := f.store.Review().Create(ctx, models.NewReview{DriverID: d.ID, ReviewerID: reviewer.ID, Rating: r}); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func TestTopContributors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	name := "asha"
	asha := f.store.AddProfile("asha@example.com", &name)
	ravi := f.store.AddProfile("ravi@example.com", nil)
	f.store.AddProfile("idle@example.com", nil)

	f.addDriver(t, "KA01", asha)
	f.addDriver(t, "KA02", asha)
	f.addDriver(t, "KA03", ravi)

	got, err := f.svc.TopContributors(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].ID != asha.ID || got[0].Score != 2 || got[0].DisplayName != "asha" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].ID != ravi.ID || got[1].DisplayName != "ravi" || got[1].DriversAdded != 1 {
		t.Errorf("second = %+v", got[1])
	}
}

func TestTopRatedAndCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addDriver(t, "LOW", nil, 2)
	f.addDriver(t, "HIGH", nil, 5)
	f.addDriver(t, "UNRATED", nil)

	got, err := f.svc.TopRatedDrivers(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].VehicleNumber != "HIGH" || got[1].VehicleNumber != "LOW" {
		t.Fatalf("order = %+v", got)
	}
	if got[0].ReviewCount != 1 {
		t.Errorf("review_count = %d", got[0].ReviewCount)
	}
	if !f.mr.Exists(CachePrefix + "drivers:5") {
		t.Error("result not cached")
	}

	// cached projection is served until invalidated
	f.addDriver(t, "TOP", nil, 5, 5)
	got, _ = f.svc.TopRatedDrivers(ctx, 0)
	if len(got) != 2 {
		t.Errorf("cache bypassed: %d entries", len(got))
	}
	if err := f.svc.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	got, _ = f.svc.TopRatedDrivers(ctx, 0)
	if len(got) != 3 {
		t.Errorf("after invalidate: %d entries, want 3", len(got))
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.svc.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if *empty != (models.Stats{}) {
		t.Errorf("empty stats = %+v", empty)
	}
	f.svc.Invalidate(ctx)

	f.addDriver(t, "A", nil, 3, 5)
	f.addDriver(t, "B", nil)
	st, err := f.svc.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalDrivers != 2 || st.TotalReviews != 2 || st.TotalUsers != 2 || st.AverageRating != 2.0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestClampLimit(t *testing.T) {
	svc := NewService(memory.New(), nil, time.Minute, 0, logger.NewNop())
	tests := []struct{ in, want int }{
		{0, DefaultLimit},
		{-3, DefaultLimit},
		{10, 10},
		{500, MaxLimit},
	}
	for _, tt := range tests {
		if got := svc.ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	owner := f.store.AddProfile("asha@example.com", nil)
	f.addDriver(t, "KA01", owner, 4)

	r := chi.NewRouter()
	r.Mount("/leaderboard", NewHandler(f.svc).Routes())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaderboard/export.xlsx", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
	}

	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(sheetDrivers)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][1] != "KA01" {
		t.Errorf("driver rows = %v", rows)
	}
	rows, _ = wb.GetRows(sheetContributors)
	if len(rows) < 2 || rows[1][1] != "asha" {
		t.Errorf("contributor rows = %v", rows)
	}
}

func TestHandlerRejectsBadLimit(t *testing.T) {
	f := newFixture(t)
	r := chi.NewRouter()
	r.Mount("/leaderboard", NewHandler(f.svc).Routes())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leaderboard/contributors?limit=abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}
