// Package memory is an in-process implementation of storage.IStorage with the
// same constraints and bookkeeping as the PostgreSQL schema. It backs unit
// tests and STORE_DRIVER=memory local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"driver-review-service/internal/apperr"
	"driver-review-service/internal/models"
	"driver-review-service/internal/storage"
)

type driverKey struct {
	vehicle  string
	platform models.Platform
}

type reviewKey struct {
	driverID   string
	reviewerID string
}

type reviewRow struct {
	models.Review
	seq int64
}

type Store struct {
	mu  sync.RWMutex
	seq int64
	now func() time.Time

	drivers     map[string]*models.Driver
	driverKeys  map[driverKey]string
	reviews     map[string]*reviewRow
	reviewKeys  map[reviewKey]string
	profiles    map[string]*models.Profile
	credentials map[string]*models.Credential // by lower-cased email
}

func New() *Store {
	return &Store{
		now:         func() time.Time { return time.Now().UTC() },
		drivers:     make(map[string]*models.Driver),
		driverKeys:  make(map[driverKey]string),
		reviews:     make(map[string]*reviewRow),
		reviewKeys:  make(map[reviewKey]string),
		profiles:    make(map[string]*models.Profile),
		credentials: make(map[string]*models.Credential),
	}
}

func (s *Store) Driver() storage.IDriverStorage         { return driverRepo{s} }
func (s *Store) Review() storage.IReviewStorage         { return reviewRepo{s} }
func (s *Store) Profile() storage.IProfileStorage       { return profileRepo{s} }
func (s *Store) Credential() storage.ICredentialStorage { return credentialRepo{s} }
func (s *Store) Ping(context.Context) error             { return nil }
func (s *Store) Close()                                 {}

// AddProfile seeds a profile without credentials, as the sign-in trigger would.
func (s *Store) AddProfile(email string, username *string) *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &models.Profile{ID: uuid.NewString(), Email: email, Username: username, CreatedAt: s.now()}
	s.profiles[p.ID] = p
	return clonePtr(p)
}

// insertDriverLocked must be called with s.mu held for writing.
func (s *Store) insertDriverLocked(d models.NewDriver) *models.Driver {
	now := s.now()
	row := &models.Driver{
		ID:                 uuid.NewString(),
		VehicleNumber:      d.VehicleNumber,
		Platform:           d.Platform,
		DriverName:         d.DriverName,
		PhoneNumber:        d.PhoneNumber,
		TotalRides:         d.TotalRides,
		IsMultiplePlatform: d.IsMultiplePlatform,
		ContributedBy:      d.ContributedBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.drivers[row.ID] = row
	s.driverKeys[driverKey{d.VehicleNumber, d.Platform}] = row.ID

	if d.ContributedBy != nil {
		if p, ok := s.profiles[*d.ContributedBy]; ok {
			score := 1
			if p.ContributionScore != nil {
				score = *p.ContributionScore + 1
			}
			p.ContributionScore = &score
		}
	}
	return row
}

// recomputeAverageLocked mirrors the reviews trigger.
func (s *Store) recomputeAverageLocked(driverID string) {
	d, ok := s.drivers[driverID]
	if !ok {
		return
	}
	sum, n := 0, 0
	for _, r := range s.reviews {
		if r.DriverID == driverID {
			sum += r.Rating
			n++
		}
	}
	d.AverageRating = 0
	if n > 0 {
		d.AverageRating = float64(sum) / float64(n)
	}
	d.UpdatedAt = s.now()
}

func (s *Store) reviewsOfLocked(driverID string) []models.Review {
	var rows []*reviewRow
	for _, r := range s.reviews {
		if r.DriverID == driverID {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	out := make([]models.Review, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Review)
	}
	return out
}

func (s *Store) reviewCountLocked(driverID string) int {
	n := 0
	for _, r := range s.reviews {
		if r.DriverID == driverID {
			n++
		}
	}
	return n
}

func clonePtr[T any](v *T) *T {
	c := *v
	return &c
}

type driverRepo struct{ s *Store }

func (r driverRepo) Create(_ context.Context, d models.NewDriver) (*models.Driver, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.driverKeys[driverKey{d.VehicleNumber, d.Platform}]; exists {
		return nil, apperr.ErrDuplicateDriver
	}
	return clonePtr(r.s.insertDriverLocked(d)), nil
}

func (r driverRepo) FindOrCreate(_ context.Context, d models.NewDriver) (*models.Driver, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if id, exists := r.s.driverKeys[driverKey{d.VehicleNumber, d.Platform}]; exists {
		return clonePtr(r.s.drivers[id]), false, nil
	}
	return clonePtr(r.s.insertDriverLocked(d)), true, nil
}

func (r driverRepo) GetByID(_ context.Context, id string) (*models.Driver, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.drivers[id]
	if !ok {
		return nil, fmt.Errorf("driver %s: %w", id, apperr.ErrNotFound)
	}
	return clonePtr(d), nil
}

func (r driverRepo) Search(_ context.Context, f storage.DriverFilter) ([]models.DriverDetails, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matches []*models.Driver
	for _, d := range r.s.drivers {
		if d.VehicleNumber != f.VehicleNumber {
			continue
		}
		if f.Platform != nil && d.Platform != *f.Platform {
			continue
		}
		matches = append(matches, d)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Platform < matches[j].Platform })

	out := make([]models.DriverDetails, 0, len(matches))
	for _, d := range matches {
		det := models.DriverDetails{Driver: *d, Reviews: r.s.reviewsOfLocked(d.ID)}
		if d.ContributedBy != nil {
			if p, ok := r.s.profiles[*d.ContributedBy]; ok {
				det.ContributorUsername = p.Username
			}
		}
		out = append(out, det)
	}
	return out, nil
}

func (r driverRepo) ListByContributor(_ context.Context, profileID string) ([]models.DriverSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.DriverSummary{}
	for _, d := range r.s.drivers {
		if d.ContributedBy != nil && *d.ContributedBy == profileID {
			out = append(out, models.DriverSummary{Driver: *d, ReviewCount: r.s.reviewCountLocked(d.ID)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r driverRepo) TopRated(_ context.Context, limit int) ([]models.DriverSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.DriverSummary{}
	for _, d := range r.s.drivers {
		if d.AverageRating > 0 {
			out = append(out, models.DriverSummary{Driver: *d, ReviewCount: r.s.reviewCountLocked(d.ID)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageRating != out[j].AverageRating {
			return out[i].AverageRating > out[j].AverageRating
		}
		return out[i].VehicleNumber < out[j].VehicleNumber
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r driverRepo) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.drivers), nil
}

func (r driverRepo) AverageRating(context.Context) (float64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if len(r.s.drivers) == 0 {
		return 0, nil
	}
	var sum float64
	for _, d := range r.s.drivers {
		sum += d.AverageRating
	}
	return sum / float64(len(r.s.drivers)), nil
}

type reviewRepo struct{ s *Store }

func (r reviewRepo) Create(_ context.Context, in models.NewReview) (*models.Review, error) {
	if in.Rating < models.MinRating || in.Rating > models.MaxRating {
		return nil, apperr.Invalid("rating", "Rating must be between %d and %d.", models.MinRating, models.MaxRating)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.drivers[in.DriverID]; !ok {
		return nil, fmt.Errorf("driver %s: %w", in.DriverID, apperr.ErrNotFound)
	}
	if _, ok := r.s.profiles[in.ReviewerID]; !ok {
		return nil, fmt.Errorf("reviewer %s: %w", in.ReviewerID, apperr.ErrNotFound)
	}
	key := reviewKey{in.DriverID, in.ReviewerID}
	if _, exists := r.s.reviewKeys[key]; exists {
		return nil, apperr.ErrDuplicateReview
	}

	r.s.seq++
	row := &reviewRow{
		Review: models.Review{
			ID:         uuid.NewString(),
			DriverID:   in.DriverID,
			ReviewerID: in.ReviewerID,
			Rating:     in.Rating,
			ReviewText: in.ReviewText,
			RideDate:   in.RideDate,
			CreatedAt:  r.s.now(),
		},
		seq: r.s.seq,
	}
	r.s.reviews[row.ID] = row
	r.s.reviewKeys[key] = row.ID
	r.s.recomputeAverageLocked(in.DriverID)

	out := row.Review
	return &out, nil
}

func (r reviewRepo) ListByDriver(_ context.Context, driverID string) ([]models.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.reviewsOfLocked(driverID), nil
}

func (r reviewRepo) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.reviews), nil
}

type profileRepo struct{ s *Store }

func (r profileRepo) GetByID(_ context.Context, id string) (*models.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, apperr.ErrNotFound)
	}
	return clonePtr(p), nil
}

func (r profileRepo) UpdateUsername(_ context.Context, id, username string) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, apperr.ErrNotFound)
	}
	name := username
	p.Username = &name
	return clonePtr(p), nil
}

func (r profileRepo) TopContributors(_ context.Context, limit int) ([]models.Contributor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	added := make(map[string]int)
	for _, d := range r.s.drivers {
		if d.ContributedBy != nil {
			added[*d.ContributedBy]++
		}
	}

	profiles := make([]*models.Profile, 0, len(r.s.profiles))
	for _, p := range r.s.profiles {
		profiles = append(profiles, p)
	}
	// contribution_score DESC NULLS LAST, then oldest profile first
	sort.Slice(profiles, func(i, j int) bool {
		a, b := profiles[i].ContributionScore, profiles[j].ContributionScore
		switch {
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		case a != nil && b != nil && *a != *b:
			return *a > *b
		}
		return profiles[i].CreatedAt.Before(profiles[j].CreatedAt)
	})
	if limit > 0 && len(profiles) > limit {
		profiles = profiles[:limit]
	}

	out := make([]models.Contributor, 0, len(profiles))
	for _, p := range profiles {
		c := models.Contributor{
			ID:           p.ID,
			Username:     p.Username,
			DisplayName:  p.DisplayName(),
			DriversAdded: added[p.ID],
			Score:        added[p.ID],
		}
		if p.ContributionScore != nil {
			c.Score = *p.ContributionScore
		}
		out = append(out, c)
	}
	return out, nil
}

func (r profileRepo) Count(context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.profiles), nil
}

type credentialRepo struct{ s *Store }

func (r credentialRepo) Create(_ context.Context, email string, username *string, passwordHash string) (*models.Profile, error) {
	key := strings.ToLower(email)

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.credentials[key]; exists {
		return nil, apperr.ErrEmailTaken
	}
	p := &models.Profile{ID: uuid.NewString(), Email: email, Username: username, CreatedAt: r.s.now()}
	r.s.profiles[p.ID] = p
	r.s.credentials[key] = &models.Credential{ProfileID: p.ID, Email: email, PasswordHash: passwordHash}
	return clonePtr(p), nil
}

func (r credentialRepo) GetByEmail(_ context.Context, email string) (*models.Credential, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.credentials[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("credential: %w", apperr.ErrNotFound)
	}
	return clonePtr(c), nil
}
