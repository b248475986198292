package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"driver-review-service/internal/models"
	"driver-review-service/internal/storage"
	"driver-review-service/pkg/logger"
)

const reviewColumns = `id::text, driver_id::text, reviewer_id::text, rating, review_text, ride_date, created_at`

type reviewRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewReviewRepo(db *pgxpool.Pool, log logger.ILogger) storage.IReviewStorage {
	return &reviewRepo{db: db, log: log}
}

func (r *reviewRepo) Create(ctx context.Context, nr models.NewReview) (*models.Review, error) {
	if err := notFoundIfBadID("driver", nr.DriverID); err != nil {
		return nil, err
	}
	if err := notFoundIfBadID("reviewer profile", nr.ReviewerID); err != nil {
		return nil, err
	}
	query := `
		INSERT INTO reviews (driver_id, reviewer_id, rating, review_text, ride_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + reviewColumns
	var rv models.Review
	err := r.db.QueryRow(ctx, query, nr.DriverID, nr.ReviewerID, nr.Rating, nr.ReviewText, nr.RideDate).Scan(
		&rv.ID, &rv.DriverID, &rv.ReviewerID, &rv.Rating, &rv.ReviewText, &rv.RideDate, &rv.CreatedAt,
	)
	if err != nil {
		mapped := mapError(err)
		if mapped == err {
			r.log.Error("failed to create review", logger.Error(err))
		}
		return nil, mapped
	}
	return &rv, nil
}

func (r *reviewRepo) ListByDriver(ctx context.Context, driverID string) ([]models.Review, error) {
	if notFoundIfBadID("driver", driverID) != nil {
		return []models.Review{}, nil
	}
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE driver_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, driverID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []models.Review{}
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.DriverID, &rv.ReviewerID, &rv.Rating, &rv.ReviewText, &rv.RideDate, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *reviewRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT count(*) FROM reviews").Scan(&count)
	return count, err
}
