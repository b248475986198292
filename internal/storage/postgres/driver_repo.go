package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"driver-review-service/internal/models"
	"driver-review-service/internal/storage"
	"driver-review-service/pkg/logger"
)

const driverColumns = `d.id::text, d.vehicle_number, d.platform::text, d.driver_name, d.phone_number,
	d.total_rides, d.is_multiple_platform, d.average_rating, d.contributed_by::text, d.created_at, d.updated_at`

type driverRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewDriverRepo(db *pgxpool.Pool, log logger.ILogger) storage.IDriverStorage {
	return &driverRepo{db: db, log: log}
}

func scanDriver(row pgx.Row, extra ...any) (*models.Driver, error) {
	var d models.Driver
	var platform string
	dest := append([]any{
		&d.ID, &d.VehicleNumber, &platform, &d.DriverName, &d.PhoneNumber,
		&d.TotalRides, &d.IsMultiplePlatform, &d.AverageRating, &d.ContributedBy, &d.CreatedAt, &d.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	d.Platform = models.Platform(platform)
	return &d, nil
}

func (r *driverRepo) Create(ctx context.Context, nd models.NewDriver) (*models.Driver, error) {
	query := `
		INSERT INTO drivers AS d (vehicle_number, platform, driver_name, phone_number, total_rides, is_multiple_platform, contributed_by)
		VALUES ($1, $2::platform_type, $3, $4, $5, $6, $7)
		RETURNING ` + driverColumns
	d, err := scanDriver(r.db.QueryRow(ctx, query,
		nd.VehicleNumber, string(nd.Platform), nd.DriverName, nd.PhoneNumber, nd.TotalRides, nd.IsMultiplePlatform, nd.ContributedBy))
	if err != nil {
		mapped := mapError(err)
		if mapped == err {
			r.log.Error("failed to create driver", logger.Error(err))
		}
		return nil, mapped
	}
	return d, nil
}

func (r *driverRepo) FindOrCreate(ctx context.Context, nd models.NewDriver) (*models.Driver, bool, error) {
	// DO UPDATE (instead of DO NOTHING) makes RETURNING yield the existing row
	// as well; xmax = 0 only for a freshly inserted tuple.
	query := `
		INSERT INTO drivers AS d (vehicle_number, platform, driver_name, phone_number, total_rides, is_multiple_platform, contributed_by)
		VALUES ($1, $2::platform_type, $3, $4, $5, $6, $7)
		ON CONFLICT (vehicle_number, platform) DO UPDATE
		SET updated_at = d.updated_at
		RETURNING ` + driverColumns + `, (d.xmax = 0) AS created`
	var created bool
	d, err := scanDriver(r.db.QueryRow(ctx, query,
		nd.VehicleNumber, string(nd.Platform), nd.DriverName, nd.PhoneNumber, nd.TotalRides, nd.IsMultiplePlatform, nd.ContributedBy), &created)
	if err != nil {
		r.log.Error("failed to find or create driver", logger.String("vehicle_number", nd.VehicleNumber), logger.Error(err))
		return nil, false, mapError(err)
	}
	return d, created, nil
}

func (r *driverRepo) GetByID(ctx context.Context, id string) (*models.Driver, error) {
	if err := notFoundIfBadID("driver", id); err != nil {
		return nil, err
	}
	query := `SELECT ` + driverColumns + ` FROM drivers d WHERE d.id = $1`
	d, err := scanDriver(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("driver %s: %w", id, mapError(err))
	}
	return d, nil
}

func (r *driverRepo) Search(ctx context.Context, f storage.DriverFilter) ([]models.DriverDetails, error) {
	var platform *string
	if f.Platform != nil {
		p := string(*f.Platform)
		platform = &p
	}
	query := `
		SELECT ` + driverColumns + `, p.username
		FROM drivers d
		LEFT JOIN profiles p ON p.id = d.contributed_by
		WHERE d.vehicle_number = $1
		  AND ($2::platform_type IS NULL OR d.platform = $2::platform_type)
		ORDER BY d.platform`
	rows, err := r.db.Query(ctx, query, f.VehicleNumber, platform)
	if err != nil {
		r.log.Error("failed to search drivers", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []models.DriverDetails{}
	for rows.Next() {
		var username *string
		d, err := scanDriver(rows, &username)
		if err != nil {
			return nil, err
		}
		out = append(out, models.DriverDetails{Driver: *d, ContributorUsername: username})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reviews := NewReviewRepo(r.db, r.log)
	for i := range out {
		if out[i].Reviews, err = reviews.ListByDriver(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *driverRepo) listSummaries(ctx context.Context, query string, args ...any) ([]models.DriverSummary, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []models.DriverSummary{}
	for rows.Next() {
		var count int
		d, err := scanDriver(rows, &count)
		if err != nil {
			return nil, err
		}
		out = append(out, models.DriverSummary{Driver: *d, ReviewCount: count})
	}
	return out, rows.Err()
}

func (r *driverRepo) ListByContributor(ctx context.Context, profileID string) ([]models.DriverSummary, error) {
	if notFoundIfBadID("profile", profileID) != nil {
		return []models.DriverSummary{}, nil
	}
	query := `
		SELECT ` + driverColumns + `, COUNT(r.id)::int
		FROM drivers d
		LEFT JOIN reviews r ON r.driver_id = d.id
		WHERE d.contributed_by = $1
		GROUP BY d.id
		ORDER BY d.created_at DESC`
	return r.listSummaries(ctx, query, profileID)
}

func (r *driverRepo) TopRated(ctx context.Context, limit int) ([]models.DriverSummary, error) {
	query := `
		SELECT ` + driverColumns + `, COUNT(r.id)::int
		FROM drivers d
		LEFT JOIN reviews r ON r.driver_id = d.id
		WHERE d.average_rating > 0
		GROUP BY d.id
		ORDER BY d.average_rating DESC, d.vehicle_number ASC
		LIMIT $1`
	return r.listSummaries(ctx, query, limit)
}

func (r *driverRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT count(*) FROM drivers").Scan(&count)
	return count, err
}

func (r *driverRepo) AverageRating(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.QueryRow(ctx, "SELECT COALESCE(AVG(average_rating), 0)::float8 FROM drivers").Scan(&avg)
	return avg, err
}
