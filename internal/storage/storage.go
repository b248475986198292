package storage

import (
	"context"

	"driver-review-service/internal/models"
)

// IStorage is the data-access boundary. Uniqueness of (vehicle_number, platform)
// and (driver_id, reviewer_id), rating bounds and the average_rating /
// contribution_score bookkeeping are enforced behind it.
type IStorage interface {
	Driver() IDriverStorage
	Review() IReviewStorage
	Profile() IProfileStorage
	Credential() ICredentialStorage
	Ping(ctx context.Context) error
	Close()
}

// DriverFilter selects drivers by vehicle number and optional platform.
type DriverFilter struct {
	VehicleNumber string
	Platform      *models.Platform
}

type IDriverStorage interface {
	// Create returns apperr.ErrDuplicateDriver when the pair already exists.
	Create(ctx context.Context, d models.NewDriver) (*models.Driver, error)
	// FindOrCreate atomically returns the row for (VehicleNumber, Platform),
	// inserting d when absent. created reports whether this call inserted it.
	FindOrCreate(ctx context.Context, d models.NewDriver) (driver *models.Driver, created bool, err error)
	GetByID(ctx context.Context, id string) (*models.Driver, error)
	Search(ctx context.Context, f DriverFilter) ([]models.DriverDetails, error)
	ListByContributor(ctx context.Context, profileID string) ([]models.DriverSummary, error)
	TopRated(ctx context.Context, limit int) ([]models.DriverSummary, error)
	Count(ctx context.Context) (int, error)
	// AverageRating is the mean of every driver's average_rating, 0 when there are none.
	AverageRating(ctx context.Context) (float64, error)
}

type IReviewStorage interface {
	// Create returns apperr.ErrDuplicateReview for a second review by the same
	// reviewer and apperr.ErrNotFound when the driver does not exist.
	Create(ctx context.Context, r models.NewReview) (*models.Review, error)
	ListByDriver(ctx context.Context, driverID string) ([]models.Review, error)
	Count(ctx context.Context) (int, error)
}

type IProfileStorage interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	UpdateUsername(ctx context.Context, id, username string) (*models.Profile, error)
	TopContributors(ctx context.Context, limit int) ([]models.Contributor, error)
	Count(ctx context.Context) (int, error)
}

type ICredentialStorage interface {
	// Create inserts the profile and its credential together.
	// Returns apperr.ErrEmailTaken when the email is in use.
	Create(ctx context.Context, email string, username *string, passwordHash string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Credential, error)
}
