package drivers

import (
	"context"
	"errors"
	"strings"
	"time"

	"driver-review-service/internal/apperr"
	"driver-review-service/internal/events"
	"driver-review-service/internal/models"
	"driver-review-service/internal/storage"
	"driver-review-service/pkg/logger"
	"driver-review-service/pkg/validation"
)

// Service contains driver business logic.
type Service struct {
	store     storage.IStorage
	validate  *validation.Validator
	publisher events.Publisher
	log       logger.ILogger
}

// NewService creates a driver service.
func NewService(store storage.IStorage, v *validation.Validator, pub events.Publisher, log logger.ILogger) *Service {
	return &Service{store: store, validate: v, publisher: pub, log: log}
}

// Register contributes a new driver record owned by the caller.
func (s *Service) Register(ctx context.Context, id *models.Identity, req RegisterRequest) (*models.Driver, error) {
	if id == nil {
		return nil, apperr.ErrUnauthenticated
	}
	req.VehicleNumber = models.NormalizeVehicleNumber(req.VehicleNumber)
	req.Platform = models.Platform(strings.ToLower(strings.TrimSpace(string(req.Platform))))
	req.DriverName = trimOptional(req.DriverName)
	req.PhoneNumber = trimOptional(req.PhoneNumber)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	owner := id.UserID
	d, err := s.store.Driver().Create(ctx, models.NewDriver{
		VehicleNumber:      req.VehicleNumber,
		Platform:           req.Platform,
		DriverName:         req.DriverName,
		PhoneNumber:        req.PhoneNumber,
		TotalRides:         req.TotalRides,
		IsMultiplePlatform: req.IsMultiplePlatform,
		ContributedBy:      &owner,
	})
	if err != nil {
		if !errors.Is(err, apperr.ErrDuplicateDriver) {
			s.log.Error("register driver failed", logger.String("vehicle_number", req.VehicleNumber), logger.Error(err))
		}
		return nil, err
	}

	s.log.Info("driver registered",
		logger.String("driver_id", d.ID),
		logger.String("vehicle_number", d.VehicleNumber),
		logger.String("platform", d.Platform.String()),
	)
	PublishAdded(ctx, s.publisher, s.log, d, "register")
	return d, nil
}

// Search returns every driver with the given vehicle number, optionally narrowed
// to one platform. No match is an empty slice, not an error.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]models.DriverDetails, error) {
	q.VehicleNumber = models.NormalizeVehicleNumber(q.VehicleNumber)
	q.Platform = models.Platform(strings.ToLower(strings.TrimSpace(string(q.Platform))))
	if err := s.validate.Struct(q); err != nil {
		return nil, err
	}

	f := storage.DriverFilter{VehicleNumber: q.VehicleNumber}
	if q.Platform != "" {
		p := q.Platform
		f.Platform = &p
	}
	out, err := s.store.Driver().Search(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.DriverDetails{}
	}
	return out, nil
}

// GetByID returns one driver with its reviews and contributor username.
func (s *Service) GetByID(ctx context.Context, driverID string) (*models.DriverDetails, error) {
	d, err := s.store.Driver().GetByID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.store.Review().ListByDriver(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	out := &models.DriverDetails{Driver: *d, Reviews: reviews}
	if d.ContributedBy != nil {
		p, err := s.store.Profile().GetByID(ctx, *d.ContributedBy)
		switch {
		case err == nil:
			out.ContributorUsername = p.Username
		case !errors.Is(err, apperr.ErrNotFound):
			return nil, err
		}
	}
	return out, nil
}

// PublishAdded emits driver.added. Failures are logged, never returned:
// the row is already committed.
func PublishAdded(ctx context.Context, pub events.Publisher, log logger.ILogger, d *models.Driver, source string) {
	ev := events.DriverAddedEvent{
		DriverID:      d.ID,
		VehicleNumber: d.VehicleNumber,
		Platform:      d.Platform.String(),
		ContributedBy: d.ContributedBy,
		Source:        source,
		CreatedAt:     d.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := pub.Publish(ctx, events.TopicDriverAdded, d.ID, ev); err != nil {
		log.Warning("publish driver.added failed", logger.String("driver_id", d.ID), logger.Error(err))
	}
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
