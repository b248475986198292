package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"driver-review-service/internal/apperr"
	"driver-review-service/internal/drivers"
	"driver-review-service/internal/events"
	"driver-review-service/internal/models"
	"driver-review-service/internal/storage"
	"driver-review-service/pkg/logger"
	"driver-review-service/pkg/validation"
)

// Service contains review business logic.
type Service struct {
	store     storage.IStorage
	validate  *validation.Validator
	publisher events.Publisher
	log       logger.ILogger
}

// NewService creates a review service.
func NewService(store storage.IStorage, v *validation.Validator, pub events.Publisher, log logger.ILogger) *Service {
	return &Service{store: store, validate: v, publisher: pub, log: log}
}

// Submit attaches the caller's review to an existing driver.
func (s *Service) Submit(ctx context.Context, id *models.Identity, req SubmitRequest) (*models.Review, error) {
	if id == nil {
		return nil, apperr.ErrUnauthenticated
	}
	req.DriverID = strings.TrimSpace(req.DriverID)
	req.ReviewText = trimOptional(req.ReviewText)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	rideDate, err := parseRideDate(req.RideDate)
	if err != nil {
		return nil, err
	}

	d, err := s.store.Driver().GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, d, models.NewReview{
		DriverID:   d.ID,
		ReviewerID: id.UserID,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
		RideDate:   rideDate,
	})
}

// QuickReview finds or creates the driver for (vehicle_number, platform) and
// attaches the caller's review to it. Concurrent calls for an absent vehicle
// create exactly one driver. If the review insert fails after the driver was
// created, the minimal driver is kept.
func (s *Service) QuickReview(ctx context.Context, id *models.Identity, req QuickReviewRequest) (*QuickReviewResult, error) {
	if id == nil {
		return nil, apperr.ErrUnauthenticated
	}
	req.VehicleNumber = models.NormalizeVehicleNumber(req.VehicleNumber)
	req.Platform = models.Platform(strings.ToLower(strings.TrimSpace(string(req.Platform))))
	req.ReviewText = trimOptional(req.ReviewText)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	rideDate, err := parseRideDate(req.RideDate)
	if err != nil {
		return nil, err
	}

	owner := id.UserID
	d, created, err := s.store.Driver().FindOrCreate(ctx, models.NewDriver{
		VehicleNumber: req.VehicleNumber,
		Platform:      req.Platform,
		ContributedBy: &owner,
	})
	if err != nil {
		s.log.Error("quick review: find or create driver failed", logger.String("vehicle_number", req.VehicleNumber), logger.Error(err))
		return nil, err
	}
	if created {
		s.log.Info("driver created by quick review", logger.String("driver_id", d.ID), logger.String("vehicle_number", d.VehicleNumber))
		drivers.PublishAdded(ctx, s.publisher, s.log, d, "quick_review")
	}

	rv, err := s.create(ctx, d, models.NewReview{
		DriverID:   d.ID,
		ReviewerID: id.UserID,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
		RideDate:   rideDate,
	})
	if err != nil {
		return nil, err
	}

	// re-read so average_rating reflects the new review
	if fresh, err := s.store.Driver().GetByID(ctx, d.ID); err == nil {
		d = fresh
	}
	return &QuickReviewResult{Driver: d, Review: rv, DriverCreated: created}, nil
}

func (s *Service) create(ctx context.Context, d *models.Driver, nr models.NewReview) (*models.Review, error) {
	rv, err := s.store.Review().Create(ctx, nr)
	if err != nil {
		if !errors.Is(err, apperr.ErrDuplicateReview) && !errors.Is(err, apperr.ErrNotFound) && !apperr.IsValidation(err) {
			s.log.Error("create review failed", logger.String("driver_id", nr.DriverID), logger.Error(err))
		}
		return nil, err
	}

	s.log.Info("review submitted",
		logger.String("review_id", rv.ID),
		logger.String("driver_id", rv.DriverID),
		logger.Int("rating", rv.Rating),
	)
	ev := events.ReviewSubmittedEvent{
		ReviewID:      rv.ID,
		DriverID:      d.ID,
		VehicleNumber: d.VehicleNumber,
		Platform:      d.Platform.String(),
		ReviewerID:    rv.ReviewerID,
		Rating:        rv.Rating,
		ReviewText:    rv.ReviewText,
		CreatedAt:     rv.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := s.publisher.Publish(ctx, events.TopicReviewSubmitted, d.ID, ev); err != nil {
		s.log.Warning("publish review.submitted failed", logger.String("review_id", rv.ID), logger.Error(err))
	}
	return rv, nil
}

func parseRideDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, apperr.Invalid("ride_date", "Ride date must be formatted as YYYY-MM-DD.")
	}
	return &t, nil
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
