package profiles

import (
	"context"
	"strings"

	"driver-review-service/internal/apperr"
	"driver-review-service/internal/events"
	"driver-review-service/internal/models"
	"driver-review-service/internal/storage"
	"driver-review-service/pkg/logger"
	"driver-review-service/pkg/validation"
)

// UpdateRequest is the body for PATCH /profiles/{id}.
type UpdateRequest struct {
	Username string `json:"username" validate:"username"`
}

// Service contains profile business logic.
type Service struct {
	store     storage.IStorage
	validate  *validation.Validator
	publisher events.Publisher
	log       logger.ILogger
}

func NewService(store storage.IStorage, v *validation.Validator, pub events.Publisher, log logger.ILogger) *Service {
	return &Service{store: store, validate: v, publisher: pub, log: log}
}

// Get returns a profile with the drivers it contributed, newest first.
func (s *Service) Get(ctx context.Context, profileID string) (*models.ProfileDetails, error) {
	p, err := s.store.Profile().GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	ds, err := s.store.Driver().ListByContributor(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &models.ProfileDetails{Profile: *p, Drivers: ds}, nil
}

// UpdateUsername sets the display name of the caller's own profile.
// Usernames are not unique.
func (s *Service) UpdateUsername(ctx context.Context, id *models.Identity, profileID, username string) (*models.Profile, error) {
	if id == nil {
		return nil, apperr.ErrUnauthenticated
	}
	req := UpdateRequest{Username: strings.TrimSpace(username)}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if id.UserID != profileID {
		return nil, apperr.ErrForbidden
	}

	p, err := s.store.Profile().UpdateUsername(ctx, profileID, req.Username)
	if err != nil {
		return nil, err
	}
	s.log.Info("username updated", logger.String("profile_id", p.ID))

	ev := events.ProfileUpdatedEvent{ProfileID: p.ID, Username: req.Username}
	if err := s.publisher.Publish(ctx, events.TopicProfileUpdated, p.ID, ev); err != nil {
		s.log.Warning("publish profile.updated failed", logger.String("profile_id", p.ID), logger.Error(err))
	}
	return p, nil
}
