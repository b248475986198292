package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"driver-review-service/internal/apperr"
	"driver-review-service/internal/models"
	"driver-review-service/internal/storage"
	"driver-review-service/pkg/logger"
)

// Constraint names from migrations/000001_init.up.sql.
const (
	driversUniqueKey   = "drivers_vehicle_number_platform_key"
	reviewsUniqueKey   = "reviews_driver_id_reviewer_id_key"
	profilesEmailKey   = "profiles_email_key"
	reviewsDriverFKey  = "reviews_driver_id_fkey"
	reviewsProfileFKey = "reviews_reviewer_id_fkey"
	reviewsRatingCheck = "reviews_rating_check"

	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
)

type Store struct {
	pool *pgxpool.Pool
	log  logger.ILogger
}

func New(pool *pgxpool.Pool, log logger.ILogger) storage.IStorage {
	return &Store{pool: pool, log: log}
}

func (s *Store) Driver() storage.IDriverStorage         { return NewDriverRepo(s.pool, s.log) }
func (s *Store) Review() storage.IReviewStorage         { return NewReviewRepo(s.pool, s.log) }
func (s *Store) Profile() storage.IProfileStorage       { return NewProfileRepo(s.pool, s.log) }
func (s *Store) Credential() storage.ICredentialStorage { return NewCredentialRepo(s.pool, s.log) }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() { s.pool.Close() }

// mapError translates constraint violations into the apperr taxonomy.
// Anything unrecognised is returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		switch pgErr.ConstraintName {
		case driversUniqueKey:
			return apperr.ErrDuplicateDriver
		case reviewsUniqueKey:
			return apperr.ErrDuplicateReview
		case profilesEmailKey:
			return apperr.ErrEmailTaken
		}
	case codeForeignKeyViolation:
		switch pgErr.ConstraintName {
		case reviewsDriverFKey:
			return fmt.Errorf("driver: %w", apperr.ErrNotFound)
		case reviewsProfileFKey:
			return fmt.Errorf("reviewer profile: %w", apperr.ErrNotFound)
		}
	case codeCheckViolation:
		if pgErr.ConstraintName == reviewsRatingCheck {
			return apperr.Invalid("rating", "Rating must be between %d and %d.", models.MinRating, models.MaxRating)
		}
		return apperr.Invalid(pgErr.ColumnName, "%s", pgErr.Message)
	case codeInvalidText:
		// malformed uuid in a lookup
		return apperr.ErrNotFound
	}
	return err
}

// notFoundIfBadID short-circuits lookups by ids that cannot be uuids.
func notFoundIfBadID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, apperr.ErrNotFound)
	}
	return nil
}
