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

type credentialRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewCredentialRepo(db *pgxpool.Pool, log logger.ILogger) storage.ICredentialStorage {
	return &credentialRepo{db: db, log: log}
}

func (r *credentialRepo) Create(ctx context.Context, email string, username *string, passwordHash string) (*models.Profile, error) {
	var p models.Profile
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO profiles (email, username) VALUES ($1, $2) RETURNING `+profileColumns,
			email, username).Scan(&p.ID, &p.Email, &p.Username, &p.ContributionScore, &p.CreatedAt)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `INSERT INTO credentials (profile_id, password_hash) VALUES ($1, $2)`, p.ID, passwordHash)
		return err
	})
	if err != nil {
		mapped := mapError(err)
		if mapped == err {
			r.log.Error("failed to create profile", logger.Error(err))
		}
		return nil, mapped
	}
	return &p, nil
}

func (r *credentialRepo) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	var c models.Credential
	err := r.db.QueryRow(ctx, `
		SELECT p.id::text, p.email, c.password_hash
		FROM profiles p
		JOIN credentials c ON c.profile_id = p.id
		WHERE LOWER(p.email) = LOWER($1)`, email).Scan(&c.ProfileID, &c.Email, &c.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("credential: %w", mapError(err))
	}
	return &c, nil
}
