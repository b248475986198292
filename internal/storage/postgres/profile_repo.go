package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"driver-review-service/internal/models"
	"driver-review-service/internal/storage"
	"driver-review-service/pkg/logger"
)

const profileColumns = `id::text, email, username, contribution_score, created_at`

type profileRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewProfileRepo(db *pgxpool.Pool, log logger.ILogger) storage.IProfileStorage {
	return &profileRepo{db: db, log: log}
}

func (r *profileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	if err := notFoundIfBadID("profile", id); err != nil {
		return nil, err
	}
	var p models.Profile
	err := r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id).Scan(
		&p.ID, &p.Email, &p.Username, &p.ContributionScore, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", id, mapError(err))
	}
	return &p, nil
}

func (r *profileRepo) UpdateUsername(ctx context.Context, id, username string) (*models.Profile, error) {
	if err := notFoundIfBadID("profile", id); err != nil {
		return nil, err
	}
	var p models.Profile
	err := r.db.QueryRow(ctx,
		`UPDATE profiles SET username = $1 WHERE id = $2 RETURNING `+profileColumns, username, id).Scan(
		&p.ID, &p.Email, &p.Username, &p.ContributionScore, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", id, mapError(err))
	}
	return &p, nil
}

func (r *profileRepo) TopContributors(ctx context.Context, limit int) ([]models.Contributor, error) {
	query := `
		SELECT p.id::text, p.email, p.username, p.contribution_score, COUNT(d.id)::int AS drivers_added
		FROM profiles p
		LEFT JOIN drivers d ON d.contributed_by = p.id
		GROUP BY p.id
		ORDER BY p.contribution_score DESC NULLS LAST, p.created_at ASC
		LIMIT $1`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.log.Error("failed to load top contributors", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	out := []models.Contributor{}
	for rows.Next() {
		var p models.Profile
		var added int
		if err := rows.Scan(&p.ID, &p.Email, &p.Username, &p.ContributionScore, &added); err != nil {
			return nil, err
		}
		c := models.Contributor{
			ID:           p.ID,
			Username:     p.Username,
			DisplayName:  p.DisplayName(),
			DriversAdded: added,
			Score:        added,
		}
		if p.ContributionScore != nil {
			c.Score = *p.ContributionScore
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *profileRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, "SELECT count(*) FROM profiles").Scan(&count)
	return count, err
}
