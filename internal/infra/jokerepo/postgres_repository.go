package jokerepo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kowalskibot/assistant/internal/domain/assistant"
	apperrors "github.com/kowalskibot/assistant/pkg/errors"
)

// PostgresRepository serves jokes from a Postgres table using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Joke returns one random joke from the catalog.
func (r *PostgresRepository) Joke(ctx context.Context) (string, error) {
	var content string
	err := r.pool.QueryRow(ctx, `
		SELECT content
		FROM jokes
		ORDER BY random()
		LIMIT 1
	`).Scan(&content)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", apperrors.Wrap("joke_repository_error", "fetch random joke", err)
	}
	return content, nil
}

var _ assistant.JokeProvider = (*PostgresRepository)(nil)
