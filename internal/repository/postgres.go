package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/can-karakoc/ai-marketplace-search/internal/model"
)

// PostgresRepository loads the listing catalog and records search activity.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// ListListings loads the full catalog. A NULL price is surfaced as -1 so
// the catalog can apply its invalid-price exclusion in one place.
func (r *PostgresRepository) ListListings(ctx context.Context) ([]model.Listing, error) {
	query := `
		SELECT
			id, COALESCE(description, '') AS description,
			COALESCE(price, -1) AS price,
			amenities, COALESCE(location, '') AS location,
			embedding, created_at, updated_at
		FROM listings
		ORDER BY id
	`

	var listings []model.Listing
	if err := r.db.SelectContext(ctx, &listings, query); err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	return listings, nil
}

// SaveEmbedding persists the embedding vector for a listing
func (r *PostgresRepository) SaveEmbedding(ctx context.Context, listingID int64, embedding []float32) error {
	vec := pgvector.NewVector(embedding)
	query := `UPDATE listings SET embedding = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, vec, listingID); err != nil {
		return fmt.Errorf("failed to save embedding: %w", err)
	}
	return nil
}

// LogSearch records a completed search with its extracted intent.
func (r *PostgresRepository) LogSearch(ctx context.Context, searchID, query string, intent *model.QueryIntent, resultIDs []int64, tookMs int64) error {
	intentJSON, err := json.Marshal(intent)
	if err != nil {
		return fmt.Errorf("failed to marshal intent: %w", err)
	}

	logQuery := `
		INSERT INTO search_logs (search_id, query, intent, result_listing_ids, response_time_ms)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, logQuery, searchID, query, intentJSON, pq.Array(resultIDs), tookMs); err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}

// LogFeedback records a user action against a logged search.
func (r *PostgresRepository) LogFeedback(ctx context.Context, searchID string, listingID int64, action string) error {
	query := `
		UPDATE search_logs
		SET clicked_listing_id = $2, action = $3
		WHERE search_id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, searchID, listingID, action); err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	return nil
}
