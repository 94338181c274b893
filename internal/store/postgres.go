package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Predefined errors for store operations
var (
	ErrContextNotFound = errors.New("store: conversation context not found")
)

// PostgresStore implements ConversationStorer using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// UpsertContext records the last product SKU shown to a user, replacing any
// previous value.
func (s *PostgresStore) UpsertContext(ctx context.Context, userID, lastSKU string) error {
	query := `
		INSERT INTO assistant.conversation_contexts (user_id, last_sku, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id)
		DO UPDATE SET last_sku = EXCLUDED.last_sku, updated_at = CURRENT_TIMESTAMP;
	`
	if _, err := s.db.ExecContext(ctx, query, userID, lastSKU); err != nil {
		return fmt.Errorf("store: UpsertContext failed: %w", err)
	}
	return nil
}

// GetContext returns the stored context for a user, or ErrContextNotFound.
func (s *PostgresStore) GetContext(ctx context.Context, userID string) (*ConversationContext, error) {
	query := `
		SELECT user_id, last_sku, updated_at
		FROM assistant.conversation_contexts
		WHERE user_id = $1;
	`
	var cc ConversationContext
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&cc.UserID, &cc.LastSKU, &cc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContextNotFound
		}
		return nil, fmt.Errorf("store: GetContext failed to scan row: %w", err)
	}
	return &cc, nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
