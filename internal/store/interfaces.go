package store

import (
	"context"
	"time"
)

// ConversationContext is the per-user conversational state the assistant
// keeps between requests: the SKU of the last product shown, so follow-up
// questions like "does it dim?" can resolve to a product.
type ConversationContext struct {
	UserID    string    `json:"user_id"`
	LastSKU   string    `json:"last_sku"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationStorer defines persistence for conversation contexts.
type ConversationStorer interface {
	UpsertContext(ctx context.Context, userID, lastSKU string) error
	GetContext(ctx context.Context, userID string) (*ConversationContext, error)
}
