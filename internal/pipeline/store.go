// Package pipeline persists saved leads and keeps an in-memory mirror of the
// pipeline consistent with the remote store.
package pipeline

import (
	"context"

	"github.com/zonova/leadscout/internal/model"
)

// updatableFields is the allow-list of columns the partial-update path may
// touch. CreatedAt and the natural key are deliberately absent: creation time
// is write-once and the place identifier never changes.
var updatableFields = map[string]bool{
	"status":   true,
	"notes":    true,
	"email":    true,
	"web_url":  true,
	"phone":    true,
	"whatsapp": true,
}

// Store defines the persistence interface for the lead pipeline.
type Store interface {
	// List returns all leads ordered by descending creation time.
	List(ctx context.Context) ([]model.PipelineLead, error)

	// Exists performs an equality lookup on the natural key.
	Exists(ctx context.Context, placeID string) (bool, error)

	// Insert persists a new lead. The store assigns the document ID and the
	// creation timestamp; the returned lead carries both.
	Insert(ctx context.Context, lead model.PipelineLead) (*model.PipelineLead, error)

	// UpdateFields patches exactly the named fields of one lead. Fields
	// outside the allow-list are rejected.
	UpdateFields(ctx context.Context, id string, fields map[string]any) error

	// Delete removes a lead by its store identifier.
	Delete(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
