package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/vigilo/internal/models"
)

// ChangeFilter narrows change-event history queries for the presentation
// layer. Zero values mean "no constraint".
type ChangeFilter struct {
	Organization string
	Since        time.Time
	Until        time.Time
	Limit        int
}

// ChangeStorage is the record store the change detector reads from and the
// batch orchestrator writes to.
type ChangeStorage interface {
	// FindLatest returns the most recent change event for an identity, or
	// (nil, nil) when the identity has never been seen. When multiple rows
	// exist for one identity the latest ChangeDate wins.
	FindLatest(ctx context.Context, name, organization, profileID string) (*models.ChangeEvent, error)

	// InsertChange persists a change event. Safe to call redundantly: an
	// event whose NewRole matches the latest stored role for the identity is
	// a no-op, which makes a crawl re-run with no intervening change
	// idempotent.
	InsertChange(ctx context.Context, event *models.ChangeEvent) error

	// ListChanges returns stored history, newest first, filtered by
	// organization and date range.
	ListChanges(ctx context.Context, filter ChangeFilter) ([]*models.ChangeEvent, error)

	// CountChanges returns the total number of stored change events.
	CountChanges(ctx context.Context) (int, error)
}

// OrganizationStorage manages tracked-organization reference data.
type OrganizationStorage interface {
	// ListActive returns organizations with Active=true, ordered by name.
	ListActive(ctx context.Context) ([]*models.TrackedOrganization, error)

	// List returns all organizations including deactivated ones.
	List(ctx context.Context) ([]*models.TrackedOrganization, error)

	// Upsert inserts or updates an organization keyed by name.
	Upsert(ctx context.Context, org *models.TrackedOrganization) error

	// Deactivate soft-deletes an organization. Unknown names are a no-op.
	Deactivate(ctx context.Context, name string) error
}
