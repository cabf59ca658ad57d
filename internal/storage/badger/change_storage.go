package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/vigilo/internal/common"
	"github.com/ternarybob/vigilo/internal/interfaces"
	"github.com/ternarybob/vigilo/internal/models"
)

// ChangeStorage implements the ChangeStorage interface for Badger
type ChangeStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewChangeStorage creates a new ChangeStorage instance
func NewChangeStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ChangeStorage {
	return &ChangeStorage{
		db:     db,
		logger: logger,
	}
}

// FindLatest returns the most recent change event for an identity, or
// (nil, nil) when none exists. Multiple rows for one identity should not
// happen under InsertChange's contract but are tolerated: the latest
// ChangeDate wins.
func (s *ChangeStorage) FindLatest(ctx context.Context, name, organization, profileID string) (*models.ChangeEvent, error) {
	var events []models.ChangeEvent
	query := badgerhold.Where("Name").Eq(name).
		And("Organization").Eq(organization).
		And("ProfileID").Eq(profileID).
		SortBy("ChangeDate").Reverse().Limit(1)

	if err := s.db.Store().Find(&events, query); err != nil {
		return nil, &models.StoreError{Op: "find_latest", Err: err}
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

// InsertChange persists a change event. Redundant inserts - an event whose
// NewRole matches the latest stored role for the identity - are a no-op, so
// re-running a crawl with no intervening change never grows the store.
func (s *ChangeStorage) InsertChange(ctx context.Context, event *models.ChangeEvent) error {
	if err := event.Validate(); err != nil {
		return &models.StoreError{Op: "insert_change", Err: err}
	}

	latest, err := s.FindLatest(ctx, event.Name, event.Organization, event.ProfileID)
	if err != nil {
		return err
	}
	if latest != nil && latest.NewRole == event.NewRole {
		s.logger.Debug().
			Str("name", event.Name).
			Str("organization", event.Organization).
			Str("role", event.NewRole).
			Msg("Skipping redundant change event")
		return nil
	}

	if event.ID == "" {
		event.ID = common.NewChangeID()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	if err := s.db.Store().Upsert(event.ID, event); err != nil {
		return &models.StoreError{Op: "insert_change", Err: err}
	}
	return nil
}

// ListChanges returns stored history, newest first, filtered by organization
// and date range.
func (s *ChangeStorage) ListChanges(ctx context.Context, filter interfaces.ChangeFilter) ([]*models.ChangeEvent, error) {
	query := badgerhold.Where("ID").Ne("") // Select all

	if filter.Organization != "" {
		query = query.And("Organization").Eq(filter.Organization)
	}
	if !filter.Since.IsZero() {
		query = query.And("ChangeDate").Ge(filter.Since)
	}
	if !filter.Until.IsZero() {
		query = query.And("ChangeDate").Le(filter.Until)
	}

	query = query.SortBy("ChangeDate").Reverse()
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var events []models.ChangeEvent
	if err := s.db.Store().Find(&events, query); err != nil {
		return nil, &models.StoreError{Op: "list_changes", Err: err}
	}

	result := make([]*models.ChangeEvent, len(events))
	for i := range events {
		result[i] = &events[i]
	}
	return result, nil
}

// CountChanges returns the total number of stored change events.
func (s *ChangeStorage) CountChanges(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ChangeEvent{}, nil)
	if err != nil {
		return 0, &models.StoreError{Op: "count_changes", Err: fmt.Errorf("failed to count change events: %w", err)}
	}
	return int(count), nil
}
