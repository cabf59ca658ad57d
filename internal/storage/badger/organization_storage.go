package badger

import (
	"context"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/vigilo/internal/common"
	"github.com/ternarybob/vigilo/internal/models"
)

// OrganizationStorage implements the OrganizationStorage interface for Badger
type OrganizationStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewOrganizationStorage creates a new OrganizationStorage instance
func NewOrganizationStorage(db *BadgerDB, logger arbor.ILogger) *OrganizationStorage {
	return &OrganizationStorage{
		db:     db,
		logger: logger,
	}
}

func (s *OrganizationStorage) ListActive(ctx context.Context) ([]*models.TrackedOrganization, error) {
	var orgs []models.TrackedOrganization
	if err := s.db.Store().Find(&orgs, badgerhold.Where("Active").Eq(true)); err != nil {
		return nil, &models.StoreError{Op: "list_active_organizations", Err: err}
	}
	return sortedOrgPointers(orgs), nil
}

func (s *OrganizationStorage) List(ctx context.Context) ([]*models.TrackedOrganization, error) {
	var orgs []models.TrackedOrganization
	if err := s.db.Store().Find(&orgs, badgerhold.Where("ID").Ne("")); err != nil {
		return nil, &models.StoreError{Op: "list_organizations", Err: err}
	}
	return sortedOrgPointers(orgs), nil
}

// Upsert inserts or updates an organization keyed by name. An existing
// organization keeps its ID and CreatedAt; URL and Active follow the input.
func (s *OrganizationStorage) Upsert(ctx context.Context, org *models.TrackedOrganization) error {
	if err := org.Validate(); err != nil {
		return &models.StoreError{Op: "upsert_organization", Err: err}
	}

	existing, err := s.findByName(org.Name)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if existing != nil {
		org.ID = existing.ID
		org.CreatedAt = existing.CreatedAt
	} else {
		if org.ID == "" {
			org.ID = common.NewOrganizationID()
		}
		org.CreatedAt = now
	}
	org.UpdatedAt = now

	if err := s.db.Store().Upsert(org.ID, org); err != nil {
		return &models.StoreError{Op: "upsert_organization", Err: err}
	}
	return nil
}

// Deactivate soft-deletes an organization. Organizations are never hard
// deleted so stored change events keep a valid owner.
func (s *OrganizationStorage) Deactivate(ctx context.Context, name string) error {
	existing, err := s.findByName(name)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	existing.Active = false
	existing.UpdatedAt = time.Now().UTC()
	if err := s.db.Store().Upsert(existing.ID, existing); err != nil {
		return &models.StoreError{Op: "deactivate_organization", Err: err}
	}

	s.logger.Info().Str("organization", name).Msg("Organization deactivated")
	return nil
}

// SeedFromConfig upserts the configured organization list as active entries.
// Entries already in storage are reactivated and their URL refreshed; stored
// organizations absent from config are left untouched.
func (s *OrganizationStorage) SeedFromConfig(ctx context.Context, seeds []common.OrganizationSeed) error {
	for _, seed := range seeds {
		org := &models.TrackedOrganization{
			Name:      seed.Name,
			SourceURL: seed.URL,
			Active:    true,
		}
		if err := s.Upsert(ctx, org); err != nil {
			return err
		}
	}
	if len(seeds) > 0 {
		s.logger.Debug().Int("count", len(seeds)).Msg("Seeded tracked organizations from config")
	}
	return nil
}

func (s *OrganizationStorage) findByName(name string) (*models.TrackedOrganization, error) {
	var orgs []models.TrackedOrganization
	if err := s.db.Store().Find(&orgs, badgerhold.Where("Name").Eq(name)); err != nil {
		return nil, &models.StoreError{Op: "find_organization", Err: err}
	}
	if len(orgs) == 0 {
		return nil, nil
	}
	return &orgs[0], nil
}

func sortedOrgPointers(orgs []models.TrackedOrganization) []*models.TrackedOrganization {
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })
	result := make([]*models.TrackedOrganization, len(orgs))
	for i := range orgs {
		result[i] = &orgs[i]
	}
	return result
}
