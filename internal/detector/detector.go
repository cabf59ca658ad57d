package detector

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigilo/internal/interfaces"
	"github.com/ternarybob/vigilo/internal/models"
)

// Detector classifies freshly scraped member records against the record
// store as new, changed, or unchanged, emitting events only for the first
// two. Role comparison is literal string equality - whitespace or casing
// differences in the extracted text register as changes.
type Detector struct {
	store  interfaces.ChangeStorage
	logger arbor.ILogger
}

// NewDetector creates a change detector backed by the given store.
func NewDetector(store interfaces.ChangeStorage, logger arbor.ILogger) *Detector {
	return &Detector{
		store:  store,
		logger: logger,
	}
}

// Classify looks up the most recent stored role for the record's identity
// and returns a ChangeEvent for a first sighting or a role change, or
// (nil, nil) when the role is unchanged. Store failures propagate to the
// caller; the record is simply lost for this pass.
func (d *Detector) Classify(ctx context.Context, record models.MemberRecord) (*models.ChangeEvent, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	prior, err := d.store.FindLatest(ctx, record.Name, record.Organization, record.ProfileID)
	if err != nil {
		return nil, err
	}

	if prior == nil {
		d.logger.Debug().
			Str("name", record.Name).
			Str("organization", record.Organization).
			Str("role", record.Role).
			Msg("First sighting")
		return d.newEvent(record, "", true), nil
	}

	if prior.NewRole != record.Role {
		d.logger.Debug().
			Str("name", record.Name).
			Str("organization", record.Organization).
			Str("old_role", prior.NewRole).
			Str("new_role", record.Role).
			Msg("Role change detected")
		return d.newEvent(record, prior.NewRole, false), nil
	}

	return nil, nil
}

func (d *Detector) newEvent(record models.MemberRecord, oldRole string, isNew bool) *models.ChangeEvent {
	return &models.ChangeEvent{
		Name:         record.Name,
		Organization: record.Organization,
		ProfileID:    record.ProfileID,
		ProfileURL:   record.ProfileURL,
		OldRole:      oldRole,
		NewRole:      record.Role,
		IsNew:        isNew,
		ChangeDate:   time.Now().UTC(),
	}
}
