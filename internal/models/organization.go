package models

import (
	"fmt"
	"time"
)

// TrackedOrganization is long-lived reference data describing one
// organization whose personnel listing is crawled. Organizations are soft
// deleted (Active=false), never removed, so historical change events keep a
// valid owner.
type TrackedOrganization struct {
	ID        string    `json:"id" badgerhold:"key"`
	Name      string    `json:"name" validate:"required"`
	SourceURL string    `json:"source_url" validate:"required,url"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate validates the organization reference data.
func (o *TrackedOrganization) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("organization name is required")
	}
	if o.SourceURL == "" {
		return fmt.Errorf("organization source URL is required")
	}
	return nil
}
