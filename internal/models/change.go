package models

import (
	"fmt"
	"time"
)

// ChangeEvent records a new appearance or a role change for one identity.
// An event exists only when NewRole differs from the latest stored role for
// the identity (or no prior role exists) - unchanged members never produce
// events, which keeps the store bounded across repeated crawls.
type ChangeEvent struct {
	ID           string    `json:"id" badgerhold:"key"`
	Name         string    `json:"name"`
	Organization string    `json:"organization"`
	ProfileID    string    `json:"profile_id"`
	ProfileURL   string    `json:"profile_url"`
	OldRole      string    `json:"old_role"` // empty when IsNew
	NewRole      string    `json:"new_role"`
	IsNew        bool      `json:"is_new"` // true iff no prior record existed for the identity
	ChangeDate   time.Time `json:"change_date"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity returns the same key shape as MemberRecord.Identity.
func (e *ChangeEvent) Identity() string {
	return fmt.Sprintf("%s|%s|%s", e.Name, e.Organization, e.ProfileID)
}

// Validate checks event consistency before persistence.
func (e *ChangeEvent) Validate() error {
	if e.Name == "" || e.Organization == "" || e.ProfileID == "" {
		return fmt.Errorf("change event identity is incomplete")
	}
	if e.IsNew && e.OldRole != "" {
		return fmt.Errorf("new-member event must not carry an old role")
	}
	if !e.IsNew && e.OldRole == e.NewRole {
		return fmt.Errorf("change event requires old and new roles to differ")
	}
	return nil
}
