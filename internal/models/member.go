package models

import (
	"fmt"
	"time"
)

// MemberRecord is a single person-at-organization observation produced by the
// crawler. Records live only for the duration of a crawl pass; the change
// detector discards them after diffing against the store.
type MemberRecord struct {
	Name         string    `json:"name"`
	Organization string    `json:"organization"`
	Role         string    `json:"role"` // may be empty when the card renders without a subtitle
	ProfileID    string    `json:"profile_id"`
	ProfileURL   string    `json:"profile_url"`
	ObservedAt   time.Time `json:"observed_at"`
}

// Identity returns the dedup/lookup key for change detection.
// (Name, Organization, ProfileID) identify one real-world person at an
// organization; Role is the only field expected to vary between passes.
func (m *MemberRecord) Identity() string {
	return fmt.Sprintf("%s|%s|%s", m.Name, m.Organization, m.ProfileID)
}

// Validate checks that the record carries the fields required for identity.
func (m *MemberRecord) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("member name is required")
	}
	if m.Organization == "" {
		return fmt.Errorf("member organization is required")
	}
	if m.ProfileID == "" {
		return fmt.Errorf("member profile ID is required")
	}
	return nil
}
