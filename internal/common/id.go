package common

import (
	"github.com/google/uuid"
)

// NewChangeID generates a unique change-event ID with the "chg_" prefix
// Format: chg_<uuid>
func NewChangeID() string {
	return "chg_" + uuid.New().String()
}

// NewOrganizationID generates a unique organization ID with the "org_" prefix
func NewOrganizationID() string {
	return "org_" + uuid.New().String()
}
