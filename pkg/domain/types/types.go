package types

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// IncidenceID represents an incidence identifier
type IncidenceID int

// String returns the string representation
func (id IncidenceID) String() string {
	return fmt.Sprintf("%d", id)
}

// Int returns the int representation
func (id IncidenceID) Int() int {
	return int(id)
}

// Validate checks if the incidence ID is valid
func (id IncidenceID) Validate() error {
	if id <= 0 {
		return goerr.New("incidence ID must be positive", goerr.V("id", int(id)))
	}
	return nil
}

// PeriodID represents a scoring period identifier
type PeriodID int

// String returns the string representation
func (id PeriodID) String() string {
	return fmt.Sprintf("%d", id)
}

// Int returns the int representation
func (id PeriodID) Int() int {
	return int(id)
}

// Validate checks if the period ID is valid
func (id PeriodID) Validate() error {
	if id <= 0 {
		return goerr.New("period ID must be positive", goerr.V("id", int(id)))
	}
	return nil
}

// SeverityID represents a severity identifier
type SeverityID int

// String returns the string representation
func (id SeverityID) String() string {
	return fmt.Sprintf("%d", id)
}

// CommonIncidenceID represents a common incidence template identifier
type CommonIncidenceID int

// String returns the string representation
func (id CommonIncidenceID) String() string {
	return fmt.Sprintf("%d", id)
}

// UserID represents a user identifier
type UserID int

// String returns the string representation
func (id UserID) String() string {
	return fmt.Sprintf("%d", id)
}

// Int returns the int representation
func (id UserID) Int() int {
	return int(id)
}

// Validate checks if the user ID is valid
func (id UserID) Validate() error {
	if id <= 0 {
		return goerr.New("user ID must be positive", goerr.V("id", int(id)))
	}
	return nil
}

// ImageID represents an incidence image attachment identifier
type ImageID string

// String returns the string representation
func (id ImageID) String() string {
	return string(id)
}

// NewImageID creates a new ImageID
func NewImageID() ImageID {
	return ImageID(uuid.New().String())
}

// Role represents the privilege level carried by a credential
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return true
	default:
		return false
	}
}

// IsAdmin returns true for admin and superadmin roles
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}
