package model

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/types"
)

// User represents a user account
type User struct {
	ID       types.UserID `json:"id"`
	Username string       `json:"username"`
	Email    string       `json:"email,omitempty"`
	Image    string       `json:"image,omitempty"`
	Role     types.Role   `json:"role,omitempty"`
}

// Validate validates the user
func (u *User) Validate() error {
	if err := u.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid user ID")
	}
	if u.Username == "" {
		return goerr.New("username is required")
	}
	if u.Role != "" && !u.Role.IsValid() {
		return goerr.New("invalid role", goerr.V("role", u.Role))
	}
	return nil
}

// UserRef is the reduced user shape embedded in incidences and scores
type UserRef struct {
	ID       types.UserID `json:"id"`
	Username string       `json:"username"`
	Image    string       `json:"image,omitempty"`
}

// Ref returns the embeddable reference for the user
func (u *User) Ref() UserRef {
	return UserRef{
		ID:       u.ID,
		Username: u.Username,
		Image:    u.Image,
	}
}
