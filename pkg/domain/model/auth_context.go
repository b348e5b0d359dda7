package model

import (
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/types"
)

// Claims carries the identity encoded in the bearer credential
type Claims struct {
	UserID   types.UserID
	Username string
	Role     types.Role
}

// Validate validates the claims
func (c *Claims) Validate() error {
	if err := c.UserID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid user ID in claims")
	}
	if !c.Role.IsValid() {
		return goerr.New("invalid role in claims", goerr.V("role", c.Role))
	}
	return nil
}

// ParseClaims reads id, username and role out of a bearer token without
// verifying the signature. Enforcement happens server-side; the client
// only needs the payload to branch on identity.
func ParseClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, goerr.Wrap(ErrAuthRequired, "bearer token is empty")
	}

	parsed, err := jwt.ParseInsecure([]byte(token))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse bearer token")
	}

	claims := &Claims{}
	if v, ok := parsed.Get("id"); ok {
		switch id := v.(type) {
		case float64:
			claims.UserID = types.UserID(id)
		case int64:
			claims.UserID = types.UserID(id)
		}
	}
	if v, ok := parsed.Get("username"); ok {
		if name, ok := v.(string); ok {
			claims.Username = name
		}
	}
	if v, ok := parsed.Get("role"); ok {
		if role, ok := v.(string); ok {
			claims.Role = types.Role(role)
		}
	}

	if err := claims.Validate(); err != nil {
		return nil, goerr.Wrap(err, "malformed token payload")
	}
	return claims, nil
}

// Capabilities is the permission set resolved once per session from the
// credential payload. The workflow consumes these flags instead of
// scattering role comparisons.
type Capabilities struct {
	CanFile          bool // register incidences against users
	CanResolve       bool // confirm or annul pending incidences
	CanDelete        bool // purge incidence records
	CanContest       bool // add the one-shot rebuttal comment
	CanManagePeriods bool // open and close scoring periods
	CanManageCatalog bool // edit severities and common incidences
}

// CapabilitiesFor resolves the capability set for a role
func CapabilitiesFor(role types.Role) Capabilities {
	switch role {
	case types.RoleAdmin, types.RoleSuperadmin:
		return Capabilities{
			CanFile:          true,
			CanResolve:       true,
			CanDelete:        true,
			CanManagePeriods: true,
			CanManageCatalog: true,
		}
	case types.RoleUser:
		return Capabilities{
			CanContest: true,
		}
	default:
		return Capabilities{}
	}
}

// Capabilities resolves the capability set for the claims' role
func (c *Claims) Capabilities() Capabilities {
	return CapabilitiesFor(c.Role)
}
