package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
)

// TokenIssuer signs and verifies the HS256 bearer tokens the server
// hands out at login
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a new token issuer
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) == 0 {
		return nil, goerr.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: secret, ttl: ttl}, nil
}

// Issue signs a token carrying the user's identity claims
func (t *TokenIssuer) Issue(user *model.User) (string, error) {
	now := time.Now()
	token, err := jwt.NewBuilder().
		IssuedAt(now).
		Expiration(now.Add(t.ttl)).
		Claim("id", user.ID.Int()).
		Claim("username", user.Username).
		Claim("role", user.Role.String()).
		Build()
	if err != nil {
		return "", goerr.Wrap(err, "failed to build token")
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, t.secret))
	if err != nil {
		return "", goerr.Wrap(err, "failed to sign token")
	}
	return string(signed), nil
}

// Verify checks the signature and expiry and returns the claims
func (t *TokenIssuer) Verify(raw string) (*model.Claims, error) {
	token, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.HS256, t.secret),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "token verification failed")
	}

	claims := &model.Claims{}
	if v, ok := token.Get("id"); ok {
		if id, ok := v.(float64); ok {
			claims.UserID = types.UserID(id)
		}
	}
	if v, ok := token.Get("username"); ok {
		if name, ok := v.(string); ok {
			claims.Username = name
		}
	}
	if v, ok := token.Get("role"); ok {
		if role, ok := v.(string); ok {
			claims.Role = types.Role(role)
		}
	}
	if err := claims.Validate(); err != nil {
		return nil, goerr.Wrap(err, "malformed token payload")
	}
	return claims, nil
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	Email string       `json:"email"`
	Role  types.Role   `json:"role"`
	ID    types.UserID `json:"id"`
}

// handleLogin checks credentials and issues a bearer token
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, goerr.Wrap(err, "invalid login body"))
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeBadRequest(w, r, err)
		return
	}

	user, err := s.repo.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, loginResponse{
		Token: token,
		Email: user.Email,
		Role:  user.Role,
		ID:    user.ID,
	})
}
