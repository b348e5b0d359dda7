package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/conduct-lab/demerit/pkg/domain/interfaces"
	"github.com/conduct-lab/demerit/pkg/domain/model"
	"github.com/conduct-lab/demerit/pkg/domain/types"
)

// Client is the HTTP implementation of the incidence service contract.
// Every request carries the bearer credential; an HTTP 401 surfaces as
// model.ErrAuthRequired so callers re-authenticate instead of retrying.
// Nothing is retried automatically.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithToken sets the bearer credential
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a new API client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ interfaces.Client = (*Client)(nil)

// SetToken replaces the bearer credential after a login round-trip
func (c *Client) SetToken(token string) {
	c.token = token
}

// LoginResult is the login response payload
type LoginResult struct {
	Token string       `json:"token"`
	Email string       `json:"email"`
	Role  types.Role   `json:"role"`
	ID    types.UserID `json:"id"`
}

// Login exchanges credentials for a bearer token. It is the only call
// that goes out without one.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ListPeriods lists all scoring periods
func (c *Client) ListPeriods(ctx context.Context) ([]*model.Period, error) {
	var periods []*model.Period
	if err := c.do(ctx, http.MethodGet, "/periods", nil, &periods); err != nil {
		return nil, err
	}
	return periods, nil
}

// CreatePeriod opens a new period starting now
func (c *Client) CreatePeriod(ctx context.Context) (*model.Period, error) {
	var period model.Period
	if err := c.do(ctx, http.MethodPost, "/periods", map[string]any{}, &period); err != nil {
		return nil, err
	}
	return &period, nil
}

// ClosePeriod closes a period; the close is one-way
func (c *Client) ClosePeriod(ctx context.Context, id types.PeriodID) error {
	return c.do(ctx, http.MethodPatch, "/periods/"+id.String(), map[string]any{
		"is_open": false,
	}, nil)
}

// ListSeverities lists the severity catalog
func (c *Client) ListSeverities(ctx context.Context) ([]*model.Severity, error) {
	var severities []*model.Severity
	if err := c.do(ctx, http.MethodGet, "/severities", nil, &severities); err != nil {
		return nil, err
	}
	return severities, nil
}

// CreateSeverity adds a severity to the catalog
func (c *Client) CreateSeverity(ctx context.Context, name string, value float64) error {
	return c.do(ctx, http.MethodPost, "/severities", map[string]any{
		"name":  name,
		"value": value,
	}, nil)
}

// ListCommonIncidences lists the template catalog
func (c *Client) ListCommonIncidences(ctx context.Context) ([]*model.CommonIncidence, error) {
	var templates []*model.CommonIncidence
	if err := c.do(ctx, http.MethodGet, "/common-incidences", nil, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// CreateCommonIncidence adds a template to the catalog
func (c *Client) CreateCommonIncidence(ctx context.Context, incidence, severity string) error {
	return c.do(ctx, http.MethodPost, "/common-incidences", map[string]string{
		"incidence": incidence,
		"severity":  severity,
	}, nil)
}

// UpdateCommonIncidence edits a template
func (c *Client) UpdateCommonIncidence(ctx context.Context, id types.CommonIncidenceID, incidence, severity string) error {
	return c.do(ctx, http.MethodPatch, "/common-incidences/"+id.String(), map[string]string{
		"incidence": incidence,
		"severity":  severity,
	}, nil)
}

// CreateIncidence files an incidence and returns the created record,
// including the id attachments are uploaded against
func (c *Client) CreateIncidence(ctx context.Context, input interfaces.CreateIncidenceInput) (*model.Incidence, error) {
	var incidence model.Incidence
	if err := c.do(ctx, http.MethodPost, "/incidences", input, &incidence); err != nil {
		return nil, err
	}
	return &incidence, nil
}

// UploadIncidenceImage uploads an evidentiary attachment
func (c *Client) UploadIncidenceImage(ctx context.Context, id types.IncidenceID, filename string, file io.Reader) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return goerr.Wrap(err, "failed to build multipart body")
	}
	if _, err := io.Copy(part, file); err != nil {
		return goerr.Wrap(err, "failed to read image file", goerr.V("filename", filename))
	}
	if err := writer.Close(); err != nil {
		return goerr.Wrap(err, "failed to finish multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/incidences/images/"+id.String(), &body)
	if err != nil {
		return goerr.Wrap(err, "failed to build upload request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.send(req, nil)
}

// GetIncidence retrieves an incidence by ID
func (c *Client) GetIncidence(ctx context.Context, id types.IncidenceID) (*model.Incidence, error) {
	var incidence model.Incidence
	if err := c.do(ctx, http.MethodGet, "/incidences/"+id.String(), nil, &incidence); err != nil {
		return nil, err
	}
	return &incidence, nil
}

// ResolveIncidence applies an admin disposition
func (c *Client) ResolveIncidence(ctx context.Context, id types.IncidenceID, resolution interfaces.Resolution) error {
	return c.do(ctx, http.MethodPatch, "/incidences/"+id.String(), resolution, nil)
}

// AddComment sets the one-shot rebuttal comment
func (c *Client) AddComment(ctx context.Context, id types.IncidenceID, comment string) error {
	return c.do(ctx, http.MethodPatch, "/incidences/comment/"+id.String(), map[string]string{
		"comment": comment,
	}, nil)
}

// DeleteIncidence permanently removes an incidence record
func (c *Client) DeleteIncidence(ctx context.Context, id types.IncidenceID) error {
	return c.do(ctx, http.MethodDelete, "/incidences/"+id.String(), nil, nil)
}

// ListUserIncidences lists a user's incidences within a period
func (c *Client) ListUserIncidences(ctx context.Context, userID types.UserID, periodID types.PeriodID) ([]*model.Incidence, error) {
	var incidences []*model.Incidence
	path := fmt.Sprintf("/incidences/user/%s/%s", userID, periodID)
	if err := c.do(ctx, http.MethodGet, path, nil, &incidences); err != nil {
		return nil, err
	}
	return incidences, nil
}

// ListAdminPendingIncidences lists the pending-review queue for an admin
func (c *Client) ListAdminPendingIncidences(ctx context.Context, adminID types.UserID) ([]*model.Incidence, error) {
	var incidences []*model.Incidence
	if err := c.do(ctx, http.MethodGet, "/incidences/admin/"+adminID.String(), nil, &incidences); err != nil {
		return nil, err
	}
	return incidences, nil
}

// ListUserScores lists the per-period score projections for a user
func (c *Client) ListUserScores(ctx context.Context, userID types.UserID) ([]*model.UserScore, error) {
	var scores []*model.UserScore
	if err := c.do(ctx, http.MethodGet, "/scores/user/"+userID.String(), nil, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// ListUsers lists all users
func (c *Client) ListUsers(ctx context.Context) ([]*model.User, error) {
	var users []*model.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser retrieves a user by ID
func (c *Client) GetUser(ctx context.Context, id types.UserID) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/users/"+id.String(), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// do issues a JSON round-trip against the API
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return goerr.Wrap(err, "failed to encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return goerr.Wrap(err, "failed to build request",
			goerr.V("method", method),
			goerr.V("path", path))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// send executes a prepared request and decodes the response
func (c *Client) send(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "request failed",
			goerr.V("method", req.Method),
			goerr.V("url", req.URL.String()))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return goerr.Wrap(model.ErrAuthRequired, "credential rejected",
			goerr.V("path", req.URL.Path))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return goerr.New("request rejected",
			goerr.V("method", req.Method),
			goerr.V("path", req.URL.Path),
			goerr.V("status", resp.StatusCode),
			goerr.V("message", decodeErrorMessage(resp.Body)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode response",
			goerr.V("path", req.URL.Path))
	}
	return nil
}

// decodeErrorMessage pulls the error string out of a failure body
func decodeErrorMessage(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	return payload.Error
}
