package model

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for domain operations
var (
	// ErrAuthRequired signals a missing or expired credential. Callers
	// must send the user back through login instead of retrying the call.
	ErrAuthRequired = goerr.New("authentication required")

	ErrNoOpenPeriod       = goerr.New("no open period")
	ErrPeriodClosed       = goerr.New("period is closed")
	ErrPeriodAlreadyOpen  = goerr.New("a period is already open")
	ErrPeriodNotFound     = goerr.New("period not found")
	ErrIncidenceNotFound  = goerr.New("incidence not found")
	ErrAlreadyResolved    = goerr.New("incidence already left pending review")
	ErrNotResolved        = goerr.New("incidence is still pending review")
	ErrAlreadyCommented   = goerr.New("incidence already has a comment")
	ErrNotCounting        = goerr.New("incidence does not count toward the score")
	ErrSeverityNotFound   = goerr.New("severity not found")
	ErrSeverityExists     = goerr.New("severity name already exists")
	ErrTemplateNotFound   = goerr.New("common incidence not found")
	ErrUserNotFound       = goerr.New("user not found")
	ErrPermissionDenied   = goerr.New("permission denied")
	ErrInvalidCredentials = goerr.New("invalid credentials")
)
