package apperr

import (
	"context"

	"github.com/m-mizutani/ctxlog"
)

// Handle logs an error that has nowhere better to go, such as failures
// in detached goroutines or response encoding.
func Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}
	ctxlog.From(ctx).Error("application error", "error", err)
}
