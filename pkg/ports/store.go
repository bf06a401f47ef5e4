package ports

import (
	"context"
	"time"

	"github.com/aretw0/espalier/pkg/report"
)

// ReportStore persists run reports so they can be listed and served after the run.
type ReportStore interface {
	// Save persists the report under its ID.
	Save(ctx context.Context, r *report.Report) error

	// Load retrieves a report. Returns domain.ErrReportNotFound if it does not exist.
	Load(ctx context.Context, id string) (*report.Report, error)

	// List returns the IDs of stored reports.
	List(ctx context.Context) ([]string, error)

	// Delete removes a report.
	Delete(ctx context.Context, id string) error
}

// UnlockFunc releases a lock acquired through Locker.
type UnlockFunc func(ctx context.Context) error

// Locker serializes runs that drive a shared system under test, e.g. two servers
// running the same model against one staging environment.
type Locker interface {
	// Lock blocks until key is acquired or ctx is done. The lock expires after ttl.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
