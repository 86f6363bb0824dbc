package interfaces

import (
	"context"
	"time"

	"market-digest/internal/types"
)

type Mailer interface {
	Send(ctx context.Context, msg types.Email) error
}

// AuditSink persists one snapshot per run and returns where it went.
type AuditSink interface {
	Write(payload any, at time.Time) (string, error)
}
