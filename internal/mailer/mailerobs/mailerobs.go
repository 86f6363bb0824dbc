package mailerobs

import (
	"context"

	"market-digest/internal/interfaces"
	"market-digest/internal/logger"
	"market-digest/internal/trace"
	"market-digest/internal/types"
)

// observableMailer wraps a Mailer with observability (logging & tracing)
type observableMailer struct {
	mailer interfaces.Mailer
}

var _ interfaces.Mailer = (*observableMailer)(nil)

func Wrap(mailer interfaces.Mailer) interfaces.Mailer {
	return &observableMailer{mailer: mailer}
}

func (om *observableMailer) Send(ctx context.Context, msg types.Email) error {
	ctx, span := trace.StartSpan(ctx, "mailer.Send")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Sending digest", "subject", msg.Subject, "recipients", len(msg.To), "html_bytes", len(msg.HTML))

	err := om.mailer.Send(ctx, msg)
	logger.Delivery(ctx, msg.Subject, len(msg.To), err)
	return err
}
