// Package mailer delivers rendered digests over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"market-digest/internal/interfaces"
	"market-digest/internal/logger"
	"market-digest/internal/types"
)

// implicitTLSPort is the SMTPS port; anything else starts in plaintext and
// upgrades with STARTTLS when the server offers it.
const implicitTLSPort = 465

// SMTPMailer sends through one SMTP account, authenticating with PLAIN.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	tls      *tls.Config
	now      func() time.Time
}

var _ interfaces.Mailer = (*SMTPMailer)(nil)

type Option func(*SMTPMailer)

// WithTLSConfig overrides the TLS settings, mainly for tests.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(m *SMTPMailer) { m.tls = cfg }
}

func New(host string, port int, username, password string, opts ...Option) *SMTPMailer {
	m := &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		tls:      &tls.Config{ServerName: host},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *SMTPMailer) addr() string {
	return net.JoinHostPort(m.host, strconv.Itoa(m.port))
}

// Send delivers msg to every recipient in one transaction. Errors are
// returned to the caller unretried.
func (m *SMTPMailer) Send(ctx context.Context, msg types.Email) error {
	if len(msg.To) == 0 {
		return errors.New("no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := Compose(msg, m.now())
	if err != nil {
		return err
	}

	client, err := m.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	return m.deliver(client, msg.From, msg.To, body)
}

// dial opens the session. On the SMTPS port a failed TLS handshake falls
// back to a plaintext connection upgraded with STARTTLS.
func (m *SMTPMailer) dial(ctx context.Context) (*smtp.Client, error) {
	if m.port == implicitTLSPort {
		conn, err := tls.Dial("tcp", m.addr(), m.tls)
		if err == nil {
			client, err := smtp.NewClient(conn, m.host)
			if err != nil {
				conn.Close()
				return nil, fmt.Errorf("failed to create SMTP client: %w", err)
			}
			return client, nil
		}
		logger.Debug(ctx, "Implicit TLS failed, trying STARTTLS", "addr", m.addr(), "error", err)
	}

	client, err := smtp.Dial(m.addr())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(m.tls); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	return client, nil
}

func (m *SMTPMailer) deliver(client *smtp.Client, from string, to []string, body []byte) error {
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("failed to set mail from: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set mail recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return client.Quit()
}
