// Package notify publishes run reports to NATS so other tools can react to
// regenerated reference trees.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/refdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/refdocs/internal/logfields"
	"git.home.luguber.info/inful/refdocs/internal/manifest"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "refdocs.runs"

const flushTimeout = 5 * time.Second

// NATSPublisher publishes each report as JSON on a core NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
}

// Connect dials url and returns a publisher for subject.
func Connect(url, subject string, logger *slog.Logger) (*NATSPublisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name("refdocs"),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to connect to NATS").
			Fatal().
			WithContext("url", url).
			Build()
	}
	logger.Info("Publishing run reports", slog.String("url", url), slog.String("subject", subject))
	return &NATSPublisher{conn: conn, subject: subject, logger: logger}, nil
}

// Notify publishes report and flushes, so a short-lived process does not
// exit with the message still buffered.
func (p *NATSPublisher) Notify(ctx context.Context, report *manifest.RunReport) error {
	data, err := report.ToJSON()
	if err != nil {
		return err
	}
	msg := nats.NewMsg(p.subject)
	msg.Data = data
	msg.Header.Set("Refdocs-Run-Id", report.ID)
	msg.Header.Set("Refdocs-Status", string(report.Status))
	if err := p.conn.PublishMsg(msg); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return err
	}
	p.logger.Debug("Published run report", logfields.RunID(report.ID), slog.String("subject", p.subject))
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
