// Package notify announces finished builds on a NATS subject.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/guidebuilder/internal/build"
	"git.home.luguber.info/inful/guidebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/guidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/guidebuilder/internal/logfields"
)

const publishTimeout = 5 * time.Second

// BuildCompleted is published once per finished build.
type BuildCompleted struct {
	BuildID     string    `json:"build_id"`
	Outcome     string    `json:"outcome"`
	Version     string    `json:"version"`
	Start       time.Time `json:"start"`
	DurationMS  int64     `json:"duration_ms"`
	Pages       int       `json:"pages"`
	Collections int       `json:"collections"`
	BrokenLinks int       `json:"broken_links"`
	Added       []string  `json:"added,omitempty"`
	Changed     []string  `json:"changed,omitempty"`
	Removed     []string  `json:"removed,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// EventFromReport builds the event for a finished build.
func EventFromReport(r *build.BuildReport, err error) BuildCompleted {
	ev := BuildCompleted{
		BuildID:     r.BuildID,
		Outcome:     string(r.Outcome),
		Version:     r.Version,
		Start:       r.Start.UTC(),
		DurationMS:  r.Duration().Milliseconds(),
		Pages:       r.RenderedPages,
		Collections: r.Collections,
		BrokenLinks: r.BrokenLinks,
		Added:       r.Changes.Added,
		Changed:     r.Changes.Changed,
		Removed:     r.Changes.Removed,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

// Publisher delivers build events.
type Publisher interface {
	Publish(ctx context.Context, ev BuildCompleted) error
	Close() error
}

// NoopPublisher drops every event. Used when notify.nats_url is empty.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, BuildCompleted) error { return nil }
func (NoopPublisher) Close() error                                  { return nil }

// NATSPublisher publishes events on a core NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// New returns a NATS publisher when cfg names a server, otherwise a
// NoopPublisher.
func New(cfg config.NotifyConfig) (Publisher, error) {
	if cfg.NATSURL == "" {
		return NoopPublisher{}, nil
	}
	conn, err := nats.Connect(cfg.NATSURL, nats.Name("guidebuilder"), nats.Timeout(publishTimeout))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNotify, "connect to NATS").
			WithContext("url", cfg.NATSURL).
			Build()
	}
	slog.Info("NATS notifications enabled", logfields.URL(cfg.NATSURL), slog.String("subject", cfg.Subject))
	return &NATSPublisher{conn: conn, subject: cfg.Subject}, nil
}

// Publish sends ev and waits for the server to acknowledge the flush.
func (p *NATSPublisher) Publish(ctx context.Context, ev BuildCompleted) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "publish build event").
			WithContext("subject", p.subject).
			Build()
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNotify, "flush build event").
			WithContext("subject", p.subject).
			Build()
	}
	slog.Debug("Published build event", logfields.BuildID(ev.BuildID), logfields.Outcome(ev.Outcome))
	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}

// Send publishes ev and logs a failure instead of returning it. A build
// never fails because its notification could not be delivered.
func Send(ctx context.Context, p Publisher, ev BuildCompleted) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		slog.Warn("Build notification failed", logfields.BuildID(ev.BuildID), logfields.Error(err))
	}
}
