// Package history keeps a record of past builds in SQLite.
package history

import (
	"context"
	"time"

	"git.home.luguber.info/inful/guidebuilder/internal/build"
)

// Entry is one recorded build.
type Entry struct {
	BuildID     string
	Started     time.Time
	Duration    time.Duration
	Outcome     string
	Version     string
	Pages       int
	Collections int
	BrokenLinks int
	Changed     []string // Added, changed and removed slugs
	Error       string
}

// Store persists build entries.
type Store interface {
	// Record adds one build. Recording the same build ID twice replaces the entry.
	Record(ctx context.Context, e Entry) error
	// Recent returns at most limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// EntryFromReport converts a finished build report. err is the error
// returned by the build, if any.
func EntryFromReport(r *build.BuildReport, err error) Entry {
	e := Entry{
		BuildID:     r.BuildID,
		Started:     r.Start.UTC(),
		Duration:    r.Duration(),
		Outcome:     string(r.Outcome),
		Version:     r.Version,
		Pages:       r.RenderedPages,
		Collections: r.Collections,
		BrokenLinks: r.BrokenLinks,
		Changed:     r.Changes.All(),
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}
