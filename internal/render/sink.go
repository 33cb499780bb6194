package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sink receives rendered pages. Implementations must be safe for
// concurrent use.
type Sink interface {
	Write(ctx context.Context, slug string, page []byte) error
}

// FileSink writes each page to <Root>/<slug>/index.html.
type FileSink struct {
	Root string
}

// PathFor returns the file a slug is written to.
func (s FileSink) PathFor(slug string) (string, error) {
	if strings.Contains(slug, "..") {
		return "", fmt.Errorf("slug %q escapes output directory", slug)
	}
	clean := filepath.Clean("/" + strings.Trim(slug, "/"))
	return filepath.Join(s.Root, filepath.FromSlash(clean), "index.html"), nil
}

func (s FileSink) Write(ctx context.Context, slug string, page []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target, err := s.PathFor(slug)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", slug, err)
	}
	// #nosec G306 -- generated site is world-readable
	if err := os.WriteFile(target, page, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}
