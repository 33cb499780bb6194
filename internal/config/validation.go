package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/guidebuilder/internal/foundation/errors"
)

// Validate checks the configuration after defaults have been applied.
func Validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	for _, check := range []func() error{
		v.validateContent,
		v.validateOutput,
		v.validateRender,
		v.validatePreview,
		v.validateNotify,
	} {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateOutput checks only the output section. Callers that change the
// output directory after Load must run it before cleaning.
func ValidateOutput(cfg *Config) error {
	return (&configurationValidator{config: cfg}).validateOutput()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validateContent() error {
	seen := make(map[string]struct{}, len(cv.config.Content.Collections))
	for _, c := range cv.config.Content.Collections {
		name := strings.Trim(c, "/ ")
		if name == "" {
			return invalid("content.collections", "collection name cannot be empty")
		}
		if _, dup := seen[name]; dup {
			return invalid("content.collections", fmt.Sprintf("duplicate collection %q", name))
		}
		seen[name] = struct{}{}
	}
	return nil
}

func (cv *configurationValidator) validateOutput() error {
	if strings.TrimSpace(cv.config.Output.Directory) == "" {
		return invalid("output.directory", "output directory cannot be empty")
	}
	// A clean build empties the output directory, so it must never hold
	// any build input. Output inside an input would be watched and re-read.
	inputs := []struct{ field, dir string }{
		{"content.directory", cv.config.Content.Directory},
		{"render.layouts_directory", cv.config.Render.LayoutsDirectory},
	}
	for _, in := range inputs {
		if strings.TrimSpace(in.dir) == "" {
			continue
		}
		overlap, err := overlaps(cv.config.Output.Directory, in.dir)
		if err != nil {
			return invalid("output.directory", err.Error())
		}
		if overlap {
			return invalid("output.directory",
				fmt.Sprintf("output directory %q overlaps %s %q", cv.config.Output.Directory, in.field, in.dir))
		}
	}
	return nil
}

func (cv *configurationValidator) validateRender() error {
	if cv.config.Render.Workers < 1 {
		return invalid("render.workers", "workers must be at least 1")
	}
	return nil
}

func (cv *configurationValidator) validatePreview() error {
	p := cv.config.Preview
	if p.Port < 1 || p.Port > 65535 {
		return invalid("preview.port", fmt.Sprintf("port %d out of range", p.Port))
	}
	if p.RebuildInterval != "" {
		d, err := time.ParseDuration(p.RebuildInterval)
		if err != nil {
			return invalid("preview.rebuild_interval", err.Error())
		}
		if d < time.Second {
			return invalid("preview.rebuild_interval", "interval must be at least 1s")
		}
	}
	return nil
}

func (cv *configurationValidator) validateNotify() error {
	url := cv.config.Notify.NATSURL
	if url == "" {
		return nil
	}
	if !strings.HasPrefix(url, "nats://") && !strings.HasPrefix(url, "tls://") {
		return invalid("notify.nats_url", "url must start with nats:// or tls://")
	}
	return nil
}

// RebuildEvery returns the parsed rebuild interval, or zero when unset.
func (p PreviewConfig) RebuildEvery() time.Duration {
	if p.RebuildInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(p.RebuildInterval)
	if err != nil {
		return 0
	}
	return d
}

func invalid(field, msg string) error {
	return ferrors.ConfigError(msg).WithContext("field", field).Build()
}

func overlaps(a, b string) (bool, error) {
	in, err := within(a, b)
	if err != nil || in {
		return in, err
	}
	return within(b, a)
}

// within reports whether path is dir or lies beneath it.
func within(path, dir string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		// Different volumes.
		return false, nil
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))), nil
}
