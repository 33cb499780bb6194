package config

import (
	"fmt"
	"runtime"
)

const (
	defaultSiteTitle     = "Guides"
	defaultContentDir    = "content"
	defaultOutputDir     = "./public"
	defaultPreviousLabel = "← Previous"
	defaultNextLabel     = "Next →"
	defaultPreviewPort   = 1316
	defaultNotifySubject = "guidebuilder.builds"
)

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

type siteDefaults struct{}

func (siteDefaults) Domain() string { return "site" }
func (siteDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Site.Title == "" {
		cfg.Site.Title = defaultSiteTitle
	}
	return nil
}

type contentDefaults struct{}

func (contentDefaults) Domain() string { return "content" }
func (contentDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Content.Directory == "" {
		cfg.Content.Directory = defaultContentDir
	}
	return nil
}

type outputDefaults struct{}

func (outputDefaults) Domain() string { return "output" }
func (outputDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = defaultOutputDir
		cfg.Output.Clean = true
	}
	return nil
}

type renderDefaults struct{}

func (renderDefaults) Domain() string { return "render" }
func (renderDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Render.Workers <= 0 {
		cfg.Render.Workers = min(runtime.NumCPU(), 8)
	}
	if cfg.Render.PreviousLabel == "" {
		cfg.Render.PreviousLabel = defaultPreviousLabel
	}
	if cfg.Render.NextLabel == "" {
		cfg.Render.NextLabel = defaultNextLabel
	}
	return nil
}

type serviceDefaults struct{}

func (serviceDefaults) Domain() string { return "services" }
func (serviceDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Preview.Port == 0 {
		cfg.Preview.Port = defaultPreviewPort
	}
	if cfg.Notify.NATSURL != "" && cfg.Notify.Subject == "" {
		cfg.Notify.Subject = defaultNotifySubject
	}
	return nil
}

func defaultAppliers() []DefaultApplier {
	return []DefaultApplier{
		siteDefaults{},
		contentDefaults{},
		outputDefaults{},
		renderDefaults{},
		serviceDefaults{},
	}
}

// ApplyDefaults fills unset fields in every configuration domain.
func ApplyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers() {
		if err := a.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("apply %s defaults: %w", a.Domain(), err)
		}
	}
	return nil
}
