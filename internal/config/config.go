package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/guidebuilder/internal/foundation/errors"
)

// Config is the guidebuilder configuration file.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Output  OutputConfig  `yaml:"output"`
	Render  RenderConfig  `yaml:"render"`
	Build   BuildConfig   `yaml:"build"`
	Preview PreviewConfig `yaml:"preview"`
	Metrics MetricsConfig `yaml:"metrics"`
	History HistoryConfig `yaml:"history"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// SiteConfig holds site-wide metadata used by the layouts.
type SiteConfig struct {
	Title       string `yaml:"title"`
	BaseURL     string `yaml:"base_url,omitempty"`
	Description string `yaml:"description,omitempty"`
}

// ContentConfig describes where guides live and which ones are built.
type ContentConfig struct {
	Directory string `yaml:"directory"`
	// Collections limits the build to these collection names. Empty means all.
	Collections   []string `yaml:"collections,omitempty"`
	IncludeDrafts bool     `yaml:"include_drafts,omitempty"`
	// GitLastmod fills each page's last-modified date from the git history
	// of the repository containing Directory.
	GitLastmod bool `yaml:"git_lastmod,omitempty"`
}

// OutputConfig represents output configuration.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"`
}

// RenderConfig controls page rendering.
type RenderConfig struct {
	LayoutsDirectory string `yaml:"layouts_directory,omitempty"`
	Workers          int    `yaml:"workers,omitempty"`
	PreviousLabel    string `yaml:"previous_label,omitempty"`
	NextLabel        string `yaml:"next_label,omitempty"`
}

// BuildConfig holds pipeline switches.
type BuildConfig struct {
	// StrictLinks turns broken internal links into a build failure.
	StrictLinks bool `yaml:"strict_links,omitempty"`
	// SkipLinkCheck disables the verify_links stage.
	SkipLinkCheck bool `yaml:"skip_link_check,omitempty"`
}

// PreviewConfig configures the local preview server.
type PreviewConfig struct {
	Port int `yaml:"port,omitempty"`
	// RebuildInterval triggers a periodic full rebuild (e.g. "10m"). Empty disables it.
	RebuildInterval string `yaml:"rebuild_interval,omitempty"`
}

// MetricsConfig enables Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
}

// HistoryConfig points at the SQLite build history database. Empty Path disables history.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// NotifyConfig publishes build events to NATS. Empty NATSURL disables notifications.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Load reads, expands, defaults and validates the configuration at configPath.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read config file").Fatal().Build()
	}

	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes configuration bytes, then applies defaults and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "unmarshal config").Fatal().Build()
	}
	if err := ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Config{
		Site: SiteConfig{
			Title:       "Fairness Guides",
			Description: "Step-by-step guides, one collection per domain",
			BaseURL:     "https://example.com",
		},
		Content: ContentConfig{
			Directory:   "content",
			Collections: []string{"finance", "recruiting"},
		},
		Output: OutputConfig{Directory: "./public", Clean: true},
		Render: RenderConfig{
			Workers:       4,
			PreviousLabel: defaultPreviousLabel,
			NextLabel:     defaultNextLabel,
		},
		Preview: PreviewConfig{Port: defaultPreviewPort},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write config file").Build()
	}
	return nil
}
