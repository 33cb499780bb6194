package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/guidebuilder/internal/build"
	"git.home.luguber.info/inful/guidebuilder/internal/config"
	"git.home.luguber.info/inful/guidebuilder/internal/history"
	"git.home.luguber.info/inful/guidebuilder/internal/logfields"
	"git.home.luguber.info/inful/guidebuilder/internal/metrics"
	"git.home.luguber.info/inful/guidebuilder/internal/notify"
)

// Global is passed to every subcommand.
type Global struct {
	Logger *slog.Logger
	// Out receives user-facing output. Logs go to stderr.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"guidebuilder.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build    BuildCmd    `cmd:"" help:"Build the site"`
	Discover DiscoverCmd `cmd:"" help:"List collections and their previous/next chains without building"`
	Preview  PreviewCmd  `cmd:"" help:"Build, serve and rebuild on change"`
	Init     InitCmd     `cmd:"" help:"Write an example configuration file"`
	History  HistoryCmd  `cmd:"" help:"List recent builds from the history database"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

// parseLogLevel returns Debug for -v, otherwise the level named by
// GUIDEBUILDER_LOG_LEVEL, defaulting to Info.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv("GUIDEBUILDER_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// session wires the optional collaborators of a build: metrics, history
// and notifications.
type session struct {
	cfg       *config.Config
	gen       *build.Generator
	registry  *prom.Registry
	history   history.Store
	publisher notify.Publisher
}

func newSession(cfg *config.Config) (*session, error) {
	s := &session{cfg: cfg, gen: build.NewGenerator(cfg), publisher: notify.NoopPublisher{}}
	if cfg.Metrics.Enabled {
		s.registry = prom.NewRegistry()
		s.gen.WithRecorder(metrics.NewPrometheusRecorder(s.registry))
	}
	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		s.history = store
	}
	pub, err := notify.New(cfg.Notify)
	if err != nil {
		// Notifications never block a build.
		slog.Warn("Build notifications disabled", logfields.Error(err))
	} else {
		s.publisher = pub
	}
	return s, nil
}

func (s *session) recorder() metrics.Recorder { return s.gen.Recorder() }

// build runs one build, then records and announces it.
func (s *session) build(ctx context.Context) (*build.BuildReport, error) {
	report, err := s.gen.Build(ctx)
	if report == nil {
		return nil, err
	}

	// Recording happens even when ctx was canceled mid-build.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if s.history != nil {
		if herr := s.history.Record(recCtx, history.EntryFromReport(report, err)); herr != nil {
			slog.Warn("Failed to record build history", logfields.BuildID(report.BuildID), logfields.Error(herr))
		}
	}
	notify.Send(recCtx, s.publisher, notify.EventFromReport(report, err))
	return report, err
}

func (s *session) Close() {
	if s.history != nil {
		_ = s.history.Close()
	}
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
}
