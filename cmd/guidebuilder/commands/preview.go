package commands

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/guidebuilder/internal/config"
	"git.home.luguber.info/inful/guidebuilder/internal/metrics"
	"git.home.luguber.info/inful/guidebuilder/internal/preview"
)

// PreviewCmd serves the site locally and rebuilds it when guides change.
type PreviewCmd struct {
	Port int `short:"p" help:"Port to serve on (overrides preview.port)"`
}

func (p *PreviewCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if p.Port != 0 {
		cfg.Preview.Port = p.Port
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	var metricsHandler http.Handler
	if s.registry != nil {
		metricsHandler = metrics.HTTPHandler(s.registry)
	}
	return preview.Run(ctx, cfg, func(ctx context.Context) error {
		_, err := s.build(ctx)
		return err
	}, preview.Options{MetricsHandler: metricsHandler, Recorder: s.recorder()})
}
