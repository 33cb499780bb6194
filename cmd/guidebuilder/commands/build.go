package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/guidebuilder/internal/config"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Output directory (overrides output.directory)"`
	StrictLinks bool   `name:"strict-links" help:"Fail the build on broken internal links"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.StrictLinks {
		cfg.Build.StrictLinks = true
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return RunBuild(ctx, g, cfg)
}

// RunBuild builds the site described by cfg and prints the summary.
func RunBuild(ctx context.Context, g *Global, cfg *config.Config) error {
	s, err := newSession(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := s.build(ctx)
	if report != nil {
		_, _ = fmt.Fprintln(g.out(), report.Summary())
	}
	return err
}
