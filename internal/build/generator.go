package build

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/guidebuilder/internal/config"
	"git.home.luguber.info/inful/guidebuilder/internal/content"
	"git.home.luguber.info/inful/guidebuilder/internal/logfields"
	"git.home.luguber.info/inful/guidebuilder/internal/metrics"
	"git.home.luguber.info/inful/guidebuilder/internal/pagelink"
)

// Generator builds the site described by a configuration.
type Generator struct {
	cfg      *config.Config
	recorder metrics.Recorder
}

// NewGenerator returns a generator with a no-op metrics recorder.
func NewGenerator(cfg *config.Config) *Generator {
	return &Generator{cfg: cfg, recorder: metrics.NoopRecorder{}}
}

// WithRecorder sets the metrics recorder. A nil recorder restores the no-op one.
func (g *Generator) WithRecorder(r metrics.Recorder) *Generator {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	g.recorder = r
	return g
}

func (g *Generator) Config() *config.Config     { return g.cfg }
func (g *Generator) Recorder() metrics.Recorder { return g.recorder }
func (g *Generator) OutputDir() string          { return g.cfg.Output.Directory }

// ComputeConfigHash returns a stable hash of the effective configuration.
func (g *Generator) ComputeConfigHash() string {
	data, err := json.Marshal(g.cfg)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// Stages returns the full build pipeline.
func (g *Generator) Stages() []StageDef {
	return NewPipeline().
		Add(StagePrepareOutput, stagePrepareOutput).
		Add(StageLoadContent, stageLoadContent).
		Add(StageLinkPages, stageLinkPages).
		Add(StageRenderPages, stageRenderPages).
		Add(StageRenderIndex, stageRenderIndex).
		AddIf(!g.cfg.Build.SkipLinkCheck, StageVerifyLinks, stageVerifyLinks).
		Add(StageWriteManifest, stageWriteManifest).
		Build()
}

// Build runs every stage and returns the report. The report is returned
// even when a stage fails; err is the first fatal or canceled StageError.
func (g *Generator) Build(ctx context.Context) (*BuildReport, error) {
	report := NewBuildReport(uuid.NewString())
	st := &State{Generator: g, Report: report}

	slog.Info("Build started",
		logfields.BuildID(report.BuildID),
		logfields.Path(g.cfg.Content.Directory))

	err := RunStages(ctx, st, g.Stages())
	report.Finish()
	report.DeriveOutcome()

	g.recorder.ObserveBuildDuration(report.Duration())
	g.recorder.IncBuildOutcome(metrics.BuildOutcomeLabel(report.Outcome))

	attrs := []any{
		logfields.BuildID(report.BuildID),
		logfields.Outcome(string(report.Outcome)),
		logfields.Count(report.RenderedPages),
		logfields.DurationMS(float64(report.Duration().Milliseconds())),
	}
	if err != nil {
		slog.Error("Build failed", append(attrs, logfields.Error(err))...)
		return report, err
	}
	slog.Info("Build finished", attrs...)
	return report, nil
}

// Discovery is the result of loading and linking without rendering.
type Discovery struct {
	Sources     []content.Source
	Requests    []pagelink.PageRequest
	Collections []pagelink.Collection
}

// Discover runs only the load and link stages. Nothing is written.
func (g *Generator) Discover(ctx context.Context) (*Discovery, error) {
	st := &State{Generator: g, Report: NewBuildReport(uuid.NewString())}
	stages := NewPipeline().
		Add(StageLoadContent, stageLoadContent).
		Add(StageLinkPages, stageLinkPages).
		Build()
	if err := RunStages(ctx, st, stages); err != nil {
		return nil, err
	}
	return &Discovery{Sources: st.Sources, Requests: st.Requests, Collections: st.Collections}, nil
}
