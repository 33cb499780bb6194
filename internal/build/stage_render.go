package build

import (
	"context"
	"fmt"
	"log/slog"

	ferrors "git.home.luguber.info/inful/guidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/guidebuilder/internal/linkcheck"
	"git.home.luguber.info/inful/guidebuilder/internal/logfields"
	"git.home.luguber.info/inful/guidebuilder/internal/render"
)

func stageRenderPages(ctx context.Context, st *State) error {
	cfg := st.Generator.Config()
	r, err := render.New(cfg.Site, cfg.Render, render.FileSink{Root: st.Generator.OutputDir()})
	if err != nil {
		return NewFatalStageError(StageRenderPages,
			ferrors.WrapError(err, ferrors.CategoryRender, "load layouts").
				WithContext("layouts_directory", cfg.Render.LayoutsDirectory).
				Fatal().
				Build())
	}
	st.renderer = r

	n, err := r.RenderPages(ctx, st.Requests, st.Sources, st.Collections)
	if err != nil {
		if ctx.Err() != nil {
			return NewCanceledStageError(StageRenderPages, ctx.Err())
		}
		return NewFatalStageError(StageRenderPages,
			ferrors.WrapError(err, ferrors.CategoryRender, "render pages").Fatal().Build())
	}
	st.Report.RenderedPages = n
	return nil
}

func stageRenderIndex(ctx context.Context, st *State) error {
	if st.renderer == nil {
		return NewFatalStageError(StageRenderIndex, fmt.Errorf("renderer not initialized"))
	}
	if err := st.renderer.RenderIndex(ctx, st.Collections); err != nil {
		if ctx.Err() != nil {
			return NewCanceledStageError(StageRenderIndex, ctx.Err())
		}
		return NewFatalStageError(StageRenderIndex,
			ferrors.WrapError(err, ferrors.CategoryRender, "render index").Fatal().Build())
	}
	return nil
}

// stageVerifyLinks checks every internal anchor in the output. Broken
// links are a warning unless build.strict_links is set.
func stageVerifyLinks(ctx context.Context, st *State) error {
	res, err := linkcheck.Check(ctx, st.Generator.OutputDir())
	if err != nil {
		if ctx.Err() != nil {
			return NewCanceledStageError(StageVerifyLinks, ctx.Err())
		}
		return NewFatalStageError(StageVerifyLinks, err)
	}
	st.Report.CheckedLinks = res.Links
	st.Report.BrokenLinks = len(res.Broken)
	if len(res.Broken) == 0 {
		return nil
	}

	links := make([]string, len(res.Broken))
	for i, b := range res.Broken {
		links[i] = b.String()
		slog.Warn("Broken link", logfields.File(b.Page), logfields.URL(b.Href))
	}
	b := ferrors.ValidationError(fmt.Sprintf("%d broken internal links", len(res.Broken))).
		WithContext("links", links)
	if !st.Generator.Config().Build.StrictLinks {
		return NewWarnStageError(StageVerifyLinks, b.Warning().Build())
	}
	return NewFatalStageError(StageVerifyLinks, b.Build())
}
