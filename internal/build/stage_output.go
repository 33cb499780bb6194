package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/guidebuilder/internal/config"
	ferrors "git.home.luguber.info/inful/guidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/guidebuilder/internal/logfields"
	"git.home.luguber.info/inful/guidebuilder/internal/manifest"
	"git.home.luguber.info/inful/guidebuilder/internal/version"
)

// stagePrepareOutput reads the previous manifest, then empties (when
// output.clean is set) and creates the output directory.
func stagePrepareOutput(_ context.Context, st *State) error {
	out := st.Generator.OutputDir()

	prev, err := manifest.Load(out)
	if err != nil {
		slog.Warn("Ignoring unreadable manifest", logfields.Path(out), logfields.Error(err))
	}
	st.Previous = prev

	if st.Generator.Config().Output.Clean {
		if err := config.ValidateOutput(st.Generator.Config()); err != nil {
			return NewFatalStageError(StagePrepareOutput, err)
		}
		if err := cleanDir(out); err != nil {
			return NewFatalStageError(StagePrepareOutput, err)
		}
	}
	if err := os.MkdirAll(out, 0o750); err != nil {
		return NewFatalStageError(StagePrepareOutput,
			ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").
				WithContext("path", out).
				Fatal().
				Build())
	}
	return nil
}

// cleanDir removes the contents of dir but keeps dir itself, so a file
// server rooted there keeps working across rebuilds.
func cleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read output directory").
			WithContext("path", dir).Fatal().Build()
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "clean output directory").
				WithContext("path", dir).Fatal().Build()
		}
	}
	return nil
}

// stageWriteManifest records page fingerprints and the diff against the
// previous build.
func stageWriteManifest(_ context.Context, st *State) error {
	g := st.Generator
	m := manifest.New(version.Version, st.Report.Start)
	m.ID = st.Report.BuildID
	m.Inputs = manifest.Inputs{
		ContentDir: g.Config().Content.Directory,
		ConfigHash: g.ComputeConfigHash(),
	}
	for _, s := range st.Sources {
		m.AddPage(s.Slug, manifest.Page{Collection: s.Collection, Order: s.Order, Fingerprint: s.Fingerprint})
	}
	m.Status = string(OutcomeSuccess)
	if len(st.Report.Warnings) > 0 {
		m.Status = string(OutcomeWarning)
	}
	m.Duration = time.Since(st.Report.Start).Milliseconds()

	st.Report.Changes = manifest.Diff(st.Previous, m)
	st.Manifest = m

	if err := m.Write(g.OutputDir()); err != nil {
		return NewFatalStageError(StageWriteManifest,
			ferrors.WrapError(err, ferrors.CategoryFileSystem, fmt.Sprintf("write %s", manifest.FileName)).
				Fatal().Build())
	}
	c := st.Report.Changes
	slog.Info("Manifest written",
		logfields.BuildID(m.ID),
		slog.Int("added", len(c.Added)),
		slog.Int("changed", len(c.Changed)),
		slog.Int("removed", len(c.Removed)))
	return nil
}
