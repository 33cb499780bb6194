package build

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/guidebuilder/internal/logfields"
)

// RunStages executes stages in order, recording timing and stopping on first fatal error.
func RunStages(ctx context.Context, st *State, stages []StageDef) error {
	rec := st.recorder()
	for _, def := range stages {
		select {
		case <-ctx.Done():
			se := NewCanceledStageError(def.Name, ctx.Err())
			st.Report.StageErrorKinds[def.Name] = se.Kind
			st.Report.AddIssue(IssueCanceled, def.Name, SeverityError, se.Error(), se)
			st.Report.RecordStageResult(def.Name, StageResultCanceled, rec)
			return se
		default:
		}

		t0 := time.Now()
		err := def.Fn(ctx, st)
		dur := time.Since(t0)

		st.Report.StageDurations[string(def.Name)] = dur
		rec.ObserveStageDuration(string(def.Name), dur)

		out := ClassifyStageResult(def.Name, err)
		if out.Error != nil {
			st.Report.StageErrorKinds[def.Name] = out.Error.Kind
			st.Report.AddIssue(out.IssueCode, out.Stage, out.Severity, out.Error.Error(), out.Error)
		}
		st.Report.RecordStageResult(def.Name, out.Result, rec)

		slog.Debug("Stage finished",
			logfields.BuildID(st.Report.BuildID),
			logfields.Stage(string(def.Name)),
			logfields.DurationMS(float64(dur.Microseconds())/1000),
			logfields.Outcome(string(out.Result)))

		if out.Abort {
			if out.Error != nil {
				return out.Error
			}
			return fmt.Errorf("stage %s aborted", def.Name)
		}
		if out.Result == StageResultWarning {
			slog.Warn("Stage completed with warnings",
				logfields.Stage(string(def.Name)),
				logfields.Error(out.Error.Err))
		}
	}
	return nil
}
