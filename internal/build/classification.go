package build

import (
	"errors"

	ferrors "git.home.luguber.info/inful/guidebuilder/internal/foundation/errors"
)

// StageOutcome normalized result of stage execution.
type StageOutcome struct {
	Stage     StageName
	Error     *StageError
	Result    StageResult
	IssueCode ReportIssueCode
	Severity  IssueSeverity
	Abort     bool
}

// ClassifyStageResult converts a raw error from a stage into a StageOutcome.
func ClassifyStageResult(stage StageName, err error) StageOutcome {
	if err == nil {
		return StageOutcome{Stage: stage, Result: StageResultSuccess}
	}

	var se *StageError
	if !errors.As(err, &se) {
		// Not a StageError - treat as fatal
		se = NewFatalStageError(stage, err)
	}

	switch se.Kind {
	case StageErrorCanceled:
		return StageOutcome{Stage: stage, Error: se, Result: StageResultCanceled, IssueCode: IssueCanceled, Severity: SeverityError, Abort: true}
	case StageErrorWarning:
		return StageOutcome{Stage: stage, Error: se, Result: StageResultWarning, IssueCode: classifyIssueCode(se), Severity: SeverityWarning}
	default:
		return StageOutcome{Stage: stage, Error: se, Result: StageResultFatal, IssueCode: classifyIssueCode(se), Severity: SeverityError, Abort: true}
	}
}

// classifyIssueCode determines the issue code based on stage type and error.
func classifyIssueCode(se *StageError) ReportIssueCode {
	switch se.Stage {
	case StageLoadContent:
		if errors.Is(se.Err, errNoContent) {
			return IssueNoContent
		}
		return IssueInvalidContent
	case StageLinkPages:
		return IssueInvalidContent
	case StageRenderPages, StageRenderIndex:
		return IssueRenderFailure
	case StageVerifyLinks:
		return IssueBrokenLinks
	case StagePrepareOutput, StageWriteManifest:
		return IssueOutputFailure
	}
	if ferrors.HasCategory(se.Err, ferrors.CategoryValidation) {
		return IssueInvalidContent
	}
	return IssueGenericStageError
}
