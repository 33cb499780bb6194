package metrics

import (
	"testing"
	"time"
)

// NoopRecorder must satisfy Recorder and accept any input.
func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("load_content", time.Second)
	r.ObserveBuildDuration(time.Second)
	r.IncStageResult("load_content", ResultWarning)
	r.IncBuildOutcome(BuildOutcomeCanceled)
	r.SetCollectionPages("finance", 2)
	r.IncRebuild("interval")
}
