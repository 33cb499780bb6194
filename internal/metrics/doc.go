// Package metrics provides build metrics for guidebuilder.
//
// Components receive a Recorder through dependency injection. NoopRecorder
// is the default and does nothing; PrometheusRecorder is used when
// metrics.enabled is set, and its registry is served on /metrics by the
// preview server.
//
//	rec := metrics.NewPrometheusRecorder(reg)
//	gen := build.NewGenerator(cfg).WithRecorder(rec)
package metrics
