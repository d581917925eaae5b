package metadata

import (
	"time"

	"github.com/rs/zerolog"
)

/*
Metadata Collected
- Request timestamps and HTTP status codes
- Retry counts and page numbers
- Per-dataset outcomes and provenance
- Artifact paths and content hashes

Logging Goals
- Debuggable fetch behavior
- Post-run auditability
- Failure diagnostics

Determinism guarantees:
 - Metadata does not affect control flow
 - Errors do not reorder the dataset sequence
 - Output is stable given identical inputs

Metadata is write-only.
No component may read metadata to influence collection decisions.
*/

/*
Recorder captures structured collection events and emits them through
zerolog. It must not:
- perform I/O decisions
- affect control flow
Ordering guarantees:
- Events are recorded synchronously in the order they are received.
- Ordering is provided for debuggability, not causality.
*/
type Recorder struct {
	logger zerolog.Logger
}

func NewRecorder(logger zerolog.Logger) Recorder {
	return Recorder{
		logger: logger,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	event := r.logger.Warn().
		Time("observed_at", observedAt).
		Str("package", packageName).
		Str("action", action).
		Int("cause", int(cause)).
		Str("details", errorString)
	for _, attr := range attrs {
		event = event.Str(string(attr.Key), attr.Value)
	}
	event.Msg("pipeline error")
}

func (r *Recorder) RecordFetch(
	requestURL string,
	httpStatus int,
	duration time.Duration,
	retryCount int,
	page int,
) {
	r.logger.Debug().
		Str("url", requestURL).
		Int("http_status", httpStatus).
		Dur("duration", duration).
		Int("retry_count", retryCount).
		Int("page", page).
		Msg("fetch")
}

func (r *Recorder) RecordDatasetOutcome(
	dataset string,
	success bool,
	records int,
	provenance string,
) {
	r.logger.Info().
		Str("dataset", dataset).
		Bool("success", success).
		Int("records", records).
		Str("provenance", provenance).
		Msg("dataset outcome")
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	event := r.logger.Info().
		Str("kind", string(kind)).
		Str("path", path)
	for _, attr := range attrs {
		event = event.Str(string(attr.Key), attr.Value)
	}
	event.Msg("artifact written")
}

/*
RecordFinalRunStats records a terminal, derived summary of a completed run.

Contract:
  - MUST be called exactly once per collection run.
  - MUST be called only after run termination
    (every selected dataset attempted or collector abort).
  - The provided stats MUST be derived from collector state,
    not accumulated incrementally via the recorder.
  - Recorded stats MUST NOT influence control flow or dataset ordering.
*/
func (r *Recorder) RecordFinalRunStats(
	totalDatasets int,
	succeeded int,
	totalRecords int,
	totalErrors int,
	duration time.Duration,
) {
	stats := runStats{
		totalDatasets: totalDatasets,
		succeeded:     succeeded,
		totalRecords:  totalRecords,
		totalErrors:   totalErrors,
		durationMs:    duration.Milliseconds(),
	}

	r.logger.Info().
		Int("total_datasets", stats.totalDatasets).
		Int("succeeded", stats.succeeded).
		Int("total_records", stats.totalRecords).
		Int("total_errors", stats.totalErrors).
		Int64("duration_ms", stats.durationMs).
		Msg("run complete")
}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		requestURL string,
		httpStatus int,
		duration time.Duration,
		retryCount int,
		page int,
	)

	RecordDatasetOutcome(dataset string, success bool, records int, provenance string)

	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

type RunFinalizer interface {
	RecordFinalRunStats(
		totalDatasets int,
		succeeded int,
		totalRecords int,
		totalErrors int,
		duration time.Duration,
	)
}

// NoopSink, struct that implements metadata.MetadataSink but does nothing
// Collector (or Test) can decide whether to inject Recorder or NoopSink
// Purpose is to make metadata orthogonal

type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	requestURL string,
	httpStatus int,
	duration time.Duration,
	retryCount int,
	page int,
) {
}

func (n *NoopSink) RecordDatasetOutcome(dataset string, success bool, records int, provenance string) {
}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}
