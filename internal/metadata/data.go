package metadata

import (
	"time"
)

/*
Collection observability data

runStats
  - Represents a terminal, derived summary of a completed collection run
  - Contains only aggregate counts and durations
  - Is computed by the collector after the last dataset finishes
  - Is recorded exactly once
  - Must not influence fetching, retries, or dataset ordering
  - Must be constructed without reading metadata
*/
type runStats struct {
	totalDatasets int
	succeeded     int
	totalRecords  int
	totalErrors   int
	durationMs    int64
}

type FetchEvent struct {
	requestURL string
	httpStatus int
	duration   time.Duration
	retryCount int
	page       int
}

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause is for observability only.
	 - It must never be used to derive retry, continuation, or abort decisions.
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause values MUST have stable, package-agnostic semantics.
	 - Pipeline packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.
	Non-goals:
	 - ErrorCause does not encode severity.
	 - ErrorCause does not imply retryability.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

Meaning:
  - The failure does not map cleanly to any known category.
  - Used as a safe fallback.

# CauseNetworkFailure

Meaning:
  - Failure caused by network transport or remote availability.

Examples:
  - TCP timeouts
  - DNS resolution failures
  - Connection resets

# CausePolicyDisallow

Meaning:
  - The remote API refused the request by policy.

Examples:
  - HTTP 401 / 403 credential or permission denial
  - HTTP 429 rate-limit enforcement

# CauseEndpointMissing

Meaning:
  - The requested endpoint path does not exist on the target base URL.

Examples:
  - HTTP 404 on a candidate path

# CauseContentInvalid

Meaning:
  - A response was received but could not be processed meaningfully.

Examples:
  - Non-JSON response bodies
  - Envelope missing a usable data field

# CauseStorageFailure

Meaning:
  - Failure while persisting collection artifacts.

Examples:
  - Disk full
  - Write permission errors

# CauseInvariantViolation

Meaning:
  - A system-level invariant was violated.

Examples:
  - Pagination exceeding the page ceiling
  - Malformed dataset descriptors
*/
const (
	CauseUnknown = iota
	CauseNetworkFailure
	CausePolicyDisallow
	CauseEndpointMissing
	CauseContentInvalid
	CauseStorageFailure
	CauseInvariantViolation
)

type ErrorRecord struct {
	packageName string
	action      string
	cause       ErrorCause
	errorString string
	observedAt  time.Time
	attrs       []Attribute
}

type ArtifactKind string

const (
	ArtifactCSV ArtifactKind = "csv"
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrTime        AttributeKey = "time"
	AttrURL         AttributeKey = "url"
	AttrDataset     AttributeKey = "dataset"
	AttrPath        AttributeKey = "path"
	AttrPage        AttributeKey = "page"
	AttrField       AttributeKey = "field"
	AttrHTTPStatus  AttributeKey = "http_status"
	AttrProvenance  AttributeKey = "provenance"
	AttrWritePath   AttributeKey = "write_path"
	AttrContentHash AttributeKey = "content_hash"
)
