package retriever

// Per-candidate retrieval outcome

// Reason is the terminal state of one candidate's retrieval. The fetch
// orchestrator uses it to decide between advancing to the next candidate
// and aborting the walk.
type Reason string

const (
	// ReasonDone: the candidate completed; records (possibly none) were
	// accumulated in page order.
	ReasonDone Reason = "done"

	// ReasonNotFound: the candidate's path does not exist on its base URL
	// (404 after the full retry budget). Licenses trying the next candidate.
	ReasonNotFound Reason = "not_found"

	// ReasonAuthRejected: credentials were rejected (401/403). Global to
	// the credential, not specific to a path; ends the candidate walk.
	ReasonAuthRejected Reason = "auth_rejected"

	// ReasonExhausted: transient faults outlived the retry budget.
	ReasonExhausted Reason = "exhausted"

	// ReasonFatal: an unexpected fault (parse error, malformed envelope)
	// that retrying cannot fix.
	ReasonFatal Reason = "fatal"
)

type Retrieval struct {
	records   []any
	pages     int
	truncated bool
	reason    Reason
}

func NewRetrieval(records []any, pages int, truncated bool, reason Reason) Retrieval {
	return Retrieval{
		records:   records,
		pages:     pages,
		truncated: truncated,
		reason:    reason,
	}
}

// Records returns the accumulated record sequence, in server order across
// concatenated pages. Always empty unless the reason is ReasonDone:
// partial accumulation from a failed candidate is discarded, since mixing
// partial results from different endpoints is unsound.
func (r Retrieval) Records() []any {
	return r.records
}

func (r Retrieval) Pages() int {
	return r.pages
}

// Truncated reports whether pagination stopped at the page ceiling rather
// than at a missing cursor.
func (r Retrieval) Truncated() bool {
	return r.truncated
}

func (r Retrieval) Reason() Reason {
	return r.reason
}
