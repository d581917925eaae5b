package fetcher

import (
	"github.com/hfadhel/consolepull/internal/resolver"
)

// Terminal result of retrieving one full dataset.
//
// Invariant: the record sequence is empty if and only if every candidate
// exhausted its retries or terminated with a fatal, auth, or not-found
// fault (or completed with zero records).
type FetchOutcome struct {
	records    []any
	provenance resolver.Provenance
	truncated  bool
}

func NewFetchOutcome(records []any, provenance resolver.Provenance, truncated bool) FetchOutcome {
	return FetchOutcome{
		records:    records,
		provenance: provenance,
		truncated:  truncated,
	}
}

// EmptyFetchOutcome is the absence outcome: no records, provenance none.
// Absence is a first-class, reportable result, not an error.
func EmptyFetchOutcome() FetchOutcome {
	return FetchOutcome{provenance: resolver.ProvenanceNone}
}

func (f FetchOutcome) Records() []any {
	return f.records
}

func (f FetchOutcome) Provenance() resolver.Provenance {
	return f.provenance
}

func (f FetchOutcome) Truncated() bool {
	return f.truncated
}
