package fetcher

import (
	"context"
	"time"

	"github.com/hfadhel/consolepull/internal/catalog"
	"github.com/hfadhel/consolepull/internal/metadata"
	"github.com/hfadhel/consolepull/internal/resolver"
	"github.com/hfadhel/consolepull/internal/retriever"
	"github.com/hfadhel/consolepull/pkg/limiter"
)

/*
Responsibilities

- Walk the resolver's candidate list for one dataset
- Run the paginated retriever against each candidate
- Stop at the first candidate producing a non-empty record sequence
- Aggregate the final status into a FetchOutcome

Walk semantics:
- An auth rejection (401/403) aborts the walk immediately: the failure is
  global to the credential, not specific to a path, so further candidates
  cannot help.
- A parse-level fatal fault also aborts: it signals a programming-level
  problem, not a wrong endpoint.
- Not-found and retry-exhausted failures advance to the next candidate.
- "No data found" is never an error; exhausting every candidate yields an
  empty outcome with provenance none.
*/

type Orchestrator struct {
	pageRetriever retriever.PageRetriever
	governor      limiter.RateGovernor
	metadataSink  metadata.MetadataSink
	primaryBase   string
	fallbackBases []string
	basePinned    bool
}

func NewOrchestrator(
	pageRetriever retriever.PageRetriever,
	governor limiter.RateGovernor,
	metadataSink metadata.MetadataSink,
	primaryBase string,
	fallbackBases []string,
	basePinned bool,
) Orchestrator {
	return Orchestrator{
		pageRetriever: pageRetriever,
		governor:      governor,
		metadataSink:  metadataSink,
		primaryBase:   primaryBase,
		fallbackBases: fallbackBases,
		basePinned:    basePinned,
	}
}

func (o *Orchestrator) Fetch(ctx context.Context, descriptor catalog.DatasetDescriptor) FetchOutcome {
	// Escalation state is scoped to one dataset's retrieval; a fresh
	// fetch starts from the configured cadence.
	o.governor.Reset(descriptor.Name())

	candidates := resolver.Candidates(descriptor, o.primaryBase, o.fallbackBases, o.basePinned)

	for _, candidate := range candidates {
		retrieval := o.pageRetriever.Retrieve(ctx, descriptor, candidate)

		switch retrieval.Reason() {
		case retriever.ReasonDone:
			if len(retrieval.Records()) > 0 {
				return NewFetchOutcome(retrieval.Records(), candidate.Provenance(), retrieval.Truncated())
			}
			// An empty completion still licenses the next candidate; a
			// wrong endpoint can answer 200 with nothing.

		case retriever.ReasonNotFound, retriever.ReasonExhausted:
			// advance to the next candidate

		case retriever.ReasonAuthRejected:
			o.recordAbort(descriptor, candidate, metadata.CausePolicyDisallow,
				"credential rejected, aborting candidate walk")
			return EmptyFetchOutcome()

		default: // ReasonFatal
			o.recordAbort(descriptor, candidate, metadata.CauseInvariantViolation,
				"unexpected fault, aborting candidate walk")
			return EmptyFetchOutcome()
		}
	}

	return EmptyFetchOutcome()
}

func (o *Orchestrator) recordAbort(
	descriptor catalog.DatasetDescriptor,
	candidate resolver.Candidate,
	cause metadata.ErrorCause,
	details string,
) {
	o.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		"Orchestrator.Fetch",
		cause,
		details,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrDataset, descriptor.Name()),
			metadata.NewAttr(metadata.AttrPath, candidate.Path()),
			metadata.NewAttr(metadata.AttrProvenance, string(candidate.Provenance())),
		},
	)
}
