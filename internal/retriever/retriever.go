package retriever

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hfadhel/consolepull/internal/catalog"
	"github.com/hfadhel/consolepull/internal/metadata"
	"github.com/hfadhel/consolepull/internal/resolver"
	"github.com/hfadhel/consolepull/internal/transport"
	"github.com/hfadhel/consolepull/pkg/failure"
	"github.com/hfadhel/consolepull/pkg/limiter"
	"github.com/hfadhel/consolepull/pkg/retry"
	"github.com/hfadhel/consolepull/pkg/urlutil"
)

/*
Responsibilities

- Drive repeated calls against one (base URL, path) candidate
- Apply retry with exponential backoff on transient faults
- Accumulate pages into a single record sequence
- Terminate on completion, fatal fault, or the page-count ceiling

State machine per candidate:

  Requesting → {Retrying, PageAdvancing, Done, Failed}

- 401/403 fail immediately; credential faults never benefit from retry
- 429 escalates the governed delay, then retries
- 404 retries; on budget exhaustion it becomes a distinct not-found
  terminal state, which licenses the next candidate
- other HTTP errors and connectivity faults retry
- parse faults fail immediately, not retried
- success appends the page's records; a present cursor advances the page,
  an absent one completes the candidate

Every wait has a bounded duration and every retry loop has a hard attempt
ceiling; the pagination loop stops at the page ceiling with a truncation
flag rather than looping forever.
*/

// Numeric contract for one candidate's retrieval.
const (
	DefaultMaxAttempts    = 3
	DefaultBaseRetryDelay = 2 * time.Second
	DefaultBackoffFactor  = 2.0
	DefaultMaxRetryDelay  = 30 * time.Second
	DefaultPageCeiling    = 100

	cursorParam = "cursor"
)

type PageRetriever struct {
	client       transport.Client
	governor     limiter.RateGovernor
	metadataSink metadata.MetadataSink
	retryParam   retry.RetryParam
	pageCeiling  int
}

func NewPageRetriever(
	client transport.Client,
	governor limiter.RateGovernor,
	metadataSink metadata.MetadataSink,
	retryParam retry.RetryParam,
	pageCeiling int,
) PageRetriever {
	if pageCeiling <= 0 {
		pageCeiling = DefaultPageCeiling
	}
	return PageRetriever{
		client:       client,
		governor:     governor,
		metadataSink: metadataSink,
		retryParam:   retryParam,
		pageCeiling:  pageCeiling,
	}
}

// Retrieve runs the state machine for one candidate. The returned
// Retrieval carries records only for ReasonDone; every failure discards
// the partial accumulation.
func (r *PageRetriever) Retrieve(
	ctx context.Context,
	descriptor catalog.DatasetDescriptor,
	candidate resolver.Candidate,
) Retrieval {
	dataset := descriptor.Name()
	var accumulated []any
	cursor := ""
	pages := 0

	for {
		params := descriptor.Params()
		if cursor != "" {
			params = urlutil.MergeParams(params, map[string]string{cursorParam: cursor})
		}

		envelope, err := retry.Retry(r.retryParam, func() (transport.PageEnvelope, failure.ClassifiedError) {
			env, fetchErr := r.client.Get(ctx, transport.NewRequest(candidate.BaseURL(), candidate.Path(), params))
			if fetchErr != nil {
				if isRateLimited(fetchErr) {
					r.governor.Escalate(dataset, candidate.Path(), descriptor.RateLimit())
				}
				return transport.PageEnvelope{}, fetchErr
			}
			return env, nil
		})
		r.governor.MarkLastRequestAsNow(dataset)

		if err != nil {
			reason := terminalReason(err)
			r.recordTerminalFailure(dataset, candidate, pages, reason, err)
			return NewRetrieval(nil, pages, false, reason)
		}

		accumulated = append(accumulated, envelope.Records()...)
		pages++

		if !descriptor.Paginate() || envelope.NextCursor() == "" {
			return NewRetrieval(accumulated, pages, false, ReasonDone)
		}

		if pages >= r.pageCeiling {
			r.metadataSink.RecordError(
				time.Now(),
				"retriever",
				"PageRetriever.Retrieve",
				metadata.CauseInvariantViolation,
				fmt.Sprintf("pagination stopped at page ceiling (%d pages), results truncated", pages),
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrDataset, dataset),
					metadata.NewAttr(metadata.AttrPath, candidate.Path()),
					metadata.NewAttr(metadata.AttrPage, fmt.Sprintf("%d", pages)),
				},
			)
			return NewRetrieval(accumulated, pages, true, ReasonDone)
		}

		cursor = envelope.NextCursor()
		time.Sleep(r.governor.ResolveWait(dataset, candidate.Path(), descriptor.RateLimit()))
	}
}

func (r *PageRetriever) recordTerminalFailure(
	dataset string,
	candidate resolver.Candidate,
	pages int,
	reason Reason,
	err failure.ClassifiedError,
) {
	r.metadataSink.RecordError(
		time.Now(),
		"retriever",
		"PageRetriever.Retrieve",
		terminalCause(reason),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrDataset, dataset),
			metadata.NewAttr(metadata.AttrPath, candidate.Path()),
			metadata.NewAttr(metadata.AttrPage, fmt.Sprintf("%d", pages)),
		},
	)
}

// isRateLimited reports whether the fault is a 429.
func isRateLimited(err failure.ClassifiedError) bool {
	var transportErr *transport.TransportError
	return errors.As(err, &transportErr) && transportErr.Cause == transport.ErrCauseTooManyRequests
}

// terminalReason maps a classified error from the retry handler to the
// candidate's terminal state.
func terminalReason(err failure.ClassifiedError) Reason {
	var retryErr *retry.RetryError
	if errors.As(err, &retryErr) {
		var transportErr *transport.TransportError
		if errors.As(retryErr.Last, &transportErr) &&
			transportErr.Cause == transport.ErrCauseEndpointMissing {
			return ReasonNotFound
		}
		return ReasonExhausted
	}

	var transportErr *transport.TransportError
	if errors.As(err, &transportErr) {
		switch transportErr.Cause {
		case transport.ErrCauseAuthRejected, transport.ErrCauseAccessForbidden:
			return ReasonAuthRejected
		}
	}
	return ReasonFatal
}

// terminalCause maps a terminal reason to the canonical observability
// cause table. Observational only.
func terminalCause(reason Reason) metadata.ErrorCause {
	switch reason {
	case ReasonNotFound:
		return metadata.CauseEndpointMissing
	case ReasonAuthRejected:
		return metadata.CausePolicyDisallow
	case ReasonExhausted:
		return metadata.CauseNetworkFailure
	default:
		return metadata.CauseUnknown
	}
}
