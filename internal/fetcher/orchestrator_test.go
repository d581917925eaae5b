package fetcher_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfadhel/consolepull/internal/catalog"
	"github.com/hfadhel/consolepull/internal/fetcher"
	"github.com/hfadhel/consolepull/internal/metadata"
	"github.com/hfadhel/consolepull/internal/resolver"
	"github.com/hfadhel/consolepull/internal/retriever"
	"github.com/hfadhel/consolepull/internal/transport"
	"github.com/hfadhel/consolepull/pkg/failure"
	"github.com/hfadhel/consolepull/pkg/limiter"
	"github.com/hfadhel/consolepull/pkg/retry"
	"github.com/hfadhel/consolepull/pkg/timeutil"
)

// routedClient scripts responses per (base URL, path) endpoint. Each
// endpoint's responses are consumed in order; requests beyond the script
// repeat the final scripted response.
type routedClient struct {
	responses map[string][]scriptedResponse
	calls     []string
}

type scriptedResponse struct {
	envelope transport.PageEnvelope
	err      failure.ClassifiedError
}

func (c *routedClient) Get(ctx context.Context, req transport.Request) (transport.PageEnvelope, failure.ClassifiedError) {
	key := req.BaseURL() + req.Path()
	c.calls = append(c.calls, key)

	queue := c.responses[key]
	if len(queue) == 0 {
		return transport.PageEnvelope{}, &transport.TransportError{
			Message:    "no script for " + key,
			Retryable:  false,
			Cause:      transport.ErrCauseEnvelopeInvalid,
			StatusCode: 0,
		}
	}
	next := queue[0]
	if len(queue) > 1 {
		c.responses[key] = queue[1:]
	}
	return next.envelope, next.err
}

func okPage(records []any, cursor string) scriptedResponse {
	return scriptedResponse{
		envelope: transport.NewPageEnvelopeForTest(records, cursor, 0, http.StatusOK),
	}
}

func notFound() scriptedResponse {
	return scriptedResponse{err: &transport.TransportError{
		Message:    "endpoint not found (404)",
		Retryable:  true,
		Cause:      transport.ErrCauseEndpointMissing,
		StatusCode: http.StatusNotFound,
	}}
}

func unauthorized() scriptedResponse {
	return scriptedResponse{err: &transport.TransportError{
		Message:    "authentication rejected (401)",
		Retryable:  false,
		Cause:      transport.ErrCauseAuthRejected,
		StatusCode: http.StatusUnauthorized,
	}}
}

func serverError() scriptedResponse {
	return scriptedResponse{err: &transport.TransportError{
		Message:    "server error: 500",
		Retryable:  true,
		Cause:      transport.ErrCauseServerError,
		StatusCode: http.StatusInternalServerError,
	}}
}

func newOrchestrator(client transport.Client, fallbackBases []string, basePinned bool) fetcher.Orchestrator {
	governor := limiter.NewConcurrentRateGovernor()
	governor.SetDefaultRate(1000000)

	retryParam := retry.NewRetryParam(0, 1, 3, timeutil.NewBackoffParam(
		time.Millisecond,
		2.0,
		10*time.Millisecond,
	))
	pageRetriever := retriever.NewPageRetriever(client, governor, &metadata.NoopSink{}, retryParam, 0)

	return fetcher.NewOrchestrator(
		pageRetriever,
		governor,
		&metadata.NoopSink{},
		"https://a.example.com",
		fallbackBases,
		basePinned,
	)
}

func TestFetch_PrimaryNotFoundRecoversViaAlternatePath(t *testing.T) {
	descriptor := catalog.NewDatasetDescriptor("rules", "/rules",
		[]string{"/cloud-detection/rules"}, nil, true, 0)

	client := &routedClient{responses: map[string][]scriptedResponse{
		"https://a.example.com/rules": {notFound()},
		"https://a.example.com/cloud-detection/rules": {
			okPage([]any{"r1", "r2", "r3", "r4", "r5"}, "abc"),
			okPage([]any{"r6", "r7", "r8"}, ""),
		},
	}}
	o := newOrchestrator(client, nil, false)

	outcome := o.Fetch(context.Background(), descriptor)

	assert.Len(t, outcome.Records(), 8)
	assert.Equal(t, resolver.ProvenanceAlternate, outcome.Provenance())
	assert.False(t, outcome.Truncated())

	// the primary path burned its full retry budget before the alternate
	primaryCalls := 0
	for _, call := range client.calls {
		if call == "https://a.example.com/rules" {
			primaryCalls++
		}
	}
	assert.Equal(t, 3, primaryCalls)
}

func TestFetch_AuthRejectionAbortsCandidateWalk(t *testing.T) {
	descriptor := catalog.NewDatasetDescriptor("rules", "/rules",
		[]string{"/cloud-detection/rules"}, nil, true, 0)

	client := &routedClient{responses: map[string][]scriptedResponse{
		"https://a.example.com/rules": {unauthorized()},
	}}
	o := newOrchestrator(client, []string{"https://b.example.com"}, false)

	outcome := o.Fetch(context.Background(), descriptor)

	assert.Empty(t, outcome.Records())
	assert.Equal(t, resolver.ProvenanceNone, outcome.Provenance())
	// a credential fault is global: exactly one request, no fallback probing
	require.Len(t, client.calls, 1)
}

func TestFetch_EmptyCompletionAdvancesToNextCandidate(t *testing.T) {
	descriptor := catalog.NewDatasetDescriptor("exclusions", "/exclusions",
		[]string{"/exclusions/v2"}, nil, true, 0)

	client := &routedClient{responses: map[string][]scriptedResponse{
		"https://a.example.com/exclusions":    {okPage(nil, "")},
		"https://a.example.com/exclusions/v2": {okPage([]any{"e1", "e2"}, "")},
	}}
	o := newOrchestrator(client, nil, false)

	outcome := o.Fetch(context.Background(), descriptor)

	assert.Len(t, outcome.Records(), 2)
	assert.Equal(t, resolver.ProvenanceAlternate, outcome.Provenance())
}

func TestFetch_FallbackBaseProducesFallbackProvenance(t *testing.T) {
	descriptor := catalog.NewDatasetDescriptor("sites", "/sites", nil, nil, true, 0)

	client := &routedClient{responses: map[string][]scriptedResponse{
		"https://a.example.com/sites": {notFound()},
		"https://b.example.com/sites": {okPage([]any{"s1"}, "")},
	}}
	o := newOrchestrator(client, []string{"https://b.example.com"}, false)

	outcome := o.Fetch(context.Background(), descriptor)

	assert.Len(t, outcome.Records(), 1)
	assert.Equal(t, resolver.ProvenanceFallback, outcome.Provenance())
}

func TestFetch_AllCandidatesExhaustedYieldsEmptyOutcome(t *testing.T) {
	descriptor := catalog.NewDatasetDescriptor("sites", "/sites", nil, nil, true, 0)

	client := &routedClient{responses: map[string][]scriptedResponse{
		"https://a.example.com/sites": {serverError()},
		"https://b.example.com/sites": {notFound()},
	}}
	o := newOrchestrator(client, []string{"https://b.example.com"}, false)

	outcome := o.Fetch(context.Background(), descriptor)

	assert.Empty(t, outcome.Records())
	assert.Equal(t, resolver.ProvenanceNone, outcome.Provenance())
	// both candidates burned their full retry budgets
	assert.Len(t, client.calls, 6)
}

func TestFetch_PinnedBaseNeverContactsFallbacks(t *testing.T) {
	descriptor := catalog.NewDatasetDescriptor("sites", "/sites", nil, nil, true, 0)

	client := &routedClient{responses: map[string][]scriptedResponse{
		"https://a.example.com/sites": {notFound()},
	}}
	o := newOrchestrator(client, []string{"https://b.example.com"}, true)

	outcome := o.Fetch(context.Background(), descriptor)

	assert.Equal(t, resolver.ProvenanceNone, outcome.Provenance())
	for _, call := range client.calls {
		assert.Equal(t, "https://a.example.com/sites", call)
	}
}
