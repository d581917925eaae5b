package collector_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfadhel/consolepull/internal/catalog"
	"github.com/hfadhel/consolepull/internal/collector"
	"github.com/hfadhel/consolepull/internal/fetcher"
	"github.com/hfadhel/consolepull/internal/metadata"
	"github.com/hfadhel/consolepull/internal/normalize"
	"github.com/hfadhel/consolepull/internal/resolver"
	"github.com/hfadhel/consolepull/internal/storage"
	"github.com/hfadhel/consolepull/pkg/hashutil"
)

// stubFetcher returns canned outcomes per dataset and records the order
// datasets were fetched in.
type stubFetcher struct {
	outcomes map[string]fetcher.FetchOutcome
	order    []string
}

func (f *stubFetcher) Fetch(ctx context.Context, descriptor catalog.DatasetDescriptor) fetcher.FetchOutcome {
	f.order = append(f.order, descriptor.Name())
	outcome, ok := f.outcomes[descriptor.Name()]
	if !ok {
		return fetcher.EmptyFetchOutcome()
	}
	return outcome
}

type recordingFinalizer struct {
	calls         int
	totalDatasets int
	succeeded     int
	totalRecords  int
	totalErrors   int
}

func (r *recordingFinalizer) RecordFinalRunStats(
	totalDatasets int,
	succeeded int,
	totalRecords int,
	totalErrors int,
	duration time.Duration,
) {
	r.calls++
	r.totalDatasets = totalDatasets
	r.succeeded = succeeded
	r.totalRecords = totalRecords
	r.totalErrors = totalErrors
}

func descriptors(names ...string) []catalog.DatasetDescriptor {
	var out []catalog.DatasetDescriptor
	for _, name := range names {
		out = append(out, catalog.NewDatasetDescriptor(name, "/"+name, nil, nil, true, 0))
	}
	return out
}

func recordsOutcome(records []any) fetcher.FetchOutcome {
	return fetcher.NewFetchOutcome(records, resolver.ProvenancePrimary, false)
}

func newCollector(
	datasetFetcher fetcher.Fetcher,
	finalizer metadata.RunFinalizer,
	outputDir string,
	dryRun bool,
) collector.Collector {
	sink := storage.NewLocalSink(&metadata.NoopSink{})
	return collector.NewCollector(
		&metadata.NoopSink{},
		finalizer,
		datasetFetcher,
		normalize.NewSchemaNormalizer(&metadata.NoopSink{}),
		&sink,
		outputDir,
		"console",
		hashutil.HashAlgoBLAKE3,
		dryRun,
	)
}

func TestExecuteRun_OneFailureDoesNotBlockRemainingDatasets(t *testing.T) {
	dir := t.TempDir()
	stub := &stubFetcher{outcomes: map[string]fetcher.FetchOutcome{
		"sites":    recordsOutcome([]any{map[string]any{"id": float64(1)}}),
		"policies": fetcher.EmptyFetchOutcome(),
		"agents": recordsOutcome([]any{
			map[string]any{"id": float64(2)},
			map[string]any{"id": float64(3)},
		}),
	}}
	finalizer := &recordingFinalizer{}
	c := newCollector(stub, finalizer, dir, false)

	result, err := c.ExecuteRun(context.Background(), descriptors("sites", "policies", "agents"))
	require.NoError(t, err)

	// strict sequential order, all attempted
	assert.Equal(t, []string{"sites", "policies", "agents"}, stub.order)

	outcomes := result.Outcomes()
	require.Len(t, outcomes, 3)
	assert.True(t, outcomes[0].Success())
	assert.False(t, outcomes[1].Success())
	assert.True(t, outcomes[2].Success())
	assert.Equal(t, 2, result.Succeeded())
	assert.Equal(t, 3, result.TotalRecords())
	assert.NotEmpty(t, result.RunID())

	// the failed dataset still materializes a header-only artifact
	for _, name := range []string{"sites", "policies", "agents"} {
		assert.FileExists(t, filepath.Join(dir, "console_"+name+".csv"))
	}
}

func TestExecuteRun_RecordsFinalStatsExactlyOnce(t *testing.T) {
	dir := t.TempDir()
	stub := &stubFetcher{outcomes: map[string]fetcher.FetchOutcome{
		"sites": recordsOutcome([]any{map[string]any{"id": float64(1)}}),
	}}
	finalizer := &recordingFinalizer{}
	c := newCollector(stub, finalizer, dir, false)

	_, err := c.ExecuteRun(context.Background(), descriptors("sites", "policies"))
	require.NoError(t, err)

	assert.Equal(t, 1, finalizer.calls)
	assert.Equal(t, 2, finalizer.totalDatasets)
	assert.Equal(t, 1, finalizer.succeeded)
	assert.Equal(t, 1, finalizer.totalRecords)
	assert.Equal(t, 1, finalizer.totalErrors)
}

func TestExecuteRun_DryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	stub := &stubFetcher{outcomes: map[string]fetcher.FetchOutcome{
		"sites": recordsOutcome([]any{map[string]any{"id": float64(1)}}),
	}}
	c := newCollector(stub, &recordingFinalizer{}, dir, true)

	result, err := c.ExecuteRun(context.Background(), descriptors("sites"))
	require.NoError(t, err)

	outcomes := result.Outcomes()
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Success())
	assert.Empty(t, outcomes[0].ArtifactPath())

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

// recordingSink captures error causes while ignoring everything else.
type recordingSink struct {
	metadata.NoopSink
	errorCauses []metadata.ErrorCause
}

func (s *recordingSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	errorString string,
	attrs []metadata.Attribute,
) {
	s.errorCauses = append(s.errorCauses, cause)
}

func TestExecuteRun_DryRunStillNormalizes(t *testing.T) {
	dir := t.TempDir()
	// mixed non-mapping records force the normalizer to degrade and
	// record the fallback
	stub := &stubFetcher{outcomes: map[string]fetcher.FetchOutcome{
		"sites": recordsOutcome([]any{"scalar", map[string]any{"id": float64(1)}}),
	}}
	normSink := &recordingSink{}
	sink := storage.NewLocalSink(&metadata.NoopSink{})
	c := collector.NewCollector(
		&metadata.NoopSink{},
		&recordingFinalizer{},
		stub,
		normalize.NewSchemaNormalizer(normSink),
		&sink,
		dir,
		"console",
		hashutil.HashAlgoBLAKE3,
		true,
	)

	_, err := c.ExecuteRun(context.Background(), descriptors("sites"))
	require.NoError(t, err)

	// the normalizer ran even though nothing was written
	assert.Contains(t, normSink.errorCauses, metadata.ErrorCause(metadata.CauseContentInvalid))

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestExecuteRun_CancelledContextStopsRun(t *testing.T) {
	dir := t.TempDir()
	stub := &stubFetcher{outcomes: map[string]fetcher.FetchOutcome{}}
	finalizer := &recordingFinalizer{}
	c := newCollector(stub, finalizer, dir, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ExecuteRun(ctx, descriptors("sites", "policies"))
	require.Error(t, err)
	assert.Empty(t, stub.order)

	// stats still recorded for the aborted run
	assert.Equal(t, 1, finalizer.calls)
}

func TestExecuteRun_OutcomeCarriesProvenanceAndArtifactPath(t *testing.T) {
	dir := t.TempDir()
	stub := &stubFetcher{outcomes: map[string]fetcher.FetchOutcome{
		"rules": fetcher.NewFetchOutcome(
			[]any{map[string]any{"id": float64(1)}},
			resolver.ProvenanceAlternate,
			true,
		),
	}}
	c := newCollector(stub, &recordingFinalizer{}, dir, false)

	result, err := c.ExecuteRun(context.Background(), descriptors("rules"))
	require.NoError(t, err)

	outcome := result.Outcomes()[0]
	assert.Equal(t, resolver.ProvenanceAlternate, outcome.Provenance())
	assert.True(t, outcome.Truncated())
	assert.Equal(t, filepath.Join(dir, "console_rules.csv"), outcome.ArtifactPath())
}
