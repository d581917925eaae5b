package collector

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hfadhel/consolepull/internal/catalog"
	"github.com/hfadhel/consolepull/internal/fetcher"
	"github.com/hfadhel/consolepull/internal/metadata"
	"github.com/hfadhel/consolepull/internal/normalize"
	"github.com/hfadhel/consolepull/internal/storage"
	"github.com/hfadhel/consolepull/pkg/hashutil"
)

/*
Collector is the sole control-plane authority of a collection run.

Determinism and sequencing guarantees:
- Datasets are collected strictly sequentially, in catalog order.
- One dataset's failure never reorders, skips, or aborts the remaining
  datasets. The only run-level abort is context cancellation.
- Pipeline stages may detect and classify failure, but never decide
  continuation. The collector is the sole authority on:
  - proceed to next dataset
  - write or skip the artifact
  - terminate the run

Metadata emission is observational only and MUST NOT influence
sequencing or termination.

Collector Responsibilities:
- Coordinate run lifecycle
- Materialize every dataset's table, header-only when empty
- Aggregate run statistics and record them exactly once
*/

type Collector struct {
	metadataSink metadata.MetadataSink
	runFinalizer metadata.RunFinalizer
	fetcher      fetcher.Fetcher
	normalizer   normalize.SchemaNormalizer
	storageSink  storage.Sink
	outputDir    string
	filePrefix   string
	hashAlgo     hashutil.HashAlgo
	dryRun       bool
}

func NewCollector(
	metadataSink metadata.MetadataSink,
	runFinalizer metadata.RunFinalizer,
	datasetFetcher fetcher.Fetcher,
	normalizer normalize.SchemaNormalizer,
	storageSink storage.Sink,
	outputDir string,
	filePrefix string,
	hashAlgo hashutil.HashAlgo,
	dryRun bool,
) Collector {
	return Collector{
		metadataSink: metadataSink,
		runFinalizer: runFinalizer,
		fetcher:      datasetFetcher,
		normalizer:   normalizer,
		storageSink:  storageSink,
		outputDir:    outputDir,
		filePrefix:   filePrefix,
		hashAlgo:     hashAlgo,
		dryRun:       dryRun,
	}
}

// ExecuteRun collects every descriptor in order and returns the per-dataset
// outcomes. A dataset succeeds when it yields at least one record; an empty
// dataset still materializes a header-only CSV so reruns stay comparable.
func (c *Collector) ExecuteRun(
	ctx context.Context,
	datasets []catalog.DatasetDescriptor,
) (RunResult, error) {
	runID := uuid.NewString()
	runStartTime := time.Now()

	var outcomes []DatasetOutcome
	var succeeded int
	var totalRecords int
	var totalErrors int

	// Ensure final stats are recorded even if the run is cancelled mid-way
	defer func() {
		c.runFinalizer.RecordFinalRunStats(
			len(datasets),
			succeeded,
			totalRecords,
			totalErrors,
			time.Since(runStartTime),
		)
	}()

	for _, descriptor := range datasets {
		if err := ctx.Err(); err != nil {
			return NewRunResult(runID, outcomes), err
		}

		fetchOutcome := c.fetcher.Fetch(ctx, descriptor)
		records := fetchOutcome.Records()
		success := len(records) > 0
		if !success {
			totalErrors++
		}

		c.metadataSink.RecordDatasetOutcome(
			descriptor.Name(),
			success,
			len(records),
			string(fetchOutcome.Provenance()),
		)

		// dry-run still normalizes so degradations surface without a write
		table := c.normalizer.Normalize(records, descriptor.Name())

		artifactPath := ""
		if !c.dryRun {
			writeResult, err := c.storageSink.Write(
				c.outputDir,
				c.filePrefix,
				descriptor.Name(),
				table,
				c.hashAlgo,
			)
			if err != nil {
				// storage already recorded the failure, keep collecting
				totalErrors++
			} else {
				artifactPath = writeResult.Path()
			}
		}

		if success {
			succeeded++
		}
		totalRecords += len(records)

		outcomes = append(outcomes, NewDatasetOutcome(
			descriptor.Name(),
			success,
			len(records),
			fetchOutcome.Provenance(),
			artifactPath,
			fetchOutcome.Truncated(),
		))
	}

	return NewRunResult(runID, outcomes), nil
}
