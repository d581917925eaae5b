package collector

import (
	"github.com/hfadhel/consolepull/internal/resolver"
)

// Run accounting

// DatasetOutcome is the terminal record of one dataset's collection attempt.
type DatasetOutcome struct {
	dataset      string
	success      bool
	records      int
	provenance   resolver.Provenance
	artifactPath string
	truncated    bool
}

func NewDatasetOutcome(
	dataset string,
	success bool,
	records int,
	provenance resolver.Provenance,
	artifactPath string,
	truncated bool,
) DatasetOutcome {
	return DatasetOutcome{
		dataset:      dataset,
		success:      success,
		records:      records,
		provenance:   provenance,
		artifactPath: artifactPath,
		truncated:    truncated,
	}
}

func (o *DatasetOutcome) Dataset() string {
	return o.dataset
}

func (o *DatasetOutcome) Success() bool {
	return o.success
}

func (o *DatasetOutcome) Records() int {
	return o.records
}

func (o *DatasetOutcome) Provenance() resolver.Provenance {
	return o.provenance
}

func (o *DatasetOutcome) ArtifactPath() string {
	return o.artifactPath
}

func (o *DatasetOutcome) Truncated() bool {
	return o.truncated
}

// RunResult aggregates the full sequential run.
type RunResult struct {
	runID    string
	outcomes []DatasetOutcome
}

func NewRunResult(runID string, outcomes []DatasetOutcome) RunResult {
	return RunResult{
		runID:    runID,
		outcomes: outcomes,
	}
}

func (r *RunResult) RunID() string {
	return r.runID
}

func (r *RunResult) Outcomes() []DatasetOutcome {
	return r.outcomes
}

func (r *RunResult) Succeeded() int {
	succeeded := 0
	for _, outcome := range r.outcomes {
		if outcome.Success() {
			succeeded++
		}
	}
	return succeeded
}

func (r *RunResult) TotalRecords() int {
	total := 0
	for _, outcome := range r.outcomes {
		total += outcome.Records()
	}
	return total
}
