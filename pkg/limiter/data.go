package limiter

import "time"

// timing-related data used to track the request cadence of one dataset retrieval
type datasetTiming struct {
	lastRequestAt time.Time
	workingDelay  time.Duration
	escalations   int
}

func (d *datasetTiming) WorkingDelay() time.Duration {
	return d.workingDelay
}

func (d *datasetTiming) LastRequestAt() time.Time {
	return d.lastRequestAt
}

func (d *datasetTiming) Escalations() int {
	return d.escalations
}
