package limiter

import (
	"strings"
	"sync"
	"time"

	"github.com/hfadhel/consolepull/pkg/timeutil"
)

// RateGovernor
// Specialized component to manage request cadence during collection
// Responsibilities:
// - Translate a configured requests-per-second rate into an inter-request delay
// - Bookkeep each dataset's last request timestamp
// - Escalate the working delay of one dataset after a rate-limit response
// - Keep escalation state scoped to a single dataset retrieval, never global
type RateGovernor interface {
	SetDefaultRate(rps float64)
	SetMinimumDelay(min time.Duration)
	SetRateTable(table map[string]float64)
	DelayFor(dataset string, path string, overrideRate float64) time.Duration
	Escalate(dataset string, path string, overrideRate float64)
	Reset(dataset string)
	MarkLastRequestAsNow(dataset string)
	ResolveWait(dataset string, path string, overrideRate float64) time.Duration
}

type ConcurrentRateGovernor struct {
	mu             sync.RWMutex
	defaultRate    float64
	minimumDelay   time.Duration
	rateTable      map[string]float64
	datasetTimings map[string]datasetTiming
}

func NewConcurrentRateGovernor() *ConcurrentRateGovernor {
	return &ConcurrentRateGovernor{
		defaultRate:    1.0,
		rateTable:      map[string]float64{},
		datasetTimings: make(map[string]datasetTiming),
	}
}

func (g *ConcurrentRateGovernor) SetDefaultRate(rps float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rps > 0 {
		g.defaultRate = rps
	}
}

// SetMinimumDelay sets the floor below which no inter-request delay may fall,
// regardless of how permissive the configured rate is.
func (g *ConcurrentRateGovernor) SetMinimumDelay(min time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.minimumDelay = min
}

// SetRateTable installs the static rate table. Keys are path substrings;
// a dataset path is matched against every key and the longest matching key
// wins, so more specific paths can carry tighter rates.
func (g *ConcurrentRateGovernor) SetRateTable(table map[string]float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	copied := make(map[string]float64, len(table))
	for k, v := range table {
		copied[k] = v
	}
	g.rateTable = copied
}

// baseDelay resolves the un-escalated delay for one dataset.
// Precedence: per-dataset override rate, then the static table keyed by
// longest substring match on the path, then the global default rate.
// Does NOT take lock; caller must hold g.mu (RLock or Lock).
func (g *ConcurrentRateGovernor) baseDelay(path string, overrideRate float64) time.Duration {
	rate := g.defaultRate

	if match, ok := g.lookupRate(path); ok {
		rate = match
	}
	if overrideRate > 0 {
		rate = overrideRate
	}

	delay := time.Duration(float64(time.Second) / rate)
	if delay < g.minimumDelay {
		delay = g.minimumDelay
	}
	return delay
}

// lookupRate finds the longest rate-table key contained in path.
// Does NOT take lock; caller must hold g.mu (RLock or Lock).
func (g *ConcurrentRateGovernor) lookupRate(path string) (float64, bool) {
	var bestKey string
	var bestRate float64
	found := false

	for key, rate := range g.rateTable {
		if key == "" || !strings.Contains(path, key) {
			continue
		}
		if !found || len(key) > len(bestKey) {
			bestKey = key
			bestRate = rate
			found = true
		}
	}
	return bestRate, found
}

// DelayFor computes the current inter-request delay for the dataset,
// including any escalation accumulated during this retrieval.
func (g *ConcurrentRateGovernor) DelayFor(dataset string, path string, overrideRate float64) time.Duration {
	g.mu.RLock()
	defer g.mu.RUnlock()

	base := g.baseDelay(path, overrideRate)
	timing := g.datasetTimings[dataset]
	return timeutil.MaxDuration([]time.Duration{base, timing.workingDelay})
}

// Escalate doubles the dataset's working delay for the remainder of this
// retrieval. The first escalation doubles the base delay; each subsequent
// one doubles the previous working delay. This is a local escalation and
// never affects other datasets.
func (g *ConcurrentRateGovernor) Escalate(dataset string, path string, overrideRate float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	base := g.baseDelay(path, overrideRate)
	timing := g.datasetTimings[dataset]

	current := timeutil.MaxDuration([]time.Duration{timing.workingDelay, base})
	timing.workingDelay = current * 2
	timing.escalations++
	g.datasetTimings[dataset] = timing
}

// Reset clears the escalation state and timing for the dataset.
// Called when a new retrieval of the dataset begins.
func (g *ConcurrentRateGovernor) Reset(dataset string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.datasetTimings, dataset)
}

// MarkLastRequestAsNow records that a request for the dataset just completed.
func (g *ConcurrentRateGovernor) MarkLastRequestAsNow(dataset string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	timing := g.datasetTimings[dataset]
	timing.lastRequestAt = time.Now()
	g.datasetTimings[dataset] = timing
}

// ResolveWait returns the remaining time to wait before the dataset's next
// request, given its last request timestamp and current working delay.
// Returns zero when the dataset has no recorded request yet or the delay
// has already elapsed.
func (g *ConcurrentRateGovernor) ResolveWait(dataset string, path string, overrideRate float64) time.Duration {
	g.mu.RLock()
	timing, exists := g.datasetTimings[dataset]
	g.mu.RUnlock()

	if !exists || timing.lastRequestAt.IsZero() {
		return time.Duration(0)
	}

	delay := g.DelayFor(dataset, path, overrideRate)
	elapsed := time.Since(timing.lastRequestAt)
	if elapsed < delay {
		return delay - elapsed
	}
	return time.Duration(0)
}

func (g *ConcurrentRateGovernor) GetDatasetTimings() map[string]datasetTiming {
	g.mu.RLock()
	defer g.mu.RUnlock()

	// return a shallow copy to avoid exposing internal map for mutation
	copyMap := make(map[string]datasetTiming, len(g.datasetTimings))
	for k, v := range g.datasetTimings {
		copyMap[k] = v
	}
	return copyMap
}
