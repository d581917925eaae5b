package catalog

import (
	"fmt"
)

/*
Responsibilities

- Define the closed set of datasets the collector knows how to pull
- Carry, per dataset, the primary endpoint path, ordered alternate paths,
  fixed query parameters, the pagination flag and an optional override rate

Descriptors are immutable: created once from configuration and read-only
thereafter. The catalog makes no network calls and holds no run state.
*/

type DatasetDescriptor struct {
	name           string
	primaryPath    string
	alternatePaths []string
	params         map[string]string
	paginate       bool
	rateLimit      float64
}

func NewDatasetDescriptor(
	name string,
	primaryPath string,
	alternatePaths []string,
	params map[string]string,
	paginate bool,
	rateLimit float64,
) DatasetDescriptor {
	return DatasetDescriptor{
		name:           name,
		primaryPath:    primaryPath,
		alternatePaths: alternatePaths,
		params:         params,
		paginate:       paginate,
		rateLimit:      rateLimit,
	}
}

func (d DatasetDescriptor) Name() string {
	return d.name
}

func (d DatasetDescriptor) PrimaryPath() string {
	return d.primaryPath
}

func (d DatasetDescriptor) AlternatePaths() []string {
	paths := make([]string, len(d.alternatePaths))
	copy(paths, d.alternatePaths)
	return paths
}

func (d DatasetDescriptor) Params() map[string]string {
	params := make(map[string]string, len(d.params))
	for k, v := range d.params {
		params[k] = v
	}
	return params
}

func (d DatasetDescriptor) Paginate() bool {
	return d.paginate
}

// RateLimit returns the per-dataset override rate in requests per second,
// or zero when no override is configured.
func (d DatasetDescriptor) RateLimit() float64 {
	return d.rateLimit
}

// Validate reports whether the descriptor can drive a fetch at all.
// A malformed descriptor is a configuration fault, not a fetch failure.
func (d DatasetDescriptor) Validate() error {
	if d.name == "" {
		return fmt.Errorf("dataset descriptor has empty name")
	}
	if d.primaryPath == "" || d.primaryPath[0] != '/' {
		return fmt.Errorf("dataset %q: primary path must start with '/'", d.name)
	}
	for _, alt := range d.alternatePaths {
		if alt == "" || alt[0] != '/' {
			return fmt.Errorf("dataset %q: alternate path %q must start with '/'", d.name, alt)
		}
	}
	return nil
}

// Default returns the built-in catalog of console datasets, in the fixed
// order the collector processes them.
func Default() []DatasetDescriptor {
	return []DatasetDescriptor{
		NewDatasetDescriptor("sites", "/sites", nil, nil, true, 0),
		NewDatasetDescriptor("policies", "/policies", nil, nil, true, 0),
		NewDatasetDescriptor("exclusions", "/exclusions", nil, nil, true, 0),
		NewDatasetDescriptor("deployment-packs", "/deployment-packs",
			[]string{"/update/agent/packages"}, nil, false, 0),
		NewDatasetDescriptor("agents", "/agents", nil,
			map[string]string{"limit": "1000"}, true, 0.5),
		NewDatasetDescriptor("rules", "/rules",
			[]string{"/cloud-detection/rules"}, nil, true, 0),
		NewDatasetDescriptor("alerts", "/alerts",
			[]string{"/cloud-detection/alerts"},
			map[string]string{"limit": "100"}, true, 0),
		NewDatasetDescriptor("api-tokens", "/api-tokens", nil, nil, false, 0),
	}
}

// DefaultRateTable returns the static rate table consulted when a dataset
// carries no override rate. Keys are path substrings; the longest key that
// matches the dataset's primary path wins.
func DefaultRateTable() map[string]float64 {
	return map[string]float64{
		"/agents":          0.5,
		"/alerts":          1.0,
		"/cloud-detection": 0.5,
	}
}

// Select filters the full catalog down to the named datasets, preserving
// catalog order. An unknown name is a configuration error.
func Select(all []DatasetDescriptor, names []string) ([]DatasetDescriptor, error) {
	if len(names) == 0 {
		return all, nil
	}

	known := make(map[string]struct{}, len(all))
	for _, d := range all {
		known[d.Name()] = struct{}{}
	}

	requested := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("unknown dataset %q", name)
		}
		requested[name] = struct{}{}
	}

	var selected []DatasetDescriptor
	for _, d := range all {
		if _, ok := requested[d.Name()]; ok {
			selected = append(selected, d)
		}
	}
	return selected, nil
}
