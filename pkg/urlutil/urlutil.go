package urlutil

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// BuildRequestURL joins a base URL and an endpoint path and encodes the
// query parameters with sorted keys, producing a deterministic URL string.
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Slash-safe: exactly one slash between base and path
func BuildRequestURL(base string, path string, params map[string]string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("base URL cannot be empty")
	}

	joined := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	parsed, err := url.Parse(joined)
	if err != nil {
		return "", fmt.Errorf("invalid request URL %q: %w", joined, err)
	}

	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		values := url.Values{}
		for _, k := range keys {
			values.Set(k, params[k])
		}
		parsed.RawQuery = values.Encode()
	}

	return parsed.String(), nil
}

// MergeParams overlays extra on top of base without mutating either map.
// Keys in extra win.
func MergeParams(base map[string]string, extra map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
