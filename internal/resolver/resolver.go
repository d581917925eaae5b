package resolver

import (
	"github.com/hfadhel/consolepull/internal/catalog"
)

/*
Responsibilities

- Produce the ordered candidate list of (base URL, path) pairs to try
  for one dataset
- Encode the recovery preference: alternate paths on the known-good base
  are cheaper, likelier fixes than switching the base URL (a different
  API version), so paths are exhausted before base-URL fallback

Ordering, highest priority first:
 1. (primaryBase, primaryPath)
 2. (primaryBase, altPath) for each alternate, in configured order
 3. (fallbackBase, primaryPath) for each fallback base, in configured order
 4. (fallbackBase, altPath) for each fallback base and alternate

Fallback bases participate only when the operator did not pin an explicit
base URL. No network calls occur here; this is pure data.
*/

// Candidates builds the ordered candidate list for one dataset descriptor.
func Candidates(
	descriptor catalog.DatasetDescriptor,
	primaryBase string,
	fallbackBases []string,
	basePinned bool,
) []Candidate {
	candidates := []Candidate{
		NewCandidate(primaryBase, descriptor.PrimaryPath(), ProvenancePrimary),
	}

	for _, alt := range descriptor.AlternatePaths() {
		candidates = append(candidates, NewCandidate(primaryBase, alt, ProvenanceAlternate))
	}

	if basePinned {
		return candidates
	}

	for _, base := range fallbackBases {
		candidates = append(candidates, NewCandidate(base, descriptor.PrimaryPath(), ProvenanceFallback))
	}
	for _, base := range fallbackBases {
		for _, alt := range descriptor.AlternatePaths() {
			candidates = append(candidates, NewCandidate(base, alt, ProvenanceFallback))
		}
	}

	return candidates
}
