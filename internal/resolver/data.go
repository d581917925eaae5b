package resolver

// Candidate ordering

// Provenance tags which kind of candidate source ultimately produced a
// dataset's records.
type Provenance string

const (
	ProvenancePrimary   Provenance = "primary"
	ProvenanceAlternate Provenance = "alternate"
	ProvenanceFallback  Provenance = "fallback"
	ProvenanceNone      Provenance = "none"
)

type Candidate struct {
	baseURL    string
	path       string
	provenance Provenance
}

func NewCandidate(baseURL string, path string, provenance Provenance) Candidate {
	return Candidate{
		baseURL:    baseURL,
		path:       path,
		provenance: provenance,
	}
}

func (c Candidate) BaseURL() string {
	return c.baseURL
}

func (c Candidate) Path() string {
	return c.path
}

func (c Candidate) Provenance() Provenance {
	return c.provenance
}
