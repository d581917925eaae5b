package transport

import (
	"encoding/json"
)

// HTTP boundary

type Request struct {
	baseURL string
	path    string
	params  map[string]string
}

func NewRequest(baseURL string, path string, params map[string]string) Request {
	return Request{
		baseURL: baseURL,
		path:    path,
		params:  params,
	}
}

func (r Request) BaseURL() string {
	return r.baseURL
}

func (r Request) Path() string {
	return r.path
}

func (r Request) Params() map[string]string {
	return r.params
}

// PageEnvelope is one successful response body decomposed into the record
// sequence and the optional cursor for the next page. Cursor absence ends
// pagination.
type PageEnvelope struct {
	records    []any
	nextCursor string
	totalItems int
	statusCode int
}

// Records returns the ordered record sequence of this page. A payload whose
// data field is a single object (not an array) is projected onto a
// one-element sequence; the normalizer handles all further coercion.
func (p PageEnvelope) Records() []any {
	return p.records
}

func (p PageEnvelope) NextCursor() string {
	return p.nextCursor
}

func (p PageEnvelope) TotalItems() int {
	return p.totalItems
}

func (p PageEnvelope) Code() int {
	return p.statusCode
}

// envelopeDTO mirrors the management API response shape:
// a `data` field with the records and, when paginating, a `pagination`
// object carrying nextCursor and totalItems.
type envelopeDTO struct {
	Data       json.RawMessage `json:"data"`
	Pagination *paginationDTO  `json:"pagination"`
}

type paginationDTO struct {
	NextCursor string `json:"nextCursor"`
	TotalItems int    `json:"totalItems"`
}

func decodeEnvelope(body []byte, statusCode int) (PageEnvelope, error) {
	var dto envelopeDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return PageEnvelope{}, err
	}

	envelope := PageEnvelope{statusCode: statusCode}
	if dto.Pagination != nil {
		envelope.nextCursor = dto.Pagination.NextCursor
		envelope.totalItems = dto.Pagination.TotalItems
	}

	if len(dto.Data) == 0 {
		return envelope, nil
	}

	var payload any
	if err := json.Unmarshal(dto.Data, &payload); err != nil {
		return PageEnvelope{}, err
	}

	switch v := payload.(type) {
	case nil:
		// data: null means an empty page, not a fault
	case []any:
		envelope.records = v
	default:
		envelope.records = []any{v}
	}

	return envelope, nil
}

// NewPageEnvelopeForTest creates a PageEnvelope for testing purposes.
// This allows test packages to construct envelopes without accessing
// unexported fields directly.
func NewPageEnvelopeForTest(records []any, nextCursor string, totalItems int, statusCode int) PageEnvelope {
	return PageEnvelope{
		records:    records,
		nextCursor: nextCursor,
		totalItems: totalItems,
		statusCode: statusCode,
	}
}
