package transport

import (
	"fmt"

	"github.com/hfadhel/consolepull/internal/metadata"
	"github.com/hfadhel/consolepull/pkg/failure"
)

type TransportErrorCause string

const (
	ErrCauseTimeout               = "timeout"
	ErrCauseNetworkFailure        = "network issues"
	ErrCauseReadResponseBodyError = "failed to read response body"
	ErrCauseAuthRejected          = "authentication rejected"
	ErrCauseAccessForbidden       = "access forbidden"
	ErrCauseEndpointMissing       = "endpoint not found"
	ErrCauseTooManyRequests       = "too many requests"
	ErrCauseServerError           = "5xx"
	ErrCauseClientError           = "4xx"
	ErrCauseEnvelopeInvalid       = "invalid response envelope"
)

type TransportError struct {
	Message    string
	Retryable  bool
	Cause      TransportErrorCause
	StatusCode int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %s", e.Cause)
}

func (e *TransportError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *TransportError) IsRetryable() bool {
	return e.Retryable
}

// mapTransportErrorToMetadataCause maps transport-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapTransportErrorToMetadataCause(err *TransportError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout, ErrCauseNetworkFailure:
		return metadata.CauseNetworkFailure
	case ErrCauseAuthRejected, ErrCauseAccessForbidden, ErrCauseTooManyRequests:
		return metadata.CausePolicyDisallow
	case ErrCauseEndpointMissing:
		return metadata.CauseEndpointMissing
	case ErrCauseEnvelopeInvalid:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
