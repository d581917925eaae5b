package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hfadhel/consolepull/internal/metadata"
	"github.com/hfadhel/consolepull/pkg/failure"
	"github.com/hfadhel/consolepull/pkg/urlutil"
)

/*
Responsibilities

- Perform single HTTP GET requests against the management API
- Apply authorization headers and timeouts
- Classify responses into retryable and fatal faults
- Decode the response envelope (data + pagination)

Fetch Semantics

- One call, one classification; the client never retries
- The client never decides candidate order or pagination
- All calls are logged with metadata

The client never interprets records; it only returns the decoded envelope.
*/

const DefaultRequestTimeout = 30 * time.Second

type Client interface {
	Get(ctx context.Context, req Request) (PageEnvelope, failure.ClassifiedError)
}

type HTTPClient struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	authScheme   string
	authToken    string
}

func NewHTTPClient(
	metadataSink metadata.MetadataSink,
	authScheme string,
	authToken string,
	timeout time.Duration,
) HTTPClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return HTTPClient{
		metadataSink: metadataSink,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		authScheme: authScheme,
		authToken:  authToken,
	}
}

func (c *HTTPClient) Get(ctx context.Context, req Request) (PageEnvelope, failure.ClassifiedError) {
	callerMethod := "HTTPClient.Get"
	startTime := time.Now()

	envelope, err := c.performGet(ctx, req)

	duration := time.Since(startTime)

	var statusCode int
	if err == nil {
		statusCode = envelope.Code()
	} else {
		var transportErr *TransportError
		if errors.As(err, &transportErr) {
			statusCode = transportErr.StatusCode
		}
	}

	requestURL, _ := urlutil.BuildRequestURL(req.BaseURL(), req.Path(), req.Params())
	c.metadataSink.RecordFetch(requestURL, statusCode, duration, 0, 0)

	if err != nil {
		c.recordTransportError(callerMethod, requestURL, err)
		return PageEnvelope{}, err
	}

	return envelope, nil
}

func (c *HTTPClient) recordTransportError(callerMethod string, requestURL string, err failure.ClassifiedError) {
	var transportError *TransportError
	if errors.As(err, &transportError) {
		c.metadataSink.RecordError(
			time.Now(),
			"transport",
			callerMethod,
			mapTransportErrorToMetadataCause(transportError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, requestURL),
				metadata.NewAttr(metadata.AttrHTTPStatus, fmt.Sprintf("%d", transportError.StatusCode)),
			},
		)
	}
}

func (c *HTTPClient) performGet(ctx context.Context, req Request) (PageEnvelope, failure.ClassifiedError) {
	requestURL, err := urlutil.BuildRequestURL(req.BaseURL(), req.Path(), req.Params())
	if err != nil {
		return PageEnvelope{}, &TransportError{
			Message:   fmt.Sprintf("failed to build request URL: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return PageEnvelope{}, &TransportError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseNetworkFailure,
		}
	}

	httpReq.Header.Set("Authorization", c.authScheme+" "+c.authToken)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cause := TransportErrorCause(ErrCauseNetworkFailure)
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			cause = ErrCauseTimeout
		}
		return PageEnvelope{}, &TransportError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     cause,
		}
	}
	defer resp.Body.Close()

	if classified := classifyStatus(resp.StatusCode); classified != nil {
		return PageEnvelope{}, classified
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return PageEnvelope{}, &TransportError{
			Message:    fmt.Sprintf("failed to read response body: %v", err),
			Retryable:  true,
			Cause:      ErrCauseReadResponseBodyError,
			StatusCode: resp.StatusCode,
		}
	}

	envelope, err := decodeEnvelope(body, resp.StatusCode)
	if err != nil {
		// Parse faults are programming-level, never retried
		return PageEnvelope{}, &TransportError{
			Message:    fmt.Sprintf("failed to decode envelope: %v", err),
			Retryable:  false,
			Cause:      ErrCauseEnvelopeInvalid,
			StatusCode: resp.StatusCode,
		}
	}

	return envelope, nil
}

// classifyStatus maps an HTTP status code to a classified fault, or nil
// for success. Credential and permission faults never benefit from retry;
// everything else transient stays retryable so the retriever can apply
// its backoff budget.
func classifyStatus(statusCode int) failure.ClassifiedError {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil

	case statusCode == http.StatusUnauthorized:
		return &TransportError{
			Message:    "authentication rejected (401)",
			Retryable:  false,
			Cause:      ErrCauseAuthRejected,
			StatusCode: statusCode,
		}

	case statusCode == http.StatusForbidden:
		return &TransportError{
			Message:    "access forbidden (403)",
			Retryable:  false,
			Cause:      ErrCauseAccessForbidden,
			StatusCode: statusCode,
		}

	case statusCode == http.StatusNotFound:
		// Retryable within a candidate; terminal not-found only once the
		// retry budget is exhausted, which licenses the next candidate.
		return &TransportError{
			Message:    "endpoint not found (404)",
			Retryable:  true,
			Cause:      ErrCauseEndpointMissing,
			StatusCode: statusCode,
		}

	case statusCode == http.StatusTooManyRequests:
		return &TransportError{
			Message:    "rate limited (429)",
			Retryable:  true,
			Cause:      ErrCauseTooManyRequests,
			StatusCode: statusCode,
		}

	case statusCode >= 500:
		return &TransportError{
			Message:    fmt.Sprintf("server error: %d", statusCode),
			Retryable:  true,
			Cause:      ErrCauseServerError,
			StatusCode: statusCode,
		}

	default:
		return &TransportError{
			Message:    fmt.Sprintf("client error: %d", statusCode),
			Retryable:  true,
			Cause:      ErrCauseClientError,
			StatusCode: statusCode,
		}
	}
}
