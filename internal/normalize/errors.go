package normalize

import (
	"fmt"

	"github.com/hfadhel/consolepull/pkg/failure"
)

type NormalizeErrorCause string

const (
	ErrCauseColumnCollision NormalizeErrorCause = "flattened key collides with an existing column"
)

// NormalizeError never escapes the normalizer: it only selects the next
// stage of the fallback ladder. It still implements ClassifiedError so the
// stages compose with the rest of the pipeline's error vocabulary.
type NormalizeError struct {
	Message   string
	Retryable bool
	Cause     NormalizeErrorCause
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("normalize error: %s", e.Cause)
}

func (e *NormalizeError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}
