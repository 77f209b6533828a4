package enrich

import (
	"errors"
	"fmt"

	"course-nlu/internal/domain"
)

var (
	// ErrInvalidInput marks a missing or empty description, or a catalog
	// without a Description column.
	ErrInvalidInput = domain.ErrInvalidInput

	// ErrExternalService marks any failure of the text analysis service:
	// auth, network, quota or a malformed response.
	ErrExternalService = errors.New("external service error")
)

// ExternalServiceError wraps a failed analyze call with the feature that
// was requested.
type ExternalServiceError struct {
	Feature string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("analyze %s: %v", e.Feature, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

func (e *ExternalServiceError) Is(target error) bool { return target == ErrExternalService }

// RowError ties a failure to the catalog row it happened on.
type RowError struct {
	Index int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
