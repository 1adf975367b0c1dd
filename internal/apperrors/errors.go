package apperrors

import "fmt"

// ErrNotFound represents an error when a requested resource is not found.
type ErrNotFound struct {
	Resource string
	ID       interface{}
}

// Error implements the error interface.
func (e *ErrNotFound) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("%s with ID %v not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is allows for error checking with errors.Is().
func (e *ErrNotFound) Is(target error) bool {
	_, ok := target.(*ErrNotFound)
	return ok
}

// NewNotFoundError creates a new ErrNotFound.
func NewNotFoundError(resource string, id interface{}) *ErrNotFound {
	return &ErrNotFound{
		Resource: resource,
		ID:       id,
	}
}

// NewJobNotFoundError creates a specific error for unknown download jobs.
func NewJobNotFoundError(jobID string) *ErrNotFound {
	return &ErrNotFound{
		Resource: "job",
		ID:       jobID,
	}
}

// ErrExtraction is returned when the extraction engine could not resolve
// metadata or fetch the payload for a URL. It is never retried.
type ErrExtraction struct {
	URL   string
	Cause error
}

// Error implements the error interface.
func (e *ErrExtraction) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("extraction failed for %s", e.URL)
	}
	return fmt.Sprintf("extraction failed for %s: %v", e.URL, e.Cause)
}

// Unwrap exposes the engine error.
func (e *ErrExtraction) Unwrap() error {
	return e.Cause
}

// Is allows for error checking with errors.Is().
func (e *ErrExtraction) Is(target error) bool {
	_, ok := target.(*ErrExtraction)
	return ok
}

// NewExtractionError wraps an engine failure for the given URL.
func NewExtractionError(url string, cause error) *ErrExtraction {
	return &ErrExtraction{
		URL:   url,
		Cause: cause,
	}
}

// ErrSubtitleUnavailable is returned when the requested subtitle track does not exist.
type ErrSubtitleUnavailable struct {
	URL      string
	Language string
	Format   string
}

// Error implements the error interface.
func (e *ErrSubtitleUnavailable) Error() string {
	return fmt.Sprintf("no %s subtitle in language %q available for %s", e.Format, e.Language, e.URL)
}

// Is allows for error checking with errors.Is().
func (e *ErrSubtitleUnavailable) Is(target error) bool {
	_, ok := target.(*ErrSubtitleUnavailable)
	return ok
}

// NewSubtitleUnavailableError creates a new ErrSubtitleUnavailable.
func NewSubtitleUnavailableError(url, language, format string) *ErrSubtitleUnavailable {
	return &ErrSubtitleUnavailable{
		URL:      url,
		Language: language,
		Format:   format,
	}
}

// ErrCleanup describes an intermediate file that could not be removed or moved.
// It is logged and counted, never returned to callers of the orchestrator.
type ErrCleanup struct {
	Path  string
	Cause error
}

// Error implements the error interface.
func (e *ErrCleanup) Error() string {
	return fmt.Sprintf("cleanup of %s failed: %v", e.Path, e.Cause)
}

// Unwrap exposes the filesystem error.
func (e *ErrCleanup) Unwrap() error {
	return e.Cause
}

// Is allows for error checking with errors.Is().
func (e *ErrCleanup) Is(target error) bool {
	_, ok := target.(*ErrCleanup)
	return ok
}

// ErrInvalidRequest is returned when a request or engine configuration is rejected before any work starts.
type ErrInvalidRequest struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ErrInvalidRequest) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is allows for error checking with errors.Is().
func (e *ErrInvalidRequest) Is(target error) bool {
	_, ok := target.(*ErrInvalidRequest)
	return ok
}

// NewInvalidRequestError creates a new ErrInvalidRequest.
func NewInvalidRequestError(field, reason string) *ErrInvalidRequest {
	return &ErrInvalidRequest{
		Field:  field,
		Reason: reason,
	}
}
