package complaint

import "errors"

var (
	// ErrNotFound is returned when no complaint has the requested id.
	ErrNotFound = errors.New("complaint not found")
	// ErrInvalidTransition is returned when an action is not allowed from the current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrUnknownAction is returned for an action outside the lifecycle vocabulary.
	ErrUnknownAction = errors.New("unknown lifecycle action")
	// ErrResolutionImageRequired is returned when resolving without a resolution image.
	ErrResolutionImageRequired = errors.New("resolution image is required")
	// ErrEmptyDescription is returned when a submission has no text.
	ErrEmptyDescription = errors.New("complaint description is empty")
	// ErrPersistence is returned when the write-through to storage failed.
	// The in-memory collection is left as it was before the call.
	ErrPersistence = errors.New("persistence failure")
)

// IsRetryable reports whether err is a transient failure worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence)
}
