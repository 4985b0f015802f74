package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrConfigurationMissing indicates the credential pair is not set.
	// This is a gating state, not a failure.
	ErrConfigurationMissing = errors.New("api url and token are not configured")

	// ErrConnectionFailed indicates the probe request failed
	ErrConnectionFailed = errors.New("connection to cookbook failed")

	// ErrFetchFailed indicates an index, detail or search request failed
	ErrFetchFailed = errors.New("fetch failed")

	// ErrImageUnavailable indicates a recipe image could not be loaded.
	// Never surfaced to the user.
	ErrImageUnavailable = errors.New("recipe image unavailable")

	// ErrRecipeNotFound indicates a successful response carried no recipe
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrServerOffline indicates the cookbook server is unreachable
	ErrServerOffline = errors.New("cookbook server is unreachable")

	// ErrAuthFailed indicates the server rejected the credential
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrSuperseded indicates a newer fetch was issued before this one committed
	ErrSuperseded = errors.New("superseded by a newer request")
)

// FetchError is the discrete failure signal for index, detail and search
// fetches. Message is suitable for display.
type FetchError struct {
	Op      string // e.g. "list recipes"
	Message string // e.g. "Failed to fetch recipes"
	Err     error  // underlying cause
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Message
}

// Unwrap exposes both ErrFetchFailed and the cause to errors.Is
func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetchFailed}
	}
	return []error{ErrFetchFailed, e.Err}
}

// NewFetchError builds a FetchError
func NewFetchError(op, message string, err error) *FetchError {
	return &FetchError{Op: op, Message: message, Err: err}
}

// UserMessage returns a message fit for a toast
func UserMessage(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
