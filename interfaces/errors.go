package interfaces

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidThreshold is returned when a required key count is zero or exceeds the total.
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrIndexOutOfRange is returned when a vault set references a key that does not exist.
	ErrIndexOutOfRange = errors.New("key index out of range")

	// ErrEmptySet is returned when a vault set has no keys while the record does.
	ErrEmptySet = errors.New("empty key set")

	// ErrCreationInProgress is returned when a creation is attempted while another runs.
	ErrCreationInProgress = errors.New("secret creation already in progress")

	// ErrInvalidSecret is returned when new secret parameters fail validation.
	ErrInvalidSecret = errors.New("invalid secret parameters")

	// ErrContentNotFound is returned when requested content cannot be found in the storage backend.
	ErrContentNotFound = errors.New("content not found")

	// ErrBackendUnavailable is returned when a storage backend is not accessible.
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrInvalidLocationURI is returned when a storage location URI is malformed or unsupported.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")
)

// TransportError is any failure to complete one remote call against a key server.
// It is always recoverable and is read as Locked by the aggregation.
type TransportError struct {
	Host string
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Host, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CreationError aborts the creation of a new secret. No partial record exists when it is returned.
type CreationError struct {
	Step string
	Host string
	Err  error
}

func (e *CreationError) Error() string {
	if e.Host != "" {
		return fmt.Sprintf("secret creation failed at %s (%s): %v", e.Step, e.Host, e.Err)
	}
	return fmt.Sprintf("secret creation failed at %s: %v", e.Step, e.Err)
}

func (e *CreationError) Unwrap() error {
	return e.Err
}

// CombineError reports that the shares of one combination did not yield plaintext.
type CombineError struct {
	Set KeyIndexArray
	Err error
}

func (e *CombineError) Error() string {
	return fmt.Sprintf("combining set %v: %v", e.Set, e.Err)
}

func (e *CombineError) Unwrap() error {
	return e.Err
}
