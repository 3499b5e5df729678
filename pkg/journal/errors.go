package journal

import "fmt"

// StorageError represents a failure in the journal storage backend.
type StorageError struct {
	// Driver is the storage driver name ("sqlite", "sqlite3", "memory").
	Driver string

	// Operation is the operation that failed ("open", "store", "delete", etc.).
	Operation string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("journal storage error [driver=%s, operation=%s]: %v", e.Driver, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(driver, operation string, cause error) *StorageError {
	return &StorageError{
		Driver:    driver,
		Operation: operation,
		Cause:     cause,
	}
}
