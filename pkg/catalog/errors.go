package catalog

import (
	"fmt"
	"strings"
)

// ValidationError reports bad input to a catalog operation. The operation
// was not performed.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError reports that a referenced row does not exist. No partial
// effect took place.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// StorageError aggregates one or more transactional write failures. The
// transaction was rolled back before this error was returned.
type StorageError struct {
	Op   string
	Errs []error
}

func (e *StorageError) Error() string {
	if len(e.Errs) == 1 {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Errs[0])
	}
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("storage: %s: %d failures: %s", e.Op, len(e.Errs), strings.Join(msgs, "; "))
}

func (e *StorageError) Unwrap() []error {
	return e.Errs
}

func storageError(op string, errs ...error) error {
	return &StorageError{Op: op, Errs: errs}
}
