package errors

import (
	stderrors "errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Error kinds. Services wrap these so callers can branch with errors.Is.
var (
	ErrNotFound  = stderrors.New("not found")
	ErrEmptyCart = stderrors.New("cart is empty")
	ErrConflict  = stderrors.New("conflict")
	ErrStorage   = stderrors.New("storage unavailable")
)

// ValidationError is a caller-fixable problem with a single input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if stderrors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// ConflictError is a state conflict carrying a stable response code.
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func NewConflict(code, message string) error {
	return &ConflictError{Code: code, Message: message}
}

// StorageError marks an unavailable or failing storage collaborator.
type StorageError struct {
	Op  string
	err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.err)
}

func (e *StorageError) Unwrap() error { return e.err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// StackTrace exposes the stack captured when the error was wrapped.
func (e *StorageError) StackTrace() pkgerrors.StackTrace {
	if st, ok := e.err.(interface{ StackTrace() pkgerrors.StackTrace }); ok {
		return st.StackTrace()
	}
	return nil
}

// Storage wraps err as a StorageError unless it already carries a kind.
func Storage(op string, err error) error {
	if err == nil || Kind(err) != KindInternal {
		return err
	}
	return &StorageError{Op: op, err: pkgerrors.WithStack(err)}
}

const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
	KindEmptyCart  = "empty_cart"
	KindConflict   = "conflict"
	KindStorage    = "storage"
	KindInternal   = "internal"
)

// Kind names the taxonomy bucket of err.
func Kind(err error) string {
	if _, ok := AsValidation(err); ok {
		return KindValidation
	}
	switch {
	case stderrors.Is(err, ErrNotFound):
		return KindNotFound
	case stderrors.Is(err, ErrEmptyCart):
		return KindEmptyCart
	case stderrors.Is(err, ErrConflict):
		return KindConflict
	case stderrors.Is(err, ErrStorage):
		return KindStorage
	}
	return KindInternal
}
