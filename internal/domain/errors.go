package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is the category for lookups that resolve to nothing
// (LOCATION_NOT_FOUND, INSTANCE_NOT_FOUND, PIN_NOT_FOUND).
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is the category for input that fails a business rule
// (empty name, unknown type, malformed import data).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrStorage is the category for failures reading or writing a snapshot.
// Handlers should map this to HTTP 500.
var ErrStorage = errors.New("storage error")

// Code is a stable, machine-readable identifier for a failure site.
type Code string

// Validation codes.
const (
	CodeInvalidLocationName        Code = "INVALID_LOCATION_NAME"
	CodeInvalidCoordinates         Code = "INVALID_COORDINATES"
	CodeInvalidInstanceTypes       Code = "INVALID_INSTANCE_TYPES"
	CodeInvalidInstanceDescription Code = "INVALID_INSTANCE_DESCRIPTION"
	CodeInvalidPinTitle            Code = "INVALID_PIN_TITLE"
	CodeInvalidPinDescription      Code = "INVALID_PIN_DESCRIPTION"
	CodeInvalidPinType             Code = "INVALID_PIN_TYPE"
	CodeInvalidIDs                 Code = "INVALID_IDS"
	CodeInvalidImportData          Code = "INVALID_IMPORT_DATA"
)

// Lookup codes.
const (
	CodeLocationNotFound Code = "LOCATION_NOT_FOUND"
	CodeInstanceNotFound Code = "INSTANCE_NOT_FOUND"
	CodePinNotFound      Code = "PIN_NOT_FOUND"
)

// Storage I/O codes. The STORAGE_* pair belongs to the legacy pin snapshot,
// the LOCATIONS_* pair to the location snapshot.
const (
	CodeStorageSaveError   Code = "STORAGE_SAVE_ERROR"
	CodeStorageLoadError   Code = "STORAGE_LOAD_ERROR"
	CodeLocationsSaveError Code = "LOCATIONS_SAVE_ERROR"
	CodeLocationsLoadError Code = "LOCATIONS_LOAD_ERROR"
)

// category returns the sentinel a code belongs to, or nil for unknown codes.
func (c Code) category() error {
	switch c {
	case CodeLocationNotFound, CodeInstanceNotFound, CodePinNotFound:
		return ErrNotFound
	case CodeStorageSaveError, CodeStorageLoadError, CodeLocationsSaveError, CodeLocationsLoadError:
		return ErrStorage
	case CodeInvalidLocationName, CodeInvalidCoordinates, CodeInvalidInstanceTypes,
		CodeInvalidInstanceDescription, CodeInvalidPinTitle, CodeInvalidPinDescription,
		CodeInvalidPinType, CodeInvalidIDs, CodeInvalidImportData:
		return ErrValidation
	}
	return nil
}

// Error is the single error shape every store-level failure is normalized into.
// Context carries diagnostic fields (ids, counts, problem lists) and is never
// interpreted by callers other than for display or logging.
type Error struct {
	Code    Code
	Message string
	Context map[string]any
	Err     error
}

// NewError builds an Error with no underlying cause.
func NewError(code Code, message string, ctx map[string]any) *Error {
	return &Error{Code: code, Message: message, Context: ctx}
}

// WrapError builds an Error around an underlying failure.
func WrapError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is this error's category sentinel, or another
// *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.Code == e.Code
	}
	cat := e.Code.category()
	return cat != nil && target == cat
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries the given code anywhere in its chain,
// including codes of *Error values wrapped by an outer *Error.
func HasCode(err error, code Code) bool {
	return errors.Is(err, &Error{Code: code})
}
