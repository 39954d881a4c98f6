package fileimport

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is returned when the blob cannot be decoded as the declared format
	ErrFormat = errors.New("file could not be read in the declared format")

	// ErrEmptyInput is returned when the file has no data rows
	ErrEmptyInput = errors.New("file contains no data rows")

	// ErrMissingHeader is returned when the header row is absent or blank
	ErrMissingHeader = fmt.Errorf("%w: missing header row", ErrFormat)

	// ErrTooManyRows is returned when the file exceeds the configured row limit
	ErrTooManyRows = fmt.Errorf("%w: too many rows", ErrFormat)

	// ErrUnsupportedFormat is returned for file extensions other than csv, xlsx and xls
	ErrUnsupportedFormat = errors.New("unsupported file format, expected csv, xlsx or xls")

	// ErrFileTooLarge is returned when the file exceeds the maximum allowed size
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")

	// ErrMissingRequiredField matches every MissingRequiredFieldError
	ErrMissingRequiredField = errors.New("required field is not mapped")

	// ErrUnknownField is returned when a mapping names a field that is not canonical
	ErrUnknownField = errors.New("unknown canonical field")

	// ErrUnknownColumn matches every UnknownColumnError
	ErrUnknownColumn = errors.New("mapped column not found in file headers")
)

// MissingRequiredFieldError reports a required canonical field that does not
// resolve to a header of the file
type MissingRequiredFieldError struct {
	Field  string
	Column string
}

func (e *MissingRequiredFieldError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("required field '%s' is mapped to unknown column '%s'", e.Field, e.Column)
	}
	return fmt.Sprintf("required field '%s' is not mapped", e.Field)
}

// Is matches ErrMissingRequiredField
func (e *MissingRequiredFieldError) Is(target error) bool {
	return target == ErrMissingRequiredField
}

// UnknownColumnError reports an optional field mapped to a header the file does not have
type UnknownColumnError struct {
	Field  string
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("field '%s' is mapped to unknown column '%s'", e.Field, e.Column)
}

// Is matches ErrUnknownColumn
func (e *UnknownColumnError) Is(target error) bool {
	return target == ErrUnknownColumn
}

func formatError(err error) error {
	return fmt.Errorf("%w: %v", ErrFormat, err)
}
