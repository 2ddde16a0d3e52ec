package excelfile

import (
	"errors"
	"fmt"
)

// ErrWriterFinished is returned by operations attempted after Finish.
var ErrWriterFinished = errors.New("file writer already finished")

// ErrWriterClosed is returned by operations attempted after Close.
var ErrWriterClosed = errors.New("file writer closed")

// FormatError reports a sheet index override that is not a valid integer.
type FormatError struct {
	Key   string
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Key, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// TypeMismatchError reports a dynamic column whose backing field is not a mapping.
type TypeMismatchError struct {
	FieldName        string
	DynamicColumnKey string
	Kind             ValueKind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("dynamic column %s[%s]: expected map value, got %s", e.FieldName, e.DynamicColumnKey, e.Kind)
}

// ExtensionResolutionError reports a configured handler provider name that
// is not registered.
type ExtensionResolutionError struct {
	Name string
}

func (e *ExtensionResolutionError) Error() string {
	return fmt.Sprintf("write handler provider %q is not registered", e.Name)
}
