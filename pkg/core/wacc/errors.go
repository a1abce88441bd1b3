package wacc

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package unwraps to exactly one of these.
var (
	ErrDataSource       = errors.New("data source error")
	ErrNotFound         = errors.New("not found")
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// EngineError carries the failing field alongside the error kind
type EngineError struct {
	Kind  error
	Field string
	Msg   string
}

func (e *EngineError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Msg)
}

func (e *EngineError) Unwrap() error { return e.Kind }

func invalid(field, format string, args ...interface{}) error {
	return &EngineError{Kind: ErrInvalidParameter, Field: field, Msg: fmt.Sprintf(format, args...)}
}

func insufficient(field, format string, args ...interface{}) error {
	return &EngineError{Kind: ErrInsufficientData, Field: field, Msg: fmt.Sprintf(format, args...)}
}

// DataSourceError wraps an I/O failure from a table source.
func DataSourceError(source string, err error) error {
	return &EngineError{Kind: ErrDataSource, Field: source, Msg: err.Error()}
}

// MissingTable reports a table absent from a source.
func MissingTable(source, table string) error {
	return &EngineError{Kind: ErrDataSource, Field: source, Msg: fmt.Sprintf("table %q not found", table)}
}
