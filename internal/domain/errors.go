package domain

import "fmt"

// FetchError reports a failed fetch for a single location. The rest of the
// batch is unaffected.
type FetchError struct {
	Location string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Location, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SchemaError reports a raw forecast document that does not match the
// expected shape. Field is the offending JSON path when known.
type SchemaError struct {
	Location string
	Field    string
	Err      error
}

func (e *SchemaError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid forecast for %s: %v", e.Location, e.Err)
	}
	return fmt.Sprintf("invalid forecast for %s: field %s: %v", e.Location, e.Field, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// PersistError reports a failed write of the reduced collection.
type PersistError struct {
	Target string
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Target, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
