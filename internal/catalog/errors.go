package catalog

import "fmt"

// SchemaError reports raw input that is not shaped like a list of records.
// Index is the offending element, or -1 when the input as a whole is wrong.
type SchemaError struct {
	Index int
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("schema: %v", e.Err)
	}
	return fmt.Sprintf("schema: record %d: %v", e.Index, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// StoreError wraps any failure while loading records into Postgres.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
