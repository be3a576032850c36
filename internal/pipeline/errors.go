package pipeline

import "fmt"

// SourceError wraps a fetch failure with the source it came from. One failed
// source never aborts the cycle; the error is logged and counted.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// StorageError wraps a corpus write failure. Unlike source errors these are
// fatal for the cycle; a corpus that cannot be written to cannot ingest.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
