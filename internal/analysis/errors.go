package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFiles means the request carried no uploads at all.
	ErrNoFiles = errors.New("no files uploaded")
	// ErrNoUsableData means every upload was skipped.
	ErrNoUsableData = errors.New("no usable data in uploads")
	// ErrUnresolvableColumns means an upload lacks the product name column.
	ErrUnresolvableColumns = errors.New("product name column not found")
)

// FileError is a hard failure (read, decode or parse) tied to one upload.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }
