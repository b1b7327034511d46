package loader

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

// Kind classifies a load failure.
type Kind int

const (
	// FileRead means the file could not be opened or read.
	FileRead Kind = iota + 1
	// Parse means the contents are not a valid description.
	Parse
	// OutOfMemory means the input exceeded the reader's buffer limits.
	OutOfMemory
)

// String returns a short kind name.
func (k Kind) String() string {
	switch k {
	case FileRead:
		return "read"
	case Parse:
		return "parse"
	case OutOfMemory:
		return "out of memory"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// LoadError reports why a description could not be loaded.
type LoadError struct {
	Kind Kind
	Path string
	// Line is the 1-based line of a text-format parse error, 0 if unknown.
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %v", e.Path, e.Line, e.Kind, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *LoadError in err's chain.
func KindOf(err error) (Kind, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return 0, false
}

// FieldError is a schema or decoding error in a CUE description.
type FieldError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *FieldError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
