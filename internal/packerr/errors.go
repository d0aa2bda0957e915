// Package packerr defines the failure taxonomy shared by the packaging
// pipeline: staging, assembly and batch orchestration.
package packerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type Kind int

const (
	InputNotFound Kind = iota
	UnsupportedInput
	Extraction
	NoPagesFound
	Encoding
	Write
	SourceRemoval
	Unknown
)

func (k Kind) String() string {
	switch k {
	case InputNotFound:
		return "InputNotFound"
	case UnsupportedInput:
		return "UnsupportedInput"
	case Extraction:
		return "Extraction"
	case NoPagesFound:
		return "NoPagesFound"
	case Encoding:
		return "Encoding"
	case Write:
		return "Write"
	case SourceRemoval:
		return "SourceRemoval"
	default:
		return "Unknown"
	}
}

// Error is a classified pipeline failure.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]any
	Cause   error
}

func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Context: make(map[string]any),
	}
}

func Wrap(err error, kind Kind, message string) *Error {
	e := New(kind, message)
	e.Cause = err
	return e
}

func (e *Error) Error() string {
	parts := []string{fmt.Sprintf("[%s] %s", e.Kind, e.Message)}

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ctxParts := make([]string, 0, len(keys))
		for _, k := range keys {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, "context: "+strings.Join(ctxParts, ", "))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match on kind alone: errors.Is(err, packerr.New(NoPagesFound, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

// IsKind reports whether any error in err's chain is an *Error of kind.
func IsKind(err error, kind Kind) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return Unknown
}

// Advice returns a short hint for a user-facing failure line.
func Advice(err error) string {
	switch KindOf(err) {
	case InputNotFound:
		return "check that the input path exists"
	case Extraction:
		return "the archive may be corrupt or not a zip file"
	case NoPagesFound:
		return "the source holds no jpg/jpeg/png/gif/bmp/webp/tiff/tif files at its top level"
	case Encoding:
		return "one of the pages could not be read or packed"
	case Write:
		return "check permissions and free space in the output directory"
	case SourceRemoval:
		return "the comic was written; remove the source manually"
	default:
		return ""
	}
}

// SafeExecute runs fn and converts a panic into an Unknown error.
func SafeExecute(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = New(Unknown, fmt.Sprintf("runtime error: %v", r))
		}
	}()

	return fn()
}
