// Package errors defines the failure taxonomy shared by the bundle pipeline.
//
// Every failure carries one of three kinds. Callers test for the kind with
// the standard library's errors.Is against the exported sentinels:
//
//	if errors.Is(err, styreneerrors.ErrExternalTool) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSpecification marks a malformed or incomplete bundle or launcher
	// declaration. Fatal for that bundle only.
	ErrSpecification = errors.New("❌ invalid specification")

	// ErrExternalTool marks a non-zero exit from an external program.
	// Fatal for the current bundle.
	ErrExternalTool = errors.New("❌ external tool failed")

	// ErrAsset marks a missing or unconvertible asset. The dependent
	// feature is skipped unless it is structurally required.
	ErrAsset = errors.New("❌ asset unavailable")
)

// Kind identifies which sentinel a BuildError matches.
type Kind int

const (
	KindSpecification Kind = iota
	KindExternalTool
	KindAsset
)

func (k Kind) sentinel() error {
	switch k {
	case KindExternalTool:
		return ErrExternalTool
	case KindAsset:
		return ErrAsset
	default:
		return ErrSpecification
	}
}

func (k Kind) String() string {
	switch k {
	case KindExternalTool:
		return "external-tool"
	case KindAsset:
		return "asset"
	default:
		return "specification"
	}
}

// BuildError is a classified pipeline failure.
type BuildError struct {
	Kind    Kind
	Op      string
	Command []string
	Err     error
}

// Error implements the error interface
func (e *BuildError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if len(e.Command) > 0 {
		fmt.Fprintf(&b, " (command: %s)", strings.Join(e.Command, " "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *BuildError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Specf returns a specification error with a formatted message.
func Specf(format string, args ...interface{}) error {
	return &BuildError{Kind: KindSpecification, Op: fmt.Sprintf(format, args...)}
}

// Spec wraps err as a specification error.
func Spec(op string, err error) error {
	return &BuildError{Kind: KindSpecification, Op: op, Err: err}
}

// Tool wraps err as an external tool failure for the given command line.
func Tool(command []string, err error) error {
	return &BuildError{
		Kind:    KindExternalTool,
		Op:      "running " + command[0],
		Command: append([]string(nil), command...),
		Err:     err,
	}
}

// Assetf returns an asset error with a formatted message.
func Assetf(format string, args ...interface{}) error {
	return &BuildError{Kind: KindAsset, Op: fmt.Sprintf(format, args...)}
}

// Asset wraps err as an asset error.
func Asset(op string, err error) error {
	return &BuildError{Kind: KindAsset, Op: op, Err: err}
}

// KindOf reports the kind of err, if it is classified.
func KindOf(err error) (Kind, bool) {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Kind, true
	}
	return 0, false
}
