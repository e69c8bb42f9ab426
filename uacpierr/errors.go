// Package uacpierr defines the error kinds surfaced by the ACPI core.
//
// Sentinel kinds follow the style of a plain string-backed error (no
// allocation needed to report a known condition); evaluation-time context
// (node path, opcode, bytecode offset) is attached with Wrap the way the
// teacher attaches "PC=0x%X" to StepResult.Err.
package uacpierr

import "fmt"

// Kind identifies one of the error categories from the core's error design.
type Kind string

// Error implements the error interface directly on Kind, so a bare Kind
// value is already a usable error (errors.Is(err, ErrNotFound) works
// without a wrapper type).
func (k Kind) Error() string { return string(k) }

const (
	ErrOutOfMemory         Kind = "out of memory"
	ErrNotFound            Kind = "not found"
	ErrBadBytecode         Kind = "bad bytecode"
	ErrTypeMismatch        Kind = "type mismatch"
	ErrInvalidArgument     Kind = "invalid argument"
	ErrAlreadyExists       Kind = "already exists"
	ErrStillInUse          Kind = "still in use"
	ErrTimeout             Kind = "timeout"
	ErrUndefinedReference  Kind = "aml undefined reference"
	ErrBadOperand          Kind = "aml bad operand"
	ErrDenied              Kind = "denied"
	ErrNotReady            Kind = "not ready"
	ErrHardwareTimeout     Kind = "hardware timeout"
)

// Context carries the evaluation-time location of a failure: the
// namespace path of the method being evaluated, the opcode under
// execution, and the bytecode cursor offset within that method. Any of
// these may be zero-valued when not applicable (e.g. a namespace install
// error has no opcode).
type Context struct {
	Path   string
	Opcode uint16
	Offset int
}

// wrapped pairs a Kind with evaluation context and an optional cause.
type wrapped struct {
	kind  Kind
	ctx   Context
	cause error
}

func (w *wrapped) Error() string {
	if w.ctx.Path == "" && w.cause == nil {
		return string(w.kind)
	}
	msg := string(w.kind)
	if w.ctx.Path != "" {
		msg = fmt.Sprintf("%s: at %s (opcode=0x%02X offset=%d)", msg, w.ctx.Path, w.ctx.Opcode, w.ctx.Offset)
	}
	if w.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, w.cause)
	}
	return msg
}

func (w *wrapped) Unwrap() error { return w.kind }

// Wrap attaches evaluation context to a Kind, optionally chaining a cause.
// The result still satisfies errors.Is(result, kind).
func Wrap(kind Kind, ctx Context, cause error) error {
	return &wrapped{kind: kind, ctx: ctx, cause: cause}
}

// Wrapf is a convenience for Wrap with only a path, formatted like
// fmt.Sprintf for the path component.
func Wrapf(kind Kind, format string, args ...any) error {
	return Wrap(kind, Context{Path: fmt.Sprintf(format, args...)}, nil)
}
