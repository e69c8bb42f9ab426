package interp

import "github.com/CascadeOS/uACPI/object"

// RegionIO is the operation-region field access surface the interpreter
// calls into for FieldUnit reads/writes (spec.md §4 Operation region
// subsystem). Defined locally, structurally satisfied by package
// opregion's handler, so interp never imports opregion (the same
// cycle-avoidance pattern as object.NamedTarget/object.RegionHandler).
type RegionIO interface {
	ReadField(field *object.FieldUnit) (uint64, error)
	WriteField(field *object.FieldUnit, value uint64) error
	ReadFieldBuffer(field *object.FieldUnit) ([]byte, error)
	WriteFieldBuffer(field *object.FieldUnit, data []byte) error
}

// NotifyDispatcher delivers a Notify value to whatever host/event-subsystem
// layer has registered interest in target (spec.md §4 Event subsystem).
type NotifyDispatcher interface {
	Notify(target *object.Object, value uint64)
}

// TableFinder locates a dynamically loadable ACPI table by the header
// fields LoadTable's operands select one with (spec.md §4 dynamic table
// loading). A Context built without one fails every LoadTable with a zero
// DDBHandle, which is the correct behavior for a host that exposes no
// dynamically loadable tables.
type TableFinder interface {
	FindTable(signature, oemID, oemTableID string) ([]byte, bool)
}

// GlobalLock models the ACPI global lock negotiation Acquire/Release
// statements use when the SuperName operand names the special \_GL object
// rather than an ordinary Mutex (spec.md §5).
type GlobalLock interface {
	Acquire() error
	Release()
}

// Logger is shaped to match logr.Logger structurally so a package acpilog
// wrapper satisfies it without interp importing acpilog.
type Logger interface {
	Info(msg string, kv ...any)
	Error(err error, msg string, kv ...any)
	V(level int) Logger
}

// noopLogger discards everything; used when a Context is built without an
// explicit Logger.
type noopLogger struct{}

func (noopLogger) Info(string, ...any)          {}
func (noopLogger) Error(error, string, ...any)  {}
func (noopLogger) V(int) Logger                 { return noopLogger{} }
