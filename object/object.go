// Package object implements the ACPI firmware object system: the
// discriminated Object variant, its reference-counted lifetime, and the
// implicit-cast rules that govern Store and typed-operator assignment.
//
// An Object is deliberately not an interface — every variant is a field on
// one struct, guarded by one mutex, the way the teacher keeps every ARM64
// instruction field on one insts.Instruction struct regardless of format
// (insts/insts.go) rather than modeling each encoding as its own type. This
// keeps clone/assign/cast generic over "the current object", which the AML
// implicit-cast rules require (the cast target is picked by inspecting
// whatever variant currently lives in the destination).
package object

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Kind discriminates the variant currently held by an Object.
type Kind uint8

const (
	Uninitialized Kind = iota
	KindInteger
	KindString
	KindBuffer
	KindPackage
	KindFieldUnit
	KindBufferField
	KindOperationRegion
	KindDevice
	KindProcessor
	KindPowerResource
	KindThermalZone
	KindMutex
	KindEvent
	KindMethod
	KindReference
	KindDebug
)

func (k Kind) String() string {
	switch k {
	case Uninitialized:
		return "Uninitialized"
	case KindInteger:
		return "Integer"
	case KindString:
		return "String"
	case KindBuffer:
		return "Buffer"
	case KindPackage:
		return "Package"
	case KindFieldUnit:
		return "FieldUnit"
	case KindBufferField:
		return "BufferField"
	case KindOperationRegion:
		return "OperationRegion"
	case KindDevice:
		return "Device"
	case KindProcessor:
		return "Processor"
	case KindPowerResource:
		return "PowerResource"
	case KindThermalZone:
		return "ThermalZone"
	case KindMutex:
		return "Mutex"
	case KindEvent:
		return "Event"
	case KindMethod:
		return "Method"
	case KindReference:
		return "Reference"
	case KindDebug:
		return "Debug"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Revision selects the AML integer width in effect for a Store/cast: the
// DSDT's declared revision controls whether Integer arithmetic and
// Integer<->Buffer conversions operate mod 2^32 or mod 2^64 (spec.md §3).
type Revision uint8

const (
	Revision1 Revision = 1 // 32-bit integers
	Revision2 Revision = 2 // 64-bit integers, and all later revisions
)

// Mask returns the integer mask in effect for the revision.
func (r Revision) Mask() uint64 {
	if r == Revision1 {
		return 0xFFFFFFFF
	}
	return ^uint64(0)
}

// IntWidthBytes returns the width used by Integer<->Buffer conversions.
func (r Revision) IntWidthBytes() int {
	if r == Revision1 {
		return 4
	}
	return 8
}

// Object is a reference-counted, variant-typed firmware value.
//
// refcount starts at 1 when a constructor returns it (the caller's
// reference). Retain/Release adjust it atomically so concurrent method
// evaluation across threads (spec.md §5) can hold overlapping references
// without a coarser lock.
type Object struct {
	mu       sync.RWMutex
	kind     Kind
	refcount int32

	integer uint64
	bytes   []byte // backing for String and Buffer
	pkg     []*Object

	ref *Reference

	field    *FieldUnit
	bufField *BufferField
	region   *OpRegion
	device   *DeviceData
	proc     *ProcessorData
	pwr      *PowerResourceData
	thermal  *ThermalZoneData
	mutex    *MutexData
	event    *EventData
	method   *MethodData
}

// New returns a new Uninitialized object with refcount 1.
func New() *Object {
	return &Object{kind: Uninitialized, refcount: 1}
}

// NewInteger returns a new Integer object.
func NewInteger(v uint64) *Object {
	return &Object{kind: KindInteger, refcount: 1, integer: v}
}

// NewString returns a new String object. The byte slice is copied; strings
// carry their exact length (spec.md §4.1 mutability note: Store never
// changes a named String's length, so the length at construction time
// matters for every later truncating write).
func NewString(s string) *Object {
	b := make([]byte, len(s))
	copy(b, s)
	return &Object{kind: KindString, refcount: 1, bytes: b}
}

// NewBuffer returns a new Buffer object. The byte slice is copied.
func NewBuffer(b []byte) *Object {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Object{kind: KindBuffer, refcount: 1, bytes: cp}
}

// NewPackage returns a new Package object. Each element is retained (the
// Package owns a reference to each of its elements — spec.md §9: "Package
// -> child relationships owning").
func NewPackage(elems []*Object) *Object {
	pkg := make([]*Object, len(elems))
	for i, e := range elems {
		if e == nil {
			e = New()
		}
		e.Retain()
		pkg[i] = e
	}
	return &Object{kind: KindPackage, refcount: 1, pkg: pkg}
}

// NewDebug returns the singleton-shaped Debug pseudo-object. A fresh
// instance is fine per evaluation; Debug carries no state of its own.
func NewDebug() *Object {
	return &Object{kind: KindDebug, refcount: 1}
}

// Kind reports the object's current variant.
func (o *Object) Kind() Kind {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.kind
}

// Retain increments the reference count and returns the same object, so
// call sites can write `target = src.Retain()`.
func (o *Object) Retain() *Object {
	atomic.AddInt32(&o.refcount, 1)
	return o
}

// Release decrements the reference count. At zero it releases ownership of
// any child objects (Package elements, a Reference's owned target) and the
// object becomes eligible for garbage collection by the Go runtime — the
// core has no custom allocator to return memory to (spec.md §6 only
// requires the host expose Alloc/Free for the host-glue layer, not for
// Objects, which are ordinary Go heap values).
func (o *Object) Release() {
	if atomic.AddInt32(&o.refcount, -1) > 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.kind {
	case KindPackage:
		for _, e := range o.pkg {
			e.Release()
		}
		o.pkg = nil
	case KindReference:
		if o.ref != nil {
			o.ref.releaseOwned()
		}
	}
}

// RefCount reports the current reference count (diagnostics/tests only).
func (o *Object) RefCount() int32 {
	return atomic.LoadInt32(&o.refcount)
}

// Integer returns the raw stored integer if the object is currently an
// Integer, masked is ignored here — masking happens at Store time per the
// declared revision (spec.md §3 "32-bit masking for revision 1").
func (o *Object) Integer() (uint64, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.kind != KindInteger {
		return 0, false
	}
	return o.integer, true
}

// SetInteger overwrites the value in place without changing kind. Used by
// Increment/Decrement-through-reference and by internal arithmetic.
func (o *Object) SetInteger(v uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.kind = KindInteger
	o.integer = v
}

// Bytes returns the raw backing bytes for a String or Buffer object.
func (o *Object) Bytes() ([]byte, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.kind != KindString && o.kind != KindBuffer {
		return nil, false
	}
	out := make([]byte, len(o.bytes))
	copy(out, o.bytes)
	return out, true
}

// String renders a String object's content as a Go string. The stored
// bytes never include a trailing nul, and String does not append one.
func (o *Object) String() (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.kind != KindString {
		return "", false
	}
	return string(o.bytes), true
}

// Package returns the element slice for a Package object. The slice is
// returned directly (not copied) since elements are independently
// refcounted and callers must not mutate the slice's length out from under
// concurrent readers; index reads/writes go through NewIndexReference
// instead.
func (o *Object) Package() ([]*Object, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.kind != KindPackage {
		return nil, false
	}
	return o.pkg, true
}

// Len reports the element/byte count for Package, String, or Buffer.
func (o *Object) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	switch o.kind {
	case KindPackage:
		return len(o.pkg)
	case KindString, KindBuffer:
		return len(o.bytes)
	default:
		return 0
	}
}
