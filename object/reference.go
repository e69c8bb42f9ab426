package object

import "github.com/CascadeOS/uACPI/uacpierr"

// RefKind discriminates the four reference sub-variants of spec.md §3.
type RefKind uint8

const (
	RefNamed RefKind = iota
	RefLocal
	RefArg
	RefIndex
	RefOfRef
)

// Target is the live location a Reference denotes. Get/Set operate on
// whatever currently occupies that location — a named node's object may be
// swapped underneath an outstanding Reference by CopyObject (spec.md §4.4),
// and a Local/Arg slot may be rebound by a later Store; both must be
// observed by a Reference created before the swap (spec.md §3 Namespace
// Node invariant, and §4.1's reference-rebind note).
type Target interface {
	Get() *Object
	Set(o *Object)
}

// NamedTarget is implemented by namespace.Node so this package can create
// named references without importing namespace (which imports object).
type NamedTarget interface {
	Object() *Object
	SetObject(*Object)
	Path() string
}

// Slot is a single Local or Arg variable cell. interp.Frame owns seven of
// these for locals and seven for arguments; RefOf(LocalN)/RefOf(ArgN)
// captures a pointer to the Slot itself so later reassignment of the local
// is visible through the reference (live tracking), matching the
// reference-rebind behavior of spec.md §4.1.
type Slot struct {
	Obj *Object
}

// Reference is the payload of a KindReference Object.
type Reference struct {
	Kind   RefKind
	Target Target

	// owns is non-nil when this Reference was constructed over an object it
	// exclusively owns a count on (e.g. RefOfRef captures another
	// Reference object and must release it when this one is released).
	owns   *Object
}

func (r *Reference) releaseOwned() {
	if r.owns != nil {
		r.owns.Release()
		r.owns = nil
	}
}

// NewNamedReference returns a Reference object targeting a namespace node.
func NewNamedReference(n NamedTarget) *Object {
	return &Object{kind: KindReference, refcount: 1, ref: &Reference{
		Kind: RefNamed, Target: namedTarget{n},
	}}
}

// NewSlotReference returns a Reference object targeting a Local or Arg
// slot. kind must be RefLocal or RefArg.
func NewSlotReference(kind RefKind, s *Slot) *Object {
	return &Object{kind: KindReference, refcount: 1, ref: &Reference{
		Kind: kind, Target: slotTarget{s},
	}}
}

// NewIndexReference returns a Reference object targeting element index of
// a Package, or byte index of a Buffer. container must currently be a
// Package or Buffer.
func NewIndexReference(container *Object, index int) (*Object, error) {
	k := container.Kind()
	container.Retain()
	var t Target
	switch k {
	case KindPackage:
		t = packageIndexTarget{container, index}
	case KindBuffer:
		t = bufferIndexTarget{container, index}
	default:
		container.Release()
		return nil, uacpierr.ErrTypeMismatch
	}
	ref := &Object{kind: KindReference, refcount: 1, ref: &Reference{
		Kind: RefIndex, Target: t, owns: container,
	}}
	return ref, nil
}

// NewRefOfRef wraps another Reference object (ref-of-reference chaining).
// target is retained for the lifetime of the new reference.
func NewRefOfRef(target *Object) *Object {
	target.Retain()
	return &Object{kind: KindReference, refcount: 1, ref: &Reference{
		Kind: RefOfRef, Target: valueTarget{target}, owns: target,
	}}
}

// Reference returns the reference payload, if the object holds one.
func (o *Object) Reference() (*Reference, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.kind != KindReference {
		return nil, false
	}
	return o.ref, true
}

// --- Target implementations ---

type namedTarget struct{ n NamedTarget }

func (t namedTarget) Get() *Object    { return t.n.Object() }
func (t namedTarget) Set(o *Object)   { t.n.SetObject(o) }

type slotTarget struct{ s *Slot }

func (t slotTarget) Get() *Object { return t.s.Obj }
func (t slotTarget) Set(o *Object) {
	if t.s.Obj != nil {
		t.s.Obj.Release()
	}
	t.s.Obj = o
}

type valueTarget struct{ o *Object }

func (t valueTarget) Get() *Object  { return t.o }
func (t valueTarget) Set(o *Object) { t.o = o }

type packageIndexTarget struct {
	container *Object
	index     int
}

func (t packageIndexTarget) Get() *Object {
	t.container.mu.RLock()
	defer t.container.mu.RUnlock()
	if t.index < 0 || t.index >= len(t.container.pkg) {
		return nil
	}
	return t.container.pkg[t.index]
}

func (t packageIndexTarget) Set(o *Object) {
	t.container.mu.Lock()
	defer t.container.mu.Unlock()
	if t.index < 0 || t.index >= len(t.container.pkg) {
		return
	}
	if old := t.container.pkg[t.index]; old != nil {
		old.Release()
	}
	t.container.pkg[t.index] = o
}

type bufferIndexTarget struct {
	container *Object
	index     int
}

func (t bufferIndexTarget) Get() *Object {
	t.container.mu.RLock()
	defer t.container.mu.RUnlock()
	if t.index < 0 || t.index >= len(t.container.bytes) {
		return NewInteger(0)
	}
	return NewInteger(uint64(t.container.bytes[t.index]))
}

func (t bufferIndexTarget) Set(o *Object) {
	v, _ := AsInteger(o, Revision2)
	t.container.mu.Lock()
	defer t.container.mu.Unlock()
	if t.index < 0 || t.index >= len(t.container.bytes) {
		return
	}
	t.container.bytes[t.index] = byte(v)
}

// ResolveChain follows a (possibly multi-level) reference to its ultimate
// non-reference target, per spec.md §4.1 "Multilevel references": DerefOf
// on a reference-to-reference yields the ultimate target, not an
// intermediate reference. Traversal is iterative (no interpreter-stack
// recursion) and capped at maxDepth to defeat pathological reference
// cycles built through Package self-containment (spec.md §9).
func ResolveChain(o *Object, maxDepth int) (*Object, error) {
	depth := 0
	for {
		if o == nil {
			return nil, uacpierr.ErrUndefinedReference
		}
		if o.Kind() != KindReference {
			return o, nil
		}
		if depth >= maxDepth {
			return nil, uacpierr.Wrapf(uacpierr.ErrBadOperand, "reference chain exceeds max depth %d", maxDepth)
		}
		ref, _ := o.Reference()
		next := ref.Target.Get()
		o = next
		depth++
	}
}

// IncrementReferent adds delta (1 or -1) to the Integer referenced by a
// reference-to-integer object, in place, per spec.md §4.1's documented
// exception: "Increment/Decrement on a reference to an integer do modify
// the referent."
func IncrementReferent(ref *Object, delta int64) (*Object, error) {
	r, ok := ref.Reference()
	if !ok {
		return nil, uacpierr.ErrTypeMismatch
	}
	target := r.Target.Get()
	if target == nil || target.Kind() != KindInteger {
		return nil, uacpierr.ErrTypeMismatch
	}
	v, _ := target.Integer()
	target.SetInteger(uint64(int64(v) + delta))
	return target, nil
}
