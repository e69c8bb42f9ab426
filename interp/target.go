package interp

import (
	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/opcodes"
	"github.com/CascadeOS/uACPI/uacpierr"
)

// target is a resolved SuperName/Target write-back location. Exactly one
// of node/slot/ref/debug is populated; get/storeInto dispatch on which.
//
// owner, when non-nil, is a reference-counted object this target borrowed
// its ref.Target from (the synthetic Reference object Index(...) builds
// when used directly as a Target rather than stored into a variable).
// Every call site that obtains a target via evalTarget/evalSuperName must
// `defer t.release()` so that borrow is given back once the statement is
// done using it.
type target struct {
	node  *namespace.Node
	slot  *object.Slot
	ref   *object.Reference
	debug bool
	owner *object.Object
}

// release gives back the refcount borrow target may hold on owner. Safe to
// call on a zero-value or already-released target.
func (t target) release() {
	if t.owner != nil {
		t.owner.Release()
	}
}

func (t target) get() *object.Object {
	switch {
	case t.node != nil:
		return orUninitialized(t.node.Object())
	case t.slot != nil:
		return orUninitialized(t.slot.Obj)
	case t.ref != nil:
		return orUninitialized(t.ref.Target.Get())
	case t.debug:
		return object.NewDebug()
	}
	return object.New()
}

func (t target) isDebug() bool { return t.debug }

// evalTarget decodes a Target operand, which AML encodes either as
// NullName (0x00, meaning "discard the result") or a SuperName.
func (e *Engine) evalTarget(f *Frame) (target, bool, error) {
	if f.cursor < f.currentEnd() && f.bytecode[f.cursor] == 0x00 {
		f.cursor++
		return target{}, false, nil
	}
	t, err := e.evalSuperName(f)
	if err != nil {
		return target{}, false, err
	}
	return t, true, nil
}

// evalSuperName decodes a SuperName: a Local/Arg, the Debug pseudo-object,
// a named reference, or one of the Type6Opcode forms that itself produces
// a location (Index, RefOf's dual use as a target is not legal AML, so
// only Index/DerefOf appear here in practice; DerefOf is handled via its
// resolved reference's Target).
func (e *Engine) evalSuperName(f *Frame) (target, error) {
	if f.cursor >= f.currentEnd() {
		return target{}, uacpierr.ErrBadBytecode
	}
	b := f.bytecode[f.cursor]
	if b != byte(opcodes.ExtOpPrefixByteOp) && isNameLeadByte(b) {
		path, err := f.readNameString()
		if err != nil {
			return target{}, err
		}
		node, err := e.ctx.Tree.Resolve(f.scope, path, false)
		if err != nil {
			return target{}, err
		}
		return target{node: node}, nil
	}

	op, _, n, err := opcodes.FetchOpcode(f.bytecode, f.cursor)
	if err != nil {
		return target{}, err
	}

	if i, ok := opcodes.IsLocal(op); ok {
		f.cursor += n
		return target{slot: &f.locals[i]}, nil
	}
	if i, ok := opcodes.IsArg(op); ok {
		f.cursor += n
		return target{slot: &f.args[i]}, nil
	}
	if op == opcodes.DebugOp {
		f.cursor += n
		return target{debug: true}, nil
	}
	if op == opcodes.IndexOp {
		f.cursor += n
		idxRef, err := e.evalIndexExpr(f)
		if err != nil {
			return target{}, err
		}
		r, _ := idxRef.Reference()
		return target{ref: r, owner: idxRef}, nil
	}
	if op == opcodes.DerefOfOp {
		f.cursor += n
		inner, err := e.evalTermArg(f)
		if err != nil {
			return target{}, err
		}
		resolved, err := object.ResolveChain(inner, e.ctx.MaxRefDepth)
		if err != nil {
			return target{}, err
		}
		return target{ref: &object.Reference{Target: identityTarget{resolved}}}, nil
	}
	return target{}, uacpierr.Wrapf(uacpierr.ErrBadOperand, "not a valid SuperName")
}

// identityTarget wraps an already-resolved Object as a Target for the rare
// case a write-back location is produced by DerefOf rather than by a true
// Reference variant (object.Target is otherwise only constructible inside
// package object).
type identityTarget struct{ o *object.Object }

func (t identityTarget) Get() *object.Object { return t.o }
func (t identityTarget) Set(o *object.Object) {
	object.StoreInto(t.o, o, object.Revision2)
}

// storeInto writes src into t following spec.md §4.1's Store rules: a
// named node already holding Integer/String/Buffer coerces and truncates
// in place; a FieldUnit/BufferField writes through to its backing; a
// DerefOf target coerces into the dereferenced object in place through
// identityTarget.Set; every other destination (Local/Arg, Index targets, a
// forward-declared or non-scalar named node) rebinds wholesale to a clone
// of src.
func (e *Engine) storeInto(t target, src *object.Object) error {
	if t.debug {
		e.ctx.Logger.Info("Debug", "value", debugRender(src))
		return nil
	}
	if t.node != nil {
		cur := t.node.Object()
		if cur != nil {
			switch cur.Kind() {
			case object.KindInteger, object.KindString, object.KindBuffer:
				return object.StoreInto(cur, src, e.ctx.Revision)
			case object.KindFieldUnit:
				fu, _ := cur.FieldUnit()
				return e.writeFieldUnit(fu, src)
			case object.KindBufferField:
				bf, _ := cur.BufferField()
				return object.StoreIntoBufferField(bf, src, e.ctx.Revision)
			}
		}
		cloned := object.Clone(src)
		t.node.SetObject(cloned)
		cloned.Release()
		t.node.InvalidateCachedInfo()
		return nil
	}
	if t.slot != nil {
		cloned := object.Clone(src)
		if t.slot.Obj != nil {
			t.slot.Obj.Release()
		}
		t.slot.Obj = cloned
		return nil
	}
	if t.ref != nil {
		cloned := object.Clone(src)
		t.ref.Target.Set(cloned)
		return nil
	}
	return uacpierr.ErrBadOperand
}

// copyObjectInto implements CopyObject(TermArg, SuperName)'s write-back
// (spec.md §4.1/§4.4): unlike Store, the destination never coerces into its
// existing type — it is rebound wholesale to a clone of src regardless of
// what t currently holds, so the target assumes src's type outright.
func (e *Engine) copyObjectInto(t target, src *object.Object) error {
	if t.debug {
		e.ctx.Logger.Info("Debug", "value", debugRender(src))
		return nil
	}
	cloned := object.Clone(src)
	switch {
	case t.node != nil:
		t.node.SetObject(cloned)
		cloned.Release()
		t.node.InvalidateCachedInfo()
		return nil
	case t.slot != nil:
		if t.slot.Obj != nil {
			t.slot.Obj.Release()
		}
		t.slot.Obj = cloned
		return nil
	case t.ref != nil:
		t.ref.Target.Set(cloned)
		return nil
	default:
		cloned.Release()
		return uacpierr.ErrBadOperand
	}
}

// evalStore implements Store(TermArg, SuperName): the workhorse assignment
// opcode (spec.md §4.1). Its result is the source value itself, so Store
// can appear nested inside a larger expression the way the teacher's own
// assignment-as-expression ARM64 instructions do.
func (e *Engine) evalStore(f *Frame) (*object.Object, error) {
	src, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	t, err := e.evalSuperName(f)
	if err != nil {
		return nil, err
	}
	defer t.release()
	if err := e.storeInto(t, src); err != nil {
		return nil, err
	}
	return src, nil
}

func debugRender(o *object.Object) string {
	switch o.Kind() {
	case object.KindInteger:
		v, _ := o.Integer()
		return object.KindInteger.String() + ":" + uintToHex(v)
	case object.KindString:
		s, _ := o.String()
		return s
	default:
		return o.Kind().String()
	}
}

func uintToHex(v uint64) string {
	const hex = "0123456789ABCDEF"
	if v == 0 {
		return "0x0"
	}
	var buf [18]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = hex[v&0xF]
		v >>= 4
	}
	i -= 2
	buf[i], buf[i+1] = '0', 'x'
	return string(buf[i:])
}

// writeFieldUnit writes through an operation-region-backed FieldUnit via
// the Engine's RegionIO, honoring Buffer-vs-Integer access the same way
// object.StoreInto does for plain Buffer/String destinations.
func (e *Engine) writeFieldUnit(fu *object.FieldUnit, src *object.Object) error {
	if e.ctx.RegionIO == nil {
		return uacpierr.Wrapf(uacpierr.ErrNotReady, "no region I/O handler installed")
	}
	if src.Kind() == object.KindBuffer && fu.BitWidth > 64 {
		b, err := object.AsBuffer(src, e.ctx.Revision)
		if err != nil {
			return err
		}
		return e.ctx.RegionIO.WriteFieldBuffer(fu, b)
	}
	v, err := object.AsInteger(src, e.ctx.Revision)
	if err != nil {
		return err
	}
	return e.ctx.RegionIO.WriteField(fu, v)
}

// readFieldUnit is writeFieldUnit's counterpart for evaluating a FieldUnit
// named reference as a TermArg value.
func (e *Engine) readFieldUnit(fu *object.FieldUnit) (*object.Object, error) {
	if e.ctx.RegionIO == nil {
		return nil, uacpierr.Wrapf(uacpierr.ErrNotReady, "no region I/O handler installed")
	}
	if fu.BitWidth > 64 {
		b, err := e.ctx.RegionIO.ReadFieldBuffer(fu)
		if err != nil {
			return nil, err
		}
		return object.NewBuffer(b), nil
	}
	v, err := e.ctx.RegionIO.ReadField(fu)
	if err != nil {
		return nil, err
	}
	return object.NewInteger(v), nil
}
