package interp

import (
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/uacpierr"
)

// evalRefOf implements RefOf(SuperName): capture a live Target without
// evaluating it, per spec.md §4.1's reference-producing opcodes.
func (e *Engine) evalRefOf(f *Frame) (*object.Object, error) {
	t, err := e.evalSuperName(f)
	if err != nil {
		return nil, err
	}
	defer t.release()
	return refOfTarget(t)
}

func refOfTarget(t target) (*object.Object, error) {
	switch {
	case t.node != nil:
		return object.NewNamedReference(t.node), nil
	case t.slot != nil:
		return object.NewSlotReference(object.RefLocal, t.slot), nil
	default:
		return nil, uacpierr.Wrapf(uacpierr.ErrBadOperand, "RefOf of a derived target is not valid AML")
	}
}

// evalIndexExpr decodes Index(source, indexTermArg) without its trailing
// Target, returning the reference object itself. Shared by evalIndexTerm
// (TermArg position) and evalSuperName (Target position, e.g.
// Store(5, Index(pkg, 0))).
func (e *Engine) evalIndexExpr(f *Frame) (*object.Object, error) {
	container, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	idxObj, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	idx, err := object.AsInteger(idxObj, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	return object.NewIndexReference(container, int(idx))
}

func (e *Engine) evalIndexTerm(f *Frame) (*object.Object, error) {
	ref, err := e.evalIndexExpr(f)
	if err != nil {
		return nil, err
	}
	if err := e.storeOptionalTarget(f, ref); err != nil {
		return nil, err
	}
	return ref, nil
}

func (e *Engine) evalDerefOf(f *Frame) (*object.Object, error) {
	src, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	return object.ResolveChain(src, e.ctx.MaxRefDepth)
}

func (e *Engine) evalCondRefOf(f *Frame) (*object.Object, error) {
	// CondRefOf's first operand names a SuperName that may legitimately be
	// unresolved (a forward reference that has not appeared yet); unlike
	// every other SuperName site this must not fault.
	found := true
	t, err := e.evalSuperNameAllowMissing(f)
	if err != nil {
		found = false
	} else {
		defer t.release()
	}
	var result *object.Object
	if found {
		ref, rerr := refOfTarget(t)
		if rerr != nil {
			return nil, rerr
		}
		result = e.boolResult(true)
		if err := e.storeOptionalTargetValue(f, ref); err != nil {
			return nil, err
		}
	} else {
		result = e.boolResult(false)
		if err := e.storeOptionalTargetValue(f, object.New()); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// storeOptionalTargetValue stores a specific value (not re-evaluating a
// freshly computed arithmetic result) into the trailing Target operand.
func (e *Engine) storeOptionalTargetValue(f *Frame, value *object.Object) error {
	t, present, err := e.evalTarget(f)
	if err != nil {
		return err
	}
	if !present {
		return nil
	}
	defer t.release()
	return e.storeInto(t, value)
}

// evalSuperNameAllowMissing mirrors evalSuperName but resolves named paths
// with allowMissing, for CondRefOf.
func (e *Engine) evalSuperNameAllowMissing(f *Frame) (target, error) {
	if f.cursor >= f.currentEnd() {
		return target{}, uacpierr.ErrBadBytecode
	}
	b := f.bytecode[f.cursor]
	if isNameLeadByte(b) {
		path, err := f.readNameString()
		if err != nil {
			return target{}, err
		}
		node, err := e.ctx.Tree.Resolve(f.scope, path, true)
		if err != nil {
			return target{}, err
		}
		if node == nil {
			return target{}, uacpierr.ErrNotFound
		}
		return target{node: node}, nil
	}
	return e.evalSuperName(f)
}

func (e *Engine) evalCopyObject(f *Frame) (*object.Object, error) {
	src, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	t, err := e.evalSuperName(f)
	if err != nil {
		return nil, err
	}
	defer t.release()
	if err := e.copyObjectInto(t, src); err != nil {
		return nil, err
	}
	return src, nil
}

func (e *Engine) evalSizeOf(f *Frame) (*object.Object, error) {
	t, err := e.evalSuperName(f)
	if err != nil {
		return nil, err
	}
	defer t.release()
	o := t.get()
	switch o.Kind() {
	case object.KindPackage, object.KindString, object.KindBuffer:
		return object.NewInteger(uint64(o.Len())), nil
	default:
		return nil, uacpierr.Wrapf(uacpierr.ErrTypeMismatch, "SizeOf applies to Package/String/Buffer, got %s", o.Kind())
	}
}

// objectTypeCode maps an object.Kind to the ACPI ObjectType integer code.
func objectTypeCode(k object.Kind) uint64 {
	switch k {
	case object.Uninitialized:
		return 0
	case object.KindInteger:
		return 1
	case object.KindString:
		return 2
	case object.KindBuffer:
		return 3
	case object.KindPackage:
		return 4
	case object.KindFieldUnit:
		return 5
	case object.KindDevice:
		return 6
	case object.KindEvent:
		return 7
	case object.KindMethod:
		return 8
	case object.KindMutex:
		return 9
	case object.KindOperationRegion:
		return 10
	case object.KindPowerResource:
		return 11
	case object.KindProcessor:
		return 12
	case object.KindThermalZone:
		return 13
	case object.KindBufferField:
		return 14
	case object.KindReference:
		return 20
	case object.KindDebug:
		return 16
	default:
		return 0
	}
}

func (e *Engine) evalObjectType(f *Frame) (*object.Object, error) {
	t, err := e.evalSuperName(f)
	if err != nil {
		return nil, err
	}
	defer t.release()
	return object.NewInteger(objectTypeCode(t.get().Kind())), nil
}

func (e *Engine) evalIncDec(f *Frame, delta int64) (*object.Object, error) {
	t, err := e.evalSuperName(f)
	if err != nil {
		return nil, err
	}
	defer t.release()
	cur := t.get()
	if cur.Kind() == object.KindReference {
		return object.IncrementReferent(cur, delta)
	}
	v, err := object.AsInteger(cur, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	result := object.NewInteger(uint64(int64(v)+delta) & e.ctx.Revision.Mask())
	if err := e.storeInto(t, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) evalAcquire(f *Frame) (*object.Object, error) {
	t, err := e.evalSuperName(f)
	if err != nil {
		return nil, err
	}
	defer t.release()
	timeoutMs, err := f.readWord()
	if err != nil {
		return nil, err
	}
	obj := t.get()
	md, ok := obj.Mutex()
	if !ok {
		return nil, uacpierr.ErrTypeMismatch
	}
	ok2 := acquireMutex(md, e.id, timeoutMs)
	return e.boolResult(!ok2), nil // AML Acquire returns non-zero on *timeout*, zero on success
}

func (e *Engine) evalWait(f *Frame) (*object.Object, error) {
	t, err := e.evalSuperName(f)
	if err != nil {
		return nil, err
	}
	defer t.release()
	timeoutObj, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	timeoutMs, err := object.AsInteger(timeoutObj, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	obj := t.get()
	ed, ok := obj.Event()
	if !ok {
		return nil, uacpierr.ErrTypeMismatch
	}
	timedOut := !waitEvent(ed, timeoutMs)
	return e.boolResult(timedOut), nil
}
