package interp

import (
	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/opcodes"
	"github.com/CascadeOS/uACPI/uacpierr"
)

// isNameLeadByte reports whether b can start an AML NameString, so the
// evaluator can tell "a bare named reference or method call" apart from a
// table-driven opcode before calling opcodes.FetchOpcode (which rejects
// NameString lead bytes as unknown opcodes by design).
func isNameLeadByte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b == '_':
		return true
	case b == byte(opcodes.RootChar), b == byte(opcodes.ParentPrefixChar):
		return true
	case b == byte(opcodes.DualNamePrefix), b == byte(opcodes.MultiNamePrefix):
		return true
	}
	return false
}

// evalTermArg decodes and evaluates one expression at f's cursor, advancing
// the cursor past it, and returns a *borrowed* result: the caller must
// Retain it before storing it anywhere that outlives the immediate
// expression (a Local/Arg slot, a Package element, a named node), the same
// convention the object package's own Target.Get() accessors use.
//
// Sub-expression operands (the TermArg arguments of arithmetic, logical,
// and reference opcodes) are evaluated via ordinary Go calls back into
// evalTermArg rather than an explicit operand stack. AML expression
// nesting is shallow in practice (unlike Load nesting depth, which this
// package chains through Engine.Run's explicit frame stack rather than the
// Go stack — see engine.go, which also documents the Method call and
// LoadTable recursion), so this bounded recursion is an accepted
// simplification, not the non-recursion spec.md §4.4 requires of
// control-flow and call depth.
func (e *Engine) evalTermArg(f *Frame) (*object.Object, error) {
	if f.cursor >= f.currentEnd() {
		return nil, uacpierr.ErrBadBytecode
	}
	b := f.bytecode[f.cursor]
	if b != byte(opcodes.ExtOpPrefixByteOp) && isNameLeadByte(b) {
		return e.evalNamedReferenceOrCall(f)
	}

	op, desc, n, err := opcodes.FetchOpcode(f.bytecode, f.cursor)
	if err != nil {
		return nil, err
	}
	f.cursor += n

	switch op {
	case opcodes.ZeroOp:
		return object.NewInteger(0), nil
	case opcodes.OneOp:
		return object.NewInteger(1), nil
	case opcodes.OnesOp:
		return object.NewInteger(e.ctx.Revision.Mask()), nil
	case opcodes.RevisionOp:
		return object.NewInteger(uint64(e.ctx.Revision)), nil
	case opcodes.TimerOp:
		return object.NewInteger(0), nil
	case opcodes.BytePrefix:
		v, err := f.readByte()
		if err != nil {
			return nil, err
		}
		return object.NewInteger(uint64(v)), nil
	case opcodes.WordPrefix:
		v, err := f.readWord()
		if err != nil {
			return nil, err
		}
		return object.NewInteger(uint64(v)), nil
	case opcodes.DWordPrefix:
		v, err := f.readDWord()
		if err != nil {
			return nil, err
		}
		return object.NewInteger(uint64(v)), nil
	case opcodes.QWordPrefix:
		v, err := f.readQWord()
		if err != nil {
			return nil, err
		}
		return object.NewInteger(v), nil
	case opcodes.StringPrefixOp:
		s, err := f.readAMLString()
		if err != nil {
			return nil, err
		}
		return object.NewString(s), nil
	case opcodes.DebugOp:
		return object.NewDebug(), nil
	case opcodes.BufferOp:
		return e.evalBuffer(f)
	case opcodes.PackageOp, opcodes.VarPackageOp:
		return e.evalPackage(f, op)
	}

	if i, ok := opcodes.IsLocal(op); ok {
		return orUninitialized(f.locals[i].Obj), nil
	}
	if i, ok := opcodes.IsArg(op); ok {
		return orUninitialized(f.args[i].Obj), nil
	}

	if isArithmeticOrReference(op) {
		return e.evalOperator(f, op, desc)
	}

	return nil, uacpierr.Wrapf(uacpierr.ErrBadBytecode, "opcode %s is not a TermArg", desc.Name)
}

// orUninitialized lets a nil Slot/Node object read as an Uninitialized
// object instead of the caller having to nil-check; Locals/Args/forward
// declared nodes start out empty.
func orUninitialized(o *object.Object) *object.Object {
	if o == nil {
		return object.New()
	}
	return o
}

func (e *Engine) evalNamedReferenceOrCall(f *Frame) (*object.Object, error) {
	path, err := f.readNameString()
	if err != nil {
		return nil, err
	}
	node, err := e.ctx.Tree.Resolve(f.scope, path, false)
	if err != nil {
		return nil, err
	}
	obj := node.Object()
	if obj == nil {
		return object.New(), nil
	}
	switch obj.Kind() {
	case object.KindMethod:
		return e.callMethodByNode(f, node, obj)
	case object.KindFieldUnit:
		fu, _ := obj.FieldUnit()
		return e.readFieldUnit(fu)
	case object.KindBufferField:
		bf, _ := obj.BufferField()
		return object.NewInteger(object.ReadBufferField(bf)), nil
	}
	return obj, nil
}

// callMethodByNode decodes the call's actual argument TermArgs (as many as
// the resolved method declares) and invokes it.
func (e *Engine) callMethodByNode(f *Frame, node *namespace.Node, methodObj *object.Object) (*object.Object, error) {
	md, _ := methodObj.Method()
	args := make([]*object.Object, md.ArgCount)
	for i := 0; i < md.ArgCount; i++ {
		v, err := e.evalTermArg(f)
		if err != nil {
			return nil, err
		}
		args[i] = object.Clone(v)
	}
	return e.callMethod(f, node, md, args)
}

func isArithmeticOrReference(op opcodes.Opcode) bool {
	switch op {
	case opcodes.StoreOp,
		opcodes.AddOp, opcodes.SubtractOp, opcodes.MultiplyOp, opcodes.DivideOp,
		opcodes.ShiftLeftOp, opcodes.ShiftRightOp, opcodes.AndOp, opcodes.NAndOp,
		opcodes.OrOp, opcodes.NOrOp, opcodes.XOrOp, opcodes.ModOp,
		opcodes.ConcatOp, opcodes.ConcatResOp,
		opcodes.NotOp, opcodes.FindSetLeftBitOp, opcodes.FindSetRightBitOp,
		opcodes.ToBufferOp, opcodes.ToDecimalStringOp, opcodes.ToHexStringOp,
		opcodes.ToIntegerOp, opcodes.ToStringOp, opcodes.MidOp, opcodes.MatchOp,
		opcodes.FromBCDOp, opcodes.ToBCDOp,
		opcodes.LAndOp, opcodes.LOrOp, opcodes.LNotOp, opcodes.LEqualOp,
		opcodes.LGreaterOp, opcodes.LLessOp,
		opcodes.RefOfOp, opcodes.DerefOfOp, opcodes.CondRefOfOp, opcodes.IndexOp,
		opcodes.CopyObjectOp, opcodes.SizeOfOp, opcodes.ObjectTypeOp,
		opcodes.IncrementOp, opcodes.DecrementOp,
		opcodes.AcquireOp, opcodes.WaitOp, opcodes.LoadTableOp:
		return true
	}
	return false
}

func (e *Engine) evalBuffer(f *Frame) (*object.Object, error) {
	bodyEnd, err := f.readPkgLength()
	if err != nil {
		return nil, err
	}
	sizeObj, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	size, err := object.AsInteger(sizeObj, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	raw := f.bytecode[f.cursor:bodyEnd]
	f.cursor = bodyEnd
	buf := make([]byte, size)
	copy(buf, raw)
	return object.NewBuffer(buf), nil
}

func (e *Engine) evalPackage(f *Frame, op opcodes.Opcode) (*object.Object, error) {
	bodyEnd, err := f.readPkgLength()
	if err != nil {
		return nil, err
	}
	var declared uint64
	if op == opcodes.PackageOp {
		b, err := f.readByte()
		if err != nil {
			return nil, err
		}
		declared = uint64(b)
	} else {
		sizeObj, err := e.evalTermArg(f)
		if err != nil {
			return nil, err
		}
		declared, err = object.AsInteger(sizeObj, e.ctx.Revision)
		if err != nil {
			return nil, err
		}
	}
	var elems []*object.Object
	for f.cursor < bodyEnd {
		v, err := e.evalTermArg(f)
		if err != nil {
			return nil, err
		}
		elems = append(elems, object.Clone(v))
	}
	for uint64(len(elems)) < declared {
		elems = append(elems, object.New())
	}
	pkg := object.NewPackage(elems)
	for _, el := range elems {
		el.Release() // NewPackage retained its own count on each element
	}
	return pkg, nil
}
