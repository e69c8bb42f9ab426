package interp

import (
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/opcodes"
	"github.com/CascadeOS/uACPI/uacpierr"
)

// evalOperator evaluates one of the arithmetic, logical, conversion, or
// reference-producing opcodes. desc.Operands tells it how many TermArg
// operands precede an optional Target.
func (e *Engine) evalOperator(f *Frame, op opcodes.Opcode, desc opcodes.Descriptor) (*object.Object, error) {
	switch op {
	case opcodes.StoreOp:
		return e.evalStore(f)
	case opcodes.AddOp, opcodes.SubtractOp, opcodes.MultiplyOp,
		opcodes.ShiftLeftOp, opcodes.ShiftRightOp, opcodes.AndOp, opcodes.NAndOp,
		opcodes.OrOp, opcodes.NOrOp, opcodes.XOrOp, opcodes.ModOp:
		return e.evalBinaryArith(f, op)
	case opcodes.DivideOp:
		return e.evalDivide(f)
	case opcodes.NotOp, opcodes.FindSetLeftBitOp, opcodes.FindSetRightBitOp:
		return e.evalUnaryArith(f, op)
	case opcodes.ConcatOp:
		return e.evalConcat(f)
	case opcodes.ConcatResOp:
		return e.evalConcat(f) // approximate: byte-buffer concatenation, no resource-descriptor trailer merge
	case opcodes.ToIntegerOp:
		return e.evalUnaryConvert(f, func(o *object.Object) (*object.Object, error) {
			v, err := object.AsInteger(o, e.ctx.Revision)
			return object.NewInteger(v), err
		})
	case opcodes.ToBufferOp:
		return e.evalUnaryConvert(f, func(o *object.Object) (*object.Object, error) {
			b, err := object.AsBuffer(o, e.ctx.Revision)
			return object.NewBuffer(b), err
		})
	case opcodes.ToHexStringOp, opcodes.ToDecimalStringOp:
		return e.evalUnaryConvert(f, func(o *object.Object) (*object.Object, error) {
			s, err := object.AsString(o, e.ctx.Revision)
			return object.NewString(s), err
		})
	case opcodes.FromBCDOp:
		return e.evalUnaryConvert(f, func(o *object.Object) (*object.Object, error) {
			v, err := object.AsInteger(o, e.ctx.Revision)
			if err != nil {
				return nil, err
			}
			return object.NewInteger(fromBCD(v)), nil
		})
	case opcodes.ToBCDOp:
		return e.evalUnaryConvert(f, func(o *object.Object) (*object.Object, error) {
			v, err := object.AsInteger(o, e.ctx.Revision)
			if err != nil {
				return nil, err
			}
			return object.NewInteger(toBCD(v)), nil
		})
	case opcodes.ToStringOp:
		return e.evalToString(f)
	case opcodes.MidOp:
		return e.evalMid(f)
	case opcodes.MatchOp:
		return e.evalMatch(f)
	case opcodes.LAndOp:
		return e.evalLogicalBinary(f, func(a, b uint64) bool { return a != 0 && b != 0 })
	case opcodes.LOrOp:
		return e.evalLogicalBinary(f, func(a, b uint64) bool { return a != 0 || b != 0 })
	case opcodes.LEqualOp:
		return e.evalLogicalBinary(f, func(a, b uint64) bool { return a == b })
	case opcodes.LGreaterOp:
		return e.evalLogicalBinary(f, func(a, b uint64) bool { return a > b })
	case opcodes.LLessOp:
		return e.evalLogicalBinary(f, func(a, b uint64) bool { return a < b })
	case opcodes.LNotOp:
		v, err := e.evalTermArg(f)
		if err != nil {
			return nil, err
		}
		n, err := object.AsInteger(v, e.ctx.Revision)
		if err != nil {
			return nil, err
		}
		return e.boolResult(n == 0), nil
	case opcodes.RefOfOp:
		return e.evalRefOf(f)
	case opcodes.DerefOfOp:
		return e.evalDerefOf(f)
	case opcodes.CondRefOfOp:
		return e.evalCondRefOf(f)
	case opcodes.IndexOp:
		return e.evalIndexTerm(f)
	case opcodes.CopyObjectOp:
		return e.evalCopyObject(f)
	case opcodes.SizeOfOp:
		return e.evalSizeOf(f)
	case opcodes.ObjectTypeOp:
		return e.evalObjectType(f)
	case opcodes.IncrementOp:
		return e.evalIncDec(f, 1)
	case opcodes.DecrementOp:
		return e.evalIncDec(f, -1)
	case opcodes.AcquireOp:
		return e.evalAcquire(f)
	case opcodes.WaitOp:
		return e.evalWait(f)
	case opcodes.LoadTableOp:
		return e.evalLoadTable(f)
	}
	return nil, uacpierr.Wrapf(uacpierr.ErrBadBytecode, "unhandled operator %s", desc.Name)
}

func (e *Engine) evalBinaryArith(f *Frame, op opcodes.Opcode) (*object.Object, error) {
	av, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	a, err := object.AsInteger(av, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	bv, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	b, err := object.AsInteger(bv, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	var r uint64
	switch op {
	case opcodes.AddOp:
		r = a + b
	case opcodes.SubtractOp:
		r = a - b
	case opcodes.MultiplyOp:
		r = a * b
	case opcodes.ShiftLeftOp:
		r = a << (b & 63)
	case opcodes.ShiftRightOp:
		r = a >> (b & 63)
	case opcodes.AndOp:
		r = a & b
	case opcodes.NAndOp:
		r = ^(a & b)
	case opcodes.OrOp:
		r = a | b
	case opcodes.NOrOp:
		r = ^(a | b)
	case opcodes.XOrOp:
		r = a ^ b
	case opcodes.ModOp:
		if b == 0 {
			return nil, uacpierr.Wrapf(uacpierr.ErrBadOperand, "Mod by zero")
		}
		r = a % b
	}
	r &= e.ctx.Revision.Mask()
	result := object.NewInteger(r)
	if err := e.storeOptionalTarget(f, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) evalDivide(f *Frame) (*object.Object, error) {
	av, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	a, err := object.AsInteger(av, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	bv, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	b, err := object.AsInteger(bv, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	if b == 0 {
		return nil, uacpierr.Wrapf(uacpierr.ErrBadOperand, "Divide by zero")
	}
	remainder := object.NewInteger((a % b) & e.ctx.Revision.Mask())
	quotient := object.NewInteger((a / b) & e.ctx.Revision.Mask())
	if err := e.storeOptionalTarget(f, remainder); err != nil {
		return nil, err
	}
	if err := e.storeOptionalTarget(f, quotient); err != nil {
		return nil, err
	}
	return quotient, nil
}

func (e *Engine) evalUnaryArith(f *Frame, op opcodes.Opcode) (*object.Object, error) {
	av, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	a, err := object.AsInteger(av, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	var r uint64
	switch op {
	case opcodes.NotOp:
		r = ^a & e.ctx.Revision.Mask()
	case opcodes.FindSetLeftBitOp:
		r = uint64(findSetLeftBit(a, e.ctx.Revision))
	case opcodes.FindSetRightBitOp:
		r = uint64(findSetRightBit(a))
	}
	result := object.NewInteger(r)
	if err := e.storeOptionalTarget(f, result); err != nil {
		return nil, err
	}
	return result, nil
}

func findSetLeftBit(v uint64, rev object.Revision) int {
	width := 64
	if rev == object.Revision1 {
		width = 32
	}
	for i := width - 1; i >= 0; i-- {
		if v&(1<<uint(i)) != 0 {
			return i + 1
		}
	}
	return 0
}

func findSetRightBit(v uint64) int {
	if v == 0 {
		return 0
	}
	for i := 0; i < 64; i++ {
		if v&(1<<uint(i)) != 0 {
			return i + 1
		}
	}
	return 0
}

func (e *Engine) evalUnaryConvert(f *Frame, conv func(*object.Object) (*object.Object, error)) (*object.Object, error) {
	src, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	result, err := conv(src)
	if err != nil {
		return nil, err
	}
	if err := e.storeOptionalTarget(f, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) evalToString(f *Frame) (*object.Object, error) {
	src, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	lenObj, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	maxLen, err := object.AsInteger(lenObj, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	b, err := object.AsBuffer(src, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	end := 0
	for end < len(b) && b[end] != 0 && (maxLen == ^uint64(0) || uint64(end) < maxLen) {
		end++
	}
	result := object.NewString(string(b[:end]))
	if err := e.storeOptionalTarget(f, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) evalMid(f *Frame) (*object.Object, error) {
	src, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	idxObj, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	lenObj, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	idx, err := object.AsInteger(idxObj, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	n, err := object.AsInteger(lenObj, e.ctx.Revision)
	if err != nil {
		return nil, err
	}

	var result *object.Object
	if src.Kind() == object.KindString {
		s, _ := src.String()
		result = object.NewString(slice(s, idx, n))
	} else {
		b, err := object.AsBuffer(src, e.ctx.Revision)
		if err != nil {
			return nil, err
		}
		result = object.NewBuffer([]byte(slice(string(b), idx, n)))
	}
	if err := e.storeOptionalTarget(f, result); err != nil {
		return nil, err
	}
	return result, nil
}

func slice(s string, start, n uint64) string {
	if start >= uint64(len(s)) {
		return ""
	}
	end := start + n
	if end > uint64(len(s)) {
		end = uint64(len(s))
	}
	return s[start:end]
}

func (e *Engine) evalConcat(f *Frame) (*object.Object, error) {
	av, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	bv, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	var result *object.Object
	if av.Kind() == object.KindString || bv.Kind() == object.KindString {
		as, err := object.AsString(av, e.ctx.Revision)
		if err != nil {
			return nil, err
		}
		bs, err := object.AsString(bv, e.ctx.Revision)
		if err != nil {
			return nil, err
		}
		result = object.NewString(as + bs)
	} else {
		ab, err := object.AsBuffer(av, e.ctx.Revision)
		if err != nil {
			return nil, err
		}
		bb, err := object.AsBuffer(bv, e.ctx.Revision)
		if err != nil {
			return nil, err
		}
		result = object.NewBuffer(append(append([]byte{}, ab...), bb...))
	}
	if err := e.storeOptionalTarget(f, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AML MatchOp comparators.
const (
	matchTrue = iota
	matchEq
	matchLE
	matchLT
	matchGE
	matchGT
)

func matchCompare(op uint64, a, b uint64) bool {
	switch op {
	case matchTrue:
		return true
	case matchEq:
		return a == b
	case matchLE:
		return a <= b
	case matchLT:
		return a < b
	case matchGE:
		return a >= b
	case matchGT:
		return a > b
	}
	return false
}

func (e *Engine) evalMatch(f *Frame) (*object.Object, error) {
	pkgObj, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	op1, err := f.readByte()
	if err != nil {
		return nil, err
	}
	v1Obj, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	op2, err := f.readByte()
	if err != nil {
		return nil, err
	}
	v2Obj, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	startObj, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	v1, err := object.AsInteger(v1Obj, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	v2, err := object.AsInteger(v2Obj, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	start, err := object.AsInteger(startObj, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	elems, ok := pkgObj.Package()
	if !ok {
		return nil, uacpierr.ErrTypeMismatch
	}
	for i := int(start); i < len(elems); i++ {
		n, err := object.AsInteger(elems[i], e.ctx.Revision)
		if err != nil {
			continue
		}
		if matchCompare(uint64(op1), n, v1) && matchCompare(uint64(op2), n, v2) {
			return object.NewInteger(uint64(i)), nil
		}
	}
	return object.NewInteger(e.ctx.Revision.Mask()), nil
}

func (e *Engine) evalLogicalBinary(f *Frame, cmp func(a, b uint64) bool) (*object.Object, error) {
	av, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	bv, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}
	a, err := object.AsInteger(av, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	b, err := object.AsInteger(bv, e.ctx.Revision)
	if err != nil {
		return nil, err
	}
	return e.boolResult(cmp(a, b)), nil
}

// boolResult renders an AML boolean: Ones (all bits set) for true, Zero
// for false.
func (e *Engine) boolResult(v bool) *object.Object {
	if v {
		return object.NewInteger(e.ctx.Revision.Mask())
	}
	return object.NewInteger(0)
}

// storeOptionalTarget decodes the trailing Target operand AML always
// encodes for these opcodes (either a real SuperName or the NullName byte
// meaning "discard"), storing result into it when present.
func (e *Engine) storeOptionalTarget(f *Frame, result *object.Object) error {
	t, present, err := e.evalTarget(f)
	if err != nil {
		return err
	}
	if !present {
		return nil
	}
	defer t.release()
	return e.storeInto(t, result)
}

func fromBCD(v uint64) uint64 {
	var r uint64
	shift := uint(0)
	for v > 0 {
		digit := v & 0xF
		r += digit * pow10(shift)
		v >>= 4
		shift++
	}
	return r
}

func toBCD(v uint64) uint64 {
	var r uint64
	shift := uint(0)
	for v > 0 {
		digit := v % 10
		r |= digit << (4 * shift)
		v /= 10
		shift++
	}
	return r
}

func pow10(n uint) uint64 {
	r := uint64(1)
	for i := uint(0); i < n; i++ {
		r *= 10
	}
	return r
}
