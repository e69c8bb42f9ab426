package interp

import (
	"time"

	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/opcodes"
	"github.com/CascadeOS/uACPI/uacpierr"
)

// step executes the next unit of work in f: either closing out a block
// whose body has run to its end (If/Else/While), or decoding and
// dispatching one fresh statement. It never calls itself recursively;
// nested blocks are tracked on f.blocks, and a Load's table Frame is pushed
// onto stack for Run to drive, while a Method call or LoadTable evaluated
// here runs to completion through a nested Engine.Run (see engine.go).
func (e *Engine) step(f *Frame, stack *[]*Frame) error {
	// A pending Return/Break/Continue takes priority over an ordinary
	// block-end check: e.g. a Break as the last statement in an If body
	// must unwind to the enclosing While, not fall through to the If's
	// normal (non-looping) close.
	if f.returning || f.breaking || f.continuing {
		return e.unwindControl(f)
	}
	if n := len(f.blocks); n > 0 {
		blk := &f.blocks[n-1]
		if f.cursor >= blk.bodyEnd {
			return e.closeBlock(f)
		}
	}
	if f.cursor >= f.end {
		return nil
	}

	op, desc, err := e.peekOpcode(f)
	if err != nil {
		return err
	}

	// Load is classified alongside the other Type6 term opcodes in the
	// decode table (it shares NameString/SuperName operand shape with
	// them), but unlike them it is executed for effect, at statement
	// position, and is the one opcode that grows the frame chain (see
	// engine.go's execLoad) — so it is dispatched here directly rather
	// than through evalTermArg.
	if op == opcodes.LoadOp {
		f.cursor += opcodeWidth(op)
		return e.execLoad(f, stack)
	}

	switch desc.Class {
	case opcodes.ClassNamespaceModifier:
		return e.execNamespaceModifier(f, op, desc)
	case opcodes.ClassStatement:
		return e.execStatement(f, op, desc, stack)
	default:
		// A bare expression statement (e.g. a discarded method call or
		// Store written as `Store(5, Local0)` at statement level): evaluate
		// it and drop the result. peekOpcode did not consume op, so
		// evalTermArg re-decodes from f.cursor itself.
		_, err := e.evalTermArg(f)
		return err
	}
}

// peekOpcode decodes the opcode at f.cursor without consuming it, so the
// caller can dispatch on Class before deciding how to re-decode operands.
func (e *Engine) peekOpcode(f *Frame) (opcodes.Opcode, opcodes.Descriptor, error) {
	op, desc, _, err := opcodes.FetchOpcode(f.bytecode, f.cursor)
	return op, desc, err
}

// closeBlock runs when the innermost block's body has been fully consumed.
func (e *Engine) closeBlock(f *Frame) error {
	n := len(f.blocks)
	blk := f.blocks[n-1]
	switch blk.kind {
	case blockWhile:
		f.cursor = blk.condStart
		cond, err := e.evalTermArg(f)
		if err != nil {
			return err
		}
		v, err := object.AsInteger(cond, e.ctx.Revision)
		if err != nil {
			return err
		}
		if v == 0 {
			f.blocks = f.blocks[:n-1]
			f.cursor = blk.bodyEnd
			return nil
		}
		if e.ctx.LoopTimeout > 0 && time.Now().After(blk.loopBudget) {
			return uacpierr.Wrapf(uacpierr.ErrTimeout, "While loop exceeded its evaluation budget")
		}
		f.cursor = blk.bodyStart
		return nil
	case blockIf:
		f.blocks = f.blocks[:n-1]
		f.cursor = blk.bodyEnd
		return e.skipElseIfPresent(f)
	case blockElse, blockScope:
		f.blocks = f.blocks[:n-1]
		f.cursor = blk.bodyEnd
		if blk.kind == blockScope {
			f.scope = blk.prevScope
		}
		return nil
	}
	return nil
}

// skipElseIfPresent is called right after a taken If body closes: an
// immediately following Else must not execute, so its PkgLength-bounded
// span is skipped wholesale rather than pushed as a block.
func (e *Engine) skipElseIfPresent(f *Frame) error {
	if f.cursor >= f.currentEnd() || f.bytecode[f.cursor] != byte(opcodes.ElseOp) {
		return nil
	}
	f.cursor++
	bodyEnd, err := f.readPkgLength()
	if err != nil {
		return err
	}
	f.cursor = bodyEnd
	return nil
}

// pushElseIfPresent is called right after an If whose condition was false:
// an immediately following Else's body must run, so it is pushed as its
// own block rather than skipped.
func (e *Engine) pushElseIfPresent(f *Frame) error {
	if f.cursor >= f.currentEnd() || f.bytecode[f.cursor] != byte(opcodes.ElseOp) {
		return nil
	}
	f.cursor++
	bodyEnd, err := f.readPkgLength()
	if err != nil {
		return err
	}
	f.blocks = append(f.blocks, block{kind: blockElse, bodyStart: f.cursor, bodyEnd: bodyEnd})
	return nil
}

// unwindControl propagates a pending Return/Break/Continue out through
// enclosing blocks until it reaches the construct it targets (a While for
// Break/Continue, the frame boundary for Return).
func (e *Engine) unwindControl(f *Frame) error {
	n := len(f.blocks)
	if n == 0 {
		return nil // frame-level: atEnd() will observe returning/breaking and stop
	}
	blk := f.blocks[n-1]
	if f.returning {
		f.blocks = f.blocks[:n-1]
		if blk.kind == blockScope {
			f.scope = blk.prevScope
		}
		return nil
	}
	// Break/Continue only apply to the nearest enclosing While.
	if blk.kind == blockWhile {
		if f.breaking {
			f.breaking = false
			f.blocks = f.blocks[:n-1]
			f.cursor = blk.bodyEnd
			return nil
		}
		f.continuing = false
		f.cursor = blk.bodyEnd // the close-block handling above re-tests the condition
		return nil
	}
	f.blocks = f.blocks[:n-1]
	if blk.kind == blockScope {
		f.scope = blk.prevScope
	}
	f.cursor = blk.bodyEnd
	return nil
}

func (e *Engine) execStatement(f *Frame, op opcodes.Opcode, desc opcodes.Descriptor, stack *[]*Frame) error {
	f.cursor += opcodeWidth(op)
	switch op {
	case opcodes.IfOp:
		return e.execIf(f)
	case opcodes.ElseOp:
		// Reached only when neither pushElseIfPresent (after a false If)
		// nor closeBlock's skip logic (after a true If's body) consumed it
		// first (e.g. a
		// top-level Else with no If immediately before it in malformed
		// AML); treat it as its own block so the body still runs once.
		bodyEnd, err := f.readPkgLength()
		if err != nil {
			return err
		}
		f.blocks = append(f.blocks, block{kind: blockElse, bodyStart: f.cursor, bodyEnd: bodyEnd})
		return nil
	case opcodes.WhileOp:
		return e.execWhile(f)
	case opcodes.ReturnOp:
		v, err := e.evalTermArg(f)
		if err != nil {
			return err
		}
		f.returnValue = object.Clone(v)
		f.returning = true
		return nil
	case opcodes.BreakOp:
		f.breaking = true
		return nil
	case opcodes.ContinueOp:
		f.continuing = true
		return nil
	case opcodes.NoopOp, opcodes.BreakPointOp:
		return nil
	case opcodes.NotifyOp:
		return e.execNotify(f)
	case opcodes.StallOp, opcodes.SleepOp:
		return e.execSleep(f, op)
	case opcodes.SignalOp:
		return e.execSignal(f)
	case opcodes.ResetOp:
		return e.execReset(f)
	case opcodes.ReleaseOp:
		return e.execRelease(f)
	case opcodes.UnloadOp:
		t, err := e.evalSuperName(f)
		if err != nil {
			return err
		}
		t.release()
		return nil
	case opcodes.FatalOp:
		return e.execFatal(f)
	}
	return uacpierr.Wrapf(uacpierr.ErrBadBytecode, "unhandled statement %s", desc.Name)
}

// opcodeWidth returns how many bytes FetchOpcode consumed for op (1, or 2
// for an extended-prefix opcode); step() re-decodes with peekOpcode so the
// cursor must be advanced separately once the dispatch decision is made.
func opcodeWidth(op opcodes.Opcode) int {
	if op.IsExtended() {
		return 2
	}
	return 1
}

func (e *Engine) execIf(f *Frame) error {
	bodyEnd, err := f.readPkgLength()
	if err != nil {
		return err
	}
	cond, err := e.evalTermArg(f)
	if err != nil {
		return err
	}
	v, err := object.AsInteger(cond, e.ctx.Revision)
	if err != nil {
		return err
	}
	if v != 0 {
		f.blocks = append(f.blocks, block{kind: blockIf, bodyStart: f.cursor, bodyEnd: bodyEnd})
		return nil
	}
	f.cursor = bodyEnd
	return e.pushElseIfPresent(f)
}

func (e *Engine) execWhile(f *Frame) error {
	bodyEnd, err := f.readPkgLength()
	if err != nil {
		return err
	}
	condStart := f.cursor
	cond, err := e.evalTermArg(f)
	if err != nil {
		return err
	}
	v, err := object.AsInteger(cond, e.ctx.Revision)
	if err != nil {
		return err
	}
	if v == 0 {
		f.cursor = bodyEnd
		return nil
	}
	f.blocks = append(f.blocks, block{
		kind:       blockWhile,
		bodyStart:  f.cursor,
		bodyEnd:    bodyEnd,
		condStart:  condStart,
		loopBudget: time.Now().Add(e.ctx.LoopTimeout),
	})
	return nil
}

func (e *Engine) execNotify(f *Frame) error {
	t, err := e.evalSuperName(f)
	if err != nil {
		return err
	}
	defer t.release()
	v, err := e.evalTermArg(f)
	if err != nil {
		return err
	}
	n, err := object.AsInteger(v, e.ctx.Revision)
	if err != nil {
		return err
	}
	if e.ctx.Notifier != nil {
		e.ctx.Notifier.Notify(t.get(), n)
	}
	return nil
}

func (e *Engine) execSleep(f *Frame, op opcodes.Opcode) error {
	v, err := e.evalTermArg(f)
	if err != nil {
		return err
	}
	n, err := object.AsInteger(v, e.ctx.Revision)
	if err != nil {
		return err
	}
	if op == opcodes.StallOp {
		time.Sleep(time.Duration(n) * time.Microsecond)
	} else {
		time.Sleep(time.Duration(n) * time.Millisecond)
	}
	return nil
}

func (e *Engine) execSignal(f *Frame) error {
	t, err := e.evalSuperName(f)
	if err != nil {
		return err
	}
	defer t.release()
	ed, ok := t.get().Event()
	if !ok {
		return uacpierr.ErrTypeMismatch
	}
	ed.Signal()
	return nil
}

func (e *Engine) execReset(f *Frame) error {
	t, err := e.evalSuperName(f)
	if err != nil {
		return err
	}
	defer t.release()
	ed, ok := t.get().Event()
	if !ok {
		return uacpierr.ErrTypeMismatch
	}
	ed.Reset()
	return nil
}

func (e *Engine) execRelease(f *Frame) error {
	t, err := e.evalSuperName(f)
	if err != nil {
		return err
	}
	defer t.release()
	md, ok := t.get().Mutex()
	if !ok {
		return uacpierr.ErrTypeMismatch
	}
	md.Release(e.id)
	return nil
}

func (e *Engine) execFatal(f *Frame) error {
	typ, err := f.readByte()
	if err != nil {
		return err
	}
	code, err := f.readDWord()
	if err != nil {
		return err
	}
	argObj, err := e.evalTermArg(f)
	if err != nil {
		return err
	}
	arg, _ := object.AsInteger(argObj, e.ctx.Revision)
	return uacpierr.Wrapf(uacpierr.ErrDenied, "Fatal(type=%d, code=0x%X, arg=0x%X)", typ, code, arg)
}

// execNamespaceModifier installs a named object into the tree. Most forms
// (Device/Processor/PowerResource/ThermalZone/Scope) also open a lexical
// block so their bodies install further children under the new scope.
func (e *Engine) execNamespaceModifier(f *Frame, op opcodes.Opcode, desc opcodes.Descriptor) error {
	f.cursor += opcodeWidth(op)
	switch op {
	case opcodes.NameOp:
		return e.execName(f)
	case opcodes.AliasOp:
		return e.execAlias(f)
	case opcodes.ScopeOp:
		return e.execScopeLike(f, nil)
	case opcodes.ExternalOp:
		_, err := f.readNameString()
		if err != nil {
			return err
		}
		if _, err := f.readByte(); err != nil {
			return err
		}
		_, err = f.readByte()
		return err
	case opcodes.MethodOp:
		return e.execMethodDecl(f)
	case opcodes.MutexOp:
		return e.execMutexDecl(f)
	case opcodes.EventOp:
		return e.execSimpleNamedDecl(f, object.NewEvent())
	case opcodes.OpRegionOp:
		return e.execOpRegionDecl(f)
	case opcodes.FieldOp:
		return e.execFieldDecl(f)
	case opcodes.IndexFieldOp, opcodes.BankFieldOp, opcodes.DataRegionOp:
		return e.skipUnsupportedNamespaceModifier(f)
	case opcodes.CreateBitFieldOp, opcodes.CreateByteFieldOp, opcodes.CreateWordFieldOp,
		opcodes.CreateDWordFieldOp, opcodes.CreateQWordFieldOp, opcodes.CreateFieldOp:
		return e.execCreateField(f, op)
	case opcodes.DeviceOp:
		return e.execScopeLike(f, func() *object.Object { return object.NewDevice() })
	case opcodes.ProcessorOp:
		return e.execProcessorDecl(f)
	case opcodes.PowerResOp:
		return e.execPowerResourceDecl(f)
	case opcodes.ThermalZoneOp:
		return e.execScopeLike(f, func() *object.Object { return object.NewThermalZone() })
	}
	return uacpierr.Wrapf(uacpierr.ErrBadBytecode, "unhandled namespace modifier %s", desc.Name)
}

func (e *Engine) execName(f *Frame) error {
	path, err := f.readNameString()
	if err != nil {
		return err
	}
	val, err := e.evalTermArg(f)
	if err != nil {
		return err
	}
	return e.installUnqualified(f, path, object.Clone(val))
}

func (e *Engine) execAlias(f *Frame) error {
	targetPath, err := f.readNameString()
	if err != nil {
		return err
	}
	aliasPath, err := f.readNameString()
	if err != nil {
		return err
	}
	targetNode, err := e.ctx.Tree.Resolve(f.scope, targetPath, false)
	if err != nil {
		return err
	}
	return e.installUnqualified(f, aliasPath, targetNode.Object())
}

// installUnqualified installs obj at the (possibly dotted) path relative
// to f's current scope, creating a temporary-flagged node if the body that
// declared it is a Method (spec.md §3: nodes declared inside a method are
// unlinked no later than the method's return).
func (e *Engine) installUnqualified(f *Frame, path string, obj *object.Object) error {
	parent, leaf := namespace.SplitParent(path)
	parentNode := f.scope
	if parent != "" {
		n, err := e.ctx.Tree.Resolve(f.scope, parent, false)
		if err != nil {
			return err
		}
		parentNode = n
	}
	node, err := e.ctx.Tree.Install(parentNode, namespace.NewName(leaf), obj)
	if err != nil {
		return err
	}
	if f.method != nil {
		node.SetFlags(namespace.FlagTemporary)
		f.tempNodes = append(f.tempNodes, node)
	}
	return nil
}

func (e *Engine) execScopeLike(f *Frame, makeObj func() *object.Object) error {
	bodyEnd, err := f.readPkgLength()
	if err != nil {
		return err
	}
	path, err := f.readNameString()
	if err != nil {
		return err
	}
	var newScope *namespace.Node
	if makeObj == nil {
		n, err := e.ctx.Tree.Resolve(f.scope, path, false)
		if err != nil {
			return err
		}
		newScope = n
	} else {
		parent, leaf := namespace.SplitParent(path)
		parentNode := f.scope
		if parent != "" {
			n, err := e.ctx.Tree.Resolve(f.scope, parent, false)
			if err != nil {
				return err
			}
			parentNode = n
		}
		n, err := e.ctx.Tree.Install(parentNode, namespace.NewName(leaf), makeObj())
		if err != nil {
			return err
		}
		newScope = n
	}
	f.blocks = append(f.blocks, block{kind: blockScope, bodyStart: f.cursor, bodyEnd: bodyEnd, prevScope: f.scope})
	f.scope = newScope
	return nil
}

func (e *Engine) execProcessorDecl(f *Frame) error {
	bodyEnd, err := f.readPkgLength()
	if err != nil {
		return err
	}
	path, err := f.readNameString()
	if err != nil {
		return err
	}
	id, err := f.readByte()
	if err != nil {
		return err
	}
	pblkAddr, err := f.readDWord()
	if err != nil {
		return err
	}
	pblkLen, err := f.readByte()
	if err != nil {
		return err
	}
	parent, leaf := namespace.SplitParent(path)
	parentNode := f.scope
	if parent != "" {
		n, err := e.ctx.Tree.Resolve(f.scope, parent, false)
		if err != nil {
			return err
		}
		parentNode = n
	}
	node, err := e.ctx.Tree.Install(parentNode, namespace.NewName(leaf), object.NewProcessor(id, pblkAddr, pblkLen))
	if err != nil {
		return err
	}
	f.blocks = append(f.blocks, block{kind: blockScope, bodyStart: f.cursor, bodyEnd: bodyEnd, prevScope: f.scope})
	f.scope = node
	return nil
}

func (e *Engine) execPowerResourceDecl(f *Frame) error {
	bodyEnd, err := f.readPkgLength()
	if err != nil {
		return err
	}
	path, err := f.readNameString()
	if err != nil {
		return err
	}
	level, err := f.readByte()
	if err != nil {
		return err
	}
	order, err := f.readWord()
	if err != nil {
		return err
	}
	parent, leaf := namespace.SplitParent(path)
	parentNode := f.scope
	if parent != "" {
		n, err := e.ctx.Tree.Resolve(f.scope, parent, false)
		if err != nil {
			return err
		}
		parentNode = n
	}
	node, err := e.ctx.Tree.Install(parentNode, namespace.NewName(leaf), object.NewPowerResource(level, order))
	if err != nil {
		return err
	}
	f.blocks = append(f.blocks, block{kind: blockScope, bodyStart: f.cursor, bodyEnd: bodyEnd, prevScope: f.scope})
	f.scope = node
	return nil
}

func (e *Engine) execMethodDecl(f *Frame) error {
	bodyEnd, err := f.readPkgLength()
	if err != nil {
		return err
	}
	path, err := f.readNameString()
	if err != nil {
		return err
	}
	flags, err := f.readByte()
	if err != nil {
		return err
	}
	argCount := int(flags & 0x7)
	serialized := flags&0x8 != 0
	syncLevel := (flags >> 4) & 0xF
	body := f.bytecode[f.cursor:bodyEnd]
	f.cursor = bodyEnd
	return e.installUnqualified(f, path, object.NewMethod(body, argCount, serialized, syncLevel))
}

func (e *Engine) execMutexDecl(f *Frame) error {
	path, err := f.readNameString()
	if err != nil {
		return err
	}
	syncLevel, err := f.readByte()
	if err != nil {
		return err
	}
	return e.installUnqualified(f, path, object.NewMutex(syncLevel))
}

func (e *Engine) execSimpleNamedDecl(f *Frame, obj *object.Object) error {
	path, err := f.readNameString()
	if err != nil {
		return err
	}
	return e.installUnqualified(f, path, obj)
}

func (e *Engine) execOpRegionDecl(f *Frame) error {
	path, err := f.readNameString()
	if err != nil {
		return err
	}
	space, err := f.readByte()
	if err != nil {
		return err
	}
	offObj, err := e.evalTermArg(f)
	if err != nil {
		return err
	}
	lenObj, err := e.evalTermArg(f)
	if err != nil {
		return err
	}
	off, err := object.AsInteger(offObj, e.ctx.Revision)
	if err != nil {
		return err
	}
	ln, err := object.AsInteger(lenObj, e.ctx.Revision)
	if err != nil {
		return err
	}
	return e.installUnqualified(f, path, object.NewOpRegion(object.RegionSpace(space), off, ln))
}

func (e *Engine) execCreateField(f *Frame, op opcodes.Opcode) error {
	bufObj, err := e.evalTermArg(f)
	if err != nil {
		return err
	}
	var bitOffset, bitWidth uint64
	switch op {
	case opcodes.CreateBitFieldOp:
		v, err := e.evalTermArg(f)
		if err != nil {
			return err
		}
		bitOffset, err = object.AsInteger(v, e.ctx.Revision)
		if err != nil {
			return err
		}
		bitWidth = 1
	case opcodes.CreateByteFieldOp, opcodes.CreateWordFieldOp, opcodes.CreateDWordFieldOp, opcodes.CreateQWordFieldOp:
		v, err := e.evalTermArg(f)
		if err != nil {
			return err
		}
		byteOffset, err := object.AsInteger(v, e.ctx.Revision)
		if err != nil {
			return err
		}
		bitOffset = byteOffset * 8
		switch op {
		case opcodes.CreateByteFieldOp:
			bitWidth = 8
		case opcodes.CreateWordFieldOp:
			bitWidth = 16
		case opcodes.CreateDWordFieldOp:
			bitWidth = 32
		case opcodes.CreateQWordFieldOp:
			bitWidth = 64
		}
	case opcodes.CreateFieldOp:
		idxObj, err := e.evalTermArg(f)
		if err != nil {
			return err
		}
		bitOffset, err = object.AsInteger(idxObj, e.ctx.Revision)
		if err != nil {
			return err
		}
		widthObj, err := e.evalTermArg(f)
		if err != nil {
			return err
		}
		bitWidth, err = object.AsInteger(widthObj, e.ctx.Revision)
		if err != nil {
			return err
		}
	}
	path, err := f.readNameString()
	if err != nil {
		return err
	}
	if bufObj.Kind() != object.KindBuffer {
		return uacpierr.ErrTypeMismatch
	}
	return e.installUnqualified(f, path, object.NewBufferField(object.BufferField{
		Buffer: bufObj, BitOffset: bitOffset, BitWidth: bitWidth,
	}))
}

func (e *Engine) execFieldDecl(f *Frame) error {
	bodyEnd, err := f.readPkgLength()
	if err != nil {
		return err
	}
	regionPath, err := f.readNameString()
	if err != nil {
		return err
	}
	flags, err := f.readByte()
	if err != nil {
		return err
	}
	regionNode, err := e.ctx.Tree.Resolve(f.scope, regionPath, false)
	if err != nil {
		return err
	}
	regionObj := regionNode.Object()
	access := object.AccessType(flags & 0xF)
	lock := object.LockRule((flags >> 4) & 0x1)
	update := object.UpdateRule((flags >> 5) & 0x3)

	var bitCursor uint64
	for f.cursor < bodyEnd {
		lead, err := f.readByte()
		if err != nil {
			return err
		}
		if lead == 0x00 {
			// ReservedField: a gap in the region's bit layout, no node.
			width, err := f.readPkgLengthValue()
			if err != nil {
				return err
			}
			bitCursor += width
			continue
		}
		if lead == 0x01 {
			// AccessField: changes the declared access type/attrib for the
			// fields that follow, does not itself consume bit-width space.
			if _, err := f.readByte(); err != nil {
				return err
			}
			newFlags, err := f.readByte()
			if err != nil {
				return err
			}
			access = object.AccessType(newFlags & 0xF)
			continue
		}
		// lead plus 3 more bytes form the 4-char field name.
		if f.cursor+3 > len(f.bytecode) {
			return uacpierr.ErrBadBytecode
		}
		name := string([]byte{lead, f.bytecode[f.cursor], f.bytecode[f.cursor+1], f.bytecode[f.cursor+2]})
		f.cursor += 3
		width, err := f.readPkgLengthValue()
		if err != nil {
			return err
		}
		fu := object.FieldUnit{Region: regionObj, BitOffset: bitCursor, BitWidth: width, Access: access, Lock: lock, Update: update}
		if err := e.installUnqualified(f, name, object.NewFieldUnit(fu)); err != nil {
			return err
		}
		bitCursor += width
	}
	f.cursor = bodyEnd
	return nil
}

func (e *Engine) skipUnsupportedNamespaceModifier(f *Frame) error {
	bodyEnd, err := f.readPkgLength()
	if err != nil {
		return err
	}
	f.cursor = bodyEnd
	return nil
}
