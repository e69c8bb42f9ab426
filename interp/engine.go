package interp

import (
	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/uacpierr"
)

// sdtHeaderLen is the fixed size of an ACPI System Description Table
// header (signature, length, revision, checksum, OEM fields, creator
// fields) that precedes a loaded table's AML, the same constant the
// teacher's loader.SDTHeader parses field-by-field. Load/LoadTable receive
// a whole table image and must skip the header before treating the rest as
// executable AML.
const sdtHeaderLen = 36

// Run drives top to completion, iteratively. A statement executed by top
// (or by any Frame later chained onto the same stack by Load — see
// Frame.sharedChainPush) is dispatched through step, which never calls
// itself recursively: nested If/While/Scope bodies live on a Frame's own
// block stack, and nested Load depth lives on the stack slice Run manages
// right here, so both cost O(1) additional host stack regardless of how
// deeply the AML nests (spec.md §4.4).
//
// Method invocation and LoadTable are the two call-depth paths that recurse
// through the Go stack: callMethod calls back into Run, and evalLoadTable
// runs its table through ExecuteTopLevel, which calls Run.
// A Method call, unlike Load, must produce its return value synchronously
// at the point evalTermArg evaluated it — turning that into an iterative
// resumption would mean rebuilding TermArg evaluation itself as an
// explicit-stack machine, the same tradeoff eval.go's evalTermArg doc
// comment already accepts for arithmetic sub-expression nesting. Load's
// loaded table never needs a value back at its call site, which is exactly
// what lets it avoid the recursive path.
func (e *Engine) Run(top *Frame) (*object.Object, error) {
	stack := []*Frame{top}
	var result *object.Object

	for len(stack) > 0 {
		cur := stack[len(stack)-1]

		if cur.atEnd() {
			stack = stack[:len(stack)-1]
			if cur == top && cur.returning {
				result = cur.returnValue
			}
			e.finishFrame(cur)
			continue
		}

		if err := e.step(cur, &stack); err != nil {
			for _, fr := range stack {
				e.finishFrame(fr)
			}
			return nil, err
		}
	}
	return result, nil
}

// InvokeMethod runs the Method object installed at node with args already
// evaluated, returning its Return value (or an Uninitialized object if the
// body never executed a Return). This is package interp's public entry
// point for control-method evaluation: a device's _STA/_INI, a GPE
// handler's _Lxx/_Exx, a Notify-driven _Qxx, or any host-initiated
// evaluation the way package uacpi's facade drives one.
func (e *Engine) InvokeMethod(node *namespace.Node, args []*object.Object) (*object.Object, error) {
	obj := node.Object()
	if obj == nil {
		return nil, uacpierr.ErrNotFound
	}
	md, ok := obj.Method()
	if !ok {
		return nil, uacpierr.ErrTypeMismatch
	}
	return e.callMethod(nil, node, md, args)
}

// ExecuteTopLevel runs bytecode as a top-level term list rooted at scope —
// a table's body once its SDT header has been stripped, the way package
// loader drives DSDT/SSDT initialization, or a Load/LoadTable target's own
// top-level AML (see evalLoadTable).
func (e *Engine) ExecuteTopLevel(bytecode []byte, scope *namespace.Node) error {
	f := newFrame(bytecode, scope, nil)
	_, err := e.Run(f)
	return err
}

// finishFrame releases whatever a frame that is done executing (whether it
// ran to completion or is being abandoned on error) still owns: its
// Local/Arg slots, and any nodes its body installed directly into the
// namespace without a dotted path (spec.md §3: names a method body declares
// are unlinked no later than the method's return, tracked via
// Frame.tempNodes and namespace.FlagTemporary).
func (e *Engine) finishFrame(f *Frame) {
	for _, n := range f.tempNodes {
		e.ctx.Tree.RemoveSubtree(n)
	}
	f.tempNodes = nil
	f.releaseSlots()
}

// callMethod invokes md (installed at node) with args already bound to its
// declared ArgCount, blocking the calling goroutine until the method
// returns or faults (see the non-recursion tradeoff documented on Run).
// callMethod takes ownership of every element of args, releasing any that
// don't fit the method's declared ArgCount.
func (e *Engine) callMethod(caller *Frame, node *namespace.Node, md *object.MethodData, args []*object.Object) (*object.Object, error) {
	if md.Serialized {
		md.Acquire(e.id)
		defer md.Release(e.id)
	}

	f := newFrame(md.Bytecode, node, caller)
	f.method = md
	f.node = node
	for i, a := range args {
		if i >= md.ArgCount || i >= len(f.args) {
			a.Release()
			continue
		}
		f.args[i].Obj = a
	}

	result, err := e.Run(f)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return object.New(), nil
	}
	return result, nil
}

// execLoad implements Load(NameString, Target): the operand names an
// already-resolved object (typically an OperationRegion-backed Field or a
// plain Buffer) holding a raw table image. Its top-level AML is pushed onto
// the same explicit stack Run is already iterating rather than driven via a
// nested call — the mechanism spec.md §4.4's deep-Load-nesting stress
// scenario exercises.
func (e *Engine) execLoad(f *Frame, stack *[]*Frame) error {
	path, err := f.readNameString()
	if err != nil {
		return err
	}
	node, err := e.ctx.Tree.Resolve(f.scope, path, false)
	if err != nil {
		return err
	}
	raw, err := object.AsBuffer(orUninitialized(node.Object()), e.ctx.Revision)
	if err != nil {
		return err
	}
	body := raw
	if len(body) >= sdtHeaderLen {
		body = body[sdtHeaderLen:]
	}

	handle := object.NewInteger(uint64(len(*stack)))
	if err := e.storeOptionalTargetValue(f, handle); err != nil {
		return err
	}

	loaded := newFrame(body, e.ctx.Tree.Root(), f)
	loaded.sharedChainPush = true
	*stack = append(*stack, loaded)
	return nil
}

// evalLoadTable implements LoadTable's six-operand form: it locates a
// dynamically loadable table by signature/OEMID/OEMTableID through the
// host-supplied TableFinder, executes its top-level AML, and returns a
// DDBHandle (spec.md §4 dynamic table loading). Unlike Load, a nested call
// back into Run is unavoidable here: LoadTable is a TermArg, so its
// DDBHandle result must be available synchronously to whatever expression
// invoked it, the same recursion tradeoff callMethod accepts.
func (e *Engine) evalLoadTable(f *Frame) (*object.Object, error) {
	sig, err := e.evalStringArg(f)
	if err != nil {
		return nil, err
	}
	oemID, err := e.evalStringArg(f)
	if err != nil {
		return nil, err
	}
	oemTableID, err := e.evalStringArg(f)
	if err != nil {
		return nil, err
	}
	rootPath, err := e.evalStringArg(f)
	if err != nil {
		return nil, err
	}
	paramPath, err := e.evalStringArg(f)
	if err != nil {
		return nil, err
	}
	paramData, err := e.evalTermArg(f)
	if err != nil {
		return nil, err
	}

	if e.ctx.Tables == nil {
		return object.NewInteger(0), nil
	}
	raw, ok := e.ctx.Tables.FindTable(sig, oemID, oemTableID)
	if !ok {
		return object.NewInteger(0), nil
	}
	body := raw
	if len(body) >= sdtHeaderLen {
		body = body[sdtHeaderLen:]
	}

	scope := e.ctx.Tree.Root()
	if rootPath != "" {
		if n, err := e.ctx.Tree.Resolve(f.scope, rootPath, false); err == nil {
			scope = n
		}
	}
	if paramPath != "" {
		if n, err := e.ctx.Tree.Resolve(scope, paramPath, true); err == nil && n != nil {
			n.SetObject(object.Clone(paramData))
		}
	}

	if err := e.ExecuteTopLevel(body, scope); err != nil {
		return nil, err
	}
	return object.NewInteger(1), nil
}

// evalStringArg evaluates a TermArg expected to coerce to a string, the
// shape LoadTable's signature/OEMID/OEMTableID/path operands all share.
func (e *Engine) evalStringArg(f *Frame) (string, error) {
	v, err := e.evalTermArg(f)
	if err != nil {
		return "", err
	}
	return object.AsString(v, e.ctx.Revision)
}
