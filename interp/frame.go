// Package interp implements the AML bytecode interpreter core (spec.md
// §4.4): an iterative driver loop over an explicit frame chain, and the
// implicit-cast/control-flow machinery that sits on top of package object
// and package namespace. Expression sub-operands are evaluated by ordinary
// Go recursion through evalTermArg (see eval.go), not on an operand stack.
//
// The driver shape is grounded on the teacher's Step/Run split
// (emu.Emulator.Step decodes-and-executes one instruction, Run loops Step
// until a StepResult carries an error or halt) — here Engine.step decodes
// and executes one AML statement, and Engine.Run loops across the whole
// frame chain until it empties.
package interp

import (
	"time"

	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/opcodes"
)

// blockKind discriminates the nested-block forms a method body can
// contain (spec.md §3 Method evaluation frame: "a scope list for nested
// blocks (While/If/Else)").
type blockKind uint8

const (
	blockIf blockKind = iota
	blockElse
	blockWhile
	// blockScope marks a Scope/Device/Processor/PowerResource/ThermalZone
	// body: entering one temporarily overrides the frame's current scope,
	// restored on pop.
	blockScope
)

// block is one entry in a Frame's lexical block stack. Blocks are pushed
// and popped on a plain Go slice local to the Frame — not through Go call
// recursion — so arbitrarily nested If/While bodies cost O(1) host stack
// regardless of AML nesting depth (spec.md §4.4, §8's stack high-water
// mark property).
type block struct {
	kind       blockKind
	bodyStart  int
	bodyEnd    int
	condStart  int          // While: where the loop condition TermArg starts, for re-test
	loopBudget time.Time    // While: deadline (spec.md §4.4 loop timeout)
	prevScope  *namespace.Node // blockScope: the scope to restore on pop
}

// Frame is one method invocation's evaluation state (spec.md §3 "Method
// evaluation frame"). Frames are heap-allocated and linked via caller. A
// Load pushes its table's Frame onto the stack Engine.Run iterates, so Load
// nesting costs O(1) additional host stack; a nested method call or a
// LoadTable runs its Frame through a nested Engine.Run call on the Go stack
// (see Run).
type Frame struct {
	method *object.MethodData
	node   *namespace.Node // the node this method was invoked through, for path/diagnostics
	scope  *namespace.Node // current namespace scope for unqualified name installs

	bytecode []byte
	cursor   int
	end      int

	locals [7]object.Slot
	args   [7]object.Slot

	blocks []block

	tempNodes []*namespace.Node // nodes declared in this frame's body, unlinked on pop

	returnValue *object.Object
	returning   bool
	breaking    bool
	continuing  bool

	caller *Frame

	// sharedChainPush is true for a Frame pushed by Load's top-level
	// execution: it shares the caller's position in the chain rather than
	// being a "real" nested call (spec.md §4.4), which keeps Load nesting at
	// O(1) host stack. LoadTable does not set it: it runs its table through
	// ExecuteTopLevel.
	sharedChainPush bool
}

// newFrame allocates a detached frame ready to execute bytecode from
// offset 0 to len(bytecode).
func newFrame(bytecode []byte, scope *namespace.Node, caller *Frame) *Frame {
	return &Frame{
		bytecode: bytecode,
		end:      len(bytecode),
		scope:    scope,
		caller:   caller,
	}
}

// releaseSlots releases every Local/Arg object this frame still owns.
func (f *Frame) releaseSlots() {
	for i := range f.locals {
		if f.locals[i].Obj != nil {
			f.locals[i].Obj.Release()
			f.locals[i].Obj = nil
		}
	}
	for i := range f.args {
		if f.args[i].Obj != nil {
			f.args[i].Obj.Release()
			f.args[i].Obj = nil
		}
	}
}

// atEnd reports whether the frame has no more top-level statements to run
// and is not itself in the middle of an active block whose body has more
// to run.
func (f *Frame) atEnd() bool {
	if len(f.blocks) > 0 {
		return false
	}
	return f.cursor >= f.end || f.returning || f.breaking || f.continuing
}

// currentEnd returns the cursor bound governing the next fetch: either the
// innermost active block's body end, or the frame's own end.
func (f *Frame) currentEnd() int {
	if n := len(f.blocks); n > 0 {
		return f.blocks[n-1].bodyEnd
	}
	return f.end
}

// slotFor returns the Slot for a Local or Arg opcode.
func (f *Frame) slotFor(op opcodes.Opcode) (*object.Slot, bool) {
	if i, ok := opcodes.IsLocal(op); ok {
		return &f.locals[i], true
	}
	if i, ok := opcodes.IsArg(op); ok {
		return &f.args[i], true
	}
	return nil, false
}
