// Package event implements the GPE, fixed-event, and Notify subsystems
// spec.md §4.6 describes: GPE blocks with a per-GPE state machine, fixed
// events, implicit/client Notify, and bounded concurrent GPE dispatch.
package event

import (
	"fmt"
	"sync"

	"github.com/rs/xid"

	"github.com/CascadeOS/uACPI/interp"
	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
)

// State is a GPE's current position in spec.md §4.6's state machine:
// "Disabled → Enabled-at-runtime, Enabled-for-wake, or Masked."
type State uint8

const (
	Disabled State = iota
	EnabledRuntime
	EnabledWake
	Masked
)

// Trigger selects edge- vs level-triggered re-arm behavior on dispatch
// completion ("edge-triggered GPEs are always re-enabled on completion,
// level-triggered are re-enabled only on explicit request").
type Trigger uint8

const (
	Edge Trigger = iota
	Level
)

// Disposition is a GPE handler's verdict on whether its GPE should be
// re-armed once dispatch completes.
type Disposition uint8

const (
	Rearm Disposition = iota
	LeaveDisabled
)

// Handler is a native (non-AML) GPE callback, registered per (block, index)
// the way a host driver claims a hardware interrupt line.
type Handler func(block *Block, index int) Disposition

// GPE is one general-purpose event line's live state.
type GPE struct {
	mu      sync.Mutex
	state   State
	trigger Trigger
	native  Handler
	hasAML  bool // an _Lxx/_Exx method exists for this index
}

// Block is a GPE block (ACPI hardware- or GPIO-backed, spec.md §4.6); Index
// identifies it among multiple installed blocks (e.g. GPE0 and GPE1).
type Block struct {
	Index int
	scope *namespace.Node // the \_GPE-equivalent scope _Lxx/_Exx methods live under
	gpes  []*GPE
}

// NewBlock allocates a Block of n GPEs, all initially Disabled/Edge, scoped
// to look up AML handler methods under scope.
func NewBlock(index int, scope *namespace.Node, n int) *Block {
	b := &Block{Index: index, scope: scope, gpes: make([]*GPE, n)}
	for i := range b.gpes {
		b.gpes[i] = &GPE{}
	}
	return b
}

// Count returns the number of GPEs in the block.
func (b *Block) Count() int { return len(b.gpes) }

func (b *Block) gpe(index int) (*GPE, error) {
	if index < 0 || index >= len(b.gpes) {
		return nil, fmt.Errorf("gpe index %d out of range for block %d (%d GPEs)", index, b.Index, len(b.gpes))
	}
	return b.gpes[index], nil
}

// SetState transitions a GPE's state (spec.md §4.6's Disabled/
// Enabled-at-runtime/Enabled-for-wake/Masked machine).
func (b *Block) SetState(index int, s State) error {
	g, err := b.gpe(index)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
	return nil
}

// State returns a GPE's current state.
func (b *Block) State(index int) (State, error) {
	g, err := b.gpe(index)
	if err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, nil
}

// SetTrigger sets a GPE's edge/level mode.
func (b *Block) SetTrigger(index int, t Trigger) error {
	g, err := b.gpe(index)
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.trigger = t
	g.mu.Unlock()
	return nil
}

// installedHandler is a native GPE handler registration, tracked by id so
// Uninstall can find it again (spec.md §8: "installed set equals multiset
// difference").
type installedHandler struct {
	id    xid.ID
	block *Block
	index int
	fn    Handler
}

// InstallHandler registers a native callback for (block, index), replacing
// any AML-method fallback for that GPE.
func (m *Manager) InstallHandler(block *Block, index int, fn Handler) (xid.ID, error) {
	g, err := block.gpe(index)
	if err != nil {
		return xid.ID{}, err
	}
	id := xid.New()
	g.mu.Lock()
	g.native = fn
	g.mu.Unlock()

	m.mu.Lock()
	m.handlers = append(m.handlers, &installedHandler{id: id, block: block, index: index, fn: fn})
	m.mu.Unlock()
	return id, nil
}

// UninstallHandler removes a previously installed native callback, falling
// back to AML method dispatch (_Lxx/_Exx) for subsequent triggers.
func (m *Manager) UninstallHandler(id xid.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, h := range m.handlers {
		if h.id == id {
			h.block.gpes[h.index].mu.Lock()
			h.block.gpes[h.index].native = nil
			h.block.gpes[h.index].mu.Unlock()
			m.handlers = append(m.handlers[:i], m.handlers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no GPE handler registered with id %s", id)
}

// methodName returns the name of this GPE's AML fallback method (_Lxx for
// level, _Exx for edge, per spec.md §4.6) for index; it does not look the
// method up.
func (g *GPE) methodName(index int, t Trigger) string {
	if t == Level {
		return fmt.Sprintf("_L%02X", index)
	}
	return fmt.Sprintf("_E%02X", index)
}

func (b *Block) resolveMethod(tree *namespace.Tree, index int, t Trigger) (*namespace.Node, bool) {
	g, err := b.gpe(index)
	if err != nil {
		return nil, false
	}
	name := g.methodName(index, t)
	node, err := tree.Resolve(b.scope, name, false)
	if err != nil {
		return nil, false
	}
	obj := node.Object()
	if obj == nil || obj.Kind() != object.KindMethod {
		return nil, false
	}
	return node, true
}

// invokeMethod is the structural subset of interp.Engine this package
// needs, so a Manager can be built and unit tested without an Engine.
type invokeMethod interface {
	InvokeMethod(node *namespace.Node, args []*object.Object) (*object.Object, error)
}

var _ invokeMethod = (*interp.Engine)(nil)
