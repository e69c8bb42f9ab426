package namespace

import (
	"sync"

	"github.com/CascadeOS/uACPI/object"
)

// Flags marks lifetime and provenance attributes of a Node
// (spec.md §3 Namespace Node).
type Flags uint16

const (
	// FlagTemporary marks a node declared inside a method body; it is
	// unlinked no later than the method's return (spec.md §3 invariant).
	FlagTemporary Flags = 1 << iota
	// FlagPredefined marks a node whose name has ACPI-defined semantics
	// (_HID, _CRS, _STA, ...).
	FlagPredefined
)

// Node is a named entry in the namespace tree.
type Node struct {
	mu sync.RWMutex

	name     Name
	parent   *Node
	children []*Node
	obj      *object.Object
	flags    Flags

	info      NodeInfo
	infoValid bool
}

// newNode allocates a detached node; Tree.Install links it into the tree.
func newNode(name Name, obj *object.Object) *Node {
	return &Node{name: name, obj: obj}
}

// Name returns the node's 4-character name.
func (n *Node) Name() Name {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.name
}

// Parent returns the node's parent, or nil for the root.
func (n *Node) Parent() *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.parent
}

// Children returns a snapshot slice of the node's children.
func (n *Node) Children() []*Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Flags returns the node's flag bits.
func (n *Node) Flags() Flags {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.flags
}

// SetFlags ORs additional flag bits onto the node.
func (n *Node) SetFlags(f Flags) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.flags |= f
}

// Kind reports the ACPI object kind currently held by the node.
func (n *Node) Kind() object.Kind {
	n.mu.RLock()
	o := n.obj
	n.mu.RUnlock()
	if o == nil {
		return object.Uninitialized
	}
	return o.Kind()
}

// Object returns the node's current object (may be nil for a forward
// declaration). Implements object.NamedTarget so References created via
// object.NewNamedReference observe CopyObject swaps live (spec.md §3's
// invariant that a node's object replacement "must be safe even if the
// replacement is evaluated from code that currently holds references into
// the node").
func (n *Node) Object() *object.Object {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.obj
}

// SetObject atomically swaps the node's object, releasing the node's
// ownership of the previous one and retaining the new one. This is the
// per-node-mutex-protected operation the lock hierarchy (spec.md §5)
// describes as sitting just inside the namespace tree mutex.
func (n *Node) SetObject(o *object.Object) {
	n.mu.Lock()
	defer n.mu.Unlock()
	old := n.obj
	if o != nil {
		o.Retain()
	}
	n.obj = o
	if old != nil {
		old.Release()
	}
}

// Path renders the node's absolute path, e.g. "\\_SB.PCI0.LPCB".
func (n *Node) Path() string {
	return AbsolutePath(n)
}

// AbsolutePath walks parent pointers to render a node's absolute path.
func AbsolutePath(n *Node) string {
	if n == nil {
		return ""
	}
	var segs []string
	for cur := n; cur != nil && cur.parent != nil; cur = cur.parent {
		segs = append([]string{cur.Name().String()}, segs...)
	}
	if len(segs) == 0 {
		return `\`
	}
	path := `\`
	for i, s := range segs {
		if i > 0 {
			path += "."
		}
		path += s
	}
	return path
}

// NodeInfo is the externally-visible metadata the client API's
// get-node-info operation returns (spec.md §6; shape supplemented from
// _examples/original_source's test runner, see SPEC_FULL.md).
type NodeInfo struct {
	Kind object.Kind
	HID  string
	CID  []string
	UID  string
	CLS  string
	ADR  uint64
	SxD  [4]uint8
	SxW  [4]uint8
}

// CachedInfo returns the node's cached NodeInfo and whether it has been
// populated yet. Population (evaluating _HID/_CID/_UID/_CLS/_ADR/_SxD/_SxW)
// requires the interpreter, so it happens in the root package's
// Context.GetNodeInfo, not here; this method only exposes the cache slot.
func (n *Node) CachedInfo() (NodeInfo, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.info, n.infoValid
}

// SetCachedInfo stores a freshly-evaluated NodeInfo.
func (n *Node) SetCachedInfo(info NodeInfo) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.info = info
	n.infoValid = true
}

// InvalidateCachedInfo drops the cache, e.g. after CopyObject replaces the
// node's object wholesale.
func (n *Node) InvalidateCachedInfo() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infoValid = false
}
