// Package opregion dispatches operation-region field access to externally
// registered address-space handlers (spec.md §4.5). Manager structurally
// satisfies interp.RegionIO without either package importing the other, the
// same cycle-avoidance pattern object.RegionHandler already documents.
package opregion

import (
	"sync"

	"github.com/rs/xid"

	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/opregion/regioncache"
	"github.com/CascadeOS/uACPI/uacpierr"
)

// GlobalLock is the subset of the ACPI global-lock negotiation surface field
// accesses with LockRule == object.LockGlobal need. Defined locally and
// structurally compatible with interp.GlobalLock/sync2's implementation, so
// this package never imports interp.
type GlobalLock interface {
	Acquire() error
	Release()
}

// Handlers is the attach/detach/read/write callback set spec.md §4.5
// describes for an externally registered address-space handler: "Handler
// callbacks receive attach/detach/read/write operations with the current
// bit offset, width, and data slot."
type Handlers struct {
	Attach func(region *object.Object) error
	Detach func(region *object.Object)
	Read   func(region *object.Object, offset uint64, width int) (uint64, error)
	Write  func(region *object.Object, offset uint64, width int, value uint64) error
}

// binding is one installed (node, address-space) handler registration.
type binding struct {
	id    xid.ID
	node  *namespace.Node
	space object.RegionSpace
	cb    Handlers
}

// Manager is the operation-region subsystem's single runtime instance: it
// tracks installed address-space handlers, binds them to OperationRegion
// objects declared under the handler's scope, and implements field-level
// read/write (bit decomposition, update rule, lock rule, BufferAcc
// marshaling) on top of whatever handler a region resolves to.
type Manager struct {
	mu       sync.Mutex
	lock     GlobalLock
	bindings []*binding
	bound    map[*object.Object]*binding
	caches   map[*object.Object]*regioncache.Cache
}

// NewManager returns a Manager with no handlers installed. lock may be nil,
// in which case a LockGlobal field access proceeds without global-lock
// coordination (acceptable for a host with no firmware to coordinate with).
func NewManager(lock GlobalLock) *Manager {
	return &Manager{
		lock:   lock,
		bound:  map[*object.Object]*binding{},
		caches: map[*object.Object]*regioncache.Cache{},
	}
}

// Install registers cb as the handler for space on node's scope, then binds
// it to every already-declared OperationRegion in node's subtree that has
// no closer handler (spec.md §6: "Install ... address-space handler").
func (m *Manager) Install(node *namespace.Node, space object.RegionSpace, cb Handlers) (xid.ID, error) {
	b := &binding{id: xid.New(), node: node, space: space, cb: cb}

	m.mu.Lock()
	m.bindings = append(m.bindings, b)
	m.mu.Unlock()

	namespace.Walk(node, func(n *namespace.Node) bool {
		obj := n.Object()
		if obj == nil || obj.Kind() != object.KindOperationRegion {
			return true
		}
		if r, ok := obj.OpRegion(); !ok || r.Space != space {
			return true
		}
		if err := m.bindIfUnbound(n, obj, b); err != nil {
			return true
		}
		return true
	})
	return b.id, nil
}

// Uninstall removes the handler registered under id, detaching it from
// every region it was bound to (spec.md §6: "Install/uninstall ... handler",
// and §8's "installed set equals multiset difference" property).
func (m *Manager) Uninstall(id xid.ID) error {
	m.mu.Lock()
	var removed *binding
	kept := m.bindings[:0]
	for _, b := range m.bindings {
		if b.id == id {
			removed = b
			continue
		}
		kept = append(kept, b)
	}
	m.bindings = kept
	if removed == nil {
		m.mu.Unlock()
		return uacpierr.Wrapf(uacpierr.ErrNotFound, "no handler registered with id %s", id)
	}
	var detach []*object.Object
	for obj, b := range m.bound {
		if b == removed {
			detach = append(detach, obj)
			delete(m.bound, obj)
			delete(m.caches, obj)
		}
	}
	m.mu.Unlock()

	for _, obj := range detach {
		if removed.cb.Detach != nil {
			removed.cb.Detach(obj)
		}
	}
	return nil
}

// BindRegion resolves the nearest installed handler for the OperationRegion
// object declared at node by walking node's ancestor chain, attaching it if
// found. The table loader calls this for every OperationRegion in the load
// scope once the table's AML has run; Install binds a late-registered
// handler to already-declared regions of its space through bindIfUnbound.
func (m *Manager) BindRegion(node *namespace.Node, obj *object.Object) error {
	region, ok := obj.OpRegion()
	if !ok {
		return uacpierr.Wrapf(uacpierr.ErrTypeMismatch, "node does not hold an operation region")
	}
	m.mu.Lock()
	var best *binding
	for n := node; n != nil; n = n.Parent() {
		for _, b := range m.bindings {
			if b.node == n && b.space == region.Space {
				best = b
				break
			}
		}
		if best != nil {
			break
		}
	}
	m.mu.Unlock()
	if best == nil {
		return nil
	}
	return m.bindIfUnbound(node, obj, best)
}

func (m *Manager) bindIfUnbound(node *namespace.Node, obj *object.Object, b *binding) error {
	m.mu.Lock()
	_, already := m.bound[obj]
	m.mu.Unlock()
	if already {
		return nil
	}
	if b.cb.Attach != nil {
		if err := b.cb.Attach(obj); err != nil {
			return err
		}
	}
	region, _ := obj.OpRegion()
	region.SetHandler(&regionHandlerAdapter{obj: obj, b: b})

	m.mu.Lock()
	m.bound[obj] = b
	m.mu.Unlock()
	return nil
}

// regionHandlerAdapter satisfies object.RegionHandler by forwarding to the
// Handlers callbacks a binding was installed with.
type regionHandlerAdapter struct {
	obj *object.Object
	b   *binding
}

func (a *regionHandlerAdapter) Read(offset uint64, width int) (uint64, error) {
	return a.b.cb.Read(a.obj, offset, width)
}

func (a *regionHandlerAdapter) Write(offset uint64, width int, value uint64) error {
	return a.b.cb.Write(a.obj, offset, width, value)
}
