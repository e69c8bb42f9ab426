package event

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/CascadeOS/uACPI/namespace"
)

// defaultMaxConcurrentGPEs bounds in-flight GPE dispatches (spec.md §4.6):
// a storm of edge-triggered GPEs queues handlers under this semaphore
// rather than spawning one goroutine per trigger unbounded.
const defaultMaxConcurrentGPEs = 8

// Manager is the event subsystem's single runtime instance for GPE blocks,
// fixed events, and the Notify queue. Its dispatch semaphore bounds only
// DispatchBatch's GPE workers; fixed-event and Notify delivery do not
// acquire it.
type Manager struct {
	mu       sync.Mutex
	tree     *namespace.Tree
	eng      invokeMethod
	blocks   []*Block
	handlers []*installedHandler
	sem      *semaphore.Weighted

	fixed map[FixedEvent]*fixedBinding

	notifyHandlers []*notifyBinding
	notify         *notifyQueue
}

// NewManager returns a Manager with no blocks or handlers installed, ready
// to dispatch through eng (typically an *interp.Engine).
func NewManager(tree *namespace.Tree, eng invokeMethod) *Manager {
	return &Manager{
		tree:   tree,
		eng:    eng,
		sem:    semaphore.NewWeighted(defaultMaxConcurrentGPEs),
		fixed:  map[FixedEvent]*fixedBinding{},
		notify: newNotifyQueue(),
	}
}

// SetEngine wires (or replaces) the Engine used to invoke AML _Lxx/_Exx
// handlers, for a host that must construct its event Manager before an
// interp.Context/Engine exist (package uacpi's facade does, since the
// Manager itself is one of interp.Context's constructor arguments).
func (m *Manager) SetEngine(eng invokeMethod) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eng = eng
}

// InstallBlock registers a GPE block so its index is known to the Manager
// (mainly for enumeration; triggers are dispatched against a *Block
// directly, found independently by the caller's own bookkeeping of which
// hardware block raised the interrupt).
func (m *Manager) InstallBlock(b *Block) {
	m.mu.Lock()
	m.blocks = append(m.blocks, b)
	m.mu.Unlock()
}

// Blocks returns the installed GPE blocks in installation order.
func (m *Manager) Blocks() []*Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Block(nil), m.blocks...)
}

// TriggerRequest names one GPE to dispatch, used by DispatchBatch to
// process a hardware status register's set bits in one bounded sweep.
type TriggerRequest struct {
	Block *Block
	Index int
}

// DispatchBatch processes reqs concurrently, bounded by the Manager's
// dispatch semaphore, and waits for all of them to complete (spec.md
// §4.6's "bounded concurrent GPE dispatch"). A GPE already Disabled or
// Masked is silently skipped — it was already handled, or the host is
// deliberately not servicing it.
func (m *Manager) DispatchBatch(ctx context.Context, reqs []TriggerRequest) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, req := range reqs {
		req := req
		gpe, err := req.Block.gpe(req.Index)
		if err != nil {
			return err
		}

		gpe.mu.Lock()
		if gpe.state == Disabled || gpe.state == Masked {
			gpe.mu.Unlock()
			continue
		}
		gpe.state = Disabled // prevent re-entry until dispatch completes
		native := gpe.native
		trig := gpe.trigger
		gpe.mu.Unlock()

		if err := m.sem.Acquire(gctx, 1); err != nil {
			return err
		}
		block := req.Block
		index := req.Index
		g.Go(func() error {
			defer m.sem.Release(1)
			disp := m.dispatchOne(block, index, native, trig)
			gpe.mu.Lock()
			if trig == Edge || disp == Rearm {
				gpe.state = EnabledRuntime
			}
			gpe.mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// Trigger dispatches a single GPE and waits for it to complete.
func (m *Manager) Trigger(ctx context.Context, block *Block, index int) error {
	return m.DispatchBatch(ctx, []TriggerRequest{{Block: block, Index: index}})
}

// dispatchOne runs the native handler if one is installed, else the AML
// _Lxx/_Exx method if declared, else converts the trigger into an implicit
// Notify against the block's scope device (spec.md §4.6: "Implicit Notify
// converts a GPE into a Notify against a device when the AML method is
// absent").
func (m *Manager) dispatchOne(block *Block, index int, native Handler, trig Trigger) Disposition {
	if native != nil {
		return native(block, index)
	}
	if node, ok := block.resolveMethod(m.tree, index, trig); ok && m.eng != nil {
		if _, err := m.eng.InvokeMethod(node, nil); err == nil {
			return Rearm
		}
	}
	if obj := block.scope.Object(); obj != nil {
		m.Notify(obj, uint64(index))
	}
	return Rearm
}
