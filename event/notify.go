package event

import (
	"sync"

	"github.com/rs/xid"

	"github.com/CascadeOS/uACPI/object"
)

// NotifyHandler receives a Notify(target, value) event asynchronously,
// after any other queued Notify to the same target that preceded it
// (spec.md §4.6: "delivery order is FIFO per target").
type NotifyHandler func(target *object.Object, value uint64)

type notifyBinding struct {
	id   xid.ID
	node *object.Object // nil = root-wide, fires for every target
	fn   NotifyHandler
}

// InstallNotifyHandler registers fn for Notify events against target (nil
// for a root-wide handler that sees every target), returning a token
// UninstallNotifyHandler accepts.
func (m *Manager) InstallNotifyHandler(target *object.Object, fn NotifyHandler) xid.ID {
	id := xid.New()
	m.mu.Lock()
	m.notifyHandlers = append(m.notifyHandlers, &notifyBinding{id: id, node: target, fn: fn})
	m.mu.Unlock()
	return id
}

// UninstallNotifyHandler removes a previously installed Notify handler.
func (m *Manager) UninstallNotifyHandler(id xid.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.notifyHandlers {
		if b.id == id {
			m.notifyHandlers = append(m.notifyHandlers[:i], m.notifyHandlers[i+1:]...)
			return nil
		}
	}
	return errNotifyHandlerNotFound
}

// Notify implements interp.NotifyDispatcher: AML's Notify(target, value)
// calls straight into this, enqueuing delivery to registered handlers
// (spec.md §4.6).
func (m *Manager) Notify(target *object.Object, value uint64) {
	m.notify.enqueue(m, target, value)
}

func (m *Manager) dispatchNotify(target *object.Object, value uint64) {
	m.mu.Lock()
	handlers := append([]*notifyBinding(nil), m.notifyHandlers...)
	m.mu.Unlock()
	for _, b := range handlers {
		if b.node == nil || b.node == target {
			b.fn(target, value)
		}
	}
}

// notifyQueue holds one ordered channel per target so concurrent Notify
// calls against different targets proceed independently while same-target
// calls preserve enqueue order (spec.md §5: "Notify events delivered to the
// same target preserve enqueue order").
type notifyQueue struct {
	mu     sync.Mutex
	queues map[*object.Object]chan uint64
}

func newNotifyQueue() *notifyQueue {
	return &notifyQueue{queues: map[*object.Object]chan uint64{}}
}

const notifyQueueDepth = 64

func (q *notifyQueue) enqueue(m *Manager, target *object.Object, value uint64) {
	q.mu.Lock()
	ch, ok := q.queues[target]
	if !ok {
		ch = make(chan uint64, notifyQueueDepth)
		q.queues[target] = ch
		go func() {
			for v := range ch {
				m.dispatchNotify(target, v)
			}
		}()
	}
	q.mu.Unlock()
	ch <- value
}

var errNotifyHandlerNotFound = notifyErr("no Notify handler registered with that id")

type notifyErr string

func (e notifyErr) Error() string { return string(e) }
