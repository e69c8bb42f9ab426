// Package sync2 implements the ACPI global-lock negotiation protocol AML's
// Acquire/Release statements use against the special \_GL object (spec.md
// §5). Recursive AML Mutex objects and per-object locks are handled
// directly by object.MutexData and the namespace/interp per-node mutexes;
// this package covers only the firmware-coordinated global lock, the one
// synchronization primitive that reaches outside the interpreter's own
// address space.
package sync2

import (
	"sync/atomic"
	"time"

	"github.com/CascadeOS/uACPI/hostapi"
)

// The global-lock protocol dword carries two bits (spec.md §5: "the global
// lock coordinates with firmware via a pair of bits in the Facs").
const (
	facsOwned   uint32 = 1 << 0
	facsPending uint32 = 1 << 1
)

// defaultSpinFor is how long Acquire spins on the FACS dword via CAS before
// falling back to marking Pending and blocking on the wake event
// ("acquisition spins briefly and then blocks").
const defaultSpinFor = 50 * time.Microsecond

// GlobalLock implements the \_GL negotiation protocol over an atomically
// accessed 32-bit field. A production host points facs at the live FACS
// global-lock dword shared with firmware; wake is signaled whenever
// firmware (or another owner in this same process) releases the lock while
// a waiter marked Pending.
type GlobalLock struct {
	facs    *uint32
	wake    hostapi.BinaryEvent
	spinFor time.Duration
}

// New returns a GlobalLock coordinating through facs and wake.
func New(facs *uint32, wake hostapi.BinaryEvent) *GlobalLock {
	return &GlobalLock{facs: facs, wake: wake, spinFor: defaultSpinFor}
}

// Acquire blocks until the global lock's Owned bit can be claimed,
// spinning briefly before falling back to Pending+wait (spec.md §5).
func (g *GlobalLock) Acquire() error {
	deadline := time.Now().Add(g.spinFor)
	for {
		old := atomic.LoadUint32(g.facs)
		if old&facsOwned == 0 {
			if atomic.CompareAndSwapUint32(g.facs, old, old|facsOwned) {
				return nil
			}
			continue
		}
		if time.Now().After(deadline) {
			g.markPending()
			g.wake.Wait(0)
			deadline = time.Now().Add(g.spinFor)
		}
	}
}

func (g *GlobalLock) markPending() {
	for {
		old := atomic.LoadUint32(g.facs)
		if old&facsPending != 0 {
			return
		}
		if atomic.CompareAndSwapUint32(g.facs, old, old|facsPending) {
			return
		}
	}
}

// Release gives up ownership, signaling any waiter that marked Pending
// ("release signals any waiter").
func (g *GlobalLock) Release() {
	for {
		old := atomic.LoadUint32(g.facs)
		next := old &^ (facsOwned | facsPending)
		if atomic.CompareAndSwapUint32(g.facs, old, next) {
			if old&facsPending != 0 {
				g.wake.Signal()
			}
			return
		}
	}
}

// noopEvent satisfies hostapi.BinaryEvent for a Local lock with no real
// waiters to wake — Wait always returns immediately, which is correct
// because Local never leaves a Pending waiter behind (it never blocks).
type noopEvent struct{}

func (noopEvent) Signal()                 {}
func (noopEvent) Wait(time.Duration) bool { return true }
func (noopEvent) Reset()                  {}

// NewLocal returns a GlobalLock with no firmware to coordinate with —
// acquisition is a plain compare-and-swap loop against a lock dword private
// to this process, the shape a host with no ACPI-visible firmware (a
// hypervisor guest with no FACS, or a test) uses.
func NewLocal() *GlobalLock {
	var facs uint32
	return &GlobalLock{facs: &facs, wake: noopEvent{}, spinFor: 0}
}
