// Package hostapi defines the contract a host (kernel, hypervisor, or test
// harness) must satisfy to embed the interpreter core (spec.md §6:
// "Host-provided services").
package hostapi

import "time"

// MemoryMapper maps a physical address range for the interpreter to read
// AML tables and memory-mapped operation regions from, page-granular.
type MemoryMapper interface {
	// Map returns a byte slice backing [phys, phys+length), rounded up to
	// page granularity by the host.
	Map(phys uint64, length uint64) ([]byte, error)
	// Unmap releases a mapping previously returned by Map.
	Unmap(mapped []byte) error
}

// IOPort is 1/2/4-byte port I/O access (spec.md §6).
type IOPort interface {
	In(port uint16, width int) (uint32, error)
	Out(port uint16, width int, value uint32) error
}

// PCIAddress identifies a PCI configuration space register.
type PCIAddress struct {
	Segment uint16
	Bus     uint8
	Device  uint8
	Function uint8
	Offset  uint16
}

// PCIConfig is PCI configuration space access at (segment, bus, device,
// function, offset).
type PCIConfig interface {
	ReadConfig(addr PCIAddress, width int) (uint32, error)
	WriteConfig(addr PCIAddress, width int, value uint32) error
}

// Clock provides monotonic time and suspension (spec.md §6: "Monotonic
// time in 100ns units; sleep/stall with millisecond and microsecond
// precision").
type Clock interface {
	// Now100ns returns a monotonic timestamp in 100ns units (the native
	// ACPI time unit).
	Now100ns() uint64
	// Sleep suspends the calling goroutine, yielding the processor.
	Sleep(d time.Duration)
	// Stall busy-waits for short durations where yielding would cost more
	// than it saves (AML's Stall opcode, sub-100us waits).
	Stall(d time.Duration)
}

// RecursiveMutex is a host-native recursive mutex, the primitive the
// interpreter's own AML Mutex objects are not required to be built from
// but that coarser host-side locks (namespace mutex, global lock
// coordination) may use.
type RecursiveMutex interface {
	Lock()
	Unlock()
}

// BinaryEvent is a host-native manual-reset binary event.
type BinaryEvent interface {
	Signal()
	Wait(timeout time.Duration) bool
	Reset()
}

// Spinlock is a host-native spinlock for very short critical sections where
// blocking is not acceptable (interrupt context).
type Spinlock interface {
	Lock()
	Unlock()
}

// InterruptControl disables/enables interrupts on the calling CPU, the
// primitive a spinlock acquired from interrupt-sensitive code needs around
// it (spec.md §6: "per-CPU interrupt disable/enable").
type InterruptControl interface {
	DisableInterrupts() (prev bool)
	RestoreInterrupts(prev bool)
}

// ThreadSpawner runs fn on a host-managed worker, the primitive deferred
// GPE/Notify dispatch work that must not block the triggering context
// needs.
type ThreadSpawner interface {
	Spawn(fn func())
	CurrentThreadID() uint64
}

// Allocator is host memory allocation for interpreter-internal state that
// must not come from the Go heap directly (e.g. a kernel embedding this
// core inside its own allocator domain). A host that has no reason to
// intercept allocation may implement this with make([]byte, n)/no-op.
type Allocator interface {
	Alloc(size uint) ([]byte, error)
	// Free releases buf. sizeHint, if nonzero, is the original Alloc size
	// for hosts whose allocator needs it (spec.md §6: "optionally
	// sized-free").
	Free(buf []byte, sizeHint uint)
}

// Host bundles every contract the interpreter core needs from its
// embedding environment. A host need not implement all of it if the
// corresponding AML feature set is unused: nil fields simply make that
// feature unavailable (RegionIO over SystemMemory without a MemoryMapper
// fails with ErrNotReady, not a panic).
type Host struct {
	Memory     MemoryMapper
	IO         IOPort
	PCI        PCIConfig
	Clock      Clock
	Threads    ThreadSpawner
	Alloc      Allocator
	Interrupts InterruptControl
	// NewMutex/NewEvent/NewSpinlock construct fresh host-native primitives
	// on demand, since unlike the other contracts these are instantiated
	// per use (one recursive mutex per AML Mutex object, say) rather than
	// shared singletons.
	NewMutex    func() RecursiveMutex
	NewEvent    func() BinaryEvent
	NewSpinlock func() Spinlock
}
