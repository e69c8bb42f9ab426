// Package uacpi is the client-facing facade wiring the interpreter core,
// the namespace tree, and the opregion/event/loader/sync2/hostapi
// subsystems into one embeddable Context (spec.md §6 "Client API").
package uacpi

import (
	"sync"
	"sync/atomic"

	"github.com/CascadeOS/uACPI/acpilog"
	"github.com/CascadeOS/uACPI/config"
	"github.com/CascadeOS/uACPI/event"
	"github.com/CascadeOS/uACPI/hostapi"
	"github.com/CascadeOS/uACPI/interp"
	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/opregion"
	"github.com/CascadeOS/uACPI/sync2"
)

// Context is the single object a host constructs to embed the interpreter
// core. It owns the namespace tree and every subsystem the interpreter
// calls back into (region I/O, Notify delivery, the global lock, dynamic
// table lookup) and hands out Engines for evaluation the way the teacher's
// cmd/m2sim builds one emu.Emulator per run — here one Engine per
// concurrently-evaluating thread (spec.md §5).
type Context struct {
	tree    *namespace.Tree
	ictx    *interp.Context
	regions *opregion.Manager
	events  *event.Manager
	host    *hostapi.Host
	opts    *config.InitOptions
	log     *acpilog.Logger
	lock    *sync2.GlobalLock

	tables *tableStore

	nextEngineID uint64
	nextThreadID uint64

	mu          sync.Mutex
	initialized bool
}

// New constructs a Context bound to host, configured by opts (config.
// Default() if nil). The namespace tree starts empty; a host loads its
// DSDT/SSDTs via (*Context).InstallTable and (*Context).Load after New
// returns.
func New(host *hostapi.Host, opts *config.InitOptions) *Context {
	if opts == nil {
		opts = config.Default()
	}
	tree := namespace.NewTree()
	log := acpilog.New(acpilog.WithName("uacpi"), acpilog.WithVerbosity(opts.LogLevel))

	var lock *sync2.GlobalLock
	if host != nil && host.NewEvent != nil {
		lock = sync2.New(new(uint32), host.NewEvent())
	} else {
		lock = sync2.NewLocal()
	}

	c := &Context{
		tree:   tree,
		host:   host,
		opts:   opts,
		log:    log,
		lock:   lock,
		tables: newTableStore(),
	}
	c.regions = opregion.NewManager(c.lock)
	c.events = event.NewManager(tree, nil) // engine wired below, once ictx exists

	c.ictx = interp.NewContext(tree,
		interp.WithRegionIO(c.regions),
		interp.WithNotifyDispatcher(c.events),
		interp.WithGlobalLock(c.lock),
		interp.WithLogger(log),
		interp.WithTables(c.tables),
		interp.WithMaxRefDepth(int(opts.ReferenceChainDepthLimit)),
	)
	c.events.SetEngine(interp.NewEngine(c.ictx, 0))
	return c
}

// NewEngine returns a fresh interp.Engine for one evaluating thread,
// identified uniquely so recursive Serialized-method re-entry detection
// works across concurrent callers (spec.md §5).
func (c *Context) NewEngine() *interp.Engine {
	id := atomic.AddUint64(&c.nextEngineID, 1)
	return interp.NewEngine(c.ictx, id)
}

// Tree exposes the namespace tree for subsystems (loader, opregion binding)
// built against it directly.
func (c *Context) Tree() *namespace.Tree { return c.tree }

// Regions exposes the operation-region manager for address-space handler
// installation.
func (c *Context) Regions() *opregion.Manager { return c.regions }

// Events exposes the event manager for GPE/Notify/fixed-event handler
// installation.
func (c *Context) Events() *event.Manager { return c.events }

// Shutdown clears the Context's initialized flag. It releases no host
// resources (the global-lock wake event included), and no other method
// checks the flag, so the Context's methods keep working after Shutdown.
func (c *Context) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initialized = false
}

// SetLogLevel adjusts the verbosity of subsequent log output.
func (c *Context) SetLogLevel(level int) {
	c.log = acpilog.New(acpilog.WithName("uacpi"), acpilog.WithVerbosity(level))
	c.ictx.Logger = c.log
}
