package interp

import (
	"time"

	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
)

// defaultLoopTimeout bounds a While loop's wall-clock budget (spec.md §4.4:
// "a While whose condition never falsifies must eventually fault rather
// than hang the evaluating thread forever").
const defaultLoopTimeout = 1 * time.Second

// defaultMaxRefDepth caps ResolveChain traversal (spec.md §9 reference
// graphs note on pathological cycles).
const defaultMaxRefDepth = 32

// Context holds everything method evaluation needs that lives outside any
// one Frame: the namespace tree, the host-facing subsystem surfaces, and
// the tunables spec.md §6 exposes as client-settable (loop timeout, max
// reference depth, declared revision).
type Context struct {
	Tree       *namespace.Tree
	RegionIO   RegionIO
	Notifier   NotifyDispatcher
	GlobalLock GlobalLock
	Logger     Logger
	Tables     TableFinder

	Revision    object.Revision
	MaxRefDepth int
	LoopTimeout time.Duration
}

// Option configures a Context at construction, mirroring the teacher's
// functional-options EmulatorOption pattern (emu.WithStdout/WithStderr).
type Option func(*Context)

// WithRegionIO installs the operation-region field access surface.
func WithRegionIO(r RegionIO) Option { return func(c *Context) { c.RegionIO = r } }

// WithNotifyDispatcher installs the Notify delivery surface.
func WithNotifyDispatcher(n NotifyDispatcher) Option { return func(c *Context) { c.Notifier = n } }

// WithGlobalLock installs the \_GL negotiation surface.
func WithGlobalLock(g GlobalLock) Option { return func(c *Context) { c.GlobalLock = g } }

// WithTables installs the dynamic table lookup surface LoadTable uses.
func WithTables(t TableFinder) Option { return func(c *Context) { c.Tables = t } }

// WithLogger installs a structured logger.
func WithLogger(l Logger) Option { return func(c *Context) { c.Logger = l } }

// WithRevision sets the declared DSDT revision governing integer width.
func WithRevision(r object.Revision) Option { return func(c *Context) { c.Revision = r } }

// WithLoopTimeout overrides the default While-loop wall-clock budget.
func WithLoopTimeout(d time.Duration) Option { return func(c *Context) { c.LoopTimeout = d } }

// WithMaxRefDepth overrides the default reference-chain traversal cap.
func WithMaxRefDepth(n int) Option { return func(c *Context) { c.MaxRefDepth = n } }

// NewContext returns a Context bound to tree, configured by opts.
func NewContext(tree *namespace.Tree, opts ...Option) *Context {
	c := &Context{
		Tree:        tree,
		Logger:      noopLogger{},
		Revision:    object.Revision2,
		MaxRefDepth: defaultMaxRefDepth,
		LoopTimeout: defaultLoopTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Engine drives AML execution over a chain of Frames. A single Engine
// instance is not safe for concurrent Run calls from multiple goroutines
// at once (each evaluating thread, per spec.md §5, owns its own Engine);
// the namespace Tree and Objects beneath it carry their own locking for
// cross-thread sharing.
type Engine struct {
	ctx *Context
	id  uint64 // identity handed to MethodData.Acquire/Release for this thread
}

// NewEngine returns an Engine bound to ctx, identified by id (a caller
// identity must be unique per concurrently-evaluating thread so recursive
// Serialized-method re-entry is detected correctly; callers typically use
// a monotonically increasing counter or goroutine-local id source).
func NewEngine(ctx *Context, id uint64) *Engine {
	return &Engine{ctx: ctx, id: id}
}
