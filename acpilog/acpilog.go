// Package acpilog adapts a go-logr/logr.Logger to the interp.Logger shape,
// the same structural-adapter pattern package opregion and package event use
// to satisfy interp's locally declared interfaces without interp importing
// any of them.
package acpilog

import (
	"os"

	"github.com/CascadeOS/uACPI/interp"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// Logger wraps a logr.Logger, the verbosity-leveled structured logger the
// interpreter core calls into for every diagnostic (spec.md's AML tracing,
// GPE dispatch, table load, and error-path logging all go through this
// single sink).
type Logger struct {
	l logr.Logger
}

// Option configures a Logger at construction.
type Option func(*config)

type config struct {
	sink   logr.LogSink
	name   string
	vLevel int
}

// WithSink overrides the default funcr JSON sink with an arbitrary logr
// backend (e.g. one bridging to a kernel's own ring buffer).
func WithSink(sink logr.LogSink) Option {
	return func(c *config) { c.sink = sink }
}

// WithName sets the logger's name, prefixed to every message.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithVerbosity sets the V level enabled by default.
func WithVerbosity(level int) Option {
	return func(c *config) { c.vLevel = level }
}

// New builds a Logger. With no options it writes one JSON object per line
// to stderr via funcr.NewJSON, go-logr's dependency-free console sink.
func New(opts ...Option) *Logger {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}

	var l logr.Logger
	if c.sink != nil {
		l = logr.New(c.sink)
	} else {
		l = funcr.NewJSON(func(obj string) { _, _ = os.Stderr.WriteString(obj + "\n") }, funcr.Options{
			Verbosity: c.vLevel,
		})
	}
	if c.name != "" {
		l = l.WithName(c.name)
	}
	return &Logger{l: l}
}

// Wrap adapts an already-constructed logr.Logger directly, for a host that
// wants its own sink wired to every other subsystem's logging too.
func Wrap(l logr.Logger) *Logger {
	return &Logger{l: l}
}

func (a *Logger) Info(msg string, kv ...any) {
	a.l.Info(msg, kv...)
}

func (a *Logger) Error(err error, msg string, kv ...any) {
	a.l.Error(err, msg, kv...)
}

// V returns a Logger enabled at the given verbosity level, satisfying
// interp.Logger's recursive V(level int) Logger shape with *Logger in place
// of the locally-declared interface type.
func (a *Logger) V(level int) interp.Logger {
	return &Logger{l: a.l.V(level)}
}
