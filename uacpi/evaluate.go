package uacpi

import (
	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/uacpierr"
)

// Evaluate resolves path relative to scope (the root if nil) and evaluates
// it: a Method is invoked with args, anything else is returned as-is
// (spec.md §6 "Evaluate a name path with argument list").
func (c *Context) Evaluate(scope *namespace.Node, path string, args []*object.Object) (*object.Object, error) {
	if scope == nil {
		scope = c.tree.Root()
	}
	node, err := c.tree.Resolve(scope, path, false)
	if err != nil {
		return nil, err
	}
	obj := node.Object()
	if obj == nil {
		return nil, uacpierr.ErrNotFound
	}
	if _, ok := obj.Method(); ok {
		return c.NewEngine().InvokeMethod(node, args)
	}
	return obj, nil
}

// EvaluateTyped evaluates like Evaluate but additionally asserts the
// result's Kind matches want, the way a client that only accepts e.g. an
// Integer back from `_STA` wants to fail fast on a malformed table (spec.md
// §6 "typed evaluate that asserts the returned object's type").
func (c *Context) EvaluateTyped(scope *namespace.Node, path string, args []*object.Object, want object.Kind) (*object.Object, error) {
	obj, err := c.Evaluate(scope, path, args)
	if err != nil {
		return nil, err
	}
	if obj.Kind() != want {
		return nil, uacpierr.Wrapf(uacpierr.ErrTypeMismatch, "%s: want kind %d, got %d", path, want, obj.Kind())
	}
	return obj, nil
}
