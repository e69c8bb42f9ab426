package namespace

import (
	"strings"
	"sync"

	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/uacpierr"
)

// Tree owns the namespace root and the structural mutex that protects
// parent/child linkage (spec.md §5 lock hierarchy: "namespace mutex
// protects tree structure; short critical sections").
type Tree struct {
	mu   sync.RWMutex
	root *Node

	Interfaces *InterfaceTable
}

// NewTree returns a namespace containing only the root node.
func NewTree() *Tree {
	root := newNode(RootName, object.NewDevice())
	return &Tree{root: root, Interfaces: NewInterfaceTable()}
}

// Root returns the namespace root node.
func (t *Tree) Root() *Node { return t.root }

// Install creates a new child named `name` under `parent` holding `obj`,
// failing with ErrAlreadyExists if a same-named child already exists
// (spec.md §4.2 install). obj's ownership is retained by the new node (one
// reference count charged to the node, which keeps it even after
// RemoveSubtree detaches the node).
func (t *Tree) Install(parent *Node, name Name, obj *object.Object) (*Node, error) {
	if parent == nil {
		parent = t.root
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	parent.mu.RLock()
	for _, c := range parent.children {
		if c.name == name {
			parent.mu.RUnlock()
			return nil, uacpierr.Wrapf(uacpierr.ErrAlreadyExists, "%s.%s", AbsolutePath(parent), name)
		}
	}
	parent.mu.RUnlock()

	child := newNode(name, nil)
	child.parent = parent
	if obj != nil {
		obj.Retain()
		child.obj = obj
	}

	parent.mu.Lock()
	parent.children = append(parent.children, child)
	parent.mu.Unlock()

	return child, nil
}

// InstallForwardDeclared creates a child with no object yet, for a name
// referenced (e.g. by CondRefOf-style forward lookups) before its defining
// AML has executed.
func (t *Tree) InstallForwardDeclared(parent *Node, name Name) (*Node, error) {
	return t.Install(parent, name, nil)
}

// RemoveSubtree unlinks n (and therefore its descendants) from the tree.
// Per spec.md §3's invariant, this only unlinks — each detached node keeps
// its Object together with the ownership count Install charged for it, so
// any References created via object.NewNamedReference keep working
// (Get/SetObject still operate on the now-detached Node) because they hold
// a NamedTarget interface value pointing at the Node itself, not at the
// tree.
func (t *Tree) RemoveSubtree(n *Node) {
	if n == nil || n == t.root {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	parent := n.parent
	if parent == nil {
		return
	}
	parent.mu.Lock()
	for i, c := range parent.children {
		if c == n {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			break
		}
	}
	parent.mu.Unlock()

	var detach func(*Node)
	detach = func(node *Node) {
		node.mu.Lock()
		kids := node.children
		node.children = nil
		node.mu.Unlock()
		for _, k := range kids {
			detach(k)
		}
	}
	detach(n)
}

// SplitParent splits a NameString into the path of its parent scope and its
// final segment, the way a namespace-modifier install needs to resolve the
// parent before installing the leaf under it. A single-segment path (no
// dot) returns an empty parent, meaning "the current scope, literally" (the
// declaring-scope rule, not AML's upward search rule used for references).
func SplitParent(path string) (parent, leaf string) {
	rest := path
	prefixLen := 0
	if strings.HasPrefix(rest, `\`) {
		prefixLen++
		rest = rest[1:]
	}
	for strings.HasPrefix(rest, "^") {
		prefixLen++
		rest = rest[1:]
	}
	idx := strings.LastIndexByte(rest, '.')
	if idx < 0 {
		if prefixLen == 0 {
			return "", rest
		}
		return path[:prefixLen], rest
	}
	return path[:prefixLen+idx], rest[idx+1:]
}

// FindChild returns the direct child of parent named `name`, if any.
func FindChild(parent *Node, name Name) (*Node, bool) {
	parent.mu.RLock()
	defer parent.mu.RUnlock()
	for _, c := range parent.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// Resolve implements AML name resolution (spec.md §4.2): a rooted path
// ("\\A.B.C") or a path containing parent-prefix carets ("^^C") or multiple
// dotted segments is interpreted exactly as written, starting from the
// appropriate scope. A single, non-rooted, non-caret, single-segment name
// instead searches from `scope` upward toward the root (the AML "search
// rule"), returning the first match. allowMissing relaxes a missing leaf
// into (nil, nil) instead of an error, for CondRefOf-style callers.
func (t *Tree) Resolve(scope *Node, path string, allowMissing bool) (*Node, error) {
	if scope == nil {
		scope = t.root
	}

	rooted := strings.HasPrefix(path, `\`)
	if rooted {
		path = strings.TrimPrefix(path, `\`)
	}

	up := 0
	for strings.HasPrefix(path, "^") {
		up++
		path = path[1:]
	}

	var segs []string
	if path != "" {
		segs = strings.Split(path, ".")
	}

	searchUpward := !rooted && up == 0 && len(segs) == 1

	if searchUpward {
		return t.searchUpward(scope, NewName(segs[0]), allowMissing)
	}

	start := scope
	if rooted {
		start = t.root
	} else {
		for i := 0; i < up && start.parent != nil; i++ {
			start = start.parent
		}
	}

	cur := start
	for _, s := range segs {
		if s == "" {
			continue
		}
		next, ok := FindChild(cur, NewName(s))
		if !ok {
			if allowMissing {
				return nil, nil
			}
			return nil, uacpierr.Wrapf(uacpierr.ErrNotFound, "%s", path)
		}
		cur = next
	}
	return cur, nil
}

func (t *Tree) searchUpward(scope *Node, name Name, allowMissing bool) (*Node, error) {
	for cur := scope; cur != nil; cur = cur.Parent() {
		if n, ok := FindChild(cur, name); ok {
			return n, nil
		}
		if cur == t.root {
			break
		}
	}
	if allowMissing {
		return nil, nil
	}
	return nil, uacpierr.Wrapf(uacpierr.ErrNotFound, "%s", name.String())
}

// Walk calls fn for n and every descendant, depth-first, stopping early if
// fn returns false.
func Walk(n *Node, fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}
