package uacpi

import (
	"fmt"

	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
)

// ForEachChild calls fn for each direct child of node (the root if nil),
// stopping early if fn returns false (spec.md §6 "for-each-child").
func (c *Context) ForEachChild(node *namespace.Node, fn func(*namespace.Node) bool) {
	if node == nil {
		node = c.tree.Root()
	}
	for _, child := range node.Children() {
		if !fn(child) {
			return
		}
	}
}

// AbsolutePath returns node's fully qualified namespace path.
func (c *Context) AbsolutePath(node *namespace.Node) string {
	return namespace.AbsolutePath(node)
}

// GetNodeInfo evaluates and caches node's device identification methods
// (_HID, _CID, _UID, _CLS, _ADR, _SxD, _SxW), returning whatever subset is
// actually declared (spec.md §6 "get-node-info (kind, _HID, _CID list,
// _UID, _CLS, _ADR, _SxD/_SxW arrays)"). Repeat calls return the cached
// result; a host that replaced node's object (CopyObject) must have called
// node.InvalidateCachedInfo first.
func (c *Context) GetNodeInfo(node *namespace.Node) (namespace.NodeInfo, error) {
	if cached, ok := node.CachedInfo(); ok {
		return cached, nil
	}

	info := namespace.NodeInfo{Kind: node.Kind()}

	if v, ok, err := c.evalChild(node, "_HID"); err != nil {
		return info, err
	} else if ok {
		info.HID = hidString(v)
	}

	if v, ok, err := c.evalChild(node, "_CID"); err != nil {
		return info, err
	} else if ok {
		if pkg, isPkg := v.Package(); isPkg {
			for _, elem := range pkg {
				info.CID = append(info.CID, hidString(elem))
			}
		} else {
			info.CID = []string{hidString(v)}
		}
	}

	if v, ok, err := c.evalChild(node, "_UID"); err != nil {
		return info, err
	} else if ok {
		info.UID = hidString(v)
	}

	if v, ok, err := c.evalChild(node, "_CLS"); err != nil {
		return info, err
	} else if ok {
		if s, isStr := v.String(); isStr {
			info.CLS = s
		} else if b, isBuf := v.Bytes(); isBuf {
			info.CLS = fmt.Sprintf("%x", b)
		}
	}

	if v, ok, err := c.evalChild(node, "_ADR"); err != nil {
		return info, err
	} else if ok {
		if n, isInt := v.Integer(); isInt {
			info.ADR = n
		}
	}

	if v, ok, err := c.evalChild(node, "_SXD"); err != nil {
		return info, err
	} else if ok {
		fillSxArray(&info.SxD, v)
	}

	if v, ok, err := c.evalChild(node, "_SXW"); err != nil {
		return info, err
	} else if ok {
		fillSxArray(&info.SxW, v)
	}

	node.SetCachedInfo(info)
	return info, nil
}

// evalChild looks up a direct child named name under node and evaluates it
// (invoking it if it is a Method, returning its value otherwise). Absence
// of the child is not an error — most control methods are optional.
func (c *Context) evalChild(node *namespace.Node, name string) (*object.Object, bool, error) {
	child, ok := namespace.FindChild(node, namespace.NewName(name))
	if !ok {
		return nil, false, nil
	}
	obj := child.Object()
	if obj == nil {
		return nil, false, nil
	}
	if _, isMethod := obj.Method(); isMethod {
		v, err := c.NewEngine().InvokeMethod(child, nil)
		if err != nil {
			return nil, false, err
		}
		return v, true, nil
	}
	return obj, true, nil
}

func fillSxArray(out *[4]uint8, v *object.Object) {
	pkg, ok := v.Package()
	if !ok {
		return
	}
	for i := 0; i < len(out) && i < len(pkg); i++ {
		if n, isInt := pkg[i].Integer(); isInt {
			out[i] = uint8(n)
		}
	}
}

// hidString renders a _HID/_CID/_UID element as a string: a String object
// is returned verbatim, an Integer is decoded as a compressed EISA ID
// (ACPI's standard encoding: three 5-bit uppercase letters packed into the
// high 16 bits, four BCD-ish hex digits in the low 16).
func hidString(v *object.Object) string {
	if s, ok := v.String(); ok {
		return s
	}
	if n, ok := v.Integer(); ok {
		return decodeEisaID(uint32(n))
	}
	return ""
}

func decodeEisaID(id uint32) string {
	const letters = "?ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	l1 := (id >> 26) & 0x1f
	l2 := (id >> 21) & 0x1f
	l3 := (id >> 16) & 0x1f
	if l1 >= uint32(len(letters)) || l2 >= uint32(len(letters)) || l3 >= uint32(len(letters)) {
		return fmt.Sprintf("%08X", id)
	}
	return fmt.Sprintf("%c%c%c%X%X%X%X",
		letters[l1], letters[l2], letters[l3],
		(id>>12)&0xf, (id>>8)&0xf, (id>>4)&0xf, id&0xf)
}
