package uacpi

import (
	"github.com/rs/xid"

	"github.com/CascadeOS/uACPI/event"
	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/opregion"
)

// InstallNotifyHandler registers fn for Notify values delivered to target,
// or root-wide if target is nil (spec.md §6 "Notify handler (per-node or
// root-wide)").
func (c *Context) InstallNotifyHandler(target *object.Object, fn event.NotifyHandler) xid.ID {
	return c.events.InstallNotifyHandler(target, fn)
}

// UninstallNotifyHandler removes a handler previously returned by
// InstallNotifyHandler.
func (c *Context) UninstallNotifyHandler(id xid.ID) error {
	return c.events.UninstallNotifyHandler(id)
}

// InstallAddressSpaceHandler registers cb for OperationRegions of the given
// address space declared under node's subtree, binding any that already
// exist immediately (spec.md §6 "address-space handler").
func (c *Context) InstallAddressSpaceHandler(node *namespace.Node, space object.RegionSpace, cb opregion.Handlers) (xid.ID, error) {
	if node == nil {
		node = c.tree.Root()
	}
	return c.regions.Install(node, space, cb)
}

// UninstallAddressSpaceHandler removes a handler previously returned by
// InstallAddressSpaceHandler, detaching it from every region it bound.
func (c *Context) UninstallAddressSpaceHandler(id xid.ID) error {
	return c.regions.Uninstall(id)
}

// InstallGPEHandler registers fn as the native handler for block's GPE at
// index, overriding AML _Lxx/_Exx dispatch for that GPE (spec.md §6 "GPE
// handler").
func (c *Context) InstallGPEHandler(block *event.Block, index int, fn event.Handler) (xid.ID, error) {
	return c.events.InstallHandler(block, index, fn)
}

// UninstallGPEHandler removes a handler previously returned by
// InstallGPEHandler.
func (c *Context) UninstallGPEHandler(id xid.ID) error {
	return c.events.UninstallHandler(id)
}

// InstallFixedHandler registers fn for a fixed event (power button, sleep
// button, RTC, global lock release).
func (c *Context) InstallFixedHandler(e event.FixedEvent, fn event.FixedHandler) {
	c.events.InstallFixedHandler(e, fn)
}

// UninstallFixedHandler removes a handler previously installed for e.
func (c *Context) UninstallFixedHandler(e event.FixedEvent) error {
	return c.events.UninstallFixedHandler(e)
}

// InstallInterface advertises name (optionally versioned) so `_OSI(name)`
// evaluates to Ones for AML that queries it (spec.md §6 "interface (`_OSI`
// advertised name)").
func (c *Context) InstallInterface(name, version string) error {
	return c.tree.Interfaces.Install(name, version)
}

// UninstallInterface withdraws a previously installed interface name.
func (c *Context) UninstallInterface(name string) {
	c.tree.Interfaces.Uninstall(name)
}
