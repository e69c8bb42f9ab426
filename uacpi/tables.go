package uacpi

import (
	"sync"
	"sync/atomic"

	"github.com/CascadeOS/uACPI/loader"
	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/uacpierr"
)

// TableHandle identifies an installed table, the DDBHandle-equivalent a
// client holds across Install/Load/Ref/Unref calls (spec.md §6 "Table API:
// ... ref/unref to pin mappings").
type TableHandle uint64

type tableEntry struct {
	header loader.Header
	raw    []byte
	loaded bool
	refs   int32
}

// tableStore tracks every table a host has installed, keyed by handle and
// indexed by signature/OEMID/OEMTableID for LoadTable's benefit. It
// implements interp.TableFinder directly.
type tableStore struct {
	mu     sync.Mutex
	next   uint64
	byHand map[TableHandle]*tableEntry
}

func newTableStore() *tableStore {
	return &tableStore{byHand: map[TableHandle]*tableEntry{}}
}

// FindTable implements interp.TableFinder for LoadTable: it returns the raw
// bytes (header included, the shape execLoad/evalLoadTable both expect) of
// the first installed table whose signature/OEMID/OEMTableID match, leaving
// empty OEMID/OEMTableID operands as wildcards the way the ACPI LoadTable
// opcode's empty-string operands do.
func (s *tableStore) FindTable(signature, oemID, oemTableID string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h := TableHandle(1); h <= TableHandle(s.next); h++ {
		e, ok := s.byHand[h]
		if !ok {
			continue
		}
		if e.header.SignatureString() != signature {
			continue
		}
		if oemID != "" && string(trimPad(e.header.OEMID[:])) != oemID {
			continue
		}
		if oemTableID != "" && string(trimPad(e.header.OEMTableID[:])) != oemTableID {
			continue
		}
		return e.raw, true
	}
	return nil, false
}

func trimPad(b []byte) []byte {
	i := len(b)
	for i > 0 && (b[i-1] == 0 || b[i-1] == ' ') {
		i--
	}
	return b[:i]
}

// InstallTable registers raw table bytes (header included) with the store
// and returns a handle, but does not execute its AML — see Load.
func (c *Context) InstallTable(raw []byte) (TableHandle, error) {
	hdr, err := loader.ParseHeader(raw)
	if err != nil {
		return 0, err
	}
	s := c.tables
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	h := TableHandle(s.next)
	s.byHand[h] = &tableEntry{header: hdr, raw: raw}
	return h, nil
}

// FindTableBySignature returns the handle of the first installed table
// matching signature, for a host implementing find-by-signature directly
// rather than through a LoadTable AML statement.
func (c *Context) FindTableBySignature(signature string) (TableHandle, bool) {
	s := c.tables
	s.mu.Lock()
	defer s.mu.Unlock()
	for h := TableHandle(1); h <= TableHandle(s.next); h++ {
		if e, ok := s.byHand[h]; ok && e.header.SignatureString() == signature {
			return h, true
		}
	}
	return 0, false
}

// Load executes an installed table's AML at scope (the namespace root for a
// DSDT/SSDT), then binds any OperationRegion it declared against already
// installed address-space handlers (spec.md §6 "load (runs its AML)").
func (c *Context) Load(handle TableHandle, scope *namespace.Node) error {
	s := c.tables
	s.mu.Lock()
	e, ok := s.byHand[handle]
	s.mu.Unlock()
	if !ok {
		return uacpierr.ErrNotFound
	}
	if scope == nil {
		scope = c.tree.Root()
	}

	eng := c.NewEngine()
	if _, err := loader.Load(eng, scope, e.raw, c.regions); err != nil {
		return err
	}

	s.mu.Lock()
	e.loaded = true
	s.mu.Unlock()
	return nil
}

// Ref pins handle so Unref's release isn't the only outstanding reference,
// for a host that holds a table's mapping across multiple independent
// consumers (spec.md §6 "ref/unref to pin mappings").
func (c *Context) Ref(handle TableHandle) error {
	s := c.tables
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byHand[handle]
	if !ok {
		return uacpierr.ErrNotFound
	}
	atomic.AddInt32(&e.refs, 1)
	return nil
}

// Unref releases one reference on handle. The entry itself is not removed
// from the store by reaching zero — a host that wants the backing memory
// unmapped does so itself once it observes the refcount drop, since this
// package never owns the host's physical mapping.
func (c *Context) Unref(handle TableHandle) error {
	s := c.tables
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byHand[handle]
	if !ok {
		return uacpierr.ErrNotFound
	}
	if atomic.AddInt32(&e.refs, -1) < 0 {
		atomic.StoreInt32(&e.refs, 0)
		return uacpierr.Wrapf(uacpierr.ErrStillInUse, "unref of handle with no outstanding references")
	}
	return nil
}
