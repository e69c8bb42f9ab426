// Package loader parses an ACPI table image's System Description Table
// header and installs its AML payload into the namespace (spec.md §6:
// "Table API: find-by-signature, install from memory, load (runs its
// AML)"). Header field layout is grounded on
// _examples/other_examples/dhiemaz-gopher-os__tables.go's sdtHeader.
package loader

import (
	"encoding/binary"
	"fmt"

	"github.com/CascadeOS/uACPI/interp"
	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
)

// HeaderLen is the fixed size of an ACPI SDT header that precedes every
// table's AML payload.
const HeaderLen = 36

// Header is the common header every ACPI table (DSDT, SSDT, and the
// fixed-format tables alike) carries ahead of its payload.
type Header struct {
	Signature       [4]byte
	Length          uint32
	Revision        uint8
	Checksum        uint8
	OEMID           [6]byte
	OEMTableID      [8]byte
	OEMRevision     uint32
	CreatorID       uint32
	CreatorRevision uint32
}

// SignatureString returns the header's signature as a plain string ("DSDT",
// "SSDT", ...), the form TableFinder/FindTable match against.
func (h Header) SignatureString() string { return string(h.Signature[:]) }

func (h Header) oemIDString() string      { return string(h.OEMID[:]) }
func (h Header) oemTableIDString() string { return string(h.OEMTableID[:]) }

// Table is a parsed table image: its header plus the AML payload that
// follows it, ready to execute as a top-level term list.
type Table struct {
	Header Header
	AML    []byte
	raw    []byte
}

// ParseHeader decodes raw's leading HeaderLen bytes. It does not validate
// the checksum; call ValidChecksum separately, the way a host that trusts
// its own firmware-supplied tables may skip it.
func ParseHeader(raw []byte) (Header, error) {
	if len(raw) < HeaderLen {
		return Header{}, fmt.Errorf("table image too short for an SDT header: %d bytes", len(raw))
	}
	var h Header
	copy(h.Signature[:], raw[0:4])
	h.Length = binary.LittleEndian.Uint32(raw[4:8])
	h.Revision = raw[8]
	h.Checksum = raw[9]
	copy(h.OEMID[:], raw[10:16])
	copy(h.OEMTableID[:], raw[16:24])
	h.OEMRevision = binary.LittleEndian.Uint32(raw[24:28])
	h.CreatorID = binary.LittleEndian.Uint32(raw[28:32])
	h.CreatorRevision = binary.LittleEndian.Uint32(raw[32:36])
	return h, nil
}

// ValidChecksum reports whether raw's bytes (exactly Header.Length of them)
// sum to zero mod 256, the whole-table checksum every ACPI SDT carries.
func ValidChecksum(raw []byte) bool {
	h, err := ParseHeader(raw)
	if err != nil {
		return false
	}
	if uint64(h.Length) > uint64(len(raw)) {
		return false
	}
	var sum uint8
	for _, b := range raw[:h.Length] {
		sum += b
	}
	return sum == 0
}

// ParseTable splits raw into its header and AML payload.
func ParseTable(raw []byte) (*Table, error) {
	h, err := ParseHeader(raw)
	if err != nil {
		return nil, err
	}
	end := len(raw)
	if uint64(h.Length) <= uint64(len(raw)) {
		end = int(h.Length)
	}
	return &Table{Header: h, AML: raw[HeaderLen:end], raw: raw}, nil
}

// RegionBinder is the subset of opregion.Manager's contract the loader
// needs to bind freshly-installed OperationRegions to their handler
// immediately after a table's AML runs. Defined locally so this package
// does not import opregion, the same cycle-avoidance pattern used
// throughout (see interp.RegionIO's doc comment).
type RegionBinder interface {
	BindRegion(node *namespace.Node, obj *object.Object) error
}

// Load parses raw, executes its AML as a top-level term list rooted at
// scope (namespace.Tree.Root() for a DSDT, or a LoadTable-selected scope
// for an SSDT), and binds any OperationRegion the AML declared to its
// nearest enclosing address-space handler via binder (may be nil, in which
// case region binding is left to whatever other mechanism the host uses —
// e.g. a later retroactive Install call).
func Load(eng *interp.Engine, scope *namespace.Node, raw []byte, binder RegionBinder) (*Table, error) {
	tbl, err := ParseTable(raw)
	if err != nil {
		return nil, err
	}
	if err := eng.ExecuteTopLevel(tbl.AML, scope); err != nil {
		return nil, err
	}
	if binder != nil {
		namespace.Walk(scope, func(n *namespace.Node) bool {
			obj := n.Object()
			if obj != nil && obj.Kind() == object.KindOperationRegion {
				_ = binder.BindRegion(n, obj)
			}
			return true
		})
	}
	return tbl, nil
}
