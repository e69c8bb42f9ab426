// Package namespace implements the hierarchical tree of named ACPI
// firmware objects (spec.md §3 "Namespace Node", §4.2).
//
// The tree shape and locking discipline follow the teacher's loader/
// program split (loader.Program holding ordered loader.Segments,
// emu.Memory as the flat backing store the loaded image populates):
// here a Tree holds an ordered Node hierarchy that the table loader
// populates the same way loader.Load populates a Program's Segments
// before the emulator ever runs.
package namespace

import "strings"

// Name is an AML 4-character name segment, underscore-padded.
type Name [4]byte

// RootName is the reserved name of the namespace root ("\\" in AML text).
var RootName = Name{'_', 'R', 'O', '_'}

// NewName encodes an arbitrary-length ASCII segment as a padded, uppercased
// 4-character Name, truncating anything longer than 4 characters the way
// the AML encoder pads short names with '_' (spec.md §6 "4-char segments
// padded with `_`").
func NewName(s string) Name {
	var n Name
	for i := range n {
		n[i] = '_'
	}
	s = strings.ToUpper(s)
	for i := 0; i < len(s) && i < 4; i++ {
		n[i] = s[i]
	}
	return n
}

// String renders the name with trailing underscore padding intact, the way
// the reference interpreter prints namespace paths (so "_SB_" stays four
// characters rather than being trimmed to "_SB").
func (n Name) String() string {
	return string(n[:])
}

// Trimmed renders the name with trailing underscore padding stripped,
// useful for matching predefined names like "_HID" against a shorter
// logical form in diagnostics.
func (n Name) Trimmed() string {
	return strings.TrimRight(string(n[:]), "_")
}
