package interp

import (
	"github.com/CascadeOS/uACPI/opcodes"
	"github.com/CascadeOS/uACPI/uacpierr"
)

// Raw fixed-width and variable-width literal decoding. The opcode table
// only tracks operand *kinds* (spec.md §4.3); actually pulling the bytes
// out of the stream is the decoder's job, same division of labor as the
// teacher's insts.Decoder consulting insts.Op/Format to know how many
// operand bytes follow.

func (f *Frame) readByte() (byte, error) {
	if f.cursor >= len(f.bytecode) {
		return 0, uacpierr.ErrBadBytecode
	}
	b := f.bytecode[f.cursor]
	f.cursor++
	return b, nil
}

func (f *Frame) readWord() (uint16, error) {
	if f.cursor+2 > len(f.bytecode) {
		return 0, uacpierr.ErrBadBytecode
	}
	v := uint16(f.bytecode[f.cursor]) | uint16(f.bytecode[f.cursor+1])<<8
	f.cursor += 2
	return v, nil
}

func (f *Frame) readDWord() (uint32, error) {
	if f.cursor+4 > len(f.bytecode) {
		return 0, uacpierr.ErrBadBytecode
	}
	v := uint32(f.bytecode[f.cursor]) | uint32(f.bytecode[f.cursor+1])<<8 |
		uint32(f.bytecode[f.cursor+2])<<16 | uint32(f.bytecode[f.cursor+3])<<24
	f.cursor += 4
	return v, nil
}

func (f *Frame) readQWord() (uint64, error) {
	lo, err := f.readDWord()
	if err != nil {
		return 0, err
	}
	hi, err := f.readDWord()
	if err != nil {
		return 0, err
	}
	return uint64(lo) | uint64(hi)<<32, nil
}

// readAMLString reads a nul-terminated ASCII string (AML StringPrefix
// payload).
func (f *Frame) readAMLString() (string, error) {
	start := f.cursor
	for f.cursor < len(f.bytecode) && f.bytecode[f.cursor] != 0 {
		f.cursor++
	}
	if f.cursor >= len(f.bytecode) {
		return "", uacpierr.ErrBadBytecode
	}
	s := string(f.bytecode[start:f.cursor])
	f.cursor++ // consume the nul
	return s, nil
}

func (f *Frame) readNameString() (string, error) {
	path, n, err := opcodes.NameString(f.bytecode, f.cursor)
	if err != nil {
		return "", err
	}
	f.cursor += n
	return path, nil
}

// readPkgLength decodes a PkgLength at the cursor and returns the absolute
// bytecode offset where the package it introduces ends; the cursor is left
// at the start of the package body.
func (f *Frame) readPkgLength() (bodyEnd int, err error) {
	start := f.cursor
	pkgLen, consumed, err := opcodes.PkgLength(f.bytecode, start)
	if err != nil {
		return 0, err
	}
	f.cursor = start + consumed
	return start + pkgLen, nil
}

// readPkgLengthValue decodes a PkgLength-encoded integer in place (used by
// the Field term list, which reuses the PkgLength byte grammar to encode a
// field unit's bit width rather than a span to skip to).
func (f *Frame) readPkgLengthValue() (uint64, error) {
	val, consumed, err := opcodes.PkgLength(f.bytecode, f.cursor)
	if err != nil {
		return 0, err
	}
	f.cursor += consumed
	return uint64(val), nil
}
