package opcodes

import "github.com/CascadeOS/uACPI/uacpierr"

// FetchOpcode reads one opcode (one byte, or the extended-prefix byte
// followed by one more byte) from data starting at offset. It returns the
// Opcode, its Descriptor (if known), and the number of bytes consumed.
func FetchOpcode(data []byte, offset int) (Opcode, Descriptor, int, error) {
	if offset >= len(data) {
		return 0, Descriptor{}, 0, uacpierr.ErrBadBytecode
	}
	b := data[offset]
	if b == byte(ExtOpPrefixByteOp) {
		if offset+1 >= len(data) {
			return 0, Descriptor{}, 0, uacpierr.ErrBadBytecode
		}
		op := Ext(data[offset+1])
		d, ok := table[op]
		if !ok {
			return op, Descriptor{}, 2, uacpierr.Wrapf(uacpierr.ErrBadBytecode, "unknown extended opcode 0x5B%02X", data[offset+1])
		}
		return op, d, 2, nil
	}
	op := Opcode(b)
	d, ok := table[op]
	if !ok {
		// NameChar / digit / root / parent-prefix bytes are not standalone
		// opcodes; callers decoding a NameString consume them directly
		// rather than through FetchOpcode.
		return op, Descriptor{}, 0, uacpierr.Wrapf(uacpierr.ErrBadBytecode, "unknown opcode 0x%02X", b)
	}
	return op, d, 1, nil
}

// PkgLength decodes the AML variable-length PkgLength encoding (spec.md
// §6: "1-4 bytes, 2-bit leading length-of-length"). It returns the total
// package length (including the PkgLength bytes themselves, as AML
// defines it) and the number of bytes the encoding itself occupied.
func PkgLength(data []byte, offset int) (length int, consumed int, err error) {
	if offset >= len(data) {
		return 0, 0, uacpierr.ErrBadBytecode
	}
	lead := data[offset]
	numExtra := int(lead >> 6)
	if offset+numExtra >= len(data) {
		return 0, 0, uacpierr.ErrBadBytecode
	}
	if numExtra == 0 {
		return int(lead & 0x3F), 1, nil
	}
	length = int(lead & 0x0F)
	shift := 4
	for i := 1; i <= numExtra; i++ {
		length |= int(data[offset+i]) << shift
		shift += 8
	}
	return length, numExtra + 1, nil
}

// NameString decodes an AML NameString starting at offset: an optional
// RootChar, zero or more ParentPrefixChars, then a name-path (NullName,
// one plain 4-char segment, DualNamePrefix + 2 segments, or
// MultiNamePrefix + count + N segments). It returns the dotted textual
// path (e.g. "\\_SB.PCI0") and the number of bytes consumed.
func NameString(data []byte, offset int) (path string, consumed int, err error) {
	start := offset
	var prefix string
	if offset < len(data) && data[offset] == byte(RootChar) {
		prefix = `\`
		offset++
	} else {
		for offset < len(data) && data[offset] == byte(ParentPrefixChar) {
			prefix += "^"
			offset++
		}
	}
	if offset >= len(data) {
		return "", 0, uacpierr.ErrBadBytecode
	}

	var segs []string
	switch data[offset] {
	case 0x00: // NullName
		offset++
	case byte(DualNamePrefix):
		offset++
		for i := 0; i < 2; i++ {
			seg, n, e := readNameSeg(data, offset)
			if e != nil {
				return "", 0, e
			}
			segs = append(segs, seg)
			offset += n
		}
	case byte(MultiNamePrefix):
		offset++
		if offset >= len(data) {
			return "", 0, uacpierr.ErrBadBytecode
		}
		count := int(data[offset])
		offset++
		for i := 0; i < count; i++ {
			seg, n, e := readNameSeg(data, offset)
			if e != nil {
				return "", 0, e
			}
			segs = append(segs, seg)
			offset += n
		}
	default:
		seg, n, e := readNameSeg(data, offset)
		if e != nil {
			return "", 0, e
		}
		segs = append(segs, seg)
		offset += n
	}

	path = prefix
	for i, s := range segs {
		if i > 0 {
			path += "."
		}
		path += s
	}
	if len(segs) == 0 && prefix == "" {
		path = ""
	}
	return path, offset - start, nil
}

func readNameSeg(data []byte, offset int) (string, int, error) {
	if offset+4 > len(data) {
		return "", 0, uacpierr.ErrBadBytecode
	}
	return string(data[offset : offset+4]), 4, nil
}
