package object

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CascadeOS/uACPI/uacpierr"
)

// AsInteger implicitly converts o to an Integer under rev's width rules
// (spec.md §4.1): String -> Integer parses a hexadecimal prefix,
// Buffer -> Integer reads up to 8 little-endian bytes.
func AsInteger(o *Object, rev Revision) (uint64, error) {
	switch o.Kind() {
	case KindInteger:
		v, _ := o.Integer()
		return v & rev.Mask(), nil
	case KindString:
		s, _ := o.String()
		return parseHexPrefix(s), nil
	case KindBuffer:
		b, _ := o.Bytes()
		return bufferToInteger(b), nil
	default:
		return 0, uacpierr.Wrapf(uacpierr.ErrTypeMismatch, "cannot convert %s to Integer", o.Kind())
	}
}

// parseHexPrefix parses the longest leading run of hex digits (AML treats
// String->Integer conversion as hex regardless of a "0x" prefix, matching
// the reference interpreter's ToInteger behavior on String operands).
func parseHexPrefix(s string) uint64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	end := 0
	for end < len(s) && isHexDigit(s[end]) {
		end++
	}
	if end == 0 {
		return 0
	}
	v, _ := strconv.ParseUint(s[:end], 16, 64)
	return v
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func bufferToInteger(b []byte) uint64 {
	var v uint64
	n := len(b)
	if n > 8 {
		n = 8
	}
	for i := 0; i < n; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

// AsString implicitly converts o to its String rendering (spec.md §4.1:
// "Integer -> String uses zero-padded uppercase hex").
func AsString(o *Object, rev Revision) (string, error) {
	switch o.Kind() {
	case KindString:
		s, _ := o.String()
		return s, nil
	case KindInteger:
		v, _ := o.Integer()
		width := rev.IntWidthBytes() * 2
		return fmt.Sprintf("%0*X", width, v&rev.Mask()), nil
	case KindBuffer:
		b, _ := o.Bytes()
		parts := make([]string, len(b))
		for i, c := range b {
			parts[i] = fmt.Sprintf("%02X", c)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", uacpierr.Wrapf(uacpierr.ErrTypeMismatch, "cannot convert %s to String", o.Kind())
	}
}

// AsBuffer implicitly converts o to a Buffer (spec.md §4.1: "Integer ->
// Buffer writes little-endian bytes sized to the AML revision").
func AsBuffer(o *Object, rev Revision) ([]byte, error) {
	switch o.Kind() {
	case KindBuffer:
		b, _ := o.Bytes()
		return b, nil
	case KindString:
		s, _ := o.String()
		return []byte(s), nil
	case KindInteger:
		v, _ := o.Integer()
		width := rev.IntWidthBytes()
		b := make([]byte, width)
		for i := 0; i < width; i++ {
			b[i] = byte(v >> (8 * i))
		}
		return b, nil
	default:
		return nil, uacpierr.Wrapf(uacpierr.ErrTypeMismatch, "cannot convert %s to Buffer", o.Kind())
	}
}

// StoreInto implements the "target is a named node holding an Integer,
// String, or Buffer" implicit-cast rule (spec.md §4.1). dst already holds a
// typed value; src is coerced to dst's current type and written in place.
// Per the mutability note, a String or Buffer destination's length is
// never altered: the write is truncated or zero-padded to dst's existing
// length. dst's kind is unchanged by this call.
func StoreInto(dst, src *Object, rev Revision) error {
	switch dst.Kind() {
	case KindInteger:
		v, err := AsInteger(src, rev)
		if err != nil {
			return err
		}
		dst.SetInteger(v & rev.Mask())
		return nil
	case KindString, KindBuffer:
		return storeTruncating(dst, src, rev)
	case Uninitialized:
		// A Name declared with no initial value (forward-declared) takes
		// the source's type and value outright the first time it is
		// stored into, rather than coercing into a fixed-width slot.
		return adoptValue(dst, src, rev)
	default:
		return uacpierr.Wrapf(uacpierr.ErrTypeMismatch, "cannot store into %s target", dst.Kind())
	}
}

// storeTruncating writes src's raw bytes into dst, a named String or Buffer
// target. Both kinds store their value as a raw byte slice internally, so
// the source is always coerced via AsBuffer (an Integer source yields its
// little-endian bytes, not its hex-ASCII String rendering) regardless of
// which of the two kinds dst is.
func storeTruncating(dst, src *Object, rev Revision) error {
	srcBytes, err := AsBuffer(src, rev)
	if err != nil {
		return err
	}
	dst.mu.Lock()
	defer dst.mu.Unlock()
	n := len(dst.bytes)
	out := make([]byte, n)
	copy(out, srcBytes) // zero-pads if srcBytes is shorter, truncates if longer
	dst.bytes = out
	return nil
}

func adoptValue(dst, src *Object, rev Revision) error {
	dst.mu.Lock()
	defer dst.mu.Unlock()
	switch src.Kind() {
	case KindInteger:
		v, _ := src.Integer()
		dst.kind = KindInteger
		dst.integer = v & rev.Mask()
	case KindString:
		s, _ := src.String()
		dst.kind = KindString
		dst.bytes = []byte(s)
	case KindBuffer:
		b, _ := src.Bytes()
		dst.kind = KindBuffer
		dst.bytes = b
	default:
		return uacpierr.Wrapf(uacpierr.ErrTypeMismatch, "cannot store %s into uninitialized target", src.Kind())
	}
	return nil
}

// StoreIntoBufferField writes src into a BufferField target,
// per spec.md §4.1: "source coerced to Integer or Buffer as appropriate
// and written; writes larger than the field are truncated; writes smaller
// are zero-extended." The actual region/backing I/O for FieldUnit is
// performed by package opregion, which calls AsInteger/AsBuffer directly;
// this helper only covers BufferField, whose storage is a plain Buffer
// object already owned by this package.
func StoreIntoBufferField(bf *BufferField, src *Object, rev Revision) error {
	v, err := AsInteger(src, rev)
	if err != nil {
		return err
	}
	writeBits(bf.Buffer, bf.BitOffset, bf.BitWidth, v)
	return nil
}

// ReadBufferField reads a BufferField's bits back out as an Integer.
func ReadBufferField(bf *BufferField) uint64 {
	return readBits(bf.Buffer, bf.BitOffset, bf.BitWidth)
}

func readBits(buf *Object, bitOffset, bitWidth uint64) uint64 {
	buf.mu.RLock()
	defer buf.mu.RUnlock()
	var v uint64
	for i := uint64(0); i < bitWidth && i < 64; i++ {
		bit := bitOffset + i
		byteIdx := bit / 8
		bitIdx := bit % 8
		if int(byteIdx) >= len(buf.bytes) {
			break
		}
		if buf.bytes[byteIdx]&(1<<bitIdx) != 0 {
			v |= 1 << i
		}
	}
	return v
}

func writeBits(buf *Object, bitOffset, bitWidth uint64, value uint64) {
	buf.mu.Lock()
	defer buf.mu.Unlock()
	need := int((bitOffset + bitWidth + 7) / 8)
	if len(buf.bytes) < need {
		grown := make([]byte, need)
		copy(grown, buf.bytes)
		buf.bytes = grown
	}
	for i := uint64(0); i < bitWidth && i < 64; i++ {
		bit := bitOffset + i
		byteIdx := bit / 8
		bitIdx := bit % 8
		if value&(1<<i) != 0 {
			buf.bytes[byteIdx] |= 1 << bitIdx
		} else {
			buf.bytes[byteIdx] &^= 1 << bitIdx
		}
	}
}
