// Command amldump decodes and prints an AML opcode stream: a raw .aml
// payload, or a full ACPI table image (SDT header included, detected by
// signature), following the same flag-based CLI shape as the teacher's
// cmd/m2sim.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/CascadeOS/uACPI/loader"
	"github.com/CascadeOS/uACPI/opcodes"
)

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: amldump <file.aml | file.dat>\n")
		os.Exit(1)
	}

	raw, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	body := raw
	if hdr, err := loader.ParseHeader(raw); err == nil && looksLikeSignature(hdr.Signature[:]) {
		fmt.Printf("%s length=%d revision=%d checksum-valid=%v\n",
			hdr.SignatureString(), hdr.Length, hdr.Revision, loader.ValidChecksum(raw))
		body = raw[loader.HeaderLen:]
	}

	if err := dumpTermList(os.Stdout, body, 0, len(body), 0); err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding AML at some offset: %v\n", err)
		os.Exit(1)
	}
}

func looksLikeSignature(sig []byte) bool {
	for _, b := range sig {
		if b < 0x20 || b > 0x7E {
			return false
		}
	}
	return true
}

// isNameLeadByte mirrors package interp's evalTermArg dispatch: a NameString
// cannot be told apart from a table-driven opcode by FetchOpcode alone,
// since the opcode table only knows single-byte (or extended two-byte)
// opcodes, not name-lead bytes.
func isNameLeadByte(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b == '_':
		return true
	case b == byte(opcodes.RootChar), b == byte(opcodes.ParentPrefixChar):
		return true
	case b == byte(opcodes.DualNamePrefix), b == byte(opcodes.MultiNamePrefix):
		return true
	}
	return false
}

// dumpTermList decodes and prints every term between [offset, end), returning
// once it reaches end.
func dumpTermList(w io.Writer, data []byte, offset, end, depth int) error {
	for offset < end {
		next, err := dumpTerm(w, data, offset, depth)
		if err != nil {
			return err
		}
		offset = next
	}
	return nil
}

// dumpTerm decodes one term (a bare NameString reference, or an
// opcode-headed term/statement/named-object/namespace-modifier) at offset,
// printing it and any children a PkgLength-bounded operand recurses into.
// It returns the offset immediately past the term.
func dumpTerm(w io.Writer, data []byte, offset, depth int) (int, error) {
	if offset >= len(data) {
		return offset, fmt.Errorf("unexpected end of stream at 0x%04X", offset)
	}

	if data[offset] != byte(opcodes.ExtOpPrefixByteOp) && isNameLeadByte(data[offset]) {
		path, n, err := opcodes.NameString(data, offset)
		if err != nil {
			return offset, err
		}
		next := offset + n
		fmt.Fprintf(w, "%s%-28s ; NameString @0x%04X\n", indent(depth), path, offset)
		return next, nil
	}

	_, desc, opLen, err := opcodes.FetchOpcode(data, offset)
	if err != nil {
		return offset, err
	}
	cursor := offset + opLen

	pkgEnd := -1
	if desc.HasPkgLength {
		length, consumed, err := opcodes.PkgLength(data, cursor)
		if err != nil {
			return offset, err
		}
		pkgStart := cursor
		cursor += consumed
		pkgEnd = pkgStart + length
	}

	name := desc.Name
	sizeNote := ""
	if pkgEnd >= 0 {
		sizeNote = fmt.Sprintf(" len=%d", pkgEnd-offset)
	}
	fmt.Fprintf(w, "%s%-28s ; @0x%04X%s\n", indent(depth), name, offset, sizeNote)

	for _, kind := range desc.Operands {
		switch kind {
		case opcodes.OperandNameString:
			_, n, err := opcodes.NameString(data, cursor)
			if err != nil {
				return offset, err
			}
			cursor += n
		case opcodes.OperandByteData:
			cursor++
		case opcodes.OperandWordData:
			cursor += 2
		case opcodes.OperandDWordData:
			cursor += 4
		case opcodes.OperandQWordData:
			cursor += 8
		case opcodes.OperandStringData:
			i := cursor
			for i < len(data) && data[i] != 0 {
				i++
			}
			cursor = i + 1
		case opcodes.OperandTermArg, opcodes.OperandSuperName, opcodes.OperandTarget:
			next, err := dumpTerm(w, data, cursor, depth+1)
			if err != nil {
				return offset, err
			}
			cursor = next
		case opcodes.OperandByteList, opcodes.OperandFieldList:
			if pkgEnd < 0 {
				return offset, fmt.Errorf("%s: list operand outside a PkgLength", name)
			}
			cursor = pkgEnd
		case opcodes.OperandVarTermArgList:
			if pkgEnd < 0 {
				return offset, fmt.Errorf("%s: var-arg list outside a PkgLength", name)
			}
			for cursor < pkgEnd {
				next, err := dumpTerm(w, data, cursor, depth+1)
				if err != nil {
					return offset, err
				}
				cursor = next
			}
		}
	}

	if pkgEnd >= 0 {
		cursor = pkgEnd
	}
	return cursor, nil
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}
