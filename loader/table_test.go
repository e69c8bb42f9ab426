package loader_test

import (
	"encoding/binary"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/CascadeOS/uACPI/interp"
	"github.com/CascadeOS/uACPI/loader"
	"github.com/CascadeOS/uACPI/namespace"
)

func TestLoader(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "loader suite")
}

// buildTable hand-assembles a valid SDT header (with a correct checksum)
// around an AML payload, the same layout a real DSDT image carries.
func buildTable(signature string, aml []byte) []byte {
	raw := make([]byte, loader.HeaderLen+len(aml))
	copy(raw[0:4], signature)
	binary.LittleEndian.PutUint32(raw[4:8], uint32(len(raw)))
	raw[8] = 2 // revision
	copy(raw[10:16], "CASCOS")
	copy(raw[16:24], "UACPITBL")
	copy(raw[36:], aml)

	var sum uint8
	for _, b := range raw {
		sum += b
	}
	raw[9] = -sum
	return raw
}

var _ = Describe("ParseHeader", func() {
	It("decodes the signature and length fields", func() {
		raw := buildTable("DSDT", []byte{0xA3})
		h, err := loader.ParseHeader(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(h.SignatureString()).To(Equal("DSDT"))
		Expect(h.Length).To(Equal(uint32(len(raw))))
	})

	It("rejects an image shorter than a header", func() {
		_, err := loader.ParseHeader(make([]byte, 10))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ValidChecksum", func() {
	It("accepts a correctly-summed table", func() {
		raw := buildTable("DSDT", []byte{0xA3})
		Expect(loader.ValidChecksum(raw)).To(BeTrue())
	})

	It("rejects a corrupted table", func() {
		raw := buildTable("DSDT", []byte{0xA3})
		raw[len(raw)-1] ^= 0xFF
		Expect(loader.ValidChecksum(raw)).To(BeFalse())
	})
})

var _ = Describe("Load", func() {
	It("runs a table's AML and makes its top-level Name resolvable", func() {
		aml := []byte{0x08, 'F', 'O', 'O', '_', 0x0A, 0x2A} // Name(FOO_, 42)
		raw := buildTable("SSDT", aml)

		tree := namespace.NewTree()
		ctx := interp.NewContext(tree)
		eng := interp.NewEngine(ctx, 1)

		tbl, err := loader.Load(eng, tree.Root(), raw, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(tbl.Header.SignatureString()).To(Equal("SSDT"))

		node, err := tree.Resolve(tree.Root(), "FOO_", false)
		Expect(err).NotTo(HaveOccurred())
		v, _ := node.Object().Integer()
		Expect(v).To(Equal(uint64(42)))
	})
})
