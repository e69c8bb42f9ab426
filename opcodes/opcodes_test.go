package opcodes_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/CascadeOS/uACPI/opcodes"
)

func TestOpcodes(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "opcodes suite")
}

var _ = Describe("decoder", func() {
	It("fetches a single-byte opcode", func() {
		op, d, n, err := opcodes.FetchOpcode([]byte{0x70, 0x01}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(op).To(Equal(opcodes.StoreOp))
		Expect(d.Name).To(Equal("Store"))
		Expect(n).To(Equal(1))
	})

	It("fetches an extended-prefix opcode", func() {
		op, d, n, err := opcodes.FetchOpcode([]byte{0x5B, 0x23}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(op).To(Equal(opcodes.AcquireOp))
		Expect(d.Name).To(Equal("Acquire"))
		Expect(n).To(Equal(2))
	})

	It("decodes a one-byte PkgLength", func() {
		length, consumed, err := opcodes.PkgLength([]byte{0x05}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(length).To(Equal(5))
		Expect(consumed).To(Equal(1))
	})

	It("decodes a multi-byte PkgLength", func() {
		// lead byte 0x40 -> numExtra=1, low nibble 0; extra byte 0x01 -> 0x010 = 16
		length, consumed, err := opcodes.PkgLength([]byte{0x40, 0x01}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(consumed).To(Equal(2))
		Expect(length).To(Equal(0x10))
	})

	It("decodes a rooted dotted NameString", func() {
		data := append([]byte{byte(opcodes.RootChar), byte(opcodes.MultiNamePrefix), 2}, []byte("_SB_PCI0")...)
		path, consumed, err := opcodes.NameString(data, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(`\_SB_.PCI0`))
		Expect(consumed).To(Equal(len(data)))
	})

	It("decodes a single plain 4-char segment", func() {
		data := []byte("TEST")
		path, consumed, err := opcodes.NameString(data, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("TEST"))
		Expect(consumed).To(Equal(4))
	})

	It("identifies Local and Arg opcodes", func() {
		idx, ok := opcodes.IsLocal(opcodes.Local3Op)
		Expect(ok).To(BeTrue())
		Expect(idx).To(Equal(3))

		idx, ok = opcodes.IsArg(opcodes.Arg2Op)
		Expect(ok).To(BeTrue())
		Expect(idx).To(Equal(2))
	})
})
