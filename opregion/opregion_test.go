package opregion_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/opregion"
)

func TestOpregion(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "opregion suite")
}

// fakeSpace is a byte-addressable in-memory stand-in for a real
// address-space handler, keyed by region so multiple regions under the
// same handler don't collide.
type fakeSpace struct {
	mem map[uint64]byte
}

func newFakeSpace() *fakeSpace { return &fakeSpace{mem: map[uint64]byte{}} }

func (s *fakeSpace) read(_ *object.Object, offset uint64, width int) (uint64, error) {
	var v uint64
	for i := 0; i < width; i++ {
		v |= uint64(s.mem[offset+uint64(i)]) << (8 * i)
	}
	return v, nil
}

func (s *fakeSpace) write(_ *object.Object, offset uint64, width int, value uint64) error {
	for i := 0; i < width; i++ {
		s.mem[offset+uint64(i)] = byte(value >> (8 * i))
	}
	return nil
}

var _ = Describe("Manager", func() {
	var (
		tree *namespace.Tree
		mgr  *opregion.Manager
		sp   *fakeSpace
	)

	BeforeEach(func() {
		tree = namespace.NewTree()
		mgr = opregion.NewManager(nil)
		sp = newFakeSpace()
		_, err := mgr.Install(tree.Root(), object.SpaceSystemMemory, opregion.Handlers{
			Read:  sp.read,
			Write: sp.write,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("reads a byte-aligned byte-width field straight through", func() {
		regionObj := object.NewOpRegion(object.SpaceSystemMemory, 0x100, 16)
		node, err := tree.Install(tree.Root(), namespace.NewName("REG0"), regionObj)
		Expect(err).NotTo(HaveOccurred())
		Expect(mgr.BindRegion(node, regionObj)).To(Succeed())

		sp.mem[0x101] = 0x42
		fu := &object.FieldUnit{Region: regionObj, BitOffset: 8, BitWidth: 8, Access: object.AccessByte}
		v, err := mgr.ReadField(fu)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint64(0x42)))
	})

	It("merges a sub-byte write against the Preserve update rule", func() {
		regionObj := object.NewOpRegion(object.SpaceSystemMemory, 0x200, 16)
		node, err := tree.Install(tree.Root(), namespace.NewName("REG1"), regionObj)
		Expect(err).NotTo(HaveOccurred())
		Expect(mgr.BindRegion(node, regionObj)).To(Succeed())

		sp.mem[0x200] = 0xFF // preexisting bits outside the field
		fu := &object.FieldUnit{
			Region: regionObj, BitOffset: 4, BitWidth: 4,
			Access: object.AccessByte, Update: object.UpdatePreserve,
		}
		Expect(mgr.WriteField(fu, 0x0)).To(Succeed())
		// high nibble (the field) cleared, low nibble (outside the field) preserved
		Expect(sp.mem[0x200]).To(Equal(byte(0x0F)))
	})

	It("decomposes a field spanning two access-width chunks", func() {
		regionObj := object.NewOpRegion(object.SpaceSystemMemory, 0x300, 16)
		node, err := tree.Install(tree.Root(), namespace.NewName("REG2"), regionObj)
		Expect(err).NotTo(HaveOccurred())
		Expect(mgr.BindRegion(node, regionObj)).To(Succeed())

		fu := &object.FieldUnit{
			Region: regionObj, BitOffset: 4, BitWidth: 8,
			Access: object.AccessByte, Update: object.UpdatePreserve,
		}
		Expect(mgr.WriteField(fu, 0xAB)).To(Succeed())
		v, err := mgr.ReadField(fu)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint64(0xAB)))
	})
})
