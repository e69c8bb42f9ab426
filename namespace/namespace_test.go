package namespace_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
)

func TestNamespace(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "namespace suite")
}

var _ = Describe("Tree", func() {
	var tree *namespace.Tree

	BeforeEach(func() {
		tree = namespace.NewTree()
	})

	Describe("Install", func() {
		It("rejects a duplicate child name", func() {
			sb, err := tree.Install(tree.Root(), namespace.NewName("_SB"), object.NewDevice())
			Expect(err).NotTo(HaveOccurred())
			Expect(sb).NotTo(BeNil())

			_, err = tree.Install(tree.Root(), namespace.NewName("_SB"), object.NewDevice())
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Resolve", func() {
		It("resolves an absolute rooted path", func() {
			sb, _ := tree.Install(tree.Root(), namespace.NewName("_SB"), object.NewDevice())
			pci, _ := tree.Install(sb, namespace.NewName("PCI0"), object.NewDevice())

			found, err := tree.Resolve(tree.Root(), `\_SB.PCI0`, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(Equal(pci))
		})

		It("searches upward toward the root for a single unqualified segment", func() {
			sb, _ := tree.Install(tree.Root(), namespace.NewName("_SB"), object.NewDevice())
			pci, _ := tree.Install(sb, namespace.NewName("PCI0"), object.NewDevice())
			found, err := tree.Resolve(pci, "_SB", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(Equal(sb))
		})

		It("fails lookups for a missing name unless allowMissing is set", func() {
			_, err := tree.Resolve(tree.Root(), "NOPE", false)
			Expect(err).To(HaveOccurred())

			n, err := tree.Resolve(tree.Root(), "NOPE", true)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeNil())
		})

		It("honors parent-prefix carets", func() {
			sb, _ := tree.Install(tree.Root(), namespace.NewName("_SB"), object.NewDevice())
			pci, _ := tree.Install(sb, namespace.NewName("PCI0"), object.NewDevice())
			lpc, _ := tree.Install(pci, namespace.NewName("LPCB"), object.NewDevice())

			found, err := tree.Resolve(lpc, "^^PCI0", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(Equal(pci))
		})
	})

	Describe("RemoveSubtree", func() {
		It("unlinks a method-local node on frame pop while keeping the object alive through outstanding references", func() {
			sb, _ := tree.Install(tree.Root(), namespace.NewName("_SB"), object.NewDevice())
			tmp, _ := tree.Install(sb, namespace.NewName("TMP0"), object.NewInteger(7))
			tmp.SetFlags(namespace.FlagTemporary)

			ref := object.NewNamedReference(tmp)

			tree.RemoveSubtree(tmp)

			_, found := namespace.FindChild(sb, namespace.NewName("TMP0"))
			Expect(found).To(BeFalse())

			r, _ := ref.Reference()
			resolved := r.Target.Get()
			Expect(resolved).NotTo(BeNil())
			v, _ := resolved.Integer()
			Expect(v).To(Equal(uint64(7)))
		})
	})

	Describe("CopyObject-into-self safety", func() {
		It("lets an outstanding reference observe an object replacement", func() {
			sb, _ := tree.Install(tree.Root(), namespace.NewName("_SB"), object.NewDevice())
			node, _ := tree.Install(sb, namespace.NewName("TEST"), object.NewInteger(1))
			ref := object.NewNamedReference(node)

			node.SetObject(object.NewInteger(123))

			r, _ := ref.Reference()
			v, _ := r.Target.Get().Integer()
			Expect(v).To(Equal(uint64(123)))
		})
	})

	Describe("InterfaceTable", func() {
		It("reports installed interfaces as supported", func() {
			Expect(tree.Interfaces.Install("Windows 2015", "")).To(Succeed())
			Expect(tree.Interfaces.Supports("Windows 2015")).To(BeTrue())
			Expect(tree.Interfaces.Supports("Windows 2020")).To(BeFalse())

			tree.Interfaces.Uninstall("Windows 2015")
			Expect(tree.Interfaces.Supports("Windows 2015")).To(BeFalse())
		})
	})
})
