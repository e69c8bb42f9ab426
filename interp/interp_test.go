package interp_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/CascadeOS/uACPI/interp"
	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/uacpierr"
)

// packageInts renders a Package of Integers as plain uint64s, for a
// value-equality diff against Object itself (which carries a mutex and
// refcount that have no business in a round-trip comparison).
func packageInts(o *object.Object) []uint64 {
	elems, _ := o.Package()
	out := make([]uint64, len(elems))
	for i, e := range elems {
		out[i], _ = e.Integer()
	}
	return out
}

func TestInterp(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "interp suite")
}

// newEngine returns a fresh namespace tree and an Engine bound to it,
// mirroring the teacher's emu.NewEmulator(opts...) construction style.
func newEngine(opts ...interp.Option) (*namespace.Tree, *interp.Engine) {
	tree := namespace.NewTree()
	ctx := interp.NewContext(tree, opts...)
	return tree, interp.NewEngine(ctx, 1)
}

func installMethod(tree *namespace.Tree, name string, body []byte, argCount int) *namespace.Node {
	node, err := tree.Install(tree.Root(), namespace.NewName(name), object.NewMethod(body, argCount, false, 0))
	Expect(err).NotTo(HaveOccurred())
	return node
}

var _ = Describe("Engine", func() {
	Describe("InvokeMethod", func() {
		It("evaluates Return(Add(5, 3)) to 8", func() {
			tree, eng := newEngine()
			body := []byte{
				0xA4,       // Return
				0x72,       // Add
				0x0A, 0x05, // Byte 5
				0x0A, 0x03, // Byte 3
				0x00, // Target: discard
			}
			node := installMethod(tree, "TEST", body, 0)

			result, err := eng.InvokeMethod(node, nil)
			Expect(err).NotTo(HaveOccurred())
			v, ok := result.Integer()
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(uint64(8)))
		})

		It("evaluates Return(DerefOf(Index(PKG0, Zero))) through a Package element", func() {
			tree, eng := newEngine()
			pkg := object.NewPackage([]*object.Object{object.NewInteger(50)})
			_, err := tree.Install(tree.Root(), namespace.NewName("PKG0"), pkg)
			Expect(err).NotTo(HaveOccurred())
			pkg.Release() // Install retained its own count

			body := []byte{
				0xA4,                 // Return
				0x83,                 // DerefOf
				0x88,                 // Index
				'P', 'K', 'G', '0',   // container: PKG0
				0x00, // index: Zero
				0x00, // Index's Target: discard
			}
			node := installMethod(tree, "TEST", body, 0)

			result, err := eng.InvokeMethod(node, nil)
			Expect(err).NotTo(HaveOccurred())
			v, ok := result.Integer()
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(uint64(50)))
		})

		It("writes through Store(99, DerefOf(RefOf(INT1))) into the named object in place", func() {
			tree, eng := newEngine()
			_, err := tree.Install(tree.Root(), namespace.NewName("INT1"), object.NewInteger(5))
			Expect(err).NotTo(HaveOccurred())

			body := []byte{
				0x70, 0x71, 'I', 'N', 'T', '1', 0x60, // Store(RefOf(INT1), Local0)
				0x70, 0x0A, 0x63, 0x83, 0x60, // Store(99, DerefOf(Local0))
				0xA4, 'I', 'N', 'T', '1', // Return(INT1)
			}
			node := installMethod(tree, "TEST", body, 0)

			result, err := eng.InvokeMethod(node, nil)
			Expect(err).NotTo(HaveOccurred())
			v, ok := result.Integer()
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(uint64(99)))
		})

		It("returns an Uninitialized object when the body never executes a Return", func() {
			tree, eng := newEngine()
			body := []byte{0xA3} // Noop
			node := installMethod(tree, "TEST", body, 0)

			result, err := eng.InvokeMethod(node, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Kind()).To(Equal(object.Uninitialized))
		})

		It("faults a While(One) loop that never falsifies once its evaluation budget is spent", func() {
			tree, eng := newEngine(interp.WithLoopTimeout(20 * time.Millisecond))
			body := []byte{
				0xA2, 0x02, 0x01, // While(PkgLength=2){ One } -- empty body, never falsifies
			}
			node := installMethod(tree, "TEST", body, 0)

			_, err := eng.InvokeMethod(node, nil)
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, uacpierr.ErrTimeout)).To(BeTrue())
		})

		It("does not let a rebind of the Local holding a reference affect the original referent", func() {
			tree, eng := newEngine()
			_, err := tree.Install(tree.Root(), namespace.NewName("INT1"), object.NewInteger(5))
			Expect(err).NotTo(HaveOccurred())

			body := []byte{
				0x70, 0x71, 'I', 'N', 'T', '1', 0x60, // Store(RefOf(INT1), Local0)
				0x70, 0x0A, 0x2A, 0x60, // Store(42, Local0) -- rebinds Local0 itself, no Target semantics
				0xA4, 'I', 'N', 'T', '1', // Return(INT1) -- must still read 5
			}
			node := installMethod(tree, "TEST", body, 0)

			result, err := eng.InvokeMethod(node, nil)
			Expect(err).NotTo(HaveOccurred())
			v, ok := result.Integer()
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(uint64(5)))
		})
	})

	Describe("ExecuteTopLevel", func() {
		It("chains 200 nested Loads onto the same explicit frame stack without error", func() {
			const chainLen = 200
			tree, eng := newEngine()
			header := make([]byte, 36) // stripped SDT header every table image carries

			for i := 0; i < chainLen; i++ {
				name := fmt.Sprintf("B%03d", i)
				var body []byte
				if i == chainLen-1 {
					body = []byte{0xA3} // terminal table: Noop
				} else {
					next := fmt.Sprintf("B%03d", i+1)
					body = append([]byte{0x5B, 0x20}, []byte(next)...) // Load(next, <NullName>)
					body = append(body, 0x00)
				}
				raw := append(append([]byte{}, header...), body...)
				_, err := tree.Install(tree.Root(), namespace.NewName(name), object.NewBuffer(raw))
				Expect(err).NotTo(HaveOccurred())
			}

			start := append([]byte{0x5B, 0x20}, []byte("B000")...)
			start = append(start, 0x00)

			err := eng.ExecuteTopLevel(start, tree.Root())
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < chainLen; i++ {
				_, found := namespace.FindChild(tree.Root(), namespace.NewName(fmt.Sprintf("B%03d", i)))
				Expect(found).To(BeTrue())
			}
		})

		It("runs a Name declaration and makes it resolvable afterward", func() {
			tree, eng := newEngine()
			body := []byte{
				0x08, 'F', 'O', 'O', '_', 0x0A, 0x2A, // Name(FOO_, 42)
			}
			err := eng.ExecuteTopLevel(body, tree.Root())
			Expect(err).NotTo(HaveOccurred())

			node, err := tree.Resolve(tree.Root(), "FOO_", false)
			Expect(err).NotTo(HaveOccurred())
			v, _ := node.Object().Integer()
			Expect(v).To(Equal(uint64(42)))
		})
	})

	Describe("CopyObject", func() {
		It("replaces a named Package wholesale rather than truncating like Store", func() {
			tree, eng := newEngine()
			_, err := tree.Install(tree.Root(), namespace.NewName("PKG0"),
				object.NewPackage([]*object.Object{object.NewInteger(1)}))
			Expect(err).NotTo(HaveOccurred())

			body := []byte{
				0x9D,                                     // CopyObject
				0x12, 0x06, 0x02, 0x0A, 0x07, 0x0A, 0x09, // Package(2){7, 9}
				'P', 'K', 'G', '0', // target: PKG0
			}
			err = eng.ExecuteTopLevel(body, tree.Root())
			Expect(err).NotTo(HaveOccurred())

			node, err := tree.Resolve(tree.Root(), "PKG0", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(node.Object().Kind()).To(Equal(object.KindPackage))
			if diff := cmp.Diff([]uint64{7, 9}, packageInts(node.Object())); diff != "" {
				Fail("CopyObject result mismatch (-want +got):\n" + diff)
			}
		})

		It("replaces a named Integer with a String wholesale rather than coercing like Store", func() {
			tree, eng := newEngine()
			_, err := tree.Install(tree.Root(), namespace.NewName("VAL0"), object.NewInteger(123))
			Expect(err).NotTo(HaveOccurred())

			body := []byte{
				0x9D,                          // CopyObject
				0x0D, 'H', 'I', 0x00, // String("HI")
				'V', 'A', 'L', '0', // target: VAL0
			}
			err = eng.ExecuteTopLevel(body, tree.Root())
			Expect(err).NotTo(HaveOccurred())

			node, err := tree.Resolve(tree.Root(), "VAL0", false)
			Expect(err).NotTo(HaveOccurred())
			Expect(node.Object().Kind()).To(Equal(object.KindString))
			s, ok := node.Object().String()
			Expect(ok).To(BeTrue())
			Expect(s).To(Equal("HI"))
		})
	})
})
