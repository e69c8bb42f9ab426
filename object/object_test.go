package object_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/CascadeOS/uACPI/object"
)

// snapshot renders o's value, recursively, as plain comparable Go data —
// Object itself carries a mutex and refcount that have no business in a
// value-equality diff, so round-trip assertions compare snapshots instead.
func snapshot(o *object.Object) any {
	switch o.Kind() {
	case object.KindInteger:
		v, _ := o.Integer()
		return v
	case object.KindString:
		s, _ := o.String()
		return s
	case object.KindBuffer:
		b, _ := o.Bytes()
		return append([]byte(nil), b...)
	case object.KindPackage:
		elems, _ := o.Package()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = snapshot(e)
		}
		return out
	default:
		return o.Kind()
	}
}

func TestObject(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "object suite")
}

var _ = Describe("Object", func() {
	Describe("refcounting", func() {
		It("starts at one and frees Package elements on release", func() {
			child := object.NewInteger(7)
			pkg := object.NewPackage([]*object.Object{child})
			Expect(pkg.RefCount()).To(Equal(int32(1)))
			Expect(child.RefCount()).To(Equal(int32(2))) // caller + package

			pkg.Release()
			Expect(child.RefCount()).To(Equal(int32(1)))
		})
	})

	Describe("StoreInto", func() {
		It("preserves a named String's length, truncating a longer source", func() {
			// Name TEST "XXXX"; TEST = "LONGSTRING"; Return(TEST) -> "LONG"
			dst := object.NewString("XXXX")
			src := object.NewString("LONGSTRING")
			Expect(object.StoreInto(dst, src, object.Revision2)).To(Succeed())
			s, _ := dst.String()
			Expect(s).To(Equal("LONG"))
		})

		It("preserves a named String's zero length", func() {
			// Name VAL ""; VAL = "FOO"; Return(VAL) -> ""
			dst := object.NewString("")
			src := object.NewString("FOO")
			Expect(object.StoreInto(dst, src, object.Revision2)).To(Succeed())
			s, _ := dst.String()
			Expect(s).To(Equal(""))
		})

		It("stores an Integer into a String as its little-endian bytes", func() {
			// Name TEST "BAR"; TEST = 0x4F4F46; Return(TEST) -> "FOO"
			dst := object.NewString("BAR")
			src := object.NewInteger(0x4F4F46)
			Expect(object.StoreInto(dst, src, object.Revision2)).To(Succeed())
			s, _ := dst.String()
			Expect(s).To(Equal("FOO"))
		})
	})

	Describe("reference rebind", func() {
		It("does not write through a reference on plain Store to the holder", func() {
			local0 := &object.Slot{Obj: object.NewInteger(123)}
			ref := object.NewSlotReference(object.RefLocal, local0)

			// Local1 = ref; Local1 = 321 -- a bare assignment to Local1
			// (simulated here as directly replacing the slot holding ref)
			// must not touch local0.
			local1 := &object.Slot{Obj: ref}
			local1.Obj = object.NewInteger(321) // slot rebind, not deref-write

			v, _ := local0.Obj.Integer()
			Expect(v).To(Equal(uint64(123)))
		})

		It("modifies the referent on Increment through a reference", func() {
			local0 := &object.Slot{Obj: object.NewInteger(123)}
			ref := object.NewSlotReference(object.RefLocal, local0)

			updated, err := object.IncrementReferent(ref, 1)
			Expect(err).NotTo(HaveOccurred())
			v, _ := updated.Integer()
			Expect(v).To(Equal(uint64(124)))

			v0, _ := local0.Obj.Integer()
			Expect(v0).To(Equal(uint64(124)))
		})

		It("returns a valid value from a method-returned Local reference", func() {
			local0 := &object.Slot{Obj: object.NewInteger(42)}
			ref := object.NewSlotReference(object.RefLocal, local0)
			resolved, err := object.ResolveChain(ref, 8)
			Expect(err).NotTo(HaveOccurred())
			v, _ := resolved.Integer()
			Expect(v).To(Equal(uint64(42)))
		})
	})

	Describe("ResolveChain", func() {
		It("yields the ultimate target of a reference-to-reference", func() {
			leaf := object.NewInteger(99)
			slot := &object.Slot{Obj: leaf}
			r1 := object.NewSlotReference(object.RefLocal, slot)
			r2 := object.NewRefOfRef(r1)

			resolved, err := object.ResolveChain(r2, 8)
			Expect(err).NotTo(HaveOccurred())
			v, _ := resolved.Integer()
			Expect(v).To(Equal(uint64(99)))
		})

		It("fails closed on chains deeper than the configured max", func() {
			leaf := object.NewInteger(1)
			cur := leaf
			for i := 0; i < 5; i++ {
				slot := &object.Slot{Obj: cur}
				cur = object.NewSlotReference(object.RefLocal, slot)
			}
			_, err := object.ResolveChain(cur, 2)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("deep copies Package elements by value", func() {
			orig := object.NewPackage([]*object.Object{object.NewInteger(5)})
			clone := object.CopyObject(orig)

			elems, _ := clone.Package()
			v, _ := elems[0].Integer()
			Expect(v).To(Equal(uint64(5)))

			// Mutating the clone's element must not affect the original.
			elems[0].SetInteger(9)
			origElems, _ := orig.Package()
			origV, _ := origElems[0].Integer()
			Expect(origV).To(Equal(uint64(5)))
		})

		It("round-trips a nested Package's value exactly, per CopyObject(x, Y); Y equals x by value", func() {
			inner := object.NewPackage([]*object.Object{object.NewInteger(1), object.NewString("a")})
			src := object.NewPackage([]*object.Object{object.NewInteger(7), inner, object.NewBuffer([]byte{1, 2, 3})})

			clone := object.Clone(src)
			if diff := cmp.Diff(snapshot(src), snapshot(clone)); diff != "" {
				Fail("clone value mismatch (-src +clone):\n" + diff)
			}
		})

		It("clones a Reference by target identity, not by dereferencing", func() {
			slot := &object.Slot{Obj: object.NewInteger(1)}
			ref := object.NewSlotReference(object.RefLocal, slot)
			clone := object.Clone(ref)
			Expect(clone.Kind()).To(Equal(object.KindReference))

			slot.Obj.SetInteger(2)
			cloneRef, _ := clone.Reference()
			resolved := cloneRef.Target.Get()
			v, _ := resolved.Integer()
			Expect(v).To(Equal(uint64(2)))
		})
	})

	Describe("index references", func() {
		It("writes and reads a Package element through an index reference", func() {
			pkg := object.NewPackage([]*object.Object{object.NewInteger(0)})
			elems, _ := pkg.Package()
			_ = elems
			ref, err := object.NewIndexReference(pkg, 0)
			Expect(err).NotTo(HaveOccurred())

			r, _ := ref.Reference()
			r.Target.Set(object.NewInteger(50))

			resolved := r.Target.Get()
			v, _ := resolved.Integer()
			Expect(v).To(Equal(uint64(50)))
		})
	})
})
