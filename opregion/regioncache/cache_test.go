package regioncache_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/CascadeOS/uACPI/opregion/regioncache"
)

func TestRegionCache(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "regioncache suite")
}

// fakeBacking is a byte-addressable in-memory stand-in for a real
// address-space handler.
type fakeBacking struct {
	mem   map[uint64]byte
	reads int
}

func newFakeBacking() *fakeBacking { return &fakeBacking{mem: map[uint64]byte{}} }

func (b *fakeBacking) Read(addr uint64, size int) ([]byte, error) {
	b.reads++
	out := make([]byte, size)
	for i := 0; i < size; i++ {
		out[i] = b.mem[addr+uint64(i)]
	}
	return out, nil
}

func (b *fakeBacking) Write(addr uint64, data []byte) error {
	for i, v := range data {
		b.mem[addr+uint64(i)] = v
	}
	return nil
}

var _ = Describe("Cache", func() {
	var (
		c       *regioncache.Cache
		backing *fakeBacking
	)

	BeforeEach(func() {
		backing = newFakeBacking()
		c = regioncache.New(regioncache.Config{Size: 256, Associativity: 4, BlockSize: 16}, backing)
	})

	It("misses on a cold line and reads through to the backing store", func() {
		backing.mem[0x10] = 0xAD
		result, err := c.Read(0x10, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Hit).To(BeFalse())
		Expect(result.Data).To(Equal(uint64(0xAD)))
		Expect(backing.reads).To(Equal(1))
	})

	It("hits on a warm line without re-touching the backing store", func() {
		backing.mem[0x10] = 0xAD
		_, err := c.Read(0x10, 1)
		Expect(err).NotTo(HaveOccurred())

		result, err := c.Read(0x10, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Hit).To(BeTrue())
		Expect(result.Data).To(Equal(uint64(0xAD)))
		Expect(backing.reads).To(Equal(1))
	})

	It("writes straight through to the backing store and keeps the line coherent", func() {
		_, err := c.Write(0x20, 2, 0xBEEF)
		Expect(err).NotTo(HaveOccurred())
		Expect(backing.mem[0x20]).To(Equal(byte(0xEF)))
		Expect(backing.mem[0x21]).To(Equal(byte(0xBE)))

		result, err := c.Read(0x20, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Data).To(Equal(uint64(0xBEEF)))
	})

	It("forces a re-read from the backing store after Invalidate", func() {
		backing.mem[0x30] = 1
		_, _ = c.Read(0x30, 1)
		backing.mem[0x30] = 2
		c.Invalidate(0x30)

		result, err := c.Read(0x30, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Hit).To(BeFalse())
		Expect(result.Data).To(Equal(uint64(2)))
	})
})
