package testhost_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/sys/unix"

	"github.com/CascadeOS/uACPI/hostapi"
	"github.com/CascadeOS/uACPI/hostapi/testhost"
)

func TestTesthost(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "testhost suite")
}

var _ = Describe("New", func() {
	It("populates every hostapi.Host field", func() {
		h := testhost.New(0)
		Expect(h.Memory).NotTo(BeNil())
		Expect(h.IO).NotTo(BeNil())
		Expect(h.PCI).NotTo(BeNil())
		Expect(h.Clock).NotTo(BeNil())
		Expect(h.Threads).NotTo(BeNil())
		Expect(h.Alloc).NotTo(BeNil())
		Expect(h.Interrupts).NotTo(BeNil())
		Expect(h.NewMutex).NotTo(BeNil())
		Expect(h.NewEvent).NotTo(BeNil())
		Expect(h.NewSpinlock).NotTo(BeNil())
	})
})

var _ = Describe("IOPorts", func() {
	It("round-trips a written value masked to the access width", func() {
		p := testhost.NewIOPorts()
		Expect(p.Out(0x60, 1, 0x1FF)).To(Succeed())
		v, err := p.In(0x60, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(0xFF)))
	})
})

var _ = Describe("PCI", func() {
	It("round-trips a config write at a given address", func() {
		p := testhost.NewPCI()
		addr := hostapi.PCIAddress{Bus: 0, Device: 2, Function: 0, Offset: 0x10}
		Expect(p.WriteConfig(addr, 4, 0xDEADBEEF)).To(Succeed())
		v, err := p.ReadConfig(addr, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(0xDEADBEEF)))
	})
})

var _ = Describe("Clock", func() {
	It("advances monotonically", func() {
		c := testhost.NewClock()
		t0 := c.Now100ns()
		c.Sleep(time.Millisecond)
		t1 := c.Now100ns()
		Expect(t1).To(BeNumerically(">", t0))
	})
})

var _ = Describe("MemoryMapper", func() {
	It("maps bytes written to the backing memfd", func() {
		fd, err := unix.MemfdCreate("uacpi-testhost", 0)
		if err != nil {
			Skip("memfd_create unavailable in this sandbox: " + err.Error())
		}
		defer unix.Close(fd)
		Expect(unix.Ftruncate(fd, 4096)).To(Succeed())
		_, err = unix.Pwrite(fd, []byte{0xDE, 0xAD, 0xBE, 0xEF}, 0)
		Expect(err).NotTo(HaveOccurred())

		m := testhost.NewMemoryMapper(fd)
		data, err := m.Map(0, 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte{0xDE, 0xAD, 0xBE, 0xEF}))
		Expect(m.Unmap(data)).To(Succeed())
	})
})
