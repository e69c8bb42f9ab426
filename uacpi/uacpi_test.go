package uacpi_test

import (
	"encoding/binary"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/CascadeOS/uACPI/config"
	"github.com/CascadeOS/uACPI/hostapi/testhost"
	"github.com/CascadeOS/uACPI/namespace"
	"github.com/CascadeOS/uACPI/object"
	"github.com/CascadeOS/uACPI/uacpi"
)

func TestUacpi(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "uacpi suite")
}

func buildTable(signature string, aml []byte) []byte {
	raw := make([]byte, 36+len(aml))
	copy(raw[0:4], signature)
	binary.LittleEndian.PutUint32(raw[4:8], uint32(len(raw)))
	raw[8] = 2
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

var _ = Describe("Context", func() {
	It("loads a table and evaluates a top-level Name", func() {
		c := uacpi.New(testhost.New(0), config.Default())

		aml := []byte{0x08, 'F', 'O', 'O', '_', 0x0A, 0x2A} // Name(FOO_, 42)
		handle, err := c.InstallTable(buildTable("SSDT", aml))
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Load(handle, nil)).To(Succeed())

		v, err := c.Evaluate(nil, "FOO_", nil)
		Expect(err).NotTo(HaveOccurred())
		n, ok := v.Integer()
		Expect(ok).To(BeTrue())
		Expect(n).To(Equal(uint64(42)))
	})

	It("rejects a typed evaluate when the kind doesn't match", func() {
		c := uacpi.New(testhost.New(0), config.Default())
		aml := []byte{0x08, 'F', 'O', 'O', '_', 0x0A, 0x2A}
		handle, err := c.InstallTable(buildTable("SSDT", aml))
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Load(handle, nil)).To(Succeed())

		_, err = c.EvaluateTyped(nil, "FOO_", nil, object.KindString)
		Expect(err).To(HaveOccurred())
	})

	It("installs and advertises an _OSI interface", func() {
		c := uacpi.New(testhost.New(0), config.Default())
		Expect(c.InstallInterface("Windows 2015", "")).To(Succeed())
		Expect(c.Tree().Interfaces.Supports("Windows 2015")).To(BeTrue())
	})

	It("reports node info for a device with no identification methods", func() {
		c := uacpi.New(testhost.New(0), config.Default())
		node, err := c.Tree().Install(c.Tree().Root(), namespace.NewName("DEV0"), object.NewDevice())
		Expect(err).NotTo(HaveOccurred())

		info, err := c.GetNodeInfo(node)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Kind).To(Equal(object.KindDevice))
		Expect(info.HID).To(BeEmpty())
	})

	It("pins and releases a table handle via Ref/Unref", func() {
		c := uacpi.New(testhost.New(0), config.Default())
		handle, err := c.InstallTable(buildTable("SSDT", []byte{}))
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Ref(handle)).To(Succeed())
		Expect(c.Unref(handle)).To(Succeed())
		Expect(c.Unref(handle)).To(HaveOccurred())
	})
})
