package acpilog_test

import (
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/CascadeOS/uACPI/acpilog"
)

func TestAcpilog(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "acpilog suite")
}

var _ = Describe("Logger", func() {
	It("builds a default console logger without panicking", func() {
		l := acpilog.New()
		Expect(l).NotTo(BeNil())
		l.Info("table loaded", "signature", "DSDT")
		l.Error(errors.New("bad checksum"), "table rejected", "signature", "SSDT")
	})

	It("V returns a logger of the same shape", func() {
		l := acpilog.New(acpilog.WithName("uacpi"), acpilog.WithVerbosity(1))
		v := l.V(2)
		Expect(v).NotTo(BeNil())
		v.Info("verbose detail")
	})
})
