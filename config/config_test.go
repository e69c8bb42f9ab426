package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/CascadeOS/uACPI/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "config suite")
}

var _ = Describe("InitOptions", func() {
	It("defaults pass validation", func() {
		Expect(config.Default().Validate()).To(Succeed())
	})

	It("round-trips through YAML", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "init.yaml")

		opts := config.Default()
		opts.LogLevel = 2
		opts.StrictMode = true
		Expect(opts.Save(path)).To(Succeed())

		loaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.LogLevel).To(Equal(2))
		Expect(loaded.StrictMode).To(BeTrue())
		Expect(loaded.MethodCallDepthLimit).To(Equal(opts.MethodCallDepthLimit))
	})

	It("overrides only the fields a partial file sets", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "partial.yaml")
		Expect(os.WriteFile(path, []byte("log_level: 3\n"), 0o644)).To(Succeed())

		loaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.LogLevel).To(Equal(3))
		Expect(loaded.MethodCallDepthLimit).To(Equal(config.Default().MethodCallDepthLimit))
	})

	It("rejects a zero method call depth limit", func() {
		opts := config.Default()
		opts.MethodCallDepthLimit = 0
		Expect(opts.Validate()).To(HaveOccurred())
	})
})
