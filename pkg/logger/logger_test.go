package logger

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zapcore"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("New", func() {
	It("should honour the requested level", func() {
		log, err := New("debug")
		Expect(err).NotTo(HaveOccurred())
		Expect(log.Core().Enabled(zapcore.DebugLevel)).To(BeTrue())
	})

	It("should default to info", func() {
		log, err := New("")
		Expect(err).NotTo(HaveOccurred())
		Expect(log.Core().Enabled(zapcore.DebugLevel)).To(BeFalse())
		Expect(log.Core().Enabled(zapcore.InfoLevel)).To(BeTrue())
	})

	It("should reject unknown levels", func() {
		_, err := New("loud")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Named", func() {
	It("should fall back to a no-op logger", func() {
		Expect(Named(nil, "svc")).NotTo(BeNil())
	})
})
