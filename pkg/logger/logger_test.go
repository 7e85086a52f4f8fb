package logger

import (
	"context"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("Logger", func() {
	It("maps level names", func() {
		Expect(parseLevel("debug")).To(Equal(slog.LevelDebug))
		Expect(parseLevel("WARN")).To(Equal(slog.LevelWarn))
		Expect(parseLevel("error")).To(Equal(slog.LevelError))
		Expect(parseLevel("")).To(Equal(slog.LevelInfo))
	})

	It("falls back to the default logger when the context has none", func() {
		Expect(From(context.Background())).NotTo(BeNil())
	})

	It("stores a derived logger in the context", func() {
		ctx := With(context.Background(), "traceID", "abc")
		Expect(From(ctx)).NotTo(BeIdenticalTo(LoggerWrapper()))
	})
})
