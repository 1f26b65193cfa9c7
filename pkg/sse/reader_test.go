package sse_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/denguesense/pkg/sse"
)

var _ = Describe("TeeReader", func() {
	var dst *bytes.Buffer

	BeforeEach(func() {
		dst = &bytes.Buffer{}
	})

	Describe("Next", func() {
		It("parses assistant completion chunks and the done sentinel", func() {
			input := "data: {\"choices\":[{\"delta\":{\"content\":\"Fever\"}}]}\n\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":\" and rash\"}}]}\n\n" +
				"data: [DONE]\n\n"
			r := sse.NewTeeReader(strings.NewReader(input), dst)

			ev1, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev1.Data).To(ContainSubstring("Fever"))
			Expect(ev1.IsDone()).To(BeFalse())

			ev2, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev2.Data).To(ContainSubstring(" and rash"))

			ev3, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev3.IsDone()).To(BeTrue())

			ev4, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev4).To(BeNil())
		})

		It("parses event type and ID", func() {
			r := sse.NewTeeReader(strings.NewReader("event: delta\nid: 42\ndata: hello\n\n"), dst)

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Type).To(Equal("delta"))
			Expect(ev.ID).To(Equal("42"))
			Expect(ev.Data).To(Equal("hello"))
		})

		It("joins multiple data lines with newline", func() {
			r := sse.NewTeeReader(strings.NewReader("data: one\ndata: two\n\n"), dst)

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Data).To(Equal("one\ntwo"))
		})

		It("strips carriage returns from CRLF framed lines", func() {
			r := sse.NewTeeReader(strings.NewReader("data: hi\r\n\n"), dst)

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Data).To(Equal("hi"))
		})

		It("ignores comments and unknown fields", func() {
			r := sse.NewTeeReader(strings.NewReader(": keep-alive\nretry: 3000\ndata: hello\n\n"), dst)

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Data).To(Equal("hello"))
		})

		It("yields an event when the stream ends without a blank line", func() {
			r := sse.NewTeeReader(strings.NewReader("data: unterminated"), dst)

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Data).To(Equal("unterminated"))

			ev, err = r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(BeNil())
		})

		It("returns nil on input with only blank lines", func() {
			r := sse.NewTeeReader(strings.NewReader("\n\n\n"), dst)

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(BeNil())
		})

		It("errors on lines longer than the configured maximum", func() {
			long := "data: " + strings.Repeat("x", 128) + "\n\n"
			r := sse.NewTeeReader(strings.NewReader(long), dst, sse.WithMaxLineSize(64))

			_, err := r.Next()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("forwarding", func() {
		It("forwards every byte verbatim including comments", func() {
			input := ": comment\ndata: first\n\ndata: [DONE]\n\n"
			r := sse.NewTeeReader(strings.NewReader(input), dst)

			for {
				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				if ev == nil {
					break
				}
			}

			Expect(dst.String()).To(Equal(input))
			Expect(r.Forwarded()).To(Equal(int64(len(input))))
		})
	})
})
