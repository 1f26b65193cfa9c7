package sse_test

import (
	"context"
	"errors"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/denguesense/pkg/sse"
)

func deltaLine(content string) string {
	return `data: {"choices":[{"delta":{"content":"` + content + `"}}]}` + "\n\n"
}

// feedAll feeds chunks in order and returns the concatenated fragments.
func feedAll(p *sse.ChunkParser, chunks ...string) (string, bool, error) {
	var out strings.Builder
	for _, chunk := range chunks {
		fragments, done, err := p.Feed([]byte(chunk))
		for _, f := range fragments {
			out.WriteString(f)
		}
		if err != nil || done {
			return out.String(), done, err
		}
	}
	return out.String(), false, p.Flush()
}

var _ = Describe("ChunkParser", func() {
	stream := deltaLine("Fever") + deltaLine(" and rash") + "data: [DONE]\n\n"

	Context("with arbitrary chunk boundaries", func() {
		It("reconstructs the same content for every two-way split", func() {
			for i := 0; i <= len(stream); i++ {
				content, done, err := feedAll(sse.NewChunkParser(), stream[:i], stream[i:])
				Expect(err).NotTo(HaveOccurred(), "split at %d", i)
				Expect(done).To(BeTrue(), "split at %d", i)
				Expect(content).To(Equal("Fever and rash"), "split at %d", i)
			}
		})

		It("reconstructs the same content when fed one byte at a time", func() {
			chunks := make([]string, 0, len(stream))
			for i := range len(stream) {
				chunks = append(chunks, stream[i:i+1])
			}

			content, done, err := feedAll(sse.NewChunkParser(), chunks...)
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeTrue())
			Expect(content).To(Equal("Fever and rash"))
		})

		It("parses JSON split across exactly two chunks once both arrive", func() {
			p := sse.NewChunkParser()

			fragments, done, err := p.Feed([]byte(`data: {"choices":[{"delta"`))
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeFalse())
			Expect(fragments).To(BeEmpty())

			fragments, done, err = p.Feed([]byte(`:{"content":"hi"}}]}` + "\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeFalse())
			Expect(fragments).To(Equal([]string{"hi"}))
		})

		It("buffers multi-byte runes split across chunks", func() {
			hindi := "डेंगू के लक्षण"
			input := deltaLine(hindi) + "data: [DONE]\n"

			for i := 0; i <= len(input); i++ {
				content, _, err := feedAll(sse.NewChunkParser(), input[:i], input[i:])
				Expect(err).NotTo(HaveOccurred(), "split at %d", i)
				Expect(content).To(Equal(hindi), "split at %d", i)
			}
		})
	})

	Context("with the done sentinel", func() {
		It("stops at [DONE] however it is split and ignores later data", func() {
			input := deltaLine("Drink water") + "data: [DONE]\n\n" + deltaLine(" ignored")

			for i := 0; i <= len(input); i++ {
				content, done, err := feedAll(sse.NewChunkParser(), input[:i], input[i:])
				Expect(err).NotTo(HaveOccurred(), "split at %d", i)
				Expect(done).To(BeTrue(), "split at %d", i)
				Expect(content).To(Equal("Drink water"), "split at %d", i)
			}
		})

		It("accepts surrounding whitespace around the sentinel", func() {
			_, done, err := feedAll(sse.NewChunkParser(), "data:  [DONE]  \r\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeTrue())
		})

		It("is a no-op after done", func() {
			p := sse.NewChunkParser()
			_, done, err := p.Feed([]byte("data: [DONE]\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeTrue())

			fragments, done, err := p.Feed([]byte(deltaLine("late")))
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeTrue())
			Expect(fragments).To(BeEmpty())
			Expect(p.Flush()).To(Succeed())
		})
	})

	Context("with lines that carry no fragment", func() {
		It("ignores comments, blank lines and other fields in any position", func() {
			input := ": open\n\n" + "event: ping\n" + deltaLine("Fever") + "   \n" + ": keep-alive\r\n" +
				"id: 7\n" + deltaLine(" and rash") + ":\n" + "data: [DONE]\n"

			content, done, err := feedAll(sse.NewChunkParser(), input)
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeTrue())
			Expect(content).To(Equal("Fever and rash"))
		})

		It("ignores data lines without the space after the colon", func() {
			content, _, err := feedAll(sse.NewChunkParser(), `data:{"choices":[{"delta":{"content":"x"}}]}`+"\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(BeEmpty())
		})

		It("treats valid JSON without a fragment as a no-op", func() {
			input := "data: {\"choices\":[]}\n" +
				"data: {\"choices\":[{\"delta\":{}}]}\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":\"\"}}]}\n" +
				"data: 42\n" +
				"data: {\"choices\":\"nope\"}\n" +
				deltaLine("ok")

			content, _, err := feedAll(sse.NewChunkParser(), input)
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal("ok"))
		})

		It("keeps the fragment when unrelated fields have unexpected types", func() {
			payloads := []string{
				`{"id":123,"choices":[{"delta":{"content":"hi"}}]}`,
				`{"choices":[{"index":"0","delta":{"content":"hi"}}]}`,
				`{"choices":[{"delta":{"content":"hi","role":7},"finish_reason":{"type":"stop"}}]}`,
				`{"object":["chunk"],"created":"now","choices":[{"delta":{"content":"hi"}},"second"]}`,
			}

			for _, payload := range payloads {
				fragments, _, err := sse.NewChunkParser().Feed([]byte("data: " + payload + "\n"))
				Expect(err).NotTo(HaveOccurred(), payload)
				Expect(fragments).To(Equal([]string{"hi"}), payload)
			}
		})

		It("ignores content that is not a string", func() {
			input := "data: {\"choices\":[{\"delta\":{\"content\":42}}]}\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":null}}]}\n" +
				"data: {\"choices\":[{\"delta\":\"text\"}]}\n" +
				deltaLine("ok")

			content, _, err := feedAll(sse.NewChunkParser(), input)
			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal("ok"))
		})

		It("strips CRLF line endings", func() {
			input := strings.ReplaceAll(stream, "\n", "\r\n")
			content, done, err := feedAll(sse.NewChunkParser(), input)
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeTrue())
			Expect(content).To(Equal("Fever and rash"))
		})

		It("discards an unterminated trailing line at end of stream", func() {
			content, done, err := feedAll(sse.NewChunkParser(), deltaLine("a")+`data: {"choices":[{"delta":{"content":"b"}}]}`)
			Expect(err).NotTo(HaveOccurred())
			Expect(done).To(BeFalse())
			Expect(content).To(Equal("a"))
		})
	})

	Context("with malformed payloads", func() {
		It("rolls the line back and holds later lines behind it", func() {
			p := sse.NewChunkParser()

			fragments, _, err := p.Feed([]byte("data: {not json\n" + deltaLine("after")))
			Expect(err).NotTo(HaveOccurred())
			Expect(fragments).To(BeEmpty())

			fragments, _, err = p.Feed([]byte(": keep-alive\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(fragments).To(BeEmpty())
			Expect(errors.Is(p.Flush(), sse.ErrMalformedEvent)).To(BeTrue())
		})

		It("escalates after the rollback limit", func() {
			p := sse.NewChunkParser(sse.WithMaxRollbacks(2))

			_, _, err := p.Feed([]byte("data: {not json\n"))
			Expect(err).NotTo(HaveOccurred())
			_, _, err = p.Feed([]byte(": more\n"))
			Expect(err).NotTo(HaveOccurred())
			_, _, err = p.Feed([]byte(": more\n"))
			Expect(errors.Is(err, sse.ErrMalformedEvent)).To(BeTrue())
		})

		It("reports a line still pending at end of stream", func() {
			p := sse.NewChunkParser()
			fragments, _, err := p.Feed([]byte(deltaLine("partial") + "data: {broken\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(fragments).To(Equal([]string{"partial"}))

			Expect(errors.Is(p.Flush(), sse.ErrMalformedEvent)).To(BeTrue())
		})

		It("bounds buffer growth", func() {
			p := sse.NewChunkParser(sse.WithMaxBufferBytes(32))
			_, _, err := p.Feed([]byte("data: " + strings.Repeat("x", 64)))
			Expect(errors.Is(err, sse.ErrBufferOverflow)).To(BeTrue())
		})
	})
})

var _ = Describe("Stream", func() {
	It("delivers every fragment from a one-byte-at-a-time reader", func() {
		input := deltaLine("Fever") + deltaLine(" and rash") + "data: [DONE]\n\n"
		var got []string

		err := sse.Stream(context.Background(), iotest.OneByteReader(strings.NewReader(input)), func(f string) {
			got = append(got, f)
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Join(got, "")).To(Equal("Fever and rash"))
	})

	It("returns read errors after delivering earlier fragments", func() {
		input := deltaLine("Drink water")
		src := iotest.TimeoutReader(strings.NewReader(input))
		var got []string

		err := sse.Stream(context.Background(), src, func(f string) {
			got = append(got, f)
		})
		Expect(err).To(MatchError(ContainSubstring("reading stream")))
		Expect(got).To(Equal([]string{"Drink water"}))
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := sse.Stream(ctx, strings.NewReader(deltaLine("x")), func(string) {})
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
})
