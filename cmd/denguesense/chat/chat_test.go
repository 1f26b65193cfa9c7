package chatcmder_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/denguesense/cmd/denguesense/chat"
	"github.com/papercomputeco/denguesense/pkg/dotdir"
	"github.com/papercomputeco/denguesense/pkg/llm"
)

var _ = Describe("chat command", func() {
	var (
		configDir string
		backend   *httptest.Server
		failing   bool

		mu       sync.Mutex
		requests []llm.ChatRequest
		auth     []string
	)

	run := func(input string, args ...string) (stdout, stderr string, err error) {
		root := &cobra.Command{Use: "denguesense", SilenceUsage: true, SilenceErrors: true}
		root.PersistentFlags().BoolP("debug", "d", false, "")
		root.PersistentFlags().String("config-dir", "", "")
		root.AddCommand(chatcmder.NewChatCmd())

		var out, errOut bytes.Buffer
		root.SetIn(strings.NewReader(input))
		root.SetOut(&out)
		root.SetErr(&errOut)
		root.SetArgs(append([]string{
			"chat",
			"--config-dir", configDir,
			"--endpoint", backend.URL,
			"--api-key", "chat-key",
		}, args...))

		err = root.Execute()
		return out.String(), errOut.String(), err
	}

	BeforeEach(func() {
		var err error
		configDir, err = os.MkdirTemp("", "denguesense-chat-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = os.RemoveAll(configDir) })

		failing = false
		requests = nil
		auth = nil

		backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			var req llm.ChatRequest
			_ = json.Unmarshal(body, &req)

			mu.Lock()
			requests = append(requests, req)
			auth = append(auth, r.Header.Get("Authorization"))
			fail := failing
			mu.Unlock()

			if fail {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, `data: {"choices":[{"delta":{"content":"Fever"}}]}`+"\n\n")
			fmt.Fprint(w, `data: {"choices":[{"delta":{"content":" and rash"}}]}`+"\n\n")
			fmt.Fprint(w, "data: [DONE]\n\n")
		}))
		DeferCleanup(backend.Close)
	})

	It("streams the reply and saves the transcript", func() {
		stdout, _, err := run("What are dengue symptoms?\n/exit\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout).To(ContainSubstring("DengueSense Health Assistant"))
		Expect(stdout).To(ContainSubstring("Fever and rash"))

		mu.Lock()
		Expect(requests).To(HaveLen(1))
		Expect(requests[0].Messages).To(Equal([]llm.Message{
			llm.NewTextMessage(llm.RoleUser, "What are dengue symptoms?"),
		}))
		Expect(auth[0]).To(Equal("Bearer chat-key"))
		mu.Unlock()

		t, err := dotdir.NewManager().LoadTranscript(configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(t).NotTo(BeNil())
		Expect(t.Messages).To(HaveLen(2))
		Expect(t.Messages[1].Content).To(Equal("Fever and rash"))
	})

	It("sends the saved history with --resume", func() {
		_, _, err := run("What are dengue symptoms?\n")
		Expect(err).NotTo(HaveOccurred())

		stdout, _, err := run("And treatment?\n", "--resume")
		Expect(err).NotTo(HaveOccurred())
		Expect(stdout).To(ContainSubstring("Resuming conversation"))

		mu.Lock()
		defer mu.Unlock()
		Expect(requests).To(HaveLen(2))
		Expect(requests[1].Messages).To(HaveLen(3))
		Expect(requests[1].Messages[2].Content).To(Equal("And treatment?"))
	})

	It("discards the saved history with --new", func() {
		_, _, err := run("What are dengue symptoms?\n")
		Expect(err).NotTo(HaveOccurred())

		_, _, err = run("", "--new", "--resume")
		Expect(err).NotTo(HaveOccurred())

		_, err = os.Stat(filepath.Join(configDir, "transcript.json"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("raises a toast when the backend fails and keeps the user message", func() {
		mu.Lock()
		failing = true
		mu.Unlock()

		_, stderr, err := run("Hello?\n")
		Expect(err).NotTo(HaveOccurred())
		Expect(stderr).To(ContainSubstring("Failed to get response. Please try again."))

		t, err := dotdir.NewManager().LoadTranscript(configDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Messages).To(Equal([]llm.Message{llm.NewTextMessage(llm.RoleUser, "Hello?")}))
	})
})
