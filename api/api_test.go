package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/denguesense/pkg/eventstream"
	"github.com/papercomputeco/denguesense/pkg/fixtures"
	"github.com/papercomputeco/denguesense/pkg/llm"
	"github.com/papercomputeco/denguesense/pkg/logger"
	"github.com/papercomputeco/denguesense/pkg/report"
	"github.com/papercomputeco/denguesense/pkg/risk"
	"github.com/papercomputeco/denguesense/pkg/storage/inmemory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.ReportSubmittedEvent
}

func (r *recordingPublisher) PublishReport(_ context.Context, event *eventstream.ReportSubmittedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) published() []*eventstream.ReportSubmittedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*eventstream.ReportSubmittedEvent(nil), r.events...)
}

// newTestServer builds a server over the default fixtures with an instant,
// seeded analyzer.
func newTestServer(mutate ...func(*Config)) (*Server, *recordingPublisher) {
	set := fixtures.Default()
	pub := &recordingPublisher{}

	cfg := Config{
		ListenAddr: ":0",
		Hotspots:   set,
		Analytics:  set,
		Impact:     set,
		Publisher:  pub,
		Analyzer: risk.NewMockAnalyzer(risk.MockAnalyzerConfig{
			Delay: -1,
			Rand:  rand.New(rand.NewPCG(1, 2)),
		}),
	}
	for _, m := range mutate {
		m(&cfg)
	}

	seed := fixtures.DefaultData(time.Now()).Reports
	s, err := NewServer(cfg, inmemory.NewDriver(seed...), logger.Nop())
	Expect(err).NotTo(HaveOccurred())
	return s, pub
}

func doJSON(s *Server, method, path string, body any) (*http.Response, []byte) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.app.Test(req, -1)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp, out
}

func pngBytes() []byte {
	var buf bytes.Buffer
	Expect(png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2)))).To(Succeed())
	return buf.Bytes()
}

func multipartUpload(field, filename string, data []byte) *http.Request {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	Expect(err).NotTo(HaveOccurred())
	_, err = part.Write(data)
	Expect(err).NotTo(HaveOccurred())
	Expect(w.Close()).To(Succeed())

	req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

var _ = Describe("NewServer", func() {
	It("requires a storage driver", func() {
		set := fixtures.Default()
		_, err := NewServer(Config{Hotspots: set, Analytics: set}, nil, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("storage driver is required")))
	})

	It("requires hotspot and analytics sources", func() {
		set := fixtures.Default()
		_, err := NewServer(Config{Analytics: set}, inmemory.NewDriver(), logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("hotspot source is required")))

		_, err = NewServer(Config{Hotspots: set}, inmemory.NewDriver(), logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("analytics source is required")))
	})
})

var _ = Describe("API Server", func() {
	var (
		server *Server
		pub    *recordingPublisher
	)

	BeforeEach(func() {
		server, pub = newTestServer()
	})

	AfterEach(func() {
		_ = server.Shutdown()
	})

	Describe("GET /ping", func() {
		It("answers pong", func() {
			resp, body := doJSON(server, http.MethodGet, "/ping", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(Equal(`"pong"`))
		})
	})

	Describe("GET /hotspots", func() {
		It("lists every hotspot by default", func() {
			resp, body := doJSON(server, http.MethodGet, "/hotspots", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out HotspotsResponse
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Filter).To(Equal("all"))
			Expect(out.Count).To(Equal(5))
			Expect(out.TotalCases).To(Equal(29))
		})

		It("filters by risk level", func() {
			_, body := doJSON(server, http.MethodGet, "/hotspots?risk=medium", nil)

			var out HotspotsResponse
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Count).To(Equal(2))
			for _, h := range out.Hotspots {
				Expect(h.Risk).To(Equal(risk.LevelMedium))
			}
		})

		It("rejects an unknown filter", func() {
			resp, body := doJSON(server, http.MethodGet, "/hotspots?risk=extreme", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(string(body)).To(ContainSubstring("invalid hotspot filter"))
		})
	})

	Describe("reports", func() {
		submission := report.Submission{
			Type:        report.TypeBreedingSite,
			Location:    "  Sector 15, Block C  ",
			Description: "Water collected in old tyres",
		}

		It("lists the seeded reports", func() {
			resp, body := doJSON(server, http.MethodGet, "/reports", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out ReportsResponse
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Count).To(Equal(3))
		})

		It("creates a pending report listed first and publishes an event", func() {
			resp, body := doJSON(server, http.MethodPost, "/reports", submission)
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var created report.Report
			Expect(json.Unmarshal(body, &created)).To(Succeed())
			Expect(created.ID).NotTo(BeEmpty())
			Expect(created.Status).To(Equal(report.StatusPending))
			Expect(created.Location).To(Equal("Sector 15, Block C"))

			_, body = doJSON(server, http.MethodGet, "/reports", nil)
			var out ReportsResponse
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Count).To(Equal(4))
			Expect(out.Reports[0].ID).To(Equal(created.ID))

			_ = server.Shutdown()
			events := pub.published()
			Expect(events).To(HaveLen(1))
			Expect(events[0].EventType).To(Equal(eventstream.EventTypeReportSubmitted))
			Expect(events[0].Report.ID).To(Equal(created.ID))
			Expect(events[0].Source.Service).To(Equal("api"))
		})

		It("rejects an invalid submission without publishing", func() {
			resp, body := doJSON(server, http.MethodPost, "/reports", report.Submission{Type: "flood"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(string(body)).To(ContainSubstring("invalid report"))

			_ = server.Shutdown()
			Expect(pub.published()).To(BeEmpty())
		})

		It("rejects a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/reports", strings.NewReader("{"))
			req.Header.Set("Content-Type", "application/json")
			resp, err := server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("gets and updates a report by ID", func() {
			_, body := doJSON(server, http.MethodPost, "/reports", submission)
			var created report.Report
			Expect(json.Unmarshal(body, &created)).To(Succeed())

			resp, body := doJSON(server, http.MethodGet, "/reports/"+created.ID, nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(ContainSubstring(created.ID))

			resp, body = doJSON(server, http.MethodPatch, "/reports/"+created.ID, StatusUpdate{Status: "verified"})
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var updated report.Report
			Expect(json.Unmarshal(body, &updated)).To(Succeed())
			Expect(updated.Status).To(Equal(report.StatusVerified))
		})

		It("answers 404 for unknown reports", func() {
			resp, _ := doJSON(server, http.MethodGet, "/reports/missing", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

			resp, _ = doJSON(server, http.MethodPatch, "/reports/missing", StatusUpdate{Status: "resolved"})
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})

		It("rejects an unknown status", func() {
			resp, _ := doJSON(server, http.MethodPatch, "/reports/1", StatusUpdate{Status: "archived"})
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /analytics", func() {
		It("returns the dashboard with derived totals", func() {
			resp, body := doJSON(server, http.MethodGet, "/analytics", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out AnalyticsResponse
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Overview).To(HaveLen(4))
			Expect(out.WeeklyCases).To(Equal(74))
			Expect(out.WeeklySites).To(Equal(110))
			Expect(out.PeakMonth).NotTo(BeNil())
			Expect(out.PeakMonth.Month).To(Equal("Apr"))
		})
	})

	Describe("GET /impact", func() {
		It("returns impact stats with the weekly percentage", func() {
			resp, body := doJSON(server, http.MethodGet, "/impact", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out ImpactResponse
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.SitesFound).To(Equal(5))
			Expect(out.WeeklyPercent).To(Equal(50))
		})

		It("answers 503 without an impact source", func() {
			s, _ := newTestServer(func(c *Config) { c.Impact = nil })
			defer func() { _ = s.Shutdown() }()

			resp, _ := doJSON(s, http.MethodGet, "/impact", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Describe("POST /analyze", func() {
		It("analyzes an image upload", func() {
			resp, err := server.app.Test(multipartUpload("image", "site.png", pngBytes()), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var out AnalyzeResponse
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(risk.Levels).To(ContainElement(out.Level))
			Expect(out.Confidence).To(BeNumerically(">=", 85))
			Expect(out.Confidence).To(BeNumerically("<", 100))
			Expect(out.DetectedIssues).To(Equal(risk.IssuesFor(out.Level)))
			Expect(out.Advice).To(Equal(risk.AdviceFor(out.Level)))
			Expect(out.Presentation.Label).NotTo(BeEmpty())
		})

		It("rejects a non-image upload", func() {
			resp, err := server.app.Test(multipartUpload("image", "notes.txt", []byte("just some text")), -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(ContainSubstring("please upload an image file"))
		})

		It("requires the image field", func() {
			resp, err := server.app.Test(multipartUpload("photo", "site.png", pngBytes()), -1)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /metrics", func() {
		It("exposes request metrics", func() {
			doJSON(server, http.MethodGet, "/ping", nil)

			resp, body := doJSON(server, http.MethodGet, "/metrics", nil)
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(string(body)).To(ContainSubstring("denguesense_http_requests_total"))
			Expect(string(body)).To(ContainSubstring(`route="/ping"`))
		})
	})
})

var _ = Describe("POST /assistant", func() {
	var (
		server   *Server
		backend  *httptest.Server
		gotAuth  string
		gotBody  []byte
		events   []string
		status   int
		errBody  string
		reqMutex sync.Mutex
	)

	chatBody := llm.ChatRequest{Messages: []llm.Message{llm.NewTextMessage(llm.RoleUser, "What are dengue symptoms?")}}

	BeforeEach(func() {
		status = http.StatusOK
		errBody = `{"error":"rate limited"}`
		events = []string{
			"data: {\"choices\":[{\"delta\":{\"content\":\"Fever\"}}]}\n\n",
			": keep-alive\n\n",
			"data: {\"choices\":[{\"delta\":{\"content\":\" and rash\"}}]}\n\n",
			"data: [DONE]\n\n",
		}

		backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqMutex.Lock()
			gotAuth = r.Header.Get("Authorization")
			gotBody, _ = io.ReadAll(r.Body)
			reqMutex.Unlock()

			if status != http.StatusOK {
				w.WriteHeader(status)
				fmt.Fprint(w, errBody)
				return
			}

			w.Header().Set("Content-Type", "text/event-stream")
			flusher := w.(http.Flusher)
			for _, ev := range events {
				fmt.Fprint(w, ev)
				flusher.Flush()
			}
		}))

		server, _ = newTestServer(func(c *Config) {
			c.AssistantEndpoint = backend.URL
			c.AssistantAPIKey = "server-key"
		})
	})

	AfterEach(func() {
		_ = server.Shutdown()
		backend.Close()
	})

	post := func(body any, header map[string]string) (*http.Response, string) {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())

		req := httptest.NewRequest(http.MethodPost, "/assistant", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		for k, v := range header {
			req.Header.Set(k, v)
		}

		resp, err := server.app.Test(req, -1)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		out, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, string(out)
	}

	It("streams the backend SSE body back verbatim", func() {
		resp, body := post(chatBody, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
		Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/event-stream"))
		Expect(body).To(Equal(strings.Join(events, "")))
	})

	It("sends the server key instead of client credentials", func() {
		post(chatBody, map[string]string{"Authorization": "Bearer from-browser"})

		reqMutex.Lock()
		defer reqMutex.Unlock()
		Expect(gotAuth).To(Equal("Bearer server-key"))

		var forwarded llm.ChatRequest
		Expect(json.Unmarshal(gotBody, &forwarded)).To(Succeed())
		Expect(forwarded.Messages).To(Equal(chatBody.Messages))
	})

	It("relays backend error statuses", func() {
		status = http.StatusTooManyRequests

		resp, body := post(chatBody, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusTooManyRequests))
		Expect(body).To(ContainSubstring("rate limited"))
	})

	It("truncates large backend error bodies", func() {
		status = http.StatusBadGateway
		errBody = strings.Repeat("x", 3*maxUpstreamErrorBytes)

		resp, body := post(chatBody, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))
		Expect(body).To(HaveLen(maxUpstreamErrorBytes))
	})

	It("rejects a request without messages", func() {
		resp, _ := post(llm.ChatRequest{}, nil)
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("answers 503 when no backend is configured", func() {
		s, _ := newTestServer()
		defer func() { _ = s.Shutdown() }()

		resp, _ := doJSON(s, http.MethodPost, "/assistant", chatBody)
		Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
	})
})
