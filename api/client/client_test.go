package client_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"math/rand/v2"
	"net"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/denguesense/api"
	"github.com/papercomputeco/denguesense/api/client"
	"github.com/papercomputeco/denguesense/pkg/fixtures"
	"github.com/papercomputeco/denguesense/pkg/logger"
	"github.com/papercomputeco/denguesense/pkg/report"
	"github.com/papercomputeco/denguesense/pkg/risk"
	"github.com/papercomputeco/denguesense/pkg/storage/inmemory"
)

var _ = Describe("New", func() {
	It("rejects targets without scheme or host", func() {
		_, err := client.New("localhost:8081", nil)
		Expect(err).To(HaveOccurred())

		_, err = client.New("://bad", nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Client against a running server", func() {
	var (
		server *api.Server
		c      *client.Client
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		set := fixtures.Default()

		var err error
		server, err = api.NewServer(api.Config{
			Hotspots:  set,
			Analytics: set,
			Impact:    set,
			Analyzer: risk.NewMockAnalyzer(risk.MockAnalyzerConfig{
				Delay: -1,
				Rand:  rand.New(rand.NewPCG(3, 4)),
			}),
		}, inmemory.NewDriver(fixtures.DefaultData(time.Now()).Reports...), logger.Nop())
		Expect(err).NotTo(HaveOccurred())

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		go func() { _ = server.RunWithListener(ln) }()

		target := "http://" + ln.Addr().String()
		Eventually(func() error {
			resp, err := http.Get(target + "/ping")
			if err != nil {
				return err
			}
			return resp.Body.Close()
		}).Should(Succeed())

		c, err = client.New(target, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = server.Shutdown()
	})

	It("lists and filters hotspots", func() {
		all, err := c.Hotspots(ctx, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(all.Count).To(Equal(5))

		high, err := c.Hotspots(ctx, "high")
		Expect(err).NotTo(HaveOccurred())
		Expect(high.Count).To(Equal(2))
		Expect(high.TotalCases).To(Equal(20))
	})

	It("surfaces server errors as APIError", func() {
		_, err := c.Hotspots(ctx, "extreme")

		var apiErr *client.APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue())
		Expect(apiErr.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(apiErr.Message).To(ContainSubstring("invalid hotspot filter"))
	})

	It("submits a report and updates its status", func() {
		created, err := c.SubmitReport(ctx, report.Submission{
			Type:        report.TypeCleanupDone,
			Location:    "Green Park",
			Description: "Emptied the bird baths",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(created.Status).To(Equal(report.StatusPending))

		list, err := c.Reports(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(list.Count).To(Equal(4))
		Expect(list.Reports[0].ID).To(Equal(created.ID))

		updated, err := c.SetReportStatus(ctx, created.ID, report.StatusResolved)
		Expect(err).NotTo(HaveOccurred())
		Expect(updated.Status).To(Equal(report.StatusResolved))
	})

	It("reads analytics and impact", func() {
		dash, err := c.Analytics(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(dash.WeeklyCases).To(Equal(74))

		impact, err := c.Impact(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(impact.WeeklyPercent).To(Equal(50))
	})

	It("uploads an image for analysis", func() {
		var buf bytes.Buffer
		Expect(png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4)))).To(Succeed())

		result, err := c.Analyze(ctx, "tyres.png", buf.Bytes())
		Expect(err).NotTo(HaveOccurred())
		Expect(risk.Levels).To(ContainElement(result.Level))
		Expect(result.DetectedIssues).NotTo(BeEmpty())
	})
})
