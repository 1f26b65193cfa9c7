package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/denguesense/api/worker"
	"github.com/papercomputeco/denguesense/pkg/analytics"
	"github.com/papercomputeco/denguesense/pkg/eventstream"
	"github.com/papercomputeco/denguesense/pkg/hotspot"
	"github.com/papercomputeco/denguesense/pkg/llm"
	"github.com/papercomputeco/denguesense/pkg/report"
	"github.com/papercomputeco/denguesense/pkg/risk"
	"github.com/papercomputeco/denguesense/pkg/storage"
)

// HotspotsResponse is the body of GET /hotspots.
type HotspotsResponse struct {
	Filter     string            `json:"filter"`
	Count      int               `json:"count"`
	TotalCases int               `json:"total_cases"`
	Hotspots   []hotspot.Hotspot `json:"hotspots"`
}

// ReportsResponse is the body of GET /reports.
type ReportsResponse struct {
	Count   int             `json:"count"`
	Reports []report.Report `json:"reports"`
}

// StatusUpdate is the body of PATCH /reports/:id.
type StatusUpdate struct {
	Status string `json:"status"`
}

// AnalyticsResponse is the body of GET /analytics.
type AnalyticsResponse struct {
	analytics.Dashboard
	WeeklyCases int                   `json:"weekly_cases"`
	WeeklySites int                   `json:"weekly_sites"`
	PeakMonth   *analytics.MonthPoint `json:"peak_month,omitempty"`
}

// ImpactResponse is the body of GET /impact.
type ImpactResponse struct {
	risk.ImpactStats
	WeeklyPercent int `json:"weekly_percent"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListHotspots returns hotspots, optionally filtered with ?risk=.
func (s *Server) handleListHotspots(c *fiber.Ctx) error {
	filter, err := hotspot.ParseFilter(c.Query("risk"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	all, err := s.config.Hotspots.Hotspots(c.UserContext())
	if err != nil {
		s.logger.Error("failed to list hotspots", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list hotspots"})
	}

	matched := hotspot.Filter(all, filter)
	return c.JSON(HotspotsResponse{
		Filter:     filter,
		Count:      len(matched),
		TotalCases: hotspot.TotalCases(matched),
		Hotspots:   matched,
	})
}

// handleListReports returns every report, newest submission first.
func (s *Server) handleListReports(c *fiber.Ctx) error {
	reports, err := s.driver.List(c.UserContext())
	if err != nil {
		s.logger.Error("failed to list reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list reports"})
	}

	return c.JSON(ReportsResponse{Count: len(reports), Reports: reports})
}

// handleSubmitReport stores a report and queues its report.submitted event.
func (s *Server) handleSubmitReport(c *fiber.Ctx) error {
	var sub report.Submission
	if err := c.BodyParser(&sub); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	r, err := s.driver.Submit(c.UserContext(), sub)
	if err != nil {
		if errors.Is(err, report.ErrInvalidSubmission) {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("failed to submit report", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to submit report"})
	}

	mReportsSubmitted.WithLabelValues(string(r.Type)).Inc()

	s.logger.Info("report submitted",
		zap.String("id", r.ID),
		zap.String("type", string(r.Type)),
	)

	// Non-blocking enqueue; a dropped event does not fail the submission
	s.workerPool.Enqueue(worker.Job{
		Event: eventstream.NewReportSubmittedEvent(*r, eventstream.EventSource{
			Service:   "api",
			RemoteIP:  c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
		}, time.Now()),
	})

	return c.Status(fiber.StatusCreated).JSON(r)
}

// handleGetReport returns a single report by ID.
func (s *Server) handleGetReport(c *fiber.Ctx) error {
	r, err := s.driver.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.reportError(c, err)
	}

	return c.JSON(r)
}

// handleUpdateReportStatus moves a report to a new status.
func (s *Server) handleUpdateReportStatus(c *fiber.Ctx) error {
	var update StatusUpdate
	if err := c.BodyParser(&update); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	status, err := report.ParseStatus(update.Status)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	r, err := s.driver.SetStatus(c.UserContext(), c.Params("id"), status)
	if err != nil {
		return s.reportError(c, err)
	}

	s.logger.Info("report status updated",
		zap.String("id", r.ID),
		zap.String("status", string(r.Status)),
	)

	return c.JSON(r)
}

func (s *Server) reportError(c *fiber.Ctx, err error) error {
	var notFound storage.NotFoundError
	if errors.As(err, &notFound) {
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "report not found"})
	}

	s.logger.Error("report lookup failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to load report"})
}

// handleAnalytics returns the dashboard with its derived totals.
func (s *Server) handleAnalytics(c *fiber.Ctx) error {
	dashboard, err := s.config.Analytics.Dashboard(c.UserContext())
	if err != nil {
		s.logger.Error("failed to load analytics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to load analytics"})
	}

	cases, sites := dashboard.WeeklyTotals()
	resp := AnalyticsResponse{
		Dashboard:   *dashboard,
		WeeklyCases: cases,
		WeeklySites: sites,
	}
	if peak, ok := dashboard.PeakMonth(); ok {
		resp.PeakMonth = &peak
	}

	return c.JSON(resp)
}

// handleImpact returns the user impact figures.
func (s *Server) handleImpact(c *fiber.Ctx) error {
	if s.config.Impact == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(llm.ErrorResponse{
			Error: "impact stats are not configured",
		})
	}

	stats, err := s.config.Impact.Impact(c.UserContext())
	if err != nil {
		s.logger.Error("failed to load impact stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to load impact stats"})
	}

	return c.JSON(ImpactResponse{ImpactStats: stats, WeeklyPercent: stats.WeeklyPercent()})
}
