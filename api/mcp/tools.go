package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/denguesense/pkg/analytics"
	"github.com/papercomputeco/denguesense/pkg/hotspot"
	"github.com/papercomputeco/denguesense/pkg/risk"
)

var (
	listHotspotsToolName    = "list_hotspots"
	listHotspotsDescription = "List mapped dengue hotspots with their risk level and reported cases. Optionally filter by risk level (high, medium, low or all)."

	adviceToolName    = "breeding_site_advice"
	adviceDescription = "Return the detected issues and the prioritized action plan for a mosquito breeding-site risk level (high, medium or low)."

	analyticsToolName    = "analytics_summary"
	analyticsDescription = "Summarize community dengue analytics: overview statistics, weekly totals, the peak month and the most affected areas."
)

// ListHotspotsInput represents the input arguments for the list_hotspots tool.
type ListHotspotsInput struct {
	Risk string `json:"risk,omitempty" jsonschema:"risk level filter: high, medium, low or all (default: all)"`
}

// ListHotspotsOutput represents the output of the list_hotspots tool.
type ListHotspotsOutput struct {
	Filter     string            `json:"filter"`
	Hotspots   []hotspot.Hotspot `json:"hotspots"`
	Count      int               `json:"count"`
	TotalCases int               `json:"total_cases"`
}

// AdviceInput represents the input arguments for the breeding_site_advice tool.
type AdviceInput struct {
	RiskLevel string `json:"risk_level" jsonschema:"the breeding-site risk level: high, medium or low"`
}

// AdviceOutput represents the output of the breeding_site_advice tool.
type AdviceOutput struct {
	Level          risk.Level    `json:"risk_level"`
	Label          string        `json:"label"`
	Description    string        `json:"description"`
	DetectedIssues []string      `json:"detected_issues"`
	Advice         []risk.Advice `json:"advice"`
}

// AnalyticsSummaryInput takes no arguments.
type AnalyticsSummaryInput struct{}

// AnalyticsSummaryOutput represents the output of the analytics_summary tool.
type AnalyticsSummaryOutput struct {
	Overview    []analytics.Stat      `json:"overview"`
	WeeklyCases int                   `json:"weekly_cases"`
	WeeklySites int                   `json:"weekly_sites"`
	PeakMonth   *analytics.MonthPoint `json:"peak_month,omitempty"`
	Areas       []analytics.Area      `json:"areas"`
}

func (s *Server) handleListHotspots(ctx context.Context, _ *mcp.CallToolRequest, input ListHotspotsInput) (*mcp.CallToolResult, ListHotspotsOutput, error) {
	filter, err := hotspot.ParseFilter(input.Risk)
	if err != nil {
		return errorResult(err.Error()), ListHotspotsOutput{}, nil
	}

	all, err := s.config.Hotspots.Hotspots(ctx)
	if err != nil {
		s.config.Logger.Error("failed to list hotspots", zap.Error(err))
		return errorResult(fmt.Sprintf("Failed to list hotspots: %v", err)), ListHotspotsOutput{}, nil
	}

	matched := hotspot.Filter(all, filter)
	output := ListHotspotsOutput{
		Filter:     filter,
		Hotspots:   matched,
		Count:      len(matched),
		TotalCases: hotspot.TotalCases(matched),
	}

	return jsonResult(output, s.config.Logger), output, nil
}

func (s *Server) handleAdvice(_ context.Context, _ *mcp.CallToolRequest, input AdviceInput) (*mcp.CallToolResult, AdviceOutput, error) {
	output, err := buildAdvice(input.RiskLevel)
	if err != nil {
		return errorResult(err.Error()), AdviceOutput{}, nil
	}

	return jsonResult(output, s.config.Logger), output, nil
}

func (s *Server) handleAnalyticsSummary(ctx context.Context, _ *mcp.CallToolRequest, _ AnalyticsSummaryInput) (*mcp.CallToolResult, AnalyticsSummaryOutput, error) {
	dashboard, err := s.config.Analytics.Dashboard(ctx)
	if err != nil {
		s.config.Logger.Error("failed to load analytics", zap.Error(err))
		return errorResult(fmt.Sprintf("Failed to load analytics: %v", err)), AnalyticsSummaryOutput{}, nil
	}

	output := buildSummary(dashboard)
	return jsonResult(output, s.config.Logger), output, nil
}

// buildAdvice resolves the presentation, issues and action plan for a level.
func buildAdvice(level string) (AdviceOutput, error) {
	l, err := risk.ParseLevel(level)
	if err != nil {
		return AdviceOutput{}, err
	}

	display, _ := risk.Presentation(l)
	return AdviceOutput{
		Level:          l,
		Label:          display.Label,
		Description:    display.Description,
		DetectedIssues: risk.IssuesFor(l),
		Advice:         risk.AdviceFor(l),
	}, nil
}

func buildSummary(d *analytics.Dashboard) AnalyticsSummaryOutput {
	cases, sites := d.WeeklyTotals()
	out := AnalyticsSummaryOutput{
		Overview:    d.Overview,
		WeeklyCases: cases,
		WeeklySites: sites,
		Areas:       d.Areas,
	}

	if peak, ok := d.PeakMonth(); ok {
		out.PeakMonth = &peak
	}

	return out
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}

// jsonResult serializes the structured output into a TextContent block as
// well, for clients that ignore structured content.
func jsonResult(output any, logger *zap.Logger) *mcp.CallToolResult {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal tool output", zap.Error(err))
		return errorResult(fmt.Sprintf("Failed to serialize results: %v", err))
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}
}
