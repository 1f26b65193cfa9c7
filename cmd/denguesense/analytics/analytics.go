// Package analyticscmder provides the analytics command printing the
// community surveillance dashboard.
package analyticscmder

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/denguesense/api"
	"github.com/papercomputeco/denguesense/api/client"
	"github.com/papercomputeco/denguesense/cmd/denguesense/apitarget"
	"github.com/papercomputeco/denguesense/pkg/analytics"
	"github.com/papercomputeco/denguesense/pkg/cliui"
)

const analyticsLongDesc string = `Show the community surveillance dashboard.

Prints the headline figures, this week's cases and sites, the monthly peak,
the riskiest areas and, when the server provides them, your impact figures.
Requires a running DengueSense API server.`

const analyticsShortDesc string = "Show the surveillance dashboard"

const barWidth = 30

func NewAnalyticsCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: analyticsShortDesc,
		Long:  analyticsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := apitarget.NewClient(cmd)
			if err != nil {
				return err
			}

			dash, err := c.Analytics(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printDashboard(w, dash)

			impact, err := c.Impact(cmd.Context())
			var apiErr *client.APIError
			switch {
			case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable:
				return nil
			case err != nil:
				return err
			}
			printImpact(w, impact)
			return nil
		},
	}

	apitarget.AddFlag(cmd, &apiTarget)

	return cmd
}

func printDashboard(w io.Writer, d *api.AnalyticsResponse) {
	fmt.Fprintf(w, "\n%s\n\n", cliui.TitleStyle.Render("Overview"))
	for _, s := range d.Overview {
		fmt.Fprintf(w, "  %-18s %s  %s\n",
			s.Label,
			cliui.ValueStyle.Render(s.Value),
			cliui.DimStyle.Render(fmt.Sprintf("%+d%% vs last week", s.Change)),
		)
	}

	fmt.Fprintf(w, "\n%s %s\n\n",
		cliui.TitleStyle.Render("This Week"),
		cliui.DimStyle.Render(fmt.Sprintf("(%d cases, %d sites)", d.WeeklyCases, d.WeeklySites)),
	)
	maxCases := 0
	for _, p := range d.Weekly {
		maxCases = max(maxCases, p.Cases)
	}
	for _, p := range d.Weekly {
		fmt.Fprintf(w, "  %s %s %d\n", p.Day, bar(p.Cases, maxCases), p.Cases)
	}

	if d.PeakMonth != nil {
		fmt.Fprintf(w, "\n  %s %s %s\n",
			cliui.KeyStyle.Render("Peak month:"),
			cliui.ValueStyle.Render(d.PeakMonth.Month),
			cliui.DimStyle.Render(fmt.Sprintf("(%d cases)", d.PeakMonth.Cases)),
		)
	}

	if len(d.RiskDistribution) > 0 {
		fmt.Fprintf(w, "\n%s\n\n", cliui.TitleStyle.Render("Risk Distribution"))
		for _, s := range d.RiskDistribution {
			fmt.Fprintf(w, "  %-12s %s %d%%\n", s.Name, bar(s.Value, 100), s.Value)
		}
	}

	if len(d.Areas) > 0 {
		fmt.Fprintf(w, "\n%s\n\n", cliui.TitleStyle.Render("Areas"))
		for _, a := range d.Areas {
			fmt.Fprintf(w, "  %-18s %3d %s\n", a.Area, a.Cases, trendArrow(a.Trend))
		}
	}
	fmt.Fprintln(w)
}

func printImpact(w io.Writer, s *api.ImpactResponse) {
	fmt.Fprintf(w, "%s\n\n", cliui.TitleStyle.Render("Your Impact"))
	fmt.Fprintf(w, "  %-28s %d\n", "Sites found", s.SitesFound)
	fmt.Fprintf(w, "  %-28s %d\n", "Community sites eliminated", s.CommunitySitesEliminated)
	fmt.Fprintf(w, "  %-28s %d\n", "Lives saved (estimate)", s.LivesSaved)
	fmt.Fprintf(w, "  %-28s #%d\n", "Rank", s.UserRank)
	fmt.Fprintf(w, "  %-28s %s %d/%d (%d%%)\n\n",
		"Weekly goal",
		bar(s.WeeklyPercent, 100),
		s.WeeklyProgress,
		s.WeeklyGoal,
		s.WeeklyPercent,
	)
}

// bar renders value as a share of total in barWidth cells.
func bar(value, total int) string {
	filled := 0
	if total > 0 {
		filled = min(barWidth, max(0, value*barWidth/total))
	}
	return cliui.KeyStyle.Render(strings.Repeat("█", filled)) +
		cliui.DimStyle.Render(strings.Repeat("░", barWidth-filled))
}

func trendArrow(t analytics.Trend) string {
	switch t {
	case analytics.TrendUp:
		return "↑"
	case analytics.TrendDown:
		return "↓"
	default:
		return ""
	}
}
