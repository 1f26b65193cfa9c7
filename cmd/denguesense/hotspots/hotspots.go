// Package hotspotscmder provides the hotspots command listing mapped dengue
// hotspots from a running API server.
package hotspotscmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/denguesense/api"
	"github.com/papercomputeco/denguesense/cmd/denguesense/apitarget"
	"github.com/papercomputeco/denguesense/pkg/cliui"
	"github.com/papercomputeco/denguesense/pkg/hotspot"
)

type hotspotsCommander struct {
	apiTarget string
	filter    string
}

const hotspotsLongDesc string = `List mapped dengue hotspots.

Hotspots can be filtered by risk level with --risk (all, high, medium, low).
Requires a running DengueSense API server.

Examples:
  denguesense hotspots
  denguesense hotspots --risk high
  denguesense hotspots --api-target http://localhost:8081`

const hotspotsShortDesc string = "List mapped dengue hotspots"

func NewHotspotsCmd() *cobra.Command {
	cmder := &hotspotsCommander{}

	cmd := &cobra.Command{
		Use:   "hotspots",
		Short: hotspotsShortDesc,
		Long:  hotspotsLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := hotspot.ParseFilter(cmder.filter)
			if err != nil {
				return err
			}

			c, err := apitarget.NewClient(cmd)
			if err != nil {
				return err
			}

			resp, err := c.Hotspots(cmd.Context(), filter)
			if err != nil {
				return err
			}

			printHotspots(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().StringVarP(&cmder.filter, "risk", "r", hotspot.FilterAll, "Risk level to show (all, high, medium, low)")
	apitarget.AddFlag(cmd, &cmder.apiTarget)

	return cmd
}

func printHotspots(w io.Writer, resp *api.HotspotsResponse) {
	fmt.Fprintf(w, "\n%s %s\n\n",
		cliui.TitleStyle.Render("Dengue Hotspots"),
		cliui.DimStyle.Render("("+resp.Filter+")"),
	)

	if resp.Count == 0 {
		fmt.Fprintf(w, "  %s\n\n", cliui.DimStyle.Render("No hotspots match this filter."))
		return
	}

	for _, h := range resp.Hotspots {
		fmt.Fprintf(w, "  %s  %s  %s\n",
			cliui.RiskBadge(h.Risk),
			cliui.NameStyle.Render(h.Name),
			cliui.DimStyle.Render(fmt.Sprintf("%.4f, %.4f", h.Lat, h.Lng)),
		)
		fmt.Fprintf(w, "      %s %s  %s %s\n",
			cliui.KeyStyle.Render("cases:"),
			cliui.ValueStyle.Render(fmt.Sprint(h.Cases)),
			cliui.KeyStyle.Render("last reported:"),
			cliui.ValueStyle.Render(h.LastReported),
		)
	}

	fmt.Fprintf(w, "\n  %s %d hotspots, %d active cases\n\n",
		cliui.KeyStyle.Render("Total:"),
		resp.Count,
		resp.TotalCases,
	)
}
