package reportscmder

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/denguesense/cmd/denguesense/apitarget"
	"github.com/papercomputeco/denguesense/pkg/cliui"
	"github.com/papercomputeco/denguesense/pkg/report"
	"github.com/papercomputeco/denguesense/pkg/utils"
)

var statusStyles = map[report.Status]lipgloss.Style{
	report.StatusPending:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	report.StatusVerified: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	report.StatusResolved: lipgloss.NewStyle().Foreground(lipgloss.Color("82")),
}

const listShortDesc string = "List community reports, newest first"

func newListCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := apitarget.NewClient(cmd)
			if err != nil {
				return err
			}

			resp, err := c.Reports(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "\n%s %s\n\n",
				cliui.TitleStyle.Render("Community Reports"),
				cliui.DimStyle.Render(fmt.Sprintf("(%d)", resp.Count)),
			)
			if resp.Count == 0 {
				fmt.Fprintf(w, "  %s\n\n", cliui.DimStyle.Render("No reports yet."))
				return nil
			}

			for _, r := range resp.Reports {
				printReport(w, r)
			}
			fmt.Fprintln(w)
			return nil
		},
	}

	apitarget.AddFlag(cmd, &apiTarget)

	return cmd
}

func printReport(w io.Writer, r report.Report) {
	status := string(r.Status)
	if style, ok := statusStyles[r.Status]; ok {
		status = style.Render(status)
	}

	fmt.Fprintf(w, "  %s  %s  %s  %s\n",
		cliui.IDStyle.Render(utils.Truncate(r.ID, 8)),
		cliui.NameStyle.Render(string(r.Type)),
		status,
		cliui.DimStyle.Render(r.Timestamp.Local().Format(time.DateTime)),
	)
	fmt.Fprintf(w, "      %s %s\n", cliui.KeyStyle.Render("at"), cliui.ValueStyle.Render(r.Location))
	fmt.Fprintf(w, "      %s\n", cliui.DimStyle.Render(utils.Truncate(r.Description, 72)))
}
