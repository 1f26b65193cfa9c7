package reportscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/denguesense/cmd/denguesense/apitarget"
	"github.com/papercomputeco/denguesense/pkg/cliui"
	"github.com/papercomputeco/denguesense/pkg/report"
)

const statusShortDesc string = "Move a report to pending, verified or resolved"

func newStatusCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "status <id> <status>",
		Short: statusShortDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := report.ParseStatus(args[1])
			if err != nil {
				return err
			}

			c, err := apitarget.NewClient(cmd)
			if err != nil {
				return err
			}

			updated, err := c.SetReportStatus(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Report %s is now %s\n\n",
				cliui.SuccessMark,
				cliui.IDStyle.Render(updated.ID),
				cliui.ValueStyle.Render(string(updated.Status)),
			)
			return nil
		},
	}

	apitarget.AddFlag(cmd, &apiTarget)

	return cmd
}
