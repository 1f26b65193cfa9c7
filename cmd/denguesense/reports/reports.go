// Package reportscmder provides the reports command for listing, submitting
// and triaging community reports.
package reportscmder

import (
	"github.com/spf13/cobra"
)

const reportsLongDesc string = `List, submit and triage community reports.

Requires a running DengueSense API server.

  denguesense reports list                       List reports, newest first
  denguesense reports submit --type ... ...      Submit a new report
  denguesense reports status <id> <status>       Move a report to a new status`

const reportsShortDesc string = "Manage community reports"

func NewReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: reportsShortDesc,
		Long:  reportsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newSubmitCmd())
	cmd.AddCommand(newStatusCmd())

	return cmd
}
