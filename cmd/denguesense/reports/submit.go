package reportscmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/denguesense/cmd/denguesense/apitarget"
	"github.com/papercomputeco/denguesense/pkg/cliui"
	"github.com/papercomputeco/denguesense/pkg/report"
)

const submitLongDesc string = `Submit a community report.

Types: breeding_site, suspected_case, cleanup_done.

Examples:
  denguesense reports submit --type breeding_site \
    --location "Sector 21, Near Park" \
    --description "Stagnant water in construction site"`

const submitShortDesc string = "Submit a community report"

func newSubmitCmd() *cobra.Command {
	var (
		apiTarget string
		sub       report.Submission
		typ       string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: submitShortDesc,
		Long:  submitLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sub.Type = report.Type(typ)
			if err := sub.Validate(); err != nil {
				return err
			}

			c, err := apitarget.NewClient(cmd)
			if err != nil {
				return err
			}

			created, err := c.SubmitReport(cmd.Context(), sub)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Report %s submitted %s\n\n",
				cliui.SuccessMark,
				cliui.IDStyle.Render(created.ID),
				cliui.DimStyle.Render("("+string(created.Status)+")"),
			)
			return nil
		},
	}

	types := make([]string, 0, len(report.Types))
	for _, t := range report.Types {
		types = append(types, string(t))
	}

	cmd.Flags().StringVarP(&typ, "type", "t", "", "Report type ("+strings.Join(types, ", ")+")")
	cmd.Flags().StringVar(&sub.Location, "location", "", "Where the report applies")
	cmd.Flags().StringVar(&sub.Description, "description", "", "What was observed")
	apitarget.AddFlag(cmd, &apiTarget)

	return cmd
}
