// Package analyzecmder provides the analyze command, which uploads a photo
// to the API server and prints the breeding-site risk assessment.
package analyzecmder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/denguesense/api"
	"github.com/papercomputeco/denguesense/cmd/denguesense/apitarget"
	"github.com/papercomputeco/denguesense/pkg/cliui"
	"github.com/papercomputeco/denguesense/pkg/risk"
)

const analyzeLongDesc string = `Check a photo for mosquito breeding sites.

The image is uploaded to the DengueSense API server, which returns a risk
level, the issues it detected and an action plan.

Examples:
  denguesense analyze ./backyard.jpg
  denguesense analyze tyres.png --api-target http://localhost:8081`

const analyzeShortDesc string = "Check a photo for mosquito breeding sites"

func NewAnalyzeCmd() *cobra.Command {
	var apiTarget string

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: analyzeShortDesc,
		Long:  analyzeLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading image: %w", err)
			}

			// Fail before the upload when the file is obviously not an image.
			if _, err := risk.ValidateImage(filepath.Base(path), data); err != nil {
				return err
			}

			c, err := apitarget.NewClient(cmd)
			if err != nil {
				return err
			}

			var result *api.AnalyzeResponse
			err = cliui.Step(cmd.ErrOrStderr(), "Analyzing "+filepath.Base(path), func() error {
				var err error
				result, err = c.Analyze(cmd.Context(), filepath.Base(path), data)
				return err
			})
			if err != nil {
				return err
			}

			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	apitarget.AddFlag(cmd, &apiTarget)

	return cmd
}

func printResult(w io.Writer, r *api.AnalyzeResponse) {
	fmt.Fprintf(w, "\n  %s %s  %s\n",
		cliui.RiskBadge(r.Level),
		cliui.ValueStyle.Render(r.Presentation.Label),
		cliui.DimStyle.Render(fmt.Sprintf("%d%% confidence", r.Confidence)),
	)
	if r.Presentation.Description != "" {
		fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render(r.Presentation.Description))
	}

	if len(r.DetectedIssues) > 0 {
		fmt.Fprintf(w, "\n%s\n\n", cliui.TitleStyle.Render("Detected Issues"))
		for _, issue := range r.DetectedIssues {
			fmt.Fprintf(w, "  • %s\n", issue)
		}
	}

	if len(r.Advice) > 0 {
		fmt.Fprintf(w, "\n%s\n\n", cliui.TitleStyle.Render("Action Plan"))
		for i, a := range r.Advice {
			fmt.Fprintf(w, "  %d. %s %s\n",
				i+1,
				cliui.KeyStyle.Render(a.Title),
				cliui.DimStyle.Render("["+string(a.Priority)+"]"),
			)
			fmt.Fprintf(w, "     %s\n", a.Description)
		}
	}
	fmt.Fprintln(w)
}
