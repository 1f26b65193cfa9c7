// Package denguesensecmder
package denguesensecmder

import (
	"github.com/spf13/cobra"

	analyticscmder "github.com/papercomputeco/denguesense/cmd/denguesense/analytics"
	analyzecmder "github.com/papercomputeco/denguesense/cmd/denguesense/analyze"
	chatcmder "github.com/papercomputeco/denguesense/cmd/denguesense/chat"
	configcmder "github.com/papercomputeco/denguesense/cmd/denguesense/config"
	hotspotscmder "github.com/papercomputeco/denguesense/cmd/denguesense/hotspots"
	reportscmder "github.com/papercomputeco/denguesense/cmd/denguesense/reports"
	servecmder "github.com/papercomputeco/denguesense/cmd/denguesense/serve"
	versioncmder "github.com/papercomputeco/denguesense/cmd/version"
)

const dengueSenseLongDesc string = `DengueSense is community dengue surveillance from the terminal.

Run the API server and talk to it:
  denguesense serve              Run the API server
  denguesense chat               Chat with the health assistant
  denguesense hotspots           List mapped hotspots
  denguesense reports list       List community reports
  denguesense analyze <image>    Check a photo for breeding sites
  denguesense analytics          Show the surveillance dashboard`

const dengueSenseShortDesc string = "DengueSense - Community Dengue Surveillance"

func NewDengueSenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "denguesense",
		Short:        dengueSenseShortDesc,
		Long:         dengueSenseLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to the .denguesense/ config directory")

	// Add subcommands
	cmd.AddCommand(analyticscmder.NewAnalyticsCmd())
	cmd.AddCommand(analyzecmder.NewAnalyzeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(hotspotscmder.NewHotspotsCmd())
	cmd.AddCommand(reportscmder.NewReportsCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
