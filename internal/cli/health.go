package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NASWA-OpenUI/Playground/pkg/output"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show the gateway health snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gatewayClient(cmd)
		if err != nil {
			return err
		}

		snapshot, err := gw.GetHealthStatus()
		if err != nil {
			return fmt.Errorf("failed to fetch health status: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			return output.JSON(snapshot)
		}

		output.Info("Gateway:            %s", snapshot.GatewayStatus)
		output.Info("Active connections: %d", snapshot.ActiveConnections)
		output.Info("Snapshot taken:     %s\n", snapshot.Timestamp.Format("2006-01-02 15:04:05"))

		if len(snapshot.Services) == 0 {
			output.Info("No services registered")
			return nil
		}

		table := output.NewTable([]string{"Service ID", "Name", "Health", "Message", "Last Checked"})
		for _, s := range snapshot.Services {
			table.AddRow([]string{
				s.ID,
				s.Name,
				string(s.Health),
				s.Message,
				s.LastChecked.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		return nil
	},
}
