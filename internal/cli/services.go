package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NASWA-OpenUI/Playground/pkg/output"
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Service registry management",
	Long:  "Register, inspect and remove participating services",
}

var servicesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered services",
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gatewayClient(cmd)
		if err != nil {
			return err
		}

		resp, err := gw.ListServices()
		if err != nil {
			return fmt.Errorf("failed to list services: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			return output.JSON(resp.Services)
		}

		if len(resp.Services) == 0 {
			output.Info("No services registered")
			return nil
		}

		table := output.NewTable([]string{"Service ID", "Name", "Technology", "Status", "Last Heartbeat"})
		for _, s := range resp.Services {
			table.AddRow([]string{
				s.ServiceID,
				s.Name,
				s.Technology,
				s.Status,
				s.LastHeartbeat.Format("2006-01-02 15:04:05"),
			})
		}
		table.Render()
		return nil
	},
}

var servicesRegisterCmd = &cobra.Command{
	Use:   "register [service-id] [name]",
	Short: "Register a service",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gatewayClient(cmd)
		if err != nil {
			return err
		}

		technology, _ := cmd.Flags().GetString("technology")
		protocol, _ := cmd.Flags().GetString("protocol")
		endpoint, _ := cmd.Flags().GetString("endpoint")

		reg, err := gw.RegisterService(args[0], args[1], technology, protocol, endpoint)
		if err != nil {
			return fmt.Errorf("failed to register service: %w", err)
		}

		output.Success("Registered %s (%s)", reg.ServiceID, reg.Status)
		return nil
	},
}

var servicesHeartbeatCmd = &cobra.Command{
	Use:   "heartbeat [service-id]",
	Short: "Send a heartbeat for a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gatewayClient(cmd)
		if err != nil {
			return err
		}

		reg, err := gw.Heartbeat(args[0])
		if err != nil {
			return fmt.Errorf("failed to send heartbeat: %w", err)
		}

		output.Success("Heartbeat recorded for %s (%s)", reg.ServiceID, reg.Status)
		return nil
	},
}

var servicesUnregisterCmd = &cobra.Command{
	Use:   "unregister [service-id]",
	Short: "Remove a service registration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gatewayClient(cmd)
		if err != nil {
			return err
		}

		if err := gw.UnregisterService(args[0]); err != nil {
			return fmt.Errorf("failed to unregister service: %w", err)
		}

		output.Success("Unregistered %s", args[0])
		return nil
	},
}

func init() {
	servicesRegisterCmd.Flags().String("technology", "", "implementation technology")
	servicesRegisterCmd.Flags().String("protocol", "REST", "communication protocol")
	servicesRegisterCmd.Flags().String("endpoint", "", "service endpoint URL")

	servicesCmd.AddCommand(servicesListCmd)
	servicesCmd.AddCommand(servicesRegisterCmd)
	servicesCmd.AddCommand(servicesHeartbeatCmd)
	servicesCmd.AddCommand(servicesUnregisterCmd)
}
