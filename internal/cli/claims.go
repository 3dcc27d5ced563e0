package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/NASWA-OpenUI/Playground/internal/client"
	"github.com/NASWA-OpenUI/Playground/internal/models"
	"github.com/NASWA-OpenUI/Playground/pkg/output"
)

var claimsCmd = &cobra.Command{
	Use:   "claims",
	Short: "Claim management",
	Long:  "Submit, inspect and advance unemployment claims",
}

func gatewayClient(cmd *cobra.Command) (*client.GatewayClient, error) {
	profile, _ := cmd.Flags().GetString("profile")
	url, err := cfg.GatewayURL(profile)
	if err != nil {
		return nil, err
	}
	return client.NewGatewayClient(url), nil
}

var claimsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List claims",
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gatewayClient(cmd)
		if err != nil {
			return err
		}

		filterKey, filterValue := "", ""
		for _, f := range []string{"status", "stage", "employer", "source"} {
			if v, _ := cmd.Flags().GetString(f); v != "" {
				filterKey, filterValue = f, v
				break
			}
		}

		resp, err := gw.ListClaims(filterKey, filterValue)
		if err != nil {
			return fmt.Errorf("failed to list claims: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			return output.JSON(resp.Claims)
		}

		if len(resp.Claims) == 0 {
			output.Info("No claims found")
			return nil
		}

		table := output.NewTable([]string{"Reference ID", "Source", "Status", "Stage", "Errors", "Received"})
		for _, c := range resp.Claims {
			table.AddRow([]string{
				c.ClaimReferenceID,
				c.SourceSystem,
				string(c.StatusCode),
				string(c.WorkflowStage),
				fmt.Sprintf("%d", c.ErrorCount),
				c.ReceivedTimestamp.Format("2006-01-02 15:04"),
			})
		}
		table.Render()
		output.Info("\n%d claims", resp.Count)
		return nil
	},
}

var claimsGetCmd = &cobra.Command{
	Use:   "get [reference-id]",
	Short: "Get claim details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gatewayClient(cmd)
		if err != nil {
			return err
		}

		claim, err := gw.GetClaim(args[0])
		if err != nil {
			return fmt.Errorf("failed to get claim: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			return output.JSON(claim)
		}

		output.Info("Reference ID: %s", claim.ClaimReferenceID)
		output.Info("Source:       %s", claim.SourceSystem)
		output.Info("Status:       %s (%s)", claim.StatusCode, claim.StatusDisplayName)
		output.Info("Stage:        %s", claim.WorkflowStage)
		output.Info("Errors:       %d", claim.ErrorCount)
		output.Info("Received:     %s", claim.ReceivedTimestamp.Format("2006-01-02 15:04:05"))
		output.Info("Last updated: %s", claim.LastUpdated.Format("2006-01-02 15:04:05"))
		if claim.ProcessingNotes != "" {
			output.Info("\nProcessing notes:\n%s", claim.ProcessingNotes)
		}
		return nil
	},
}

var claimsCreateCmd = &cobra.Command{
	Use:   "create [file.json]",
	Short: "Submit a claim from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gatewayClient(cmd)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var claim models.Claim
		if err := json.Unmarshal(data, &claim); err != nil {
			return fmt.Errorf("invalid claim file: %w", err)
		}

		created, err := gw.CreateClaim(&claim)
		if err != nil {
			return fmt.Errorf("failed to create claim: %w", err)
		}

		output.Success("Created claim %s (%s/%s)",
			created.ClaimReferenceID, created.StatusCode, created.WorkflowStage)
		return nil
	},
}

var claimsAdvanceCmd = &cobra.Command{
	Use:   "advance [reference-id]",
	Short: "Advance a claim's workflow one step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gatewayClient(cmd)
		if err != nil {
			return err
		}

		updatedBy, _ := cmd.Flags().GetString("by")
		claim, err := gw.AdvanceClaim(args[0], updatedBy)
		if err != nil {
			return fmt.Errorf("failed to advance claim: %w", err)
		}

		output.Success("Advanced claim %s to %s/%s",
			claim.ClaimReferenceID, claim.StatusCode, claim.WorkflowStage)
		return nil
	},
}

var claimsStatusCmd = &cobra.Command{
	Use:   "status [reference-id] [status-code]",
	Short: "Set a claim's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gatewayClient(cmd)
		if err != nil {
			return err
		}

		displayName, _ := cmd.Flags().GetString("display-name")
		updatedBy, _ := cmd.Flags().GetString("by")
		notes, _ := cmd.Flags().GetString("notes")

		claim, err := gw.UpdateClaimStatus(args[0], args[1], displayName, updatedBy, notes)
		if err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}

		output.Success("Claim %s is now %s", claim.ClaimReferenceID, claim.StatusCode)
		return nil
	},
}

var claimsErrorCmd = &cobra.Command{
	Use:   "error [reference-id] [message]",
	Short: "Record a processing error against a claim",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gatewayClient(cmd)
		if err != nil {
			return err
		}

		updatedBy, _ := cmd.Flags().GetString("by")
		claim, err := gw.RecordClaimError(args[0], args[1], updatedBy)
		if err != nil {
			return fmt.Errorf("failed to record error: %w", err)
		}

		output.Warn("Claim %s error count: %d (status %s)",
			claim.ClaimReferenceID, claim.ErrorCount, claim.StatusCode)
		return nil
	},
}

var claimsNoteCmd = &cobra.Command{
	Use:   "note [reference-id] [note]",
	Short: "Add a processing note to a claim",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gatewayClient(cmd)
		if err != nil {
			return err
		}

		updatedBy, _ := cmd.Flags().GetString("by")
		claim, err := gw.AddClaimNote(args[0], args[1], updatedBy)
		if err != nil {
			return fmt.Errorf("failed to add note: %w", err)
		}

		output.Success("Added note to claim %s", claim.ClaimReferenceID)
		return nil
	},
}

var claimsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show claim statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		gw, err := gatewayClient(cmd)
		if err != nil {
			return err
		}

		stats, err := gw.GetStats()
		if err != nil {
			return fmt.Errorf("failed to fetch stats: %w", err)
		}

		outputFormat, _ := cmd.Flags().GetString("output")
		if outputFormat == "json" {
			return output.JSON(stats)
		}

		output.Info("Total claims: %d\n", stats.Total)

		table := output.NewTable([]string{"Status", "Count"})
		for status, count := range stats.StatusCounts {
			table.AddRow([]string{status, fmt.Sprintf("%d", count)})
		}
		table.Render()

		fmt.Println()
		table = output.NewTable([]string{"Source System", "Count"})
		for source, count := range stats.SourceCounts {
			table.AddRow([]string{source, fmt.Sprintf("%d", count)})
		}
		table.Render()
		return nil
	},
}

func init() {
	claimsListCmd.Flags().String("status", "", "filter by status code")
	claimsListCmd.Flags().String("stage", "", "filter by workflow stage")
	claimsListCmd.Flags().String("employer", "", "filter by employer id")
	claimsListCmd.Flags().String("source", "", "filter by source system")

	claimsAdvanceCmd.Flags().String("by", "claimsctl", "actor recorded in the audit trail")
	claimsStatusCmd.Flags().String("by", "claimsctl", "actor recorded in the audit trail")
	claimsStatusCmd.Flags().String("display-name", "", "human-readable status label")
	claimsStatusCmd.Flags().String("notes", "", "note appended with the change")
	claimsErrorCmd.Flags().String("by", "claimsctl", "actor recorded in the audit trail")
	claimsNoteCmd.Flags().String("by", "claimsctl", "actor recorded in the audit trail")

	claimsCmd.AddCommand(claimsListCmd)
	claimsCmd.AddCommand(claimsGetCmd)
	claimsCmd.AddCommand(claimsCreateCmd)
	claimsCmd.AddCommand(claimsAdvanceCmd)
	claimsCmd.AddCommand(claimsStatusCmd)
	claimsCmd.AddCommand(claimsErrorCmd)
	claimsCmd.AddCommand(claimsNoteCmd)
	claimsCmd.AddCommand(claimsStatsCmd)
}
