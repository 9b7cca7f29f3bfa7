package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/underwriting-cli/internal/pipeline"
)

var (
	extractGroup       string
	extractLive        bool
	extractStopOnError bool
)

var pipelineExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract mapped values from a group",
	Long:  "Extracts every mapped field from every file in a group. Runs dry by default; --live persists results, and only for approved groups.",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cleanup, err := newOrchestrator(extractLive)
		if err != nil {
			return err
		}
		defer cleanup()

		resp, err := orch.ExtractBatch(cmd.Context(), pipeline.BatchRequest{
			GroupName:   extractGroup,
			DryRun:      !extractLive,
			StopOnError: extractStopOnError,
			Progress: func(processed, total int) {
				fmt.Printf("  %d/%d fields\n", processed, total)
			},
		})
		if err != nil {
			return err
		}

		mode := "live"
		if resp.DryRun {
			mode = "dry run"
		}
		fmt.Printf("Extraction (%s) of %s: %d/%d files ok, %d failed\n",
			mode, resp.GroupName, resp.FilesOK, resp.FilesTotal, resp.FilesFailed)
		for _, out := range resp.Outcomes {
			status := fmt.Sprintf("%d ok / %d failed (%.0f%%)", out.Successful, out.Failed, out.SuccessRate*100)
			if out.Error != "" {
				status = out.Error
			}
			fmt.Printf("  %s: %s\n", out.FilePath, status)
		}
		if resp.RunID != "" {
			fmt.Printf("Run ID: %s\n", resp.RunID)
		}
		return nil
	},
}

func init() {
	pipelineExtractCmd.Flags().StringVar(&extractGroup, "group", "", "group name to extract (required)")
	pipelineExtractCmd.Flags().BoolVar(&extractLive, "live", false, "persist results (approved groups only)")
	pipelineExtractCmd.Flags().BoolVar(&extractStopOnError, "stop-on-error", false, "abort the batch on the first failed file")
	_ = pipelineExtractCmd.MarkFlagRequired("group")
	pipelineCmd.AddCommand(pipelineExtractCmd)
}
