package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateGroup string

var pipelineValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a group's extraction accuracy",
	Long:  "Re-reads each source file in a group and compares values within tolerance, reporting per-file accuracy.",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cleanup, err := newOrchestrator(false)
		if err != nil {
			return err
		}
		defer cleanup()

		resp, err := orch.ValidateGroup(validateGroup)
		if err != nil {
			return err
		}

		fmt.Printf("Validated %s: %d/%d files valid\n", resp.GroupName, resp.FilesValid, resp.FilesTotal)
		for _, r := range resp.Reports {
			fmt.Printf("  %s: %.1f%% accuracy (%d matched, %d mismatched, %d missing, %d errors)\n",
				r.FilePath, r.Accuracy*100, r.Matched, r.Mismatched, r.Missing, r.Errors)
		}
		return nil
	},
}

func init() {
	pipelineValidateCmd.Flags().StringVar(&validateGroup, "group", "", "group name to validate (required)")
	_ = pipelineValidateCmd.MarkFlagRequired("group")
	pipelineCmd.AddCommand(pipelineValidateCmd)
}
