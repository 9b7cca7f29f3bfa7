package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pipelineApproveCmd = &cobra.Command{
	Use:   "approve <group>",
	Short: "Approve a group for live extraction",
	Long:  "Marks a group as approved. Unapproved groups always extract in dry-run mode regardless of the request.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cleanup, err := newOrchestrator(false)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := orch.Approve(args[0]); err != nil {
			return err
		}
		fmt.Printf("Approved %s for live extraction\n", args[0])
		return nil
	},
}

func init() {
	pipelineCmd.AddCommand(pipelineApproveCmd)
}
