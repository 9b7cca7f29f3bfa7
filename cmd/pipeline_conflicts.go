package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var pipelineConflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Check for mapping conflicts",
	Long:  "Verifies that no group maps two different fields onto the same cell. Conflicts must be resolved before groups are approved for live extraction.",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cleanup, err := newOrchestrator(false)
		if err != nil {
			return err
		}
		defer cleanup()

		resp, err := orch.CheckConflicts()
		if err != nil {
			return err
		}

		fmt.Printf("Checked %d groups: %d conflicts\n", resp.GroupsChecked, len(resp.Conflicts))
		for _, c := range resp.Conflicts {
			fmt.Printf("  %s %s!%s: %s\n", c.GroupName, c.Sheet, c.Cell, strings.Join(c.Fields, ", "))
		}
		return nil
	},
}

func init() {
	pipelineCmd.AddCommand(pipelineConflictsCmd)
}
