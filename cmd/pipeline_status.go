package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var pipelineStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline phase status",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cleanup, err := newOrchestrator(false)
		if err != nil {
			return err
		}
		defer cleanup()

		state, err := orch.State()
		if err != nil {
			return err
		}

		printPhase := func(name string, at *time.Time) {
			if at == nil {
				fmt.Printf("  %-15s pending\n", name)
				return
			}
			fmt.Printf("  %-15s completed %s\n", name, at.Format(time.RFC3339))
		}

		fmt.Println("Phases:")
		printPhase("discovery", state.DiscoveryCompletedAt)
		printPhase("grouping", state.GroupingCompletedAt)
		printPhase("reference map", state.ReferenceMapCompletedAt)
		printPhase("conflict check", state.ConflictCheckCompletedAt)
		printPhase("extraction", state.ExtractionCompletedAt)
		printPhase("validation", state.ValidationCompletedAt)

		fmt.Printf("Candidates: %d, groups: %d, values extracted: %d\n",
			state.TotalCandidates, state.TotalGroups, state.TotalExtracted)

		if len(state.Groups) > 0 {
			names := make([]string, 0, len(state.Groups))
			for name := range state.Groups {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Println("Approvals:")
			for _, name := range names {
				g := state.Groups[name]
				status := "not approved"
				if g.Approved {
					status = "approved"
					if g.ApprovedAt != nil {
						status += " " + g.ApprovedAt.Format(time.RFC3339)
					}
				}
				fmt.Printf("  %-40s %s\n", name, status)
			}
		}
		return nil
	},
}

func init() {
	pipelineCmd.AddCommand(pipelineStatusCmd)
}
