package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pipelineGroupCmd = &cobra.Command{
	Use:   "group",
	Short: "Fingerprint and group discovered files",
	Long:  "Fingerprints every discovered candidate across a worker pool, clusters structurally identical files into groups, and persists the groups manifest.",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cleanup, err := newOrchestrator(false)
		if err != nil {
			return err
		}
		defer cleanup()

		resp, err := orch.Group(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Fingerprinted %d files (%d errors)\n", resp.Fingerprinted, resp.Errors)
		fmt.Printf("Groups: %d, ungrouped: %d, empty templates: %d\n",
			resp.Groups, resp.Ungrouped, resp.EmptyTemplates)
		return nil
	},
}

func init() {
	pipelineCmd.AddCommand(pipelineGroupCmd)
}
