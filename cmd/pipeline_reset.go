package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pipelineResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all persisted pipeline state",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cleanup, err := newOrchestrator(false)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := orch.Reset(); err != nil {
			return err
		}
		fmt.Println("Pipeline state reset")
		return nil
	},
}

func init() {
	pipelineCmd.AddCommand(pipelineResetCmd)
}
