package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/underwriting-cli/internal/reconcile"
	"github.com/sells-group/underwriting-cli/internal/registry"
)

var pipelineReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile deal names against the property registry",
	Long:  "Matches the deal names attached to discovered files against the canonical property registry and prints each match with its tier. Read-only: the persisted mappings are produced by the map phase.",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, cleanup, err := newOrchestrator(false)
		if err != nil {
			return err
		}
		defer cleanup()

		discovery, err := orch.DiscoveryManifest()
		if err != nil {
			return err
		}

		names := make(map[string]struct{})
		var inputs []string
		for _, fd := range discovery.Files {
			if fd.DealName == "" {
				continue
			}
			if _, ok := names[fd.DealName]; ok {
				continue
			}
			names[fd.DealName] = struct{}{}
			inputs = append(inputs, fd.DealName)
		}
		if len(inputs) == 0 {
			fmt.Println("No deal names in the discovery manifest")
			return nil
		}

		pool, err := propertyPool(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		known, err := registry.NewPropertySource(pool).KnownNames(cmd.Context())
		if err != nil {
			return err
		}

		matches := reconcile.New(cfg.Reconcile).Reconcile(inputs, known)
		matched := 0
		for _, m := range matches {
			if m.Matched() {
				matched++
				fmt.Printf("  tier %d  %-40s -> %s\n", m.MatchTier, m.InputName, m.MatchedPropertyName)
			} else {
				fmt.Printf("  tier 4  %-40s -> (unmatched)\n", m.InputName)
			}
		}
		fmt.Printf("Reconciled %d/%d deal names\n", matched, len(matches))
		return nil
	},
}

func init() {
	pipelineCmd.AddCommand(pipelineReconcileCmd)
}
