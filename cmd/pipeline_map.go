package main

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/underwriting-cli/internal/mapping"
	"github.com/sells-group/underwriting-cli/internal/registry"
)

var mapSkipProperties bool

var pipelineMapCmd = &cobra.Command{
	Use:   "map",
	Short: "Infer field locations per group",
	Long:  "Loads the canonical field-reference table, infers each field's location in every file group at decreasing confidence tiers, and reconciles deal names against the property registry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Registry.FieldTablePath == "" {
			return eris.New("map: no field-reference table configured (set registry.field_table_path)")
		}

		fields, err := registry.LoadFieldTable(cfg.Registry.FieldTablePath)
		if err != nil {
			return err
		}

		var synonyms mapping.Synonyms
		if cfg.Mapping.SynonymsPath != "" {
			synonyms, err = mapping.LoadSynonyms(cfg.Mapping.SynonymsPath)
			if err != nil {
				return err
			}
		}

		var knownProperties []string
		if !mapSkipProperties {
			pool, err := propertyPool(cmd.Context())
			if err != nil {
				zap.L().Warn("map: property registry unavailable, skipping reconciliation", zap.Error(err))
			} else {
				defer pool.Close()
				knownProperties, err = registry.NewPropertySource(pool).KnownNames(cmd.Context())
				if err != nil {
					return err
				}
			}
		}

		orch, cleanup, err := newOrchestrator(false)
		if err != nil {
			return err
		}
		defer cleanup()

		resp, err := orch.MapReferences(fields, synonyms, knownProperties)
		if err != nil {
			return err
		}

		fmt.Printf("Mapped %d groups: %d fields matched, %d unmapped\n",
			resp.GroupsMapped, resp.FieldsMapped, resp.FieldsUnmapped)
		tiers := make([]int, 0, len(resp.TierCounts))
		for tier := range resp.TierCounts {
			tiers = append(tiers, tier)
		}
		sort.Ints(tiers)
		for _, tier := range tiers {
			fmt.Printf("  tier %d: %d\n", tier, resp.TierCounts[tier])
		}
		if resp.PropertiesTotal > 0 {
			fmt.Printf("Properties reconciled: %d/%d\n", resp.PropertiesMatched, resp.PropertiesTotal)
		}
		return nil
	},
}

func init() {
	pipelineMapCmd.Flags().BoolVar(&mapSkipProperties, "skip-properties", false, "skip property-name reconciliation")
	pipelineCmd.AddCommand(pipelineMapCmd)
}
