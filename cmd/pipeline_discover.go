package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/underwriting-cli/internal/docstore"
	"github.com/sells-group/underwriting-cli/internal/model"
)

var (
	discoverManifestPath string
	discoverFTPDirs      []string
	discoverMirrorDir    string
)

var pipelineDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover candidate model files",
	Long:  "Filters document-store file listings down to files the production extractor does not handle, deduplicates them, and persists the discovery manifest.",
	RunE: func(cmd *cobra.Command, args []string) error {
		descriptors, err := loadDescriptors()
		if err != nil {
			return err
		}

		if discoverMirrorDir != "" {
			client := docstore.NewHTTPClient(cfg.Docstore)
			if err := client.Mirror(cmd.Context(), discoverMirrorDir, descriptors); err != nil {
				return err
			}
		}

		orch, cleanup, err := newOrchestrator(false)
		if err != nil {
			return err
		}
		defer cleanup()

		resp, err := orch.Discover(descriptors)
		if err != nil {
			return err
		}

		fmt.Printf("Scanned %d files: %d candidates, %d skipped, %d duplicates removed\n",
			resp.TotalScanned, resp.CandidatesAccepted, resp.CandidatesSkipped, resp.DuplicatesRemoved)
		if resp.BatchInfo != nil {
			fmt.Printf("Partitioned into %d batches of up to %d files\n",
				resp.BatchInfo.BatchCount, resp.BatchInfo.BatchSize)
		}
		return nil
	},
}

// loadDescriptors reads file descriptors either from a crawler-produced JSON
// listing or directly from FTP deal directories.
func loadDescriptors() ([]model.FileDescriptor, error) {
	if discoverManifestPath != "" {
		data, err := os.ReadFile(discoverManifestPath)
		if err != nil {
			return nil, eris.Wrapf(err, "discover: read listing %s", discoverManifestPath)
		}
		var descriptors []model.FileDescriptor
		if err := json.Unmarshal(data, &descriptors); err != nil {
			return nil, eris.Wrapf(err, "discover: parse listing %s", discoverManifestPath)
		}
		return descriptors, nil
	}

	if len(discoverFTPDirs) == 0 {
		return nil, eris.New("discover: provide --listing or at least one --ftp-dir")
	}

	client := docstore.NewFTPClient(cfg.Docstore)
	var descriptors []model.FileDescriptor
	for _, dir := range discoverFTPDirs {
		files, err := client.List(dir)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, files...)
	}
	return descriptors, nil
}

func init() {
	pipelineDiscoverCmd.Flags().StringVar(&discoverManifestPath, "listing", "", "JSON file listing from the document-store crawler")
	pipelineDiscoverCmd.Flags().StringSliceVar(&discoverFTPDirs, "ftp-dir", nil, "FTP deal directory to crawl (repeatable)")
	pipelineDiscoverCmd.Flags().StringVar(&discoverMirrorDir, "mirror-dir", "", "download listed files over HTTP into this directory before discovery")
	pipelineCmd.AddCommand(pipelineDiscoverCmd)
}
