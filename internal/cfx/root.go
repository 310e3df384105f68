// Package cfx implements the operator CLI for large-file collection. It
// talks to an agent over mTLS gRPC and keeps a local record of every flow
// it has started.
package cfx

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"filecollect/internal/controller/state"
	"filecollect/pkg/client"
	"filecollect/pkg/config"
)

var configPath string

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   "cfx",
		Short: "Collect large files from agents into cloud object storage",
		Long: `cfx starts large-file collection flows against filecollect agents.

A flow asks the agent to stream one file to a cloud object store through
a signed resumable-upload URL. cfx returns as soon as the agent has
initiated the upload session; the transfer then runs on the agent without
further supervision. The flow record keeps the object store session URI.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(newCollectCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newListCmd())

	return rootCmd.Execute()
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	cfg, _, err := config.LoadConfig()
	return cfg, err
}

func newCollectClient(cfg *config.Config) (*client.CollectClient, error) {
	return client.NewCollectClient(cfg.GetAgentAddress(), cfg.Security)
}

// loadFlowStore reads the local flow record file. Records survive across
// cfx invocations so status and list work after collect has returned.
func loadFlowStore() (*state.Store, string, error) {
	path := flowRecordsPath()
	store := state.New()
	if err := store.LoadFile(path); err != nil {
		return nil, "", fmt.Errorf("failed to load flow records: %w", err)
	}
	return store, path, nil
}

func flowRecordsPath() string {
	if path := os.Getenv("CFX_FLOW_RECORDS"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./flows.json"
	}
	return filepath.Join(home, ".filecollect", "flows.json")
}
