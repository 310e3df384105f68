package cfx

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"filecollect/internal/controller/flow"
	"filecollect/internal/controller/issuance"
)

func newCollectCmd() *cobra.Command {
	var signedURL string

	cmd := &cobra.Command{
		Use:   "collect <path>",
		Short: "Collect one file from the agent into object storage",
		Long: `Collect one file from the agent into object storage.

The agent opens the file, initiates a resumable upload session against
the signed URL, and keeps transferring in the background. cfx records the
session URI and returns immediately.

Examples:
  cfx collect /var/log/syslog.1
  cfx collect --url="https://storage.example/upload?sig=..." /data/dump.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(args[0], signedURL)
		},
	}

	cmd.Flags().StringVar(&signedURL, "url", "", "pre-issued signed upload URL (skips the issuance service)")

	return cmd
}

func runCollect(pathSpec, signedURL string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	collectClient, err := newCollectClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer collectClient.Close()

	store, recordsPath, err := loadFlowStore()
	if err != nil {
		return err
	}

	issuer := issuance.NewHTTPIssuer(cfg.Issuance.Endpoint, cfg.Issuance.Timeout)
	collectFlow := flow.NewCollectLargeFileFlow(issuer, collectClient, store)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rec, runErr := collectFlow.Run(ctx, flow.FlowArgs{
		PathSpec:  pathSpec,
		SignedURL: signedURL,
	})
	if rec != nil {
		if err := store.SaveFile(recordsPath); err != nil {
			fmt.Printf("Warning: failed to save flow records: %v\n", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("collection failed: %w", runErr)
	}

	fmt.Printf("Collection started:\n")
	fmt.Printf("Flow ID: %s\n", rec.ID)
	fmt.Printf("Path: %s\n", rec.PathSpec)
	fmt.Printf("Session URI: %s\n", rec.SessionURI)

	return nil
}
