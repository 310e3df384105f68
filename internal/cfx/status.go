package cfx

import (
	"fmt"

	"github.com/spf13/cobra"

	"filecollect/internal/controller/state"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <flow-id>",
		Short: "Show one flow record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(args[0])
		},
	}
}

func runStatus(flowID string) error {
	store, _, err := loadFlowStore()
	if err != nil {
		return err
	}

	rec, ok := store.GetFlow(flowID)
	if !ok {
		return fmt.Errorf("flow %s not found", flowID)
	}

	fmt.Printf("Flow ID: %s\n", rec.ID)
	fmt.Printf("Path: %s\n", rec.PathSpec)
	fmt.Printf("State: %s\n", rec.State)
	fmt.Printf("Created: %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	if rec.SessionURI != "" {
		fmt.Printf("Session URI: %s\n", rec.SessionURI)
	}
	if rec.State == state.FlowFailed {
		fmt.Printf("Error: %s\n", rec.Error)
	}

	return nil
}
