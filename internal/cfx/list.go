package cfx

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"filecollect/internal/controller/state"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all flows started from this machine",
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	store, _, err := loadFlowStore()
	if err != nil {
		return err
	}

	flows := store.ListFlows()
	if len(flows) == 0 {
		fmt.Println("No flows found")
		return nil
	}

	formatFlowList(flows)

	return nil
}

func formatFlowList(flows []*state.FlowRecord) {
	maxIDWidth := len("FLOW ID")
	maxStateWidth := len("STATE")

	// find the maximum width needed for each column
	for _, rec := range flows {
		if len(rec.ID) > maxIDWidth {
			maxIDWidth = len(rec.ID)
		}
		if len(string(rec.State)) > maxStateWidth {
			maxStateWidth = len(string(rec.State))
		}
	}

	// add some padding
	maxIDWidth += 2
	maxStateWidth += 2

	// header
	fmt.Printf("%-*s %-*s %-15s %s\n",
		maxIDWidth, "FLOW ID",
		maxStateWidth, "STATE",
		"STARTED",
		"PATH")

	// separator line
	fmt.Printf("%s %s %s %s\n",
		strings.Repeat("-", maxIDWidth),
		strings.Repeat("-", maxStateWidth),
		strings.Repeat("-", 15),
		strings.Repeat("-", 4))

	for _, rec := range flows {
		fmt.Printf("%-*s %-*s %-15s %s\n",
			maxIDWidth, rec.ID,
			maxStateWidth, rec.State,
			humanize.Time(rec.CreatedAt),
			formatPath(rec.PathSpec))
	}
}

func formatPath(path string) string {
	// truncate very long paths
	maxPathLength := 80
	if len(path) > maxPathLength {
		return path[:maxPathLength-3] + "..."
	}
	return path
}
