package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wan2gp/wanctl/pkg/gallery"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show completed generations",
	Long:  `List every completed generation with the locators of its saved assets, most recent first.`,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	history, err := gallery.NewHistoryStore(filepath.Join(dataDir(), "history.json"))
	if err != nil {
		return err
	}
	entries, err := history.List()
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		output, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Job ID", "Assets", "Saved", "Completed")
	for _, e := range entries {
		table.Append(
			e.JobID,
			fmt.Sprintf("%d", len(e.SavedLocators)),
			strings.Join(e.SavedLocators, "\n"),
			e.CreatedAt.Format(time.RFC3339),
		)
	}
	table.Render()
	fmt.Printf("\nTotal generations: %d\n", len(entries))
	return nil
}
