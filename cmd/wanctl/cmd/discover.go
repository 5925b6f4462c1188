package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wan2gp/wanctl/pkg/discover"
)

var (
	discoverPort    int
	discoverTimeout time.Duration
	discoverSave    bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find wan2gp servers on the local network",
	Long: `Sweep the /24 of every local interface for hosts listening on the
wan2gp port and report which of them answer the health probe.`,
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().IntVar(&discoverPort, "port", 7860, "port to probe on each host")
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", 500*time.Millisecond, "per-host probe timeout")
	discoverCmd.Flags().BoolVar(&discoverSave, "save", false, "save the first healthy server as the configured address")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning local networks for wan2gp servers on port %d...\n\n", discoverPort)

	scanner := discover.NewScanner(discoverPort, discoverTimeout)
	servers, err := scanner.ScanLocalNetworks(context.Background())
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		output, err := json.MarshalIndent(servers, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
	} else {
		if len(servers) == 0 {
			fmt.Println("No servers found")
			return nil
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Address", "Health", "Latency")
		for _, s := range servers {
			health := "unverified"
			if s.Healthy {
				health = "healthy"
			}
			table.Append(s.Addr(), health, s.Latency.Round(time.Millisecond).String())
		}
		table.Render()
		fmt.Printf("\nTotal servers: %d\n", len(servers))
	}

	if discoverSave {
		for _, s := range servers {
			if !s.Healthy {
				continue
			}
			if err := store.SaveServerAddr(s.Addr()); err != nil {
				return err
			}
			fmt.Printf("Server address saved: %s\n", s.Addr())
			return nil
		}
		fmt.Println("No healthy server to save")
	}
	return nil
}
