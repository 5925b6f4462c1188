package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wan2gp/wanctl/pkg/models"
	"github.com/wan2gp/wanctl/pkg/remote"
)

var followStatus bool

// jobsCmd represents the jobs command
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and control jobs",
	Long:  `Commands for checking, cancelling and retrying jobs on the wan2gp server.`,
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Get job status",
	Long:  `Retrieve the current status of a job by its ID.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsStatus,
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a job",
	Long:  `Ask the server to cancel a queued or running job.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsCancel,
}

var jobsRetryCmd = &cobra.Command{
	Use:   "retry <job-id>",
	Short: "Retry a failed job",
	Long:  `Ask the server to re-run a previously failed job with the same parameters.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsRetry,
}

var jobsAssetsCmd = &cobra.Command{
	Use:   "assets <job-id>",
	Short: "List the result assets of a completed job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsAssets,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsStatusCmd)
	jobsCmd.AddCommand(jobsCancelCmd)
	jobsCmd.AddCommand(jobsRetryCmd)
	jobsCmd.AddCommand(jobsAssetsCmd)

	jobsStatusCmd.Flags().BoolVar(&followStatus, "follow", false, "poll job status every 2 seconds until it is terminal")
}

func newRemoteClient() (*remote.Client, error) {
	addr := GetServerAddr()
	if addr == "" {
		return nil, fmt.Errorf("no server address configured; use --server or 'wanctl config set-server'")
	}
	return remote.NewClient(addr)
}

func runJobsStatus(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	client, err := newRemoteClient()
	if err != nil {
		return err
	}

	if followStatus {
		fmt.Printf("Following job %s (press Ctrl+C to stop)...\n\n", jobID)
		for {
			status, err := client.Status(context.Background(), jobID)
			if err != nil {
				return err
			}
			displayJobStatus(status)
			if models.IsTerminalStatus(status.Status) {
				fmt.Println("\nJob reached terminal state")
				return nil
			}
			time.Sleep(2 * time.Second)
		}
	}

	status, err := client.Status(context.Background(), jobID)
	if err != nil {
		return err
	}
	displayJobStatus(status)
	return nil
}

func displayJobStatus(status models.JobStatus) {
	if IsJSONOutput() {
		output, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(output))
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("Job ID", status.JobID)
	table.Append("Status", status.Status)
	if status.Progress != nil {
		table.Append("Progress", fmt.Sprintf("%.0f%%", *status.Progress*100))
	}
	if status.Error != "" {
		table.Append("Error", status.Error)
	}
	table.Render()
}

func runJobsCancel(cmd *cobra.Command, args []string) error {
	client, err := newRemoteClient()
	if err != nil {
		return err
	}
	if err := client.Cancel(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Job %s cancelled\n", args[0])
	return nil
}

func runJobsRetry(cmd *cobra.Command, args []string) error {
	client, err := newRemoteClient()
	if err != nil {
		return err
	}
	newID, err := client.Retry(context.Background(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Job %s queued for retry as %s\n", args[0], newID)
	fmt.Printf("Follow it with: wanctl jobs status %s --follow\n", newID)
	return nil
}

func runJobsAssets(cmd *cobra.Command, args []string) error {
	client, err := newRemoteClient()
	if err != nil {
		return err
	}
	jobAssets, err := client.Assets(context.Background(), args[0])
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		output, _ := json.MarshalIndent(jobAssets, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "File Name", "MIME Type", "URL")
	for _, a := range jobAssets {
		name := a.FileName
		if name == "" {
			name = "-"
		}
		mime := a.MimeType
		if mime == "" {
			mime = "-"
		}
		table.Append(a.ID, name, mime, a.URL)
	}
	table.Render()
	fmt.Printf("\nTotal assets: %d\n", len(jobAssets))
	return nil
}
