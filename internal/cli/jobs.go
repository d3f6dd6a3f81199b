package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"wedding-appgen/internal/models"
)

var jobStatus string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recorded generations",
	Args:  cobra.NoArgs,
	RunE:  runJobs,
}

func init() {
	jobsCmd.Flags().StringVarP(&jobStatus, "status", "s", "", "only list jobs with this status (created, copying, rewriting, archiving, delivering, cleaned, failed)")
}

func runJobs(cmd *cobra.Command, _ []string) error {
	ledger, err := openLedger()
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer ledger.Close()

	var (
		jobs  []models.Job
		title string
	)
	if jobStatus == "" {
		jobs, err = ledger.GetAllJobs(cmd.Context())
		title = "All Jobs"
	} else {
		status, ok := models.ParseStatus(jobStatus)
		if !ok {
			return fmt.Errorf("unknown status %q", jobStatus)
		}
		jobs, err = ledger.GetJobsByStatus(cmd.Context(), status)
		title = fmt.Sprintf("Jobs with status '%s'", status)
	}
	if err != nil {
		return err
	}

	printJobs(cmd.OutOrStdout(), title, jobs)
	return nil
}

func printJobs(w io.Writer, title string, jobs []models.Job) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, "No jobs found.")
		return
	}

	fmt.Fprintf(w, "%s (%d total):\n", title, len(jobs))
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, job := range jobs {
		fmt.Fprintf(w, "ID: %s\n", job.ID)
		fmt.Fprintf(w, "Couple: %s\n", job.CoupleName)
		if job.AppName != "" {
			fmt.Fprintf(w, "App: %s\n", job.AppName)
		}
		fmt.Fprintf(w, "Status: %s\n", job.Status)
		if job.Error != "" {
			fmt.Fprintf(w, "Error: %s\n", job.Error)
		}
		fmt.Fprintf(w, "Created: %s\n", job.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Updated: %s\n", job.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintln(w, strings.Repeat("-", 60))
	}
}
