package command

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tidepool-org/yearly-summary/yearly"
)

var runParams = struct {
	Now        string
	DryRun     bool
	StartAfter string
}{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate the yearly summaries of all patients",
	Long:  "The run command writes one summary per patient record for the year preceding --now",
	RunE:  func(cmd *cobra.Command, args []string) error { return Run(runJob) },
}

func init() {
	runCmd.Flags().StringVar(&runParams.Now, "now", "", "Reference time in RFC3339 format, defaults to the current time")
	runCmd.Flags().BoolVar(&runParams.DryRun, "dry-run", false, "Only prints out the summaries that would be written")
	runCmd.Flags().StringVar(&runParams.StartAfter, "start-after", "", "Resume the run after the given patient id")

	rootCmd.AddCommand(runCmd)
}

func runJob(job *yearly.Job, logger *zap.SugaredLogger) error {
	now, err := parseNow(runParams.Now, time.Now)
	if err != nil {
		return err
	}

	// Convert sigint and sigterm to a cancellation of the run. Patients that
	// were already summarized stay summarized.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := job.RunWithOptions(ctx, now, yearly.Options{
		DryRun:     runParams.DryRun,
		StartAfter: runParams.StartAfter,
	})
	if report != nil {
		printReport(report)
	}
	if err != nil {
		if report != nil && report.ResumeAfter() != "" {
			logger.Infow("run can be resumed", "startAfter", report.ResumeAfter())
		}
		return err
	}

	return nil
}

func printReport(report *yearly.Report) {
	for _, result := range report.Results {
		if result.Err != nil {
			fmt.Printf("%s %s %d records - %v\n", result.PatientId, result.Status, result.RecordCount, result.Err)
			continue
		}
		fmt.Printf("%s %s %d records\n", result.PatientId, result.Status, result.RecordCount)
	}

	fmt.Printf("Run %s for %d processed %d patients (%d failed) in %v\n",
		report.RunId,
		report.TargetYear,
		len(report.Results),
		report.Failed(),
		report.Duration(),
	)
	if report.Aborted {
		fmt.Printf("Run was aborted, resume with --start-after=%s\n", report.ResumeAfter())
	}
}
