package command

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tidepool-org/yearly-summary/yearly"
)

var windowParams = struct {
	Now string
}{}

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Print the target year and time window of a run",
	Long:  "The window command prints the year and the half-open time window a run at --now would summarize",
	RunE: func(cmd *cobra.Command, args []string) error {
		now, err := parseNow(windowParams.Now, time.Now)
		if err != nil {
			return err
		}

		year := yearly.TargetYear(now)
		window := yearly.WindowFor(year)
		fmt.Fprintf(cmd.OutOrStdout(), "%d [%s, %s)\n", year, window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339))
		return nil
	},
}

func init() {
	windowCmd.Flags().StringVar(&windowParams.Now, "now", "", "Reference time in RFC3339 format, defaults to the current time")

	rootCmd.AddCommand(windowCmd)
}
