package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rasmogul/greatsoko/pkg/app"
	"github.com/Rasmogul/greatsoko/pkg/cache"
	"github.com/Rasmogul/greatsoko/pkg/logger"
)

var failedLimit int

var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Deliver queued notifications from Redis until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.Connect(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if cache.RDB == nil {
			return fmt.Errorf("queue:work needs Redis; check REDIS_ADDR")
		}
		q, err := a.NewQueue("redis")
		if err != nil {
			return err
		}

		logger.Info("queue:work started, press Ctrl+C to stop")
		return q.Run(cmd.Context())
	},
}

var queueFailedCmd = &cobra.Command{
	Use:   "queue:failed",
	Short: "List notification jobs that exhausted their retries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.Connect(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if a.Jobs == nil {
			return fmt.Errorf("queue:failed needs the jobs database; check DB_DRIVER and DATABASE_DSN")
		}
		jobs, err := a.FailedStore().List(cmd.Context(), failedLimit)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No failed jobs.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tJOB\tATTEMPTS\tFAILED AT\tERROR")
		for _, j := range jobs {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\n", j.ID, j.JobType, j.Attempts, j.FailedAt.Format(time.RFC3339), j.Error)
		}
		return w.Flush()
	},
}

func init() {
	queueFailedCmd.Flags().IntVarP(&failedLimit, "limit", "n", 20, "Number of jobs to show")
}
