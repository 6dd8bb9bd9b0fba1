// Command greatsoko runs the storefront API and its maintenance tasks.
//
//	greatsoko serve              # HTTP + gRPC health + queue workers
//	greatsoko migrate            # apply MongoDB index migrations
//	greatsoko migrate:rollback
//	greatsoko migrate:status
//	greatsoko seed               # admin user and sample catalog
//	greatsoko queue:work         # standalone notification worker
//	greatsoko queue:failed       # list failed notification jobs
//	greatsoko route:list
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	_ "github.com/Rasmogul/greatsoko/database/migrations"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "greatsoko",
	Short:         "greatsoko storefront API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, routeListCmd)
	rootCmd.AddCommand(migrateCmd, migrateRollbackCmd, migrateStatusCmd, seedCmd)
	rootCmd.AddCommand(queueWorkCmd, queueFailedCmd)
}
