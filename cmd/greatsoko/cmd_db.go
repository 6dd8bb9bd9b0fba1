package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Rasmogul/greatsoko/database/seeders"
	"github.com/Rasmogul/greatsoko/pkg/app"
	"github.com/Rasmogul/greatsoko/pkg/migration"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.Connect(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		ran, err := migration.New(a.DB).Run(cmd.Context())
		for _, name := range ran {
			fmt.Fprintln(cmd.OutOrStdout(), "  migrated:", name)
		}
		if err == nil && len(ran) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to migrate.")
		}
		return err
	},
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Roll back the last batch of migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.Connect(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		rolled, err := migration.New(a.DB).Rollback(cmd.Context())
		for _, name := range rolled {
			fmt.Fprintln(cmd.OutOrStdout(), "  rolled back:", name)
		}
		if err == nil && len(rolled) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to roll back.")
		}
		return err
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show which migrations have run",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.Connect(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		status, err := migration.New(a.DB).Status(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "RAN\tBATCH\tMIGRATION")
		for _, s := range status {
			ran, batch := "No", "-"
			if s.Ran {
				ran, batch = "Yes", fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", ran, batch, s.Name)
		}
		return w.Flush()
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the admin user and the sample catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.Boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Fprintln(cmd.OutOrStdout(), "Running seeders…")
		return seeders.RunAll(cmd.Context(), seeders.Deps{
			Users:    a.Services.Users,
			Products: a.Services.Products,
		}, cmd.OutOrStdout())
	},
}
