package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"webhook-service/config"
	"webhook-service/database"
	"webhook-service/repository"
	"webhook-service/seed"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "seedctl",
		Short:        "Prepare the payment tables for the webhook service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(statusCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the pending, confirmed and cancelled tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := open()
			if err != nil {
				return err
			}
			defer database.Close(db) //nolint:errcheck
			if err := database.Migrate(db); err != nil {
				return err
			}
			fmt.Println("Tables migrated")
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every row from all three payment tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, repo, err := open()
			if err != nil {
				return err
			}
			defer database.Close(db) //nolint:errcheck

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if err := repo.ResetAll(ctx); err != nil {
				return err
			}
			fmt.Println("Payment tables reset")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "seed [file]",
		Short: "Insert pending payments from a JSON or YAML seed file",
		Long: `Insert pending payments from a seed file.

Records whose transaction_id already exists are skipped.

Examples:
  seedctl seed testdata/pending.json
  seedctl seed testdata/pending.yaml --reset`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}

			db, repo, err := open()
			if err != nil {
				return err
			}
			defer database.Close(db) //nolint:errcheck
			if err := database.Migrate(db); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			n, err := seed.Apply(ctx, repo, records, reset, zap.NewNop())
			if err != nil {
				return err
			}
			fmt.Printf("Inserted %d of %d pending payments\n", n, len(records))
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "truncate all payment tables first")
	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [transaction_id]",
		Short: "Show which set holds a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, repo, err := open()
			if err != nil {
				return err
			}
			defer database.Close(db) //nolint:errcheck

			status, err := repo.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", args[0], status)
			return nil
		},
	}
}

func open() (*gorm.DB, *repository.GormPaymentRepository, error) {
	_ = godotenv.Load()
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Connect(cfg, zap.NewNop())
	if err != nil {
		return nil, nil, err
	}
	return db, repository.NewGormPaymentRepository(db), nil
}
