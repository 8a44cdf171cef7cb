// Command migrate manages the MySQL schema and demo data.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"library-backend/internal/app"
	"library-backend/internal/library/catalog"
	"library-backend/internal/library/lends"
	"library-backend/internal/library/sampledata"
	"library-backend/internal/platform/config"
	"library-backend/internal/platform/db"
	"library-backend/internal/platform/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Manage the library database schema",
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, conn *sqlx.DB) error {
			return db.MigrateUp(ctx, conn.DB)
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, conn *sqlx.DB) error {
			return db.MigrateDown(ctx, conn.DB)
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, conn *sqlx.DB) error {
			return db.MigrationStatus(ctx, conn.DB)
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, conn *sqlx.DB) error {
			v, err := db.MigrationVersion(ctx, conn.DB)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Apply migrations and load the sample catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.Mode, cfg.Log.Level)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		rules, err := app.RulesFromConfig(cfg)
		if err != nil {
			return err
		}
		stores, conn, err := app.OpenStores(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		books := catalog.NewService(stores.Books, log)
		loans := lends.NewService(stores.Loans, rules, log)
		return sampledata.Load(cmd.Context(), books, loans, log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "path to config yaml")
	rootCmd.AddCommand(upCmd, downCmd, statusCmd, versionCmd, seedCmd)
}

// loadConfig は storage 設定に関わらず mysql として扱う
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Storage = config.StorageMySQL
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func withDB(ctx context.Context, fn func(context.Context, *sqlx.DB) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	conn, err := db.Connect(cfg.DB)
	if err != nil {
		return err
	}
	defer conn.Close()

	return fn(ctx, conn)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
