package command

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/princeprakhar/yamdb-backend/internal/config"
	"github.com/princeprakhar/yamdb-backend/internal/database"
	"github.com/princeprakhar/yamdb-backend/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	databaseURL string // overrides DATABASE_URL
	cfg         *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "yamdbctl",
	Short: "yamdbctl - YaMDb administration",
	Long: `yamdbctl manages a YaMDb database outside the HTTP API:
load or remove fixture data, and create accounts (for example the first admin).

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg = config.Load()
		logger.Init(cfg.Environment, cfg.LogLevel)
		if databaseURL != "" {
			cfg.DatabaseURL = databaseURL
		}
		return nil
	},
}

// Execute runs the root command. It is called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "database URL (default $DATABASE_URL)")

	rootCmd.AddCommand(loadDataCmd)
	rootCmd.AddCommand(removeDataCmd)
	rootCmd.AddCommand(createUserCmd)
}

func openDatabase() (*gorm.DB, func(), error) {
	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return db, closeFn, nil
}
