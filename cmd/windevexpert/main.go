// Command windevexpert runs the WinDevExpert platform server, its guided
// installer and the operator tooling.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/windevexpert/windevexpert/internal/config"
	"github.com/windevexpert/windevexpert/internal/logger"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "windevexpert",
		Short: "WinDevExpert platform server and installer",
		Long: `windevexpert serves the WinDevExpert back-office API and the guided
installer, and provides the operator commands around them.

Quick start:
  windevexpert serve                       # Start the HTTP server
  windevexpert install --url http://host   # Interactive installation wizard
  windevexpert migrate up                  # Apply schema migrations
  windevexpert admin create-user --email admin@exemple.fr --name Admin`,
		SilenceUsage: true,
		Version:      version,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			// The installer writes .env next to the binary; a missing file is fine.
			if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the configuration")

	cmd.AddCommand(serveCommand())
	cmd.AddCommand(installCommand())
	cmd.AddCommand(migrateCommand())
	cmd.AddCommand(adminCommand())
	return cmd
}

// loadConfig reads the configuration and installs the default logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(logger.New(cfg.Logging))
	return cfg, nil
}
