package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/windevexpert/windevexpert/internal/domain/install"
	"github.com/windevexpert/windevexpert/internal/tui"
	"github.com/windevexpert/windevexpert/internal/wizard"
)

func installCommand() *cobra.Command {
	var (
		baseURL    string
		accessible bool
		exportPath string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Run the interactive installation wizard",
		Long: `Walk through the installation wizard: configuration, environment
validation, the seven installation steps and the removal of the installer.

Every action is executed by a running "windevexpert serve" reachable at --url.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			initial, err := install.NewConfig()
			if err != nil {
				return fmt.Errorf("generate secrets: %w", err)
			}
			client := wizard.NewHTTPClient(baseURL, &http.Client{Timeout: timeout})
			runner := wizard.NewRunner(client, initial)

			err = tui.Run(ctx, runner, tui.Options{
				Accessible: accessible,
				Out:        cmd.ErrOrStderr(),
				ExportPath: exportPath,
			})
			if errors.Is(err, tui.ErrAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "base URL of the installer server")
	cmd.Flags().BoolVar(&accessible, "accessible", os.Getenv("ACCESSIBLE") != "", "plain prompts for screen readers")
	cmd.Flags().StringVar(&exportPath, "export", install.ExportFilename, "file receiving the exported configuration")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "timeout of one installer request")
	return cmd
}
