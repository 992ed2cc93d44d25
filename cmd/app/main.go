package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ben-burie/Stryde/internal/infra/config"
)

var (
	flagConfig string
	flagOpen   bool
)

var rootCmd = &cobra.Command{
	Use:           "stryde",
	Short:         "Stryde running coach web front end",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the coach pages and live channel",
	RunE:  runServe,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", "", "path to a YAML config file (defaults to CONFIG_PATH or configs/config.yaml)")
	flags.BoolVar(&flagOpen, "open", false, "open the home page in a browser once listening")
	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = runServe
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("stryde: %v", err)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagOpen {
		if err := os.Setenv("BROWSER_OPEN_ON_START", "true"); err != nil {
			return fmt.Errorf("set browser flag: %w", err)
		}
	}

	app, cleanup, err := initializeApp(config.Path(flagConfig))
	if err != nil {
		return fmt.Errorf("failed to wire application: %w", err)
	}
	defer cleanup()

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("application stopped with error: %w", err)
	}
	return nil
}
