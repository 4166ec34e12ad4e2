package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NirajanKhadka/JobQst-sub000/internal/logging"
	"github.com/NirajanKhadka/JobQst-sub000/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one discovery-to-analysis cycle and exit",
	Long: "Scrapes every enabled source, dedups and scores the postings,\n" +
		"persists them to the local database and prints the run summary.",
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, v, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(cfg.App.LogLevel)
	logWarnings(logger, v)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	c := openCache(cfg, logger)
	if c != nil {
		defer c.Close()
	}

	sum, runErr := runPipeline(ctx, cfg, "", c, &store.Sink{DB: db}, nil, logger)
	if sum != nil {
		out, _ := json.MarshalIndent(sum, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
	}
	return runErr
}
