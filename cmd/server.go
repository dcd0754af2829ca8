/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jjudge-oj/grader/config"
	"github.com/jjudge-oj/grader/internal/logging"
	"github.com/jjudge-oj/grader/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the grading server",
	Long: `Starts the grading server. Usage:

	grader server
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig()

		logger, err := logging.New(cfg.Log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = logger.Sync() }()

		srv, err := server.New(cmd.Context(), cfg, logger)
		if err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-stop
			logger.Info("shutting down", zap.String("signal", sig.String()))
			if err := srv.Shutdown(); err != nil {
				logger.Error("shutdown failed", zap.Error(err))
			}
		}()

		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
