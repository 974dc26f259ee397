package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/config"
)

// Global flags
var (
	flagHome    string
	flagConfig  string
	flagTenant  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "guardian",
	Short: "Guardian - compliance guardrail engine",
	Long: `Guardian gates sensitive case-management actions (finalizing an
assessment, uploading a document, generating AI content) against
configured policy rules and a mandatory PII/safeguarding baseline.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}

// homeDir resolves the Guardian home directory from flags and environment.
func homeDir() string {
	if flagHome != "" {
		return flagHome
	}
	if env := os.Getenv("GUARDIAN_HOME"); env != "" {
		return env
	}
	return config.DefaultHomeDir()
}

// configPath resolves the config file path.
func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.DefaultConfigPath(homeDir())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHome, "home", "", "Guardian home directory (default ~/.guardian)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default <home>/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagTenant, "tenant", "default", "Tenant scope for the command")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(ruleCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(alertCmd)
	rootCmd.AddCommand(versionCmd)
}
