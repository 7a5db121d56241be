package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillscope/pkg/logger"
)

func init() {
	// Environment variables
	viper.SetEnvPrefix("SKILLSCOPE")
	viper.AutomaticEnv()

	// Config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillscope")
	viper.AddConfigPath(".")

	// Load config file if it exists (ignore errors if it doesn't)
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skillscope",
	Short: "Dependency and health analyzer for AI toolkit registries",
	Long: `Skillscope analyzes a toolkit registry export: it reconciles the
free-text dependency declarations of skills against the module and skill
catalogs, aggregates real usage, scores module health from lesson churn,
and reports orphaned modules with skill-gap recommendations.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetLogFormat(viper.GetString("log_format"))
		if err := logger.SetLogLevel(viper.GetString("log_level")); err != nil {
			logger.L.WithError(err).Warn("invalid log level, keeping default")
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(1)
	},
}

func main() {
	// Add global flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "fmt", "Log format (fmt, json)")

	// Bind flags to viper
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	ctx := context.Background()

	shutdown, err := initTracing(ctx)
	if err != nil {
		logger.L.WithError(err).Warn("failed to initialize tracing")
		shutdown = func(context.Context) error { return nil }
	}

	// Execute
	err = rootCmd.ExecuteContext(ctx)
	if shutdownErr := shutdown(ctx); shutdownErr != nil {
		logger.L.WithError(shutdownErr).Warn("failed to shut down tracing")
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
