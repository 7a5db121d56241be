package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillscope/pkg/engine"
	"github.com/jingkaihe/skillscope/pkg/gaps"
	"github.com/jingkaihe/skillscope/pkg/logger"
	"github.com/jingkaihe/skillscope/pkg/presenter"
	"github.com/jingkaihe/skillscope/pkg/webapi"
)

// ServeConfig holds configuration for the serve command
type ServeConfig struct {
	Host           string
	Port           int
	MinClusterSize int
	Workers        int
}

// NewServeConfig creates a new ServeConfig with default values
func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		Host:           "localhost",
		Port:           8080,
		MinClusterSize: gaps.DefaultMinClusterSize,
		Workers:        4,
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve [registry-path]",
	Short: "Serve the analysis report over an HTTP API",
	Long: `Start a local HTTP server exposing the analysis of a registry export:
the structured report, its text rendering, the orphan analysis, and the
findings list. POST /api/refresh re-runs the analysis against the same
export, so the server can track an evolving catalog without restarting.

The server will be available at http://localhost:8080 by default.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getServeConfigFromFlags(cmd)
		runServeCommand(ctx, config, args[0])
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	defaults := NewServeConfig()
	serveCmd.Flags().String("host", defaults.Host, "Host to bind the web server to")
	serveCmd.Flags().Int("port", defaults.Port, "Port to bind the web server to")
	serveCmd.Flags().Int("min-cluster-size", defaults.MinClusterSize, "Smallest orphan cluster that warrants a proposed skill")
	serveCmd.Flags().Int("workers", defaults.Workers, "Number of resolution workers")
}

// getServeConfigFromFlags extracts serve configuration from command flags
func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	config := NewServeConfig()

	if host, err := cmd.Flags().GetString("host"); err == nil {
		config.Host = host
	}
	if port, err := cmd.Flags().GetInt("port"); err == nil {
		config.Port = port
	}
	if minClusterSize, err := cmd.Flags().GetInt("min-cluster-size"); err == nil {
		config.MinClusterSize = minClusterSize
	}
	if workers, err := cmd.Flags().GetInt("workers"); err == nil {
		config.Workers = workers
	}

	return config
}

// validateServeConfig validates the serve configuration
func validateServeConfig(config *ServeConfig) error {
	if config.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}

	if config.Host != "localhost" && config.Host != "0.0.0.0" {
		if ip := net.ParseIP(config.Host); ip == nil {
			if strings.Contains(config.Host, " ") || strings.Contains(config.Host, ":") {
				return fmt.Errorf("invalid host: %s", config.Host)
			}
		}
	}

	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", config.Port)
	}

	if config.Port < 1024 {
		logger.G(context.Background()).WithField("port", config.Port).Warn("using privileged port (< 1024) may require elevated permissions")
	}

	return nil
}

// runServeCommand starts the analysis API server
func runServeCommand(ctx context.Context, config *ServeConfig, source string) {
	if err := validateServeConfig(config); err != nil {
		presenter.Error(err, "invalid server configuration")
		os.Exit(1)
	}

	engineCfg, err := engineConfigFromViper(config.Workers, config.MinClusterSize)
	if err != nil {
		presenter.Error(err, "invalid configuration")
		os.Exit(1)
	}
	eng, err := engine.New(engineCfg)
	if err != nil {
		presenter.Error(err, "invalid configuration")
		os.Exit(1)
	}

	logger.G(ctx).WithFields(map[string]any{
		"host":   config.Host,
		"port":   config.Port,
		"source": source,
	}).Info("Starting analysis API server")

	server, err := webapi.NewServer(ctx, eng, &webapi.ServerConfig{
		Host:   config.Host,
		Port:   config.Port,
		Source: source,
	})
	if err != nil {
		presenter.Error(err, "failed to create web server")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	presenter.Success(fmt.Sprintf("Analysis API server starting on http://%s:%d", config.Host, config.Port))
	presenter.Info("Press Ctrl+C to stop the server")

	if err := server.Start(ctx); err != nil {
		logger.G(ctx).WithError(err).Error("web server error")
		presenter.Error(err, "web server failed")
		os.Exit(1)
	}

	presenter.Info("Web server stopped")
}
