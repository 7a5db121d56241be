package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillscope/pkg/engine"
	"github.com/jingkaihe/skillscope/pkg/findings"
	"github.com/jingkaihe/skillscope/pkg/gaps"
	"github.com/jingkaihe/skillscope/pkg/logger"
	"github.com/jingkaihe/skillscope/pkg/presenter"
	"github.com/jingkaihe/skillscope/pkg/report"
)

// AnalyzeConfig holds configuration for the analyze command
type AnalyzeConfig struct {
	Format         string
	MinClusterSize int
	FailOnMissing  bool
	Output         string
	Workers        int
}

// NewAnalyzeConfig creates a new AnalyzeConfig with default values
func NewAnalyzeConfig() *AnalyzeConfig {
	return &AnalyzeConfig{
		Format:         "text",
		MinClusterSize: gaps.DefaultMinClusterSize,
		FailOnMissing:  false,
		Output:         "",
		Workers:        4,
	}
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [registry-path]",
	Short: "Run a full analysis over a registry export",
	Long: `Analyze a registry export (a directory of markdown records, a JSON or
YAML bundle, or a SQLite database) and produce the consistency and health
report: dependency matrix, usage ranking, missing references, kind
mismatches, module health, orphans, and skill-gap recommendations.

Findings are advisory and never fail the run by themselves; pass
--fail-on-missing to exit with status 2 when any dependency reference
resolves to nothing. A malformed or duplicated registry record is fatal
and exits with status 1 before any analysis.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := getAnalyzeConfigFromFlags(cmd)
		runAnalyzeCommand(ctx, config, args[0])
	},
}

func init() {
	rootCmd.AddCommand(withTracing(analyzeCmd))

	defaults := NewAnalyzeConfig()
	analyzeCmd.Flags().StringP("format", "f", defaults.Format, "Report format (text or structured)")
	analyzeCmd.Flags().Int("min-cluster-size", defaults.MinClusterSize, "Smallest orphan cluster that warrants a proposed skill")
	analyzeCmd.Flags().Bool("fail-on-missing", defaults.FailOnMissing, "Exit with status 2 when any dependency reference is missing")
	analyzeCmd.Flags().StringP("output", "o", defaults.Output, "Write the report to a file instead of stdout")
	analyzeCmd.Flags().Int("workers", defaults.Workers, "Number of resolution workers")
}

// getAnalyzeConfigFromFlags extracts analyze configuration from command flags
func getAnalyzeConfigFromFlags(cmd *cobra.Command) *AnalyzeConfig {
	config := NewAnalyzeConfig()

	if format, err := cmd.Flags().GetString("format"); err == nil {
		config.Format = format
	}
	if minClusterSize, err := cmd.Flags().GetInt("min-cluster-size"); err == nil {
		config.MinClusterSize = minClusterSize
	}
	if failOnMissing, err := cmd.Flags().GetBool("fail-on-missing"); err == nil {
		config.FailOnMissing = failOnMissing
	}
	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Output = output
	}
	if workers, err := cmd.Flags().GetInt("workers"); err == nil {
		config.Workers = workers
	}

	return config
}

// engineConfigFromViper builds the engine configuration from the given
// flags plus the scoring.* and mapping.* config blocks. Absent keys keep
// the defaults, so a partial scoring block only overrides what it names.
func engineConfigFromViper(workers, minClusterSize int) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	cfg.Workers = workers
	cfg.MinClusterSize = minClusterSize

	if err := viper.UnmarshalKey("scoring", &cfg.Policy); err != nil {
		return cfg, errors.Wrap(err, "invalid scoring configuration")
	}
	if err := viper.UnmarshalKey("mapping", &cfg.Mapping); err != nil {
		return cfg, errors.Wrap(err, "invalid mapping configuration")
	}

	return cfg, nil
}

// runAnalyzeCommand executes the analysis and renders or writes the report
func runAnalyzeCommand(ctx context.Context, config *AnalyzeConfig, source string) {
	format, err := report.ParseFormat(config.Format)
	if err != nil {
		presenter.Error(err, "invalid report format")
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

	result, err := eng.Run(ctx, source)
	if err != nil {
		presenter.Error(err, "failed to analyze registry")
		os.Exit(1)
	}

	if config.Output != "" {
		if err := report.WriteFile(config.Output, result.Report, format); err != nil {
			presenter.Error(err, "failed to write report")
			os.Exit(1)
		}
		presenter.Success(fmt.Sprintf("Report written to %s", config.Output))
		presenter.Stats(&presenter.RunStats{
			Skills:          result.Report.Summary.TotalSkills,
			Modules:         result.Report.Summary.TotalModules,
			CodeBlocks:      result.Report.Summary.TotalCodeBlocks,
			Lessons:         result.Report.Summary.TotalLessons,
			Edges:           result.Report.Summary.TotalEdges,
			MissingRefs:     result.Report.Summary.MissingCount,
			KindMismatches:  result.Report.Summary.MismatchCount,
			Orphans:         result.Report.Summary.OrphanCount,
			Recommendations: result.Report.Summary.Recommendations,
		})
	} else {
		if err := report.Render(os.Stdout, result.Report, format); err != nil {
			presenter.Error(err, "failed to render report")
			os.Exit(1)
		}
	}

	if config.FailOnMissing && result.HasMissing() {
		missing := result.Findings.CountByCode(findings.Missing)
		presenter.Warning(fmt.Sprintf("%d missing dependency reference(s)", missing))
		logger.G(ctx).WithField("missing", missing).Warn("failing due to missing references")
		os.Exit(2)
	}
}
