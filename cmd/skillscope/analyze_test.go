package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillscope/pkg/health"
	"github.com/jingkaihe/skillscope/pkg/lessons"
)

func newAnalyzeTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	defaults := NewAnalyzeConfig()
	cmd.Flags().StringP("format", "f", defaults.Format, "")
	cmd.Flags().Int("min-cluster-size", defaults.MinClusterSize, "")
	cmd.Flags().Bool("fail-on-missing", defaults.FailOnMissing, "")
	cmd.Flags().StringP("output", "o", defaults.Output, "")
	cmd.Flags().Int("workers", defaults.Workers, "")
	return cmd
}

func TestNewAnalyzeConfig(t *testing.T) {
	config := NewAnalyzeConfig()

	assert.Equal(t, "text", config.Format)
	assert.Equal(t, 4, config.MinClusterSize)
	assert.False(t, config.FailOnMissing)
	assert.Empty(t, config.Output)
	assert.Equal(t, 4, config.Workers)
}

func TestGetAnalyzeConfigFromFlags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config := getAnalyzeConfigFromFlags(newAnalyzeTestCommand())
		assert.Equal(t, NewAnalyzeConfig(), config)
	})

	t.Run("explicit flags", func(t *testing.T) {
		cmd := newAnalyzeTestCommand()
		require.NoError(t, cmd.Flags().Set("format", "structured"))
		require.NoError(t, cmd.Flags().Set("min-cluster-size", "6"))
		require.NoError(t, cmd.Flags().Set("fail-on-missing", "true"))
		require.NoError(t, cmd.Flags().Set("output", "report.json"))
		require.NoError(t, cmd.Flags().Set("workers", "8"))

		config := getAnalyzeConfigFromFlags(cmd)
		assert.Equal(t, "structured", config.Format)
		assert.Equal(t, 6, config.MinClusterSize)
		assert.True(t, config.FailOnMissing)
		assert.Equal(t, "report.json", config.Output)
		assert.Equal(t, 8, config.Workers)
	})
}

func TestEngineConfigFromViper(t *testing.T) {
	originalConfig := viper.AllSettings()
	defer func() {
		viper.Reset()
		for key, value := range originalConfig {
			viper.Set(key, value)
		}
	}()

	t.Run("defaults without config keys", func(t *testing.T) {
		viper.Reset()

		cfg, err := engineConfigFromViper(2, 5)
		require.NoError(t, err)

		assert.Equal(t, 2, cfg.Workers)
		assert.Equal(t, 5, cfg.MinClusterSize)
		assert.Equal(t, health.DefaultPolicy(), cfg.Policy)
		assert.Equal(t, lessons.DefaultConfig(), cfg.Mapping)
	})

	t.Run("partial scoring block overrides only named fields", func(t *testing.T) {
		viper.Reset()
		viper.Set("scoring.lesson_penalty", 5)
		viper.Set("scoring.critical_threshold", 40)

		cfg, err := engineConfigFromViper(4, 4)
		require.NoError(t, err)

		assert.Equal(t, 5, cfg.Policy.LessonPenalty)
		assert.Equal(t, 40, cfg.Policy.CriticalThreshold)
		assert.Equal(t, health.DefaultPolicy().UsageBonus, cfg.Policy.UsageBonus)
		assert.Equal(t, health.DefaultPolicy().HighThreshold, cfg.Policy.HighThreshold)
	})

	t.Run("mapping block replaces category sets", func(t *testing.T) {
		viper.Reset()
		viper.Set("mapping.critical_categories", []string{"outage*"})

		cfg, err := engineConfigFromViper(4, 4)
		require.NoError(t, err)

		assert.Equal(t, []string{"outage*"}, cfg.Mapping.CriticalCategories)
		assert.Equal(t, lessons.DefaultConfig().ActionableCategories, cfg.Mapping.ActionableCategories)
	})

	t.Run("non-map scoring value fails", func(t *testing.T) {
		viper.Reset()
		viper.Set("scoring", "not-a-map")

		_, err := engineConfigFromViper(4, 4)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid scoring configuration")
	})
}
