package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillscope/pkg/engine"
	"github.com/jingkaihe/skillscope/pkg/gaps"
	"github.com/jingkaihe/skillscope/pkg/logger"
	"github.com/jingkaihe/skillscope/pkg/presenter"
	"github.com/jingkaihe/skillscope/pkg/report"
)

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	Format         string
	Output         string
	DebounceTime   int
	MinClusterSize int
	Workers        int
}

// NewWatchConfig creates a new WatchConfig with default values
func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		Format:         "text",
		Output:         "",
		DebounceTime:   500,
		MinClusterSize: gaps.DefaultMinClusterSize,
		Workers:        4,
	}
}

// Validate validates the WatchConfig and returns an error if invalid
func (c *WatchConfig) Validate() error {
	if _, err := report.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.DebounceTime < 0 {
		return errors.Errorf("debounce time cannot be negative: %d", c.DebounceTime)
	}
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch [registry-path]",
	Short: "Re-run the analysis whenever the registry export changes",
	Long: `Continuously monitors a registry export and re-runs the full analysis
whenever it changes, rewriting the report each time.

Edits usually arrive in bursts (an editor save touches several files), so
change events are debounced into a single re-run. A registry that is
momentarily malformed mid-edit logs the load error and keeps watching.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		config := getWatchConfigFromFlags(cmd)

		if err := config.Validate(); err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			presenter.Warning("\nCancellation requested, shutting down...")
			cancel()
		}()

		engineCfg, err := engineConfigFromViper(config.Workers, config.MinClusterSize)
		if err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}
		eng, err := engine.New(engineCfg)
		if err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}

		runWatchMode(ctx, eng, config, args[0])
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	defaults := NewWatchConfig()
	watchCmd.Flags().StringP("format", "f", defaults.Format, "Report format (text or structured)")
	watchCmd.Flags().StringP("output", "o", defaults.Output, "Write the report to a file instead of stdout")
	watchCmd.Flags().IntP("debounce", "d", defaults.DebounceTime, "Debounce time in milliseconds for file change events")
	watchCmd.Flags().Int("min-cluster-size", defaults.MinClusterSize, "Smallest orphan cluster that warrants a proposed skill")
	watchCmd.Flags().Int("workers", defaults.Workers, "Number of resolution workers")
}

// getWatchConfigFromFlags extracts watch configuration from command flags
func getWatchConfigFromFlags(cmd *cobra.Command) *WatchConfig {
	config := NewWatchConfig()

	if format, err := cmd.Flags().GetString("format"); err == nil {
		config.Format = format
	}
	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Output = output
	}
	if debounceTime, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounceTime
	}
	if minClusterSize, err := cmd.Flags().GetInt("min-cluster-size"); err == nil {
		config.MinClusterSize = minClusterSize
	}
	if workers, err := cmd.Flags().GetInt("workers"); err == nil {
		config.Workers = workers
	}

	return config
}

func runWatchMode(ctx context.Context, eng *engine.Engine, config *WatchConfig, source string) {
	format, _ := report.ParseFormat(config.Format)

	rerun := func() {
		result, err := eng.Run(ctx, source)
		if err != nil {
			presenter.Error(err, "Analysis failed, waiting for further changes")
			logger.G(ctx).WithError(err).Error("analysis run failed")
			return
		}

		if config.Output != "" {
			if err := report.WriteFile(config.Output, result.Report, format); err != nil {
				presenter.Error(err, "Failed to write report")
				logger.G(ctx).WithError(err).Error("failed to write report")
				return
			}
			presenter.Success(fmt.Sprintf("Report written to %s", config.Output))
			return
		}

		presenter.Separator()
		if err := report.Render(os.Stdout, result.Report, format); err != nil {
			presenter.Error(err, "Failed to render report")
		}
		presenter.Separator()
	}

	rerun()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		presenter.Error(err, "Failed to create file watcher")
		logger.G(ctx).WithError(err).Fatal("Failed to create file watcher")
	}
	defer watcher.Close()

	if err := watchRegistryPath(watcher, source); err != nil {
		presenter.Error(err, "Failed to watch registry")
		logger.G(ctx).WithError(err).Fatal("Failed to watch registry")
	}

	changes := make(chan fsnotify.Event)
	dirty := make(chan struct{})

	// Coalesce change bursts into a single re-run per quiet period.
	go debounceRegistryEvents(ctx, changes, dirty, time.Duration(config.DebounceTime)*time.Millisecond)

	outputAbs := ""
	if config.Output != "" {
		outputAbs, _ = filepath.Abs(config.Output)
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if skipRegistryEvent(event, outputAbs) {
					continue
				}
				// A skill or lesson subdirectory created after startup
				// must be watched too.
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := watcher.Add(event.Name); err != nil {
							logger.G(ctx).WithError(err).WithField("directory", event.Name).Warn("failed to watch new directory")
						}
					}
				}
				logger.G(ctx).WithFields(map[string]any{
					"file":      event.Name,
					"operation": event.Op.String(),
				}).Debug("registry change detected")
				changes <- event
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				presenter.Error(err, "File watcher error")
				logger.G(ctx).WithError(err).Error("error watching registry")
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		for {
			select {
			case <-dirty:
				presenter.Info("Registry changed, re-running analysis")
				rerun()
			case <-ctx.Done():
				return
			}
		}
	}()

	presenter.Info("Watching registry for changes... Press Ctrl+C to stop")
	logger.G(ctx).WithField("source", source).Info("registry watcher initialized")

	<-ctx.Done()
}

// watchRegistryPath registers the export with the watcher. Directory exports
// are watched recursively; bundle and database exports watch the parent
// directory so atomic rename-style saves are still observed.
func watchRegistryPath(watcher *fsnotify.Watcher, source string) error {
	info, err := os.Stat(source)
	if err != nil {
		return errors.Wrap(err, "failed to stat registry export")
	}

	if !info.IsDir() {
		return watcher.Add(filepath.Dir(source))
	}

	return filepath.Walk(source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != source {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

// skipRegistryEvent filters events that must not trigger a re-run: hidden
// files, editor temp files, and the report we write ourselves.
func skipRegistryEvent(event fsnotify.Event, outputAbs string) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return true
	}
	if outputAbs != "" {
		if eventAbs, err := filepath.Abs(event.Name); err == nil && eventAbs == outputAbs {
			return true
		}
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0
}

// debounceRegistryEvents collapses bursts of change events into one signal
// after a quiet period of the given delay.
func debounceRegistryEvents(ctx context.Context, input <-chan fsnotify.Event, output chan<- struct{}, delay time.Duration) {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case _, ok := <-input:
			if !ok {
				return
			}
			if timer == nil {
				timer = time.NewTimer(delay)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(delay)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			select {
			case output <- struct{}{}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
