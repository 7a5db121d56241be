package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
)

func TestWatchConfigValidate(t *testing.T) {
	tests := []struct {
		name          string
		config        *WatchConfig
		expectedError string
	}{
		{
			name:   "valid defaults",
			config: NewWatchConfig(),
		},
		{
			name: "structured format",
			config: &WatchConfig{
				Format:       "structured",
				DebounceTime: 100,
			},
		},
		{
			name: "unknown format",
			config: &WatchConfig{
				Format:       "xml",
				DebounceTime: 100,
			},
			expectedError: "unknown report format",
		},
		{
			name: "negative debounce",
			config: &WatchConfig{
				Format:       "text",
				DebounceTime: -1,
			},
			expectedError: "debounce time cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSkipRegistryEvent(t *testing.T) {
	tests := []struct {
		name   string
		event  fsnotify.Event
		output string
		skip   bool
	}{
		{
			name:  "markdown write",
			event: fsnotify.Event{Name: "registry/skills/payment-flow/SKILL.md", Op: fsnotify.Write},
			skip:  false,
		},
		{
			name:  "new lesson file",
			event: fsnotify.Event{Name: "registry/lessons/cache-stampede.md", Op: fsnotify.Create},
			skip:  false,
		},
		{
			name:  "hidden file",
			event: fsnotify.Event{Name: "registry/.registry.md.swp", Op: fsnotify.Write},
			skip:  true,
		},
		{
			name:  "editor backup",
			event: fsnotify.Event{Name: "registry/skills/payment-flow/SKILL.md~", Op: fsnotify.Write},
			skip:  true,
		},
		{
			name:   "our own report output",
			event:  fsnotify.Event{Name: "report.json", Op: fsnotify.Create},
			output: "report.json",
			skip:   true,
		},
		{
			name:  "chmod only",
			event: fsnotify.Event{Name: "registry/skills/payment-flow/SKILL.md", Op: fsnotify.Chmod},
			skip:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outputAbs := ""
			if tt.output != "" {
				var err error
				outputAbs, err = filepath.Abs(tt.output)
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.skip, skipRegistryEvent(tt.event, outputAbs))
		})
	}
}

func TestDebounceRegistryEventsCoalescesBursts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan fsnotify.Event)
	output := make(chan struct{}, 4)

	go debounceRegistryEvents(ctx, input, output, 50*time.Millisecond)

	for i := 0; i < 5; i++ {
		input <- fsnotify.Event{Name: "registry/skills/payment-flow/SKILL.md", Op: fsnotify.Write}
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-output:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a debounced signal")
	}

	select {
	case <-output:
		t.Fatal("burst produced more than one signal")
	case <-time.After(200 * time.Millisecond):
	}
}
