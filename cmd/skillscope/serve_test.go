package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jingkaihe/skillscope/pkg/gaps"
)

func TestNewServeConfig(t *testing.T) {
	config := NewServeConfig()

	assert.Equal(t, "localhost", config.Host)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, gaps.DefaultMinClusterSize, config.MinClusterSize)
	assert.Equal(t, 4, config.Workers)
}

func TestValidateServeConfig(t *testing.T) {
	bind := func(host string, port int) *ServeConfig {
		config := NewServeConfig()
		config.Host = host
		config.Port = port
		return config
	}

	tests := []struct {
		name          string
		config        *ServeConfig
		expectedError string
	}{
		{name: "defaults", config: NewServeConfig()},
		{name: "all interfaces", config: bind("0.0.0.0", 3000)},
		{name: "loopback ip", config: bind("127.0.0.1", 9090)},
		{name: "dns hostname", config: bind("skillscope.internal", 8080)},
		// Privileged ports only warn; binding may still need elevated rights.
		{name: "privileged port", config: bind("localhost", 443)},
		{
			name:          "empty host",
			config:        bind("", 8080),
			expectedError: "host cannot be empty",
		},
		{
			name:          "host with embedded port",
			config:        bind("localhost:8080", 8080),
			expectedError: "invalid host",
		},
		{
			name:          "host with whitespace",
			config:        bind("skill scope", 8080),
			expectedError: "invalid host",
		},
		{
			name:          "zero port",
			config:        bind("localhost", 0),
			expectedError: "port must be between 1 and 65535",
		},
		{
			name:          "port above range",
			config:        bind("localhost", 70000),
			expectedError: "port must be between 1 and 65535",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateServeConfig(tt.config)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
