package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaFor(t *testing.T) {
	t.Run("registry schema describes the bundle format", func(t *testing.T) {
		schema, err := schemaFor("registry")
		require.NoError(t, err)

		data, err := json.Marshal(schema)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"skills"`)
		assert.Contains(t, string(data), `"modules"`)
		assert.Contains(t, string(data), `"module_dependencies"`)
	})

	t.Run("report schema describes the structured report", func(t *testing.T) {
		schema, err := schemaFor("report")
		require.NoError(t, err)

		data, err := json.Marshal(schema)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"dependency_matrix"`)
		assert.Contains(t, string(data), `"usage_ranking"`)
		assert.Contains(t, string(data), `"summary"`)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := schemaFor("conversations")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown schema target")
	})
}
