package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validExport() *Export {
	return &Export{
		Skills: []*Skill{
			{
				ID:   "sk-2",
				Name: "order-fulfillment",
				ModuleDeps: []DeclaredDep{
					{Name: "email-validation", Strength: StrengthRequired},
					{Name: "redis-cache", Strength: StrengthOptional},
				},
				SkillDeps: []DeclaredDep{
					{Name: "batch-processing", Strength: StrengthRequired},
				},
			},
			{
				ID:   "sk-1",
				Name: "batch-processing",
				ModuleDeps: []DeclaredDep{
					{Name: "email-validation", Strength: StrengthRequired},
				},
			},
		},
		Modules: []*Module{
			{ID: "m-1", Name: "email-validation", Category: "validation", Status: "stable"},
			{ID: "m-2", Name: "redis-cache", Category: "caching", Status: "stable"},
		},
		CodeBlocks: []*CodeBlock{
			{ID: "cb-1", Name: "retry-loop", Language: "python"},
		},
		Lessons: []*Lesson{
			{ID: "l-2", Title: "Cache stampede on deploy", Category: "bugfix"},
			{ID: "l-1", Title: "Batch size tuning", Category: "pattern"},
		},
	}
}

func TestNewSnapshot(t *testing.T) {
	snapshot, err := NewSnapshot(validExport())
	require.NoError(t, err)

	t.Run("records sorted by name", func(t *testing.T) {
		require.Len(t, snapshot.Skills(), 2)
		assert.Equal(t, "batch-processing", snapshot.Skills()[0].Name)
		assert.Equal(t, "order-fulfillment", snapshot.Skills()[1].Name)

		require.Len(t, snapshot.Lessons(), 2)
		assert.Equal(t, "l-1", snapshot.Lessons()[0].ID)
	})

	t.Run("name lookups", func(t *testing.T) {
		m, ok := snapshot.ModuleByName("redis-cache")
		require.True(t, ok)
		assert.Equal(t, "m-2", m.ID)

		_, ok = snapshot.ModuleByName("Redis-Cache")
		assert.False(t, ok, "lookup is case sensitive")

		cb, ok := snapshot.CodeBlockByName("retry-loop")
		require.True(t, ok)
		assert.Equal(t, "python", cb.Language)

		sk, ok := snapshot.SkillByID("sk-1")
		require.True(t, ok)
		assert.Equal(t, "batch-processing", sk.Name)

		m, ok = snapshot.ModuleByID("m-1")
		require.True(t, ok)
		assert.Equal(t, "email-validation", m.Name)
	})

	t.Run("edges ordered by skill then declaration", func(t *testing.T) {
		edges := snapshot.Edges()
		require.Len(t, edges, 4)

		assert.Equal(t, "batch-processing", edges[0].FromSkillName)
		assert.Equal(t, "email-validation", edges[0].TargetName)
		assert.Equal(t, KindModule, edges[0].DeclaredKind)

		assert.Equal(t, "order-fulfillment", edges[1].FromSkillName)
		assert.Equal(t, "email-validation", edges[1].TargetName)
		assert.Equal(t, "redis-cache", edges[2].TargetName)
		assert.Equal(t, StrengthOptional, edges[2].Strength)

		assert.Equal(t, "batch-processing", edges[3].TargetName)
		assert.Equal(t, KindSkill, edges[3].DeclaredKind)
	})
}

func TestNewSnapshotMalformed(t *testing.T) {
	t.Run("missing name", func(t *testing.T) {
		export := &Export{Skills: []*Skill{{ID: "sk-1"}}}
		_, err := NewSnapshot(export)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed skill")
		assert.Contains(t, err.Error(), "id and name are required")
	})

	t.Run("unknown strength", func(t *testing.T) {
		export := &Export{Skills: []*Skill{{
			ID:         "sk-1",
			Name:       "batch-processing",
			ModuleDeps: []DeclaredDep{{Name: "email-validation", Strength: "mandatory"}},
		}}}
		_, err := NewSnapshot(export)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown strength "mandatory"`)
	})

	t.Run("all problems reported at once", func(t *testing.T) {
		export := &Export{
			Skills:  []*Skill{{ID: "sk-1"}},
			Modules: []*Module{{Name: "redis-cache"}},
		}
		_, err := NewSnapshot(export)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "malformed skill")
		assert.Contains(t, err.Error(), "malformed module")
	})
}

func TestNewSnapshotDuplicates(t *testing.T) {
	t.Run("duplicate skill name", func(t *testing.T) {
		export := &Export{Skills: []*Skill{
			{ID: "sk-1", Name: "batch-processing"},
			{ID: "sk-2", Name: "batch-processing"},
		}}
		_, err := NewSnapshot(export)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate skill name "batch-processing"`)
	})

	t.Run("duplicate module id", func(t *testing.T) {
		export := &Export{Modules: []*Module{
			{ID: "m-1", Name: "email-validation"},
			{ID: "m-1", Name: "redis-cache"},
		}}
		_, err := NewSnapshot(export)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate module id "m-1"`)
	})

	t.Run("same name across kinds is allowed", func(t *testing.T) {
		export := &Export{
			Skills:  []*Skill{{ID: "sk-1", Name: "batch-processing"}},
			Modules: []*Module{{ID: "m-1", Name: "batch-processing"}},
		}
		snapshot, err := NewSnapshot(export)
		require.NoError(t, err)

		_, isSkill := snapshot.SkillByName("batch-processing")
		_, isModule := snapshot.ModuleByName("batch-processing")
		assert.True(t, isSkill)
		assert.True(t, isModule)
	})
}
