package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillscope/pkg/findings"
	"github.com/jingkaihe/skillscope/pkg/registry"
)

func snapshotFor(t *testing.T, skills []*registry.Skill) *registry.Snapshot {
	t.Helper()
	snapshot, err := registry.NewSnapshot(&registry.Export{Skills: skills})
	require.NoError(t, err)
	return snapshot
}

func dep(name string) registry.DeclaredDep {
	return registry.DeclaredDep{Name: name, Strength: registry.StrengthRequired}
}

func TestBuild(t *testing.T) {
	snapshot := snapshotFor(t, []*registry.Skill{
		{
			ID:   "sk-1",
			Name: "order-fulfillment",
			ModuleDeps: []registry.DeclaredDep{
				dep("email-validation"),
				dep("redis-cache"),
				dep("email-validation"),
			},
			SkillDeps: []registry.DeclaredDep{dep("batch-processing")},
		},
		{ID: "sk-2", Name: "batch-processing", ModuleDeps: []registry.DeclaredDep{dep("redis-cache")}},
	})

	g, list := Build(snapshot)
	require.Equal(t, 0, list.Len())

	t.Run("duplicate declarations stay in the multigraph", func(t *testing.T) {
		assert.Len(t, g.Edges(), 5)
		assert.Len(t, g.EdgesFrom("order-fulfillment"), 4)
	})

	t.Run("incoming edges", func(t *testing.T) {
		to := g.EdgesTo("redis-cache")
		require.Len(t, to, 2)
		assert.Equal(t, "batch-processing", to[0].FromSkillName)
		assert.Equal(t, "order-fulfillment", to[1].FromSkillName)
	})

	t.Run("module targets deduped in declaration order", func(t *testing.T) {
		assert.Equal(t, []string{"email-validation", "redis-cache"}, g.ModuleTargets("order-fulfillment"))
		assert.Nil(t, g.ModuleTargets("unknown-skill"))
	})
}

func TestBuildSelfDependency(t *testing.T) {
	snapshot := snapshotFor(t, []*registry.Skill{
		{ID: "sk-1", Name: "batch-processing", SkillDeps: []registry.DeclaredDep{dep("batch-processing")}},
	})

	g, list := Build(snapshot)

	selfs := list.ByCode(findings.SelfDependency)
	require.Len(t, selfs, 1)
	assert.Equal(t, findings.LevelWarning, selfs[0].Level)
	assert.Equal(t, "batch-processing", selfs[0].Skill)

	// Self edge stays in the graph and is not also a cycle.
	assert.Len(t, g.EdgesFrom("batch-processing"), 1)
	assert.Empty(t, list.ByCode(findings.CyclicSkillDependency))
}

func TestBuildCycles(t *testing.T) {
	t.Run("two skill cycle", func(t *testing.T) {
		snapshot := snapshotFor(t, []*registry.Skill{
			{ID: "sk-1", Name: "alpha", SkillDeps: []registry.DeclaredDep{dep("beta")}},
			{ID: "sk-2", Name: "beta", SkillDeps: []registry.DeclaredDep{dep("alpha")}},
		})

		_, list := Build(snapshot)

		cycles := list.ByCode(findings.CyclicSkillDependency)
		require.Len(t, cycles, 1)
		assert.Equal(t, "alpha -> beta -> alpha", cycles[0].Detail)
		assert.Equal(t, findings.LevelWarning, cycles[0].Level)
	})

	t.Run("three skill cycle reported once", func(t *testing.T) {
		snapshot := snapshotFor(t, []*registry.Skill{
			{ID: "sk-1", Name: "gamma", SkillDeps: []registry.DeclaredDep{dep("alpha")}},
			{ID: "sk-2", Name: "alpha", SkillDeps: []registry.DeclaredDep{dep("beta")}},
			{ID: "sk-3", Name: "beta", SkillDeps: []registry.DeclaredDep{dep("gamma")}},
		})

		_, list := Build(snapshot)

		cycles := list.ByCode(findings.CyclicSkillDependency)
		require.Len(t, cycles, 1)
		assert.Equal(t, "alpha -> beta -> gamma -> alpha", cycles[0].Detail)
	})

	t.Run("duplicate edge does not duplicate the cycle", func(t *testing.T) {
		snapshot := snapshotFor(t, []*registry.Skill{
			{ID: "sk-1", Name: "alpha", SkillDeps: []registry.DeclaredDep{dep("beta"), dep("beta")}},
			{ID: "sk-2", Name: "beta", SkillDeps: []registry.DeclaredDep{dep("alpha")}},
		})

		_, list := Build(snapshot)
		assert.Len(t, list.ByCode(findings.CyclicSkillDependency), 1)
	})

	t.Run("dangling skill target is not a cycle", func(t *testing.T) {
		snapshot := snapshotFor(t, []*registry.Skill{
			{ID: "sk-1", Name: "alpha", SkillDeps: []registry.DeclaredDep{dep("ghost")}},
		})

		_, list := Build(snapshot)
		assert.Empty(t, list.ByCode(findings.CyclicSkillDependency))
	})
}
