package framework

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllRoles_OrderedAndComplete(t *testing.T) {
	all := AllRoles()
	require.Len(t, all, 8)

	for i, r := range all {
		assert.Equal(t, i+1, r.ID)
		assert.NotEmpty(t, r.Name)
		assert.NotEmpty(t, r.SystemPrompt)
		assert.NotEmpty(t, r.FrameworkLayers)
		assert.Contains(t, r.SystemPrompt, "INDEPENDENTLY")
		for _, id := range r.FrameworkLayers {
			_, ok := LayerByID(id)
			assert.True(t, ok, "role %d references unknown layer %s", r.ID, id)
		}
	}
}

func TestAllRoles_ReturnsCopies(t *testing.T) {
	first := AllRoles()
	first[0].FrameworkLayers[0] = "Z"
	first[0].Weight = 99

	again, ok := RoleByID(1)
	require.True(t, ok)
	assert.Equal(t, "A", again.FrameworkLayers[0])
	assert.Equal(t, 1.5, again.Weight)
}

func TestHardGateRoles(t *testing.T) {
	gates := HardGateRoles()
	require.Len(t, gates, 2)
	assert.Equal(t, "Commercial Impact Analyst", gates[0].Name)
	assert.Equal(t, "Brand Memory & Distinctiveness Specialist", gates[1].Name)
	for _, g := range gates {
		assert.Contains(t, g.SystemPrompt, "HARD GATE")
	}
}

func TestPatternBreaker(t *testing.T) {
	pb, ok := RoleByID(PatternBreakerRoleID)
	require.True(t, ok)
	assert.Equal(t, "Creative Pattern Breaker", pb.Name)
	assert.False(t, pb.IsHardGate)
	assert.Contains(t, pb.SystemPrompt, "PENALTY")
}

func TestRoleWeights(t *testing.T) {
	w := RoleWeights()
	assert.Equal(t, map[int]float64{
		1: 1.5, 2: 1.2, 3: 1.2, 4: 1.0, 5: 1.0, 6: 0.8, 7: 0.9, 8: 0.8,
	}, w)
}

func TestRoleByID_Unknown(t *testing.T) {
	_, ok := RoleByID(42)
	assert.False(t, ok)
}

func TestLayers(t *testing.T) {
	all := AllLayers()
	require.Len(t, all, 6)

	ids := make([]string, 0, len(all))
	for _, l := range all {
		ids = append(ids, l.ID)
		assert.GreaterOrEqual(t, len(l.SubCriteria), 1)
		assert.LessOrEqual(t, len(l.SubCriteria), 3)
		for _, sc := range l.SubCriteria {
			assert.True(t, strings.HasPrefix(sc.ID, l.ID), "sub-criterion %s outside layer %s", sc.ID, l.ID)
			assert.NotEmpty(t, sc.Question)
			assert.NotEmpty(t, sc.ScoreType)
			assert.NotEmpty(t, sc.FailCondition)
			assert.Contains(t, sc.EvaluationMechanic, "Lock")
		}
	}
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}, ids)
}

func TestLayersFor_SkipsUnknownAndKeepsOrder(t *testing.T) {
	got := LayersFor([]string{"E", "X", "B"})
	require.Len(t, got, 2)
	assert.Equal(t, "E", got[0].ID)
	assert.Equal(t, "B", got[1].ID)
}

func TestRenderLayers(t *testing.T) {
	out := RenderLayers(LayersFor([]string{"A", "B"}))

	assert.Contains(t, out, "## LAYER A — EMOTIONAL PREDICTION")
	assert.Contains(t, out, "## LAYER B — BRAND LINKAGE & DISTINCTIVENESS")
	assert.Contains(t, out, "### A1. Emotional Response Strength")
	assert.Contains(t, out, "**Score Type**: 1-5")
	assert.Contains(t, out, `**Fail Condition**: "Great ad, wrong brand" risk`)
	assert.Contains(t, out, "4) Apply the following test: if the emotion cannot be named without explaining the story, cap score at 2.")
	assert.Contains(t, out, "\n---\n\n")
	assert.NotContains(t, out, "LAYER C")
}

func TestScoringInstructions(t *testing.T) {
	s := ScoringInstructions()
	for _, field := range []string{`"result"`, `"score"`, `"confidence"`, `"justification"`, `"layer_scores"`} {
		assert.Contains(t, s, field)
	}
	assert.Contains(t, s, "```json")
	assert.Contains(t, s, "Lock each score before proceeding to the next")
}
