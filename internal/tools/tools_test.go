// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mnemos-ai/mnemos-mcp/internal/database"
	"github.com/mnemos-ai/mnemos-mcp/internal/goals"
	"github.com/mnemos-ai/mnemos-mcp/internal/memorystore"
	"github.com/mnemos-ai/mnemos-mcp/internal/profile"
	"github.com/mnemos-ai/mnemos-mcp/internal/recall"
	"github.com/mnemos-ai/mnemos-mcp/internal/vector"
)

const testOwner = "user-1"

// stubEmbedder maps known phrases to fixed vectors so similarity ordering
// is deterministic.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func newTestContext(t *testing.T) *ToolContext {
	t.Helper()

	cfg := &database.Config{
		Type:       "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:   logger.Silent,
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	memories := memorystore.New(db, memorystore.Config{})
	vectors := vector.NewIndex(db)
	return NewToolContext(
		memories,
		vectors,
		profile.NewStore(db),
		goals.NewStore(db),
		recall.NewSearcher(vectors, memories),
	)
}

func callTool(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (string, bool) {
	t.Helper()

	var req mcp.CallToolRequest
	req.Params.Arguments = args

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)

	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text, result.IsError
}

func TestRememberAndDuplicate(t *testing.T) {
	tc := newTestContext(t)
	handler := RememberHandler(tc, testOwner)

	text, isErr := callTool(t, handler, map[string]interface{}{
		"content": "User likes strong coffee",
		"kind":    "preference",
	})
	require.False(t, isErr)
	assert.Contains(t, text, "Stored memory #")

	// Same fact again, with different surrounding whitespace.
	text, isErr = callTool(t, handler, map[string]interface{}{
		"content": "  User likes   strong coffee ",
	})
	require.False(t, isErr)
	assert.Contains(t, text, "Already known")

	rows, err := tc.Memories.Recent(context.Background(), testOwner, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRemember_NearJSONMetadata(t *testing.T) {
	tc := newTestContext(t)
	handler := RememberHandler(tc, testOwner)

	_, isErr := callTool(t, handler, map[string]interface{}{
		"content":  "User is reading a sci-fi novel",
		"metadata": "{'doc_id': 'doc-1',}",
	})
	require.False(t, isErr)

	rows, err := tc.Memories.Recent(context.Background(), testOwner, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].MetadataJSON, "doc-1")
}

func TestRemember_InvalidInputs(t *testing.T) {
	tc := newTestContext(t)
	handler := RememberHandler(tc, testOwner)

	_, isErr := callTool(t, handler, map[string]interface{}{})
	assert.True(t, isErr)

	_, isErr = callTool(t, handler, map[string]interface{}{
		"content":     "something",
		"sensitivity": "extreme",
	})
	assert.True(t, isErr)

	_, isErr = callTool(t, handler, map[string]interface{}{
		"content":   "something",
		"namespace": "team",
	})
	assert.True(t, isErr)
}

func TestRecall_SemanticOrdering(t *testing.T) {
	tc := newTestContext(t)
	tc.SetEmbedder(&stubEmbedder{vectors: map[string][]float32{
		"User likes coffee": {1, 0, 0},
		"User hikes on weekends": {0, 1, 0},
		"coffee": {1, 0, 0},
	}})

	remember := RememberHandler(tc, testOwner)
	for _, content := range []string{"User likes coffee", "User hikes on weekends"} {
		_, isErr := callTool(t, remember, map[string]interface{}{"content": content})
		require.False(t, isErr)
	}

	text, isErr := callTool(t, RecallHandler(tc, testOwner), map[string]interface{}{
		"query": "coffee",
		"limit": 1,
	})
	require.False(t, isErr)
	assert.Contains(t, text, "User likes coffee")
	assert.NotContains(t, text, "hikes")
}

func TestRecall_FallsBackToRecent(t *testing.T) {
	tc := newTestContext(t)

	_, isErr := callTool(t, RememberHandler(tc, testOwner), map[string]interface{}{
		"content": "User plays chess",
	})
	require.False(t, isErr)

	text, isErr := callTool(t, RecallHandler(tc, testOwner), map[string]interface{}{
		"query": "hobbies",
	})
	require.False(t, isErr)
	assert.Contains(t, text, "recent")
	assert.Contains(t, text, "User plays chess")
}

func TestForgetByIDs(t *testing.T) {
	tc := newTestContext(t)

	text, isErr := callTool(t, RememberHandler(tc, testOwner), map[string]interface{}{
		"content": "temporary fact",
	})
	require.False(t, isErr)
	require.Contains(t, text, "#1")

	text, isErr = callTool(t, ForgetHandler(tc, testOwner), map[string]interface{}{
		"ids": []interface{}{float64(1)},
	})
	require.False(t, isErr)
	assert.Contains(t, text, "Forgot 1 of 1")

	rows, err := tc.Memories.Recent(context.Background(), testOwner, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestForgetByMetadata(t *testing.T) {
	tc := newTestContext(t)
	remember := RememberHandler(tc, testOwner)

	_, isErr := callTool(t, remember, map[string]interface{}{
		"content":  "fact from doc one",
		"metadata": `{"doc_id": "doc-1"}`,
	})
	require.False(t, isErr)
	_, isErr = callTool(t, remember, map[string]interface{}{
		"content": "unrelated fact",
	})
	require.False(t, isErr)

	text, isErr := callTool(t, ForgetHandler(tc, testOwner), map[string]interface{}{
		"metadata_key":   "doc_id",
		"metadata_value": "doc-1",
	})
	require.False(t, isErr)
	assert.Contains(t, text, "Forgot 1 memories")

	rows, err := tc.Memories.Recent(context.Background(), testOwner, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "unrelated fact", rows[0].Content)
}

func TestForget_NoSelector(t *testing.T) {
	tc := newTestContext(t)

	_, isErr := callTool(t, ForgetHandler(tc, testOwner), map[string]interface{}{})
	assert.True(t, isErr)
}

func TestStats(t *testing.T) {
	tc := newTestContext(t)
	remember := RememberHandler(tc, testOwner)

	_, isErr := callTool(t, remember, map[string]interface{}{
		"content": "User likes coffee",
		"kind":    "preference",
	})
	require.False(t, isErr)

	text, isErr := callTool(t, StatsHandler(tc, testOwner), map[string]interface{}{})
	require.False(t, isErr)
	assert.Contains(t, text, `"total": 1`)
	assert.Contains(t, text, `"preference"`)
}

func TestProfileGetAndLogEvent(t *testing.T) {
	tc := newTestContext(t)
	handler := ProfileHandler(tc, testOwner)

	text, isErr := callTool(t, handler, map[string]interface{}{"action": "get"})
	require.False(t, isErr)
	assert.Contains(t, text, `"identity"`)
	assert.Contains(t, text, profile.CurrentSchemaVersion)

	_, isErr = callTool(t, handler, map[string]interface{}{
		"action":   "log_event",
		"event":    "started therapy journaling",
		"category": profile.EvolutionCategoryMilestone,
	})
	require.False(t, isErr)

	text, isErr = callTool(t, handler, map[string]interface{}{"action": "get"})
	require.False(t, isErr)
	assert.Contains(t, text, "started therapy journaling")
	assert.Contains(t, text, `"milestone_count": 1`)
}

func TestProfileSetLocation_ExplicitBlocksPassive(t *testing.T) {
	tc := newTestContext(t)
	handler := ProfileHandler(tc, testOwner)

	_, isErr := callTool(t, handler, map[string]interface{}{
		"action":       "set_location",
		"country_code": "CO",
	})
	require.False(t, isErr)

	text, isErr := callTool(t, handler, map[string]interface{}{
		"action":       "set_location",
		"language_tag": "es-MX",
	})
	require.False(t, isErr)
	assert.Contains(t, text, "unchanged")

	text, isErr = callTool(t, handler, map[string]interface{}{"action": "get"})
	require.False(t, isErr)
	assert.Contains(t, text, `"country_code": "CO"`)
	assert.Contains(t, text, "America/Bogota")
}

func TestGoalLifecycle(t *testing.T) {
	tc := newTestContext(t)
	handler := GoalHandler(tc, testOwner)

	text, isErr := callTool(t, handler, map[string]interface{}{
		"action":      "add",
		"description": "run a marathon",
		"goal_type":   "fitness",
		"target_date": "2027-04-01",
	})
	require.False(t, isErr)
	assert.Contains(t, text, "Goal #1")

	text, isErr = callTool(t, handler, map[string]interface{}{"action": "list"})
	require.False(t, isErr)
	assert.Contains(t, text, "run a marathon")
	assert.Contains(t, text, "2027-04-01")

	text, isErr = callTool(t, handler, map[string]interface{}{
		"action":  "set_status",
		"goal_id": float64(1),
		"status":  "completed",
	})
	require.False(t, isErr)
	assert.Contains(t, text, "completed")

	text, isErr = callTool(t, handler, map[string]interface{}{"action": "list"})
	require.False(t, isErr)
	assert.Contains(t, text, "No active goals")
}

func TestGoal_InvalidInputs(t *testing.T) {
	tc := newTestContext(t)
	handler := GoalHandler(tc, testOwner)

	_, isErr := callTool(t, handler, map[string]interface{}{"action": "add"})
	assert.True(t, isErr)

	_, isErr = callTool(t, handler, map[string]interface{}{
		"action":      "add",
		"description": "learn piano",
		"target_date": "April 2027",
	})
	assert.True(t, isErr)

	_, isErr = callTool(t, handler, map[string]interface{}{
		"action":  "set_status",
		"goal_id": float64(99),
		"status":  "completed",
	})
	assert.True(t, isErr)

	_, isErr = callTool(t, handler, map[string]interface{}{
		"action":  "set_status",
		"goal_id": float64(1),
		"status":  "paused",
	})
	assert.True(t, isErr)
}

func TestMilestoneAddAndRecent(t *testing.T) {
	tc := newTestContext(t)

	_, isErr := callTool(t, GoalHandler(tc, testOwner), map[string]interface{}{
		"action":      "add",
		"description": "run a marathon",
	})
	require.False(t, isErr)

	handler := MilestoneHandler(tc, testOwner)
	_, isErr = callTool(t, handler, map[string]interface{}{
		"operation": "add",
		"action":    "completed first 5k run",
		"emotion":   "proud",
		"goal_id":   float64(1),
	})
	require.False(t, isErr)
	_, isErr = callTool(t, handler, map[string]interface{}{
		"operation": "add",
		"action":    "tried a new recipe",
	})
	require.False(t, isErr)

	text, isErr := callTool(t, handler, map[string]interface{}{"operation": "recent"})
	require.False(t, isErr)
	assert.Contains(t, text, "completed first 5k run")
	assert.Contains(t, text, "(felt proud)")
	assert.Contains(t, text, "goal: run a marathon")
	assert.True(t, strings.Contains(text, "tried a new recipe"))

	_, isErr = callTool(t, handler, map[string]interface{}{"operation": "add"})
	assert.True(t, isErr)
}
