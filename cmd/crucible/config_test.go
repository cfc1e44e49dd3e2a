package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crucible.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRunConfig(t *testing.T) {
	path := writeConfig(t, `
name: greeting
task:
  url: http://localhost:8080/task
  method: POST
data:
  path: cases.jsonl
scorers:
  - type: exact
  - type: levenshtein
    min_similarity: 0.9
  - type: contains
    substring: World
    case_sensitive: true
  - type: sql
    dialect: postgres
concurrency: 4
rate_limit:
  rps: 5
  burst: 10
`)

	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "greeting", cfg.Name)
	assert.Equal(t, "http://localhost:8080/task", cfg.Task.URL)
	assert.Equal(t, "cases.jsonl", cfg.Data.Path)
	assert.Equal(t, 4, cfg.Concurrency)
	require.Len(t, cfg.Scorers, 4)
	assert.Equal(t, "exact", cfg.Scorers[0].Type)
	require.NotNil(t, cfg.Scorers[1].MinSimilarity)
	assert.Equal(t, 0.9, *cfg.Scorers[1].MinSimilarity)
	assert.Equal(t, "World", cfg.Scorers[2].Substring)
	assert.True(t, cfg.Scorers[2].CaseSensitive)
	assert.Equal(t, "postgres", cfg.Scorers[3].Dialect)
	require.NotNil(t, cfg.RateLimit)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
}

func TestLoadRunConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
task:
  url: http://localhost:8080/task
data:
  path: cases.jsonl
`)

	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "eval", cfg.Name)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Empty(t, cfg.Scorers)
	assert.Nil(t, cfg.RateLimit)
}

func TestLoadRunConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "unknown field rejected",
			content: `
task:
  url: http://localhost:8080/task
data:
  path: cases.jsonl
scorrers:
  - type: exact
`,
		},
		{
			name: "missing task url",
			content: `
task:
  method: POST
data:
  path: cases.jsonl
`,
		},
		{
			name: "unknown scorer type",
			content: `
task:
  url: http://localhost:8080/task
data:
  path: cases.jsonl
scorers:
  - type: fuzzy
`,
		},
		{
			name: "invalid rate limit",
			content: `
task:
  url: http://localhost:8080/task
data:
  path: cases.jsonl
rate_limit:
  rps: 0
  burst: 1
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRunConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRunConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestBuildScorers(t *testing.T) {
	cfg := &RunConfig{
		Scorers: []ScorerConfig{
			{Type: "exact"},
			{Type: "levenshtein"},
			{Type: "regex", Pattern: `^\d+$`},
			{Type: "json"},
			{Type: "json_strict"},
			{Type: "sql", Dialect: "sqlite"},
		},
	}

	built, err := buildScorers(cfg, "")
	require.NoError(t, err)
	require.Len(t, built, 6)
	assert.Equal(t, "exact_match", built[0].Name())
	assert.Equal(t, "levenshtein", built[1].Name())
	assert.Equal(t, "sql", built[5].Name())
}

func TestBuildScorersEmbeddingRequiresKey(t *testing.T) {
	cfg := &RunConfig{Scorers: []ScorerConfig{{Type: "embedding"}}}

	_, err := buildScorers(cfg, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	built, err := buildScorers(cfg, "sk-test")
	require.NoError(t, err)
	require.Len(t, built, 1)
	assert.Equal(t, "embedding_cosine", built[0].Name())
}
