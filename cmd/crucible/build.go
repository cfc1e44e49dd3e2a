package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/time/rate"

	"github.com/crucible-dev/crucible/infrastructure/embeddings"
	"github.com/crucible-dev/crucible/infrastructure/scorers"
	"github.com/crucible-dev/crucible/infrastructure/sources"
	"github.com/crucible-dev/crucible/infrastructure/tasks"
	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
)

// buildSource wires the dataset path into a case source, optionally
// filtered to cases whose ID contains the filter string.
func buildSource(cfg *RunConfig, filter string) ports.CaseSource {
	source := ports.CaseSource(sources.NewJSONLSource(cfg.Data.Path))
	if filter != "" {
		source = filteredSource{inner: source, filter: filter}
	}
	return source
}

// filteredSource narrows a source to cases whose ID contains a substring.
type filteredSource struct {
	inner  ports.CaseSource
	filter string
}

func (s filteredSource) Load(ctx context.Context) ([]domain.Case, error) {
	cases, err := s.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]domain.Case, 0, len(cases))
	for _, c := range cases {
		if strings.Contains(c.ID, s.filter) {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// buildTask wires the HTTP endpoint, applying rate limiting when configured.
func buildTask(cfg *RunConfig) (ports.Task, error) {
	httpTask, err := tasks.NewHTTPTask(tasks.HTTPConfig{
		URL:    cfg.Task.URL,
		Method: cfg.Task.Method,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("building task: %w", err)
	}

	task := ports.Task(httpTask)
	if rl := cfg.RateLimit; rl != nil {
		task = tasks.RateLimited(task, rate.Limit(rl.RPS), rl.Burst)
	}
	return task, nil
}

// buildScorers constructs the scorer chain from config. The OpenAI API key
// is only required when an embedding scorer is configured.
func buildScorers(cfg *RunConfig, apiKey string) ([]ports.Scorer, error) {
	built := make([]ports.Scorer, 0, len(cfg.Scorers))
	for i, sc := range cfg.Scorers {
		scorer, err := buildScorer(sc, apiKey)
		if err != nil {
			return nil, fmt.Errorf("scorer %d (%s): %w", i, sc.Type, err)
		}
		built = append(built, scorer)
	}
	return built, nil
}

func buildScorer(sc ScorerConfig, apiKey string) (ports.Scorer, error) {
	switch sc.Type {
	case "exact":
		return scorers.NewExactMatchScorer(), nil

	case "levenshtein":
		cfg := scorers.DefaultLevenshteinConfig()
		if sc.MinSimilarity != nil {
			cfg.MinSimilarity = *sc.MinSimilarity
		}
		return scorers.NewLevenshteinScorer(cfg)

	case "contains":
		return scorers.NewContainsScorer(scorers.ContainsConfig{
			Substring:     sc.Substring,
			CaseSensitive: sc.CaseSensitive,
		})

	case "regex":
		return scorers.NewRegexScorer(sc.Pattern)

	case "json":
		return scorers.NewJSONScorer(), nil

	case "json_schema":
		raw, err := os.ReadFile(sc.SchemaPath)
		if err != nil {
			return nil, fmt.Errorf("reading schema %s: %w", sc.SchemaPath, err)
		}
		var schema any
		if err := json.Unmarshal(raw, &schema); err != nil {
			return nil, fmt.Errorf("parsing schema %s: %w", sc.SchemaPath, err)
		}
		return scorers.NewJSONSchemaScorer(schema)

	case "json_strict":
		return scorers.NewStrictJSONScorer(), nil

	case "sql":
		return scorers.NewSQLScorer(scorers.SQLConfig{
			Dialect: scorers.SQLDialect(sc.Dialect),
		})

	case "embedding":
		if apiKey == "" {
			return nil, fmt.Errorf("embedding scorer requires OPENAI_API_KEY")
		}
		client, err := embeddings.NewOpenAIClient(embeddings.OpenAIConfig{APIKey: apiKey})
		if err != nil {
			return nil, err
		}
		cfg := scorers.DefaultEmbeddingConfig()
		if sc.MinSimilarity != nil {
			cfg.MinSimilarity = *sc.MinSimilarity
		}
		return scorers.NewEmbeddingScorer(client.EmbedFunc(), cfg)

	default:
		return nil, fmt.Errorf("unknown scorer type %q", sc.Type)
	}
}
