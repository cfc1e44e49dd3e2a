// Package embeddings provides embedding clients for the embedding cosine
// scorer. Each client exposes a ports.EmbedFunc so scorers stay decoupled
// from any particular provider.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
)

// OpenAIDefaultModel is used when no embedding model is configured.
const OpenAIDefaultModel = openai.SmallEmbedding3

// ErrEmptyAPIKey indicates that the OpenAI client was configured without
// an API key.
var ErrEmptyAPIKey = errors.New("API key cannot be empty")

// ErrNoEmbedding indicates that the API response carried no embedding data.
var ErrNoEmbedding = errors.New("response contains no embedding")

// OpenAIConfig defines the parameters for the OpenAI embedding client.
type OpenAIConfig struct {
	// APIKey authenticates against the OpenAI API.
	APIKey string `yaml:"api_key" json:"api_key"`

	// Model selects the embedding model; defaults to text-embedding-3-small.
	Model openai.EmbeddingModel `yaml:"model" json:"model"`

	// BaseURL optionally points the client at a compatible endpoint.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Timeout bounds a single embedding request; zero means no timeout.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// OpenAIClient produces embeddings via the OpenAI API.
type OpenAIClient struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAIClient creates an embedding client from the given configuration.
// A missing API key is a configuration error.
func NewOpenAIClient(config OpenAIConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, ErrEmptyAPIKey)
	}

	model := config.Model
	if model == "" {
		model = OpenAIDefaultModel
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// Embed maps a string to its embedding vector.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: c.model,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, ErrNoEmbedding
	}
	return resp.Data[0].Embedding, nil
}

// EmbedFunc returns the client's Embed method as a ports.EmbedFunc for
// injection into the embedding scorer.
func (c *OpenAIClient) EmbedFunc() ports.EmbedFunc {
	return c.Embed
}
