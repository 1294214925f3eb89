package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sashabaranov/go-openai"
)

// OpenAIEmbedder generates embeddings through the OpenAI API or a compatible server.
type OpenAIEmbedder struct {
	client       *openai.Client
	model        openai.EmbeddingModel
	expectedSize int
	policy       RetryPolicy
}

// NewOpenAIEmbedder creates an embedder. An empty baseURL uses the OpenAI endpoint.
func NewOpenAIEmbedder(apiKey, baseURL, model string, expectedSize int, policy RetryPolicy) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client:       newOpenAIClient(apiKey, baseURL),
		model:        openai.EmbeddingModel(model),
		expectedSize: expectedSize,
		policy:       policy,
	}
}

// EmbedTexts generates one embedding per text, in input order. Errors wrap ErrEmbeddingFailure.
func (e *OpenAIEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: empty input array", ErrEmbeddingFailure)
	}

	var result [][]float32
	err := e.policy.do(ctx, "openai_embeddings", func(ctx context.Context) error {
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: e.model,
			Input: texts,
		})
		if err != nil {
			return err
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
		}

		data := resp.Data
		sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

		result = make([][]float32, len(data))
		for i, d := range data {
			if e.expectedSize > 0 && len(d.Embedding) != e.expectedSize {
				return fmt.Errorf("embedding %d has size %d, expected %d", i, len(d.Embedding), e.expectedSize)
			}
			result[i] = toFloat32(d.Embedding)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailure, err)
	}
	return result, nil
}

// OpenAIGenerator answers questions through the OpenAI chat completions API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	params ChatParams
	policy RetryPolicy
}

// NewOpenAIGenerator creates a generator. An empty baseURL uses the OpenAI endpoint.
func NewOpenAIGenerator(apiKey, baseURL, model string, policy RetryPolicy) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: newOpenAIClient(apiKey, baseURL),
		model:  model,
		params: DefaultChatParams(),
		policy: policy,
	}
}

// Generate answers userMessage under systemPrompt. Errors wrap ErrGenerationFailure.
func (g *OpenAIGenerator) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		MaxTokens:   g.params.MaxTokens,
		Temperature: g.params.Temperature,
	}

	var answer string
	err := g.policy.do(ctx, "openai_chat_completion", func(ctx context.Context) error {
		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("no choices returned")
		}
		answer = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}
	return answer, nil
}

func newOpenAIClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}
