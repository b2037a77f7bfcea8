package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// DefaultSystemPrompt instructs the model to answer from the retrieved context only.
const DefaultSystemPrompt = "Use the following piece of context to answer the question at the end. " +
	"If you don't know the answer, just say that you don't know, don't try to make up an answer."

// GeneratorConfig holds chat completion settings on top of the connection Config.
type GeneratorConfig struct {
	Config
	Temperature  float32
	MaxTokens    int
	SystemPrompt string
}

// Generator answers grounded questions via the chat completions API.
type Generator struct {
	client       *openai.Client
	model        string
	temperature  float32
	maxTokens    int
	systemPrompt string
	user         string
	provider     string
	logger       *zap.Logger
}

// NewGenerator creates an OpenAI-compatible generation provider.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	return &Generator{
		client:       newClient(&cfg.Config),
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: prompt,
		user:         cfg.User,
		provider:     cfg.Provider,
		logger:       cfg.Logger,
	}
}

// Generate implements domain.Generator. The completion text is returned verbatim.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	creq := openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		User:        g.user,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: g.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(req)},
		},
	}
	if g.maxTokens > 0 {
		creq.MaxTokens = g.maxTokens
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, creq)
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		g.logger.Debug("Completion request failed", zap.String("provider", g.provider), zap.Error(err))
		return domain.GenerationResult{}, parseAPIError("completion", err, domain.ErrCompletionProviderError)
	}
	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "error").Inc()
		return domain.GenerationResult{}, fmt.Errorf("empty completion response: %w", domain.ErrCompletionProviderError)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(g.provider, g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(g.provider, g.model).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.GenerationTokensTotal.WithLabelValues(g.provider, g.model, "completion").Add(float64(resp.Usage.CompletionTokens))
	}

	return domain.GenerationResult{
		Text:             resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

func buildPrompt(req domain.GenerationRequest) string {
	var b strings.Builder
	b.WriteString(req.Context)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(req.Question)
	b.WriteString("\nHelpful Answer:")
	return b.String()
}
