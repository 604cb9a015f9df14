package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/waymark-project/waymark/internal/model"
)

// OpenAIExtractor implements Extractor against OpenAI-compatible chat
// completion endpoints.
type OpenAIExtractor struct {
	client  *openai.Client
	config  model.LLMConfig
	limiter *rate.Limiter
}

// NewOpenAIExtractor creates a new OpenAI-backed extractor.
func NewOpenAIExtractor(cfg model.LLMConfig) (*OpenAIExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	rps := cfg.CallsPerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.CallBurst
	if burst <= 0 {
		burst = 1
	}

	return &OpenAIExtractor{
		client:  openai.NewClientWithConfig(clientConfig),
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

// Name returns the provider name.
func (p *OpenAIExtractor) Name() string {
	return "openai"
}

// Extract issues a single chat completion constrained to JSON output.
// The hard timeout comes from configuration; a call that exceeds it is
// cancelled and reported as an error for the caller to treat as unmapped.
func (p *OpenAIExtractor) Extract(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	mdl := p.config.Model
	if mdl == "" {
		mdl = openai.GPT4oMini
	}
	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 500
	}

	chatReq := openai.ChatCompletionRequest{
		Model: mdl,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a precise annotator. Answer only with the requested JSON object.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(req),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	links, err := parseAnswer(resp.Choices[0].Message.Content, req)
	if err != nil {
		return nil, err
	}

	return &ExtractResponse{
		Links:      links,
		Model:      mdl,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}

// parseAnswer decodes the model's JSON and drops anything outside the
// catalog or outside [0, 1] confidence.
func parseAnswer(content string, req ExtractRequest) ([]ExtractedLink, error) {
	content = strings.TrimSpace(content)

	var answer struct {
		Links []ExtractedLink `json:"links"`
	}
	if err := json.Unmarshal([]byte(content), &answer); err != nil {
		return nil, fmt.Errorf("malformed extraction answer: %w", err)
	}

	valid := make(map[string]bool, len(req.Indicators))
	for _, ind := range req.Indicators {
		valid[strings.ToUpper(ind.Code)] = true
	}

	var links []ExtractedLink
	for _, l := range answer.Links {
		code := strings.ToUpper(strings.TrimSpace(l.IndicatorCode))
		if !valid[code] {
			continue
		}
		if l.Confidence < 0 || l.Confidence > 1 {
			continue
		}
		if !model.ValidRelation(model.RelationKind(l.Relation)) {
			l.Relation = string(model.RelationRelated)
		}
		l.IndicatorCode = code
		links = append(links, l)
		if req.MaxLinks > 0 && len(links) >= req.MaxLinks {
			break
		}
	}
	return links, nil
}
