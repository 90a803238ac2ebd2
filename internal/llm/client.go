// Package llm implements the chat completion service on top of the OpenAI
// API, with vision support for slide images.
package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"github.com/sumitkamra20/insightgen/internal/config"
	"github.com/sumitkamra20/insightgen/internal/domain"
	"github.com/sumitkamra20/insightgen/internal/observability"
)

// Client calls the OpenAI chat completions API. It rate-limits outgoing
// requests and bounds each call with a timeout. Safe for concurrent use.
type Client struct {
	api         openai.Client
	logger      *observability.Logger
	limiter     *rate.Limiter
	callTimeout time.Duration
}

// NewClient creates a completion client from configuration.
func NewClient(cfg config.CompletionConfig, logger *observability.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, domain.ConfigValidationError("completion api key is not set", nil)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		api:         openai.NewClient(opts...),
		logger:      logger.WithOperation("completion"),
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		callTimeout: timeout,
	}, nil
}

// Complete sends one chat completion request and returns the assistant text.
// When the request carries image data, it is attached as a base64 JPEG data
// URL alongside the user text.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", domain.CompletionError("rate limiter wait interrupted", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(req.SystemPrompt),
		c.userMessage(req),
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Opt(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Opt(req.MaxTokens)
	}

	start := time.Now()

	resp, err := c.api.Chat.Completions.New(callCtx, params)
	if err != nil {
		return "", domain.CompletionError(fmt.Sprintf("chat completion with model %s failed", req.Model), err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.CompletionError("chat completion returned no choices", nil)
	}

	c.logger.Debug().
		Str("model", req.Model).
		Dur("duration", time.Since(start)).
		Bool("vision", len(req.ImageData) > 0).
		Msg("Chat completion finished")

	return resp.Choices[0].Message.Content, nil
}

func (c *Client) userMessage(req domain.CompletionRequest) openai.ChatCompletionMessageParamUnion {
	if len(req.ImageData) == 0 {
		return openai.UserMessage(req.UserText)
	}

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(req.ImageData)

	parts := []openai.ChatCompletionContentPartUnionParam{
		{OfText: &openai.ChatCompletionContentPartTextParam{Text: req.UserText}},
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: dataURL,
		}),
	}

	return openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfArrayOfContentParts: parts,
			},
		},
	}
}
