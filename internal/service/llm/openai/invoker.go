// Package openai invokes chat models through an OpenAI-compatible API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/rs/zerolog/log"

	"interview-evaluator-service/internal/config"
	"interview-evaluator-service/internal/service/llm"
)

const providerName = "openai"

// Config configures the OpenAI invoker.
type Config struct {
	APIKey      string
	BaseURL     string
	MaxAttempts int
}

// Invoker implements llm.Invoker with chat completions.
type Invoker struct {
	client *openai.Client
}

// New creates an invoker. The API key is required.
func New(cfg Config) (*Invoker, error) {
	if cfg.APIKey == "" {
		return nil, &config.ConfigurationError{Setting: "OPENAI_API_KEY", Reason: "is required for openai"}
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxAttempts > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxAttempts-1))
	}
	client := openai.NewClient(opts...)

	log.Info().Str("baseURL", cfg.BaseURL).Msg("OpenAI invoker initialized")
	return &Invoker{client: &client}, nil
}

func convertMessage(m llm.Message) (openai.ChatCompletionMessageParamUnion, error) {
	if m.Role == llm.RoleAssistant {
		var text string
		for _, p := range m.Parts {
			if p.Kind == llm.PartImage {
				return openai.ChatCompletionMessageParamUnion{}, errors.New("assistant message cannot carry an image")
			}
			text += p.Text
		}
		return openai.ChatCompletionMessageParamUnion{
			OfAssistant: &openai.ChatCompletionAssistantMessageParam{
				Content: openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: param.NewOpt(text),
				},
			},
		}, nil
	}

	contents := make([]openai.ChatCompletionContentPartUnionParam, 0, len(m.Parts))
	for _, p := range m.Parts {
		switch p.Kind {
		case llm.PartImage:
			contents = append(contents, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: "data:" + p.MediaType + ";base64," + p.Data,
			}))
		default:
			contents = append(contents, openai.TextContentPart(p.Text))
		}
	}
	return openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfArrayOfContentParts: contents,
			},
		},
	}, nil
}

// Invoke runs a chat completion and returns the first choice's content.
func (i *Invoker) Invoke(ctx context.Context, req llm.Request) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		msg, err := convertMessage(m)
		if err != nil {
			return "", fmt.Errorf("openai: %w", err)
		}
		messages = append(messages, msg)
	}

	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(req.MaxTokens))
	}

	resp, err := i.client.Chat.Completions.New(ctx, params)
	if err != nil {
		te := &llm.TransportError{Provider: providerName, Model: req.Model, Err: err}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			te.Code = strconv.Itoa(apiErr.StatusCode)
		}
		return "", te
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
