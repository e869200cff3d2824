// Package bedrock invokes Anthropic models hosted on Amazon Bedrock.
package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"

	svcconfig "interview-evaluator-service/internal/config"
	"interview-evaluator-service/internal/service/llm"
)

const (
	providerName     = "bedrock"
	anthropicVersion = "bedrock-2023-05-31"
)

// RuntimeClient is the subset of *bedrockruntime.Client used here.
type RuntimeClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Config configures the Bedrock invoker.
type Config struct {
	Region      string
	MaxAttempts int
}

// Invoker implements llm.Invoker using the Bedrock runtime InvokeModel API.
type Invoker struct {
	client RuntimeClient
}

// New loads AWS credentials from the default chain and creates an invoker.
func New(ctx context.Context, cfg Config) (*Invoker, error) {
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, &svcconfig.ConfigurationError{Setting: "AWS_REGION", Reason: "is required for bedrock"}
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithRetryMode(aws.RetryModeStandard),
		config.WithRetryMaxAttempts(maxAttempts),
	)
	if err != nil {
		return nil, fmt.Errorf("bedrock: load aws config: %w", err)
	}

	log.Info().
		Str("region", cfg.Region).
		Int("maxAttempts", maxAttempts).
		Msg("Bedrock invoker initialized")

	return &Invoker{client: bedrockruntime.NewFromConfig(awsCfg)}, nil
}

// NewWithClient creates an invoker around an existing runtime client.
func NewWithClient(client RuntimeClient) *Invoker {
	return &Invoker{client: client}
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type requestBody struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []message `json:"messages"`
}

type responseBody struct {
	Content []contentBlock `json:"content"`
}

func buildBody(req llm.Request) ([]byte, error) {
	body := requestBody{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        req.MaxTokens,
		Messages:         make([]message, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		msg := message{Role: string(m.Role)}
		for _, p := range m.Parts {
			switch p.Kind {
			case llm.PartImage:
				msg.Content = append(msg.Content, contentBlock{
					Type: "image",
					Source: &imageSource{
						Type:      "base64",
						MediaType: p.MediaType,
						Data:      p.Data,
					},
				})
			default:
				msg.Content = append(msg.Content, contentBlock{Type: "text", Text: p.Text})
			}
		}
		body.Messages = append(body.Messages, msg)
	}
	return json.Marshal(body)
}

// Invoke sends req to Bedrock and returns the first text block of the reply.
func (i *Invoker) Invoke(ctx context.Context, req llm.Request) (string, error) {
	body, err := buildBody(req)
	if err != nil {
		return "", fmt.Errorf("bedrock: encode request: %w", err)
	}

	out, err := i.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(req.Model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		te := &llm.TransportError{Provider: providerName, Model: req.Model, Err: err}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			te.Code = apiErr.ErrorCode()
		}
		return "", te
	}

	var resp responseBody
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", &llm.TransportError{Provider: providerName, Model: req.Model, Code: "MalformedResponse", Err: err}
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", nil
}
