// Package evaluation runs the dual-model interview evaluation.
//
// A critique model scores the design (and sees the diagram when one is
// supplied) while a cheaper router model picks the interviewer's reaction.
// Both run concurrently; the first failure aborts the evaluation.
package evaluation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"interview-evaluator-service/internal/models"
	"interview-evaluator-service/internal/observability/logging"
	"interview-evaluator-service/internal/observability/metrics"
	"interview-evaluator-service/internal/schema"
	"interview-evaluator-service/internal/service/llm"
)

// Stage names.
const (
	StageCritique = "critique"
	StageRouter   = "router"
)

// DefaultMediaType is assumed for diagrams without an explicit media type.
const DefaultMediaType = "image/jpeg"

// UpstreamError reports a model invocation that failed before any result was produced.
type UpstreamError struct {
	Stage string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s invocation failed: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// AsUpstreamError reports whether err wraps an UpstreamError.
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// Config selects the models used for each stage.
type Config struct {
	CritiqueModel     string
	RouterModel       string
	CritiqueMaxTokens int
	RouterMaxTokens   int
}

// DefaultConfig returns the Bedrock model pair.
func DefaultConfig() Config {
	return Config{
		CritiqueModel:     "anthropic.claude-sonnet-4-6",
		RouterModel:       "anthropic.claude-haiku-4-5-20251001-v1:0",
		CritiqueMaxTokens: 2048,
		RouterMaxTokens:   1024,
	}
}

// Pipeline evaluates transcripts. It holds no per-call state and is safe for concurrent use.
type Pipeline struct {
	invoker llm.Invoker
	cfg     Config
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// New creates a pipeline. A nil m uses metrics.DefaultMetrics.
func New(invoker llm.Invoker, cfg Config, m *metrics.Metrics) *Pipeline {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Pipeline{
		invoker: invoker,
		cfg:     cfg,
		metrics: m,
		logger:  logging.WithComponent("evaluation"),
	}
}

type reply struct {
	stage string
	text  string
	err   error
}

// Evaluate scores transcript (and diagram, if non-nil) and merges both model verdicts.
// previousState is the prior router state; empty means none.
//
// Errors are *UpstreamError when a model call fails and *schema.ValidationError
// when a reply breaks its contract. Evaluate applies no timeout of its own.
func (p *Pipeline) Evaluate(ctx context.Context, transcript string, diagram *models.Diagram, previousState string) (*models.Evaluation, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	critiqueReq := p.critiqueRequest(transcript, diagram)
	routerReq := p.routerRequest(transcript, previousState)

	replies := make(chan reply, 2)
	go func() {
		text, err := p.invoke(ctx, StageCritique, critiqueReq)
		replies <- reply{stage: StageCritique, text: text, err: err}
	}()
	go func() {
		text, err := p.invoke(ctx, StageRouter, routerReq)
		replies <- reply{stage: StageRouter, text: text, err: err}
	}()

	var critiqueRaw, routerRaw string
	for range 2 {
		var r reply
		select {
		case r = <-replies:
		case <-ctx.Done():
			p.metrics.RecordEvaluation("cancelled", time.Since(start).Seconds())
			return nil, &UpstreamError{Stage: "evaluation", Err: ctx.Err()}
		}
		if r.err != nil {
			p.logger.Error().Err(r.err).Str("stage", r.stage).Msg("Model invocation failed")
			p.metrics.RecordEvaluation("upstream", time.Since(start).Seconds())
			return nil, &UpstreamError{Stage: r.stage, Err: r.err}
		}
		if r.stage == StageCritique {
			critiqueRaw = r.text
		} else {
			routerRaw = r.text
		}
	}

	critique, err := schema.Critique.Parse(critiqueRaw)
	if err != nil {
		p.rejected(err, start)
		return nil, err
	}
	router, err := schema.Router.Parse(routerRaw)
	if err != nil {
		p.rejected(err, start)
		return nil, err
	}

	eval := Merge(transcript, critique, router)
	p.metrics.RecordEmotion(eval.MinimaxEmotion.String())
	p.metrics.RecordEvaluation("", time.Since(start).Seconds())

	p.logger.Info().
		Float64("overallScore", eval.OverallScore).
		Int("aspects", len(eval.DesignAspects)).
		Str("emotion", eval.MinimaxEmotion.String()).
		Bool("shouldInterrupt", eval.ShouldInterrupt).
		Dur("duration", time.Since(start)).
		Msg("Evaluation completed")

	return &eval, nil
}

func (p *Pipeline) rejected(err error, start time.Time) {
	p.logger.Warn().Err(err).Msg("Model response rejected")
	p.metrics.RecordEvaluation("validation", time.Since(start).Seconds())
}

func (p *Pipeline) invoke(ctx context.Context, stage string, req llm.Request) (string, error) {
	start := time.Now()
	text, err := p.invoker.Invoke(ctx, req)
	p.metrics.RecordModelInvocation(stage, req.Model, err, time.Since(start).Seconds())
	return text, err
}

func (p *Pipeline) critiqueRequest(transcript string, diagram *models.Diagram) llm.Request {
	var parts []llm.Part
	if diagram != nil && len(diagram.Data) > 0 {
		mediaType := diagram.MediaType
		if mediaType == "" {
			mediaType = DefaultMediaType
		}
		parts = append(parts, llm.Image(base64.StdEncoding.EncodeToString(diagram.Data), mediaType))
	}
	parts = append(parts, llm.Text(buildCritiquePrompt(transcript)))
	return llm.Request{
		Model:     p.cfg.CritiqueModel,
		MaxTokens: p.cfg.CritiqueMaxTokens,
		Messages:  []llm.Message{{Role: llm.RoleUser, Parts: parts}},
	}
}

func (p *Pipeline) routerRequest(transcript, previousState string) llm.Request {
	return llm.Request{
		Model:     p.cfg.RouterModel,
		MaxTokens: p.cfg.RouterMaxTokens,
		Messages: []llm.Message{{
			Role:  llm.RoleUser,
			Parts: []llm.Part{llm.Text(buildRouterPrompt(transcript, previousState))},
		}},
	}
}

// Merge combines both verdicts into one Evaluation. Critique fields come first;
// the emotion is the only field that is ever defaulted.
func Merge(transcript string, c models.CritiqueResult, r models.RouterResult) models.Evaluation {
	aspects := make([]models.DesignAspect, 0, len(c.DesignAspects))
	for _, a := range c.DesignAspects {
		issues := append([]string{}, a.Issues...)
		aspects = append(aspects, models.DesignAspect{
			Component: a.Component,
			Score:     a.Score,
			Feedback:  a.Feedback,
			Issues:    issues,
		})
	}

	var followUp *string
	if c.FollowUp != nil {
		if q := strings.TrimSpace(*c.FollowUp); q != "" {
			followUp = &q
		}
	}

	return models.Evaluation{
		Transcript:       transcript,
		DiagramScore:     c.DiagramScore,
		VerbalScore:      c.VerbalScore,
		OverallScore:     c.OverallScore,
		DesignAspects:    aspects,
		MinimaxEmotion:   models.ParseEmotion(r.Emotion),
		VerbalFeedback:   r.Response,
		FollowUpQuestion: followUp,
		ShouldInterrupt:  r.ShouldInterrupt,
	}
}
