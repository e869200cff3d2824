// Package mock provides a canned model invoker for running without cloud credentials.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"interview-evaluator-service/internal/service/llm"
)

// CritiqueResponse is a well-formed critique in the shape the critique model returns.
const CritiqueResponse = "```json\n" + `{
  "design_aspects": [
    {"component": "API gateway", "score": 0.8, "feedback": "Clear entry point with rate limiting.", "issues": []},
    {"component": "Database", "score": 0.55, "feedback": "Single primary is a bottleneck.", "issues": ["no read replicas", "sharding key not discussed"]}
  ],
  "diagram_score": 0.7,
  "verbal_score": 0.65,
  "overall_score": 0.68,
  "follow_up": "How would the system behave if the primary database fails?"
}` + "\n```"

// RouterResponse is a well-formed router reply.
const RouterResponse = `{"emotion": "curious", "should_interrupt": false, "response": "Good start. Walk me through how writes reach the database."}`

// Invoker returns a fixed reply per model id.
type Invoker struct {
	mu        sync.Mutex
	responses map[string]string
	delay     time.Duration
	calls     []llm.Request
}

// New creates an invoker that answers each model id with the given reply.
func New(responses map[string]string) *Invoker {
	return &Invoker{responses: responses}
}

// Default answers the critique and router model ids with well-formed replies.
func Default(critiqueModel, routerModel string) *Invoker {
	inv := New(map[string]string{
		critiqueModel: CritiqueResponse,
		routerModel:   RouterResponse,
	})
	inv.delay = 150 * time.Millisecond
	return inv
}

// Invoke returns the configured reply for req.Model.
func (i *Invoker) Invoke(ctx context.Context, req llm.Request) (string, error) {
	i.mu.Lock()
	i.calls = append(i.calls, req)
	reply, ok := i.responses[req.Model]
	delay := i.delay
	i.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if !ok {
		return "", &llm.TransportError{Provider: "mock", Model: req.Model, Err: fmt.Errorf("no response configured")}
	}
	return reply, nil
}

// Calls returns the requests seen so far.
func (i *Invoker) Calls() []llm.Request {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]llm.Request(nil), i.calls...)
}
