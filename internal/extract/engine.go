package extract

import (
	"context"
	"errors"
	"log"
	"time"

	"orderlens/internal/domain"
	"orderlens/internal/port"
	"orderlens/internal/vision"
)

// PageOutcome reports what one page attempt produced. Err is non-empty when
// the page could not be extracted even after retry and recovery; the caller
// decides whether that fails the run.
type PageOutcome struct {
	Result *domain.ExtractionResult
	Err    string
}

// Engine drives a single model over a single page: one call, one retry on
// transient failure, then parse with partial recovery as the last resort.
type Engine struct {
	retryBackoff time.Duration
}

// NewEngine creates an engine with the given backoff between the first
// attempt and the retry. Rate-limited calls wait for the server-provided
// interval instead when it is longer.
func NewEngine(retryBackoff time.Duration) *Engine {
	return &Engine{retryBackoff: retryBackoff}
}

// ProcessPage calls the model for one page and parses the reply. Model call
// failures are retried once; parse failures go through partial recovery
// before being reported as an outcome error.
func (e *Engine) ProcessPage(ctx context.Context, model port.VisionModel, input port.PageInput) PageOutcome {
	text, err := e.generateWithRetry(ctx, model, input)
	if err != nil {
		return PageOutcome{Err: err.Error()}
	}

	result, err := ParseModelOutput(text)
	if err == nil {
		return PageOutcome{Result: result}
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if recovered := RecoverPartial(text); recovered != nil {
			log.Printf("Engine.ProcessPage: recovered %d product(s) from unparseable %s reply", len(recovered.Products), model.Name())
			return PageOutcome{Result: recovered}
		}
	}
	return PageOutcome{Err: err.Error()}
}

func (e *Engine) generateWithRetry(ctx context.Context, model port.VisionModel, input port.PageInput) (string, error) {
	text, err := model.Generate(ctx, input)
	if err == nil {
		return text, nil
	}

	wait := e.retryBackoff
	var rateErr *vision.RateLimitError
	if errors.As(err, &rateErr) && rateErr.RetryAfter > wait {
		wait = rateErr.RetryAfter
	}
	log.Printf("Engine.generateWithRetry: %s call failed, retrying in %s: %v", model.Name(), wait, err)

	select {
	case <-time.After(wait):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	text, err = model.Generate(ctx, input)
	if err != nil {
		return "", err
	}
	return text, nil
}
