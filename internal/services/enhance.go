package services

import (
	"context"
	"time"

	"github.com/voltastudio/volta-backend/internal/platform/envutil"
	"github.com/voltastudio/volta-backend/internal/platform/logger"
)

// PromptEnhancer rewrites terse user prompts into detailed generation
// prompts. Enhancement is decorative: when the backend is slow or down the
// original prompt goes through unchanged rather than blocking the dispatch.
type PromptEnhancer interface {
	Enhance(ctx context.Context, prompt string) string
}

type promptEnhancer struct {
	log      *logger.Logger
	provider GenerationProvider
	timeout  time.Duration
}

func NewPromptEnhancer(baseLog *logger.Logger, provider GenerationProvider) PromptEnhancer {
	return &promptEnhancer{
		log:      baseLog.With("service", "PromptEnhancer"),
		provider: provider,
		timeout:  envutil.DurationSeconds("PROMPT_ENHANCE_TIMEOUT_SECONDS", 25),
	}
}

func (e *promptEnhancer) Enhance(ctx context.Context, prompt string) string {
	if prompt == "" || e.provider == nil {
		return prompt
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		enhanced string
		err      error
	}
	ch := make(chan result, 1)
	go func() {
		enhanced, err := e.provider.EnhancePrompt(ctx, prompt)
		ch <- result{enhanced, err}
	}()

	select {
	case <-ctx.Done():
		e.log.Warn("prompt enhancement timed out, using original", "timeout", e.timeout.String())
		return prompt
	case res := <-ch:
		if res.err != nil {
			e.log.Warn("prompt enhancement failed, using original", "error", res.err)
			return prompt
		}
		if res.enhanced == "" {
			return prompt
		}
		return res.enhanced
	}
}
