package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeProvider struct {
	enhanced   string
	enhanceErr error
	delay      time.Duration
}

func (f *fakeProvider) Generate(_ context.Context, _ GenerationRequest) (*GenerationOutput, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProvider) EnhancePrompt(ctx context.Context, _ string) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.enhanced, f.enhanceErr
}

func newTestEnhancer(t *testing.T, provider GenerationProvider, timeout time.Duration) PromptEnhancer {
	t.Helper()
	e := NewPromptEnhancer(testLogger(t), provider).(*promptEnhancer)
	e.timeout = timeout
	return e
}

func TestEnhanceReturnsRewrittenPrompt(t *testing.T) {
	e := newTestEnhancer(t, &fakeProvider{enhanced: "a detailed red chair, studio lighting"}, time.Second)
	got := e.Enhance(context.Background(), "red chair")
	if got != "a detailed red chair, studio lighting" {
		t.Fatalf("enhanced prompt: want rewritten, got=%q", got)
	}
}

func TestEnhanceFallsBackOnError(t *testing.T) {
	e := newTestEnhancer(t, &fakeProvider{enhanceErr: errors.New("backend down")}, time.Second)
	got := e.Enhance(context.Background(), "red chair")
	if got != "red chair" {
		t.Fatalf("prompt on error: want original, got=%q", got)
	}
}

func TestEnhanceFallsBackOnTimeout(t *testing.T) {
	e := newTestEnhancer(t, &fakeProvider{enhanced: "too late", delay: 500 * time.Millisecond}, 20*time.Millisecond)
	start := time.Now()
	got := e.Enhance(context.Background(), "red chair")
	if got != "red chair" {
		t.Fatalf("prompt on timeout: want original, got=%q", got)
	}
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Fatalf("enhance blocked past its timeout: %v", elapsed)
	}
}

func TestEnhanceFallsBackOnEmptyResult(t *testing.T) {
	e := newTestEnhancer(t, &fakeProvider{enhanced: ""}, time.Second)
	got := e.Enhance(context.Background(), "red chair")
	if got != "red chair" {
		t.Fatalf("prompt on empty result: want original, got=%q", got)
	}
}

func TestEnhanceSkipsEmptyPromptAndNilProvider(t *testing.T) {
	e := newTestEnhancer(t, nil, time.Second)
	if got := e.Enhance(context.Background(), "red chair"); got != "red chair" {
		t.Fatalf("nil provider: want original, got=%q", got)
	}
	e = newTestEnhancer(t, &fakeProvider{enhanced: "anything"}, time.Second)
	if got := e.Enhance(context.Background(), ""); got != "" {
		t.Fatalf("empty prompt: want empty, got=%q", got)
	}
}
