package refine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type fakeLLM struct {
	answer string
	err    error
	calls  int
	prompt string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.answer, f.err
}

func testConfig() Config {
	return Config{
		RequestsPerSecond: 1000,
		Burst:             10,
		BreakerFailures:   2,
		BreakerCooldown:   time.Hour,
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRefineParsesFencedAnswer(t *testing.T) {
	llm := &fakeLLM{answer: "```json\n{\"merchant\":\"Joe's Diner\",\"date\":\"2026-01-02\",\"amount\":140,\"category\":\"Food\"}\n```"}
	s, err := New(llm, testConfig()).Refine(context.Background(), "JOES DINER 02/01/2026 140.00")
	if err != nil {
		t.Fatalf("refine: %v", err)
	}
	if s.Merchant != "Joe's Diner" || s.Date != "2026-01-02" || s.Category != "Food" {
		t.Fatalf("unexpected suggestion %+v", s)
	}
	if s.Amount == nil || !s.Amount.Equal(decimal.NewFromInt(140)) {
		t.Fatalf("amount = %v", s.Amount)
	}
	if !strings.Contains(llm.prompt, "JOES DINER") || !strings.Contains(llm.prompt, "Groceries") {
		t.Fatalf("prompt misses text or categories:\n%s", llm.prompt)
	}
}

func TestParseAnswerNullsAndStrings(t *testing.T) {
	s, err := ParseAnswer(`{"merchant":null,"date":null,"amount":"₹1,250.50","category":null}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Merchant != "" || s.Date != "" || s.Category != "" {
		t.Fatalf("nulls should stay empty: %+v", s)
	}
	if s.Amount == nil || s.Amount.StringFixed(2) != "1250.50" {
		t.Fatalf("amount = %v", s.Amount)
	}

	s, err = ParseAnswer(`{"merchant":"X","amount":null}`)
	if err != nil || s.Amount != nil {
		t.Fatalf("null amount should be absent, got %v %v", s.Amount, err)
	}

	if _, err := ParseAnswer("sorry, I cannot help"); err == nil {
		t.Fatalf("expected error for non-JSON answer")
	}
}

func TestRefineBlankTextSkipsModel(t *testing.T) {
	llm := &fakeLLM{}
	s, err := New(llm, testConfig()).Refine(context.Background(), "  \n")
	if err != nil || llm.calls != 0 || s.Merchant != "" {
		t.Fatalf("blank text must not reach the model: %+v %v calls=%d", s, err, llm.calls)
	}
}

func TestRefineOpensCircuitAfterFailures(t *testing.T) {
	llm := &fakeLLM{err: errors.New("503")}
	r := New(llm, testConfig())
	for i := 0; i < 2; i++ {
		if _, err := r.Refine(context.Background(), "text"); err == nil || errors.Is(err, ErrUnavailable) {
			t.Fatalf("attempt %d: expected model error, got %v", i, err)
		}
	}
	_, err := r.Refine(context.Background(), "text")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if llm.calls != 2 {
		t.Fatalf("open circuit must not call the model, calls=%d", llm.calls)
	}
}

func TestRefineCancelledContext(t *testing.T) {
	cfg := testConfig()
	cfg.RequestsPerSecond = 0.001
	cfg.Burst = 1
	r := New(&fakeLLM{answer: `{}`}, cfg)
	if _, err := r.Refine(context.Background(), "first"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Refine(ctx, "second"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected limiter wait to fail, got %v", err)
	}
}

func TestBuildPromptDayFirst(t *testing.T) {
	p := BuildPrompt("x")
	if !strings.Contains(p, "2026-01-02") || !strings.Contains(p, "YYYY-MM-DD") {
		t.Fatalf("prompt lacks date guidance:\n%s", p)
	}
}
