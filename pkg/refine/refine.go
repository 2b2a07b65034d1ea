// Package refine asks a language model to clean up the fields heuristics pulled out of
// noisy receipt text. The model's answer is only a suggestion; the pipeline validates it
// before overlaying anything.
package refine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"receiptscan/pkg/receipt"
)

// ErrUnavailable is returned while the circuit is open or the limiter wait is cancelled.
var ErrUnavailable = errors.New("refine: model unavailable")

// Completer sends one prompt to a model and returns its text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	// RequestsPerSecond caps calls to the model; zero means 1.
	RequestsPerSecond float64
	Burst             int
	// Timeout bounds a single completion; zero means 30s.
	Timeout time.Duration
	// BreakerFailures consecutive failures open the circuit for BreakerCooldown.
	BreakerFailures uint32
	BreakerCooldown time.Duration
	Logger          *slog.Logger
}

func (c Config) normalize() Config {
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 1
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 3
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = time.Minute
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// Refiner satisfies pipeline.Refiner.
type Refiner struct {
	llm     Completer
	cfg     Config
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[string]
}

func New(llm Completer, cfg Config) *Refiner {
	cfg = cfg.normalize()
	r := &Refiner{
		llm:     llm,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
	r.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "refine",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			// a cancelled caller says nothing about the model's health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	})
	return r
}

// Refine asks the model for a structured reading of rawText.
func (r *Refiner) Refine(ctx context.Context, rawText string) (receipt.Suggestion, error) {
	if strings.TrimSpace(rawText) == "" {
		return receipt.Suggestion{}, nil
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return receipt.Suggestion{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	answer, err := r.breaker.Execute(func() (string, error) {
		cctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
		return r.llm.Complete(cctx, BuildPrompt(rawText))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return receipt.Suggestion{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return receipt.Suggestion{}, fmt.Errorf("refine: complete: %w", err)
	}
	s, err := ParseAnswer(answer)
	if err != nil {
		return receipt.Suggestion{}, err
	}
	return s, nil
}

// BuildPrompt renders the extraction prompt for one receipt transcription.
func BuildPrompt(rawText string) string {
	labels := make([]string, len(receipt.Categories))
	for i, c := range receipt.Categories {
		labels[i] = string(c)
	}
	var b strings.Builder
	b.WriteString("Analyze this receipt text and extract JSON.\n")
	fmt.Fprintf(&b, "Text: %q\n\n", rawText)
	b.WriteString("Extraction rules:\n")
	b.WriteString("1. merchant: name of the shop or service.\n")
	b.WriteString("2. date: format MUST be YYYY-MM-DD. Input dates are usually day first (DD-MM-YYYY).\n")
	b.WriteString("   \"02/01/2026\" is 2 January, output \"2026-01-02\". \"05/04/2026\" is 5 April, output \"2026-04-05\".\n")
	b.WriteString("   If several dates appear, pick the transaction date.\n")
	b.WriteString("3. amount: total as a plain number, without currency symbols.\n")
	fmt.Fprintf(&b, "4. category: one of [%s].\n\n", strings.Join(labels, ", "))
	b.WriteString("Return ONLY valid JSON with keys merchant, date, amount, category. Use null for anything not found.\n")
	return b.String()
}

type answer struct {
	Merchant *string         `json:"merchant"`
	Date     *string         `json:"date"`
	Amount   json.RawMessage `json:"amount"`
	Category *string         `json:"category"`
}

// ParseAnswer decodes the model's JSON. Code fences are stripped; an amount may be a
// number or a string with symbols and grouping commas. Null or unreadable members stay
// empty in the suggestion.
func ParseAnswer(text string) (receipt.Suggestion, error) {
	text = stripFences(text)
	var a answer
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return receipt.Suggestion{}, fmt.Errorf("refine: parse answer: %w", err)
	}
	var s receipt.Suggestion
	if a.Merchant != nil {
		s.Merchant = *a.Merchant
	}
	if a.Date != nil {
		s.Date = *a.Date
	}
	if a.Category != nil {
		s.Category = *a.Category
	}
	if d, ok := parseAmount(a.Amount); ok {
		s.Amount = &d
	}
	return s, nil
}

func parseAmount(raw json.RawMessage) (decimal.Decimal, bool) {
	v := strings.TrimSpace(string(raw))
	if v == "" || v == "null" {
		return decimal.Decimal{}, false
	}
	if strings.HasPrefix(v, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Decimal{}, false
		}
		v = strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				return r
			}
			return -1
		}, s)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
