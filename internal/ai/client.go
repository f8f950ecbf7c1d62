package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/contesa/callanalyzer/internal/config"
	"github.com/contesa/callanalyzer/pkg/models"
)

// rawExcerptLimit caps how much unparsable response text is kept for
// manual review.
const rawExcerptLimit = 500

// tokenCost is the estimated USD price per input/output token.
type tokenCost struct {
	input  float64
	output float64
}

var tokenCosts = map[string]tokenCost{
	"gpt-4o":        {input: 0.0000025, output: 0.00001},
	"gpt-4-turbo":   {input: 0.00001, output: 0.00003},
	"gpt-4":         {input: 0.00003, output: 0.00006},
	"gpt-3.5-turbo": {input: 0.0000015, output: 0.000002},
}

// fallbackCostModel prices unknown models.
const fallbackCostModel = "gpt-4-turbo"

// Client paces, retries and parses analysis calls against a ChatClient.
// It is safe for concurrent use; the rate limit is enforced across all
// callers.
type Client struct {
	chat models.ChatClient
	cfg  config.AIConfig

	minInterval time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// NewClient wraps chat with rate limiting and retry handling per cfg.
func NewClient(chat models.ChatClient, cfg config.AIConfig) *Client {
	return &Client{
		chat:        chat,
		cfg:         cfg,
		minInterval: time.Duration(float64(time.Minute) / float64(cfg.RateLimitRPM)),
	}
}

// pace blocks until at least minInterval has passed since the previous
// call, or until ctx is done.
func (c *Client) pace(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	wait := c.minInterval - now.Sub(c.lastCall)
	if wait < 0 {
		wait = 0
	}
	c.lastCall = now.Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return nil
	}
	slog.Debug("rate limit pause", "wait", wait)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Analyze runs one transcript analysis. It never returns a Go error: any
// failure is reported through the outcome's APIError so the caller can
// record it and move on.
func (c *Client) Analyze(ctx context.Context, callID string, messages []models.ChatMessage) models.AnalysisOutcome {
	outcome := models.AnalysisOutcome{CallID: callID}
	attempts := c.cfg.MaxRetries + 1

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.RetryBackoffBase
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := c.pace(ctx); err != nil {
			outcome.APIError = err.Error()
			return outcome
		}

		slog.Info("sending analysis request",
			"call_id", callID,
			"attempt", attempt,
			"attempts", attempts,
		)

		resp, err := c.complete(ctx, messages)
		if err != nil {
			lastErr = err
			if errors.Is(err, ErrUnauthorized) && c.cfg.FailFast {
				slog.Error("credentials rejected, not retrying", "call_id", callID)
				outcome.APIError = err.Error()
				return outcome
			}
			if ctx.Err() != nil {
				outcome.APIError = ctx.Err().Error()
				return outcome
			}
			if attempt < attempts {
				wait := bo.NextBackOff() + time.Second
				slog.Warn("analysis request failed, backing off",
					"call_id", callID,
					"attempt", attempt,
					"wait", wait,
					"error", err,
				)
				if !sleepCtx(ctx, wait) {
					outcome.APIError = ctx.Err().Error()
					return outcome
				}
			}
			continue
		}

		outcome.Usage.PromptTokens += resp.Usage.PromptTokens
		outcome.Usage.CompletionTokens += resp.Usage.CompletionTokens
		outcome.Usage.TotalTokens += resp.Usage.TotalTokens
		outcome.Cost += c.estimateCost(resp.Usage)

		payload, parseErr := parsePayload(resp.Content)
		if parseErr != nil {
			lastErr = parseErr
			outcome.RawExcerpt = excerpt(resp.Content)
			slog.Warn("response was not valid JSON",
				"call_id", callID,
				"attempt", attempt,
				"error", parseErr,
			)
			if attempt < attempts {
				if !sleepCtx(ctx, c.cfg.ParseRetryBackoff) {
					outcome.APIError = ctx.Err().Error()
					return outcome
				}
			}
			continue
		}

		outcome.Payload = payload
		outcome.Summary = payload.IssueSummary
		outcome.APIError = ""
		// An excerpt kept from an earlier malformed attempt is obsolete
		// once a parse succeeds.
		outcome.RawExcerpt = ""
		return outcome
	}

	outcome.APIError = fmt.Sprintf("failed after %d attempts: %v", attempts, lastErr)
	outcome.Summary = fmt.Sprintf("Analysis failed after %d attempts; transcript requires manual review.", attempts)
	return outcome
}

// complete runs a single chat call under the per-call timeout.
func (c *Client) complete(ctx context.Context, messages []models.ChatMessage) (models.ChatResponse, error) {
	callCtx := ctx
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	return c.chat.Complete(callCtx, models.ChatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: 0.1,
		MaxTokens:   4000,
	})
}

func (c *Client) estimateCost(usage models.TokenUsage) float64 {
	costs, ok := tokenCosts[c.cfg.Model]
	if !ok {
		costs = tokenCosts[fallbackCostModel]
	}
	return float64(usage.PromptTokens)*costs.input +
		float64(usage.CompletionTokens)*costs.output
}

// parsePayload extracts the JSON object between the first '{' and the last
// '}' of the response and unmarshals it.
func parsePayload(content string) (*models.AnalysisPayload, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, ErrMalformedResponse
	}

	var payload models.AnalysisPayload
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &payload, nil
}

func excerpt(content string) string {
	content = strings.TrimSpace(content)
	if len(content) > rawExcerptLimit {
		return content[:rawExcerptLimit]
	}
	return content
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
