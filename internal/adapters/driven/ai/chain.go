package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/archon-cli/internal/core/domain"
	"github.com/custodia-labs/archon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/archon-cli/internal/logger"
)

// Verify interface compliance.
var _ driven.Generator = (*Chain)(nil)

// Backoff bounds between attempts against the same provider.
const (
	minBackoff = 4 * time.Second
	maxBackoff = 10 * time.Second
)

// Chain tries its providers in order and returns the first successful generation.
// Each provider gets up to MaxRetries attempts with exponential backoff.
// All calls share one rate limiter.
type Chain struct {
	services []driven.LLMService
	settings domain.GenerationSettings
	limiter  *rate.Limiter
	sleep    func(ctx context.Context, d time.Duration) error

	mu        sync.RWMutex
	screened  bool
	available map[domain.AIProvider]bool
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithSleep replaces the backoff sleep. Tests use it to avoid real waits.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) ChainOption {
	return func(c *Chain) {
		c.sleep = fn
	}
}

// WithLimiter replaces the rate limiter built from settings.
func WithLimiter(l *rate.Limiter) ChainOption {
	return func(c *Chain) {
		c.limiter = l
	}
}

// NewChain creates a provider chain over services, which must already be in priority order.
func NewChain(services []driven.LLMService, settings domain.GenerationSettings, opts ...ChainOption) *Chain {
	if settings.MaxRetries <= 0 {
		settings.MaxRetries = 3
	}
	limit := rate.Inf
	if settings.RequestsPerSecond > 0 {
		limit = rate.Limit(settings.RequestsPerSecond)
	}

	c := &Chain{
		services: services,
		settings: settings,
		limiter:  rate.NewLimiter(limit, 1),
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Providers lists the chain's providers in try order.
func (c *Chain) Providers() []domain.AIProvider {
	out := make([]domain.AIProvider, len(c.services))
	for i, svc := range c.services {
		out[i] = svc.Provider()
	}
	return out
}

// IsAvailable reports whether at least one provider answers a ping.
func (c *Chain) IsAvailable(ctx context.Context) bool {
	return len(c.Available(ctx)) > 0
}

// Available pings every provider concurrently and returns the reachable ones in try order.
// The result is remembered and used to skip unreachable providers in Generate.
func (c *Chain) Available(ctx context.Context) []domain.AIProvider {
	reachable := make([]bool, len(c.services))

	g, gctx := errgroup.WithContext(ctx)
	for i, svc := range c.services {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, pingTimeout)
			defer cancel()
			if err := svc.Ping(pctx); err != nil {
				logger.Debug("provider %s unavailable: %v", svc.Provider(), err)
				return nil
			}
			reachable[i] = true
			return nil
		})
	}
	_ = g.Wait()

	available := make(map[domain.AIProvider]bool, len(c.services))
	var out []domain.AIProvider
	for i, svc := range c.services {
		if reachable[i] {
			available[svc.Provider()] = true
			out = append(out, svc.Provider())
		}
	}

	c.mu.Lock()
	c.screened = true
	c.available = available
	c.mu.Unlock()

	return out
}

// Generate returns the first successful provider response.
// When every provider fails the error wraps domain.ErrAllProvidersFailed.
func (c *Chain) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (*domain.Generation, error) {
	candidates := c.candidates()
	if len(candidates) == 0 {
		return nil, domain.ErrLLMUnavailable
	}

	var errs []error
	for _, svc := range candidates {
		gen, err := c.generateWithRetry(ctx, svc, prompt, opts)
		if err == nil {
			return gen, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Warn("provider %s failed: %v", svc.Provider(), err)
		errs = append(errs, fmt.Errorf("%s: %w", svc.Provider(), err))
	}

	return nil, fmt.Errorf("%w: %w", domain.ErrAllProvidersFailed, errors.Join(errs...))
}

// Close closes every provider.
func (c *Chain) Close() error {
	var errs []error
	for _, svc := range c.services {
		if err := svc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Chain) candidates() []driven.LLMService {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.screened {
		return c.services
	}
	var out []driven.LLMService
	for _, svc := range c.services {
		if c.available[svc.Provider()] {
			out = append(out, svc)
		}
	}
	return out
}

func (c *Chain) generateWithRetry(
	ctx context.Context,
	svc driven.LLMService,
	prompt string,
	opts driven.GenerateOptions,
) (*domain.Generation, error) {
	var lastErr error
	for attempt := 1; attempt <= c.settings.MaxRetries; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, backoff(attempt-1)); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		gen, err := c.attempt(ctx, svc, prompt, opts)
		if err == nil {
			logger.L().Debug("generation succeeded",
				zap.String("provider", string(gen.Provider)),
				zap.Int("attempt", attempt),
				zap.Int("tokens", gen.TokensUsed),
				zap.Float64("cost_usd", gen.CostUSD))
			return gen, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Debug("provider %s attempt %d/%d failed: %v", svc.Provider(), attempt, c.settings.MaxRetries, err)
	}
	return nil, lastErr
}

func (c *Chain) attempt(
	ctx context.Context,
	svc driven.LLMService,
	prompt string,
	opts driven.GenerateOptions,
) (*domain.Generation, error) {
	if c.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.settings.Timeout)
		defer cancel()
	}

	gen, err := svc.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	if gen.Provider == "" {
		gen.Provider = svc.Provider()
	}
	if gen.Model == "" {
		gen.Model = svc.ModelName()
	}
	if gen.Confidence == 0 {
		gen.Confidence = gen.Provider.Confidence()
	}
	if gen.CostUSD == 0 && gen.TokensUsed > 0 {
		gen.CostUSD = EstimateCost(gen.Provider, gen.TokensUsed)
	}
	return gen, nil
}

// EstimateCost prices a token count with the provider's per-1k rate.
func EstimateCost(p domain.AIProvider, tokens int) float64 {
	return float64(tokens) / 1000 * p.CostPer1KTokens()
}

// backoff returns the wait before retry n (1-based): 2^n seconds clamped to [4s, 10s].
func backoff(n int) time.Duration {
	d := time.Duration(1<<n) * time.Second
	if d < minBackoff {
		return minBackoff
	}
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
