// Package analyzer sends conversation transcripts to an analysis provider
// and normalizes the structured result. A primary provider is tried first;
// any failure, including unparseable output, falls through to the fallback
// provider with equivalent inputs. Only both providers failing is fatal for
// a key.
package analyzer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/chatlead/internal/model"
	"github.com/sells-group/chatlead/internal/resilience"
)

// Request carries the inputs for one analysis call.
type Request struct {
	Phone        string
	Product      string
	SessionID    string
	Conversation string
}

// Provider produces raw structured output for a conversation. The returned
// string is expected to be JSON but is not trusted until normalized.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, req Request) (string, error)
}

// Analyzer coordinates the primary/fallback provider pair.
type Analyzer struct {
	primary  Provider
	fallback Provider
	retry    resilience.RetryConfig
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithRetry overrides the per-provider retry configuration.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(a *Analyzer) {
		a.retry = cfg
	}
}

// New creates an Analyzer. The fallback provider may be nil, in which case
// a primary failure is terminal.
func New(primary, fallback Provider, opts ...Option) *Analyzer {
	a := &Analyzer{
		primary:  primary,
		fallback: fallback,
		retry:    resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs the provider cascade and returns the normalized result.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*model.AnalysisResult, error) {
	result, primaryErr := a.callProvider(ctx, a.primary, req)
	if primaryErr == nil {
		return result, nil
	}

	if a.fallback == nil {
		return nil, eris.Wrap(primaryErr, "analyzer: primary failed, no fallback")
	}

	zap.L().Warn("primary analysis provider failed, falling back",
		zap.String("primary", a.primary.Name()),
		zap.String("fallback", a.fallback.Name()),
		zap.String("session_id", req.SessionID),
		zap.Error(primaryErr),
	)

	result, fallbackErr := a.callProvider(ctx, a.fallback, req)
	if fallbackErr == nil {
		return result, nil
	}

	return nil, eris.Wrapf(fallbackErr, "analyzer: both providers failed (primary: %v)", primaryErr)
}

// callProvider invokes one provider with bounded retry and normalizes its
// output. Unparseable output counts as a provider failure.
func (a *Analyzer) callProvider(ctx context.Context, p Provider, req Request) (*model.AnalysisResult, error) {
	cfg := a.retry
	cfg.OnRetry = resilience.RetryLogger(p.Name(), "analyze")

	raw, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (string, error) {
		return p.Analyze(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "analyzer: %s call", p.Name())
	}

	result, err := Normalize(raw)
	if err != nil {
		return nil, eris.Wrapf(err, "analyzer: %s output", p.Name())
	}
	return result, nil
}
