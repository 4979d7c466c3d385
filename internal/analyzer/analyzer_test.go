package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/chatlead/internal/resilience"
)

const validOutput = `{"name": "Jane", "company": "Acme", "lead_score": 72, "is_hot_lead": true}`

type fakeProvider struct {
	name   string
	output string
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Analyze(ctx context.Context, req Request) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func noRetry() Option {
	return WithRetry(resilience.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond})
}

func TestAnalyzePrimarySucceeds(t *testing.T) {
	primary := &fakeProvider{name: "primary", output: validOutput}
	fallback := &fakeProvider{name: "fallback", output: validOutput}

	a := New(primary, fallback, noRetry())
	res, err := a.Analyze(context.Background(), Request{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "Jane", res.Name)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls)
}

func TestAnalyzeFallsBackOnPrimaryError(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: eris.New("rate limited")}
	fallback := &fakeProvider{name: "fallback", output: validOutput}

	a := New(primary, fallback, noRetry())
	res, err := a.Analyze(context.Background(), Request{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", res.Company)
	assert.Equal(t, 1, fallback.calls)
}

func TestAnalyzeFallsBackOnUnparseablePrimaryOutput(t *testing.T) {
	primary := &fakeProvider{name: "primary", output: "I cannot help with that."}
	fallback := &fakeProvider{name: "fallback", output: validOutput}

	a := New(primary, fallback, noRetry())
	res, err := a.Analyze(context.Background(), Request{SessionID: "s1"})
	require.NoError(t, err)
	assert.True(t, res.HotLead)
	assert.Equal(t, 1, fallback.calls)
}

func TestAnalyzeBothFail(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: eris.New("down")}
	fallback := &fakeProvider{name: "fallback", err: eris.New("also down")}

	a := New(primary, fallback, noRetry())
	_, err := a.Analyze(context.Background(), Request{SessionID: "s1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both providers failed")
}

func TestAnalyzeNoFallback(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: eris.New("down")}

	a := New(primary, nil, noRetry())
	_, err := a.Analyze(context.Background(), Request{SessionID: "s1"})
	require.Error(t, err)
}

func TestAnalyzeRetriesTransientProviderError(t *testing.T) {
	calls := 0
	primary := &retryingProvider{fn: func() (string, error) {
		calls++
		if calls == 1 {
			return "", resilience.NewTransientError(eris.New("flaky"), 503)
		}
		return validOutput, nil
	}}

	a := New(primary, nil, WithRetry(resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
	}))
	res, err := a.Analyze(context.Background(), Request{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "Jane", res.Name)
	assert.Equal(t, 2, calls)
}

type retryingProvider struct {
	fn func() (string, error)
}

func (p *retryingProvider) Name() string { return "retrying" }

func (p *retryingProvider) Analyze(ctx context.Context, req Request) (string, error) {
	return p.fn()
}
