// Package pipeline orchestrates one conversation-to-lead run: select
// eligible sessions from the cache, analyze and score each conversation,
// persist the resulting leads, and fan them out to sync targets. Each
// session key moves through the run independently; a run aborts only when
// the session scan itself fails or another run already holds the lock.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/chatlead/internal/analyzer"
	"github.com/sells-group/chatlead/internal/dispatch"
	"github.com/sells-group/chatlead/internal/leadstore"
	"github.com/sells-group/chatlead/internal/model"
	"github.com/sells-group/chatlead/internal/session"
	"github.com/sells-group/chatlead/internal/settings"
)

// Session eligibility and truncation bounds.
const (
	TTLMin      = 0
	TTLMax      = 6600
	MaxMessages = 50
)

// runLockName is the session-store lock row guarding against overlapping
// runs.
const runLockName = "pipeline_run"

// ErrRunInProgress is returned when another invocation holds the run lock.
var ErrRunInProgress = eris.New("pipeline: run already in progress")

// Analyzer is the conversation analysis cascade consumed by the pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) (*model.AnalysisResult, error)
}

var _ Analyzer = (*analyzer.Analyzer)(nil)

// Options tune a Pipeline. Zero values fall back to defaults.
type Options struct {
	// Workers bounds per-key parallelism. Default 4.
	Workers int
	// RunLockTTL bounds how long a crashed run can block the next one.
	// Default 2 minutes.
	RunLockTTL time.Duration
}

// Pipeline drives the conversation-to-lead run.
type Pipeline struct {
	sessions   session.Store
	leads      leadstore.Store
	analyzer   Analyzer
	settings   settings.Provider
	dispatcher *dispatch.Dispatcher

	workers    int
	runLockTTL time.Duration
	fpLocks    *keyedMutex
}

// New creates a Pipeline with all dependencies.
func New(
	sessions session.Store,
	leads leadstore.Store,
	an Analyzer,
	settingsProvider settings.Provider,
	dispatcher *dispatch.Dispatcher,
	opts Options,
) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.RunLockTTL <= 0 {
		opts.RunLockTTL = 2 * time.Minute
	}
	return &Pipeline{
		sessions:   sessions,
		leads:      leads,
		analyzer:   an,
		settings:   settingsProvider,
		dispatcher: dispatcher,
		workers:    opts.Workers,
		runLockTTL: opts.RunLockTTL,
		fpLocks:    newKeyedMutex(),
	}
}

// Run executes one pipeline invocation and returns the per-key outcomes.
// Individual key failures are recorded in the result, never returned.
func (p *Pipeline) Run(ctx context.Context) (*model.RunResult, error) {
	start := time.Now()
	log := zap.L()

	acquired, err := p.sessions.AcquireRunLock(ctx, runLockName, p.runLockTTL)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: acquire run lock")
	}
	if !acquired {
		return nil, ErrRunInProgress
	}
	defer func() {
		if releaseErr := p.sessions.ReleaseRunLock(context.WithoutCancel(ctx), runLockName); releaseErr != nil {
			log.Warn("failed to release run lock", zap.Error(releaseErr))
		}
	}()

	runSettings, err := p.settings.Resolve(ctx)
	if err != nil {
		// Leads still get persisted; only live sync is lost, so keep the
		// run going with every adapter off.
		log.Warn("settings unavailable, live sync disabled for this run", zap.Error(err))
		runSettings = &settings.Settings{}
	}

	keys, err := p.sessions.ScanKeys(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: scan session keys")
	}
	log.Info("pipeline run starting",
		zap.Int("keys", len(keys)),
		zap.Int("workers", p.workers),
	)

	result := &model.RunResult{
		Processed: []model.KeyOutcome{},
		Skipped:   []model.KeyOutcome{},
		Errors:    []model.KeyOutcome{},
	}
	var resultMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, key := range keys {
		g.Go(func() error {
			out := p.processKey(gctx, key, runSettings)

			resultMu.Lock()
			defer resultMu.Unlock()
			switch out.state {
			case stateProcessed:
				result.Processed = append(result.Processed, model.KeyOutcome{Key: key, Reason: out.reason})
			case stateSkipped:
				result.Skipped = append(result.Skipped, model.KeyOutcome{Key: key, Reason: out.reason})
			default:
				result.Errors = append(result.Errors, model.KeyOutcome{Key: key, Reason: out.reason})
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors

	result.DurationMS = time.Since(start).Milliseconds()

	processed, skipped, errored := result.Counts()
	log.Info("pipeline run finished",
		zap.Int("processed", processed),
		zap.Int("skipped", skipped),
		zap.Int("errors", errored),
		zap.Int64("duration_ms", result.DurationMS),
	)
	return result, nil
}
