package main

import (
	"context"
	"os"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/chatlead/internal/analyzer"
	"github.com/sells-group/chatlead/internal/dispatch"
	"github.com/sells-group/chatlead/internal/leadstore"
	"github.com/sells-group/chatlead/internal/pipeline"
	"github.com/sells-group/chatlead/internal/resilience"
	"github.com/sells-group/chatlead/internal/session"
	"github.com/sells-group/chatlead/internal/settings"
	anthropicpkg "github.com/sells-group/chatlead/pkg/anthropic"
	notionpkg "github.com/sells-group/chatlead/pkg/notion"
	"github.com/sells-group/chatlead/pkg/openrouter"
	sfpkg "github.com/sells-group/chatlead/pkg/salesforce"
)

// pipelineEnv bundles a wired pipeline with the resources it owns.
type pipelineEnv struct {
	Sessions session.Store
	Leads    leadstore.Store
	Pipeline *pipeline.Pipeline
}

func (e *pipelineEnv) Close() {
	if e.Leads != nil {
		if err := e.Leads.Close(); err != nil {
			zap.L().Warn("close lead store", zap.Error(err))
		}
	}
	if e.Sessions != nil {
		if err := e.Sessions.Close(); err != nil {
			zap.L().Warn("close session store", zap.Error(err))
		}
	}
}

// initPipeline wires stores, providers, and sync adapters from config.
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	sessions, err := session.NewSQLite(cfg.Session.Path)
	if err != nil {
		return nil, err
	}

	leads, err := initLeadStore(ctx)
	if err != nil {
		sessions.Close() //nolint:errcheck
		return nil, err
	}
	if err := leads.Migrate(ctx); err != nil {
		leads.Close()    //nolint:errcheck
		sessions.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate lead store")
	}

	adapters, err := initAdapters()
	if err != nil {
		leads.Close()    //nolint:errcheck
		sessions.Close() //nolint:errcheck
		return nil, err
	}

	dispatcher := dispatch.New(adapters, leads, dispatch.NewDeliverer())

	p := pipeline.New(
		sessions,
		leads,
		initAnalyzer(),
		settings.NewFileProvider(cfg.Settings.Path),
		dispatcher,
		pipeline.Options{
			Workers:    cfg.Pipeline.Workers,
			RunLockTTL: time.Duration(cfg.Pipeline.RunLockTTLSecs) * time.Second,
		},
	)

	return &pipelineEnv{Sessions: sessions, Leads: leads, Pipeline: p}, nil
}

func initLeadStore(ctx context.Context) (leadstore.Store, error) {
	if cfg.Leads.DatabaseURL == "" {
		return nil, eris.New("lead database URL is required (CHATLEAD_LEADS_DATABASE_URL)")
	}
	return leadstore.NewPostgres(ctx, cfg.Leads.DatabaseURL)
}

func initAnalyzer() *analyzer.Analyzer {
	primary := analyzer.NewAnthropicProvider(
		anthropicpkg.NewClient(cfg.Anthropic.Key),
		cfg.Anthropic.Model,
		cfg.Anthropic.MaxTokens,
	)

	var fallback analyzer.Provider
	if cfg.OpenRouter.Key != "" {
		fallback = analyzer.NewOpenRouterProvider(
			openrouter.NewClient(cfg.OpenRouter.Key, openrouter.WithBaseURL(cfg.OpenRouter.BaseURL)),
			cfg.OpenRouter.Model,
		)
	} else {
		zap.L().Warn("no fallback analysis provider configured")
	}

	retry := resilience.DefaultRetryConfig()
	if cfg.Pipeline.AnalyzerRetries > 0 {
		retry.MaxAttempts = cfg.Pipeline.AnalyzerRetries
	}

	return analyzer.New(primary, fallback, analyzer.WithRetry(retry))
}

// initAdapters builds the configured sync adapters. The spreadsheet needs no
// credentials and is always present; CRM adapters join only when configured.
// Per-run enablement is still decided by the settings file.
func initAdapters() ([]dispatch.SyncAdapter, error) {
	adapters := []dispatch.SyncAdapter{dispatch.NewSheetAdapter(cfg.Sheet.Path)}

	if cfg.Salesforce.ClientID != "" {
		sfClient, err := initSalesforce()
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, dispatch.NewSalesforceAdapter(sfClient))
	} else {
		zap.L().Info("salesforce sync not configured")
	}

	if cfg.Notion.Token != "" && cfg.Notion.LeadDB != "" {
		adapters = append(adapters, dispatch.NewNotionAdapter(notionpkg.NewClient(cfg.Notion.Token), cfg.Notion.LeadDB))
	} else {
		zap.L().Info("notion sync not configured")
	}

	return adapters, nil
}

func initSalesforce() (sfpkg.Client, error) {
	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf), nil
}
