package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/alert"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/audit"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/config"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/database"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/detector"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/guardian"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/observability"
	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/rule"
)

// app wires the stores and engine for one CLI invocation.
type app struct {
	cfg      *config.Config
	db       *database.DB
	logger   *slog.Logger
	rules    *rule.DBRuleStore
	alerts   *alert.DBAlertStore
	audits   *audit.DBAuditStore
	guardian *guardian.Guardian
	sink     *audit.RetryingSink
}

// newApp loads config, opens the database, runs migrations, and wires the
// Guardian engine.
func newApp(ctx context.Context) (*app, error) {
	loader := config.NewLoader(config.NewValidator())
	cfg, err := loader.LoadWithDefaults(configPath(), homeDir())
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := database.NewMigrator(db).Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	rules := rule.NewDBRuleStore(db)
	alerts := alert.NewDBAlertStore(db)
	audits := audit.NewDBAuditStore(db)
	sink := audit.NewRetryingSink(audits, logger,
		audit.WithRetryInterval(time.Duration(cfg.Audit.RetryIntervalSeconds)*time.Second),
		audit.WithMaxAttempts(cfg.Audit.MaxRetryAttempts),
	)

	detectors := detector.NewBuiltinRegistry(cfg.Safeguarding.Keywords)
	escalator := guardian.NewEscalator(alerts, logger)
	engine := guardian.New(rules, detectors, escalator, sink, logger)

	return &app{
		cfg:      cfg,
		db:       db,
		logger:   logger,
		rules:    rules,
		alerts:   alerts,
		audits:   audits,
		guardian: engine,
		sink:     sink,
	}, nil
}

// Close releases the app's resources.
func (a *app) Close() error {
	if a.sink != nil {
		a.sink.Close()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
