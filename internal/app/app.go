// Package app wires configuration into the services shared by the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/dvloznov/fraud-analyzer/internal/config"
	"github.com/dvloznov/fraud-analyzer/internal/gcsuploader"
	infra "github.com/dvloznov/fraud-analyzer/internal/infra/bigquery"
	"github.com/dvloznov/fraud-analyzer/internal/knowledge"
	"github.com/dvloznov/fraud-analyzer/internal/llm"
	"github.com/dvloznov/fraud-analyzer/internal/logger"
	"github.com/dvloznov/fraud-analyzer/internal/output"
	"github.com/dvloznov/fraud-analyzer/internal/pipeline"
)

// App holds the long-lived collaborators of one process.
type App struct {
	Config *config.Config
	// Repo is nil when no project is configured.
	Repo     *infra.Repository
	Storage  *gcsuploader.GCSStorageService
	Narrator llm.Narrator
	Store    knowledge.Store

	Assembler *pipeline.Assembler
	Runner    *pipeline.Runner
}

// New builds the services described by cfg. A language model that cannot
// be reached is logged and left out; narratives then use fallback text.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.FromContext(ctx)
	a := &App{
		Config:  cfg,
		Storage: gcsuploader.NewGCSStorageService(),
	}

	if cfg.ProjectID != "" {
		repo, err := infra.NewRepository(ctx, Dataset(cfg), cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("app.New: %w", err)
		}
		a.Repo = repo
	} else {
		log.Info().Msg("No project configured, warehouse features disabled")
	}

	narrator, err := llm.NewNarrator(ctx, cfg.LLM)
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.LLM.Provider).Msg("Language model unavailable, using fallback narratives")
		narrator = nil
	}
	a.Narrator = narrator

	var index knowledge.VectorIndex
	if a.Repo != nil {
		index = a.Repo
	}
	store, err := knowledge.Open(ctx, cfg, index)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("app.New: %w", err)
	}
	a.Store = store

	opts := pipeline.OptionsFromConfig(cfg)
	opts.Knowledge = knowledge.NewBase(store)
	opts.Narrator = a.Narrator
	a.Assembler = pipeline.NewAssembler(opts)

	a.Runner = &pipeline.Runner{
		Assembler: a.Assembler,
		Storage:   a.Storage,
		Reports:   a.ReportStore(),
	}
	if a.Repo != nil {
		a.Runner.Warehouse = a.Repo
		a.Runner.Runs = a.Repo
	}
	return a, nil
}

// Dataset returns the warehouse location named by cfg.
func Dataset(cfg *config.Config) infra.Dataset {
	return infra.Dataset{ProjectID: cfg.ProjectID, DatasetID: cfg.Dataset}
}

// ReportStore returns the warehouse when configured, else the reports
// bucket, else nil.
func (a *App) ReportStore() pipeline.ReportStore {
	switch {
	case a.Repo != nil:
		return a.Repo
	case a.Config.Storage.ReportsBucket != "":
		return &output.BucketReportStore{Storage: a.Storage, Bucket: a.Config.Storage.ReportsBucket}
	default:
		return nil
	}
}

// RequireRepo returns the warehouse or an error naming the command that needs it.
func (a *App) RequireRepo(command string) (*infra.Repository, error) {
	if a.Repo == nil {
		return nil, fmt.Errorf("%s needs a warehouse: %w", command, a.Config.RequireProject())
	}
	return a.Repo, nil
}

// Close releases the warehouse client.
func (a *App) Close() error {
	if a.Repo != nil {
		return a.Repo.Close()
	}
	return nil
}
