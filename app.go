package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"prezo/agent"
	"prezo/config"
	"prezo/database"
	"prezo/deck"
	"prezo/document"
	"prezo/export"
	"prezo/logger"
	"prezo/template"
)

// App is the facade every entry point talks to. It owns the shared
// services and serializes module generation per template.
type App struct {
	ctx context.Context

	logger        *logger.Logger
	registry      *ServiceRegistry
	configService *ConfigService

	db             *sql.DB
	sessionService *database.SessionService

	extractService *document.ExtractService
}

// NewApp creates a new App instance.
func NewApp() *App {
	app := &App{
		logger: logger.NewLogger(),
	}
	app.configService = NewConfigService(app.Log)
	app.extractService = document.NewExtractService(app.Log)
	return app
}

// Startup initializes storage, logging and the session database.
func (a *App) Startup(ctx context.Context) error {
	a.ctx = ctx

	a.registry = NewServiceRegistry(ctx, a.Log)
	if err := a.registry.RegisterCritical(a.configService); err != nil {
		return err
	}
	if err := a.registry.InitializeAll(); err != nil {
		return err
	}

	cfg, err := a.configService.GetConfig()
	if err != nil {
		return err
	}

	storageDir, err := a.configService.GetStorageDir()
	if err != nil {
		return err
	}

	if cfg.DetailedLog {
		if err := a.logger.Init(storageDir); err != nil {
			// A broken log file must not block the run.
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	db, err := database.InitDB(storageDir)
	if err != nil {
		return WrapError("app", "Startup", err)
	}
	a.db = db
	a.sessionService = database.NewSessionService(db)

	for _, dir := range []string{cfg.TemplateDir, cfg.ModuleDir, cfg.OutputDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return WrapError("app", "Startup", err)
		}
	}

	a.Log("App started")
	return nil
}

// Shutdown releases the services, the database and the log file.
func (a *App) Shutdown() {
	if a.registry != nil {
		a.registry.ShutdownAll()
	}
	if a.db != nil {
		a.db.Close()
		a.db = nil
	}
	a.logger.Close()
}

// Log writes one line to the run log.
func (a *App) Log(msg string) {
	a.logger.Log(msg)
}

// GetConfig exposes the effective configuration.
func (a *App) GetConfig() (config.Config, error) {
	return a.configService.GetConfig()
}

// SaveConfig persists configuration changes.
func (a *App) SaveConfig(cfg config.Config) error {
	return a.configService.SaveConfig(cfg)
}

// AnalyzeTemplate extracts a template's structural metadata and stores
// it under the template directory. Returns the metadata and the path
// it was saved to.
func (a *App) AnalyzeTemplate(templatePath string) (*template.TemplateMetadata, string, error) {
	cfg, err := a.configService.GetConfig()
	if err != nil {
		return nil, "", err
	}

	meta, err := template.Extract(templatePath)
	if err != nil {
		return nil, "", WrapError("app", "AnalyzeTemplate", err)
	}

	metaPath := filepath.Join(cfg.TemplateDir, meta.TemplateID+".json")
	if err := template.SaveMetadata(meta, metaPath); err != nil {
		return nil, "", WrapError("app", "AnalyzeTemplate", err)
	}

	a.Log(fmt.Sprintf("Analyzed template %s: %d layouts -> %s", meta.TemplateID, len(meta.Layouts), metaPath))
	return meta, metaPath, nil
}

// LoadTemplateMetadata loads previously analyzed metadata by template
// ID.
func (a *App) LoadTemplateMetadata(templateID string) (*template.TemplateMetadata, error) {
	cfg, err := a.configService.GetConfig()
	if err != nil {
		return nil, err
	}

	metaPath := filepath.Join(cfg.TemplateDir, templateID+".json")
	meta, err := template.LoadMetadata(metaPath)
	if err != nil {
		return nil, WrapError("app", "LoadTemplateMetadata",
			fmt.Errorf("template %q has not been analyzed: %w", templateID, err))
	}
	return meta, nil
}

// GenerateModule builds a generation module for an analyzed template
// and persists its descriptor. Concurrent generation for the same
// template is serialized through a lock file.
func (a *App) GenerateModule(templateID string) (*deck.GeneratedModule, error) {
	meta, err := a.LoadTemplateMetadata(templateID)
	if err != nil {
		return nil, err
	}

	cfg, err := a.configService.GetConfig()
	if err != nil {
		return nil, err
	}

	unlock, err := a.lockTemplate(cfg.ModuleDir, templateID)
	if err != nil {
		return nil, WrapError("app", "GenerateModule", err)
	}
	defer unlock()

	gen := &deck.Generator{OutputDir: cfg.ModuleDir, Log: a.Log}
	mod, err := gen.Generate(meta)
	if err != nil {
		return nil, WrapError("app", "GenerateModule", err)
	}

	a.Log(fmt.Sprintf("Generated module for template %s -> %s", templateID, gen.DescriptorPath(meta.TemplateID)))
	return mod, nil
}

// RunPipeline runs the full document-to-deck pipeline and records the
// session. Returns the session ID and the pipeline result.
func (a *App) RunPipeline(documentPath, templateID, guidance string) (string, *agent.RunResult, error) {
	if a.sessionService == nil {
		return "", nil, WrapError("app", "RunPipeline", fmt.Errorf("app not started"))
	}

	cfg, err := a.configService.GetConfig()
	if err != nil {
		return "", nil, err
	}

	doc, err := a.extractService.Extract(documentPath)
	if err != nil {
		return "", nil, WrapError("app", "RunPipeline", err)
	}

	mod, err := a.GenerateModule(templateID)
	if err != nil {
		return "", nil, err
	}

	session, err := a.sessionService.Create(documentPath, templateID, guidance)
	if err != nil {
		return "", nil, WrapError("app", "RunPipeline", err)
	}
	if err := a.sessionService.UpdateStage(session.ID, agent.StageDocumentAnalysis); err != nil {
		a.Log(fmt.Sprintf("failed to record entry stage: %v", err))
	}

	llm, err := agent.NewChatCompleter(cfg, a.Log)
	if err != nil {
		a.failSession(session.ID, "", err)
		return session.ID, nil, WrapError("app", "RunPipeline", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(documentPath), filepath.Ext(documentPath))
	outputPath := filepath.Join(cfg.OutputDir, baseName+"_"+templateID+".pptx")
	promptsPath := filepath.Join(cfg.OutputDir, baseName+"_"+templateID+"_image_prompts.json")

	pipeline := agent.NewPipeline(llm, a.Log)
	result, err := pipeline.Run(a.ctx, agent.RunInput{
		Document:    doc,
		Guidance:    guidance,
		Module:      mod,
		OutputPath:  outputPath,
		PromptsPath: promptsPath,
	})
	if err != nil {
		stage := ""
		var se *agent.StageError
		if errors.As(err, &se) {
			stage = se.Stage
		}
		a.failSession(session.ID, stage, err)
		return session.ID, nil, WrapError("app", "RunPipeline", err)
	}

	for _, m := range result.Stages {
		if recErr := a.sessionService.RecordStageResult(session.ID, m.Name, m.DurationMS, m.CharsIn, m.CharsOut, ""); recErr != nil {
			a.Log(fmt.Sprintf("failed to record stage result: %v", recErr))
		}
	}

	if notesErr := a.exportNotes(result, cfg.OutputDir, baseName, templateID); notesErr != nil {
		a.Log(fmt.Sprintf("speaker notes export failed: %v", notesErr))
	}

	if err := a.sessionService.Complete(session.ID, outputPath, result.SlideCount); err != nil {
		a.Log(fmt.Sprintf("failed to complete session: %v", err))
	}

	a.Log(fmt.Sprintf("Pipeline finished: %d slides -> %s", result.SlideCount, outputPath))
	return session.ID, result, nil
}

// ListSessions returns recent pipeline sessions.
func (a *App) ListSessions(limit int) ([]database.Session, error) {
	if a.sessionService == nil {
		return nil, WrapError("app", "ListSessions", fmt.Errorf("app not started"))
	}
	return a.sessionService.ListSessions(limit)
}

func (a *App) exportNotes(result *agent.RunResult, outputDir, baseName, templateID string) error {
	svc := export.NewNotesExportService()
	data, err := svc.ExportSpeakerNotes(result.Plan, result.ImagePrompts)
	if err != nil {
		return WrapOperationError("render speaker notes", err)
	}
	notesPath := filepath.Join(outputDir, baseName+"_"+templateID+"_notes.docx")
	return os.WriteFile(notesPath, data, 0644)
}

func (a *App) failSession(sessionID, stage string, err error) {
	if failErr := a.sessionService.Fail(sessionID, stage, err.Error()); failErr != nil {
		a.Log(fmt.Sprintf("failed to mark session failed: %v", failErr))
	}
}

// lockTemplate takes an exclusive lock file for one template so two
// generations never interleave descriptor writes. The returned
// function releases the lock.
func (a *App) lockTemplate(moduleDir, templateID string) (func(), error) {
	if err := os.MkdirAll(moduleDir, 0755); err != nil {
		return nil, err
	}
	lockPath := filepath.Join(moduleDir, templateID+".lock")
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("template %q is locked by another generation (remove %s if stale)", templateID, lockPath)
		}
		return nil, err
	}
	f.Close()
	return func() {
		os.Remove(lockPath)
	}, nil
}
