package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"wa-go/internal/adb"
	"wa-go/internal/command"
	"wa-go/internal/config"
	"wa-go/internal/database"
	"wa-go/internal/decrypt"
	"wa-go/internal/migrate"
	"wa-go/internal/model"
	"wa-go/internal/vcard"
)

// Options carries what the CLI knows beyond the resolved settings.
type Options struct {
	LogDir   string
	DataDir  string // history database location; empty keeps history in memory
	ToolsDir string // used when the config sets no tools_dir
	Verbose  bool
	Console  io.Writer           // defaults to os.Stderr
	IDs      migrate.IDGenerator // run IDs; defaults to random UUIDs
}

// WAApp is the application layer between the CLI and migrate.Service.
// It constructs all dependencies from settings, records each pipeline
// command in the run history, and releases resources on Close.
type WAApp struct {
	settings *config.Settings
	service  *migrate.Service
	history  migrate.History // nil when the history database is unavailable
	logger   migrate.Logger
	clock    migrate.Clock
	op       *RunOperation
	logFile  *os.File
}

// NewWAApp creates a fully wired WAApp for one CLI command (e.g. "pull", "all").
// A history database that cannot be opened is logged and skipped.
// The caller must call Close when done.
func NewWAApp(st *config.Settings, cmdName string, opts Options) (*WAApp, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	ids := opts.IDs
	if ids == nil {
		ids = migrate.UUIDGenerator{}
	}
	runID := ids.New()
	slogger, logFile, err := newLogger(opts.LogDir, runID, console, opts.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	toolsDir := st.ToolsDir()
	if toolsDir == "" {
		toolsDir = opts.ToolsDir
	}

	runner := command.ExecRunner{}
	client := adb.NewClient(st.AdbPath(), runner, logger)
	tool := decrypt.NewTool(decrypt.NewProvisioner(runner, st.DecryptTool(), toolsDir, logger), runner)
	remote := migrate.RemoteLayout{AppID: st.AppID()}
	clock := migrate.RealClock{}
	svc := migrate.NewService(client, tool, vcard.NewParser(), database.Verifier{}, logger, clock, remote)

	var history migrate.History
	db, err := database.OpenHistory(opts.DataDir)
	if err != nil {
		logger.Warn("run history unavailable", "error", err)
	} else {
		history = db
	}

	a := newWAApp(st, cmdName, runID, svc, history, logger, clock)
	a.logFile = logFile
	return a, nil
}

// newWAApp assembles a WAApp from ready collaborators.
func newWAApp(st *config.Settings, cmdName, runID string, svc *migrate.Service, history migrate.History, logger migrate.Logger, clock migrate.Clock) *WAApp {
	return &WAApp{
		settings: st,
		service:  svc,
		history:  history,
		logger:   logger,
		clock:    clock,
		op:       NewRunOperation(cmdName, runID, st.DryRun()),
	}
}

// RunID identifies this invocation in the log file and the run history.
func (a *WAApp) RunID() string { return a.op.RunID }

// persistOperation saves the run to the history, giving it an auto-increment ID.
// Only pipeline commands call it. Failures are logged, never fatal.
func (a *WAApp) persistOperation() {
	if a.history == nil || a.op.Persisted() {
		return
	}
	run, err := a.history.CreateRun(a.op.RunID, a.op.Command, a.clock.Now(), a.op.DryRun)
	if err != nil {
		a.logger.Warn("recording run failed", "error", err)
		return
	}
	a.op.ID = run.ID
}

func (a *WAApp) recordStage(res migrate.StageResult) {
	if a.history == nil || !a.op.Persisted() {
		return
	}
	at := res.FinishedAt
	if at.IsZero() {
		at = a.clock.Now()
	}
	if err := a.history.AddStage(a.op.ID, string(res.Stage), string(res.Status), res.Detail, at); err != nil {
		a.logger.Warn("recording stage failed", "stage", res.Stage, "error", err)
	}
}

// runStage records one stage result and marks the run failed on err.
func (a *WAApp) runStage(stage migrate.Stage, rep *migrate.Report, err error) (*migrate.Report, error) {
	a.recordStage(migrate.NewStageResult(stage, rep, err))
	a.op.Fail(err)
	return rep, err
}

// Pull copies the backup set from the pull device into the output directory.
func (a *WAApp) Pull(ctx context.Context) (*migrate.Report, error) {
	a.persistOperation()
	rep, err := a.service.Pull(ctx, a.settings, "")
	return a.runStage(migrate.StagePull, rep, err)
}

// Decrypt decrypts the databases found under the input directory.
func (a *WAApp) Decrypt(ctx context.Context) (*migrate.Report, error) {
	a.persistOperation()
	rep, err := a.service.Decrypt(ctx, a.settings, "", "")
	return a.runStage(migrate.StageDecrypt, rep, err)
}

// Convert turns the contact file at in into JSON at out. An empty out writes
// contacts.json next to in.
func (a *WAApp) Convert(ctx context.Context, in, out string) (*migrate.Report, error) {
	a.persistOperation()
	in, err := filepath.Abs(in)
	if err != nil {
		return a.runStage(migrate.StageConvert, nil, fmt.Errorf("resolving input path: %w", err))
	}
	if out == "" {
		out = filepath.Join(filepath.Dir(in), migrate.ContactsJSONName)
	} else if out, err = filepath.Abs(out); err != nil {
		return a.runStage(migrate.StageConvert, nil, fmt.Errorf("resolving output path: %w", err))
	}
	rep, err := a.service.Convert(ctx, in, out, a.settings.DryRun())
	return a.runStage(migrate.StageConvert, rep, err)
}

// Push copies the input directory's WhatsApp tree to the push device.
func (a *WAApp) Push(ctx context.Context) (*migrate.Report, error) {
	a.persistOperation()
	rep, err := a.service.Push(ctx, a.settings.Input(), a.settings.PushDevice(), a.settings.DryRun())
	return a.runStage(migrate.StagePush, rep, err)
}

// All runs the whole pipeline and records every stage.
func (a *WAApp) All(ctx context.Context) (*migrate.RunSummary, error) {
	a.persistOperation()
	summary, err := a.service.Run(ctx, a.settings)
	if summary != nil {
		for _, res := range summary.Stages {
			a.recordStage(res)
		}
	}
	a.op.Fail(err)
	return summary, err
}

// Devices lists attached devices. It is not recorded as a run.
func (a *WAApp) Devices(ctx context.Context) ([]migrate.Device, error) {
	return a.service.Devices(ctx)
}

// RunHistory is one recorded run with its stages.
type RunHistory struct {
	Run    *model.Run
	Stages []*model.RunStage
}

// History returns the most recent recorded runs, newest first.
func (a *WAApp) History(limit int) ([]RunHistory, error) {
	if a.history == nil {
		return nil, fmt.Errorf("run history is unavailable")
	}
	runs, err := a.history.ListRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	out := make([]RunHistory, 0, len(runs))
	for _, run := range runs {
		stages, err := a.history.ListStages(run.ID)
		if err != nil {
			return nil, fmt.Errorf("listing stages of run %s: %w", run.RunID, err)
		}
		out = append(out, RunHistory{Run: run, Stages: stages})
	}
	return out, nil
}

// Close finishes the run record and closes the history and log file.
func (a *WAApp) Close() error {
	var firstErr error

	if a.history != nil {
		if a.op.Persisted() {
			if err := a.history.FinishRun(a.op.ID, a.op.Status, a.clock.Now()); err != nil {
				firstErr = fmt.Errorf("finishing run record: %w", err)
			}
		}
		if err := a.history.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing history: %w", err)
		}
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
