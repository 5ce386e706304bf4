package cli

import (
	"log/slog"

	"lifeos/internal/agent"
	"lifeos/internal/config"
	"lifeos/internal/fs"
	"lifeos/internal/mdsync"
	"lifeos/internal/notify"
	"lifeos/internal/store"
	"lifeos/internal/tables"
	"lifeos/internal/workspace"
)

// App holds the components shared by all commands.
type App struct {
	Config    config.Config
	Log       *slog.Logger
	FS        fs.FS
	Store     *store.Store
	Syncer    *mdsync.Syncer
	Hub       *notify.Hub
	Tables    *tables.Service
	Workspace *workspace.Reader
	Agent     *agent.Client
}

// NewApp wires the components for cfg on fsys. Nothing touches the
// filesystem until a command runs.
func NewApp(cfg config.Config, fsys fs.FS, log *slog.Logger) *App {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	syncer := mdsync.NewSyncer(fsys, cfg.WorkspacePath(cfg.ProjectsFile), log.With("component", "mdsync"))

	st := store.New(store.NewFileBackend(fsys, cfg.DataDirAbs),
		store.WithLogger(log.With("component", "store")),
		store.WithTables(cfg.Tables...),
		store.WithHook(tables.Tasks, syncer.Hook()),
	)

	hub := notify.NewHub()
	svc := tables.New(st, hub, log.With("component", "tables"))

	paths := workspace.Paths{
		Root:      cfg.WorkspaceDirAbs,
		Inventory: cfg.InventoryFile,
		Calendar:  cfg.CalendarFile,
		Memory:    cfg.MemoryFile,
		Projects:  cfg.ProjectsDir,
		Journal:   cfg.JournalDir,
		Assets:    cfg.AssetsDir,
	}

	return &App{
		Config:    cfg,
		Log:       log,
		FS:        fsys,
		Store:     st,
		Syncer:    syncer,
		Hub:       hub,
		Tables:    svc,
		Workspace: workspace.NewReader(fsys, paths, svc, log.With("component", "workspace")),
		Agent: agent.New(cfg.OpenclawBin, cfg.WorkspaceDirAbs,
			agent.WithTimeout(cfg.Timeout),
			agent.WithLogger(log.With("component", "agent")),
		),
	}
}
