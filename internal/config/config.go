// Package config loads lifeos configuration from JSONC files, the
// environment and command line overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	DataDir        string   `json:"data_dir"`
	WorkspaceDir   string   `json:"workspace_dir"`
	Listen         string   `json:"listen"`
	StaticDir      string   `json:"static_dir,omitempty"`
	OpenclawBin    string   `json:"openclaw_bin"`
	CommandTimeout string   `json:"command_timeout"`
	ProjectsFile   string   `json:"projects_file"`
	InventoryFile  string   `json:"inventory_file"`
	MemoryFile     string   `json:"memory_file"`
	CalendarFile   string   `json:"calendar_file"`
	JournalDir     string   `json:"journal_dir"`
	ProjectsDir    string   `json:"projects_dir"`
	AssetsDir      string   `json:"assets_dir"`
	Tables         []string `json:"tables,omitempty"`

	// Resolved values (computed, not serialized)
	EffectiveCwd    string        `json:"-"` // Absolute working directory (from -C flag or os.Getwd)
	DataDirAbs      string        `json:"-"`
	WorkspaceDirAbs string        `json:"-"`
	StaticDirAbs    string        `json:"-"` // Empty when no static dir is configured
	Timeout         time.Duration `json:"-"`

	// Sources tracks where settings came from (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files and variables were applied.
type Sources struct {
	Global  string   // Path to global config if loaded, empty otherwise
	Project string   // Path to project config if loaded, empty otherwise
	Env     []string // Environment variables that overrode file settings
}

// Default values.
const (
	DefaultListen  = ":3000"
	DefaultTimeout = 60 * time.Second
)

// DefaultConfig returns the default configuration. The workspace defaults
// to the openclaw workspace in the user's home.
func DefaultConfig(env map[string]string) Config {
	workspace := "workspace"
	if home := env["HOME"]; home != "" {
		workspace = filepath.Join(home, ".openclaw", "workspace")
	}

	return Config{
		DataDir:        "data",
		WorkspaceDir:   workspace,
		Listen:         DefaultListen,
		OpenclawBin:    "openclaw",
		CommandTimeout: DefaultTimeout.String(),
		ProjectsFile:   "PROJECTS.md",
		InventoryFile:  "INVENTORY.md",
		MemoryFile:     "MEMORY.md",
		CalendarFile:   "content_calendar_a_few_things.md",
		JournalDir:     filepath.Join("memory", "journal"),
		ProjectsDir:    "projects",
		AssetsDir:      "assets",
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".lifeos.json"

// globalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/lifeos/config.json if set, otherwise
// ~/.config/lifeos/config.json. Returns "" if neither is known.
func globalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "lifeos", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "lifeos", "config.json")
	}

	return ""
}

// LoadInput holds the inputs for [Load].
type LoadInput struct {
	WorkDirOverride      string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath           string            // -c/--config flag value
	DataDirOverride      string            // --data-dir flag value
	WorkspaceDirOverride string            // --workspace flag value
	ListenOverride       string            // --listen flag value
	Env                  map[string]string // environment variables
}

// Load loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/lifeos/config.json or $XDG_CONFIG_HOME/lifeos/config.json)
// 3. Project config file at default location (.lifeos.json, if exists)
// 4. Explicit config file via ConfigPath (if non-empty)
// 5. Environment (PORT, LIFEOS_WORKSPACE)
// 6. CLI overrides.
//
// Relative data, static and workspace dirs are resolved against the working
// directory. Markdown sources are resolved against the workspace dir.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig(input.Env)

	globalCfg, globalPath, err := loadGlobalConfig(input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Global = globalPath
	cfg = mergeConfig(cfg, globalCfg)

	projectCfg, projectPath, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg.Sources.Project = projectPath
	cfg = mergeConfig(cfg, projectCfg)

	cfg, err = applyEnv(cfg, input.Env)
	if err != nil {
		return Config{}, err
	}

	cfg = mergeConfig(cfg, Config{
		DataDir:      input.DataDirOverride,
		WorkspaceDir: input.WorkspaceDirOverride,
		Listen:       input.ListenOverride,
	})

	cfg.Timeout, err = validateConfig(cfg)
	if err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir
	cfg.DataDirAbs = absolute(workDir, cfg.DataDir)
	cfg.WorkspaceDirAbs = absolute(workDir, cfg.WorkspaceDir)

	if cfg.StaticDir != "" {
		cfg.StaticDirAbs = absolute(workDir, cfg.StaticDir)
	}

	return cfg, nil
}

// WorkspacePath resolves p against the workspace dir.
func (c Config) WorkspacePath(p string) string {
	return absolute(c.WorkspaceDirAbs, p)
}

func absolute(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(base, p)
}

func applyEnv(cfg Config, env map[string]string) (Config, error) {
	if port := env["PORT"]; port != "" {
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return Config{}, fmt.Errorf("%w: %q", ErrPortInvalid, port)
		}

		cfg.Listen = ":" + port
		cfg.Sources.Env = append(cfg.Sources.Env, "PORT")
	}

	if ws := env["LIFEOS_WORKSPACE"]; ws != "" {
		cfg.WorkspaceDir = ws
		cfg.Sources.Env = append(cfg.Sources.Env, "LIFEOS_WORKSPACE")
	}

	return cfg, nil
}

// loadGlobalConfig loads the global user config file if it exists.
func loadGlobalConfig(env map[string]string) (Config, string, error) {
	path := globalConfigPath(env)
	if path == "" {
		return Config{}, "", nil
	}

	return loadCheckedFile(path, false)
}

// loadProjectConfig loads the project config file (.lifeos.json) or an
// explicit config file.
func loadProjectConfig(workDir, configPath string) (Config, string, error) {
	if configPath == "" {
		return loadCheckedFile(filepath.Join(workDir, ConfigFileName), false)
	}

	cfgFile := absolute(workDir, configPath)

	_, statErr := os.Stat(cfgFile)
	if statErr != nil {
		return Config{}, "", fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
	}

	return loadCheckedFile(cfgFile, true)
}

// loadCheckedFile loads path and rejects explicitly emptied directories.
// Returns the path only if the file was loaded.
func loadCheckedFile(path string, mustExist bool) (Config, string, error) {
	cfg, explicitEmpty, loaded, err := loadConfigFile(path, mustExist)
	if err != nil {
		return Config{}, "", err
	}

	if !loaded {
		return Config{}, "", nil
	}

	if explicitEmpty["data_dir"] {
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, ErrDataDirEmpty)
	}

	if explicitEmpty["workspace_dir"] {
		return Config{}, "", fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, ErrWorkspaceDirEmpty)
	}

	return cfg, path, nil
}

// loadConfigFile loads a config file. If mustExist is false, missing files
// return zero config. Returns the config, the explicitly empty fields,
// whether the file was loaded, and any error.
func loadConfigFile(path string, mustExist bool) (Config, map[string]bool, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if mustExist {
			return Config{}, nil, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
		}

		return Config{}, nil, false, nil
	}

	cfg, explicitEmpty, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, nil, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, explicitEmpty, true, nil
}

func parseConfig(data []byte) (Config, map[string]bool, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, nil, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	unmarshalErr := json.Unmarshal(standardized, &cfg)
	if unmarshalErr != nil {
		return Config{}, nil, fmt.Errorf("invalid JSON: %w", unmarshalErr)
	}

	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	explicitEmpty := make(map[string]bool)

	for _, key := range []string{"data_dir", "workspace_dir"} {
		if str, ok := raw[key].(string); ok && str == "" {
			explicitEmpty[key] = true
		}
	}

	return cfg, explicitEmpty, nil
}

func mergeConfig(base, overlay Config) Config {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&base.DataDir, overlay.DataDir)
	set(&base.WorkspaceDir, overlay.WorkspaceDir)
	set(&base.Listen, overlay.Listen)
	set(&base.StaticDir, overlay.StaticDir)
	set(&base.OpenclawBin, overlay.OpenclawBin)
	set(&base.CommandTimeout, overlay.CommandTimeout)
	set(&base.ProjectsFile, overlay.ProjectsFile)
	set(&base.InventoryFile, overlay.InventoryFile)
	set(&base.MemoryFile, overlay.MemoryFile)
	set(&base.CalendarFile, overlay.CalendarFile)
	set(&base.JournalDir, overlay.JournalDir)
	set(&base.ProjectsDir, overlay.ProjectsDir)
	set(&base.AssetsDir, overlay.AssetsDir)

	if overlay.Tables != nil {
		base.Tables = overlay.Tables
	}

	return base
}

// validateConfig checks cfg and returns the parsed command timeout.
func validateConfig(cfg Config) (time.Duration, error) {
	if cfg.DataDir == "" {
		return 0, ErrDataDirEmpty
	}

	if cfg.WorkspaceDir == "" {
		return 0, ErrWorkspaceDirEmpty
	}

	timeout, err := time.ParseDuration(cfg.CommandTimeout)
	if err != nil || timeout <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrTimeoutInvalid, cfg.CommandTimeout)
	}

	return timeout, nil
}
