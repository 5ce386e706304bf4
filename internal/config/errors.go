package config

import "errors"

// Configuration errors.
var (
	ErrConfigInvalid      = errors.New("invalid config")
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrDataDirEmpty       = errors.New("data_dir cannot be empty")
	ErrWorkspaceDirEmpty  = errors.New("workspace_dir cannot be empty")
	ErrTimeoutInvalid     = errors.New("command_timeout must be a positive duration")
	ErrPortInvalid        = errors.New("PORT must be a number")
)
