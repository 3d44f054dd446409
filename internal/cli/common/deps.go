package common

import (
	"github.com/queueops/queuectl/config"
	"github.com/queueops/queuectl/internal/console"
)

// ArchiveStore is the slice of the snapshot archive the commands use.
type ArchiveStore interface {
	Save(id string, snapshot any) (string, error)
	Dir() string
}

// CommandDependencies wires the commands to their collaborators.
// Factories run lazily so flags are parsed before anything connects.
type CommandDependencies struct {
	LoadConfig func(path string) (config.Config, error)
	NewConsole func(proxyURL string) (console.Service, error)
	NewArchive func(dir string) (ArchiveStore, error)

	// Prompter overrides the interactive prompter; nil selects huh.
	Prompter Prompter
}

func (d CommandDependencies) ResolveConfig(flags *GlobalFlags) (config.Config, error) {
	if d.LoadConfig == nil {
		return config.Config{}, InternalError("config loader is not configured", nil)
	}
	path := ""
	if flags != nil {
		path = flags.ConfigPath
	}
	return d.LoadConfig(path)
}

func (d CommandDependencies) RequireConsole(cfg config.Config) (console.Service, error) {
	if d.NewConsole == nil {
		return nil, InternalError("console client is not configured", nil)
	}
	return d.NewConsole(cfg.ProxyURL)
}

func (d CommandDependencies) RequireArchive(dir string) (ArchiveStore, error) {
	if d.NewArchive == nil {
		return nil, InternalError("archive store is not configured", nil)
	}
	return d.NewArchive(dir)
}
