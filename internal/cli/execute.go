package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/queueops/queuectl/config"
	"github.com/queueops/queuectl/faults"
	"github.com/queueops/queuectl/internal/archive"
	"github.com/queueops/queuectl/internal/cli/common"
	"github.com/queueops/queuectl/internal/console"
)

// Dependencies carries the pluggable collaborators. Zero-value fields
// fall back to the production implementations.
type Dependencies struct {
	LoadConfig func(path string) (config.Config, error)
	NewConsole func(proxyURL string) (console.Service, error)
	NewArchive func(dir string) (common.ArchiveStore, error)
	Prompter   common.Prompter
}

func (d Dependencies) commandDependencies() common.CommandDependencies {
	deps := common.CommandDependencies{
		LoadConfig: d.LoadConfig,
		NewConsole: d.NewConsole,
		NewArchive: d.NewArchive,
		Prompter:   d.Prompter,
	}
	if deps.LoadConfig == nil {
		deps.LoadConfig = config.Load
	}
	if deps.NewConsole == nil {
		deps.NewConsole = func(proxyURL string) (console.Service, error) {
			return console.NewClient(proxyURL)
		}
	}
	if deps.NewArchive == nil {
		deps.NewArchive = func(dir string) (common.ArchiveStore, error) {
			return archive.NewStore(dir)
		}
	}
	return deps
}

func Execute(deps Dependencies) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(deps)
	if err := root.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(root.ErrOrStderr(), "error: "+strings.TrimSpace(err.Error()))
		return err
	}
	return nil
}

func ExitCodeForError(err error) int {
	if err == nil {
		return 0
	}

	var typedErr *faults.TypedError
	if !errors.As(err, &typedErr) {
		return 1
	}

	switch typedErr.Category {
	case faults.ValidationError:
		return 2
	case faults.NotFoundError:
		return 3
	case faults.AuthError:
		return 4
	case faults.ConflictError:
		return 5
	case faults.TransportError:
		return 6
	default:
		return 1
	}
}
