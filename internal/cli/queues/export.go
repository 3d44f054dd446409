package queues

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/queueops/queuectl/internal/cli/common"
	"github.com/queueops/queuectl/internal/console"
	"github.com/queueops/queuectl/queue"
)

func NewExportCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	command := &cobra.Command{
		Use:   "export [dir]",
		Short: "Archive every queue's snapshot into a local directory",
		Long: `Fetches all queues page by page and writes one JSON file per queue into
the archive directory. When the directory is inside a git work tree each
written snapshot is committed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			cfg, err := deps.ResolveConfig(globalFlags)
			if err != nil {
				return err
			}

			dir := cfg.ArchiveDir
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				dir = args[0]
			}
			if strings.TrimSpace(dir) == "" {
				return common.ValidationError("an archive directory is required: pass one or set archive_dir", nil)
			}

			client, err := deps.RequireConsole(cfg)
			if err != nil {
				return err
			}
			store, err := deps.RequireArchive(dir)
			if err != nil {
				return err
			}

			exported := 0
			pageToken := ""
			for {
				page, err := client.List(command.Context(), console.ListQuery{
					Channel:   cfg.Channel,
					PageSize:  cfg.PageSize,
					PageToken: pageToken,
				})
				if err != nil {
					return err
				}

				for _, item := range page.Queues {
					id, err := queue.ResolveID(item)
					if err != nil {
						return err
					}
					detail, err := client.Get(command.Context(), id)
					if err != nil {
						return err
					}
					if _, err := store.Save(id, detail); err != nil {
						return err
					}
					exported++
				}

				if page.NextPageToken == "" {
					break
				}
				pageToken = page.NextPageToken
			}

			return common.WriteText(command, globalFlags.Output,
				fmt.Sprintf("exported %d queues to %s", exported, store.Dir()))
		},
	}
	return command
}
