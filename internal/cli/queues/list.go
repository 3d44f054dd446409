package queues

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/queueops/queuectl/api"
	"github.com/queueops/queuectl/internal/cli/common"
	"github.com/queueops/queuectl/internal/console"
	"github.com/queueops/queuectl/queue"
)

func NewListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var (
		channel      string
		pageSize     int
		pageToken    string
		jqExpression string
	)

	command := &cobra.Command{
		Use:   "list",
		Short: "List queues",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			cfg, err := deps.ResolveConfig(globalFlags)
			if err != nil {
				return err
			}
			client, err := deps.RequireConsole(cfg)
			if err != nil {
				return err
			}

			query := console.ListQuery{
				Channel:   channel,
				PageSize:  pageSize,
				PageToken: pageToken,
			}
			if strings.TrimSpace(query.Channel) == "" {
				query.Channel = cfg.Channel
			}
			if query.PageSize <= 0 {
				query.PageSize = cfg.PageSize
			}

			page, err := client.List(command.Context(), query)
			if err != nil {
				return err
			}

			if strings.TrimSpace(jqExpression) != "" {
				filtered, err := applyJQ(queueSlice(page.Queues), jqExpression)
				if err != nil {
					return err
				}
				return common.WriteOutput(command, globalFlags.Output, filtered, nil)
			}

			return common.WriteOutput(command, globalFlags.Output, page, renderListText)
		},
	}

	command.Flags().StringVar(&channel, "channel", "", "filter by channel (default: config channel)")
	command.Flags().IntVar(&pageSize, "page-size", 0, "page size (default: config page_size)")
	command.Flags().StringVar(&pageToken, "page-token", "", "continue from a previous next_page_token")
	command.Flags().StringVar(&jqExpression, "jq", "", "jq expression applied to the queue array")
	return command
}

func queueSlice(queues []queue.Value) []any {
	out := make([]any, len(queues))
	for i := range queues {
		out[i] = queues[i]
	}
	return out
}

func renderListText(w io.Writer, page api.ListPage) error {
	for _, item := range page.Queues {
		if err := renderQueueLine(w, item); err != nil {
			return err
		}
	}
	if page.NextPageToken != "" {
		if _, err := fmt.Fprintf(w, "next page token: %s\n", page.NextPageToken); err != nil {
			return err
		}
	}
	return nil
}
