package queues

import (
	"github.com/spf13/cobra"

	"github.com/queueops/queuectl/internal/cli/common"
)

func NewGetCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one queue's full detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			id, err := requireIDArg(args)
			if err != nil {
				return err
			}

			cfg, err := deps.ResolveConfig(globalFlags)
			if err != nil {
				return err
			}
			client, err := deps.RequireConsole(cfg)
			if err != nil {
				return err
			}

			value, err := client.Get(command.Context(), id)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags.Output, value, nil)
		},
	}
}
