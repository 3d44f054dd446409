package queues

import (
	"github.com/spf13/cobra"

	"github.com/queueops/queuectl/internal/cli/common"
)

func NewCreateCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var inputFlags common.InputFlags

	command := &cobra.Command{
		Use:   "create",
		Short: "Create a queue from a JSON or YAML payload",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			data, err := common.ReadInput(command, inputFlags)
			if err != nil {
				return err
			}
			payload, err := common.DecodeValue(data, inputFlags.Format)
			if err != nil {
				return err
			}
			if _, ok := payload.(map[string]any); !ok {
				return common.ValidationError("create payload must be a JSON object", nil)
			}

			cfg, err := deps.ResolveConfig(globalFlags)
			if err != nil {
				return err
			}
			client, err := deps.RequireConsole(cfg)
			if err != nil {
				return err
			}

			created, err := client.Create(command.Context(), payload)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags.Output, created, nil)
		},
	}

	common.BindInputFlags(command, &inputFlags)
	return command
}
