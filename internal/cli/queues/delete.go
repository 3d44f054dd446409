package queues

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/queueops/queuectl/internal/cli/common"
	"github.com/queueops/queuectl/internal/session"
)

func NewDeleteCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var confirmToken string

	command := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a queue after a typed confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			id, err := requireIDArg(args)
			if err != nil {
				return err
			}

			var gate session.DeleteConfirmation
			if strings.TrimSpace(confirmToken) != "" {
				gate.SetInput(confirmToken)
			} else {
				input, promptErr := prompter(deps, command).Input(
					fmt.Sprintf("Type %s to delete queue %s", session.DeleteConfirmationToken, id),
					session.ValidateDeleteToken,
				)
				if promptErr != nil {
					return promptErr
				}
				gate.SetInput(input)
			}
			if !gate.Confirmed() {
				return session.ValidateDeleteToken(confirmToken)
			}

			cfg, err := deps.ResolveConfig(globalFlags)
			if err != nil {
				return err
			}
			client, err := deps.RequireConsole(cfg)
			if err != nil {
				return err
			}

			if err := client.Delete(command.Context(), id); err != nil {
				return err
			}
			return common.WriteText(command, globalFlags.Output, fmt.Sprintf("deleted queue %s", id))
		},
	}

	command.Flags().StringVar(&confirmToken, "confirm-token", "", "non-interactive confirmation token (must be DELETE)")
	return command
}
