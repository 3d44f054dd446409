package queues

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/queueops/queuectl/internal/bulk"
	"github.com/queueops/queuectl/internal/cli/common"
)

func NewBulkCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var inputFlags common.InputFlags

	command := &cobra.Command{
		Use:   "bulk",
		Short: "Create queues in batch from a CSV file",
		Long: `Reads a CSV file with a header row and creates one queue per data row.
Column names map to payload keys, dotted names nest, and cells that look
like JSON (numbers, booleans, arrays, objects) are parsed as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			data, err := common.ReadInput(command, inputFlags)
			if err != nil {
				return err
			}
			payloads, err := bulk.ParseCSV(bytes.NewReader(data))
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

			result, err := client.BulkCreate(command.Context(), payloads)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags.Output, result, nil)
		},
	}

	command.Flags().StringVarP(&inputFlags.Payload, "payload", "f", "", "CSV file path (use '-' to read from stdin)")
	return command
}
