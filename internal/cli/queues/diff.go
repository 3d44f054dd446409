package queues

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wI2L/jsondiff"

	"github.com/queueops/queuectl/internal/cli/common"
	"github.com/queueops/queuectl/queue"
)

// OutputJSONPatch renders the diff as an RFC 6902 patch; unlike the
// sparse payload it makes removals explicit.
const OutputJSONPatch = "jsonpatch"

func NewDiffCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var inputFlags common.InputFlags

	command := &cobra.Command{
		Use:   "diff <id>",
		Short: "Preview the changes an edited payload would apply",
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			id, err := requireIDArg(args)
			if err != nil {
				return err
			}

			data, err := common.ReadInput(command, inputFlags)
			if err != nil {
				return err
			}
			edited, err := common.DecodeValue(data, inputFlags.Format)
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

			snapshot, err := client.Get(command.Context(), id)
			if err != nil {
				return err
			}

			filteredOriginal := queue.StripReadOnly(snapshot)
			filteredEdited := queue.StripReadOnly(edited)

			if globalFlags.Output == OutputJSONPatch {
				patch, err := jsondiff.Compare(filteredOriginal, filteredEdited)
				if err != nil {
					return common.InternalError("failed to compute json patch", err)
				}
				encoded, err := json.MarshalIndent(patch, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(command.OutOrStdout(), string(encoded))
				return err
			}

			switch globalFlags.Output {
			case "", common.OutputAuto, common.OutputText:
				return renderDiffLines(command.OutOrStdout(), queue.Render(filteredOriginal, filteredEdited))
			default:
				// json/yaml show the sparse patch payload that PATCH would send.
				patch := queue.BuildPatch(snapshot, edited)
				if patch == nil {
					patch = map[string]any{}
				}
				return common.WriteOutput(command, globalFlags.Output, patch, nil)
			}
		},
	}

	common.BindInputFlags(command, &inputFlags)
	return command
}
