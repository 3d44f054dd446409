// Package cli assembles the queuectl command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/queueops/queuectl/internal/cli/common"
	"github.com/queueops/queuectl/internal/cli/queues"
	servecmd "github.com/queueops/queuectl/internal/cli/serve"
	versioncmd "github.com/queueops/queuectl/internal/cli/version"
)

func NewRootCommand(deps Dependencies) *cobra.Command {
	commandDeps := deps.commandDependencies()
	var globalFlags common.GlobalFlags

	root := &cobra.Command{
		Use:   "queuectl",
		Short: "Administer contact-center queues",
		Long: `queuectl is an admin console for the queue resources of a contact-center
API. It lists, inspects, creates, edits, and deletes queues through a
local proxy that injects OAuth credentials and normalizes responses.`,
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
		Args: cobra.NoArgs,
		PersistentPreRunE: func(command *cobra.Command, _ []string) error {
			// diff accepts the extra "jsonpatch" output format.
			if command.Name() == "diff" {
				return nil
			}
			return common.ValidateOutputFormat(globalFlags.Output)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	common.BindGlobalFlags(root, &globalFlags)

	root.AddCommand(queues.NewListCommand(commandDeps, &globalFlags))
	root.AddCommand(queues.NewGetCommand(commandDeps, &globalFlags))
	root.AddCommand(queues.NewCreateCommand(commandDeps, &globalFlags))
	root.AddCommand(queues.NewEditCommand(commandDeps, &globalFlags))
	root.AddCommand(queues.NewDiffCommand(commandDeps, &globalFlags))
	root.AddCommand(queues.NewDeleteCommand(commandDeps, &globalFlags))
	root.AddCommand(queues.NewBulkCommand(commandDeps, &globalFlags))
	root.AddCommand(queues.NewExportCommand(commandDeps, &globalFlags))
	root.AddCommand(servecmd.NewCommand(commandDeps, &globalFlags))
	root.AddCommand(versioncmd.NewCommand())

	return root
}
