package queues

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/queueops/queuectl/internal/cli/common"
	"github.com/queueops/queuectl/internal/session"
	"github.com/queueops/queuectl/queue"
)

func NewEditCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	var editor string

	command := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a queue in your editor and apply the sparse patch",
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

			snapshot, err := client.Get(command.Context(), id)
			if err != nil {
				return err
			}

			sess := session.New(snapshot)
			if err := sess.BeginEdit(); err != nil {
				return err
			}

			ask := prompter(deps, command)
			editorCommand := common.ResolveEditorCommand(editor, cfg.DefaultEditor)
			out := command.OutOrStdout()

			for {
				edited, err := common.EditTempFile(command, editorCommand, id+".json", []byte(sess.Draft()))
				if err != nil {
					sess.Cancel()
					return err
				}
				sess.SetDraft(string(edited))

				if err := sess.Review(); err != nil {
					fmt.Fprintf(out, "draft rejected: %v\n", err)
					again, promptErr := ask.Confirm("The draft is not valid JSON. Edit again?")
					if promptErr != nil || !again {
						sess.Cancel()
						return err
					}
					continue
				}

				if err := renderDiffLines(out, sess.DiffLines()); err != nil {
					return err
				}

				if !sess.CanCommit() {
					fmt.Fprintln(out, session.EmptyDiffMessage)
					again, promptErr := ask.Confirm("Edit again?")
					if promptErr != nil || !again {
						sess.Cancel()
						return nil
					}
					if err := sess.BackToEditing(); err != nil {
						return err
					}
					continue
				}

				confirmed, err := ask.Confirm(fmt.Sprintf("Apply this change to queue %s?", id))
				if err != nil {
					sess.Cancel()
					return err
				}
				if !confirmed {
					again, promptErr := ask.Confirm("Keep editing instead of discarding?")
					if promptErr != nil || !again {
						sess.Cancel()
						return nil
					}
					if err := sess.BackToEditing(); err != nil {
						return err
					}
					continue
				}

				commitErr := sess.Commit(command.Context(), func(ctx context.Context, patch queue.Value) error {
					_, patchErr := client.Patch(ctx, id, patch)
					return patchErr
				})
				if commitErr != nil {
					fmt.Fprintf(out, "update failed: %v\n", commitErr)
					retry, promptErr := ask.Confirm("Retry the update?")
					if promptErr != nil || !retry {
						sess.Cancel()
						return commitErr
					}
					continue
				}
				break
			}

			// The committed snapshot is stale; show the refetched state.
			updated, err := client.Get(command.Context(), id)
			if err != nil {
				return err
			}
			return common.WriteOutput(command, globalFlags.Output, updated, nil)
		},
	}

	common.BindEditorFlag(command, &editor)
	return command
}
