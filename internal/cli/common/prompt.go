package common

import (
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// Prompter covers the interactive questions the commands ask. Tests
// substitute a scripted implementation.
type Prompter interface {
	Input(title string, validate func(string) error) (string, error)
	Confirm(title string) (bool, error)
}

type huhPrompter struct {
	stdin  io.Reader
	stdout io.Writer
}

func NewHuhPrompter(command *cobra.Command) Prompter {
	return &huhPrompter{
		stdin:  command.InOrStdin(),
		stdout: command.OutOrStdout(),
	}
}

func (h *huhPrompter) runField(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithShowHelp(false).
		WithInput(h.stdin).
		WithOutput(h.stdout)
	return form.Run()
}

func (h *huhPrompter) Input(title string, validate func(string) error) (string, error) {
	var value string
	field := huh.NewInput().
		Title(title).
		Prompt("> ").
		Value(&value)
	if validate != nil {
		field = field.Validate(validate)
	}
	if err := h.runField(field); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func (h *huhPrompter) Confirm(title string) (bool, error) {
	var confirmed bool
	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed)
	if err := h.runField(field); err != nil {
		return false, err
	}
	return confirmed, nil
}
