package common

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const DefaultEditorCommand = "vi"

func BindEditorFlag(command *cobra.Command, editor *string) {
	command.Flags().StringVar(editor, "editor", "", "editor command override (default: config default_editor or vi)")
}

// ResolveEditorCommand picks the editor: explicit flag, then the
// configured default, then vi.
func ResolveEditorCommand(explicit, configured string) string {
	if value := strings.TrimSpace(explicit); value != "" {
		return value
	}
	if value := strings.TrimSpace(configured); value != "" {
		return value
	}
	return DefaultEditorCommand
}

// EditTempFile writes initial to a temp file, opens it in the editor,
// and returns the edited bytes.
func EditTempFile(command *cobra.Command, editorCommand string, filename string, initial []byte) ([]byte, error) {
	if !IsInteractiveTerminal(command) {
		return nil, ValidationError("interactive editor requires a terminal", nil)
	}

	baseName := strings.TrimSpace(filename)
	if baseName == "" {
		baseName = "queuectl-edit.tmp"
	}

	tmpFile, err := os.CreateTemp(os.TempDir(), "queuectl-edit-*")
	if err != nil {
		return nil, err
	}
	tmpPath := tmpFile.Name()
	if err := tmpFile.Close(); err != nil {
		return nil, err
	}
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if ext := strings.TrimSpace(filepath.Ext(baseName)); ext != "" {
		renamedPath := tmpPath + ext
		if renameErr := os.Rename(tmpPath, renamedPath); renameErr == nil {
			tmpPath = renamedPath
		}
	}

	if len(initial) > 0 {
		if err := os.WriteFile(tmpPath, initial, 0o600); err != nil {
			return nil, err
		}
	}

	if err := runEditor(command, editorCommand, tmpPath); err != nil {
		return nil, err
	}

	return os.ReadFile(tmpPath)
}

func runEditor(command *cobra.Command, editorCommand string, filePath string) error {
	trimmed := strings.TrimSpace(editorCommand)
	if trimmed == "" {
		trimmed = DefaultEditorCommand
	}

	parts := strings.Fields(trimmed)
	if len(parts) == 0 {
		return ValidationError("editor command is empty", nil)
	}

	args := append(parts[1:], filePath)
	cmd := exec.Command(parts[0], args...)
	cmd.Stdin = command.InOrStdin()
	cmd.Stdout = command.OutOrStdout()
	cmd.Stderr = command.ErrOrStderr()
	return cmd.Run()
}
