package main

import (
	"os"

	"github.com/queueops/queuectl/internal/cli"
)

func main() {
	err := cli.Execute(cli.Dependencies{})
	os.Exit(cli.ExitCodeForError(err))
}
