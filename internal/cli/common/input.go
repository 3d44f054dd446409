package common

import (
	"bytes"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/queueops/queuectl/queue"
)

const (
	stdinFileIndicator  = "-"
	MissingInputMessage = "input is required: provide --payload <path|-> or stdin"
	maxInputBytes       = 4 << 20
)

// ReadInput returns the raw payload bytes from --payload or stdin.
func ReadInput(command *cobra.Command, flags InputFlags) ([]byte, error) {
	if flags.Payload != "" && flags.Payload != stdinFileIndicator {
		file, err := os.Open(flags.Payload)
		if err != nil {
			return nil, ValidationError("failed to open payload file", err)
		}
		defer file.Close()

		data, err := readAllWithLimit(file, maxInputBytes)
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, ValidationError("input is empty", nil)
		}
		return data, nil
	}

	inputReader := command.InOrStdin()
	if stdinFile, ok := inputReader.(*os.File); ok {
		info, err := stdinFile.Stat()
		if err == nil && (info.Mode()&os.ModeCharDevice) != 0 {
			return nil, ValidationError(MissingInputMessage, nil)
		}
	}

	data, err := readAllWithLimit(inputReader, maxInputBytes)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ValidationError(MissingInputMessage, nil)
	}
	return data, nil
}

// DecodeValue parses payload bytes into a queue value. YAML input is
// re-encoded through JSON so numbers normalize the same way.
func DecodeValue(data []byte, format string) (queue.Value, error) {
	switch format {
	case "", OutputJSON:
		return queue.ParseText(data)
	case OutputYAML:
		var decoded any
		if err := yaml.Unmarshal(data, &decoded); err != nil {
			return nil, ValidationError("invalid yaml input", err)
		}
		return queue.Normalize(decoded)
	default:
		return nil, ValidationError("invalid input format: use json or yaml", nil)
	}
}

func readAllWithLimit(reader io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, InternalError("failed to read input", err)
	}
	if int64(len(data)) > limit {
		return nil, ValidationError("input exceeds the size limit", nil)
	}
	return data, nil
}
