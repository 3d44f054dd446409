package common

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/queueops/queuectl/faults"
)

func captureCommand() (*cobra.Command, *strings.Builder) {
	out := &strings.Builder{}
	command := &cobra.Command{Use: "test"}
	command.SetOut(out)
	command.SetErr(out)
	return command, out
}

func TestWriteOutputJSON(t *testing.T) {
	t.Parallel()

	command, out := captureCommand()
	if err := WriteOutput(command, OutputJSON, map[string]any{"name": "support"}, nil); err != nil {
		t.Fatalf("WriteOutput failed: %v", err)
	}
	if !strings.Contains(out.String(), `"name": "support"`) {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestWriteOutputYAML(t *testing.T) {
	t.Parallel()

	command, out := captureCommand()
	if err := WriteOutput(command, OutputYAML, map[string]any{"name": "support"}, nil); err != nil {
		t.Fatalf("WriteOutput failed: %v", err)
	}
	if !strings.Contains(out.String(), "name: support") {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestWriteOutputTextUsesRenderer(t *testing.T) {
	t.Parallel()

	command, out := captureCommand()
	err := WriteOutput(command, OutputText, "value", func(w io.Writer, value string) error {
		_, writeErr := w.Write([]byte("rendered " + value))
		return writeErr
	})
	if err != nil {
		t.Fatalf("WriteOutput failed: %v", err)
	}
	if out.String() != "rendered value" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestWriteOutputSkipsNil(t *testing.T) {
	t.Parallel()

	command, out := captureCommand()
	if err := WriteOutput[any](command, OutputJSON, nil, nil); err != nil {
		t.Fatalf("WriteOutput failed: %v", err)
	}
	if out.String() != "" {
		t.Fatalf("nil value must produce no output, got %q", out.String())
	}
}

func TestValidateOutputFormat(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"", OutputAuto, OutputText, OutputJSON, OutputYAML} {
		if err := ValidateOutputFormat(format); err != nil {
			t.Fatalf("format %q should be accepted: %v", format, err)
		}
	}
	if err := ValidateOutputFormat("xml"); !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error, got %#v", err)
	}
}

func TestDecodeValueYAMLNormalizesNumbers(t *testing.T) {
	t.Parallel()

	value, err := DecodeValue([]byte("name: support\npriority: 3\n"), OutputYAML)
	if err != nil {
		t.Fatalf("DecodeValue failed: %v", err)
	}
	object, ok := value.(map[string]any)
	if !ok {
		t.Fatalf("expected an object, got %#v", value)
	}
	if object["priority"] != json.Number("3") {
		t.Fatalf("yaml number must normalize like json, got %#v", object["priority"])
	}
}
