// Package queues holds the queue-facing commands of the console.
package queues

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/queueops/queuectl/internal/cli/common"
	"github.com/queueops/queuectl/queue"
)

func requireIDArg(args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", common.ValidationError("a queue id argument is required", nil)
	}
	return strings.TrimSpace(args[0]), nil
}

func renderQueueLine(w io.Writer, value queue.Value) error {
	id, err := queue.ResolveID(value)
	if err != nil {
		id = "-"
	}
	name := "-"
	if object, ok := value.(map[string]any); ok {
		if text, ok := object["name"].(string); ok && strings.TrimSpace(text) != "" {
			name = text
		}
	}
	_, writeErr := fmt.Fprintf(w, "%s\t%s\n", id, name)
	return writeErr
}

func renderDiffLines(w io.Writer, lines []queue.Line) error {
	_, err := fmt.Fprintln(w, queue.FormatLines(lines))
	return err
}

var jqCodeCache sync.Map

// applyJQ evaluates a jq expression against the payload. Compiled
// programs are cached per expression.
func applyJQ(payload any, expression string) (any, error) {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return payload, nil
	}

	code, err := cachedJQCode(trimmed)
	if err != nil {
		return nil, common.ValidationError("invalid jq expression", err)
	}

	iterator := code.Run(jqInput(payload))
	results := make([]any, 0, 1)
	for {
		value, ok := iterator.Next()
		if !ok {
			break
		}
		if valueErr, isErr := value.(error); isErr {
			return nil, common.ValidationError("failed to evaluate jq expression", valueErr)
		}
		results = append(results, value)
	}

	if len(results) == 0 {
		return []any{}, nil
	}
	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

// jqInput rewrites json.Number into the numeric types gojq accepts.
func jqInput(value any) any {
	switch t := value.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, v := range t {
			m[k] = jqInput(v)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i := range t {
			s[i] = jqInput(t[i])
		}
		return s
	default:
		return t
	}
}

func cachedJQCode(expression string) (*gojq.Code, error) {
	if cached, ok := jqCodeCache.Load(expression); ok {
		if typed, ok := cached.(*gojq.Code); ok && typed != nil {
			return typed, nil
		}
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, err
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, err
	}

	actual, _ := jqCodeCache.LoadOrStore(expression, code)
	if typed, ok := actual.(*gojq.Code); ok && typed != nil {
		return typed, nil
	}
	return code, nil
}

func prompter(deps common.CommandDependencies, command *cobra.Command) common.Prompter {
	if deps.Prompter != nil {
		return deps.Prompter
	}
	return common.NewHuhPrompter(command)
}
