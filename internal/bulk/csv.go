// Package bulk turns tabular CSV input into queue create payloads for the
// batch endpoint.
package bulk

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/queueops/queuectl/faults"
	"github.com/queueops/queuectl/queue"
)

// ParseCSV reads rows with a mandatory header line. Each subsequent row
// becomes one payload: the header names the keys, dotted headers nest
// (`settings.timeout` -> {"settings":{"timeout":...}}), empty cells are
// skipped, and cells that parse as JSON keep their parsed type.
func ParseCSV(r io.Reader) ([]queue.Value, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, faults.NewTypedError(faults.ValidationError, "CSV input is empty, expected a header row", nil)
	}
	if err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "failed to read CSV header", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, faults.NewTypedError(faults.ValidationError, fmt.Sprintf("CSV header column %d is empty", i+1), nil)
		}
		columns[i] = trimmed
	}

	payloads := make([]queue.Value, 0)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, faults.NewTypedError(faults.ValidationError, fmt.Sprintf("failed to read CSV line %d", line), err)
		}
		if len(row) != len(columns) {
			return nil, faults.NewTypedError(
				faults.ValidationError,
				fmt.Sprintf("CSV line %d has %d cells, expected %d", line, len(row), len(columns)),
				nil,
			)
		}

		payload := make(map[string]any)
		for i, cell := range row {
			trimmed := strings.TrimSpace(cell)
			if trimmed == "" {
				continue
			}
			if err := assignDotted(payload, columns[i], parseCell(trimmed)); err != nil {
				return nil, faults.NewTypedError(
					faults.ValidationError,
					fmt.Sprintf("CSV line %d column %q: %s", line, columns[i], err),
					nil,
				)
			}
		}
		if len(payload) == 0 {
			continue
		}

		normalized, err := queue.Normalize(payload)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, normalized)
	}

	if len(payloads) == 0 {
		return nil, faults.NewTypedError(faults.ValidationError, "CSV input contains no data rows", nil)
	}
	return payloads, nil
}

// parseCell keeps typed cells typed: valid JSON scalars, arrays, and
// objects come through parsed, everything else stays a plain string.
func parseCell(cell string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(cell)))
	dec.UseNumber()
	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return cell
	}
	if dec.More() {
		return cell
	}
	return parsed
}

func assignDotted(target map[string]any, column string, value any) error {
	segments := strings.Split(column, ".")
	current := target
	for i, segment := range segments {
		if segment == "" {
			return fmt.Errorf("empty path segment")
		}
		if i == len(segments)-1 {
			current[segment] = value
			return nil
		}
		next, found := current[segment]
		if !found {
			child := make(map[string]any)
			current[segment] = child
			current = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("conflicts with scalar column %q", strings.Join(segments[:i+1], "."))
		}
		current = child
	}
	return nil
}
