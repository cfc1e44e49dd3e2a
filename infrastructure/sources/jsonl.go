package sources

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
)

var _ ports.CaseSource = (*JSONLSource)(nil)

// maxLineBytes bounds a single JSONL record (16MB).
const maxLineBytes = 16 * 1024 * 1024

// JSONLSource reads cases from a UTF-8 file with one JSON object per line.
// Each line must contain "input" and "expected" keys (any JSON value) and
// may contain an "id" string. Blank lines are skipped. Loading is
// fail-fast: a malformed line aborts the whole load with its 1-based line
// number, producing no partial result.
type JSONLSource struct {
	path string
}

// NewJSONLSource creates a JSONLSource for the given file path.
// The file is not opened until Load.
func NewJSONLSource(path string) *JSONLSource {
	return &JSONLSource{path: path}
}

// jsonlRecord is the line-level wire format.
type jsonlRecord struct {
	ID       string          `json:"id"`
	Input    json.RawMessage `json:"input"`
	Expected json.RawMessage `json:"expected"`
}

// Load parses every line of the file into a Case, in file order.
func (s *JSONLSource) Load(ctx context.Context) ([]domain.Case, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var cases []domain.Case
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		c, err := parseLine(line)
		if err != nil {
			return nil, domain.NewLineError(lineNo, err)
		}
		cases = append(cases, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return cases, nil
}

// parseLine decodes one JSONL record into a Case, requiring the input and
// expected keys to be present.
func parseLine(line string) (domain.Case, error) {
	var rec jsonlRecord
	dec := json.NewDecoder(strings.NewReader(line))
	if err := dec.Decode(&rec); err != nil {
		return domain.Case{}, fmt.Errorf("invalid JSON: %w", err)
	}

	if rec.Input == nil {
		return domain.Case{}, fmt.Errorf("missing %q key", "input")
	}
	if rec.Expected == nil {
		return domain.Case{}, fmt.Errorf("missing %q key", "expected")
	}

	var input, expected any
	if err := json.Unmarshal(rec.Input, &input); err != nil {
		return domain.Case{}, fmt.Errorf("invalid %q value: %w", "input", err)
	}
	if err := json.Unmarshal(rec.Expected, &expected); err != nil {
		return domain.Case{}, fmt.Errorf("invalid %q value: %w", "expected", err)
	}

	return domain.Case{ID: rec.ID, Input: input, Expected: expected}, nil
}
