package report

import (
	"encoding/json"
	"fmt"

	"github.com/crucible-dev/crucible/internal/domain"
)

// JSON serializes the full EvalResult as an indented JSON document,
// preserving the field names of the data model for consumption by a
// report renderer or a persistence layer.
func JSON(result domain.EvalResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding eval result: %w", err)
	}
	return data, nil
}
