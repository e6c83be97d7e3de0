// Package output renders a model.ClassificationResult for the command
// line, either as the stable JSON wire format or as a styled table.
package output

import (
	"encoding/json"
	"fmt"

	"github.com/everlof/sonda/internal/model"
)

// JSON marshals a classification result to its stable wire shape.
// Decimals serialize as canonical base-10 strings via shopspring/decimal's
// default MarshalJSON, never through a float conversion.
func JSON(result model.ClassificationResult) ([]byte, error) {
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("output: marshal classification result: %w", err)
	}
	return b, nil
}
