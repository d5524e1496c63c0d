// Package extraction pulls structured invoice fields out of a PDF with a
// multimodal model and draws the located boxes back onto the pages.
package extraction

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"docqa/internal/domain"
)

// BoxField locates a value on a page. BoundingBox is
// [y_min, x_min, y_max, x_max] normalized to 0-1000 from the top-left corner.
// Page is 1-based.
type BoxField struct {
	BoundingBox []int `json:"bounding_box"`
	Page        int   `json:"page"`
}

// TotalField is the invoice total. TotalValue is nil when not found.
type TotalField struct {
	BoxField
	TotalValue *float64 `json:"total_value"`
}

// RecipientField is the invoice recipient. RecipientName is nil when not found.
type RecipientField struct {
	BoxField
	RecipientName *string `json:"recipient_name"`
}

// Invoice is the extraction result.
type Invoice struct {
	Total     TotalField     `json:"total"`
	Recipient RecipientField `json:"recipient"`
}

func boxProperties(valueName string, valueTypes ...string) *jsonschema.Schema {
	four := 4
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"bounding_box": {
				Type:        "array",
				Description: "The bounding box where the information was found [y_min, x_min, y_max, x_max], each 0-1000.",
				Items:       &jsonschema.Schema{Type: "integer"},
				MinItems:    &four,
				MaxItems:    &four,
			},
			"page": {
				Type:        "integer",
				Description: "The page number where the information was found, starting at 1.",
			},
			valueName: {Types: valueTypes},
		},
		Required:             []string{"bounding_box", "page", valueName},
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
}

// Schema returns the JSON schema the model response must satisfy.
// Every property is required and the field values are nullable.
func Schema() *jsonschema.Schema {
	total := boxProperties("total_value", "number", "null")
	total.Properties["total_value"].Description = "The total amount of the invoice."
	recipient := boxProperties("recipient_name", "string", "null")
	recipient.Properties["recipient_name"].Description = "The name of the recipient."
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"total":     total,
			"recipient": recipient,
		},
		Required:             []string{"total", "recipient"},
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
}

// Decode validates data against Schema and unmarshals it into an Invoice.
func Decode(data []byte) (*Invoice, error) {
	resolved, err := Schema().Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("resolving schema: %w", err)
	}
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidExtraction, err)
	}
	if err := resolved.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidExtraction, err)
	}
	var inv Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidExtraction, err)
	}
	return &inv, nil
}
