package domain

import "strings"

// FieldType enumerates the input kinds the server field config can declare.
type FieldType string

// Field types understood by the form renderer.
const (
	FieldText   FieldType = "text"
	FieldSelect FieldType = "select"
)

// FieldSpec is one entry of the server-provided field configuration. The
// form is rendered from these specs and the payload is validated against
// them at submission time.
type FieldSpec struct {
	Name     string
	Label    string
	Type     FieldType
	Required bool
	Options  []string
}

// ValidateForm checks a form payload against the server field config.
// llm_model and plot are always required; any field the config marks
// required must have a non-blank attribute value. Returns the first
// ValidationError found, or nil.
func ValidateForm(payload FormPayload, fields []FieldSpec) error {
	if strings.TrimSpace(payload.LLMModel) == "" {
		return &ValidationError{Field: "llm_model"}
	}
	if strings.TrimSpace(payload.Plot) == "" {
		return &ValidationError{Field: "plot"}
	}
	for _, f := range fields {
		if !f.Required {
			continue
		}
		// The two built-in fields are validated above regardless of config.
		if f.Name == "llm_model" || f.Name == "plot" {
			continue
		}
		if strings.TrimSpace(payload.Attributes[f.Name]) == "" {
			return &ValidationError{Field: f.Name}
		}
	}
	return nil
}
