package template

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/salonstack/crm/pkg/apperr"
)

// FieldType enumerates the supported input types. Unknown types degrade to
// text so a template authored against a newer client never gets rejected.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldDate     FieldType = "date"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldCheckbox FieldType = "checkbox"
	FieldEmail    FieldType = "email"
	FieldTel      FieldType = "tel"
)

var knownFieldTypes = map[FieldType]bool{
	FieldText:     true,
	FieldTextarea: true,
	FieldNumber:   true,
	FieldDate:     true,
	FieldSelect:   true,
	FieldRadio:    true,
	FieldCheckbox: true,
	FieldEmail:    true,
	FieldTel:      true,
}

// Normalize maps unknown field types to plain text.
func (t FieldType) Normalize() FieldType {
	if knownFieldTypes[t] {
		return t
	}
	return FieldText
}

func (t FieldType) needsOptions() bool {
	return t == FieldSelect || t == FieldRadio || t == FieldCheckbox
}

// Validation carries the declarative constraints of one field. Absent
// pointers mean unconstrained.
type Validation struct {
	MaxLength *int     `json:"maxLength,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Step      *float64 `json:"step,omitempty"`
	MaxSelect *int     `json:"maxSelect,omitempty"`
}

// FieldSchema describes one input of a template. The JSON tags match the
// stored field layout so templates survive round trips unchanged.
type FieldSchema struct {
	Key          string      `json:"field_key"`
	Name         string      `json:"field_name"`
	Type         FieldType   `json:"field_type"`
	Required     bool        `json:"required"`
	Options      []string    `json:"options,omitempty"`
	DefaultValue any         `json:"default_value,omitempty"`
	Placeholder  string      `json:"placeholder,omitempty"`
	Group        string      `json:"group,omitempty"`
	DisplayOrder int         `json:"display_order"`
	Validation   *Validation `json:"validation,omitempty"`
}

// ValidateFields checks a template's field definitions. Every field needs a
// non-empty key unique within the template, and choice fields must declare
// at least one option.
func ValidateFields(fields []FieldSchema) error {
	seen := make(map[string]bool, len(fields))
	for i, f := range fields {
		if strings.TrimSpace(f.Key) == "" {
			return apperr.Validation("field %d: field_key is required", i)
		}
		if seen[f.Key] {
			return apperr.Validation("duplicate field_key: %s", f.Key)
		}
		seen[f.Key] = true

		if f.Type.Normalize().needsOptions() && len(f.Options) == 0 {
			return apperr.Validation("field %s: options are required for type %s", f.Key, f.Type)
		}
	}
	return nil
}

// ValidatePayload enforces the declared field constraints against a record
// payload before it is written. Every violation is collected so the caller
// sees the full list at once. Payload keys that no field declares pass
// through untouched.
func ValidatePayload(fields []FieldSchema, payload map[string]any) error {
	var violations []string

	for _, f := range fields {
		value, present := payload[f.Key]

		if f.Required && isEmptyValue(value) {
			violations = append(violations, fmt.Sprintf("%s: value is required", f.Key))
			continue
		}
		if !present || isEmptyValue(value) {
			continue
		}

		switch f.Type.Normalize() {
		case FieldText, FieldTextarea, FieldTel:
			violations = append(violations, checkText(f, value)...)
		case FieldEmail:
			violations = append(violations, checkEmail(f, value)...)
		case FieldNumber:
			violations = append(violations, checkNumber(f, value)...)
		case FieldDate:
			violations = append(violations, checkDate(f, value)...)
		case FieldSelect, FieldRadio:
			violations = append(violations, checkChoice(f, value)...)
		case FieldCheckbox:
			violations = append(violations, checkMultiChoice(f, value)...)
		}
	}

	if len(violations) > 0 {
		return apperr.ValidationDetails("payload validation failed", violations)
	}
	return nil
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	default:
		return false
	}
}

func checkText(f FieldSchema, value any) []string {
	s, ok := value.(string)
	if !ok {
		return []string{fmt.Sprintf("%s: expected a string value", f.Key)}
	}
	if f.Validation != nil && f.Validation.MaxLength != nil && len([]rune(s)) > *f.Validation.MaxLength {
		return []string{fmt.Sprintf("%s: exceeds maximum length of %d", f.Key, *f.Validation.MaxLength)}
	}
	return nil
}

func checkEmail(f FieldSchema, value any) []string {
	s, ok := value.(string)
	if !ok {
		return []string{fmt.Sprintf("%s: expected a string value", f.Key)}
	}
	if !strings.Contains(s, "@") {
		return []string{fmt.Sprintf("%s: invalid email address", f.Key)}
	}
	if f.Validation != nil && f.Validation.MaxLength != nil && len([]rune(s)) > *f.Validation.MaxLength {
		return []string{fmt.Sprintf("%s: exceeds maximum length of %d", f.Key, *f.Validation.MaxLength)}
	}
	return nil
}

func checkNumber(f FieldSchema, value any) []string {
	n, ok := toFloat(value)
	if !ok {
		return []string{fmt.Sprintf("%s: expected a numeric value", f.Key)}
	}
	if f.Validation == nil {
		return nil
	}
	var out []string
	if f.Validation.Min != nil && n < *f.Validation.Min {
		out = append(out, fmt.Sprintf("%s: below minimum of %v", f.Key, *f.Validation.Min))
	}
	if f.Validation.Max != nil && n > *f.Validation.Max {
		out = append(out, fmt.Sprintf("%s: above maximum of %v", f.Key, *f.Validation.Max))
	}
	if f.Validation.Step != nil && *f.Validation.Step > 0 {
		base := 0.0
		if f.Validation.Min != nil {
			base = *f.Validation.Min
		}
		steps := (n - base) / *f.Validation.Step
		if diff := steps - float64(int64(steps+0.5)); diff > 1e-9 || diff < -1e-9 {
			out = append(out, fmt.Sprintf("%s: not a multiple of step %v", f.Key, *f.Validation.Step))
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func checkDate(f FieldSchema, value any) []string {
	s, ok := value.(string)
	if !ok {
		return []string{fmt.Sprintf("%s: expected a date string", f.Key)}
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return []string{fmt.Sprintf("%s: invalid date, expected YYYY-MM-DD", f.Key)}
	}
	return nil
}

func checkChoice(f FieldSchema, value any) []string {
	s, ok := value.(string)
	if !ok {
		return []string{fmt.Sprintf("%s: expected a string value", f.Key)}
	}
	if !containsOption(f.Options, s) {
		return []string{fmt.Sprintf("%s: %q is not an allowed option", f.Key, s)}
	}
	return nil
}

func checkMultiChoice(f FieldSchema, value any) []string {
	selected, ok := toStringSlice(value)
	if !ok {
		return []string{fmt.Sprintf("%s: expected a list of selections", f.Key)}
	}
	var out []string
	if f.Validation != nil && f.Validation.MaxSelect != nil && len(selected) > *f.Validation.MaxSelect {
		out = append(out, fmt.Sprintf("%s: at most %d selections allowed", f.Key, *f.Validation.MaxSelect))
	}
	for _, s := range selected {
		if !containsOption(f.Options, s) {
			out = append(out, fmt.Sprintf("%s: %q is not an allowed option", f.Key, s))
		}
	}
	return out
}

func toStringSlice(v any) ([]string, bool) {
	switch vals := v.(type) {
	case []string:
		return vals, true
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func containsOption(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
