package template

import (
	"errors"
	"testing"

	"github.com/salonstack/crm/pkg/apperr"
)

func intPtr(n int) *int          { return &n }
func floatPtr(f float64) *float64 { return &f }

func TestValidateFields_Valid(t *testing.T) {
	fields := []FieldSchema{
		{Key: "skin_type", Name: "Skin Type", Type: FieldSelect, Options: []string{"dry", "oily", "mixed"}},
		{Key: "age", Name: "Age", Type: FieldNumber},
		{Key: "notes", Name: "Notes", Type: FieldTextarea},
	}
	if err := ValidateFields(fields); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateFields_EmptyKey(t *testing.T) {
	fields := []FieldSchema{{Key: "  ", Name: "Broken", Type: FieldText}}
	err := ValidateFields(fields)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateFields_DuplicateKey(t *testing.T) {
	fields := []FieldSchema{
		{Key: "name", Name: "Name", Type: FieldText},
		{Key: "name", Name: "Name Again", Type: FieldText},
	}
	err := ValidateFields(fields)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidateFields_ChoiceWithoutOptions(t *testing.T) {
	for _, ft := range []FieldType{FieldSelect, FieldRadio, FieldCheckbox} {
		fields := []FieldSchema{{Key: "choice", Name: "Choice", Type: ft}}
		if err := ValidateFields(fields); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("type %s: expected validation error, got %v", ft, err)
		}
	}
}

func TestFieldType_UnknownDegradesToText(t *testing.T) {
	if got := FieldType("signature-pad").Normalize(); got != FieldText {
		t.Errorf("expected text, got %s", got)
	}
	if got := FieldDate.Normalize(); got != FieldDate {
		t.Errorf("expected date unchanged, got %s", got)
	}
}

func TestValidateFields_UnknownTypeAccepted(t *testing.T) {
	fields := []FieldSchema{{Key: "sig", Name: "Signature", Type: "signature-pad"}}
	if err := ValidateFields(fields); err != nil {
		t.Fatalf("unknown type must not reject the template: %v", err)
	}
}

func TestValidatePayload_RequiredMissing(t *testing.T) {
	fields := []FieldSchema{{Key: "name", Name: "Name", Type: FieldText, Required: true}}

	for _, payload := range []map[string]any{
		{},
		{"name": ""},
		{"name": "   "},
		{"name": nil},
	} {
		err := ValidatePayload(fields, payload)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("payload %v: expected validation error, got %v", payload, err)
		}
	}
}

func TestValidatePayload_OptionalMissing(t *testing.T) {
	fields := []FieldSchema{{Key: "notes", Name: "Notes", Type: FieldTextarea}}
	if err := ValidatePayload(fields, map[string]any{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidatePayload_MaxLength(t *testing.T) {
	fields := []FieldSchema{{
		Key: "name", Name: "Name", Type: FieldText,
		Validation: &Validation{MaxLength: intPtr(5)},
	}}

	if err := ValidatePayload(fields, map[string]any{"name": "short"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePayload(fields, map[string]any{"name": "much too long"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestValidatePayload_NumberRange(t *testing.T) {
	fields := []FieldSchema{{
		Key: "age", Name: "Age", Type: FieldNumber,
		Validation: &Validation{Min: floatPtr(18), Max: floatPtr(100)},
	}}

	if err := ValidatePayload(fields, map[string]any{"age": 42.0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePayload(fields, map[string]any{"age": 5.0}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected error below min, got %v", err)
	}
	if err := ValidatePayload(fields, map[string]any{"age": 200.0}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected error above max, got %v", err)
	}
	if err := ValidatePayload(fields, map[string]any{"age": "forty"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected error for non-numeric value, got %v", err)
	}
}

func TestValidatePayload_NumberStep(t *testing.T) {
	fields := []FieldSchema{{
		Key: "dose", Name: "Dose", Type: FieldNumber,
		Validation: &Validation{Min: floatPtr(0), Step: floatPtr(0.5)},
	}}

	if err := ValidatePayload(fields, map[string]any{"dose": 2.5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePayload(fields, map[string]any{"dose": 2.3}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected step violation, got %v", err)
	}
}

func TestValidatePayload_Date(t *testing.T) {
	fields := []FieldSchema{{Key: "birthday", Name: "Birthday", Type: FieldDate}}

	if err := ValidatePayload(fields, map[string]any{"birthday": "1990-06-15"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePayload(fields, map[string]any{"birthday": "15/06/1990"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected invalid date error, got %v", err)
	}
}

func TestValidatePayload_SelectMembership(t *testing.T) {
	fields := []FieldSchema{{
		Key: "skin", Name: "Skin", Type: FieldSelect,
		Options: []string{"dry", "oily"},
	}}

	if err := ValidatePayload(fields, map[string]any{"skin": "dry"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePayload(fields, map[string]any{"skin": "scaly"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected option membership error, got %v", err)
	}
}

func TestValidatePayload_CheckboxMaxSelect(t *testing.T) {
	fields := []FieldSchema{{
		Key: "concerns", Name: "Concerns", Type: FieldCheckbox,
		Options:    []string{"acne", "wrinkles", "pigment", "redness"},
		Validation: &Validation{MaxSelect: intPtr(2)},
	}}

	if err := ValidatePayload(fields, map[string]any{"concerns": []any{"acne", "redness"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := ValidatePayload(fields, map[string]any{"concerns": []any{"acne", "redness", "pigment"}})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected maxSelect violation, got %v", err)
	}
	err = ValidatePayload(fields, map[string]any{"concerns": []any{"acne", "freckles"}})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected membership violation, got %v", err)
	}
}

func TestValidatePayload_Email(t *testing.T) {
	fields := []FieldSchema{{Key: "email", Name: "Email", Type: FieldEmail}}

	if err := ValidatePayload(fields, map[string]any{"email": "a@b.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePayload(fields, map[string]any{"email": "not-an-email"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected email error, got %v", err)
	}
}

func TestValidatePayload_UndeclaredKeysPassThrough(t *testing.T) {
	fields := []FieldSchema{{Key: "name", Name: "Name", Type: FieldText}}
	payload := map[string]any{"name": "ok", "legacy_field": 12345}
	if err := ValidatePayload(fields, payload); err != nil {
		t.Fatalf("undeclared keys must not fail validation: %v", err)
	}
}

func TestValidatePayload_CollectsAllViolations(t *testing.T) {
	fields := []FieldSchema{
		{Key: "name", Name: "Name", Type: FieldText, Required: true},
		{Key: "age", Name: "Age", Type: FieldNumber, Validation: &Validation{Min: floatPtr(0)}},
	}
	err := ValidatePayload(fields, map[string]any{"age": -1.0})

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected apperr.Error, got %T", err)
	}
	if len(appErr.Details) != 2 {
		t.Errorf("expected 2 violations, got %d: %v", len(appErr.Details), appErr.Details)
	}
}
