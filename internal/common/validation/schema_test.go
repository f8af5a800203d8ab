package validation

import (
	"encoding/json"
	"testing"

	"form-digitizer/pkg/fields"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullDocument() map[string]string {
	doc := make(map[string]string, len(fields.Names))
	for _, n := range fields.Names {
		doc[n] = ""
	}
	return doc
}

// ==========================
// JSON Schema
// ==========================

func TestValidateRegistrationJSON_Valid(t *testing.T) {
	doc := fullDocument()
	doc[fields.Name] = "Asha"
	doc[fields.UTR] = "CHECK_MANUALLY"
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	res := ValidateRegistrationJSON(raw)
	assert.True(t, res.Valid, "%v", res.Errors)
}

func TestValidateRegistrationJSON_Failures(t *testing.T) {
	missing := fullDocument()
	delete(missing, fields.Discount)
	missingRaw, _ := json.Marshal(missing)

	wrongType := map[string]interface{}{}
	for k, v := range fullDocument() {
		wrongType[k] = v
	}
	wrongType[fields.Age] = 12
	wrongTypeRaw, _ := json.Marshal(wrongType)

	tests := []struct {
		name string
		raw  []byte
	}{
		{"missing field", missingRaw},
		{"number instead of string", wrongTypeRaw},
		{"array document", []byte(`[]`)},
		{"not json", []byte(`{"name":`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ValidateRegistrationJSON(tt.raw)
			assert.False(t, res.Valid)
			assert.NotEmpty(t, res.Errors)
		})
	}
}

func TestRegistrationSchema_RequiresEveryField(t *testing.T) {
	schema := RegistrationSchema()
	required, ok := schema["required"].([]interface{})
	require.True(t, ok)
	assert.Len(t, required, len(fields.Names))
}

// ==========================
// Struct Validation
// ==========================

type manualEntry struct {
	Name string `json:"name" validate:"required"`
	UTR  string `json:"utr" validate:"omitempty,utr"`
	Role string `json:"role" validate:"omitempty,oneof=staff super_admin"`
}

func TestStructValidator(t *testing.T) {
	v := NewStructValidator()

	tests := []struct {
		name    string
		input   manualEntry
		wantErr map[string]string
	}{
		{
			name:  "empty utr accepted",
			input: manualEntry{Name: "Asha"},
		},
		{
			name:  "twelve digit utr accepted",
			input: manualEntry{Name: "Asha", UTR: "123456789012"},
		},
		{
			name:    "seven digit utr rejected",
			input:   manualEntry{Name: "Asha", UTR: "1234567"},
			wantErr: map[string]string{"utr": "UTR must be exactly 12 digits"},
		},
		{
			name:    "utr with letters rejected",
			input:   manualEntry{Name: "Asha", UTR: "12345678901A"},
			wantErr: map[string]string{"utr": "UTR must be exactly 12 digits"},
		},
		{
			name:    "missing name",
			input:   manualEntry{},
			wantErr: map[string]string{"name": "Name is required"},
		},
		{
			name:    "unknown role",
			input:   manualEntry{Name: "Asha", Role: "owner"},
			wantErr: map[string]string{"role": "Role must be one of: staff, super_admin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.input)
			if tt.wantErr == nil {
				assert.True(t, res.Valid, "%v", res.Errors)
				return
			}
			assert.False(t, res.Valid)
			assert.Equal(t, tt.wantErr, res.FieldMessages())
		})
	}
}

func TestValidationResult_FieldMessagesKeepsFirst(t *testing.T) {
	res := &ValidationResult{Valid: true}
	res.Add("contact_no", "first", "A")
	res.Add("contact_no", "second", "B")

	assert.False(t, res.Valid)
	assert.Equal(t, map[string]string{"contact_no": "first"}, res.FieldMessages())
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("anything", ""), "no region means no check")
	assert.True(t, ValidPhone("+91 98765 43210", "IN"))
	assert.True(t, ValidPhone("9876543210", "in"))
	assert.False(t, ValidPhone("12345", "IN"))
	assert.False(t, ValidPhone("not a number", "IN"))
}
