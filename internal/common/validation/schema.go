package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"form-digitizer/pkg/fields"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// FieldMessages returns the first message per field.
func (r *ValidationResult) FieldMessages() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}

// Add records a failure and marks the result invalid.
func (r *ValidationResult) Add(field, message, code string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message, Code: code})
}

// ==========================
// JSON Schema
// ==========================

// RegistrationSchema is the output schema the extraction service must honor:
// an object with every canonical field present as a string.
func RegistrationSchema() map[string]interface{} {
	props := make(map[string]interface{}, len(fields.Names))
	required := make([]interface{}, len(fields.Names))
	for i, n := range fields.Names {
		props[n] = map[string]interface{}{"type": "string"}
		required[i] = n
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

var registrationSchema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(RegistrationSchema()))
	if err != nil {
		panic(fmt.Sprintf("registration schema: %v", err))
	}
	return s
}()

// ValidateRegistrationJSON checks a raw JSON document against RegistrationSchema.
func ValidateRegistrationJSON(raw []byte) *ValidationResult {
	result := &ValidationResult{Valid: true}

	res, err := registrationSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		result.Add("(root)", fmt.Sprintf("document is not valid JSON: %v", err), "INVALID_JSON")
		return result
	}
	for _, desc := range res.Errors() {
		field := desc.Field()
		if p, ok := desc.Details()["property"].(string); ok && field == "(root)" {
			field = p
		}
		result.Add(field, desc.Description(), strings.ToUpper(desc.Type()))
	}
	return result
}

// ==========================
// Struct Validation
// ==========================

var utrPattern = regexp.MustCompile(`^\d{12}$`)

// StructValidator validates tagged structs and turns failures into
// field-specific messages keyed by JSON name.
type StructValidator struct {
	v *validator.Validate
}

func NewStructValidator() *StructValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("utr", func(fl validator.FieldLevel) bool {
		return utrPattern.MatchString(fl.Field().String())
	})
	return &StructValidator{v: v}
}

// Validate runs the tags of s.
func (s *StructValidator) Validate(obj interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}
	err := s.v.Struct(obj)
	if err == nil {
		return result
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		result.Add("(root)", err.Error(), "INVALID_INPUT")
		return result
	}
	for _, fe := range verrs {
		result.Add(fe.Field(), messageFor(fe), strings.ToUpper(fe.Tag()))
	}
	return result
}

func label(field string) string {
	if l, ok := fields.Labels[field]; ok {
		return l
	}
	if field == "" {
		return "Value"
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return label(fe.Field()) + " is required"
	case "utr":
		return "UTR must be exactly 12 digits"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label(fe.Field()), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", label(fe.Field()))
	}
}
