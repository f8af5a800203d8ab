// internal/models/registration.go
package models

import (
	"form-digitizer/pkg/fields"
)

// CheckManually marks a field the extractor saw but could not read.
const CheckManually = "CHECK_MANUALLY"

// RegistrationData is one registrant's form. Every field is free text and
// defaults to the empty string.
type RegistrationData struct {
	AdmissionID     string `json:"admission_id"`
	Name            string `json:"name" validate:"required"`
	Gender          string `json:"gender"`
	Age             string `json:"age"`
	Qualification   string `json:"qualification"`
	Medium          string `json:"medium"`
	ContactNo       string `json:"contact_no"`
	WhatsappNo      string `json:"whatsapp_no"`
	Address         string `json:"address"`
	InitialPayment  string `json:"initial_payment"`
	Date            string `json:"date"`
	UTR             string `json:"utr" validate:"omitempty,utr"`
	ReceivedAC      string `json:"received_ac"`
	Discount        string `json:"discount"`
	RemainingAmount string `json:"remaining_amount"`
}

var accessors = map[string]func(*RegistrationData) *string{
	fields.AdmissionID:     func(d *RegistrationData) *string { return &d.AdmissionID },
	fields.Name:            func(d *RegistrationData) *string { return &d.Name },
	fields.Gender:          func(d *RegistrationData) *string { return &d.Gender },
	fields.Age:             func(d *RegistrationData) *string { return &d.Age },
	fields.Qualification:   func(d *RegistrationData) *string { return &d.Qualification },
	fields.Medium:          func(d *RegistrationData) *string { return &d.Medium },
	fields.ContactNo:       func(d *RegistrationData) *string { return &d.ContactNo },
	fields.WhatsappNo:      func(d *RegistrationData) *string { return &d.WhatsappNo },
	fields.Address:         func(d *RegistrationData) *string { return &d.Address },
	fields.InitialPayment:  func(d *RegistrationData) *string { return &d.InitialPayment },
	fields.Date:            func(d *RegistrationData) *string { return &d.Date },
	fields.UTR:             func(d *RegistrationData) *string { return &d.UTR },
	fields.ReceivedAC:      func(d *RegistrationData) *string { return &d.ReceivedAC },
	fields.Discount:        func(d *RegistrationData) *string { return &d.Discount },
	fields.RemainingAmount: func(d *RegistrationData) *string { return &d.RemainingAmount },
}

// Get returns the value of a canonical field, or "" for unknown names.
func (d RegistrationData) Get(name string) string {
	if acc, ok := accessors[name]; ok {
		return *acc(&d)
	}
	return ""
}

// Set assigns a canonical field. Unknown names are ignored and reported false.
func (d *RegistrationData) Set(name, value string) bool {
	acc, ok := accessors[name]
	if !ok {
		return false
	}
	*acc(d) = value
	return true
}

// Values returns field values in fields.Names order.
func (d RegistrationData) Values() []string {
	out := make([]string, len(fields.Names))
	for i, n := range fields.Names {
		out[i] = d.Get(n)
	}
	return out
}

// ToMap returns every canonical field keyed by name.
func (d RegistrationData) ToMap() map[string]string {
	out := make(map[string]string, len(fields.Names))
	for _, n := range fields.Names {
		out[n] = d.Get(n)
	}
	return out
}

// FromMap builds RegistrationData from canonical keys; missing keys stay empty.
func FromMap(m map[string]string) RegistrationData {
	var d RegistrationData
	for k, v := range m {
		d.Set(k, v)
	}
	return d
}

// CheckManuallyFields lists the fields holding the CHECK_MANUALLY sentinel.
func (d RegistrationData) CheckManuallyFields() []string {
	var flagged []string
	for _, n := range fields.Names {
		if d.Get(n) == CheckManually {
			flagged = append(flagged, n)
		}
	}
	return flagged
}

// HasCheckManually reports whether any field needs human review.
func (d RegistrationData) HasCheckManually() bool {
	return len(d.CheckManuallyFields()) > 0
}
