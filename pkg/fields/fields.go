// pkg/fields/fields.go
package fields

import (
	"regexp"
	"strings"
)

// Canonical field names of a registration form, in form order.
const (
	AdmissionID     = "admission_id"
	Name            = "name"
	Gender          = "gender"
	Age             = "age"
	Qualification   = "qualification"
	Medium          = "medium"
	ContactNo       = "contact_no"
	WhatsappNo      = "whatsapp_no"
	Address         = "address"
	InitialPayment  = "initial_payment"
	Date            = "date"
	UTR             = "utr"
	ReceivedAC      = "received_ac"
	Discount        = "discount"
	RemainingAmount = "remaining_amount"
)

// Names lists every canonical field in form order.
var Names = []string{
	AdmissionID, Name, Gender, Age, Qualification, Medium,
	ContactNo, WhatsappNo, Address, InitialPayment, Date,
	UTR, ReceivedAC, Discount, RemainingAmount,
}

// Labels are the human-readable column headers used by exports and error messages.
var Labels = map[string]string{
	AdmissionID:     "Admission ID",
	Name:            "Name",
	Gender:          "Gender",
	Age:             "Age",
	Qualification:   "Qualification",
	Medium:          "Medium",
	ContactNo:       "Contact No",
	WhatsappNo:      "WhatsApp No",
	Address:         "Address",
	InitialPayment:  "Initial Payment",
	Date:            "Date",
	UTR:             "UTR",
	ReceivedAC:      "Received A/C",
	Discount:        "Discount",
	RemainingAmount: "Remaining Amount",
}

// aliases maps normalized spreadsheet headers to canonical names. Keys are
// already passed through NormalizeHeader.
var aliases = map[string]string{
	"id":                AdmissionID,
	"admission":         AdmissionID,
	"admission_no":      AdmissionID,
	"admission_number":  AdmissionID,
	"student_name":      Name,
	"full_name":         Name,
	"sex":               Gender,
	"education":         Qualification,
	"class":             Qualification,
	"contact":           ContactNo,
	"contact_number":    ContactNo,
	"phone":             ContactNo,
	"phone_no":          ContactNo,
	"phone_number":      ContactNo,
	"mobile":            ContactNo,
	"mobile_no":         ContactNo,
	"whatsapp":          WhatsappNo,
	"whatsapp_number":   WhatsappNo,
	"payment":           InitialPayment,
	"amount":            InitialPayment,
	"amount_paid":       InitialPayment,
	"paid":              InitialPayment,
	"fees_paid":         InitialPayment,
	"registration_date": Date,
	"utr_no":            UTR,
	"utr_number":        UTR,
	"transaction_id":    UTR,
	"received_account":  ReceivedAC,
	"received_a_c":      ReceivedAC,
	"account":           ReceivedAC,
	"remaining":         RemainingAmount,
	"balance":           RemainingAmount,
	"balance_amount":    RemainingAmount,
	"due":               RemainingAmount,
}

var (
	canonicalSet = func() map[string]bool {
		m := make(map[string]bool, len(Names))
		for _, n := range Names {
			m[n] = true
		}
		return m
	}()

	separators = regexp.MustCompile(`[\s\-_./]+`)
)

// NormalizeHeader case-folds a header and collapses whitespace and common
// separators into single underscores: " Contact  No." -> "contact_no".
func NormalizeHeader(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = separators.ReplaceAllString(h, "_")
	return strings.Trim(h, "_")
}

// Canonical resolves a raw spreadsheet header to a canonical field name.
func Canonical(header string) (string, bool) {
	h := NormalizeHeader(header)
	if canonicalSet[h] {
		return h, true
	}
	if name, ok := aliases[h]; ok {
		return name, true
	}
	return "", false
}

// IsCanonical reports whether name is one of Names.
func IsCanonical(name string) bool {
	return canonicalSet[name]
}
