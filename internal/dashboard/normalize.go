// Package dashboard reconciles the remote spreadsheet with local records
// and derives the summary statistics.
package dashboard

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"form-digitizer/internal/models"
	"form-digitizer/pkg/fields"
)

// NormalizeRow maps a remote row with arbitrary headers onto
// RegistrationData. Unknown columns are ignored and missing ones stay empty.
// When two headers resolve to the same field, an exact canonical header
// beats an alias, then headers are taken in sorted order.
func NormalizeRow(row map[string]interface{}) models.RegistrationData {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out models.RegistrationData
	rank := make(map[string]int, len(fields.Names))

	for _, k := range keys {
		name, ok := fields.Canonical(k)
		if !ok {
			continue
		}
		r := 1
		if fields.NormalizeHeader(k) == name {
			r = 0
		}
		if prev, seen := rank[name]; seen && prev <= r {
			continue
		}
		rank[name] = r
		out.Set(name, cellString(row[k]))
	}
	return out
}

// NormalizeRows applies NormalizeRow to every row.
func NormalizeRows(rows []map[string]interface{}) []models.RegistrationData {
	out := make([]models.RegistrationData, len(rows))
	for i, r := range rows {
		out[i] = NormalizeRow(r)
	}
	return out
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
