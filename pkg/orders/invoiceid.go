package orders

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// InvoiceIDKeys lists the record keys that may carry the invoice id, in
// precedence order. Listing rows and detail records are read the same way.
var InvoiceIDKeys = []string{"InvoiceId", "invoice_id"}

// InvoiceID resolves the invoice id of a raw record. The first key holding a
// non-blank value decides; when that value is not a scalar (a repeated or
// nested element) the id is unresolved.
func InvoiceID(raw map[string]any) (string, bool) {
	for _, key := range InvoiceIDKeys {
		v := raw[key]
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		s, ok := ScalarText(v)
		return s, ok && s != ""
	}
	return "", false
}

// ScalarText renders a string or number as text. Numbers never use exponent
// notation. Any other value reports false.
func ScalarText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		if f, err := t.Float64(); err == nil && !math.IsInf(f, 0) && strings.ContainsAny(t.String(), "eE") {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return t.String(), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	}
	return "", false
}
