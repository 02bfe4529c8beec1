package syncer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tournevent/invoicebridge/pkg/orders"
)

const (
	DefaultCustomerName    = "Cliente"
	DefaultItemDescription = "Mercadería"
)

// source is one place a field may live in a raw invoice, as a key path.
type source []string

// field lists the sources of one canonical field in precedence order.
type field []source

// Every canonical field is resolved through this table; the first source
// holding a non-empty value wins. The invoice id uses orders.InvoiceIDKeys
// so listing rows and detail records agree on it.
var (
	fieldInvoiceID         = idField(orders.InvoiceIDKeys)
	fieldStatus            = field{{"Status"}, {"status"}}
	fieldLogistics         = field{{"Logistics"}, {"logistics"}}
	fieldCarrierShipmentID = field{{"ZipnovaShipmentId"}, {"zipnova_shipment_id"}}
	fieldCustomerName      = field{{"CustomerName"}, {"customer_name"}}
	fieldStreet            = field{{"Delivery", "Street"}, {"street"}}
	fieldStreetNumber      = field{{"Delivery", "Number"}, {"street_number"}}
	fieldStreetExtras      = field{{"Delivery", "Extra"}, {"street_extras"}}
	fieldTotal             = field{{"Totals", "TotalWithoutTaxes"}, {"total_without_taxes"}}
	fieldItemDescription   = field{{"ItemDescription"}, {"item_description"}}
	fieldItemsQuantity     = field{{"ItemsQty"}, {"items_qty"}}
	fieldSKU               = field{{"SKU"}, {"sku"}}
)

// Normalize maps a raw invoice record onto CanonicalInvoice. It never
// consults remote systems and only fails when the invoice id is missing or
// is not a plain string or number.
func Normalize(raw orders.RawInvoice) (CanonicalInvoice, error) {
	id, ok := orders.InvoiceID(raw)
	if !ok {
		return CanonicalInvoice{}, fmt.Errorf("%w: no usable invoice id in %s", ErrNormalization, fieldInvoiceID)
	}

	qty := 1
	if v, ok := fieldItemsQuantity.lookup(raw); ok {
		if n := toInt(v); n >= 1 {
			qty = n
		}
	}

	total := decimal.Zero
	if v, ok := fieldTotal.lookup(raw); ok {
		total = toDecimal(v)
	}

	return CanonicalInvoice{
		InvoiceID:         id,
		Status:            fieldStatus.text(raw, ""),
		LogisticsMethod:   fieldLogistics.text(raw, ""),
		CarrierShipmentID: fieldCarrierShipmentID.text(raw, ""),
		CustomerName:      fieldCustomerName.text(raw, DefaultCustomerName),
		Street:            fieldStreet.text(raw, ""),
		StreetNumber:      fieldStreetNumber.text(raw, ""),
		StreetExtras:      fieldStreetExtras.text(raw, ""),
		TotalWithoutTaxes: total,
		ItemDescription:   fieldItemDescription.text(raw, DefaultItemDescription),
		ItemsQuantity:     qty,
		SKU:               fieldSKU.text(raw, ""),
	}, nil
}

func (s source) lookup(raw orders.RawInvoice) (any, bool) {
	var cur any = map[string]any(raw)
	for _, key := range s {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, !isBlank(cur)
}

func (f field) lookup(raw orders.RawInvoice) (any, bool) {
	for _, s := range f {
		if v, ok := s.lookup(raw); ok {
			return v, true
		}
	}
	return nil, false
}

func (f field) text(raw orders.RawInvoice, def string) string {
	v, ok := f.lookup(raw)
	if !ok {
		return def
	}
	s, ok := toText(v)
	if !ok {
		return def
	}
	return s
}

func idField(keys []string) field {
	f := make(field, len(keys))
	for i, key := range keys {
		f[i] = source{key}
	}
	return f
}

func (f field) String() string {
	paths := make([]string, len(f))
	for i, s := range f {
		paths[i] = strings.Join(s, ".")
	}
	return "[" + strings.Join(paths, " ") + "]"
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case orders.RawInvoice:
		return m, true
	}
	return nil, false
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// toText renders scalars. Repeated or nested elements have no text form and
// leave the field at its default.
func toText(v any) (string, bool) {
	if b, ok := v.(bool); ok {
		return strconv.FormatBool(b), true
	}
	return orders.ScalarText(v)
}

// toDecimal reads a monetary amount. Strings may use a comma as decimal
// separator; anything unparseable counts as zero.
func toDecimal(v any) decimal.Decimal {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	case json.Number, string:
		s, _ := toText(t)
		if strings.Contains(s, ",") && !strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", ".")
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}

func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	}
	return int(toDecimal(v).IntPart())
}
