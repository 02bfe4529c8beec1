package syncer

import "strings"

// StatusInvoiced is the order-system status of a finalized invoice.
const StatusInvoiced = "FACTURADO"

// Reasons a candidate is skipped, in the order they are checked.
const (
	ReasonAlreadyShipped    = "already_shipped"
	ReasonNotInvoiced       = "not_invoiced"
	ReasonCarrierMismatch   = "carrier_mismatch"
	ReasonIncompleteAddress = "incomplete_address"
)

// Policy decides which invoices get a shipment.
type Policy struct {
	// OnlyInvoiced restricts shipping to invoices in StatusInvoiced.
	OnlyInvoiced bool
	// CarrierTag is the logistics method value that selects this carrier.
	CarrierTag string
}

// IneligibleReason returns why inv must not be shipped, or "" when it is eligible.
func IneligibleReason(inv CanonicalInvoice, p Policy) string {
	switch {
	case inv.Shipped():
		return ReasonAlreadyShipped
	case p.OnlyInvoiced && !strings.EqualFold(inv.Status, StatusInvoiced):
		return ReasonNotInvoiced
	case !strings.EqualFold(inv.LogisticsMethod, p.CarrierTag):
		return ReasonCarrierMismatch
	case inv.Street == "" || inv.StreetNumber == "":
		return ReasonIncompleteAddress
	}
	return ""
}

// IsEligible reports whether inv should be shipped under p.
func IsEligible(inv CanonicalInvoice, p Policy) bool {
	return IneligibleReason(inv, p) == ""
}
