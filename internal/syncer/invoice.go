package syncer

import "github.com/shopspring/decimal"

// CanonicalInvoice is the invoice shape every later stage consumes,
// independent of how the order system spells its fields.
type CanonicalInvoice struct {
	InvoiceID       string
	Status          string
	LogisticsMethod string

	// CarrierShipmentID is empty when the invoice has not been shipped yet.
	CarrierShipmentID string

	CustomerName string
	Street       string
	StreetNumber string
	StreetExtras string

	TotalWithoutTaxes decimal.Decimal
	ItemDescription   string
	ItemsQuantity     int

	// SKU is empty when the order system does not provide one.
	SKU string
}

// Shipped reports whether a carrier shipment was already recorded.
func (inv CanonicalInvoice) Shipped() bool {
	return inv.CarrierShipmentID != ""
}
