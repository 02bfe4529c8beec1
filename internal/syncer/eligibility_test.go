package syncer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tournevent/invoicebridge/internal/syncer"
)

func eligibleInvoice() syncer.CanonicalInvoice {
	return syncer.CanonicalInvoice{
		InvoiceID:       "F1-1",
		Status:          "FACTURADO",
		LogisticsMethod: "ZIPNOVA",
		Street:          "Main",
		StreetNumber:    "10",
	}
}

func TestIneligibleReason(t *testing.T) {
	policy := syncer.Policy{OnlyInvoiced: true, CarrierTag: "ZIPNOVA"}

	tests := []struct {
		name   string
		mutate func(*syncer.CanonicalInvoice)
		want   string
	}{
		{"eligible", func(*syncer.CanonicalInvoice) {}, ""},
		{"case insensitive", func(inv *syncer.CanonicalInvoice) {
			inv.Status = "facturado"
			inv.LogisticsMethod = "Zipnova"
		}, ""},
		{"already shipped", func(inv *syncer.CanonicalInvoice) { inv.CarrierShipmentID = "zn-1" }, syncer.ReasonAlreadyShipped},
		{"not invoiced", func(inv *syncer.CanonicalInvoice) { inv.Status = "PENDIENTE" }, syncer.ReasonNotInvoiced},
		{"other carrier", func(inv *syncer.CanonicalInvoice) { inv.LogisticsMethod = "OCA" }, syncer.ReasonCarrierMismatch},
		{"no street", func(inv *syncer.CanonicalInvoice) { inv.Street = "" }, syncer.ReasonIncompleteAddress},
		{"no number", func(inv *syncer.CanonicalInvoice) { inv.StreetNumber = "" }, syncer.ReasonIncompleteAddress},
		{"shipped wins", func(inv *syncer.CanonicalInvoice) {
			inv.CarrierShipmentID = "zn-1"
			inv.Status = "PENDIENTE"
			inv.Street = ""
		}, syncer.ReasonAlreadyShipped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := eligibleInvoice()
			tt.mutate(&inv)
			assert.Equal(t, tt.want, syncer.IneligibleReason(inv, policy))
			assert.Equal(t, tt.want == "", syncer.IsEligible(inv, policy))
		})
	}
}

func TestIneligibleReason_AnyStatusWhenNotRestricted(t *testing.T) {
	inv := eligibleInvoice()
	inv.Status = "PENDIENTE"

	assert.True(t, syncer.IsEligible(inv, syncer.Policy{OnlyInvoiced: false, CarrierTag: "ZIPNOVA"}))
}
