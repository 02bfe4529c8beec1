package syncer

import (
	"fmt"
	"math"

	"github.com/tournevent/invoicebridge/pkg/carrier"
)

const (
	SourceTag        = "GBP"
	ExternalIDPrefix = "GBP-INV-"
	FallbackSKU      = "GEN"
)

// PackageSpec is the generic parcel declared for every shipment.
type PackageSpec struct {
	WeightKG float64
	HeightCM float64
	WidthCM  float64
	LengthCM float64
}

// DefaultPackage is used when no parcel dimensions are configured.
var DefaultPackage = PackageSpec{WeightKG: 2, HeightCM: 10, WidthCM: 20, LengthCM: 30}

// PayloadConfig carries the carrier account settings stamped on each request.
type PayloadConfig struct {
	AccountID int64
	OriginID  int64
	Package   PackageSpec
}

// BuildShipmentRequest turns an eligible invoice into a carrier request.
// The same invoice and config always produce the same request.
func BuildShipmentRequest(inv CanonicalInvoice, cfg PayloadConfig) (*carrier.ShipmentRequest, error) {
	if inv.TotalWithoutTaxes.IsNegative() {
		return nil, fmt.Errorf("%w: %s is negative", ErrInvalidDeclaredValue, inv.TotalWithoutTaxes)
	}

	sku := inv.SKU
	if sku == "" {
		sku = FallbackSKU
	}
	qty := inv.ItemsQuantity
	if qty < 1 {
		qty = 1
	}
	desc := inv.ItemDescription
	if desc == "" {
		desc = DefaultItemDescription
	}
	name := inv.CustomerName
	if name == "" {
		name = DefaultCustomerName
	}

	declared := inv.TotalWithoutTaxes.Round(2).InexactFloat64()
	if math.IsInf(declared, 0) || math.IsNaN(declared) {
		return nil, fmt.Errorf("%w: %s does not fit a float", ErrInvalidDeclaredValue, inv.TotalWithoutTaxes)
	}

	return &carrier.ShipmentRequest{
		AccountID:     cfg.AccountID,
		OriginID:      cfg.OriginID,
		Source:        SourceTag,
		ExternalID:    ExternalIDPrefix + inv.InvoiceID,
		DeclaredValue: declared,
		Destination: carrier.Destination{
			Name:         name,
			Street:       inv.Street,
			StreetNumber: inv.StreetNumber,
			StreetExtras: inv.StreetExtras,
		},
		Items: []carrier.Item{{
			SKU:         sku,
			Quantity:    qty,
			Weight:      cfg.Package.WeightKG,
			Height:      cfg.Package.HeightCM,
			Width:       cfg.Package.WidthCM,
			Length:      cfg.Package.LengthCM,
			Description: desc,
		}},
	}, nil
}
