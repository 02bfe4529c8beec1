package carrier

// Destination is the delivery address of a shipment.
type Destination struct {
	Name         string `json:"name"`
	Street       string `json:"street"`
	StreetNumber string `json:"street_number"`
	StreetExtras string `json:"street_extras"`
}

// Item is a package line in a shipment request.
type Item struct {
	SKU         string  `json:"sku"`
	Quantity    int     `json:"quantity"`
	Weight      float64 `json:"weight"` // kg
	Height      float64 `json:"height"` // cm
	Width       float64 `json:"width"`  // cm
	Length      float64 `json:"length"` // cm
	Description string  `json:"description"`
}

// ShipmentRequest is the shipment-creation body sent to the carrier.
// Field order is fixed so that equal requests encode to equal bytes.
type ShipmentRequest struct {
	AccountID     int64       `json:"account_id"`
	OriginID      int64       `json:"origin_id"`
	Source        string      `json:"source"`
	ExternalID    string      `json:"external_id"`
	DeclaredValue float64     `json:"declared_value"`
	Destination   Destination `json:"destination"`
	Items         []Item      `json:"items"`
}

// ShipmentResult holds the identifiers of a created shipment.
type ShipmentResult struct {
	ShipmentID   string
	TrackingCode string // may be empty
}
