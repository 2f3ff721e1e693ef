package courier

// ekartCreateRequest is the shipment creation envelope. Every request
// carries the registered client name; shipments are batched but this
// integration always sends exactly one.
type ekartCreateRequest struct {
	ClientName string          `json:"client_name"`
	Shipments  []ekartShipment `json:"shipments"`
}

// ekartShipment uses Ekart's native units: weight in grams, dimensions in
// millimeters.
type ekartShipment struct {
	TrackingID   string       `json:"tracking_id,omitempty"`
	ReferenceID  string       `json:"reference_id"`
	ServiceType  string       `json:"service_type"`
	PaymentMode  string       `json:"payment_mode"`
	CODValue     string       `json:"cod_value"`
	InvoiceValue string       `json:"invoice_value"`
	WeightGrams  int64        `json:"weight"`
	LengthMm     int64        `json:"length"`
	BreadthMm    int64        `json:"breadth"`
	HeightMm     int64        `json:"height"`
	Description  string       `json:"description,omitempty"`
	Quantity     int          `json:"quantity"`
	Source       ekartAddress `json:"source"`
	Destination  ekartAddress `json:"destination"`
}

type ekartAddress struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pin_code"`
}

// ekartCreateResponse reports per-shipment outcomes; a batch can partially
// succeed.
type ekartCreateResponse struct {
	Response []ekartShipmentStatus `json:"response"`
	Message  string                `json:"message"`
}

type ekartShipmentStatus struct {
	Status     string `json:"status"`
	TrackingID string `json:"tracking_id"`
	Message    string `json:"message"`
}

type ekartTrackResponse struct {
	TrackingID string `json:"tracking_id"`
	Status     string `json:"status"`
	Message    string `json:"message"`
	History    []struct {
		Status    string `json:"status"`
		City      string `json:"city"`
		Remarks   string `json:"remarks"`
		EventDate string `json:"event_date"`
	} `json:"history"`
}
