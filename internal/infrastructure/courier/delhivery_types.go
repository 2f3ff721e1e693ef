package courier

import (
	"encoding/json"
	"strings"
)

// delhiveryCreateData is the JSON document posted as the "data" form field
// of the manifest endpoint.
type delhiveryCreateData struct {
	Shipments      []delhiveryShipment `json:"shipments"`
	PickupLocation delhiveryPickup     `json:"pickup_location"`
}

type delhiveryPickup struct {
	Name string `json:"name"`
}

// delhiveryShipment mirrors the manifest payload. Delhivery wants weight in
// grams, dimensions in centimeters and a flat address shape.
type delhiveryShipment struct {
	Name          string `json:"name"`
	Add           string `json:"add"`
	Pin           string `json:"pin"`
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
	Phone         string `json:"phone"`
	Order         string `json:"order"`
	PaymentMode   string `json:"payment_mode"`
	CODAmount     string `json:"cod_amount"`
	TotalAmount   string `json:"total_amount"`
	ProductsDesc  string `json:"products_desc"`
	Quantity      int    `json:"quantity"`
	Weight        string `json:"weight"`
	ShipmentLen   string `json:"shipment_length"`
	ShipmentWidth string `json:"shipment_width"`
	ShipmentHt    string `json:"shipment_height"`
	ReturnName    string `json:"return_name"`
	ReturnAdd     string `json:"return_add"`
	ReturnPin     string `json:"return_pin"`
	ReturnCity    string `json:"return_city"`
	ReturnState   string `json:"return_state"`
	ReturnCountry string `json:"return_country"`
	ReturnPhone   string `json:"return_phone"`
	Waybill       string `json:"waybill"`
	SellerName    string `json:"seller_name"`
	SellerAdd     string `json:"seller_add"`
	SellerInv     string `json:"seller_inv"`
}

type delhiveryCreateResponse struct {
	Success   bool               `json:"success"`
	RMK       string             `json:"rmk"`
	Packages  []delhiveryPackage `json:"packages"`
	UploadWbn string             `json:"upload_wbn"`
}

type delhiveryPackage struct {
	Waybill string `json:"waybill"`
	RefNum  string `json:"refnum"`
	Status  string `json:"status"`
	// Remarks decodes as either a bare string or an array of strings
	// depending on the failure.
	Remarks json.RawMessage `json:"remarks"`
}

// RemarksText flattens the string-or-array remarks field into one message.
func (p *delhiveryPackage) RemarksText() string {
	if len(p.Remarks) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(p.Remarks, &s); err == nil {
		return s
	}
	var arr []string
	if err := json.Unmarshal(p.Remarks, &arr); err == nil {
		return strings.Join(arr, "; ")
	}
	return string(p.Remarks)
}

type delhiveryTrackResponse struct {
	ShipmentData []struct {
		Shipment delhiveryTrackShipment `json:"Shipment"`
	} `json:"ShipmentData"`
	Error string `json:"Error"`
}

type delhiveryTrackShipment struct {
	Status struct {
		Status         string `json:"Status"`
		StatusLocation string `json:"StatusLocation"`
		StatusDateTime string `json:"StatusDateTime"`
		StatusType     string `json:"StatusType"`
		Instructions   string `json:"Instructions"`
	} `json:"Status"`
	ReferenceNo string `json:"ReferenceNo"`
	Scans       []struct {
		ScanDetail struct {
			Scan            string `json:"Scan"`
			ScanType        string `json:"ScanType"`
			ScanDateTime    string `json:"ScanDateTime"`
			ScannedLocation string `json:"ScannedLocation"`
			Instructions    string `json:"Instructions"`
		} `json:"ScanDetail"`
	} `json:"Scans"`
}

type delhiveryCancelResponse struct {
	Status bool   `json:"status"`
	Remark string `json:"remark"`
	Error  string `json:"error"`
}

// delhiveryRateEntry is one rate quote. The endpoint answers with either a
// single object or an array of them.
type delhiveryRateEntry struct {
	Status        string  `json:"status"`
	TotalAmount   float64 `json:"total_amount"`
	ChargedWeight float64 `json:"charged_weight"`
	Zone          string  `json:"zone"`
}

type delhiveryPincodeResponse struct {
	DeliveryCodes []struct {
		PostalCode struct {
			Pin     int    `json:"pin"`
			PrePaid string `json:"pre_paid"`
			COD     string `json:"cod"`
		} `json:"postal_code"`
	} `json:"delivery_codes"`
}
