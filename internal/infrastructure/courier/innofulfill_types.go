package courier

// innofulfillCreateRequest is the order creation payload. Weight is in
// kilograms, dimensions in centimeters, payment mode is "Prepaid" or "COD".
type innofulfillCreateRequest struct {
	OrderNumber   string `json:"order_number"`
	PaymentMode   string `json:"payment_mode"`
	CODAmount     string `json:"cod_amount"`
	OrderValue    string `json:"order_value"`
	WeightKg      string `json:"weight"`
	LengthCm      string `json:"length"`
	BreadthCm     string `json:"breadth"`
	HeightCm      string `json:"height"`
	ProductName   string `json:"product_name"`
	Quantity      int    `json:"quantity"`
	ConsigneeName string `json:"consignee_name"`
	ConsigneePh   string `json:"consignee_phone"`
	ConsigneeAdd  string `json:"consignee_address"`
	ConsigneeCity string `json:"consignee_city"`
	ConsigneeSt   string `json:"consignee_state"`
	ConsigneePin  string `json:"consignee_pincode"`
	PickupName    string `json:"pickup_name"`
	PickupPhone   string `json:"pickup_phone"`
	PickupAdd     string `json:"pickup_address"`
	PickupCity    string `json:"pickup_city"`
	PickupState   string `json:"pickup_state"`
	PickupPin     string `json:"pickup_pincode"`
}

type innofulfillCreateResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AWBNo       string `json:"awb_no"`
		LabelURL    string `json:"label_url"`
		TrackingURL string `json:"tracking_url"`
	} `json:"data"`
}

type innofulfillTrackResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AWBNo         string `json:"awb_no"`
		CurrentStatus string `json:"current_status"`
		ScanDetails   []struct {
			Status   string `json:"status"`
			Location string `json:"location"`
			Remarks  string `json:"remarks"`
			ScanTime string `json:"scan_time"`
		} `json:"scan_details"`
	} `json:"data"`
}

type innofulfillCancelResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

type innofulfillServiceabilityResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Serviceable bool `json:"serviceable"`
		Prepaid     bool `json:"prepaid"`
		COD         bool `json:"cod"`
	} `json:"data"`
	Message string `json:"message"`
}
