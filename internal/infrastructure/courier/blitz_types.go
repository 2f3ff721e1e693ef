package courier

type blitzLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type blitzLoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Token string `json:"token"`
		// ExpiresIn is the token lifetime in seconds.
		ExpiresIn int64 `json:"expires_in"`
	} `json:"data"`
}

type blitzParty struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// blitzCreateRequest is the shipment booking payload. Blitz wants weight in
// grams and dimensions in centimeters.
type blitzCreateRequest struct {
	OrderID       string     `json:"order_id"`
	PickupDetails blitzParty `json:"pickup_details"`
	DropDetails   blitzParty `json:"drop_details"`
	WeightGrams   int64      `json:"weight"`
	LengthCm      string     `json:"length"`
	BreadthCm     string     `json:"breadth"`
	HeightCm      string     `json:"height"`
	PaymentMode   string     `json:"payment_mode"`
	CODAmount     string     `json:"cod_amount"`
	DeclaredValue string     `json:"declared_value"`
	ProductDesc   string     `json:"product_description,omitempty"`
	Quantity      int        `json:"quantity"`
}

type blitzCreateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		AWB         string `json:"awb"`
		LabelURL    string `json:"label_url"`
		TrackingURL string `json:"tracking_url"`
	} `json:"data"`
}

type blitzTrackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		AWB           string `json:"awb"`
		CurrentStatus string `json:"current_status"`
		History       []struct {
			Status    string `json:"status"`
			Location  string `json:"location"`
			Remarks   string `json:"remarks"`
			Timestamp string `json:"timestamp"`
		} `json:"history"`
	} `json:"data"`
}

type blitzCancelResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
