package courier

import "encoding/json"

type xpressbeesLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// xpressbeesLoginResponse carries the JWT directly in the data field.
type xpressbeesLoginResponse struct {
	Status  bool   `json:"status"`
	Data    string `json:"data"`
	Message string `json:"message"`
}

type xpressbeesAddress struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// xpressbeesCreateRequest is the booking payload. Weight travels in grams.
type xpressbeesCreateRequest struct {
	OrderNumber    string            `json:"order_number"`
	PaymentType    string            `json:"payment_type"`
	OrderAmount    string            `json:"order_amount"`
	CollectableAmt string            `json:"collectable_amount"`
	WeightGrams    int64             `json:"weight"`
	LengthCm       string            `json:"length"`
	BreadthCm      string            `json:"breadth"`
	HeightCm       string            `json:"height"`
	Consignee      xpressbeesAddress `json:"consignee"`
	Pickup         xpressbeesAddress `json:"pickup"`
	OrderItems     []xpressbeesItem  `json:"order_items"`
}

type xpressbeesItem struct {
	Name  string `json:"name"`
	Qty   int    `json:"qty"`
	Price string `json:"price"`
}

// xpressbeesCreateResponse: business failures arrive as HTTP 200 with
// status false; data is an object on success and often a bare string on
// failure, hence the RawMessage.
type xpressbeesCreateResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type xpressbeesShipmentData struct {
	AWBNumber   string `json:"awb_number"`
	OrderID     string `json:"order_id"`
	Label       string `json:"label"`
	CourierName string `json:"courier_name"`
}

type xpressbeesTrackResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AWBNumber string `json:"awb_number"`
		Status    string `json:"status"`
		History   []struct {
			StatusCode string `json:"status_code"`
			Message    string `json:"message"`
			Location   string `json:"location"`
			EventTime  string `json:"event_time"`
		} `json:"history"`
	} `json:"data"`
}

type xpressbeesCancelResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

type xpressbeesRateResponse struct {
	Status bool `json:"status"`
	Data   []struct {
		CourierName  string  `json:"name"`
		TotalCharges float64 `json:"total_charges"`
	} `json:"data"`
	Message string `json:"message"`
}
