package dto

import "time"

type ShippingInfo struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	PhoneNo string `json:"phone_no"`
	Country string `json:"country"`
}

type OrderItemRequest struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	ShippingInfo
	OrderItems []*OrderItemRequest `json:"order_items"`
}

type OrderItemResponse struct {
	ProductID string  `json:"product"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

type OrderResponse struct {
	ID            string               `json:"id"`
	UserID        string               `json:"user"`
	ShippingInfo  ShippingInfo         `json:"shipping_info"`
	TotalAmount   float64              `json:"total_amount"`
	Status        string               `json:"status"`
	PaymentMode   string               `json:"payment_mode"`
	PaymentStatus string               `json:"payment_status"`
	CreatedAt     time.Time            `json:"created_at"`
	Items         []*OrderItemResponse `json:"order_items"`
}

type ProcessOrderRequest struct {
	Status string `json:"status"`
}

type CheckoutSessionRequest struct {
	ShippingInfo
	OrderItems []*OrderItemRequest `json:"order_items"`
}

type CheckoutSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}
