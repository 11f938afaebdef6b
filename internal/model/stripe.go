package model

// Gateway wire shapes, trimmed to the fields the checkout flow reads.

type StripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    StripeEventData `json:"data"`
}

type StripeEventData struct {
	Object StripeCheckoutSession `json:"object"`
}

type StripeCheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	CustomerEmail string            `json:"customer_email"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Metadata      map[string]string `json:"metadata"`
}

type StripeLineItemList struct {
	Data []*StripeLineItem `json:"data"`
}

type StripeLineItem struct {
	ID       string      `json:"id"`
	Quantity int         `json:"quantity"`
	Price    StripePrice `json:"price"`
}

type StripePrice struct {
	UnitAmount int64  `json:"unit_amount"` // minor currency units
	Currency   string `json:"currency"`
	Product    string `json:"product"` // gateway product id
}

type StripeProduct struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Images   []string          `json:"images"`
	Metadata map[string]string `json:"metadata"` // carries the local product sku
}
