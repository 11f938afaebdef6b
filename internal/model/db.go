package model

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderCancelled:
		return true
	}
	return false
}

type PaymentMode string

const (
	PaymentModeCOD  PaymentMode = "COD"
	PaymentModeCard PaymentMode = "CARD"
)

type PaymentStatus string

const (
	PaymentNotPaid PaymentStatus = "NOT_PAID"
	PaymentPaid    PaymentStatus = "PAID"
)

type Product struct {
	ID        string  `gorm:"primaryKey;size:64;not null" json:"id"` // sku
	Name      string  `gorm:"size:255;not null" json:"name"`
	Price     float64 `gorm:"not null" json:"price"` // USD
	Stock     int     `gorm:"not null" json:"stock"`
	Image     string  `gorm:"size:512" json:"image"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID            string        `gorm:"primaryKey;size:64;not null"`
	UserID        string        `gorm:"size:64;index;not null"`
	Street        string        `gorm:"size:255;not null"`
	City          string        `gorm:"size:128;not null"`
	State         string        `gorm:"size:128"`
	ZipCode       string        `gorm:"size:32"`
	PhoneNo       string        `gorm:"size:32"`
	Country       string        `gorm:"size:64"`
	TotalAmount   float64       `gorm:"not null"`
	Status        OrderStatus   `gorm:"size:32;index;not null"`
	PaymentMode   PaymentMode   `gorm:"size:16;not null"`
	PaymentStatus PaymentStatus `gorm:"size:16;not null"`
	// checkout session that paid for this order; null for COD orders
	SessionID *string `gorm:"size:128;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []*OrderItem `gorm:"-"`
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → order.id, deleted with the order
	OrderID string `gorm:"size:64;index;not null"`
	// weak reference: the product may change after the order is placed
	ProductID string  `gorm:"size:64;index;not null"`
	Name      string  `gorm:"size:255;not null"` // snapshot at order time
	Price     float64 `gorm:"not null"`          // snapshot at order time
	Image     string  `gorm:"size:512"`
	Quantity  int     `gorm:"not null"`
	CreatedAt time.Time
}

// WebhookEvent is the processed-event log used for webhook idempotency.
// Keyed by checkout session id so redeliveries under a fresh event id still
// collide; rows are written in the same transaction as the order they settle.
type WebhookEvent struct {
	SessionID   string `gorm:"primaryKey;size:128;not null"`
	EventID     string `gorm:"size:128;index"`
	EventType   string `gorm:"size:64"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
