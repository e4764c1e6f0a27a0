package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventInvoiceIssued      = "InvoiceIssued"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "checkout-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // biasanya order_id
	Payload       json.RawMessage `json:"payload"`                  // payload spesifik
}

// ---- Payload tipe per event ----

type ItemPrice struct {
	ProductID  string `json:"product_id"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"` // snapshot saat order dibuat
}

type OrderPlacedPayload struct {
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	CartID     string      `json:"cart_id,omitempty"`
	Items      []ItemPrice `json:"items"`
	TotalCents int         `json:"total_cents"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	Status  Status `json:"status"`
}

type InvoiceIssuedPayload struct {
	InvoiceID  string    `json:"invoice_id"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	TotalCents int       `json:"total_cents"`
	DueDate    time.Time `json:"due_date"`
}
