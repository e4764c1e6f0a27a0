package orders

import (
	"fmt"
	"time"
)

type Product struct {
	ID         string
	SKU        string
	Name       string
	Stock      int
	PriceCents int
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Order struct {
	ID              string
	UserID          string
	CartID          string
	Status          Status
	TotalCents      int
	ShippingAddress string
	CreatedAt       time.Time
	Items           []OrderItem
}

// OrderItem menyimpan snapshot harga saat order dibuat; perubahan harga
// katalog sesudahnya tidak mengubah order historis.
type OrderItem struct {
	ProductID  string
	Qty        int
	PriceCents int
}

func (it OrderItem) SubtotalCents() int { return it.Qty * it.PriceCents }

// TotalCents selalu dihitung ulang dari subtotal item, tidak pernah
// dipercaya dari input caller.
func TotalCents(items []OrderItem) int {
	total := 0
	for _, it := range items {
		total += it.SubtotalCents()
	}
	return total
}

type ItemInput struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// ValidateItems: tolak order kosong, qty non-positif, dan product id dobel
// (dobel = error caller, bukan dijumlah) sebelum nyentuh DB sama sekali.
func ValidateItems(items []ItemInput) error {
	if len(items) == 0 {
		return ErrEmptyOrder
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ProductID == "" {
			return fmt.Errorf("%w: missing product id", ErrInvalidItem)
		}
		if it.Qty <= 0 {
			return fmt.Errorf("%w: non-positive qty for product %s", ErrInvalidItem, it.ProductID)
		}
		if seen[it.ProductID] {
			return &DuplicateProductError{ProductID: it.ProductID}
		}
		seen[it.ProductID] = true
	}
	return nil
}
