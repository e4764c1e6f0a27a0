package redisx

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Invalidator menghapus representasi cache yang terdampak mutasi.
// Best-effort: gagal invalidate tidak menggagalkan mutasinya (cache layer
// punya TTL sebagai jaring pengaman).
type Invalidator struct {
	R *redis.Client
}

func NewInvalidator(r *redis.Client) *Invalidator { return &Invalidator{R: r} }

func (iv *Invalidator) OrderChanged(ctx context.Context, orderID, userID string) {
	iv.drop(ctx,
		fmt.Sprintf(KeyOrder, orderID),
		fmt.Sprintf(KeyUserOrders, userID),
	)
}

func (iv *Invalidator) InvoiceChanged(ctx context.Context, invoiceID, userID string) {
	iv.drop(ctx,
		fmt.Sprintf(KeyInvoice, invoiceID),
		fmt.Sprintf(KeyUserInvoices, userID),
	)
}

func (iv *Invalidator) drop(ctx context.Context, keys ...string) {
	if iv == nil || iv.R == nil {
		return
	}
	if err := iv.R.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache invalidate %v: %v", keys, err)
	}
}
