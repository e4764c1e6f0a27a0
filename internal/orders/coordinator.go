package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-commerce-checkout/internal/kafka"
	"github.com/ariefcatur/go-commerce-checkout/internal/redisx"
)

// Coordinator menjalankan place order sebagai satu unit atomik:
// reservasi stok + insert order dalam satu tx DB. Gagal di item manapun ->
// tidak ada stok yang berubah dan tidak ada order yang tersimpan.
type Coordinator struct {
	Repo          *Repo
	Cache         *redisx.Invalidator
	Placed        *kafkax.Producer // topic order.placed
	StatusChanged *kafkax.Producer // topic order.status.changed
	Service       string
	LockWait      time.Duration
}

func (c *Coordinator) PlaceOrder(ctx context.Context, userID, cartID string, items []ItemInput, shippingAddr string) (Order, error) {
	if userID == "" {
		return Order{}, fmt.Errorf("missing user id")
	}
	if err := ValidateItems(items); err != nil {
		return Order{}, err
	}

	tx, err := c.Repo.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// batas tunggu lock supaya request yang kejepit gagal bersih,
	// bukan nahan lock orang lain tanpa batas
	if c.LockWait > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`SET LOCAL lock_timeout = '%dms'`, c.LockWait.Milliseconds())); err != nil {
			return Order{}, err
		}
	}

	lines, err := reserveItems(ctx, tx, items)
	if err != nil {
		return Order{}, err
	}

	o := Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		CartID:          cartID,
		Status:          StatusPending,
		TotalCents:      TotalCents(lines),
		ShippingAddress: shippingAddr,
		CreatedAt:       time.Now().UTC(),
		Items:           lines,
	}
	if err := insertOrder(ctx, tx, &o); err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, mapLockErr(err)
	}

	c.Cache.OrderChanged(ctx, o.ID, o.UserID)
	c.publishPlaced(o)
	return o, nil
}

// TransitionStatus memvalidasi lewat tabel transisi lalu persist.
func (c *Coordinator) TransitionStatus(ctx context.Context, orderID string, next Status) (Order, error) {
	o, err := c.Repo.Transition(ctx, orderID, next)
	if err != nil {
		return Order{}, err
	}
	c.Cache.OrderChanged(ctx, o.ID, o.UserID)
	c.publishStatus(o, next)
	return o, nil
}

func (c *Coordinator) DeleteOrder(ctx context.Context, orderID string) error {
	o, err := c.Repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if err := c.Repo.Delete(ctx, orderID); err != nil {
		return err
	}
	c.Cache.OrderChanged(ctx, o.ID, o.UserID)
	return nil
}

func (c *Coordinator) publishPlaced(o Order) {
	if c.Placed == nil {
		return
	}
	items := make([]ItemPrice, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemPrice{ProductID: it.ProductID, Qty: it.Qty, PriceCents: it.PriceCents})
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      c.Service,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderPlacedPayload{
			OrderID:    o.ID,
			UserID:     o.UserID,
			CartID:     o.CartID,
			Items:      items,
			TotalCents: o.TotalCents,
		}),
	}
	c.Placed.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (c *Coordinator) publishStatus(o Order, next Status) {
	if c.StatusChanged == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      c.Service,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderStatusChangedPayload{
			OrderID: o.ID,
			Status:  next,
		}),
	}
	c.StatusChanged.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
