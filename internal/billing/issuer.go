package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/ariefcatur/go-commerce-checkout/internal/kafka"
	"github.com/ariefcatur/go-commerce-checkout/internal/orders"
	"github.com/ariefcatur/go-commerce-checkout/internal/redisx"
)

// Issuer menegakkan satu-invoice-per-order: cek keberadaan dulu (advisory),
// unique constraint di DB yang jadi penentu akhir saat balapan.
type Issuer struct {
	Repo     *Repo
	Orders   *orders.Repo
	Cache    *redisx.Invalidator
	Redis    *redis.Client
	Producer *kafkax.Producer // topic invoice.issued
	Service  string
}

// Issue membuat invoice untuk order. due == nil -> jatuh tempo +30 hari.
func (s *Issuer) Issue(ctx context.Context, orderID string, due *time.Time) (Invoice, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return Invoice{}, err
	}

	// advisory check: murah, menangkap mayoritas duplikat lebih awal
	if _, err := s.Repo.GetByOrder(ctx, orderID); err == nil {
		return Invoice{}, &DuplicateInvoiceError{OrderID: orderID}
	} else if !errors.Is(err, ErrInvoiceNotFound) {
		return Invoice{}, err
	}

	inv, err := NewInvoice(o, due, time.Now().UTC())
	if err != nil {
		return Invoice{}, err
	}
	// balapan antara cek di atas dan insert -> Insert memetakan 23505
	// ke DuplicateInvoiceError, diperlakukan sama dengan cek advisory
	if err := s.Repo.Insert(ctx, inv); err != nil {
		return Invoice{}, err
	}

	s.Cache.InvoiceChanged(ctx, inv.ID, inv.UserID)
	s.publishIssued(inv)
	return inv, nil
}

func (s *Issuer) MarkPaid(ctx context.Context, invoiceID string) (Invoice, error) {
	inv, err := s.Repo.SetStatus(ctx, invoiceID, StatusPaid)
	if err != nil {
		return Invoice{}, err
	}
	s.Cache.InvoiceChanged(ctx, inv.ID, inv.UserID)
	return inv, nil
}

func (s *Issuer) Reschedule(ctx context.Context, invoiceID string, due time.Time) (Invoice, error) {
	inv, err := s.Repo.SetDueDate(ctx, invoiceID, due)
	if err != nil {
		return Invoice{}, err
	}
	s.Cache.InvoiceChanged(ctx, inv.ID, inv.UserID)
	return inv, nil
}

// HandleOrderPlaced: dipasang sebagai handler consumer di worker billing.
// Auto-issue invoice untuk tiap order yang berhasil placed.
func (s *Issuer) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := kafkax.UnmarshalEnvelope(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	} // ignore

	// dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "billing", env.EventID)
	if s.Redis != nil {
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	_, err = s.Issue(ctx, p.OrderID, nil)
	var dup *DuplicateInvoiceError
	switch {
	case err == nil:
	case errors.As(err, &dup):
		// event keulang / sudah di-issue manual: bukan failure
		log.Printf("invoice already issued for order %s, skip", p.OrderID)
	default:
		// JANGAN tandai dedup di sini: gagal transien harus bisa
		// di-redeliver. Issue sendiri idempotent via unique constraint.
		return err
	}

	// dedup baru ditandai setelah invoice dipastikan ada
	if s.Redis != nil {
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}
	return nil
}

func (s *Issuer) publishIssued(inv Invoice) {
	if s.Producer == nil {
		return
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventInvoiceIssued,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.Service,
		CorrelationID: inv.OrderID,
		Payload: kafkax.MustMarshal(orders.InvoiceIssuedPayload{
			InvoiceID:  inv.ID,
			OrderID:    inv.OrderID,
			UserID:     inv.UserID,
			TotalCents: inv.TotalCents,
			DueDate:    inv.DueDate,
		}),
	}
	s.Producer.Publish(orders.PartitionKey(inv.OrderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventInvoiceIssued)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
