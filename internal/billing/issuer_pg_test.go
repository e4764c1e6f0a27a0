package billing_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ariefcatur/go-commerce-checkout/internal/billing"
	kafkax "github.com/ariefcatur/go-commerce-checkout/internal/kafka"
	"github.com/ariefcatur/go-commerce-checkout/internal/orders"
)

const schema = `
DROP TABLE IF EXISTS invoices, order_items, orders, products, invoice_statuses, order_statuses CASCADE;

CREATE TABLE order_statuses(code TEXT PRIMARY KEY);
INSERT INTO order_statuses VALUES
  ('PENDING'),('CONFIRMED'),('PROCESSING'),('SHIPPED'),('DELIVERED'),('CANCELLED');

CREATE TABLE invoice_statuses(code TEXT PRIMARY KEY);
INSERT INTO invoice_statuses VALUES ('PENDING'),('PAID'),('REFUNDED');

CREATE TABLE products(
  id TEXT PRIMARY KEY,
  sku TEXT UNIQUE,
  name TEXT NOT NULL,
  stock INT NOT NULL CHECK (stock >= 0),
  price_cents INT NOT NULL,
  active BOOL NOT NULL DEFAULT TRUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE orders(
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  cart_id TEXT,
  status TEXT NOT NULL REFERENCES order_statuses(code),
  total_cents INT NOT NULL,
  shipping_address TEXT,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE order_items(
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL REFERENCES products(id),
  qty INT NOT NULL CHECK (qty > 0),
  price_cents INT NOT NULL,
  PRIMARY KEY(order_id, product_id)
);

CREATE TABLE invoices(
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE REFERENCES orders(id),
  user_id TEXT NOT NULL,
  total_cents INT NOT NULL,
  status TEXT NOT NULL REFERENCES invoice_statuses(code),
  due_date TIMESTAMPTZ NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func pgPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = pool.Exec(context.Background(), schema)
	require.NoError(t, err)
	return pool
}

// placeOrder: seed produk + place lewat coordinator, return order tersimpan.
func placeOrder(t *testing.T, pool *pgxpool.Pool) orders.Order {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO products(id, sku, name, stock, price_cents)
		VALUES ('prod-a', 'prod-a', 'prod-a', 10, 1000)
		ON CONFLICT (id) DO NOTHING`)
	require.NoError(t, err)

	coord := &orders.Coordinator{Repo: &orders.Repo{DB: pool}, LockWait: 3 * time.Second}
	o, err := coord.PlaceOrder(context.Background(), "user-1", "cart-1",
		[]orders.ItemInput{{ProductID: "prod-a", Qty: 2}}, "123 Main St")
	require.NoError(t, err)
	return o
}

func newIssuer(pool *pgxpool.Pool) *billing.Issuer {
	// tanpa kafka/redis: publish & invalidate jadi no-op di test
	return &billing.Issuer{
		Repo:   &billing.Repo{DB: pool},
		Orders: &orders.Repo{DB: pool},
	}
}

func TestIssue_DefaultDueDate(t *testing.T) {
	pool := pgPool(t)
	o := placeOrder(t, pool)
	issuer := newIssuer(pool)

	inv, err := issuer.Issue(context.Background(), o.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, o.ID, inv.OrderID)
	assert.Equal(t, o.UserID, inv.UserID)
	assert.Equal(t, o.TotalCents, inv.TotalCents)
	assert.Equal(t, billing.StatusPending, inv.Status)
	assert.WithinDuration(t, inv.CreatedAt.Add(30*24*time.Hour), inv.DueDate, time.Second)
	assert.False(t, inv.IsOverdue(time.Now().UTC()))
}

func TestIssue_OrderNotFound(t *testing.T) {
	pool := pgPool(t)
	issuer := newIssuer(pool)

	_, err := issuer.Issue(context.Background(), "no-such-order", nil)
	require.ErrorIs(t, err, orders.ErrOrderNotFound)
}

func TestIssue_Duplicate(t *testing.T) {
	pool := pgPool(t)
	o := placeOrder(t, pool)
	issuer := newIssuer(pool)

	_, err := issuer.Issue(context.Background(), o.ID, nil)
	require.NoError(t, err)

	_, err = issuer.Issue(context.Background(), o.ID, nil)
	var dup *billing.DuplicateInvoiceError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, o.ID, dup.OrderID)
}

// Balapan issue konkuren: unique constraint yang menentukan, pemenang
// persis satu.
func TestIssue_ConcurrentOnePerOrder(t *testing.T) {
	pool := pgPool(t)
	o := placeOrder(t, pool)
	issuer := newIssuer(pool)

	const n = 4
	results := make([]error, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			_, err := issuer.Issue(context.Background(), o.ID, nil)
			results[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var okCount int
	for _, err := range results {
		if err == nil {
			okCount++
			continue
		}
		var dup *billing.DuplicateInvoiceError
		require.ErrorAs(t, err, &dup)
	}
	assert.Equal(t, 1, okCount)

	var count int
	require.NoError(t, pool.QueryRow(context.Background(),
		`SELECT COUNT(*) FROM invoices WHERE order_id=$1`, o.ID).Scan(&count))
	assert.Equal(t, 1, count)
}

// testRedis: opsional. Tanpa TEST_REDIS_ADDR handler jalan tanpa dedup
// (nil-safe), dengan TEST_REDIS_ADDR urutan penandaan dedup ikut teruji.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		return nil
	}
	c := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// Delivery pertama gagal transien (order belum tersimpan). Redelivery
// dengan event_id yang sama harus tetap menghasilkan invoice: dedup
// tidak boleh ditandai sebelum invoice dipastikan ada.
func TestHandleOrderPlaced_RedeliveredAfterFailure(t *testing.T) {
	pool := pgPool(t)
	issuer := newIssuer(pool)
	issuer.Redis = testRedis(t)
	ctx := context.Background()

	env := orders.Envelope{
		EventID:      uuid.NewString(),
		EventType:    orders.EventOrderPlaced,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "checkout-api",
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID:    "order-later",
			UserID:     "user-1",
			TotalCents: 2000,
		}),
	}
	msg := kafkago.Message{Value: kafkax.MustMarshal(env)}

	// order belum ada -> handler error, offset tidak di-commit
	require.Error(t, issuer.HandleOrderPlaced(ctx, msg))

	_, err := pool.Exec(ctx, `
		INSERT INTO orders(id, user_id, status, total_cents)
		VALUES ('order-later', 'user-1', 'PENDING', 2000)`)
	require.NoError(t, err)

	// redelivery: sekarang invoice harus terbit
	require.NoError(t, issuer.HandleOrderPlaced(ctx, msg))
	inv, err := issuer.Repo.GetByOrder(ctx, "order-later")
	require.NoError(t, err)
	assert.Equal(t, 2000, inv.TotalCents)

	// delivery ketiga: no-op, invoice tetap satu
	require.NoError(t, issuer.HandleOrderPlaced(ctx, msg))
	var count int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE order_id='order-later'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestIssue_TotalImmuneToOrderRewrite(t *testing.T) {
	pool := pgPool(t)
	o := placeOrder(t, pool)
	issuer := newIssuer(pool)
	ctx := context.Background()

	inv, err := issuer.Issue(ctx, o.ID, nil)
	require.NoError(t, err)
	require.Equal(t, 2000, inv.TotalCents)

	// total order berubah belakangan = data error; invoice tidak ikut
	_, err = pool.Exec(ctx, `UPDATE orders SET total_cents=1 WHERE id=$1`, o.ID)
	require.NoError(t, err)

	got, err := issuer.Repo.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2000, got.TotalCents)
}

func TestMarkPaid(t *testing.T) {
	pool := pgPool(t)
	o := placeOrder(t, pool)
	issuer := newIssuer(pool)
	ctx := context.Background()

	inv, err := issuer.Issue(ctx, o.ID, nil)
	require.NoError(t, err)

	paid, err := issuer.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPaid, paid.Status)
	// paid tidak overdue meski due date lewat
	assert.False(t, paid.IsOverdue(paid.DueDate.Add(365*24*time.Hour)))
}

func TestReschedule(t *testing.T) {
	pool := pgPool(t)
	o := placeOrder(t, pool)
	issuer := newIssuer(pool)
	ctx := context.Background()

	inv, err := issuer.Issue(ctx, o.ID, nil)
	require.NoError(t, err)

	// due date baru sebelum created_at ditolak
	_, err = issuer.Reschedule(ctx, inv.ID, inv.CreatedAt.Add(-time.Hour))
	require.ErrorIs(t, err, billing.ErrInvalidDueDate)

	due := inv.CreatedAt.Add(60 * 24 * time.Hour)
	got, err := issuer.Reschedule(ctx, inv.ID, due)
	require.NoError(t, err)
	assert.WithinDuration(t, due, got.DueDate, time.Second)
}
