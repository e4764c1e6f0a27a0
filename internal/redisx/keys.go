package redisx

import "time"

// Key cache read-side yang dipelihara layer di luar core ini.
// Core hanya meng-invalidate setelah mutasi, tidak pernah mengisi.
const (
	// Detail order: order:{order_id}
	KeyOrder = "order:%s"

	// Daftar order per user: orders_user:{user_id}
	KeyUserOrders = "orders_user:%s"

	// Detail invoice: invoice:{invoice_id}
	KeyInvoice = "invoice:%s"

	// Daftar invoice per user: invoices_user:{user_id}
	KeyUserInvoices = "invoices_user:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var TTLDedup = 48 * time.Hour
