package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-commerce-checkout/internal/billing"
	"github.com/ariefcatur/go-commerce-checkout/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr memetakan error bisnis ke status + body JSON.
// Insufficient stock / duplicate invoice dkk = expected business error,
// bukan failure sistem. Lock timeout = retryable.
func writeErr(w http.ResponseWriter, err error) {
	var (
		notFound  *orders.ProductNotFoundError
		short     *orders.InsufficientStockError
		dupItem   *orders.DuplicateProductError
		badTrans  *orders.InvalidTransitionError
		noDelete  *orders.NotDeletableError
		dupInvoic *billing.DuplicateInvoiceError
	)
	switch {
	case errors.As(err, &short):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":      short.Error(),
			"code":       "INSUFFICIENT_STOCK",
			"product_id": short.ProductID,
			"requested":  short.Requested,
			"available":  short.Available,
		})
	case errors.As(err, &notFound), errors.Is(err, orders.ErrOrderNotFound), errors.Is(err, billing.ErrInvoiceNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &dupItem), errors.Is(err, orders.ErrEmptyOrder), errors.Is(err, orders.ErrInvalidItem), errors.Is(err, billing.ErrInvalidDueDate), errors.Is(err, billing.ErrInvalidStatus):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.As(err, &badTrans):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": badTrans.Error(),
			"code":  "INVALID_TRANSITION",
			"from":  badTrans.From,
			"to":    badTrans.To,
		})
	case errors.As(err, &noDelete):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  noDelete.Error(),
			"code":   "NOT_DELETABLE",
			"status": noDelete.Status,
		})
	case errors.As(err, &dupInvoic):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    dupInvoic.Error(),
			"code":     "DUPLICATE_INVOICE",
			"order_id": dupInvoic.OrderID,
		})
	case errors.Is(err, orders.ErrLockTimeout):
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": err.Error(),
			"code":  "LOCK_TIMEOUT",
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
