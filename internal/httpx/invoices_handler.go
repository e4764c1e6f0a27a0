package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-commerce-checkout/internal/billing"
)

type InvoicesHandler struct {
	Issuer *billing.Issuer
}

type IssueInvoiceReq struct {
	DueDate *time.Time `json:"due_date,omitempty"`
}

type DueDateReq struct {
	DueDate time.Time `json:"due_date"`
}

type InvoiceResp struct {
	InvoiceID  string         `json:"invoice_id"`
	OrderID    string         `json:"order_id"`
	UserID     string         `json:"user_id"`
	TotalCents int            `json:"total_cents"`
	Status     billing.Status `json:"status"`
	Overdue    bool           `json:"overdue"` // derived, bukan status tersimpan
	DueDate    time.Time      `json:"due_date"`
	CreatedAt  time.Time      `json:"created_at"`
}

func toInvoiceResp(inv billing.Invoice, now time.Time) InvoiceResp {
	return InvoiceResp{
		InvoiceID:  inv.ID,
		OrderID:    inv.OrderID,
		UserID:     inv.UserID,
		TotalCents: inv.TotalCents,
		Status:     inv.Status,
		Overdue:    inv.IsOverdue(now),
		DueDate:    inv.DueDate,
		CreatedAt:  inv.CreatedAt,
	}
}

func (h *InvoicesHandler) Register(r *chi.Mux) {
	r.Post("/orders/{id}/invoice", h.issue)
	r.Get("/invoices/{id}", h.get)
	r.Post("/invoices/{id}/paid", h.markPaid)
	r.Post("/invoices/{id}/due-date", h.reschedule)
	r.Get("/users/{id}/invoices", h.listByUser)
}

func (h *InvoicesHandler) issue(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	// body opsional: tanpa body atau tanpa due_date -> default +30 hari
	var req IssueInvoiceReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	inv, err := h.Issuer.Issue(ctx, orderID, req.DueDate)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toInvoiceResp(inv, time.Now().UTC()))
}

func (h *InvoicesHandler) get(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	inv, err := h.Issuer.Repo.Get(ctx, invoiceID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResp(inv, time.Now().UTC()))
}

func (h *InvoicesHandler) markPaid(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	inv, err := h.Issuer.MarkPaid(ctx, invoiceID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResp(inv, time.Now().UTC()))
}

func (h *InvoicesHandler) reschedule(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "id")
	var req DueDateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DueDate.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing due_date"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	inv, err := h.Issuer.Reschedule(ctx, invoiceID, req.DueDate)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceResp(inv, time.Now().UTC()))
}

func (h *InvoicesHandler) listByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	invs, err := h.Issuer.Repo.ListByUser(ctx, userID)
	if err != nil {
		writeErr(w, err)
		return
	}
	now := time.Now().UTC()
	out := make([]InvoiceResp, 0, len(invs))
	for _, inv := range invs {
		out = append(out, toInvoiceResp(inv, now))
	}
	writeJSON(w, http.StatusOK, out)
}
