package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-commerce-checkout/internal/orders"
)

type OrdersHandler struct {
	Coord *orders.Coordinator
}

type PlaceOrderReq struct {
	UserID          string             `json:"user_id"`
	CartID          string             `json:"cart_id"`
	Items           []orders.ItemInput `json:"items"`
	ShippingAddress string             `json:"shipping_address"`
}

type TransitionReq struct {
	Status string `json:"status"`
}

type OrderResp struct {
	OrderID         string             `json:"order_id"`
	UserID          string             `json:"user_id"`
	CartID          string             `json:"cart_id,omitempty"`
	Status          orders.Status      `json:"status"`
	TotalCents      int                `json:"total_cents"`
	ShippingAddress string             `json:"shipping_address,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	Items           []orders.OrderItem `json:"items,omitempty"`
}

func toOrderResp(o orders.Order) OrderResp {
	return OrderResp{
		OrderID:         o.ID,
		UserID:          o.UserID,
		CartID:          o.CartID,
		Status:          o.Status,
		TotalCents:      o.TotalCents,
		ShippingAddress: o.ShippingAddress,
		CreatedAt:       o.CreatedAt,
		Items:           o.Items,
	}
}

type ProductResp struct {
	ProductID  string `json:"product_id"`
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	Stock      int    `json:"stock"`
	PriceCents int    `json:"price_cents"`
	Active     bool   `json:"active"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/orders/{id}/status", h.transition)
	r.Delete("/orders/{id}", h.deleteOrder)
	r.Get("/products/{id}", h.getProduct)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user_id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Coord.PlaceOrder(ctx, req.UserID, req.CartID, req.Items, req.ShippingAddress)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResp(o))
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Coord.Repo.Get(ctx, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *OrdersHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Coord.Repo.GetProduct(ctx, productID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProductResp{
		ProductID:  p.ID,
		SKU:        p.SKU,
		Name:       p.Name,
		Stock:      p.Stock,
		PriceCents: p.PriceCents,
		Active:     p.Active,
	})
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	var req TransitionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing status"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Coord.TransitionStatus(ctx, orderID, orders.Status(req.Status))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Coord.DeleteOrder(ctx, orderID); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
