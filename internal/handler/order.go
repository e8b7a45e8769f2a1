package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Mariet12/Electro-sub001/internal/domain/order"
)

type orderLineDTO struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type shippingDTO struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Note     string `json:"note,omitempty"`
}

type orderDTO struct {
	ID        string          `json:"id"`
	Number    string          `json:"number"`
	Status    string          `json:"status"`
	Paid      bool            `json:"paid"`
	Shipping  shippingDTO     `json:"shipping"`
	Lines     []orderLineDTO  `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func toOrderDTO(o *order.Order) orderDTO {
	lines := make([]orderLineDTO, len(o.Lines))
	for i, l := range o.Lines {
		lines[i] = orderLineDTO{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.LineTotal,
		}
	}
	return orderDTO{
		ID:     o.ID,
		Number: o.Number,
		Status: string(o.Status),
		Paid:   o.Paid,
		Shipping: shippingDTO{
			FullName: o.Shipping.FullName,
			Phone:    o.Shipping.Phone,
			Email:    o.Shipping.Email,
			Address:  o.Shipping.Address,
			City:     o.Shipping.City,
			Note:     o.Shipping.Note,
		},
		Lines:     lines,
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

type checkoutRequest struct {
	Shipping shippingDTO `json:"shipping"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req checkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.checkout.Checkout(r.Context(), uid, order.Shipping{
		FullName: req.Shipping.FullName,
		Phone:    req.Shipping.Phone,
		Email:    req.Shipping.Email,
		Address:  req.Shipping.Address,
		City:     req.Shipping.City,
		Note:     req.Shipping.Note,
	})
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toOrderDTO(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), uid)
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	out := make([]orderDTO, len(orders))
	for i := range orders {
		out[i] = toOrderDTO(&orders[i])
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	o, err := h.orders.GetByID(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	if o.UserID != uid {
		respondErr(w, http.StatusNotFound, "not found")
		return
	}
	respondJSON(w, http.StatusOK, toOrderDTO(o))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// updateOrderStatus is an operator action; the gateway restricts access.
func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	next, err := order.ParseStatus(req.Status)
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}

	o, err := h.lifecycle.Transition(r.Context(), chi.URLParam(r, "orderID"), next)
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderDTO(o))
}

type updatePaymentRequest struct {
	Paid bool `json:"paid"`
}

// updateOrderPayment is an operator action; the gateway restricts access.
func (h *Handler) updateOrderPayment(w http.ResponseWriter, r *http.Request) {
	var req updatePaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := h.lifecycle.SetPaymentStatus(r.Context(), chi.URLParam(r, "orderID"), req.Paid)
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderDTO(o))
}
