package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type cartLineDTO struct {
	Product   productDTO      `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type cartDTO struct {
	Lines []cartLineDTO   `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func (h *Handler) listCart(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	priced, err := h.carts.List(r.Context(), uid)
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}

	out := cartDTO{Lines: make([]cartLineDTO, len(priced)), Total: decimal.Zero}
	for i, pl := range priced {
		out.Lines[i] = cartLineDTO{
			Product:   toProductDTO(pl.Product, pl.Price),
			Quantity:  pl.Line.Quantity,
			LineTotal: pl.LineTotal,
		}
		out.Total = out.Total.Add(pl.LineTotal)
	}
	respondJSON(w, http.StatusOK, out)
}

type addCartItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req addCartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.carts.Add(r.Context(), uid, req.ProductID, req.Quantity); err != nil {
		respondDomainErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req updateCartItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.carts.Update(r.Context(), uid, chi.URLParam(r, "productID"), req.Quantity); err != nil {
		respondDomainErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r)
	if !ok {
		return
	}

	if err := h.carts.Remove(r.Context(), uid, chi.URLParam(r, "productID")); err != nil {
		respondDomainErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
