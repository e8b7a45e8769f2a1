package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/Mariet12/Electro-sub001/internal/domain/cart"
	"github.com/Mariet12/Electro-sub001/internal/domain/catalog"
	"github.com/Mariet12/Electro-sub001/internal/domain/notification"
	"github.com/Mariet12/Electro-sub001/internal/domain/order"
)

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func respondErr(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, errorResponse{Code: code, Message: message})
}

// respondDomainErr maps domain errors onto HTTP responses. Unexpected errors
// are logged and returned as opaque 500s.
func respondDomainErr(w http.ResponseWriter, r *http.Request, err error) {
	var pnf *order.ProductNotFoundError

	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, notification.ErrNotFound):
		respondErr(w, http.StatusNotFound, "not found")
	case errors.As(err, &pnf):
		respondErr(w, http.StatusUnprocessableEntity, pnf.Error())
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondErr(w, http.StatusUnprocessableEntity, cart.ErrInvalidQuantity.Error())
	case errors.Is(err, order.ErrEmptyCart):
		respondErr(w, http.StatusBadRequest, order.ErrEmptyCart.Error())
	case errors.Is(err, order.ErrInvalidTransition):
		respondErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, order.ErrCartChanged), errors.Is(err, order.ErrNumberTaken):
		respondErr(w, http.StatusConflict, "please retry the operation")
	default:
		zctx.From(r.Context()).Error("internal error", zap.Error(err))
		respondErr(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody decodes a JSON request body into v, responding 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondErr(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// requireUser extracts the user id, responding 401 when missing.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid := userID(r)
	if uid == "" {
		respondErr(w, http.StatusUnauthorized, "missing user identity")
		return "", false
	}
	return uid, true
}
