// Package handler exposes the pricing and checkout core over a JSON HTTP
// API. Authentication is an external concern: the authenticated user id
// arrives in the X-User-ID header, set by the gateway in front of this
// service.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Mariet12/Electro-sub001/internal/domain/cart"
	"github.com/Mariet12/Electro-sub001/internal/domain/catalog"
	"github.com/Mariet12/Electro-sub001/internal/domain/notification"
	"github.com/Mariet12/Electro-sub001/internal/domain/order"
	"github.com/Mariet12/Electro-sub001/internal/domain/pricing"
)

const userIDHeader = "X-User-ID"

// Handler routes API requests to the domain services.
type Handler struct {
	catalog       catalog.Repository
	banners       pricing.Registry
	carts         *cart.Service
	checkout      *order.CheckoutService
	lifecycle     *order.LifecycleService
	orders        order.Repository
	notifications notification.Repository
}

// New constructs a Handler with the required domain dependencies.
func New(
	cat catalog.Repository,
	banners pricing.Registry,
	carts *cart.Service,
	checkout *order.CheckoutService,
	lifecycle *order.LifecycleService,
	orders order.Repository,
	notifications notification.Repository,
) *Handler {
	return &Handler{
		catalog:       cat,
		banners:       banners,
		carts:         carts,
		checkout:      checkout,
		lifecycle:     lifecycle,
		orders:        orders,
		notifications: notifications,
	}
}

// Routes returns the API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/banners", h.listBanners)

	r.Get("/cart", h.listCart)
	r.Post("/cart/items", h.addCartItem)
	r.Put("/cart/items/{productID}", h.updateCartItem)
	r.Delete("/cart/items/{productID}", h.removeCartItem)

	r.Post("/checkout", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderID}", h.getOrder)
	r.Post("/orders/{orderID}/status", h.updateOrderStatus)
	r.Post("/orders/{orderID}/payment", h.updateOrderPayment)

	r.Get("/notifications", h.listNotifications)
	r.Get("/notifications/unread-count", h.unreadCount)
	r.Post("/notifications/{notificationID}/read", h.markNotificationRead)
	r.Post("/devices", h.registerDevice)

	return r
}

// userID extracts the authenticated user id from the request, or "" when
// the request is anonymous.
func userID(r *http.Request) string {
	return r.Header.Get(userIDHeader)
}
