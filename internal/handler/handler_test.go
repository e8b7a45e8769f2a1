package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mariet12/Electro-sub001/internal/domain/cart"
	"github.com/Mariet12/Electro-sub001/internal/domain/catalog"
	"github.com/Mariet12/Electro-sub001/internal/domain/notification"
	"github.com/Mariet12/Electro-sub001/internal/domain/order"
	"github.com/Mariet12/Electro-sub001/internal/domain/pricing"
)

// --- In-memory fakes ---

type memCatalog struct {
	products map[string]catalog.Product
}

func (m *memCatalog) List(_ context.Context) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memCatalog) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (m *memCatalog) GetByIDs(_ context.Context, ids []string) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memCatalog) GetCategory(_ context.Context, id string) (*catalog.Category, error) {
	return nil, catalog.ErrNotFound
}

type memRegistry struct {
	banners []pricing.Banner
}

func (m *memRegistry) ListBanners(_ context.Context) ([]pricing.Banner, error) {
	return m.banners, nil
}

type memCartRepo struct {
	lines map[string]map[string]int // userID -> productID -> qty
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{lines: make(map[string]map[string]int)}
}

func (m *memCartRepo) user(id string) map[string]int {
	if m.lines[id] == nil {
		m.lines[id] = make(map[string]int)
	}
	return m.lines[id]
}

func (m *memCartRepo) Upsert(_ context.Context, userID, productID string, qty int) error {
	m.user(userID)[productID] += qty
	return nil
}

func (m *memCartRepo) SetQuantity(_ context.Context, userID, productID string, qty int) error {
	m.user(userID)[productID] = qty
	return nil
}

func (m *memCartRepo) Remove(_ context.Context, userID, productID string) error {
	delete(m.user(userID), productID)
	return nil
}

func (m *memCartRepo) ListByUser(_ context.Context, userID string) ([]cart.Line, error) {
	var out []cart.Line
	for pid, qty := range m.user(userID) {
		out = append(out, cart.Line{UserID: userID, ProductID: pid, Quantity: qty})
	}
	return out, nil
}

type memOrderRepo struct {
	carts  *memCartRepo
	orders map[string]*order.Order
}

func newMemOrderRepo(carts *memCartRepo) *memOrderRepo {
	return &memOrderRepo{carts: carts, orders: make(map[string]*order.Order)}
}

func (m *memOrderRepo) CreateFromCart(_ context.Context, o *order.Order) error {
	if len(m.carts.user(o.UserID)) == 0 {
		return order.ErrEmptyCart
	}
	m.carts.lines[o.UserID] = nil
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *memOrderRepo) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *memOrderRepo) Numbers(_ context.Context) ([]string, error) { return nil, nil }

func (m *memOrderRepo) Transition(_ context.Context, id string, next order.Status, at time.Time) (*order.Order, order.Status, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, "", order.ErrNotFound
	}
	prev := o.Status
	if prev == next {
		return o, prev, nil
	}
	if !prev.CanTransition(next) {
		return nil, "", errors.Wrapf(order.ErrInvalidTransition, "%s -> %s", prev, next)
	}
	o.Status = next
	o.UpdatedAt = at
	return o, prev, nil
}

func (m *memOrderRepo) SetPaymentStatus(_ context.Context, id string, paid bool, at time.Time) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	if o.Status.Terminal() {
		return nil, errors.Wrap(order.ErrInvalidTransition, "payment is frozen")
	}
	o.Paid = paid
	o.UpdatedAt = at
	return o, nil
}

type memNotificationRepo struct {
	rows []notification.Notification
}

func (m *memNotificationRepo) Create(_ context.Context, n *notification.Notification) error {
	m.rows = append(m.rows, *n)
	return nil
}

func (m *memNotificationRepo) ListByReceiver(_ context.Context, receiverID string) ([]notification.Notification, error) {
	var out []notification.Notification
	for _, n := range m.rows {
		if n.ReceiverID == receiverID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memNotificationRepo) MarkRead(_ context.Context, id, receiverID string) error {
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].ReceiverID == receiverID {
			m.rows[i].Read = true
			return nil
		}
	}
	return notification.ErrNotFound
}

func (m *memNotificationRepo) UnreadCount(_ context.Context, receiverID string) (int, error) {
	count := 0
	for _, n := range m.rows {
		if n.ReceiverID == receiverID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (m *memNotificationRepo) ListUnpushed(_ context.Context, _ int) ([]notification.Notification, error) {
	return nil, nil
}

func (m *memNotificationRepo) MarkPushed(_ context.Context, _ string, _ time.Time) error { return nil }

func (m *memNotificationRepo) TokensByUser(_ context.Context, _ string) ([]string, error) { return nil, nil }

func (m *memNotificationRepo) RegisterToken(_ context.Context, _, _ string) error { return nil }

// --- Fixture ---

type fixture struct {
	catalog       *memCatalog
	carts         *memCartRepo
	orders        *memOrderRepo
	notifications *memNotificationRepo
	srv           http.Handler
}

type nopNotifier struct{}

func (nopNotifier) OrderPlaced(_ context.Context, _ *order.Order)                       {}
func (nopNotifier) OrderStatusChanged(_ context.Context, _ *order.Order, _ order.Status) {}

func newFixture(banners []pricing.Banner, products ...catalog.Product) *fixture {
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	f := &fixture{
		catalog:       &memCatalog{products: byID},
		carts:         newMemCartRepo(),
		notifications: &memNotificationRepo{},
	}
	f.orders = newMemOrderRepo(f.carts)
	registry := &memRegistry{banners: banners}

	cartSvc := cart.NewService(f.carts, f.catalog, registry)
	checkoutSvc := order.NewCheckoutService(f.orders, f.carts, f.catalog, registry,
		order.NewNumberGenerator(nil), nopNotifier{})
	lifecycleSvc := order.NewLifecycleService(f.orders, nopNotifier{})

	h := New(f.catalog, registry, cartSvc, checkoutSvc, lifecycleSvc, f.orders, f.notifications)
	f.srv = h.Routes()
	return f
}

func (f *fixture) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *strings.Reader
	if body == "" {
		rd = strings.NewReader("{}")
	} else {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func testProduct(id, price string) catalog.Product {
	return catalog.Product{
		ID:         id,
		Name:       "Product " + id,
		Price:      decimal.RequireFromString(price),
		CategoryID: "c1",
	}
}

func liveBanner(id, percent string) pricing.Banner {
	return pricing.Banner{
		ID:           id,
		Scope:        pricing.ScopeGlobal,
		DiscountType: pricing.DiscountPercentage,
		Value:        decimal.RequireFromString(percent),
		StartsAt:     time.Now().Add(-time.Hour),
		EndsAt:       time.Now().Add(time.Hour),
		Active:       true,
	}
}

// --- Tests ---

func TestListProducts_WithDiscount(t *testing.T) {
	f := newFixture([]pricing.Banner{liveBanner("b1", "10")}, testProduct("p1", "100.00"))

	rec := f.do(t, http.MethodGet, "/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out []productDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Len(t, out, 1)
	assert.True(t, out[0].Price.HasDiscount)
	assert.True(t, decimal.RequireFromString("90.00").Equal(out[0].Price.EffectivePrice))
}

func TestGetProduct_NoDiscountSerialization(t *testing.T) {
	f := newFixture(nil, testProduct("p1", "100.00"))

	rec := f.do(t, http.MethodGet, "/products/p1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	// omitempty never fires on struct-typed fields, so discountValue is
	// always serialized; without a discount it must carry zero, and the
	// string-keyed banner fields must be absent.
	body := rec.Body.String()
	assert.Contains(t, body, `"discountValue":"0"`)
	assert.NotContains(t, body, `"bannerId"`)
	assert.NotContains(t, body, `"discountType"`)

	var out productDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.False(t, out.Price.HasDiscount)
	assert.True(t, out.Price.DiscountValue.IsZero())
}

func TestGetProduct_NotFound(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodGet, "/products/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCart_RequiresUser(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodGet, "/cart", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAddCartItem_InvalidQuantity(t *testing.T) {
	f := newFixture(nil, testProduct("p1", "10.00"))

	rec := f.do(t, http.MethodPost, "/cart/items", "u1", `{"productId":"p1","quantity":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodPost, "/checkout", "u1", `{"shipping":{"fullName":"Jane"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckout_PlacesOrderAndClearsCart(t *testing.T) {
	f := newFixture([]pricing.Banner{liveBanner("b1", "10")}, testProduct("p1", "100.00"))

	rec := f.do(t, http.MethodPost, "/cart/items", "u1", `{"productId":"p1","quantity":2}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodPost, "/checkout", "u1", `{"shipping":{"fullName":"Jane Doe","city":"Springfield"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var o orderDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&o))
	assert.Equal(t, "pending", o.Status)
	assert.True(t, decimal.RequireFromString("180.00").Equal(o.Total))
	assert.True(t, strings.HasPrefix(o.Number, "EL-"))

	// Cart is cleared by the checkout.
	rec = f.do(t, http.MethodGet, "/cart", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var c cartDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&c))
	assert.Empty(t, c.Lines)
}

func TestGetOrder_OtherUserHidden(t *testing.T) {
	f := newFixture(nil, testProduct("p1", "10.00"))

	f.do(t, http.MethodPost, "/cart/items", "u1", `{"productId":"p1","quantity":1}`)
	rec := f.do(t, http.MethodPost, "/checkout", "u1", `{"shipping":{}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var o orderDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&o))

	rec = f.do(t, http.MethodGet, "/orders/"+o.ID, "u2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/orders/"+o.ID, "u1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateOrderStatus_IllegalEdge(t *testing.T) {
	f := newFixture(nil, testProduct("p1", "10.00"))

	f.do(t, http.MethodPost, "/cart/items", "u1", `{"productId":"p1","quantity":1}`)
	rec := f.do(t, http.MethodPost, "/checkout", "u1", `{"shipping":{}}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var o orderDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&o))

	// pending -> shipped skips processing.
	rec = f.do(t, http.MethodPost, "/orders/"+o.ID+"/status", "u1", `{"status":"shipped"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodPost, "/orders/"+o.ID+"/status", "u1", `{"status":"processing"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&o))
	assert.Equal(t, "processing", o.Status)
}

func TestNotifications_UnreadCount(t *testing.T) {
	f := newFixture(nil)
	f.notifications.rows = []notification.Notification{
		{ID: "n1", ReceiverID: "u1"},
		{ID: "n2", ReceiverID: "u1", Read: true},
		{ID: "n3", ReceiverID: "u2"},
	}

	rec := f.do(t, http.MethodGet, "/notifications/unread-count", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]int
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, 1, out["unread"])
}

func TestRegisterDevice_MissingToken(t *testing.T) {
	f := newFixture(nil)

	rec := f.do(t, http.MethodPost, "/devices", "u1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
