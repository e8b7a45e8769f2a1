package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/Mariet12/Electro-sub001/internal/domain/catalog"
	"github.com/Mariet12/Electro-sub001/internal/domain/pricing"
)

type priceDecisionDTO struct {
	BasePrice      decimal.Decimal `json:"basePrice"`
	EffectivePrice decimal.Decimal `json:"effectivePrice"`
	HasDiscount    bool            `json:"hasDiscount"`
	BannerID       string          `json:"bannerId,omitempty"`
	DiscountType   string          `json:"discountType,omitempty"`
	DiscountValue  decimal.Decimal `json:"discountValue"`
}

type productDTO struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	CategoryID string           `json:"categoryId"`
	Price      priceDecisionDTO `json:"price"`
}

func toPriceDTO(d pricing.Decision) priceDecisionDTO {
	return priceDecisionDTO{
		BasePrice:      d.BasePrice,
		EffectivePrice: d.EffectivePrice,
		HasDiscount:    d.HasDiscount,
		BannerID:       d.BannerID,
		DiscountType:   string(d.DiscountType),
		DiscountValue:  d.DiscountValue,
	}
}

func toProductDTO(p catalog.Product, d pricing.Decision) productDTO {
	return productDTO{
		ID:         p.ID,
		Name:       p.Name,
		CategoryID: p.CategoryID,
		Price:      toPriceDTO(d),
	}
}

// listProducts returns the catalog decorated with the current discount
// resolution, the same resolver output the cart and checkout paths use.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.catalog.List(ctx)
	if err != nil {
		respondDomainErr(w, r, errors.Wrap(err, "list products"))
		return
	}
	banners, err := h.banners.ListBanners(ctx)
	if err != nil {
		respondDomainErr(w, r, errors.Wrap(err, "list banners"))
		return
	}

	now := time.Now()
	out := make([]productDTO, len(products))
	for i, p := range products {
		out[i] = toProductDTO(p, pricing.Resolve(p, banners, now))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	p, err := h.catalog.GetByID(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		respondDomainErr(w, r, err)
		return
	}
	banners, err := h.banners.ListBanners(ctx)
	if err != nil {
		respondDomainErr(w, r, errors.Wrap(err, "list banners"))
		return
	}

	respondJSON(w, http.StatusOK, toProductDTO(*p, pricing.Resolve(*p, banners, time.Now())))
}

type bannerDTO struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Scope        string          `json:"scope"`
	ProductIDs   []string        `json:"productIds,omitempty"`
	CategoryIDs  []string        `json:"categoryIds,omitempty"`
	DiscountType string          `json:"discountType"`
	Value        decimal.Decimal `json:"value"`
	StartsAt     time.Time       `json:"startsAt"`
	EndsAt       time.Time       `json:"endsAt"`
	Active       bool            `json:"active"`
	Live         bool            `json:"live"`
}

func (h *Handler) listBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.banners.ListBanners(r.Context())
	if err != nil {
		respondDomainErr(w, r, errors.Wrap(err, "list banners"))
		return
	}

	now := time.Now()
	out := make([]bannerDTO, len(banners))
	for i, b := range banners {
		out[i] = bannerDTO{
			ID:           b.ID,
			Title:        b.Title,
			Scope:        string(b.Scope),
			ProductIDs:   b.ProductIDs,
			CategoryIDs:  b.CategoryIDs,
			DiscountType: string(b.DiscountType),
			Value:        b.Value,
			StartsAt:     b.StartsAt,
			EndsAt:       b.EndsAt,
			Active:       b.Active,
			Live:         b.Live(now),
		}
	}
	respondJSON(w, http.StatusOK, out)
}
