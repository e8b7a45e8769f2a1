package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mariet12/Electro-sub001/internal/domain/catalog"
)

var hundred = decimal.NewFromInt(100)

// Decision is the outcome of resolving the effective price for one product
// against the banner set at a single instant.
type Decision struct {
	ProductID      string
	BasePrice      decimal.Decimal
	EffectivePrice decimal.Decimal
	HasDiscount    bool
	BannerID       string
	DiscountType   DiscountType
	DiscountValue  decimal.Decimal
}

// Resolve picks the single winning banner for the product at the given
// instant and returns the resulting price decision.
//
// Candidates are banners that are live at now and whose scope matches the
// product. Among candidates the most specific scope wins (product > category
// > global); equally specific candidates are ranked by lowest resulting
// price, then by lowest banner id. The effective price is floored at zero.
//
// Resolve is a pure function of its inputs. Callers that price several lines
// in one operation must pass the same now for every line so the whole
// operation sees one promotional snapshot.
func Resolve(p catalog.Product, banners []Banner, now time.Time) Decision {
	d := Decision{
		ProductID:      p.ID,
		BasePrice:      p.Price,
		EffectivePrice: p.Price,
	}

	var (
		best      *Banner
		bestPrice decimal.Decimal
	)
	for i := range banners {
		b := &banners[i]
		if !b.Live(now) || !b.Matches(p.ID, p.CategoryID) {
			continue
		}

		price := apply(p.Price, b.DiscountType, b.Value)
		if best == nil || wins(b, price, best, bestPrice) {
			best, bestPrice = b, price
		}
	}

	if best == nil {
		return d
	}

	d.EffectivePrice = bestPrice
	d.HasDiscount = true
	d.BannerID = best.ID
	d.DiscountType = best.DiscountType
	d.DiscountValue = best.Value
	return d
}

// wins reports whether candidate b at price beats the current best.
func wins(b *Banner, price decimal.Decimal, best *Banner, bestPrice decimal.Decimal) bool {
	if s, bs := b.specificity(), best.specificity(); s != bs {
		return s > bs
	}
	if !price.Equal(bestPrice) {
		return price.LessThan(bestPrice)
	}
	return b.ID < best.ID
}

// apply computes the discounted price, floored at zero and rounded to
// 2 decimal places.
func apply(price decimal.Decimal, typ DiscountType, value decimal.Decimal) decimal.Decimal {
	var out decimal.Decimal
	switch typ {
	case DiscountPercentage:
		out = price.Mul(hundred.Sub(value)).Div(hundred)
	case DiscountFixed:
		out = price.Sub(value)
	default:
		return price
	}
	if out.IsNegative() {
		out = decimal.Zero
	}
	return out.Round(2)
}
