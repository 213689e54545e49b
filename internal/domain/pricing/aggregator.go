package pricing

import (
	"fmt"

	"github.com/brushline/paintquote/internal/domain/apperr"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DefaultEpsilon is the largest rounding drift accepted between reported and recomputed totals.
var DefaultEpsilon = decimal.New(1, -2)

// TenantPricing is the tenant side of a quote's pricing inputs.
type TenantPricing struct {
	Scheme         entity.PricingScheme
	Rates          entity.Rates
	AllowZeroPrice bool
}

// QuoteTotals holds one priced total per tier of the strategy.
type QuoteTotals struct {
	Strategy entity.ProductStrategy
	Tiers    []entity.TierTotal
}

// Tier returns the totals of one tier.
func (q QuoteTotals) Tier(tier entity.Tier) (entity.TierTotal, bool) {
	for _, t := range q.Tiers {
		if t.Tier == tier {
			return t, true
		}
	}
	return entity.TierTotal{}, false
}

// Aggregate prices areas once per tier of strategy and applies markup, zip markup and tax.
func Aggregate(tenant TenantPricing, areas []entity.Area, strategy entity.ProductStrategy, selections []entity.ProductSelection) (QuoteTotals, error) {
	if !strategy.IsValid() {
		return QuoteTotals{}, apperr.Validation("product_strategy", "unknown strategy %q", strategy)
	}
	if err := validateRates(tenant.Rates); err != nil {
		return QuoteTotals{}, err
	}
	index, err := indexSelections(areas, strategy, selections, tenant.AllowZeroPrice)
	if err != nil {
		return QuoteTotals{}, err
	}

	totals := QuoteTotals{Strategy: strategy}
	for _, tier := range strategy.Tiers() {
		resolver := func(areaID, surfaceID string) (entity.Product, bool) {
			p, ok := index[surfaceKey{areaID, surfaceID}][tier]
			return p, ok
		}

		breakdown, err := Evaluate(tenant.Scheme, areas, resolver)
		if err != nil {
			return QuoteTotals{}, err
		}

		tt := ApplyRates(breakdown.Subtotal(), tenant.Rates)
		tt.Tier = tier
		tt.Surfaces = breakdown.Surfaces
		totals.Tiers = append(totals.Tiers, tt)
	}

	return totals, nil
}

// ApplyRates applies markup, zip markup and tax in that order, each on the running total
// before it, rounding every component to cents.
func ApplyRates(subtotal decimal.Decimal, rates entity.Rates) entity.TierTotal {
	subtotal = subtotal.Round(2)
	markup := percentOf(subtotal, rates.MarkupPercent)
	running := subtotal.Add(markup)
	zip := percentOf(running, rates.ZipMarkupPercent)
	running = running.Add(zip)
	tax := percentOf(running, rates.TaxPercent)

	return entity.TierTotal{
		Subtotal:  subtotal,
		Markup:    markup,
		ZipMarkup: zip,
		Tax:       tax,
		Total:     running.Add(tax),
	}
}

// Reconcile checks that a tier's components add up within epsilon.
func Reconcile(t entity.TierTotal, epsilon decimal.Decimal) error {
	sum := decimal.Zero
	for _, s := range t.Surfaces {
		sum = sum.Add(s.LaborCost).Add(s.MaterialCost)
	}
	if len(t.Surfaces) > 0 && sum.Sub(t.Subtotal).Abs().GreaterThan(epsilon) {
		return apperr.Validation(fmt.Sprintf("totals.%s.subtotal", t.Tier),
			"subtotal %s does not match surface sum %s", t.Subtotal.StringFixed(2), sum.StringFixed(2))
	}

	expected := t.Subtotal.Add(t.Markup).Add(t.ZipMarkup).Add(t.Tax)
	if expected.Sub(t.Total).Abs().GreaterThan(epsilon) {
		return apperr.Validation(fmt.Sprintf("totals.%s.total", t.Tier),
			"total %s does not match components %s", t.Total.StringFixed(2), expected.StringFixed(2))
	}
	return nil
}

// RequireProducts checks that every surface of a good/better/best quote has a selection
// resolving all three tiers. Single quotes may fall back to scheme material defaults.
func RequireProducts(areas []entity.Area, strategy entity.ProductStrategy, selections []entity.ProductSelection) error {
	if strategy != entity.StrategyGBB {
		return nil
	}
	bound := make(map[surfaceKey]map[entity.Tier]entity.Product, len(selections))
	for _, sel := range selections {
		bound[surfaceKey{sel.AreaID, sel.SurfaceID}] = sel.Products
	}
	for i, a := range areas {
		for j, s := range a.Surfaces {
			field := fmt.Sprintf("areas[%d].surfaces[%d]", i, j)
			products, ok := bound[surfaceKey{a.ID, s.ID}]
			if !ok {
				return apperr.Validation(field, "no product selected for surface %s/%s", a.ID, s.ID)
			}
			for _, tier := range entity.GBBTiers {
				if _, ok := products[tier]; !ok {
					return apperr.Validation(field+".products."+string(tier), "missing tier")
				}
			}
		}
	}
	return nil
}

// VerifyClaim compares a client-reported total with the recomputed one.
func VerifyClaim(tier entity.Tier, claimed decimal.Decimal, computed entity.TierTotal, epsilon decimal.Decimal) error {
	if claimed.Sub(computed.Total).Abs().GreaterThan(epsilon) {
		return apperr.Validation(fmt.Sprintf("totals.%s.total", tier),
			"reported %s, computed %s", claimed.StringFixed(2), computed.Total.StringFixed(2))
	}
	return nil
}

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred).Round(2)
}

func validateRates(r entity.Rates) error {
	if r.MarkupPercent.IsNegative() {
		return apperr.Validation("rates.markup_percent", "must not be negative")
	}
	if r.ZipMarkupPercent.IsNegative() {
		return apperr.Validation("rates.zip_markup_percent", "must not be negative")
	}
	if r.TaxPercent.IsNegative() {
		return apperr.Validation("rates.tax_percent", "must not be negative")
	}
	return nil
}

type surfaceKey struct {
	areaID    string
	surfaceID string
}

// indexSelections validates selections against areas and strategy and keys them by surface.
// Single-strategy selections are normalized to the standard tier.
func indexSelections(areas []entity.Area, strategy entity.ProductStrategy, selections []entity.ProductSelection, allowZeroPrice bool) (map[surfaceKey]map[entity.Tier]entity.Product, error) {
	known := make(map[surfaceKey]bool)
	for _, a := range areas {
		for _, s := range a.Surfaces {
			known[surfaceKey{a.ID, s.ID}] = true
		}
	}

	index := make(map[surfaceKey]map[entity.Tier]entity.Product, len(selections))
	for i, sel := range selections {
		field := fmt.Sprintf("selections[%d]", i)
		key := surfaceKey{sel.AreaID, sel.SurfaceID}
		if !known[key] {
			return nil, apperr.Validation(field, "unknown surface %s/%s", sel.AreaID, sel.SurfaceID)
		}
		if _, dup := index[key]; dup {
			return nil, apperr.Validation(field, "duplicate selection for surface %s/%s", sel.AreaID, sel.SurfaceID)
		}

		products := make(map[entity.Tier]entity.Product, len(sel.Products))
		switch strategy {
		case entity.StrategyGBB:
			for _, tier := range entity.GBBTiers {
				p, ok := sel.Products[tier]
				if !ok {
					return nil, apperr.Validation(fmt.Sprintf("%s.products.%s", field, tier), "missing tier")
				}
				products[tier] = p
			}
		case entity.StrategySingle:
			if len(sel.Products) != 1 {
				return nil, apperr.Validation(field+".products", "single strategy takes exactly one product, got %d", len(sel.Products))
			}
			for _, p := range sel.Products {
				products[entity.TierStandard] = p
			}
		}

		for tier, p := range products {
			pf := fmt.Sprintf("%s.products.%s", field, tier)
			if p.PricePerGallon.IsNegative() || (!allowZeroPrice && p.PricePerGallon.IsZero()) {
				return nil, apperr.Validation(pf+".price_per_gallon", "must be positive")
			}
			if !p.Coverage.IsPositive() {
				return nil, apperr.Validation(pf+".coverage", "must be positive")
			}
		}
		index[key] = products
	}

	return index, nil
}
