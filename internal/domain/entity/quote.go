package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Surface is one measured surface inside an area.
type Surface struct {
	ID             string              `json:"id"`
	Category       string              `json:"category"`
	Unit           MeasurementUnit     `json:"unit"`
	Quantity       decimal.Decimal     `json:"quantity"`
	EstimatedHours decimal.NullDecimal `json:"estimated_hours"`
}

// Area is a named region of the property.
type Area struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Surfaces []Surface `json:"surfaces"`
}

// Product is a paint product offered at a tier.
type Product struct {
	ID             string          `json:"id"`
	Brand          string          `json:"brand"`
	Name           string          `json:"name"`
	Sheen          string          `json:"sheen"`
	Color          string          `json:"color"`
	PricePerGallon decimal.Decimal `json:"price_per_gallon"`
	Coverage       decimal.Decimal `json:"coverage"`
}

// ProductSelection binds tiered products to one surface of one area.
type ProductSelection struct {
	AreaID    string           `json:"area_id"`
	SurfaceID string           `json:"surface_id"`
	Products  map[Tier]Product `json:"products"`
}

// SurfaceCost is the priced result for one surface.
type SurfaceCost struct {
	AreaID       string          `json:"area_id"`
	SurfaceID    string          `json:"surface_id"`
	Category     string          `json:"category"`
	LaborCost    decimal.Decimal `json:"labor_cost"`
	Gallons      int64           `json:"gallons"`
	MaterialCost decimal.Decimal `json:"material_cost"`
}

// TierTotal is the priced result for one tier of a quote.
type TierTotal struct {
	Tier      Tier            `json:"tier"`
	Surfaces  []SurfaceCost   `json:"surfaces"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Markup    decimal.Decimal `json:"markup"`
	ZipMarkup decimal.Decimal `json:"zip_markup"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
}

// Rates are the tenant percentages applied on top of the subtotal.
type Rates struct {
	MarkupPercent    decimal.Decimal `json:"markup_percent"`
	ZipMarkupPercent decimal.Decimal `json:"zip_markup_percent"`
	TaxPercent       decimal.Decimal `json:"tax_percent"`
}

// Quote is a priced proposal sent to a homeowner.
type Quote struct {
	ID              string             `json:"id"`
	TenantID        string             `json:"tenant_id"`
	QuoteNumber     string             `json:"quote_number"`
	Year            int                `json:"year"`
	Sequence        int                `json:"sequence"`
	Version         int                `json:"version"`
	ParentQuoteID   string             `json:"parent_quote_id,omitempty"`
	CustomerName    string             `json:"customer_name"`
	CustomerEmail   string             `json:"customer_email"`
	PropertyAddress string             `json:"property_address"`
	ZipCode         string             `json:"zip_code"`
	Status          QuoteStatus        `json:"status"`
	IsActive        bool               `json:"is_active"`
	Scheme          PricingScheme      `json:"-"`
	Strategy        ProductStrategy    `json:"product_strategy"`
	Rates           Rates              `json:"rates"`
	Areas           []Area             `json:"areas"`
	Selections      []ProductSelection `json:"selections"`
	Totals          []TierTotal        `json:"totals"`
	AcceptedTier    Tier               `json:"accepted_tier,omitempty"`
	CreatedBy       string             `json:"created_by"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	SentAt          *time.Time         `json:"sent_at,omitempty"`
	ViewedAt        *time.Time         `json:"viewed_at,omitempty"`
	AcceptedAt      *time.Time         `json:"accepted_at,omitempty"`
	DeclinedAt      *time.Time         `json:"declined_at,omitempty"`
	ArchivedAt      *time.Time         `json:"archived_at,omitempty"`
}

// TotalFor returns the priced totals of tier.
func (q *Quote) TotalFor(tier Tier) (TierTotal, bool) {
	for _, t := range q.Totals {
		if t.Tier == tier {
			return t, true
		}
	}
	return TierTotal{}, false
}

// IsEditable reports whether areas and selections may still change in place.
func (q *Quote) IsEditable() bool {
	return q.Status == QuoteDraft
}
