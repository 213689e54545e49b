// Package pricing turns area measurements into priced cost breakdowns.
package pricing

import (
	"fmt"

	"github.com/brushline/paintquote/internal/domain/apperr"
	"github.com/brushline/paintquote/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProductResolver returns the product bound to a surface for the tier being priced.
type ProductResolver func(areaID, surfaceID string) (entity.Product, bool)

// NoProducts resolves nothing; scheme material defaults apply everywhere.
func NoProducts(string, string) (entity.Product, bool) { return entity.Product{}, false }

// Breakdown is the per-surface result of one evaluation.
type Breakdown struct {
	Surfaces []entity.SurfaceCost
	Labor    decimal.Decimal
	Material decimal.Decimal
}

// Subtotal is labor plus material.
func (b Breakdown) Subtotal() decimal.Decimal {
	return b.Labor.Add(b.Material)
}

// Evaluate prices every surface of areas under scheme. It has no side effects.
func Evaluate(scheme entity.PricingScheme, areas []entity.Area, products ProductResolver) (Breakdown, error) {
	if scheme == nil {
		return Breakdown{}, apperr.Validation("scheme", "pricing scheme is required")
	}
	if products == nil {
		products = NoProducts
	}
	if err := validateAreas(areas); err != nil {
		return Breakdown{}, err
	}

	e := &evaluator{areas: areas, products: products}
	if err := scheme.Visit(e); err != nil {
		return Breakdown{}, err
	}
	return e.result, nil
}

// Gallons returns the whole gallons needed to cover quantity at coverage per gallon,
// rounded up, with a one gallon minimum for any positive quantity.
func Gallons(quantity, coverage decimal.Decimal) (int64, error) {
	if !coverage.IsPositive() {
		return 0, apperr.Validation("coverage", "must be positive")
	}
	if !quantity.IsPositive() {
		return 0, nil
	}
	quo, rem := quantity.QuoRem(coverage, 0)
	gallons := quo.IntPart()
	if !rem.IsZero() {
		gallons++
	}
	if gallons < 1 {
		gallons = 1
	}
	return gallons, nil
}

func validateAreas(areas []entity.Area) error {
	for i, area := range areas {
		if area.ID == "" {
			return apperr.Validation(fmt.Sprintf("areas[%d].id", i), "is required")
		}
		for j, s := range area.Surfaces {
			field := fmt.Sprintf("areas[%d].surfaces[%d]", i, j)
			if s.ID == "" {
				return apperr.Validation(field+".id", "is required")
			}
			if s.Category == "" {
				return apperr.Validation(field+".category", "is required")
			}
			if !s.Unit.IsValid() {
				return apperr.Validation(field+".unit", "unknown unit %q", s.Unit)
			}
			if s.Quantity.IsNegative() {
				return apperr.Validation(field+".quantity", "must not be negative")
			}
			if s.EstimatedHours.Valid && s.EstimatedHours.Decimal.IsNegative() {
				return apperr.Validation(field+".estimated_hours", "must not be negative")
			}
		}
	}
	return nil
}

// evaluator implements entity.SchemeVisitor
type evaluator struct {
	areas    []entity.Area
	products ProductResolver
	result   Breakdown
}

// laborFunc prices the labor of one surface
type laborFunc func(s entity.Surface) (decimal.Decimal, error)

func (e *evaluator) Turnkey(s entity.TurnkeyScheme) error {
	return e.walk(s.Kind(), func(sf entity.Surface) (decimal.Decimal, error) {
		rate, err := rateFor(s.Kind(), s.Rates, sf.Category)
		if err != nil {
			return decimal.Zero, err
		}
		return rate.Mul(sf.Quantity), nil
	}, nil)
}

func (e *evaluator) FlatRateUnit(s entity.FlatRateUnitScheme) error {
	return e.walk(s.Kind(), func(sf entity.Surface) (decimal.Decimal, error) {
		rate, err := rateFor(s.Kind(), s.UnitRates, sf.Category)
		if err != nil {
			return decimal.Zero, err
		}
		return rate.Mul(sf.Quantity), nil
	}, nil)
}

func (e *evaluator) HourlyTimeMaterials(s entity.HourlyTimeMaterialsScheme) error {
	if s.CrewSize < 1 {
		return apperr.Validation("scheme.crew_size", "must be at least 1")
	}
	if s.HourlyRate.IsNegative() {
		return apperr.Validation("scheme.hourly_rate", "must not be negative")
	}
	crew := decimal.NewFromInt(int64(s.CrewSize))
	return e.walk(s.Kind(), func(sf entity.Surface) (decimal.Decimal, error) {
		hours := sf.EstimatedHours.Decimal
		if !sf.EstimatedHours.Valid {
			perUnit, err := rateFor(s.Kind(), s.HoursPerUnit, sf.Category)
			if err != nil {
				return decimal.Zero, err
			}
			hours = sf.Quantity.Mul(perUnit)
		}
		return s.HourlyRate.Mul(crew).Mul(hours), nil
	}, &s.Material)
}

func (e *evaluator) ProductionBased(s entity.ProductionBasedScheme) error {
	if s.HourlyRate.IsNegative() {
		return apperr.Validation("scheme.hourly_rate", "must not be negative")
	}
	return e.walk(s.Kind(), func(sf entity.Surface) (decimal.Decimal, error) {
		rate, err := rateFor(s.Kind(), s.ProductionRates, sf.Category)
		if err != nil {
			return decimal.Zero, err
		}
		if !rate.IsPositive() {
			return decimal.Zero, apperr.Validation("scheme.production_rates."+sf.Category, "must be positive")
		}
		return sf.Quantity.Div(rate).Mul(s.HourlyRate), nil
	}, &s.Material)
}

func (e *evaluator) RateBasedSqft(s entity.RateBasedSqftScheme) error {
	return e.walk(s.Kind(), func(sf entity.Surface) (decimal.Decimal, error) {
		rate, err := rateFor(s.Kind(), s.LaborRates, sf.Category)
		if err != nil {
			return decimal.Zero, err
		}
		return rate.Mul(sf.Quantity), nil
	}, &s.Material)
}

// walk prices every surface. A nil defaults pointer means the scheme carries no materials.
func (e *evaluator) walk(kind entity.SchemeKind, labor laborFunc, defaults *entity.MaterialDefaults) error {
	var out Breakdown
	out.Labor = decimal.Zero
	out.Material = decimal.Zero

	for _, area := range e.areas {
		for _, sf := range area.Surfaces {
			l, err := labor(sf)
			if err != nil {
				return err
			}
			cost := entity.SurfaceCost{
				AreaID:       area.ID,
				SurfaceID:    sf.ID,
				Category:     sf.Category,
				LaborCost:    l.Round(2),
				MaterialCost: decimal.Zero,
			}

			if defaults != nil {
				gallons, material, err := e.material(kind, area.ID, sf, *defaults)
				if err != nil {
					return fmt.Errorf("%s: %w", kind, err)
				}
				cost.Gallons = gallons
				cost.MaterialCost = material.Round(2)
			}

			out.Surfaces = append(out.Surfaces, cost)
			out.Labor = out.Labor.Add(cost.LaborCost)
			out.Material = out.Material.Add(cost.MaterialCost)
		}
	}

	e.result = out
	return nil
}

// material prices paint from the bound product, else from the scheme defaults.
// A surface with paint to cover and neither source is a coverage gap.
func (e *evaluator) material(kind entity.SchemeKind, areaID string, sf entity.Surface, defaults entity.MaterialDefaults) (int64, decimal.Decimal, error) {
	coverage, price := defaults.Coverage, defaults.CostPerGallon
	if p, ok := e.products(areaID, sf.ID); ok {
		coverage, price = p.Coverage, p.PricePerGallon
	} else if !defaults.Enabled() {
		if !sf.Quantity.IsPositive() {
			return 0, decimal.Zero, nil
		}
		return 0, decimal.Zero, &apperr.SchemeCoverageError{Scheme: string(kind), Category: sf.Category}
	}

	gallons, err := Gallons(sf.Quantity, coverage)
	if err != nil {
		return 0, decimal.Zero, err
	}
	return gallons, price.Mul(decimal.NewFromInt(gallons)), nil
}

func rateFor(kind entity.SchemeKind, rates map[string]decimal.Decimal, category string) (decimal.Decimal, error) {
	rate, ok := rates[category]
	if !ok {
		return decimal.Zero, &apperr.SchemeCoverageError{Scheme: string(kind), Category: category}
	}
	if rate.IsNegative() {
		return decimal.Zero, apperr.Validation(fmt.Sprintf("scheme.%s", category), "rate must not be negative")
	}
	return rate, nil
}
