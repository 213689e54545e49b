package entity

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// SchemeKind names a pricing scheme variant.
type SchemeKind string

const (
	SchemeTurnkey             SchemeKind = "turnkey"
	SchemeFlatRateUnit        SchemeKind = "flat_rate_unit"
	SchemeHourlyTimeMaterials SchemeKind = "hourly_time_materials"
	SchemeProductionBased     SchemeKind = "production_based"
	SchemeRateBasedSqft       SchemeKind = "rate_based_sqft"
)

// PricingScheme is the closed set of pricing scheme definitions. Only the variants in
// this file implement it. Consumers handle variants through SchemeVisitor, so adding a
// variant breaks every visitor until it is handled.
type PricingScheme interface {
	Kind() SchemeKind
	Visit(v SchemeVisitor) error
	isPricingScheme()
}

// SchemeVisitor has one method per scheme variant.
type SchemeVisitor interface {
	Turnkey(s TurnkeyScheme) error
	FlatRateUnit(s FlatRateUnitScheme) error
	HourlyTimeMaterials(s HourlyTimeMaterialsScheme) error
	ProductionBased(s ProductionBasedScheme) error
	RateBasedSqft(s RateBasedSqftScheme) error
}

// MaterialDefaults price paint for surfaces without a bound product.
type MaterialDefaults struct {
	Coverage      decimal.Decimal `json:"coverage"`
	CostPerGallon decimal.Decimal `json:"cost_per_gallon"`
}

// Enabled reports whether defaults are configured.
func (m MaterialDefaults) Enabled() bool {
	return m.Coverage.IsPositive()
}

// TurnkeyScheme prices labor at a per-category rate with no separate materials.
type TurnkeyScheme struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

// FlatRateUnitScheme prices each counted item at a per-category unit rate.
type FlatRateUnitScheme struct {
	UnitRates map[string]decimal.Decimal `json:"unit_rates"`
}

// HourlyTimeMaterialsScheme bills crew hours plus paint.
type HourlyTimeMaterialsScheme struct {
	HourlyRate   decimal.Decimal            `json:"hourly_rate"`
	CrewSize     int                        `json:"crew_size"`
	HoursPerUnit map[string]decimal.Decimal `json:"hours_per_unit"`
	Material     MaterialDefaults           `json:"material"`
}

// ProductionBasedScheme derives hours from per-category production rates.
type ProductionBasedScheme struct {
	HourlyRate      decimal.Decimal            `json:"hourly_rate"`
	ProductionRates map[string]decimal.Decimal `json:"production_rates"`
	Material        MaterialDefaults           `json:"material"`
}

// RateBasedSqftScheme prices labor per measured unit plus paint.
type RateBasedSqftScheme struct {
	LaborRates map[string]decimal.Decimal `json:"labor_rates"`
	Material   MaterialDefaults           `json:"material"`
}

func (TurnkeyScheme) Kind() SchemeKind             { return SchemeTurnkey }
func (FlatRateUnitScheme) Kind() SchemeKind        { return SchemeFlatRateUnit }
func (HourlyTimeMaterialsScheme) Kind() SchemeKind { return SchemeHourlyTimeMaterials }
func (ProductionBasedScheme) Kind() SchemeKind     { return SchemeProductionBased }
func (RateBasedSqftScheme) Kind() SchemeKind       { return SchemeRateBasedSqft }

func (s TurnkeyScheme) Visit(v SchemeVisitor) error             { return v.Turnkey(s) }
func (s FlatRateUnitScheme) Visit(v SchemeVisitor) error        { return v.FlatRateUnit(s) }
func (s HourlyTimeMaterialsScheme) Visit(v SchemeVisitor) error { return v.HourlyTimeMaterials(s) }
func (s ProductionBasedScheme) Visit(v SchemeVisitor) error     { return v.ProductionBased(s) }
func (s RateBasedSqftScheme) Visit(v SchemeVisitor) error       { return v.RateBasedSqft(s) }

func (TurnkeyScheme) isPricingScheme()             {}
func (FlatRateUnitScheme) isPricingScheme()        {}
func (HourlyTimeMaterialsScheme) isPricingScheme() {}
func (ProductionBasedScheme) isPricingScheme()     {}
func (RateBasedSqftScheme) isPricingScheme()       {}

// schemeEnvelope is the stored form of a scheme definition.
type schemeEnvelope struct {
	Type   SchemeKind      `json:"type"`
	Params json.RawMessage `json:"params"`
}

// EncodeScheme serializes a scheme with its variant tag.
func EncodeScheme(s PricingScheme) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("nil pricing scheme")
	}
	params, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s params: %w", s.Kind(), err)
	}
	return json.Marshal(schemeEnvelope{Type: s.Kind(), Params: params})
}

// DecodeScheme parses a tagged scheme definition.
func DecodeScheme(data []byte) (PricingScheme, error) {
	var env schemeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode pricing scheme: %w", err)
	}

	var (
		scheme PricingScheme
		err    error
	)
	switch env.Type {
	case SchemeTurnkey:
		var s TurnkeyScheme
		err = json.Unmarshal(env.Params, &s)
		scheme = s
	case SchemeFlatRateUnit:
		var s FlatRateUnitScheme
		err = json.Unmarshal(env.Params, &s)
		scheme = s
	case SchemeHourlyTimeMaterials:
		var s HourlyTimeMaterialsScheme
		err = json.Unmarshal(env.Params, &s)
		scheme = s
	case SchemeProductionBased:
		var s ProductionBasedScheme
		err = json.Unmarshal(env.Params, &s)
		scheme = s
	case SchemeRateBasedSqft:
		var s RateBasedSqftScheme
		err = json.Unmarshal(env.Params, &s)
		scheme = s
	default:
		return nil, fmt.Errorf("unknown pricing scheme type %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s params: %w", env.Type, err)
	}
	return scheme, nil
}
