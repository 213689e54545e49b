package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeScheme(t *testing.T) {
	tests := []struct {
		name string
		json string
		kind SchemeKind
	}{
		{"turnkey", `{"type":"turnkey","params":{"rates":{"walls":"3.25"}}}`, SchemeTurnkey},
		{"flat rate", `{"type":"flat_rate_unit","params":{"unit_rates":{"doors":"85"}}}`, SchemeFlatRateUnit},
		{"hourly", `{"type":"hourly_time_materials","params":{"hourly_rate":"65","crew_size":2}}`, SchemeHourlyTimeMaterials},
		{"production", `{"type":"production_based","params":{"hourly_rate":"60","production_rates":{"walls":"150"}}}`, SchemeProductionBased},
		{"sqft", `{"type":"rate_based_sqft","params":{"labor_rates":{"walls":"5"},"material":{"coverage":"350","cost_per_gallon":"40"}}}`, SchemeRateBasedSqft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := DecodeScheme([]byte(tt.json))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, s.Kind())
		})
	}
}

func TestDecodeScheme_UnknownType(t *testing.T) {
	_, err := DecodeScheme([]byte(`{"type":"per_room","params":{}}`))
	assert.ErrorContains(t, err, `unknown pricing scheme type "per_room"`)
}

func TestEncodeScheme_KeepsParams(t *testing.T) {
	in := RateBasedSqftScheme{
		LaborRates: map[string]decimal.Decimal{"walls": decimal.NewFromInt(5)},
		Material: MaterialDefaults{
			Coverage:      decimal.NewFromInt(350),
			CostPerGallon: decimal.NewFromInt(40),
		},
	}

	data, err := EncodeScheme(in)
	require.NoError(t, err)

	out, err := DecodeScheme(data)
	require.NoError(t, err)

	got, ok := out.(RateBasedSqftScheme)
	require.True(t, ok)
	assert.True(t, got.LaborRates["walls"].Equal(decimal.NewFromInt(5)))
	assert.True(t, got.Material.Enabled())
}

func TestEncodeScheme_Nil(t *testing.T) {
	_, err := EncodeScheme(nil)
	assert.Error(t, err)
}
