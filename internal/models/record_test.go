package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNullValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{"nil", nil, true},
		{"empty", "", true},
		{"blank", "   ", true},
		{"nan string", "NaN", true},
		{"null string", "null", true},
		{"none string", "None", true},
		{"nan float", math.NaN(), true},
		{"zero", 0.0, false},
		{"text", "abc", false},
		{"number string", "12.5", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNullValue(tt.in))
		})
	}
}

func TestRecord_Float(t *testing.T) {
	r := NewRecord(map[string]any{
		"a": 12.5,
		"b": "1,234.50",
		"c": "oops",
		"d": nil,
		"e": 7,
		"f": json.Number("3.25"),
	})

	v, err := r.Float("a")
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)

	v, err = r.Float("b")
	require.NoError(t, err)
	assert.Equal(t, 1234.5, v)

	_, err = r.Float("c")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNullValue)

	_, err = r.Float("d")
	assert.ErrorIs(t, err, ErrNullValue)

	_, err = r.Float("missing")
	assert.ErrorIs(t, err, ErrNullValue)

	assert.Equal(t, 7.0, r.FloatOr("e", 0))
	assert.Equal(t, 3.25, r.FloatOr("f", 0))
	assert.Equal(t, -1.0, r.FloatOr("c", -1))
}

func TestToFloat_RejectsInfinity(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"inf string", "inf"},
		{"infinity string", "Infinity"},
		{"negative infinity string", "-infinity"},
		{"positive float", math.Inf(1)},
		{"negative float", math.Inf(-1)},
		{"float32", float32(math.Inf(1))},
		{"overflow", "1e400"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToFloat(tt.in)
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrNullValue)
		})
	}
}

func TestRecord_ExtraDataParsedOnce(t *testing.T) {
	r := NewRecord(map[string]any{
		FieldInvID:     "X1",
		FieldExtraData: `{"description": "Apple Inc", "general_ledger": [{"tran_description": "Fee", "local_amount": "125.5"}]}`,
	})

	_, stillThere := r.Get(FieldExtraData)
	assert.False(t, stillThere)
	assert.Equal(t, "Apple Inc", r.Description())
	require.Len(t, r.Extra.GeneralLedger, 1)
	assert.Equal(t, "Fee", r.Extra.GeneralLedger[0].TranDescription)
	assert.Equal(t, 125.5, float64(r.Extra.GeneralLedger[0].LocalAmount))
}

func TestParseExtraData_RepairsMalformedJSON(t *testing.T) {
	extra := ParseExtraData(`{"description": "Tesla Inc",}`)
	require.NotNil(t, extra.Description)
	assert.Equal(t, "Tesla Inc", *extra.Description)

	assert.True(t, ParseExtraData("").IsZero())
	assert.True(t, ParseExtraData("null").IsZero())
}

func TestRecord_DescriptionFallsBackToColumn(t *testing.T) {
	r := NewRecord(map[string]any{FieldDescription: "  Cash USD  "})
	assert.Equal(t, "Cash USD", r.Description())
}

func TestRecord_JSONRoundTrip(t *testing.T) {
	in := `{"Inv Id":"X","End Qty":5,"End Local Market Price":null,"extra_data":"{\"description\":\"Widget\"}"}`

	var r Record
	require.NoError(t, json.Unmarshal([]byte(in), &r))
	assert.Equal(t, "X", r.String(FieldInvID))
	assert.True(t, r.IsNull(FieldEndPrice))
	assert.Equal(t, "Widget", r.Description())

	out, err := json.Marshal(r)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, map[string]any{"description": "Widget"}, back[FieldExtraData])
	assert.Nil(t, back[FieldEndPrice])
}
