// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/shipcheck/pkg/types"
)

// cv builds ConfirmedValues for a single field; a nil entry means the slot
// was not uploaded.
func cv(f types.Field, a, b, c *string) types.ConfirmedValues {
	out := types.ConfirmedValues{}
	for i, v := range []*string{a, b, c} {
		if v == nil {
			continue
		}
		out[types.Slots[i]] = map[types.Field]types.ConfirmedValue{f: {Value: *v}}
	}
	return out
}

func s(v string) *string { return &v }

func find(t *testing.T, rep types.ComparisonReport, f types.Field) types.ComparisonResult {
	t.Helper()
	for _, c := range rep.Comparisons {
		if c.Field == f {
			return c
		}
	}
	require.FailNow(t, "field not in report", f)
	return types.ComparisonResult{}
}

func TestCompareField(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c *string
		status  types.ComparisonStatus
		matched string
		message string
	}{
		{name: "decimal comma equal", a: s("150"), b: s("150,0"), status: types.StatusSuccess, matched: "150"},
		{name: "three way mismatch", a: s("12.5"), b: s("12.5"), c: s("13.0"), status: types.StatusError, message: "Mismatch: A=12.5, B=12.5, C=13.0"},
		{name: "single value", a: s("150"), status: types.StatusMissing, message: "Only Doc A has a value"},
		{name: "single value among empties", a: s(""), b: s("150"), c: s(" "), status: types.StatusMissing},
		{name: "no values", a: s(""), b: s(""), status: types.StatusMissing, message: "No values found in any document"},
		{name: "present document lacks value", a: s("2,300.50"), b: s("2300.5"), c: s(""), status: types.StatusPartial, matched: "2300.5", message: "Match (Doc C missing)"},
		{name: "absent document is not partial", a: s("75"), c: s("75"), status: types.StatusSuccess, matched: "75"},
		{name: "disagreement with a gap", a: s("75"), b: s(""), c: s("76"), status: types.StatusError},
		{name: "no tolerance", a: s("12.61"), b: s("12.611"), status: types.StatusError},
		{name: "text values fold case", a: s("N/A "), b: s("n/a"), status: types.StatusSuccess, matched: "N/A"},
		{name: "text never equals number", a: s("12"), b: s("twelve"), status: types.StatusError},
		{name: "units and thousands", a: s("1,800 KGS"), b: s("1800"), status: types.StatusSuccess, matched: "1800"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := Compare(cv(types.FieldCBM, tt.a, tt.b, tt.c))
			got := find(t, rep, types.FieldCBM)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, types.FieldCBM.Label(), got.Label)
			if tt.matched != "" {
				assert.Equal(t, tt.matched, got.MatchedValue)
			}
			if tt.message != "" {
				assert.Equal(t, tt.message, got.Message)
			}
			assert.False(t, rep.AllMatch)
		})
	}
}

func TestCompareReportsEverySlot(t *testing.T) {
	rep := Compare(cv(types.FieldCBM, s("12.5"), s("12.5"), s("13.0")))
	got := find(t, rep, types.FieldCBM)
	require.Len(t, got.Values, 3)
	assert.Equal(t, "12.5", *got.Values[types.SlotA])
	assert.Equal(t, "12.5", *got.Values[types.SlotB])
	assert.Equal(t, "13.0", *got.Values[types.SlotC])

	rep = Compare(cv(types.FieldCBM, s("12.5"), s("12.5"), nil))
	got = find(t, rep, types.FieldCBM)
	assert.Nil(t, got.Values[types.SlotC])
}

func TestCompareAllMatch(t *testing.T) {
	all := func(v string) map[types.Field]types.ConfirmedValue {
		m := map[types.Field]types.ConfirmedValue{}
		for _, f := range types.Fields {
			m[f] = types.ConfirmedValue{Value: v, Label: f.Label()}
		}
		return m
	}
	rep := Compare(types.ConfirmedValues{types.SlotA: all("10"), types.SlotB: all("10.0"), types.SlotC: all("10")})
	assert.True(t, rep.AllMatch)
	require.Len(t, rep.Comparisons, 3)
	for _, c := range rep.Comparisons {
		assert.Equal(t, types.StatusSuccess, c.Status)
	}

	partial := all("10")
	partial[types.FieldCartons] = types.ConfirmedValue{}
	rep = Compare(types.ConfirmedValues{types.SlotA: all("10"), types.SlotB: all("10"), types.SlotC: partial})
	assert.False(t, rep.AllMatch)
	assert.Equal(t, types.StatusPartial, find(t, rep, types.FieldCartons).Status)
}

func TestConfirmRoundTrip(t *testing.T) {
	docs := map[types.Slot]types.DocumentResult{
		types.SlotA: {Details: map[types.Field]types.FieldResult{
			types.FieldCartons:     {Value: "150"},
			types.FieldGrossWeight: {Value: "2300.5"},
			types.FieldCBM:         {Value: "12.611"},
		}},
	}
	docs[types.SlotB] = docs[types.SlotA]
	docs[types.SlotC] = docs[types.SlotA]

	rep := Compare(Confirm(docs))
	assert.True(t, rep.AllMatch)
	for _, c := range rep.Comparisons {
		assert.Equal(t, types.StatusSuccess, c.Status, c.Field)
	}
}
