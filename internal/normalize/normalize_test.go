// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		token string
		want  float64
		ok    bool
	}{
		{"150", 150, true},
		{"1,704", 1704, true},
		{"1,234,567", 1234567, true},
		{"150,0", 150, true},
		{"12,50", 12.5, true},
		{"12.5", 12.5, true},
		{"1.234,56", 1234.56, true},
		{"1,234.56", 1234.56, true},
		{"1.234.567", 1234567, true},
		{"12,500.00 KGS", 12500, true},
		{"10.611CBM", 10.611, true},
		{"12.5 M3", 12.5, true},
		{"12.5m³", 12.5, true},
		{"2195 CTNS", 2195, true},
		{"１５０", 150, true},
		{".5", 0.5, true},
		{".5 CBM", 0.5, true},
		{"G.W. 2,300.5", 2300.5, true},
		{"N.W.2,100", 2100, true},
		{"-3", 0, false},
		{"+3", 0, false},
		{"(12)", 0, false},
		{"CTNS: -150", 0, false},
		{"", 0, false},
		{"   ", 0, false},
		{"N/A", 0, false},
		{"1.2.3", 0, false},
		{"12,34,5", 0, false},
		{"1,2,3.4.5", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := Parse(tt.token)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		token string
		want  string
		ok    bool
	}{
		{"150,0", "150", true},
		{"1,234.50 KGS", "1234.5", true},
		{"12.500", "12.5", true},
		{"abc", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := Canonical(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"150", "150,0", true},
		{"12.5", "12.50", true},
		{"12.5", "13.0", false},
		{"1,704", "1704", true},
		{"12.5", "n/a", false},
		{"N/A", " n/a ", true},
		{".5", "0.5", true},
		{"-3", "3", false},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}
