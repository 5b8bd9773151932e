package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"printshop-assistant/internal/services"
)

func TestParseSizes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]int
	}{
		{
			name: "plain breakdown",
			text: "I need 12 small and 8 medium shirts",
			want: map[string]int{"s": 12, "m": 8},
		},
		{
			name: "abbreviations",
			text: "10 M, 5 XL and 3 2XL",
			want: map[string]int{"m": 10, "xl": 5, "2xl": 3},
		},
		{
			name: "repeated size accumulates",
			text: "6 large now and 4 large later",
			want: map[string]int{"l": 10},
		},
		{
			name: "extra large spelled out",
			text: "give me 7 extra large",
			want: map[string]int{"xl": 7},
		},
		{
			name: "no sizes",
			text: "how much does it cost?",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, services.ParseSizes(tt.text))
		})
	}
}

func TestExtractEmail(t *testing.T) {
	assert.Equal(t, "jane.doe@example.com", services.ExtractEmail("reach me at jane.doe@example.com please"))
	assert.Equal(t, "", services.ExtractEmail("no email here"))
}

func TestExtractDate(t *testing.T) {
	assert.Equal(t, "2026-09-15", services.ExtractDate("we need it by 2026-09-15"))
	assert.Equal(t, "9/15/2026", services.ExtractDate("deliver by 9/15/2026"))
	assert.Equal(t, "September 15, 2026", services.ExtractDate("before September 15, 2026 if possible"))
	assert.Equal(t, "", services.ExtractDate("as soon as you can"))
}

func TestExtractStyleCode(t *testing.T) {
	assert.Equal(t, "G500", services.ExtractStyleCode("the G500 in navy"))
	assert.Equal(t, "PC61", services.ExtractStyleCode("style PC61 please"))
	assert.Equal(t, "", services.ExtractStyleCode("the heavy cotton one"))
}

func TestExtractColor(t *testing.T) {
	assert.Equal(t, "navy", services.ExtractColor("the G500 in Navy"))
	assert.Equal(t, "royal blue", services.ExtractColor("Royal Blue looks great"))
	assert.Equal(t, "", services.ExtractColor("whatever is cheapest"))
}

func TestParsePlacement(t *testing.T) {
	assert.Equal(t, "left_chest", services.ParsePlacement("small logo on the left chest"))
	assert.Equal(t, "full_back", services.ParsePlacement("big print across the full back"))
	assert.Equal(t, "full_front", services.ParsePlacement("put it on the front"))
	assert.Equal(t, "sleeve", services.ParsePlacement("on the sleeve please"))
	assert.Equal(t, "", services.ParsePlacement("wherever looks best"))
}
