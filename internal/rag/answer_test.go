package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanAnswer(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{
			name:   "fragment reference removed",
			answer: "Según el fragmento 2, la tasa es 18%.",
			want:   "La tasa es 18%.",
		},
		{
			name:   "inline fragment tag removed",
			answer: "El plazo es de 48 meses (fragmento 3).",
			want:   "El plazo es de 48 meses.",
		},
		{
			name:   "context phrase removed",
			answer: "Basado en la información proporcionada, se requiere cédula.",
			want:   "Se requiere cédula.",
		},
		{
			name:   "spacing tidied",
			answer: "La tasa  es 18 % , fija .",
			want:   "La tasa es 18 %, fija.",
		},
		{
			name:   "numbered items split",
			answer: "Requisitos: 1. Cédula. 2. Recibo.",
			want:   "Requisitos:\n1. Cédula.\n2. Recibo.",
		},
		{
			name:   "bullets split",
			answer: "Beneficios: - Seguro de vida",
			want:   "Beneficios:\n- Seguro de vida",
		},
		{
			name:   "empty",
			answer: "   ",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanAnswer(tt.answer))
		})
	}
}

func TestFormatLists(t *testing.T) {
	assert.Equal(t, "Pago en G. 300 mil", formatLists("Pago en G.\n300 mil"))
	assert.Equal(t, "1. Uno", formatLists("1.Uno"))
	assert.Equal(t, "Párrafo\n\nOtro", formatLists("Párrafo\n\n\n\nOtro"))
}

func TestSearchQuality(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   string
	}{
		{name: "no scores", scores: nil, want: QualityNone},
		{name: "excellent", scores: []float64{0.3, 0.81}, want: QualityExcellent},
		{name: "boundary is not excellent", scores: []float64{0.8}, want: QualityGood},
		{name: "good", scores: []float64{0.6}, want: QualityGood},
		{name: "fair", scores: []float64{0.5, 0.1}, want: QualityFair},
		{name: "negative", scores: []float64{-0.4}, want: QualityFair},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SearchQuality(tt.scores))
		})
	}
}
