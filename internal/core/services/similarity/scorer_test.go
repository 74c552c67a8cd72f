package similarity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"(555) 123-4567", "5551234567"},
		{"+1 555.123.4567 ext 9", "155512345679"},
		{"5551234567", "5551234567"},
		{"call me", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func TestSimilarity_EqualAfterNormalization(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Acme Corp", "Acme Corp"))
	assert.Equal(t, 1.0, Similarity("  ACME corp ", "acme CORP"))
	assert.Equal(t, 1.0, Similarity("ÜNÏCØDÉ LTD", "ünïcødé ltd"))
}

func TestSimilarity_KnownValues(t *testing.T) {
	tests := []struct {
		a, b     string
		expected float64
	}{
		{"kitten", "sitting", 1 - 3.0/7.0},
		{"Acme Corp", "Acme Corp.", 0.9},
		{"Acme Corp", "Acme Corporation", 1 - 7.0/16.0},
		{"1 Main St", "1 Main St.", 0.9},
		{"abc", "xyz", 0},
		{"José", "Jose", 0.75},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s|%s", tt.a, tt.b), func(t *testing.T) {
			assert.InDelta(t, tt.expected, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarity_Properties(t *testing.T) {
	samples := []string{
		"Acme Corp", "Acme Corporation", "ACME", "1 Main St", "One Main Street",
		"John Smith", "Jon Smyth", "Globex", "x", "Ünïcødé Ltd",
	}

	for _, a := range samples {
		assert.Equal(t, 1.0, Similarity(a, a), "reflexive for %q", a)
		for _, b := range samples {
			ab := Similarity(a, b)
			ba := Similarity(b, a)
			assert.Equal(t, ab, ba, "symmetric for %q/%q", a, b)
			assert.GreaterOrEqual(t, ab, 0.0)
			assert.LessOrEqual(t, ab, 1.0)
		}
	}
}

func TestSimilarity_BlankSide(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", "Acme"))
	assert.Equal(t, 0.0, Similarity("Acme", "   "))
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 0, Distance("Acme", "ACME"))
	assert.Equal(t, 3, Distance("kitten", "sitting"))
}

func TestAtLeast(t *testing.T) {
	assert.True(t, AtLeast("Acme Corp", "acme corp.", 0.85))
	assert.False(t, AtLeast("Acme Corp", "Acme Corporation", 0.85))
	assert.False(t, AtLeast("", "", 0.85))
	assert.False(t, AtLeast("Acme", " ", 0.1))
}

func BenchmarkSimilarity(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = Similarity("Acme Corporation International", "ACME Corp. Intl")
	}
}
