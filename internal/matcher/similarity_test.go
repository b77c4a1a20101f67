package matcher

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected float64
	}{
		{"identical", "ACH PAYMENT VENDOR", "ACH PAYMENT VENDOR", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "WIRE", "", 0.0},
		{"single substitution", "ABC", "ABD", 1.0 - 1.0/3.0},
		{"completely different", "AAAA", "ZZZZ", 0.0},
		{"prefix", "CHECK", "CHECK 100", 1.0 - 4.0/9.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestSimilarityIsSymmetric(t *testing.T) {
	pairs := [][2]string{
		{"ACH PAYMENT", "ACH PMT"},
		{"WIRE TRANSFER IN", "WIRE TRANSFER OUT"},
		{"", "DEPOSIT"},
	}

	for _, pair := range pairs {
		forward := Similarity(pair[0], pair[1])
		backward := Similarity(pair[1], pair[0])
		if math.Abs(forward-backward) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %f but reversed = %f", pair[0], pair[1], forward, backward)
		}
	}
}

func TestSimilarityStaysInRange(t *testing.T) {
	pairs := [][2]string{
		{"A", "ZZZZZZZZZZZZ"},
		{"SHORT", "A MUCH LONGER DESCRIPTION ENTIRELY"},
		{"SAME", "SAME"},
	}

	for _, pair := range pairs {
		got := Similarity(pair[0], pair[1])
		if got < 0.0 || got > 1.0 {
			t.Errorf("Similarity(%q, %q) = %f, outside [0, 1]", pair[0], pair[1], got)
		}
	}
}
