package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/seijikohara/db-tester-sub006/pkg/dataset"
)

func TestEquivalent(t *testing.T) {
	tests := []struct {
		name     string
		expected dataset.Value
		actual   dataset.Value
		want     bool
	}{
		{"null equals null", dataset.Null(), dataset.Null(), true},
		{"null is not empty string", dataset.Null(), dataset.String(""), false},
		{"empty string is not null", dataset.String(""), dataset.Null(), false},
		{"empty equals empty", dataset.String(""), dataset.String(""), true},
		{"identical text", dataset.String("alice"), dataset.String("alice"), true},
		{"different text", dataset.String("abc"), dataset.String("abd"), false},
		{"case matters for text", dataset.String("a"), dataset.String("A"), false},
		{"composed and decomposed match", dataset.String("café"), dataset.String("café"), true},
		{"integer forms", dataset.String("1"), dataset.String("01"), true},
		{"integer and float forms", dataset.String("1"), dataset.String("1.0"), true},
		{"different numbers", dataset.String("1"), dataset.String("2"), false},
		{"large integers compare exactly", dataset.String("9007199254740993"), dataset.String("9007199254740992"), false},
		{"true forms", dataset.String("1"), dataset.String("TRUE"), true},
		{"false forms", dataset.String("0"), dataset.String("FALSE"), true},
		{"bool forms disagree", dataset.String("1"), dataset.String("FALSE"), false},
		{"not a bool", dataset.String("2"), dataset.String("TRUE"), false},
		{"timestamp forms", dataset.String("2024-01-02T15:04:05Z"), dataset.String("2024-01-02 15:04:05"), true},
		{"date and midnight", dataset.String("2024-01-02"), dataset.String("2024-01-02 00:00:00"), true},
		{"different instants", dataset.String("2024-01-02 15:04:05"), dataset.String("2024-01-02 15:04:06"), false},
		{"binary equals binary", dataset.Binary([]byte{1, 2}), dataset.Binary([]byte{1, 2}), true},
		{"binary content differs", dataset.Binary([]byte{1, 2}), dataset.Binary([]byte{1, 3}), false},
		{"text is not binary", dataset.String("ab"), dataset.Binary([]byte("ab")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equivalent(tt.expected, tt.actual))
		})
	}
}
