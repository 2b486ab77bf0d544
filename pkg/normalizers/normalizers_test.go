package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracking(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"strips separators and uppercases", "1z 999-aa1.0123456784", "1Z999AA10123456784"},
		{"already canonical", "1Z999AA10123456784", "1Z999AA10123456784"},
		{"amazon reference", "TBA#304417958486", "TBA304417958486"},
		{"digits with commas", "9611,2981 2345", "961129812345"},
		{"whitespace only", "  \t ", ""},
		{"symbols only", "--..//##", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tracking(tt.input))
		})
	}
}

func TestTracking_OutputCharsetAndIdempotence(t *testing.T) {
	inputs := []string{
		"1z 999-aa1.0123456784",
		"TBA#304417958486",
		"ûñïçödé-123",
		"  1Z 55544433F99912  ",
	}

	for _, input := range inputs {
		got := Tracking(input)
		for _, r := range got {
			valid := r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
			assert.True(t, valid, "unexpected rune %q in %q", r, got)
		}
		assert.Equal(t, got, Tracking(got), "Tracking must be idempotent for %q", input)
	}
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "7654321", DigitsOnly("7654321B"))
	assert.Equal(t, "76543212", DigitsOnly("7654321-2"))
	assert.Equal(t, "", DigitsOnly("no digits here"))
}

func TestRegistry(t *testing.T) {
	fn, ok := Get("tracking")
	require.True(t, ok)
	assert.Equal(t, "1Z999", fn(" 1z-999 "))

	_, ok = Get("unregistered")
	assert.False(t, ok)

	// Unknown names pass the value through untouched.
	assert.Equal(t, " As-Is ", Apply(" As-Is ", "unregistered"))
	assert.Equal(t, " as-is ", Apply(" As-Is ", "lowercase"))
}
