package display

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func wei(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad number " + s)
	}
	return n
}

func TestFormatZeroIsPadded(t *testing.T) {
	want := []string{"0", "0.0", "0.00", "0.000", "0.0000", "0.00000"}
	for d, w := range want {
		assert.Equal(t, w, Format(big.NewInt(0), d), "decimals=%d", d)
	}
}

func TestFormatTruncates(t *testing.T) {
	cases := []struct {
		name     string
		amount   string
		decimals int
		want     string
	}{
		{"one token", "1000000000000000000", 4, "1.0000"},
		{"no rounding up", "1999999999999999999", 4, "1.9999"},
		{"price with one decimal", "250000000000000000000", 1, "250.0"},
		{"fraction", "123456789000000000", 4, "0.1234"},
		{"no decimals", "2500000000000000000", 0, "2"},
		{"leading zeros in fraction", "1005000000000000000", 4, "1.0050"},
		{"more places than scale", "1", 20, "0.00000000000000000100"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Format(wei(c.amount), c.decimals))
		})
	}
}

func TestFormatTinyNonzeroUsesSentinel(t *testing.T) {
	assert.Equal(t, "<0.1000", Format(big.NewInt(1), 4))
	assert.Equal(t, "<0.1000", Format(wei("99999999999999"), 4))
	assert.Equal(t, "<0.1", Format(wei("99999999999999999"), 1))
	assert.Equal(t, "<0.1", Format(big.NewInt(1), 1))
	assert.Equal(t, "<0.1", Format(wei("999999999999999999"), 0))
	assert.Equal(t, "<0.1", Format(big.NewInt(1), 0))
	assert.Equal(t, "<0.100", Format(big.NewInt(1), 3))

	for d := 0; d < 8; d++ {
		got := Format(big.NewInt(7), d)
		assert.Equal(t, "<", got[:1], "decimals=%d", d)
		if d >= 1 {
			assert.Len(t, got, d+3, "decimals=%d", d)
		}
		assert.NotEqual(t, Format(big.NewInt(0), d), got)
	}
}

func TestFormatUnknown(t *testing.T) {
	assert.Equal(t, Unknown, Format(nil, 4))
	assert.Equal(t, Unknown, Integer(nil))
}

func TestFormatNegative(t *testing.T) {
	assert.Equal(t, "-1.5000", Format(wei("-1500000000000000000"), 4))
}

func TestInteger(t *testing.T) {
	assert.Equal(t, "1234", Integer(big.NewInt(1234)))
	assert.Equal(t, "0", Integer(big.NewInt(0)))
}
