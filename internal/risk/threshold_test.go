package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	v, _ := decimal.NewFromString(s)
	return v
}

// Scenario 7: ratio exactly -0.80 does not breach; -0.82 does.
func TestBreachesMaintenance_Boundary(t *testing.T) {
	assert.False(t, breachesMaintenance(d("-80"), d("100")))
	assert.True(t, breachesMaintenance(d("-82"), d("100")))
	assert.False(t, breachesMaintenance(d("10"), d("100")))
}

func TestBreachesMaintenance_ZeroMargin(t *testing.T) {
	assert.False(t, breachesMaintenance(d("-1"), d("0")))
}
