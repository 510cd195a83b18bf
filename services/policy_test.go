package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPercentTaxRoundsToCents(t *testing.T) {
	tax := PercentTax{Rate: price("0.16")}

	assert.True(t, tax.Tax(price("33.33")).Equal(price("5.33")))
	assert.True(t, tax.Tax(decimal.Zero).IsZero())
}

func TestThresholdShipping(t *testing.T) {
	ship := ThresholdShipping{Fee: price("3"), Threshold: price("50")}

	assert.True(t, ship.Cost(price("49.99")).Equal(price("3")))
	assert.True(t, ship.Cost(price("50")).IsZero(), "threshold is inclusive")
	assert.True(t, ship.Cost(price("120")).IsZero())
}

func TestPoliciesFromConfig(t *testing.T) {
	tax, ship := PoliciesFromConfig(decimal.Zero, price("3"), decimal.Zero)
	assert.IsType(t, NoTax{}, tax)
	assert.IsType(t, FlatShipping{}, ship)
	assert.True(t, ship.Cost(price("1000")).Equal(price("3")), "no threshold means the fee always applies")

	tax, ship = PoliciesFromConfig(price("0.16"), price("3"), price("50"))
	assert.IsType(t, PercentTax{}, tax)
	assert.IsType(t, ThresholdShipping{}, ship)
}
