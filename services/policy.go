package services

import "github.com/shopspring/decimal"

// TaxPolicy computes the tax charged on an order subtotal.
type TaxPolicy interface {
	Tax(subTotal decimal.Decimal) decimal.Decimal
}

// ShippingPolicy computes the shipping cost for an order subtotal.
type ShippingPolicy interface {
	Cost(subTotal decimal.Decimal) decimal.Decimal
}

// NoTax charges nothing.
type NoTax struct{}

func (NoTax) Tax(decimal.Decimal) decimal.Decimal { return decimal.Zero }

// PercentTax charges Rate (e.g. 0.16) of the subtotal, rounded to cents.
type PercentTax struct {
	Rate decimal.Decimal
}

func (p PercentTax) Tax(subTotal decimal.Decimal) decimal.Decimal {
	return subTotal.Mul(p.Rate).Round(2)
}

// FlatShipping charges a fixed fee on every order.
type FlatShipping struct {
	Fee decimal.Decimal
}

func (f FlatShipping) Cost(decimal.Decimal) decimal.Decimal { return f.Fee }

// ThresholdShipping charges Fee below the free-shipping threshold and
// nothing at or above it.
type ThresholdShipping struct {
	Fee       decimal.Decimal
	Threshold decimal.Decimal
}

func (t ThresholdShipping) Cost(subTotal decimal.Decimal) decimal.Decimal {
	if subTotal.GreaterThanOrEqual(t.Threshold) {
		return decimal.Zero
	}
	return t.Fee
}

// PoliciesFromConfig maps the pricing knobs onto concrete policies: a zero
// tax rate means no tax, a zero threshold means the flat fee always applies.
func PoliciesFromConfig(taxRate, flatCost, freeOver decimal.Decimal) (TaxPolicy, ShippingPolicy) {
	var tax TaxPolicy = NoTax{}
	if taxRate.IsPositive() {
		tax = PercentTax{Rate: taxRate}
	}

	var shipping ShippingPolicy = FlatShipping{Fee: flatCost}
	if freeOver.IsPositive() {
		shipping = ThresholdShipping{Fee: flatCost, Threshold: freeOver}
	}
	return tax, shipping
}
