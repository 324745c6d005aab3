package gateways

import "github.com/shopspring/decimal"

var paiseFactor = decimal.NewFromInt(100)

// toPaise converts a rupee amount to the integer minor units providers
// expect. Amounts are stored with two decimal places so this is exact.
func toPaise(amount decimal.Decimal) int64 {
	return amount.Mul(paiseFactor).Round(0).IntPart()
}
