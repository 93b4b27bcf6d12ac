package order

import "github.com/shopspring/decimal"

var (
	baseDeliveryFee = decimal.NewFromInt(50)
	feePerKg        = decimal.NewFromInt(10)
)

// DeliveryPrice is 50 plus 10 per kilogram, rounded to cents.
func DeliveryPrice(weightKg float64) float64 {
	price := baseDeliveryFee.Add(feePerKg.Mul(decimal.NewFromFloat(weightKg)))
	return price.Round(2).InexactFloat64()
}
