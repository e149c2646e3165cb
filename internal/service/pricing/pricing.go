// Package pricing derives item costs and sale prices from purchase inputs.
// Every function is pure and accepts any numeric input; callers validate.
package pricing

// FreightPerUnit spreads the freight paid for a purchase batch over its pieces.
// A zero batch size yields zero.
func FreightPerUnit(totalFreight float64, batchSize int) float64 {
	if batchSize == 0 {
		return 0
	}
	return totalFreight / float64(batchSize)
}

// AcquisitionCost is the per-unit cost of an item. Packaging is counted once
// per unit.
func AcquisitionCost(unitPrice, freightPerUnit, packagingCost, otherCosts float64) float64 {
	return unitPrice + freightPerUnit + packagingCost + otherCosts
}

// FinalSalePrice applies the margin to the acquisition-side costs (packaging
// excluded), adds packaging, then grosses the result up so that the seller
// still nets it after a payment fee of feePct. Fees are clamped to [0, 100];
// at 100% the price is returned without gross-up.
func FinalSalePrice(unitPrice, freightPerUnit, otherCosts, marginPct, packagingCost, feePct float64) float64 {
	baseCost := unitPrice + freightPerUnit + otherCosts
	withMargin := baseCost * (1 + marginPct/100)
	preFee := withMargin + packagingCost

	fee := min(max(feePct, 0), 100)
	divisor := 1 - fee/100
	if divisor > 0 {
		return preFee / divisor
	}
	return preFee
}

// ExpectedProfit is the margin expected when an item sells at its final price.
func ExpectedProfit(finalSalePrice, acquisitionCost float64) float64 {
	return finalSalePrice - acquisitionCost
}

// FeeDeducted removes the payment fee from a grossed-up price, used when a
// client pays in cash and the fee saving is passed on.
func FeeDeducted(price, feePct float64) float64 {
	return price * (1 - feePct/100)
}

// Inputs are the purchase values an item's prices are derived from.
type Inputs struct {
	UnitPrice     float64
	TotalFreight  float64
	BatchSize     int
	PackagingCost float64
	OtherCosts    float64
	MarginPct     float64
	FeePct        float64
}

// Derived holds the computed price fields of an item.
type Derived struct {
	FreightPerUnit  float64
	AcquisitionCost float64
	FinalSalePrice  float64
	ExpectedProfit  float64
}

// Derive computes every derived price field from in.
func Derive(in Inputs) Derived {
	freight := FreightPerUnit(in.TotalFreight, in.BatchSize)
	cost := AcquisitionCost(in.UnitPrice, freight, in.PackagingCost, in.OtherCosts)
	price := FinalSalePrice(in.UnitPrice, freight, in.OtherCosts, in.MarginPct, in.PackagingCost, in.FeePct)

	return Derived{
		FreightPerUnit:  freight,
		AcquisitionCost: cost,
		FinalSalePrice:  price,
		ExpectedProfit:  ExpectedProfit(price, cost),
	}
}
