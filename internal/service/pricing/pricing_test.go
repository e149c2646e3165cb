package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreightPerUnit(t *testing.T) {
	t.Run("spreads freight over the batch", func(t *testing.T) {
		assert.InDelta(t, 2.5, FreightPerUnit(25, 10), 1e-9)
	})

	t.Run("zero batch size yields zero", func(t *testing.T) {
		for _, total := range []float64{0, 1, 99.9, -5} {
			assert.Equal(t, 0.0, FreightPerUnit(total, 0))
		}
	})
}

func TestAcquisitionCost(t *testing.T) {
	assert.Equal(t, 10+2.5+1.5+0.75, AcquisitionCost(10, 2.5, 1.5, 0.75))
	assert.Equal(t, -1.0, AcquisitionCost(-4, 1, 1, 1))
}

func TestFinalSalePrice(t *testing.T) {
	tests := []struct {
		name      string
		unit      float64
		freight   float64
		other     float64
		margin    float64
		packaging float64
		fee       float64
		want      float64
	}{
		{name: "no fee", unit: 10, freight: 2, other: 3, margin: 100, packaging: 1, fee: 0, want: 31},
		{name: "fee gross-up", unit: 10, freight: 0, other: 0, margin: 100, packaging: 1, fee: 5, want: 21 / 0.95},
		{name: "packaging excluded from margin", unit: 10, freight: 0, other: 0, margin: 50, packaging: 4, fee: 0, want: 19},
		{name: "fee at 100 returns pre-fee price", unit: 10, freight: 0, other: 0, margin: 100, packaging: 1, fee: 100, want: 21},
		{name: "fee above 100 is clamped", unit: 10, freight: 0, other: 0, margin: 100, packaging: 1, fee: 250, want: 21},
		{name: "negative fee is clamped to zero", unit: 10, freight: 0, other: 0, margin: 100, packaging: 1, fee: -20, want: 21},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FinalSalePrice(tt.unit, tt.freight, tt.other, tt.margin, tt.packaging, tt.fee)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestExpectedProfitIsNonNegative(t *testing.T) {
	for _, margin := range []float64{0, 10, 100, 250} {
		for _, fee := range []float64{0, 3.5, 50, 99.9} {
			d := Derive(Inputs{UnitPrice: 12.4, TotalFreight: 30, BatchSize: 7, PackagingCost: 2, OtherCosts: 1.1, MarginPct: margin, FeePct: fee})
			assert.GreaterOrEqual(t, d.ExpectedProfit, -1e-9, "margin %v fee %v", margin, fee)
		}
	}
}

func TestDerive(t *testing.T) {
	d := Derive(Inputs{
		UnitPrice:     20,
		TotalFreight:  30,
		BatchSize:     10,
		PackagingCost: 2,
		OtherCosts:    1,
		MarginPct:     100,
		FeePct:        5,
	})

	assert.InDelta(t, 3, d.FreightPerUnit, 1e-9)
	assert.InDelta(t, 26, d.AcquisitionCost, 1e-9)
	assert.InDelta(t, 50/0.95, d.FinalSalePrice, 1e-9)
	assert.InDelta(t, 50/0.95-26, d.ExpectedProfit, 1e-9)
}

func TestFeeDeducted(t *testing.T) {
	assert.InDelta(t, 95, FeeDeducted(100, 5), 1e-9)
	assert.InDelta(t, 100, FeeDeducted(100, 0), 1e-9)
}
