package models

import "time"

// ItemStatus reports whether an item still has units on hand.
type ItemStatus string

const (
	ItemAvailable ItemStatus = "available"
	ItemSold      ItemStatus = "sold"
)

// Item field names used for partial updates.
const (
	FieldQuantity = "quantity"
	FieldStatus   = "status"
)

// Item is one inventory unit-type: a piece bought in a purchase batch, with its
// on-hand quantity and the prices derived from its purchase inputs.
type Item struct {
	ID           string     `bson:"_id" json:"id"`
	Code         string     `bson:"code" json:"code"`
	Name         string     `bson:"name" json:"name"`
	Category     string     `bson:"category" json:"category"`
	Quantity     int        `bson:"quantity" json:"quantity"`
	Material     string     `bson:"material" json:"material"`
	Supplier     string     `bson:"supplier" json:"supplier"`
	PurchaseDate *time.Time `bson:"purchase_date,omitempty" json:"purchase_date,omitempty"`

	UnitPrice     float64 `bson:"unit_price" json:"unit_price"`
	TotalFreight  float64 `bson:"total_freight" json:"total_freight"`
	BatchSize     int     `bson:"batch_size" json:"batch_size"`
	PackagingCost float64 `bson:"packaging_cost" json:"packaging_cost"`
	OtherCosts    float64 `bson:"other_costs" json:"other_costs"`
	MarginPct     float64 `bson:"margin_pct" json:"margin_pct"`
	FeePct        float64 `bson:"fee_pct" json:"fee_pct"`

	FreightPerUnit  float64 `bson:"freight_per_unit" json:"freight_per_unit"`
	AcquisitionCost float64 `bson:"acquisition_cost" json:"acquisition_cost"`
	FinalSalePrice  float64 `bson:"final_sale_price" json:"final_sale_price"`
	ExpectedProfit  float64 `bson:"expected_profit" json:"expected_profit"`

	Status    ItemStatus `bson:"status" json:"status"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// StatusFor returns the status an item must carry for the given on-hand quantity.
func StatusFor(quantity int) ItemStatus {
	if quantity == 0 {
		return ItemSold
	}
	return ItemAvailable
}

// Sellable reports whether the item can be added to a sale.
func (i Item) Sellable() bool {
	return i.Status == ItemAvailable && i.Quantity > 0
}
