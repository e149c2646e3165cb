package models

import "time"

// PaymentMethod enumerates how a client paid for a sale.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCredit   PaymentMethod = "credit"
	PaymentDebit    PaymentMethod = "debit"
	PaymentPix      PaymentMethod = "pix"
	PaymentTransfer PaymentMethod = "transfer"
)

// PaymentMethods lists every accepted payment method in display order.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCredit, PaymentDebit, PaymentPix, PaymentTransfer}

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	for _, candidate := range PaymentMethods {
		if m == candidate {
			return true
		}
	}
	return false
}

// SaleLine is one cart entry. Item is a snapshot of the inventory record taken
// when the line was added, so later price or cost edits do not rewrite history.
type SaleLine struct {
	ItemID    string  `bson:"item_id" json:"item_id"`
	Item      Item    `bson:"item" json:"item"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	UnitPrice float64 `bson:"unit_price" json:"unit_price"`
	Subtotal  float64 `bson:"subtotal" json:"subtotal"`
}

// Profit is the margin realized on the line against the snapshotted cost.
func (l SaleLine) Profit() float64 {
	return (l.UnitPrice - l.Item.AcquisitionCost) * float64(l.Quantity)
}

// Sale is a committed sale record.
type Sale struct {
	ID            string        `bson:"_id" json:"id"`
	ClientName    string        `bson:"client_name" json:"client_name"`
	SaleDate      time.Time     `bson:"sale_date" json:"sale_date"`
	PaymentMethod PaymentMethod `bson:"payment_method" json:"payment_method"`
	Lines         []SaleLine    `bson:"lines" json:"lines"`
	Total         float64       `bson:"total" json:"total"`
	Profit        float64       `bson:"profit" json:"profit"`
	CreatedAt     time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `bson:"updated_at" json:"updated_at"`
}

// SaleTotals returns the sale value and realized profit of the given lines.
func SaleTotals(lines []SaleLine) (total, profit float64) {
	for _, line := range lines {
		total += line.Subtotal
		profit += line.Profit()
	}
	return total, profit
}

// UnitsSold sums the quantities of every line.
func (s Sale) UnitsSold() int {
	units := 0
	for _, line := range s.Lines {
		units += line.Quantity
	}
	return units
}

// PackagingValue is the packaging cost carried by the sold units.
func (s Sale) PackagingValue() float64 {
	var value float64
	for _, line := range s.Lines {
		value += line.Item.PackagingCost * float64(line.Quantity)
	}
	return value
}
