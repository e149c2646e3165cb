package sales

import (
	"github.com/solarie/joias/internal/domain/models"
	"github.com/solarie/joias/internal/service/pricing"
)

// Cart is a draft sale being assembled. It has no effect on the inventory
// until it is turned into a Draft and committed.
type Cart struct {
	lines     []models.SaleLine
	method    models.PaymentMethod
	deductFee bool
}

// NewCart returns an empty cart paid in cash.
func NewCart() *Cart {
	return &Cart{method: models.PaymentCash}
}

// Add puts one unit of item in the cart. Adding an item already in the cart
// increments its line, capped at the item's on-hand quantity.
func (c *Cart) Add(item models.Item) error {
	if !item.Sellable() {
		return models.NewValidationError("item", item.Code+" is not available for sale")
	}

	if idx := c.index(item.ID); idx >= 0 {
		line := &c.lines[idx]
		line.Item = item
		if line.Quantity < item.Quantity {
			line.Quantity++
		}
		line.Quantity = min(line.Quantity, item.Quantity)
		line.Subtotal = subtotal(line.Quantity, line.UnitPrice)
		return nil
	}

	unit := c.effectivePrice(item)
	c.lines = append(c.lines, models.SaleLine{
		ItemID:    item.ID,
		Item:      item,
		Quantity:  1,
		UnitPrice: unit,
		Subtotal:  subtotal(1, unit),
	})
	return nil
}

// Remove drops the line for itemID.
func (c *Cart) Remove(itemID string) {
	if idx := c.index(itemID); idx >= 0 {
		c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	}
}

// SetQuantity sets the line quantity, clamped to the item's on-hand
// quantity. Zero or negative removes the line.
func (c *Cart) SetQuantity(itemID string, quantity int) {
	if quantity <= 0 {
		c.Remove(itemID)
		return
	}
	idx := c.index(itemID)
	if idx < 0 {
		return
	}
	line := &c.lines[idx]
	line.Quantity = min(quantity, line.Item.Quantity)
	line.Subtotal = subtotal(line.Quantity, line.UnitPrice)
}

// SetUnitPrice overrides the unit price of a line.
func (c *Cart) SetUnitPrice(itemID string, price float64) {
	idx := c.index(itemID)
	if idx < 0 {
		return
	}
	line := &c.lines[idx]
	line.UnitPrice = price
	line.Subtotal = subtotal(line.Quantity, price)
}

// SetPayment changes the payment method and fee-deduction toggle and
// re-derives every line's unit price, discarding manual overrides.
func (c *Cart) SetPayment(method models.PaymentMethod, deductFee bool) {
	c.method = method
	c.deductFee = deductFee
	for i := range c.lines {
		line := &c.lines[i]
		line.UnitPrice = c.effectivePrice(line.Item)
		line.Subtotal = subtotal(line.Quantity, line.UnitPrice)
	}
}

// PaymentMethod returns the selected payment method.
func (c *Cart) PaymentMethod() models.PaymentMethod {
	return c.method
}

// Lines returns a copy of the cart lines.
func (c *Cart) Lines() []models.SaleLine {
	return append([]models.SaleLine(nil), c.lines...)
}

// Totals returns the cart value and the profit it would realize.
func (c *Cart) Totals() (total, profit float64) {
	return models.SaleTotals(c.lines)
}

// Draft turns the cart into a commit request.
func (c *Cart) Draft(clientName, saleDate string) Draft {
	lines := make([]LineInput, 0, len(c.lines))
	for _, line := range c.lines {
		lines = append(lines, LineInput{ItemID: line.ItemID, Quantity: line.Quantity, UnitPrice: line.UnitPrice})
	}
	return Draft{
		ClientName:    clientName,
		SaleDate:      saleDate,
		PaymentMethod: c.method,
		Lines:         lines,
	}
}

func (c *Cart) effectivePrice(item models.Item) float64 {
	if c.method == models.PaymentCash && c.deductFee {
		return pricing.FeeDeducted(item.FinalSalePrice, item.FeePct)
	}
	return item.FinalSalePrice
}

func (c *Cart) index(itemID string) int {
	for i, line := range c.lines {
		if line.ItemID == itemID {
			return i
		}
	}
	return -1
}
