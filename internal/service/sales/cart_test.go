package sales

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarie/joias/internal/domain/models"
)

func cartItem(id string, quantity int) models.Item {
	return models.Item{
		ID:              id,
		Code:            "C-" + id,
		Name:            "Colar " + id,
		Quantity:        quantity,
		Status:          models.StatusFor(quantity),
		AcquisitionCost: 30,
		FinalSalePrice:  100,
		FeePct:          10,
	}
}

func TestCart(t *testing.T) {
	t.Run("rejects unavailable items", func(t *testing.T) {
		cart := NewCart()
		err := cart.Add(cartItem("a", 0))

		var validationErr *models.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Empty(t, cart.Lines())
	})

	t.Run("adding twice increments up to on-hand", func(t *testing.T) {
		cart := NewCart()
		item := cartItem("a", 2)

		require.NoError(t, cart.Add(item))
		require.NoError(t, cart.Add(item))
		require.NoError(t, cart.Add(item))

		lines := cart.Lines()
		require.Len(t, lines, 1)
		assert.Equal(t, 2, lines[0].Quantity)
		assert.InDelta(t, 200, lines[0].Subtotal, 1e-9)
	})

	t.Run("quantity clamps and zero removes", func(t *testing.T) {
		cart := NewCart()
		require.NoError(t, cart.Add(cartItem("a", 3)))
		require.NoError(t, cart.Add(cartItem("b", 3)))

		cart.SetQuantity("a", 10)
		assert.Equal(t, 3, cart.Lines()[0].Quantity)

		cart.SetQuantity("b", 0)
		require.Len(t, cart.Lines(), 1)
		assert.Equal(t, "a", cart.Lines()[0].ItemID)

		cart.Remove("a")
		assert.Empty(t, cart.Lines())
	})

	t.Run("totals follow price overrides", func(t *testing.T) {
		cart := NewCart()
		require.NoError(t, cart.Add(cartItem("a", 3)))
		cart.SetQuantity("a", 2)
		cart.SetUnitPrice("a", 80)

		total, profit := cart.Totals()
		assert.InDelta(t, 160, total, 1e-9)
		assert.InDelta(t, 100, profit, 1e-9)
	})

	t.Run("cash with fee deduction re-derives prices", func(t *testing.T) {
		cart := NewCart()
		require.NoError(t, cart.Add(cartItem("a", 3)))
		cart.SetUnitPrice("a", 70)

		cart.SetPayment(models.PaymentCash, true)
		assert.InDelta(t, 90, cart.Lines()[0].UnitPrice, 1e-9)

		cart.SetPayment(models.PaymentCredit, true)
		assert.InDelta(t, 100, cart.Lines()[0].UnitPrice, 1e-9)
		assert.Equal(t, models.PaymentCredit, cart.PaymentMethod())
	})

	t.Run("draft carries lines and payment", func(t *testing.T) {
		cart := NewCart()
		require.NoError(t, cart.Add(cartItem("a", 3)))
		cart.SetPayment(models.PaymentPix, false)

		draft := cart.Draft("Maria", "2026-03-15")
		assert.Equal(t, models.PaymentPix, draft.PaymentMethod)
		require.Len(t, draft.Lines, 1)
		assert.Equal(t, LineInput{ItemID: "a", Quantity: 1, UnitPrice: 100}, draft.Lines[0])
	})
}
