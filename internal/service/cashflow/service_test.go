package cashflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarie/joias/internal/domain/models"
	"github.com/solarie/joias/internal/repository/memory"
	"github.com/solarie/joias/internal/repository/store"
)

type fixture struct {
	svc     *Service
	sales   *store.Collection[models.Sale]
	backend *memory.Backend
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	backend := memory.New()
	entries := store.NewCollection[models.CashFlowEntry](backend, store.CollectionCashFlow)
	sales := store.NewCollection[models.Sale](backend, store.CollectionSales)
	splits := store.NewCollection[models.CashSplitConfig](backend, store.CollectionConfig)
	return fixture{
		svc:     NewService(entries, sales, splits, time.UTC, nil),
		sales:   sales,
		backend: backend,
	}
}

func saleWithPackaging(total float64, packaging float64, quantity int) models.Sale {
	return models.Sale{
		Total:  total,
		Profit: total / 2,
		Lines: []models.SaleLine{{
			Item:     models.Item{PackagingCost: packaging},
			Quantity: quantity,
			Subtotal: total,
		}},
	}
}

func TestService_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes and defaults the sub-source", func(t *testing.T) {
		f := newFixture(t)
		entry, err := f.svc.Record(ctx, EntryInput{
			Date:        "2026-03-20",
			Description: "compra de caixas",
			Amount:      35.5,
			Source:      models.SourceCash,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, entry.ID)
		assert.Equal(t, "Compra De Caixas", entry.Description)
		assert.Equal(t, models.SubReinvestment, entry.SubSource)
		assert.Equal(t, "2026-03-20", entry.Date.Format("2006-01-02"))
	})

	t.Run("packaging outflows carry no sub-source", func(t *testing.T) {
		f := newFixture(t)
		entry, err := f.svc.Record(ctx, EntryInput{
			Description: "sacolas",
			Amount:      10,
			Source:      models.SourcePackaging,
			SubSource:   models.SubSalary,
		})
		require.NoError(t, err)
		assert.Empty(t, entry.SubSource)
		assert.False(t, entry.Date.IsZero())
	})

	t.Run("rejects invalid entries", func(t *testing.T) {
		f := newFixture(t)
		cases := map[string]EntryInput{
			"description": {Amount: 10, Source: models.SourceCash},
			"amount":      {Description: "x", Amount: 0, Source: models.SourceCash},
			"source":      {Description: "x", Amount: 10, Source: "bank"},
			"sub_source":  {Description: "x", Amount: 10, Source: models.SourceCash, SubSource: "bonus"},
			"date":        {Description: "x", Amount: 10, Source: models.SourceCash, Date: "20/03/2026"},
		}
		for field, in := range cases {
			_, err := f.svc.Record(ctx, in)
			var validationErr *models.ValidationError
			require.ErrorAs(t, err, &validationErr, field)
			assert.Equal(t, field, validationErr.Field)
		}

		entries, err := f.svc.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("store failure is a persistence error", func(t *testing.T) {
		f := newFixture(t)
		f.backend.SetFaultHook(func(memory.Op, string, string) error { return errors.New("offline") })

		_, err := f.svc.Record(ctx, EntryInput{Description: "x", Amount: 10, Source: models.SourceCash})
		var persistErr *models.PersistenceError
		assert.ErrorAs(t, err, &persistErr)
	})
}

func TestService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry, err := f.svc.Record(ctx, EntryInput{Description: "aluguel", Amount: 100, Source: models.SourceCash, SubSource: models.SubStoreCash})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, entry.ID, EntryInput{Date: "2026-03-01", Description: "embalagens", Amount: 40, Source: models.SourcePackaging})
	require.NoError(t, err)
	assert.Equal(t, models.SourcePackaging, updated.Source)

	stored, err := f.svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "Embalagens", stored.Description)
	assert.InDelta(t, 40, stored.Amount, 1e-9)
	assert.Empty(t, stored.SubSource)

	require.NoError(t, f.svc.Delete(ctx, entry.ID))
	_, err = f.svc.Get(ctx, entry.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(ctx, entry.ID), store.ErrNotFound)
}

func TestPosition(t *testing.T) {
	sales := []models.Sale{saleWithPackaging(200, 2, 3), saleWithPackaging(100, 1.5, 2)}

	t.Run("subtracts outflows per source", func(t *testing.T) {
		entries := []models.CashFlowEntry{
			{Amount: 50, Source: models.SourceCash},
			{Amount: 4, Source: models.SourcePackaging},
		}
		pos := Position(sales, entries, models.DefaultCashSplit)

		assert.InDelta(t, 300, pos.TotalSales, 1e-9)
		assert.InDelta(t, 150, pos.TotalProfit, 1e-9)
		assert.InDelta(t, 9, pos.PackagingValue, 1e-9)
		assert.InDelta(t, 250, pos.CashBalance, 1e-9)
		assert.InDelta(t, 5, pos.PackagingBalance, 1e-9)
		assert.InDelta(t, 125, pos.SplitAmounts.Reinvestment, 1e-9)
		assert.InDelta(t, 75, pos.SplitAmounts.StoreCash, 1e-9)
		assert.InDelta(t, 50, pos.SplitAmounts.Salary, 1e-9)
	})

	t.Run("balances never go negative", func(t *testing.T) {
		entries := []models.CashFlowEntry{
			{Amount: 1000, Source: models.SourceCash},
			{Amount: 100, Source: models.SourcePackaging},
		}
		pos := Position(sales, entries, models.DefaultCashSplit)

		assert.Zero(t, pos.CashBalance)
		assert.Zero(t, pos.PackagingBalance)
		assert.Zero(t, pos.SplitAmounts.Reinvestment)
		assert.InDelta(t, 1000, pos.CashOutflows, 1e-9)
	})
}

func TestService_Split(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	split, err := f.svc.Split(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCashSplit, split)

	t.Run("adjust clamps and redistributes", func(t *testing.T) {
		next, err := f.svc.AdjustSplit(ctx, models.SubSalary, 120)
		require.NoError(t, err)
		assert.InDelta(t, 0, next.Reinvestment, 1e-9)
		assert.InDelta(t, 0, next.StoreCash, 1e-9)
		assert.InDelta(t, 100, next.Salary, 1e-9)

		next, err = f.svc.AdjustSplit(ctx, models.SubReinvestment, 40)
		require.NoError(t, err)
		assert.InDelta(t, 40, next.Reinvestment, 1e-9)
		assert.InDelta(t, 60, next.Salary, 1e-9)

		stored, err := f.svc.Split(ctx)
		require.NoError(t, err)
		assert.InDelta(t, 40, stored.Reinvestment, 1e-9)
	})

	t.Run("negative values clamp to zero", func(t *testing.T) {
		next, err := f.svc.AdjustSplit(ctx, models.SubStoreCash, -5)
		require.NoError(t, err)
		assert.Zero(t, next.StoreCash)
	})

	t.Run("save requires a total of 100", func(t *testing.T) {
		_, err := f.svc.SaveSplit(ctx, models.CashSplit{Reinvestment: 50, StoreCash: 30, Salary: 19})
		var validationErr *models.ValidationError
		require.ErrorAs(t, err, &validationErr)

		saved, err := f.svc.SaveSplit(ctx, models.CashSplit{Reinvestment: 60, StoreCash: 20, Salary: 20})
		require.NoError(t, err)
		assert.Equal(t, 60.0, saved.Reinvestment)

		pos, err := f.svc.Position(ctx)
		require.NoError(t, err)
		assert.Equal(t, saved, pos.Split)
	})

	t.Run("unknown share", func(t *testing.T) {
		_, err := f.svc.AdjustSplit(ctx, "bonus", 10)
		var validationErr *models.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})
}
