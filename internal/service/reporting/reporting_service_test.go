package reporting

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/solarie/joias/internal/domain/models"
)

type staticItems []models.Item

func (s staticItems) List(context.Context) ([]models.Item, error) { return s, nil }

type staticSales []models.Sale

func (s staticSales) List(context.Context) ([]models.Sale, error) { return s, nil }

type fakeSheet struct {
	rows    [][]interface{}
	readErr error
}

func (f *fakeSheet) AppendRows(_ context.Context, _ string, rows [][]interface{}) error {
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeSheet) ReadRange(context.Context, string) ([][]interface{}, error) {
	return f.rows, f.readErr
}

func at(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t.Add(12 * time.Hour)
}

func ptr(t time.Time) *time.Time { return &t }

func fixtureData() (staticItems, staticSales) {
	ring := models.Item{Code: "AN01", Name: "Anel", Category: "Anéis", Supplier: "Atacado Sul", PurchaseDate: ptr(at("2026-02-10")),
		Quantity: 4, Status: models.ItemAvailable, AcquisitionCost: 20, FinalSalePrice: 50}
	chain := models.Item{Code: "CO01", Name: "Colar", Category: "Colares", Supplier: "Prata Fina", PurchaseDate: ptr(at("2026-03-05")),
		Quantity: 0, Status: models.ItemSold, AcquisitionCost: 40, FinalSalePrice: 100}
	undated := models.Item{Code: "BR01", Name: "Brinco", Category: "Brincos", Supplier: "Atacado Sul",
		Quantity: 2, Status: models.ItemAvailable, AcquisitionCost: 10, FinalSalePrice: 30}

	line := func(item models.Item, quantity int, price float64) models.SaleLine {
		return models.SaleLine{Item: item, Quantity: quantity, UnitPrice: price, Subtotal: float64(quantity) * price}
	}
	sales := staticSales{
		{ClientName: "Maria", SaleDate: at("2026-03-14"), PaymentMethod: models.PaymentPix, Lines: []models.SaleLine{line(chain, 2, 100)}, Total: 200, Profit: 120},
		{ClientName: "Joana", SaleDate: at("2026-03-02"), PaymentMethod: models.PaymentCash, Lines: []models.SaleLine{line(ring, 1, 50)}, Total: 50, Profit: 30},
		{ClientName: "Ana", SaleDate: at("2026-02-20"), PaymentMethod: models.PaymentCredit, Lines: []models.SaleLine{line(ring, 2, 45)}, Total: 90, Profit: 50},
	}
	return staticItems{ring, chain, undated}, sales
}

func TestMonthly(t *testing.T) {
	_, sales := fixtureData()
	reports := Monthly(sales, time.UTC)

	require.Len(t, reports, 2)
	assert.Equal(t, "2026-03", reports[0].Key)
	assert.Equal(t, "março de 2026", reports[0].Month)
	assert.Equal(t, 3, reports[0].UnitsSold)
	assert.InDelta(t, 250, reports[0].TotalSales, 1e-9)
	assert.InDelta(t, 150, reports[0].Profit, 1e-9)
	assert.Equal(t, "2026-02", reports[1].Key)
	assert.Equal(t, 2026, reports[1].Year)
}

func TestGeneral(t *testing.T) {
	items, sales := fixtureData()

	t.Run("no filter", func(t *testing.T) {
		report := General(items, sales, Filter{}, time.UTC)
		assert.Equal(t, 3, report.Stock.TotalItems)
		assert.Equal(t, 2, report.Stock.AvailableItems)
		assert.InDelta(t, 100, report.Stock.Invested, 1e-9)
		assert.InDelta(t, 260, report.Stock.StockValue, 1e-9)
		assert.Equal(t, 3, report.PeriodSaleCount)
		assert.InDelta(t, 340, report.PeriodSales, 1e-9)
		assert.Len(t, report.Monthly, 2)
	})

	t.Run("date range applies to purchases and sales", func(t *testing.T) {
		report := General(items, sales, Filter{From: "2026-03-01", To: "2026-03-31"}, time.UTC)
		assert.Equal(t, 1, report.Stock.TotalItems)
		assert.Equal(t, 2, report.PeriodSaleCount)
		assert.InDelta(t, 150, report.PeriodProfit, 1e-9)
		require.Len(t, report.Monthly, 1)
	})

	t.Run("supplier and category apply to items", func(t *testing.T) {
		report := General(items, sales, Filter{Supplier: "Atacado Sul", Category: "Brincos"}, time.UTC)
		assert.Equal(t, 1, report.Stock.TotalItems)
		assert.Equal(t, 3, report.PeriodSaleCount)
	})
}

func TestService_WeeklySummary(t *testing.T) {
	items, sales := fixtureData()
	svc := NewService(items, sales, nil, time.UTC, nil)

	summary, err := svc.WeeklySummary(context.Background(), at("2026-03-15"))
	require.NoError(t, err)
	assert.Contains(t, summary, "Resumo semanal (2026-03-09 a 2026-03-15)")
	assert.Contains(t, summary, "Vendas: 1 (2 peças)")
	assert.Contains(t, summary, "1. CO01 - Colar (2)")
	assert.Contains(t, summary, "Estoque: 2 itens disponíveis")

	quiet, err := svc.WeeklySummary(context.Background(), at("2026-06-01"))
	require.NoError(t, err)
	assert.Contains(t, quiet, "Nenhuma venda registrada")
}

func TestService_PublishMonth(t *testing.T) {
	ctx := context.Background()
	items, sales := fixtureData()

	t.Run("appends once per month", func(t *testing.T) {
		sheet := &fakeSheet{}
		svc := NewService(items, sales, sheet, time.UTC, nil)

		written, err := svc.PublishMonth(ctx, at("2026-03-31"))
		require.NoError(t, err)
		assert.True(t, written)
		require.Len(t, sheet.rows, 1)
		assert.Equal(t, "2026-03", sheet.rows[0][0])
		assert.Equal(t, 3, sheet.rows[0][2])
		assert.InDelta(t, 250, sheet.rows[0][3], 1e-9)

		written, err = svc.PublishMonth(ctx, at("2026-03-01"))
		require.NoError(t, err)
		assert.False(t, written)
		assert.Len(t, sheet.rows, 1)
	})

	t.Run("months without sales still get a row", func(t *testing.T) {
		sheet := &fakeSheet{}
		svc := NewService(items, sales, sheet, time.UTC, nil)

		written, err := svc.PublishMonth(ctx, at("2026-01-15"))
		require.NoError(t, err)
		assert.True(t, written)
		assert.Equal(t, 0, sheet.rows[0][2])
	})

	t.Run("read failures abort", func(t *testing.T) {
		svc := NewService(items, sales, &fakeSheet{readErr: errors.New("quota")}, time.UTC, nil)
		_, err := svc.PublishMonth(ctx, at("2026-03-31"))
		assert.Error(t, err)
	})

	t.Run("not configured", func(t *testing.T) {
		svc := NewService(items, sales, nil, time.UTC, nil)
		_, err := svc.PublishMonth(ctx, at("2026-03-31"))
		assert.Error(t, err)
	})
}

func TestService_ExportXLSX(t *testing.T) {
	items, sales := fixtureData()
	svc := NewService(items, sales, nil, time.UTC, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportXLSX(context.Background(), Filter{From: "2026-03-01"}, &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{summarySheet, monthlySheet, salesSheet}, book.GetSheetList())

	monthly, err := book.GetRows(monthlySheet)
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, "março de 2026", monthly[1][0])
	assert.Equal(t, "3", monthly[1][1])

	rows, err := book.GetRows(salesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Data", "Cliente", "Pagamento", "Peças", "Total", "Lucro"}, rows[0])
	assert.Equal(t, "Maria", rows[1][1])
}
