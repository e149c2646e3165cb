package reporting

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/solarie/joias/internal/domain/models"
	"github.com/solarie/joias/pkg/dates"
	"github.com/solarie/joias/pkg/money"
)

const (
	summarySheet = "Resumo"
	monthlySheet = "Mensal"
	salesSheet   = "Vendas"
)

// ExportXLSX writes the general report for f, its monthly rollup and the
// matching sales as an Excel workbook.
func (s *Service) ExportXLSX(ctx context.Context, f Filter, w io.Writer) error {
	items, sales, err := s.load(ctx)
	if err != nil {
		return err
	}
	report := General(items, sales, f, s.loc)
	return WriteWorkbook(w, report, f.sales(sales, s.loc), s.loc)
}

// WriteWorkbook renders report and sales into an XLSX workbook.
func WriteWorkbook(w io.Writer, report models.GeneralReport, sales []models.Sale, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	for _, name := range []string{monthlySheet, salesSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	summary := [][]interface{}{
		{"Indicador", "Valor"},
		{"Itens cadastrados", report.Stock.TotalItems},
		{"Itens disponíveis", report.Stock.AvailableItems},
		{"Itens vendidos", report.Stock.SoldItems},
		{"Valor investido", money.Round(report.Stock.Invested)},
		{"Valor em estoque", money.Round(report.Stock.StockValue)},
		{"Lucro potencial", money.Round(report.Stock.PotentialProfit)},
		{"Vendas no período", report.PeriodSaleCount},
		{"Faturamento no período", money.Round(report.PeriodSales)},
		{"Lucro no período", money.Round(report.PeriodProfit)},
	}
	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}

	monthly := [][]interface{}{{"Mês", "Peças vendidas", "Faturamento", "Lucro"}}
	for _, m := range report.Monthly {
		monthly = append(monthly, []interface{}{m.Month, m.UnitsSold, money.Round(m.TotalSales), money.Round(m.Profit)})
	}
	if err := writeRows(f, monthlySheet, monthly); err != nil {
		return err
	}

	rows := [][]interface{}{{"Data", "Cliente", "Pagamento", "Peças", "Total", "Lucro"}}
	for _, sale := range sales {
		rows = append(rows, []interface{}{
			dates.DayKey(sale.SaleDate, loc),
			sale.ClientName,
			string(sale.PaymentMethod),
			sale.UnitsSold(),
			money.Round(sale.Total),
			money.Round(sale.Profit),
		})
	}
	if err := writeRows(f, salesSheet, rows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
