package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/solarie/joias/internal/domain/models"
	repo "github.com/solarie/joias/internal/repository/sheets"
	"github.com/solarie/joias/internal/service/inventory"
	"github.com/solarie/joias/pkg/dates"
	"github.com/solarie/joias/pkg/money"
)

const (
	monthlySheetRange = "Relatorio!A:F"
	topItemsInSummary = 3
)

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// ItemLister lists inventory records.
type ItemLister interface {
	List(ctx context.Context) ([]models.Item, error)
}

// SaleLister lists committed sales.
type SaleLister interface {
	List(ctx context.Context) ([]models.Sale, error)
}

// Filter narrows a general report. From and To are inclusive YYYY-MM-DD
// days applied to item purchase dates and sale dates; Category and Supplier
// apply to items only.
type Filter struct {
	From     string `form:"from"`
	To       string `form:"to"`
	Category string `form:"category"`
	Supplier string `form:"supplier"`
}

// Service exposes read-only rollups over inventory and sales.
type Service struct {
	items  ItemLister
	sales  SaleLister
	sheet  repo.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewService wires a new reporting service instance. sheet may be nil when
// the spreadsheet export is not configured.
func NewService(items ItemLister, sales SaleLister, sheet repo.Repository, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{items: items, sales: sales, sheet: sheet, loc: loc, logger: logger}
}

// General builds the general report for f.
func (s *Service) General(ctx context.Context, f Filter) (models.GeneralReport, error) {
	items, sales, err := s.load(ctx)
	if err != nil {
		return models.GeneralReport{}, err
	}
	return General(items, sales, f, s.loc), nil
}

// Monthly returns the monthly rollup of every sale, newest month first.
func (s *Service) Monthly(ctx context.Context) ([]models.MonthlyReport, error) {
	sales, err := s.sales.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	return Monthly(sales, s.loc), nil
}

// General combines stock statistics of the filtered items with the sales of
// the filtered period.
func General(items []models.Item, sales []models.Sale, f Filter, loc *time.Location) models.GeneralReport {
	var filteredItems []models.Item
	for _, item := range items {
		if f.matchesItem(item, loc) {
			filteredItems = append(filteredItems, item)
		}
	}
	filteredSales := f.sales(sales, loc)

	var total, profit money.Sum
	for _, sale := range filteredSales {
		total.Add(sale.Total)
		profit.Add(sale.Profit)
	}

	return models.GeneralReport{
		Stock:           inventory.Stats(filteredItems),
		PeriodSales:     total.Float(),
		PeriodProfit:    profit.Float(),
		PeriodSaleCount: len(filteredSales),
		Monthly:         Monthly(filteredSales, loc),
	}
}

// Monthly groups sales by calendar month in loc, newest month first.
func Monthly(sales []models.Sale, loc *time.Location) []models.MonthlyReport {
	type bucket struct {
		report        models.MonthlyReport
		total, profit money.Sum
	}

	buckets := make(map[string]*bucket)
	for _, sale := range sales {
		key := dates.MonthKey(sale.SaleDate, loc)
		b, ok := buckets[key]
		if !ok {
			local := sale.SaleDate.In(loc)
			b = &bucket{report: models.MonthlyReport{
				Key:   key,
				Month: MonthLabel(local),
				Year:  local.Year(),
			}}
			buckets[key] = b
		}
		b.report.UnitsSold += sale.UnitsSold()
		b.total.Add(sale.Total)
		b.profit.Add(sale.Profit)
	}

	reports := make([]models.MonthlyReport, 0, len(buckets))
	for _, b := range buckets {
		b.report.TotalSales = b.total.Float()
		b.report.Profit = b.profit.Float()
		reports = append(reports, b.report)
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Key > reports[j].Key })
	return reports
}

// MonthLabel renders t's month as "março de 2026".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s de %d", monthNames[t.Month()-1], t.Year())
}

// WeeklySummary describes the sales of the seven days ending at now and the
// current stock, formatted for a chat message.
func (s *Service) WeeklySummary(ctx context.Context, now time.Time) (string, error) {
	items, sales, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	end := now.In(s.loc)
	start := end.AddDate(0, 0, -6)
	f := Filter{From: dates.DayKey(start, s.loc), To: dates.DayKey(end, s.loc)}
	period := f.sales(sales, s.loc)
	stock := inventory.Stats(items)

	var b strings.Builder
	fmt.Fprintf(&b, "Resumo semanal (%s a %s)\n", f.From, f.To)

	if len(period) == 0 {
		b.WriteString("Nenhuma venda registrada no período.\n")
	} else {
		var total, profit money.Sum
		units := 0
		sold := make(map[string]int)
		for _, sale := range period {
			total.Add(sale.Total)
			profit.Add(sale.Profit)
			units += sale.UnitsSold()
			for _, line := range sale.Lines {
				sold[line.Item.Code+" - "+line.Item.Name] += line.Quantity
			}
		}
		fmt.Fprintf(&b, "Vendas: %d (%d peças)\n", len(period), units)
		fmt.Fprintf(&b, "Faturamento: %s\n", money.Format(total.Float()))
		fmt.Fprintf(&b, "Lucro: %s\n", money.Format(profit.Float()))

		for i, top := range topSellers(sold, topItemsInSummary) {
			fmt.Fprintf(&b, "%d. %s (%d)\n", i+1, top.name, top.units)
		}
	}

	fmt.Fprintf(&b, "Estoque: %d itens disponíveis, valor %s", stock.AvailableItems, money.Format(stock.StockValue))
	return b.String(), nil
}

// PublishMonth appends the rollup of month to the report spreadsheet unless
// that month is already there. It reports whether a row was written.
func (s *Service) PublishMonth(ctx context.Context, month time.Time) (bool, error) {
	if s.sheet == nil {
		return false, fmt.Errorf("report spreadsheet is not configured")
	}

	key := dates.MonthKey(month, s.loc)
	rows, err := s.sheet.ReadRange(ctx, monthlySheetRange)
	if err != nil {
		return false, fmt.Errorf("load monthly range: %w", err)
	}
	for _, row := range rows {
		if len(row) > 0 && fmt.Sprint(row[0]) == key {
			s.logger.Debug("month already exported", zap.String("month", key))
			return false, nil
		}
	}

	reports, err := s.Monthly(ctx)
	if err != nil {
		return false, err
	}
	report := models.MonthlyReport{Key: key, Month: MonthLabel(month.In(s.loc)), Year: month.In(s.loc).Year()}
	for _, candidate := range reports {
		if candidate.Key == key {
			report = candidate
			break
		}
	}

	row := []interface{}{report.Key, report.Month, report.UnitsSold, money.Round(report.TotalSales), money.Round(report.Profit), time.Now().In(s.loc).Format(time.RFC3339)}
	if err := s.sheet.AppendRows(ctx, monthlySheetRange, [][]interface{}{row}); err != nil {
		return false, fmt.Errorf("append monthly report: %w", err)
	}

	s.logger.Info("monthly report exported", zap.String("month", key), zap.Float64("total_sales", report.TotalSales))
	return true, nil
}

func (s *Service) load(ctx context.Context) ([]models.Item, []models.Sale, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list items: %w", err)
	}
	sales, err := s.sales.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list sales: %w", err)
	}
	return items, sales, nil
}

func (f Filter) inRange(day string) bool {
	return (f.From == "" || day >= f.From) && (f.To == "" || day <= f.To)
}

func (f Filter) matchesItem(item models.Item, loc *time.Location) bool {
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.Supplier != "" && item.Supplier != f.Supplier {
		return false
	}
	if f.From == "" && f.To == "" {
		return true
	}
	if item.PurchaseDate == nil {
		return false
	}
	return f.inRange(dates.DayKey(*item.PurchaseDate, loc))
}

func (f Filter) sales(sales []models.Sale, loc *time.Location) []models.Sale {
	var out []models.Sale
	for _, sale := range sales {
		if f.inRange(dates.DayKey(sale.SaleDate, loc)) {
			out = append(out, sale)
		}
	}
	return out
}

type seller struct {
	name  string
	units int
}

func topSellers(sold map[string]int, n int) []seller {
	list := make([]seller, 0, len(sold))
	for name, units := range sold {
		list = append(list, seller{name: name, units: units})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].units != list[j].units {
			return list[i].units > list[j].units
		}
		return list[i].name < list[j].name
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}
