package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/solarie/joias/internal/domain/models"
	"github.com/solarie/joias/internal/repository/store"
	"github.com/solarie/joias/pkg/dates"
	"github.com/solarie/joias/pkg/money"
	"github.com/solarie/joias/pkg/textutil"
)

// ItemLedger is the slice of the inventory ledger a sale needs.
type ItemLedger interface {
	Get(ctx context.Context, id string) (models.Item, error)
	Adjust(ctx context.Context, id string, delta int) (models.Item, error)
}

// SaleStore persists sale records.
type SaleStore interface {
	Create(ctx context.Context, doc models.Sale) (string, error)
	Replace(ctx context.Context, id string, doc models.Sale) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (models.Sale, error)
	List(ctx context.Context) ([]models.Sale, error)
}

// Policies selects the failure policy of each multi-step operation.
type Policies struct {
	Commit models.FailurePolicy
	Edit   models.FailurePolicy
	Delete models.FailurePolicy
}

// DefaultPolicies keeps applying stock writes after a failure and reports
// what did not apply.
var DefaultPolicies = Policies{
	Commit: models.ContinueOnFailure,
	Edit:   models.ContinueOnFailure,
	Delete: models.ContinueOnFailure,
}

// LineInput is a requested sale line.
type LineInput struct {
	ItemID    string  `json:"item_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" binding:"gt=0"`
}

// Draft is a sale ready to be committed. SaleDate is a YYYY-MM-DD day and
// defaults to today.
type Draft struct {
	ClientName    string               `json:"client_name"`
	SaleDate      string               `json:"sale_date"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Lines         []LineInput          `json:"lines" binding:"dive"`
}

// Changes replaces the editable fields of a committed sale. Empty SaleDate
// and PaymentMethod keep the stored values.
type Changes struct {
	ClientName    string               `json:"client_name"`
	SaleDate      string               `json:"sale_date"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Lines         []LineInput          `json:"lines" binding:"dive"`
}

// Filter narrows the sale history. From and To are inclusive YYYY-MM-DD days.
type Filter struct {
	ClientName    string               `form:"client"`
	PaymentMethod models.PaymentMethod `form:"payment_method"`
	From          string               `form:"from"`
	To            string               `form:"to"`
}

// Service is the sale transaction manager.
type Service struct {
	sales    SaleStore
	items    ItemLedger
	policies Policies
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewService wires a new sale transaction manager.
func NewService(sales SaleStore, items ItemLedger, policies Policies, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	if policies.Commit == "" {
		policies.Commit = DefaultPolicies.Commit
	}
	if policies.Edit == "" {
		policies.Edit = DefaultPolicies.Edit
	}
	if policies.Delete == "" {
		policies.Delete = DefaultPolicies.Delete
	}
	return &Service{
		sales:    sales,
		items:    items,
		policies: policies,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// Commit validates the draft against live stock, persists the sale and
// decrements every sold item. A failed decrement does not undo the sale; it
// is recorded in the returned report.
func (s *Service) Commit(ctx context.Context, draft Draft) (models.Sale, models.StepReport, error) {
	report := models.StepReport{Policy: s.policies.Commit}

	client, err := validateHeader(draft.ClientName, draft.PaymentMethod)
	if err != nil {
		return models.Sale{}, report, err
	}
	saleDate, err := s.saleDate(draft.SaleDate, time.Time{})
	if err != nil {
		return models.Sale{}, report, err
	}
	if err := validateLines(draft.Lines); err != nil {
		return models.Sale{}, report, err
	}

	live, err := s.checkStock(ctx, requested(draft.Lines), nil)
	if err != nil {
		return models.Sale{}, report, err
	}

	lines := make([]models.SaleLine, 0, len(draft.Lines))
	for _, in := range draft.Lines {
		lines = append(lines, newLine(live[in.ItemID], in))
	}

	sale := models.Sale{
		ClientName:    client,
		SaleDate:      saleDate,
		PaymentMethod: draft.PaymentMethod,
		Lines:         lines,
	}
	sale.Total, sale.Profit = totals(lines)

	id, err := s.sales.Create(ctx, sale)
	if err != nil {
		return models.Sale{}, report, &models.PersistenceError{Op: "create", Collection: store.CollectionSales, Err: err}
	}
	sale.ID = id

	halted := false
	for _, line := range lines {
		if halted {
			report.Steps = append(report.Steps, skipped(line.ItemID, models.ActionDecrement, line.Quantity))
			continue
		}
		step := s.apply(ctx, line.ItemID, models.ActionDecrement, -line.Quantity)
		report.Steps = append(report.Steps, step)
		if step.Outcome == models.OutcomeFailed && report.Policy == models.HaltOnFailure {
			halted = true
		}
	}

	s.logger.Info("sale committed",
		zap.String("sale_id", id),
		zap.String("client", client),
		zap.Int("lines", len(lines)),
		zap.Float64("total", sale.Total),
		zap.Bool("partial", report.Partial()),
	)
	return sale, report, nil
}

// Edit reconciles a committed sale with a new set of lines. Every increase is
// checked against live stock before anything is written; then decreases are
// returned to stock, increases are taken from it, and the sale is persisted
// with recomputed totals.
func (s *Service) Edit(ctx context.Context, saleID string, changes Changes) (models.Sale, models.StepReport, error) {
	report := models.StepReport{Policy: s.policies.Edit}

	sale, err := s.Get(ctx, saleID)
	if err != nil {
		return models.Sale{}, report, err
	}

	method := changes.PaymentMethod
	if method == "" {
		method = sale.PaymentMethod
	}
	client, err := validateHeader(changes.ClientName, method)
	if err != nil {
		return models.Sale{}, report, err
	}
	saleDate, err := s.saleDate(changes.SaleDate, sale.SaleDate)
	if err != nil {
		return models.Sale{}, report, err
	}
	if err := validateLines(changes.Lines); err != nil {
		return models.Sale{}, report, err
	}

	original := make(map[string]int)
	snapshots := make(map[string]models.Item)
	var order []string
	for _, line := range sale.Lines {
		if _, seen := original[line.ItemID]; !seen {
			order = append(order, line.ItemID)
			snapshots[line.ItemID] = line.Item
		}
		original[line.ItemID] += line.Quantity
	}
	current := requested(changes.Lines)
	for _, in := range changes.Lines {
		if !contains(order, in.ItemID) {
			order = append(order, in.ItemID)
		}
	}

	increases := make(map[string]int)
	for _, id := range order {
		if delta := current[id] - original[id]; delta > 0 {
			increases[id] = delta
		}
	}
	live, err := s.checkStock(ctx, increases, order)
	if err != nil {
		return models.Sale{}, report, err
	}
	for id, item := range live {
		if _, ok := snapshots[id]; !ok {
			snapshots[id] = item
		}
	}

	halted := false
	run := func(id string, action models.StepAction, quantity, delta int) {
		if halted {
			report.Steps = append(report.Steps, skipped(id, action, quantity))
			return
		}
		step := s.apply(ctx, id, action, delta)
		report.Steps = append(report.Steps, step)
		if step.Outcome == models.OutcomeFailed && report.Policy == models.HaltOnFailure {
			halted = true
		}
	}

	for _, id := range order {
		if diff := original[id] - current[id]; diff > 0 {
			run(id, models.ActionRestock, diff, diff)
		}
	}
	for _, id := range order {
		if diff := increases[id]; diff > 0 {
			run(id, models.ActionDecrement, diff, -diff)
		}
	}

	lines := make([]models.SaleLine, 0, len(changes.Lines))
	for _, in := range changes.Lines {
		lines = append(lines, newLine(snapshots[in.ItemID], in))
	}

	sale.ClientName = client
	sale.SaleDate = saleDate
	sale.PaymentMethod = method
	sale.Lines = lines
	sale.Total, sale.Profit = totals(lines)

	if err := s.sales.Replace(ctx, saleID, sale); err != nil {
		return models.Sale{}, report, &models.PersistenceError{Op: "update", Collection: store.CollectionSales, ID: saleID, Err: err}
	}

	s.logger.Info("sale edited",
		zap.String("sale_id", saleID),
		zap.Int("lines", len(lines)),
		zap.Float64("total", sale.Total),
		zap.Bool("partial", report.Partial()),
	)
	return sale, report, nil
}

// Delete returns every line of the sale to stock and removes the sale.
// Items that no longer exist are skipped; other restock failures are logged
// and reported. Under HaltOnFailure a failed restock keeps the sale.
func (s *Service) Delete(ctx context.Context, saleID string) (models.StepReport, error) {
	report := models.StepReport{Policy: s.policies.Delete}

	sale, err := s.Get(ctx, saleID)
	if err != nil {
		return report, err
	}

	for i, line := range sale.Lines {
		step := s.apply(ctx, line.ItemID, models.ActionRestock, line.Quantity)
		report.Steps = append(report.Steps, step)
		if step.Outcome == models.OutcomeFailed && report.Policy == models.HaltOnFailure {
			for _, rest := range sale.Lines[i+1:] {
				report.Steps = append(report.Steps, skipped(rest.ItemID, models.ActionRestock, rest.Quantity))
			}
			return report, fmt.Errorf("restock item %s: %s", line.ItemID, step.Error)
		}
	}

	if err := s.sales.Delete(ctx, saleID); err != nil {
		return report, &models.PersistenceError{Op: "delete", Collection: store.CollectionSales, ID: saleID, Err: err}
	}

	s.logger.Info("sale deleted", zap.String("sale_id", saleID), zap.Bool("partial", report.Partial()))
	return report, nil
}

// Get loads one sale.
func (s *Service) Get(ctx context.Context, id string) (models.Sale, error) {
	sale, err := s.sales.Get(ctx, id)
	if err != nil {
		return models.Sale{}, fmt.Errorf("load sale %s: %w", id, err)
	}
	return sale, nil
}

// List returns the sales matching f, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Sale, error) {
	sales, err := s.sales.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	out := make([]models.Sale, 0, len(sales))
	for _, sale := range sales {
		if s.matches(f, sale) {
			out = append(out, sale)
		}
	}
	return out, nil
}

// Stats summarizes the given sales.
func Stats(sales []models.Sale) models.SalesStats {
	var total, profit money.Sum
	byPayment := make(map[models.PaymentMethod]*money.Sum)
	stats := models.SalesStats{Count: len(sales), ByPayment: make(map[models.PaymentMethod]models.PaymentStats)}

	for _, sale := range sales {
		total.Add(sale.Total)
		profit.Add(sale.Profit)

		sum, ok := byPayment[sale.PaymentMethod]
		if !ok {
			sum = &money.Sum{}
			byPayment[sale.PaymentMethod] = sum
		}
		sum.Add(sale.Total)

		entry := stats.ByPayment[sale.PaymentMethod]
		entry.Count++
		stats.ByPayment[sale.PaymentMethod] = entry
	}
	for method, sum := range byPayment {
		entry := stats.ByPayment[method]
		entry.Value = sum.Float()
		stats.ByPayment[method] = entry
	}

	stats.TotalSales = total.Float()
	stats.TotalProfit = profit.Float()
	if stats.Count > 0 {
		stats.AverageTicket = money.Round(stats.TotalSales / float64(stats.Count))
	}
	return stats
}

// Stats summarizes the sales matching f.
func (s *Service) Stats(ctx context.Context, f Filter) (models.SalesStats, error) {
	sales, err := s.List(ctx, f)
	if err != nil {
		return models.SalesStats{}, err
	}
	return Stats(sales), nil
}

// checkStock verifies that each requested quantity is covered by the item's
// live on-hand amount and returns the live items it loaded. order fixes the
// check sequence; nil checks in map order.
func (s *Service) checkStock(ctx context.Context, want map[string]int, order []string) (map[string]models.Item, error) {
	if order == nil {
		for id := range want {
			order = append(order, id)
		}
	}

	live := make(map[string]models.Item, len(want))
	for _, id := range order {
		quantity, ok := want[id]
		if !ok || quantity <= 0 {
			continue
		}
		item, err := s.items.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if item.Quantity < quantity {
			return nil, &models.InsufficientStockError{
				ItemID:    item.ID,
				Code:      item.Code,
				Name:      item.Name,
				Available: item.Quantity,
				Requested: quantity,
			}
		}
		live[id] = item
	}
	return live, nil
}

func (s *Service) apply(ctx context.Context, itemID string, action models.StepAction, delta int) models.StepResult {
	quantity := delta
	if quantity < 0 {
		quantity = -quantity
	}
	step := models.StepResult{ItemID: itemID, Action: action, Quantity: quantity}

	_, err := s.items.Adjust(ctx, itemID, delta)
	switch {
	case err == nil:
		step.Outcome = models.OutcomeApplied
	case action == models.ActionRestock && errors.Is(err, store.ErrNotFound):
		step.Outcome = models.OutcomeSkipped
		step.Error = err.Error()
		s.logger.Info("restock skipped, item no longer exists", zap.String("item_id", itemID))
	default:
		step.Outcome = models.OutcomeFailed
		step.Error = err.Error()
		s.logger.Warn("stock write failed",
			zap.String("item_id", itemID),
			zap.String("action", string(action)),
			zap.Int("quantity", quantity),
			zap.Error(err),
		)
	}
	return step
}

func (s *Service) saleDate(value string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		if !fallback.IsZero() {
			return fallback, nil
		}
		return dates.Noon(s.now(), s.loc), nil
	}
	day, err := dates.ParseDay(value, s.loc)
	if err != nil {
		return time.Time{}, models.NewValidationError("sale_date", "must be a YYYY-MM-DD date")
	}
	return day, nil
}

func (s *Service) matches(f Filter, sale models.Sale) bool {
	if !textutil.ContainsFold(sale.ClientName, f.ClientName) {
		return false
	}
	if f.PaymentMethod != "" && sale.PaymentMethod != f.PaymentMethod {
		return false
	}
	day := dates.DayKey(sale.SaleDate, s.loc)
	if f.From != "" && day < f.From {
		return false
	}
	if f.To != "" && day > f.To {
		return false
	}
	return true
}

func validateHeader(clientName string, method models.PaymentMethod) (string, error) {
	client := textutil.Title(clientName)
	if client == "" {
		return "", models.NewValidationError("client_name", "is required")
	}
	if !method.Valid() {
		return "", models.NewValidationError("payment_method", fmt.Sprintf("unknown payment method %q", method))
	}
	return client, nil
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return models.NewValidationError("lines", "a sale needs at least one item")
	}
	for _, line := range lines {
		switch {
		case strings.TrimSpace(line.ItemID) == "":
			return models.NewValidationError("item_id", "is required")
		case line.Quantity <= 0:
			return models.NewValidationError("quantity", "must be greater than zero")
		case line.UnitPrice <= 0:
			return models.NewValidationError("unit_price", "must be greater than zero")
		}
	}
	return nil
}

func requested(lines []LineInput) map[string]int {
	want := make(map[string]int, len(lines))
	for _, line := range lines {
		want[line.ItemID] += line.Quantity
	}
	return want
}

func newLine(item models.Item, in LineInput) models.SaleLine {
	return models.SaleLine{
		ItemID:    in.ItemID,
		Item:      item,
		Quantity:  in.Quantity,
		UnitPrice: in.UnitPrice,
		Subtotal:  subtotal(in.Quantity, in.UnitPrice),
	}
}

// subtotal is rounded to cents so that a sale total equals the sum of its lines.
func subtotal(quantity int, unitPrice float64) float64 {
	return money.Round(float64(quantity) * unitPrice)
}

func totals(lines []models.SaleLine) (float64, float64) {
	total, profit := models.SaleTotals(lines)
	return money.Round(total), money.Round(profit)
}

func skipped(itemID string, action models.StepAction, quantity int) models.StepResult {
	return models.StepResult{ItemID: itemID, Action: action, Quantity: quantity, Outcome: models.OutcomeSkipped}
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
