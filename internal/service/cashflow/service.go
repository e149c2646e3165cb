package cashflow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/solarie/joias/internal/domain/models"
	"github.com/solarie/joias/internal/repository/store"
	"github.com/solarie/joias/pkg/dates"
	"github.com/solarie/joias/pkg/money"
	"github.com/solarie/joias/pkg/textutil"
)

// EntryStore persists cash-flow entries.
type EntryStore interface {
	Create(ctx context.Context, doc models.CashFlowEntry) (string, error)
	Update(ctx context.Context, id string, fields bson.M) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (models.CashFlowEntry, error)
	List(ctx context.Context) ([]models.CashFlowEntry, error)
}

// SaleLister lists committed sales.
type SaleLister interface {
	List(ctx context.Context) ([]models.Sale, error)
}

// SplitStore persists the cash split configuration document.
type SplitStore interface {
	Put(ctx context.Context, id string, fields bson.M) error
	Get(ctx context.Context, id string) (models.CashSplitConfig, error)
}

// EntryInput carries the user-entered fields of an outflow. Date is a
// YYYY-MM-DD day and defaults to today.
type EntryInput struct {
	Date        string               `json:"date"`
	Description string               `json:"description"`
	Amount      float64              `json:"amount"`
	Source      models.CashSource    `json:"source"`
	SubSource   models.CashSubSource `json:"sub_source"`
}

// Service is the cash-flow ledger.
type Service struct {
	entries EntryStore
	sales   SaleLister
	splits  SplitStore
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// NewService wires a new cash-flow ledger.
func NewService(entries EntryStore, sales SaleLister, splits SplitStore, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{entries: entries, sales: sales, splits: splits, loc: loc, now: time.Now, logger: logger}
}

// Record stores a new outflow.
func (s *Service) Record(ctx context.Context, in EntryInput) (models.CashFlowEntry, error) {
	entry, err := s.build(in)
	if err != nil {
		return models.CashFlowEntry{}, err
	}

	id, err := s.entries.Create(ctx, entry)
	if err != nil {
		return models.CashFlowEntry{}, &models.PersistenceError{Op: "create", Collection: store.CollectionCashFlow, Err: err}
	}
	entry.ID = id

	s.logger.Info("outflow recorded",
		zap.String("entry_id", id),
		zap.String("source", string(entry.Source)),
		zap.Float64("amount", entry.Amount),
	)
	return entry, nil
}

// Update replaces the fields of an outflow.
func (s *Service) Update(ctx context.Context, id string, in EntryInput) (models.CashFlowEntry, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return models.CashFlowEntry{}, err
	}

	entry, err := s.build(in)
	if err != nil {
		return models.CashFlowEntry{}, err
	}
	entry.ID = id
	entry.CreatedAt = current.CreatedAt

	err = s.entries.Update(ctx, id, bson.M{
		"date":        entry.Date,
		"description": entry.Description,
		"amount":      entry.Amount,
		"source":      entry.Source,
		"sub_source":  entry.SubSource,
	})
	if err != nil {
		return models.CashFlowEntry{}, &models.PersistenceError{Op: "update", Collection: store.CollectionCashFlow, ID: id, Err: err}
	}

	s.logger.Info("outflow updated", zap.String("entry_id", id))
	return entry, nil
}

// Delete removes an outflow.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.entries.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return &models.PersistenceError{Op: "delete", Collection: store.CollectionCashFlow, ID: id, Err: err}
	}
	s.logger.Info("outflow deleted", zap.String("entry_id", id))
	return nil
}

// Get loads one outflow.
func (s *Service) Get(ctx context.Context, id string) (models.CashFlowEntry, error) {
	entry, err := s.entries.Get(ctx, id)
	if err != nil {
		return models.CashFlowEntry{}, fmt.Errorf("load cash-flow entry %s: %w", id, err)
	}
	return entry, nil
}

// List returns every outflow, newest first.
func (s *Service) List(ctx context.Context) ([]models.CashFlowEntry, error) {
	entries, err := s.entries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cash-flow entries: %w", err)
	}
	return entries, nil
}

// Position computes both balances and the split of the cash balance.
func (s *Service) Position(ctx context.Context) (models.CashPosition, error) {
	sales, err := s.sales.List(ctx)
	if err != nil {
		return models.CashPosition{}, fmt.Errorf("list sales: %w", err)
	}
	entries, err := s.List(ctx)
	if err != nil {
		return models.CashPosition{}, err
	}
	split, err := s.Split(ctx)
	if err != nil {
		return models.CashPosition{}, err
	}
	return Position(sales, entries, split), nil
}

// Position derives the cash and packaging balances, each floored at zero.
func Position(sales []models.Sale, entries []models.CashFlowEntry, split models.CashSplit) models.CashPosition {
	var totalSales, totalProfit, packaging, cashOut, packagingOut money.Sum
	for _, sale := range sales {
		totalSales.Add(sale.Total)
		totalProfit.Add(sale.Profit)
		for _, line := range sale.Lines {
			packaging.AddTimes(line.Item.PackagingCost, line.Quantity)
		}
	}
	for _, entry := range entries {
		switch entry.Source {
		case models.SourceCash:
			cashOut.Add(entry.Amount)
		case models.SourcePackaging:
			packagingOut.Add(entry.Amount)
		}
	}

	pos := models.CashPosition{
		TotalSales:       totalSales.Float(),
		TotalProfit:      totalProfit.Float(),
		PackagingValue:   packaging.Float(),
		CashOutflows:     cashOut.Float(),
		PackagingOutflow: packagingOut.Float(),
		Split:            split,
	}
	pos.CashBalance = math.Max(0, totalSales.Decimal().Sub(cashOut.Decimal()).InexactFloat64())
	pos.PackagingBalance = math.Max(0, packaging.Decimal().Sub(packagingOut.Decimal()).InexactFloat64())

	shares := split.Split().Distribute(pos.CashBalance)
	pos.SplitAmounts = models.CashSplit{
		Reinvestment: money.Round(shares[0]),
		StoreCash:    money.Round(shares[1]),
		Salary:       money.Round(shares[2]),
	}
	return pos
}

// Split returns the saved cash split, or the default one.
func (s *Service) Split(ctx context.Context) (models.CashSplit, error) {
	cfg, err := s.splits.Get(ctx, models.CashSplitID)
	if errors.Is(err, store.ErrNotFound) {
		return models.DefaultCashSplit, nil
	}
	if err != nil {
		return models.CashSplit{}, fmt.Errorf("load cash split: %w", err)
	}
	return cfg.Split, nil
}

// AdjustSplit sets one share of the cash split, clamped to [0, 100], takes
// any excess over 100 from the other shares proportionally and saves the
// result.
func (s *Service) AdjustSplit(ctx context.Context, share models.CashSubSource, value float64) (models.CashSplit, error) {
	idx, ok := share.Index()
	if !ok {
		return models.CashSplit{}, models.NewValidationError("share", fmt.Sprintf("unknown share %q", share))
	}
	current, err := s.Split(ctx)
	if err != nil {
		return models.CashSplit{}, err
	}

	value = math.Min(100, math.Max(0, value))
	next := models.CashSplitFrom(current.Split().Adjust(idx, value))
	if err := s.saveSplit(ctx, next); err != nil {
		return models.CashSplit{}, err
	}
	return next, nil
}

// SaveSplit replaces the cash split. The shares must add up to 100.
func (s *Service) SaveSplit(ctx context.Context, split models.CashSplit) (models.CashSplit, error) {
	if err := split.Split().Validate(); err != nil {
		return models.CashSplit{}, err
	}
	if err := s.saveSplit(ctx, split); err != nil {
		return models.CashSplit{}, err
	}
	return split, nil
}

func (s *Service) saveSplit(ctx context.Context, split models.CashSplit) error {
	if err := s.splits.Put(ctx, models.CashSplitID, bson.M{"split": split}); err != nil {
		return &models.PersistenceError{Op: "upsert", Collection: store.CollectionConfig, ID: models.CashSplitID, Err: err}
	}
	s.logger.Info("cash split saved",
		zap.Float64("reinvestment", split.Reinvestment),
		zap.Float64("store_cash", split.StoreCash),
		zap.Float64("salary", split.Salary),
	)
	return nil
}

func (s *Service) build(in EntryInput) (models.CashFlowEntry, error) {
	description := textutil.Title(in.Description)
	switch {
	case description == "":
		return models.CashFlowEntry{}, models.NewValidationError("description", "is required")
	case in.Amount <= 0:
		return models.CashFlowEntry{}, models.NewValidationError("amount", "must be greater than zero")
	case !in.Source.Valid():
		return models.CashFlowEntry{}, models.NewValidationError("source", fmt.Sprintf("unknown source %q", in.Source))
	}

	entry := models.CashFlowEntry{
		Description: description,
		Amount:      in.Amount,
		Source:      in.Source,
	}

	if in.Source == models.SourceCash {
		entry.SubSource = in.SubSource
		if entry.SubSource == "" {
			entry.SubSource = models.SubReinvestment
		}
		if !entry.SubSource.Valid() {
			return models.CashFlowEntry{}, models.NewValidationError("sub_source", fmt.Sprintf("unknown sub-source %q", in.SubSource))
		}
	}

	if strings.TrimSpace(in.Date) == "" {
		entry.Date = dates.Noon(s.now(), s.loc)
		return entry, nil
	}
	day, err := dates.ParseDay(in.Date, s.loc)
	if err != nil {
		return models.CashFlowEntry{}, models.NewValidationError("date", "must be a YYYY-MM-DD date")
	}
	entry.Date = day
	return entry, nil
}
