package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/solarie/joias/internal/domain/models"
	"github.com/solarie/joias/internal/repository/store"
	"github.com/solarie/joias/internal/service/pricing"
	"github.com/solarie/joias/pkg/dates"
	"github.com/solarie/joias/pkg/money"
	"github.com/solarie/joias/pkg/textutil"
)

// ItemStore is the persistence surface the ledger needs.
type ItemStore interface {
	Create(ctx context.Context, doc models.Item) (string, error)
	Update(ctx context.Context, id string, fields bson.M) error
	Replace(ctx context.Context, id string, doc models.Item) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (models.Item, error)
	List(ctx context.Context) ([]models.Item, error)
}

// ItemInput carries the user-entered fields of an item.
type ItemInput struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Quantity      int     `json:"quantity"`
	Material      string  `json:"material"`
	Supplier      string  `json:"supplier"`
	PurchaseDate  string  `json:"purchase_date"`
	UnitPrice     float64 `json:"unit_price"`
	TotalFreight  float64 `json:"total_freight"`
	BatchSize     int     `json:"batch_size"`
	PackagingCost float64 `json:"packaging_cost"`
	OtherCosts    float64 `json:"other_costs"`
	MarginPct     float64 `json:"margin_pct"`
	FeePct        float64 `json:"fee_pct"`
}

// Filter narrows an item listing. Text fields match case-insensitively as
// substrings; Category and Status must match exactly when set.
type Filter struct {
	Code     string            `form:"code"`
	Name     string            `form:"name"`
	Category string            `form:"category"`
	Status   models.ItemStatus `form:"status"`
	Material string            `form:"material"`
	Supplier string            `form:"supplier"`
}

// Service is the inventory ledger.
type Service struct {
	items  ItemStore
	loc    *time.Location
	logger *zap.Logger
}

// NewService wires a new inventory ledger.
func NewService(items ItemStore, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{items: items, loc: loc, logger: logger}
}

// Register records a purchased item with its derived prices.
func (s *Service) Register(ctx context.Context, in ItemInput) (models.Item, error) {
	item, err := s.build(in)
	if err != nil {
		return models.Item{}, err
	}

	id, err := s.items.Create(ctx, item)
	if err != nil {
		return models.Item{}, &models.PersistenceError{Op: "create", Collection: store.CollectionItems, Err: err}
	}
	item.ID = id

	s.logger.Info("item registered", zap.String("item_id", id), zap.String("code", item.Code), zap.Int("quantity", item.Quantity))
	return item, nil
}

// Update replaces the user-entered fields of an item and recomputes its
// derived prices and status.
func (s *Service) Update(ctx context.Context, id string, in ItemInput) (models.Item, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return models.Item{}, err
	}

	item, err := s.build(in)
	if err != nil {
		return models.Item{}, err
	}
	item.ID = id
	item.CreatedAt = current.CreatedAt

	if err := s.items.Replace(ctx, id, item); err != nil {
		return models.Item{}, &models.PersistenceError{Op: "update", Collection: store.CollectionItems, ID: id, Err: err}
	}

	s.logger.Info("item updated", zap.String("item_id", id), zap.String("code", item.Code))
	return item, nil
}

// Remove deletes an item. Sales already referencing it keep their snapshot
// but can no longer restock it.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.items.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return &models.PersistenceError{Op: "delete", Collection: store.CollectionItems, ID: id, Err: err}
	}
	s.logger.Info("item removed", zap.String("item_id", id))
	return nil
}

// Get loads one item.
func (s *Service) Get(ctx context.Context, id string) (models.Item, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return models.Item{}, fmt.Errorf("load item %s: %w", id, err)
	}
	return item, nil
}

// List returns the items matching f, available items first, then by code and name.
func (s *Service) List(ctx context.Context, f Filter) ([]models.Item, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	filtered := make([]models.Item, 0, len(items))
	for _, item := range items {
		if f.matches(item) {
			filtered = append(filtered, item)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.Status != b.Status {
			return a.Status == models.ItemAvailable
		}
		ac, bc := strings.ToLower(a.Code), strings.ToLower(b.Code)
		if ac != bc {
			return ac < bc
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	return filtered, nil
}

// Sellable returns available items whose code or name contains query.
func (s *Service) Sellable(ctx context.Context, query string) ([]models.Item, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	var out []models.Item
	for _, item := range items {
		if !item.Sellable() {
			continue
		}
		if textutil.ContainsFold(item.Code, query) || textutil.ContainsFold(item.Name, query) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Adjust changes an item's on-hand quantity by delta against its live value
// and sets the status that matches the result. Decrements beyond the live
// quantity fail with InsufficientStockError without writing.
func (s *Service) Adjust(ctx context.Context, id string, delta int) (models.Item, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return models.Item{}, fmt.Errorf("load item %s: %w", id, err)
	}

	next := item.Quantity + delta
	if next < 0 {
		return item, &models.InsufficientStockError{
			ItemID:    item.ID,
			Code:      item.Code,
			Name:      item.Name,
			Available: item.Quantity,
			Requested: -delta,
		}
	}

	status := models.StatusFor(next)
	if err := s.items.Update(ctx, id, bson.M{models.FieldQuantity: next, models.FieldStatus: status}); err != nil {
		return item, &models.PersistenceError{Op: "update", Collection: store.CollectionItems, ID: id, Err: err}
	}

	item.Quantity = next
	item.Status = status
	s.logger.Debug("stock adjusted", zap.String("item_id", id), zap.Int("delta", delta), zap.Int("quantity", next))
	return item, nil
}

// Stats summarizes the given items.
func Stats(items []models.Item) models.StockStats {
	var invested, stockValue money.Sum
	stats := models.StockStats{TotalItems: len(items)}

	for _, item := range items {
		switch item.Status {
		case models.ItemAvailable:
			stats.AvailableItems++
			stockValue.AddTimes(item.FinalSalePrice, item.Quantity)
		case models.ItemSold:
			stats.SoldItems++
		}
		invested.AddTimes(item.AcquisitionCost, item.Quantity)
	}

	stats.Invested = invested.Float()
	stats.StockValue = stockValue.Float()
	stats.PotentialProfit = stockValue.Decimal().Sub(invested.Decimal()).InexactFloat64()
	return stats
}

// Stats summarizes the whole inventory.
func (s *Service) Stats(ctx context.Context) (models.StockStats, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return models.StockStats{}, fmt.Errorf("list items: %w", err)
	}
	return Stats(items), nil
}

func (s *Service) build(in ItemInput) (models.Item, error) {
	if err := validate(in); err != nil {
		return models.Item{}, err
	}

	item := models.Item{
		Code:          textutil.Code(in.Code),
		Name:          textutil.Title(in.Name),
		Category:      strings.TrimSpace(in.Category),
		Quantity:      in.Quantity,
		Material:      textutil.Title(in.Material),
		Supplier:      textutil.Title(in.Supplier),
		UnitPrice:     in.UnitPrice,
		TotalFreight:  in.TotalFreight,
		BatchSize:     in.BatchSize,
		PackagingCost: in.PackagingCost,
		OtherCosts:    in.OtherCosts,
		MarginPct:     in.MarginPct,
		FeePct:        in.FeePct,
		Status:        models.StatusFor(in.Quantity),
	}

	if in.PurchaseDate != "" {
		day, err := dates.ParseDay(in.PurchaseDate, s.loc)
		if err != nil {
			return models.Item{}, models.NewValidationError("purchase_date", "must be a YYYY-MM-DD date")
		}
		item.PurchaseDate = &day
	}

	derived := pricing.Derive(pricing.Inputs{
		UnitPrice:     item.UnitPrice,
		TotalFreight:  item.TotalFreight,
		BatchSize:     item.BatchSize,
		PackagingCost: item.PackagingCost,
		OtherCosts:    item.OtherCosts,
		MarginPct:     item.MarginPct,
		FeePct:        item.FeePct,
	})
	item.FreightPerUnit = derived.FreightPerUnit
	item.AcquisitionCost = derived.AcquisitionCost
	item.FinalSalePrice = derived.FinalSalePrice
	item.ExpectedProfit = derived.ExpectedProfit

	return item, nil
}

func validate(in ItemInput) error {
	switch {
	case strings.TrimSpace(in.Code) == "":
		return models.NewValidationError("code", "is required")
	case strings.TrimSpace(in.Name) == "":
		return models.NewValidationError("name", "is required")
	case strings.TrimSpace(in.Category) == "":
		return models.NewValidationError("category", "is required")
	case strings.TrimSpace(in.Material) == "":
		return models.NewValidationError("material", "is required")
	case strings.TrimSpace(in.Supplier) == "":
		return models.NewValidationError("supplier", "is required")
	case in.Quantity <= 0:
		return models.NewValidationError("quantity", "must be greater than zero")
	case in.UnitPrice <= 0:
		return models.NewValidationError("unit_price", "must be greater than zero")
	case in.BatchSize <= 0:
		return models.NewValidationError("batch_size", "must be greater than zero")
	}
	return nil
}

func (f Filter) matches(item models.Item) bool {
	return textutil.ContainsFold(item.Code, f.Code) &&
		textutil.ContainsFold(item.Name, f.Name) &&
		(f.Category == "" || item.Category == f.Category) &&
		(f.Status == "" || item.Status == f.Status) &&
		textutil.ContainsFold(item.Material, f.Material) &&
		textutil.ContainsFold(item.Supplier, f.Supplier)
}
