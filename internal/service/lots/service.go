package lots

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/solarie/joias/internal/domain/models"
	"github.com/solarie/joias/internal/repository/store"
	"github.com/solarie/joias/pkg/dates"
	"github.com/solarie/joias/pkg/money"
)

// Share names one slice of a lot's profit split.
type Share string

const (
	ShareReinvestment Share = "reinvestment"
	ShareReserve      Share = "reserve"
	ShareNet          Share = "net"
)

func (s Share) index() (int, bool) {
	switch s {
	case ShareReinvestment:
		return 0, true
	case ShareReserve:
		return 1, true
	case ShareNet:
		return 2, true
	}
	return 0, false
}

// ItemLister lists inventory records.
type ItemLister interface {
	List(ctx context.Context) ([]models.Item, error)
}

// SaleLister lists committed sales.
type SaleLister interface {
	List(ctx context.Context) ([]models.Sale, error)
}

// ConfigStore persists lot profit splits.
type ConfigStore interface {
	Put(ctx context.Context, id string, fields bson.M) error
	Get(ctx context.Context, id string) (models.LotConfig, error)
	List(ctx context.Context) ([]models.LotConfig, error)
}

// Service aggregates inventory and sales into purchase lots.
type Service struct {
	items   ItemLister
	sales   SaleLister
	configs ConfigStore
	loc     *time.Location
	logger  *zap.Logger
}

// NewService wires a new lot aggregator.
func NewService(items ItemLister, sales SaleLister, configs ConfigStore, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{items: items, sales: sales, configs: configs, loc: loc, logger: logger}
}

// List returns every lot with its metrics and split distribution.
func (s *Service) List(ctx context.Context) ([]models.Lot, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	sales, err := s.sales.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	configs, err := s.configs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lot configs: %w", err)
	}
	return Aggregate(items, sales, configs, s.loc), nil
}

// Get returns the lot identified by key.
func (s *Service) Get(ctx context.Context, key models.LotKey) (models.Lot, error) {
	lots, err := s.List(ctx)
	if err != nil {
		return models.Lot{}, err
	}
	for _, lot := range lots {
		if lot.Key == key {
			return lot, nil
		}
	}
	return models.Lot{}, fmt.Errorf("lot %s/%s: %w", key.Supplier, key.Date, store.ErrNotFound)
}

// SaveSplit persists the profit split of a lot. The three shares must be
// non-negative and add up to exactly 100.
func (s *Service) SaveSplit(ctx context.Context, key models.LotKey, split models.ProfitSplit) (models.LotConfig, error) {
	if key.Supplier == "" || key.Date == "" {
		return models.LotConfig{}, models.NewValidationError("lot", "supplier and lot date are required")
	}
	if err := split.Split().Validate(); err != nil {
		return models.LotConfig{}, err
	}

	id := ConfigID(key)
	err := s.configs.Put(ctx, id, bson.M{
		"supplier": key.Supplier,
		"lot_date": key.Date,
		"split":    split,
	})
	if err != nil {
		return models.LotConfig{}, &models.PersistenceError{Op: "upsert", Collection: store.CollectionLots, ID: id, Err: err}
	}

	cfg, err := s.configs.Get(ctx, id)
	if err != nil {
		return models.LotConfig{}, fmt.Errorf("reload lot config %s: %w", id, err)
	}

	s.logger.Info("lot split saved",
		zap.String("supplier", key.Supplier),
		zap.String("lot_date", key.Date),
		zap.Float64("reinvestment", split.Reinvestment),
		zap.Float64("reserve", split.Reserve),
		zap.Float64("net", split.Net),
	)
	return cfg, nil
}

// AdjustSplit sets one share, clamped to [0, 100], and takes any excess over
// 100 from the two other shares in proportion to their size.
func AdjustSplit(current models.ProfitSplit, share Share, value float64) (models.ProfitSplit, error) {
	idx, ok := share.index()
	if !ok {
		return current, models.NewValidationError("share", fmt.Sprintf("unknown share %q", share))
	}
	value = math.Min(100, math.Max(0, value))
	return models.ProfitSplitFrom(current.Split().Adjust(idx, value)), nil
}

// ConfigID is the document id of a lot's configuration.
func ConfigID(key models.LotKey) string {
	return key.Supplier + "__" + key.Date
}

// KeyFor returns the lot an item belongs to.
func KeyFor(item models.Item, loc *time.Location) models.LotKey {
	key := models.LotKey{Supplier: item.Supplier, Date: models.NoDateKey}
	if item.PurchaseDate != nil && !item.PurchaseDate.IsZero() {
		key.Date = dates.DayKey(*item.PurchaseDate, loc)
	}
	return key
}

type accumulator struct {
	lot       models.Lot
	invested  money.Sum
	sold      money.Sum
	profit    money.Sum
	packaging money.Sum
}

// Aggregate groups items into lots and attributes every sale line to the lot
// of its item snapshot. Sales of lots without remaining items are ignored.
func Aggregate(items []models.Item, sales []models.Sale, configs []models.LotConfig, loc *time.Location) []models.Lot {
	groups := make(map[models.LotKey]*accumulator)
	for _, item := range items {
		key := KeyFor(item, loc)
		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{lot: models.Lot{Key: key}}
			groups[key] = acc
		}
		acc.lot.Items = append(acc.lot.Items, item)
		acc.lot.UnitsTotal += item.Quantity
		acc.invested.AddTimes(item.AcquisitionCost, item.Quantity)
	}

	for _, sale := range sales {
		for _, line := range sale.Lines {
			acc, ok := groups[KeyFor(line.Item, loc)]
			if !ok {
				continue
			}
			acc.sold.Add(line.Subtotal)
			acc.profit.Add(line.Profit())
			acc.packaging.AddTimes(line.Item.PackagingCost, line.Quantity)
			acc.lot.UnitsSold += line.Quantity
		}
	}

	byKey := make(map[models.LotKey]models.LotConfig, len(configs))
	for _, cfg := range configs {
		byKey[cfg.Key()] = cfg
	}

	lots := make([]models.Lot, 0, len(groups))
	for key, acc := range groups {
		lot := acc.lot
		lot.Invested = acc.invested.Float()
		lot.SoldValue = acc.sold.Float()
		lot.Profit = acc.profit.Float()
		lot.PackagingSold = acc.packaging.Float()

		// Lot size is units on hand plus units already sold, so percent sold
		// reaches 100 once the lot is sold out. Counting on-hand units only
		// would drop a sold-out lot back to 0%.
		lot.UnitsTotal += lot.UnitsSold
		if lot.UnitsTotal > 0 {
			lot.PercentSold = float64(lot.UnitsSold) / float64(lot.UnitsTotal) * 100
		}

		lot.Split = models.DefaultProfitSplit
		if cfg, ok := byKey[key]; ok {
			lot.ConfigID = cfg.ID
			lot.Split = cfg.Split
		}
		lot.Distribution = Distribute(lot.SoldValue, lot.PackagingSold, lot.Split)
		lots = append(lots, lot)
	}

	sort.Slice(lots, func(i, j int) bool {
		a, b := lots[i].Key, lots[j].Key
		if a.Supplier != b.Supplier {
			return a.Supplier < b.Supplier
		}
		if (a.Date == models.NoDateKey) != (b.Date == models.NoDateKey) {
			return b.Date == models.NoDateKey
		}
		return a.Date > b.Date
	})
	return lots
}

// Distribute splits the lot's sold value net of packaging.
func Distribute(soldValue, packagingSold float64, split models.ProfitSplit) models.ProfitDistribution {
	base := money.Round(math.Max(0, soldValue-packagingSold))
	shares := split.Split().Distribute(base)
	return models.ProfitDistribution{
		Base:         base,
		Reinvestment: money.Round(shares[0]),
		Reserve:      money.Round(shares[1]),
		Net:          money.Round(shares[2]),
	}
}
