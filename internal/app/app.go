// Package app assembles the services and HTTP surface on top of a document
// backend.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/solarie/joias/internal/config"
	"github.com/solarie/joias/internal/domain/models"
	"github.com/solarie/joias/internal/repository/sheets"
	"github.com/solarie/joias/internal/repository/store"
	"github.com/solarie/joias/internal/server/handlers"
	"github.com/solarie/joias/internal/server/router"
	"github.com/solarie/joias/internal/service/auth"
	"github.com/solarie/joias/internal/service/cashflow"
	"github.com/solarie/joias/internal/service/inventory"
	"github.com/solarie/joias/internal/service/lots"
	"github.com/solarie/joias/internal/service/reporting"
	"github.com/solarie/joias/internal/service/sales"
	"github.com/solarie/joias/internal/service/whatsapp"
)

// Integrations are the optional outbound services. Nil fields disable them.
type Integrations struct {
	Sheet     sheets.Repository
	Messaging whatsapp.MessagingService
}

// App holds the wired services and the HTTP engine.
type App struct {
	Inventory *inventory.Service
	Sales     *sales.Service
	Lots      *lots.Service
	CashFlow  *cashflow.Service
	Reporting *reporting.Service
	Auth      *auth.Service
	Engine    *gin.Engine
}

// New builds every service over backend and installs the default password
// if none is stored yet.
func New(ctx context.Context, cfg *config.Config, backend store.Backend, loc *time.Location, ext Integrations, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	items := store.NewCollection[models.Item](backend, store.CollectionItems)
	saleDocs := store.NewCollection[models.Sale](backend, store.CollectionSales)
	lotConfigs := store.NewCollection[models.LotConfig](backend, store.CollectionLots)
	entries := store.NewCollection[models.CashFlowEntry](backend, store.CollectionCashFlow)
	cashSplits := store.NewCollection[models.CashSplitConfig](backend, store.CollectionConfig)
	credentials := store.NewCollection[auth.Credentials](backend, store.CollectionConfig)

	a := &App{}
	a.Inventory = inventory.NewService(items, loc, logger.Named("svc.inventory"))
	a.Sales = sales.NewService(saleDocs, a.Inventory, sales.DefaultPolicies, loc, logger.Named("svc.sales"))
	a.Lots = lots.NewService(items, saleDocs, lotConfigs, loc, logger.Named("svc.lots"))
	a.CashFlow = cashflow.NewService(entries, saleDocs, cashSplits, loc, logger.Named("svc.cashflow"))
	a.Reporting = reporting.NewService(items, saleDocs, ext.Sheet, loc, logger.Named("svc.reporting"))
	a.Auth = auth.NewService(credentials, cfg.Auth, logger.Named("svc.auth"))

	if err := a.Auth.EnsureDefaultPassword(ctx); err != nil {
		return nil, fmt.Errorf("bootstrap credentials: %w", err)
	}

	streams := handlers.NewStreamHandler(map[string]handlers.SnapshotSource{
		items.Name():      handlers.Snapshots(items),
		saleDocs.Name():   handlers.Snapshots(saleDocs),
		lotConfigs.Name(): handlers.Snapshots(lotConfigs),
		entries.Name():    handlers.Snapshots(entries),
	}, logger.Named("handlers.stream"))

	a.Engine = router.New(router.Handlers{
		Auth:     handlers.NewAuthHandler(a.Auth, logger.Named("handlers.auth")),
		Items:    handlers.NewItemHandler(a.Inventory, logger.Named("handlers.items")),
		Sales:    handlers.NewSaleHandler(a.Sales, logger.Named("handlers.sales")),
		Lots:     handlers.NewLotHandler(a.Lots, logger.Named("handlers.lots")),
		CashFlow: handlers.NewCashFlowHandler(a.CashFlow, logger.Named("handlers.cashflow")),
		Reports:  handlers.NewReportHandler(a.Reporting, ext.Messaging, loc, logger.Named("handlers.reports")),
		Stream:   streams,
	}, logger.Named("router"))

	return a, nil
}
