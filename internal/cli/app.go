package cli

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/services"
	"fintrack/internal/store"
)

// App is the wired object graph shared by the server, the worker and the
// command line tool.
type App struct {
	Config    *config.Config
	Backend   *backend.BackendResult
	Book      *store.Book
	Ledger    *ledger.Ledger
	Resolver  *rates.Resolver
	Entry     *services.EntryService
	Dashboard *services.DashboardService
}

// NewApp opens the configured backend and builds the services on top of it.
// The workbook client is created once here and passed down explicitly.
func NewApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	app, err := Wire(cfg, res, time.Now, logger)
	if err != nil {
		res.Close()
		return nil, err
	}
	return app, nil
}

// Wire builds the services over an existing backend.
func Wire(cfg *config.Config, res *backend.BackendResult, now func() time.Time, logger *log.Logger) (*App, error) {
	book := store.New(res.Workbook, store.Options{
		DataTTL:   cfg.DataCacheTTL,
		HeaderTTL: cfg.HeaderCacheTTL,
		RateTTL:   cfg.RateCacheTTL,
		Logger:    logger.WithComponent(log.ComponentStore),
	})

	opts := []ledger.Option{ledger.WithLogger(logger.WithComponent(log.ComponentLedger))}
	if cfg.CategoriesSeedFile != "" {
		seed, err := ledger.LoadSeed(cfg.CategoriesSeedFile)
		if err != nil {
			return nil, fmt.Errorf("load categories seed: %w", err)
		}
		opts = append(opts, ledger.WithSeed(seed))
	}
	l := ledger.New(book, ledger.Tables{
		Transactions: cfg.TransactionsSheet,
		Categories:   cfg.CategoriesSheet,
		Rates:        cfg.RatesSheet,
	}, opts...)

	client := rates.NewHTTPClient(cfg.FXTimeout)
	chain := rates.NewChain(
		rates.NewFrankfurter(cfg.FXPrimaryURL, client),
		rates.NewERAPI(cfg.FXSecondaryURL, client, now),
	)
	resolver := rates.NewResolver(l, chain, logger.WithComponent(log.ComponentRates))

	return &App{
		Config:    cfg,
		Backend:   res,
		Book:      book,
		Ledger:    l,
		Resolver:  resolver,
		Entry:     services.NewEntryService(l, resolver, now, logger.WithComponent(log.ComponentLedger)),
		Dashboard: services.NewDashboardService(l),
	}, nil
}

// Close stops cache cleanup and releases the backend.
func (a *App) Close() error {
	a.Book.Close()
	return a.Backend.Close()
}
