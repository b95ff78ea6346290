package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/gorilla/mux"
	"github.com/mailgun/holster/v4/syncutil"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ssgreg/repeat"

	"github.com/TxnLab/gemfarm/internal/lib/algo"
	"github.com/TxnLab/gemfarm/internal/lib/api"
	"github.com/TxnLab/gemfarm/internal/lib/ledger"
	"github.com/TxnLab/gemfarm/internal/lib/misc"
	"github.com/TxnLab/gemfarm/internal/lib/staking"
)

// Daemon serves the read-only farm API and metrics, and periodically checks that every farm vault actually
// holds what the ledger says it should.
type Daemon struct {
	logger     *slog.Logger
	algoClient *algod.Client
	ledger     *ledger.Ledger

	listen         string
	refreshMinutes int
}

func newDaemon(listen string, refreshMinutes int) *Daemon {
	return &Daemon{
		logger:         App.logger,
		algoClient:     App.algoClient,
		ledger:         App.ledger,
		listen:         listen,
		refreshMinutes: refreshMinutes,
	}
}

func (d *Daemon) start(ctx context.Context, wg *sync.WaitGroup) {
	d.logger.Info("Starting gemfarm daemon")
	if nodeVersion, err := algo.GetVersionString(ctx, d.algoClient); err != nil {
		misc.Warnf(d.logger, "unable to fetch algod version: %v", err)
	} else {
		misc.Infof(d.logger, "connected to algod %s", nodeVersion)
	}

	server := &http.Server{
		Addr:              d.listen,
		Handler:           d.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		misc.Infof(d.logger, "listening on %s", d.listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			misc.Errorf(d.logger, "http server failure: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.Refresher(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer d.logger.Info("exiting daemon start function")
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			misc.Warnf(d.logger, "http server shutdown: %v", err)
		}
	}()
}

func (d *Daemon) router() *mux.Router {
	router := mux.NewRouter()
	api.New(d.ledger).Mount(router, "/farms")
	router.Handle("/metrics", promhttp.Handler())
	return router
}

// Refresher publishes farm stats and reconciles vault holdings right away and then at each refresh boundary.
func (d *Daemon) Refresher(ctx context.Context) {
	defer d.logger.Info("Exiting Refresher")
	d.logger.Info("Starting Refresher")

	d.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(durationToNextRefresh(time.Now(), d.refreshMinutes)):
			d.refresh(ctx)
		}
	}
}

func (d *Daemon) refresh(ctx context.Context) {
	farms, err := d.ledger.Farms()
	if err != nil {
		misc.Errorf(d.logger, "unable to list farms: %v", err)
		return
	}
	fanOut := syncutil.NewFanOut(20)
	for _, farm := range farms {
		fanOut.Run(func(val any) error {
			farm := val.(*staking.Farm)
			stats, err := d.ledger.Stats(farm.ID)
			if err != nil {
				return fmt.Errorf("farm %d stats: %w", farm.ID, err)
			}
			ledger.PublishStats(farm.ID, stats)
			shortfall, err := d.reconcile(ctx, farm)
			if err != nil {
				return fmt.Errorf("farm %d reconcile: %w", farm.ID, err)
			}
			ledger.PublishShortfall(farm.ID, shortfall)
			return nil
		}, farm)
	}
	for _, err := range fanOut.Wait() {
		misc.Warnf(d.logger, "refresh error: %v", err)
	}
}

// reconcile compares the ledger's view of the vault against the chain and returns how many assets fall short.
func (d *Daemon) reconcile(ctx context.Context, farm *staking.Farm) (int, error) {
	expected, err := d.ledger.ExpectedHoldings(farm.ID)
	if err != nil {
		return 0, err
	}
	var actual map[staking.AssetID]uint64
	err = repeat.Repeat(
		repeat.Fn(func() error {
			holdings, fetchErr := algo.AccountHoldings(ctx, d.algoClient, farm.Vault)
			if fetchErr != nil {
				return repeat.HintTemporary(fetchErr)
			}
			actual = holdings
			return nil
		}),
		repeat.StopOnSuccess(),
		repeat.LimitMaxTries(5),
		repeat.WithDelay(
			repeat.SetContext(ctx),
			repeat.SetContextHintStop(),
			(&repeat.FullJitterBackoffBuilder{
				BaseDelay: 1 * time.Second,
				MaxDelay:  10 * time.Second,
			}).Set(),
		),
	)
	if err != nil {
		return 0, err
	}
	return shortfalls(d.logger, farm.ID, expected, actual), nil
}

func shortfalls(logger *slog.Logger, farm staking.FarmID, expected, actual map[staking.AssetID]uint64) int {
	var short int
	for asset, want := range expected {
		if have := actual[asset]; have < want {
			misc.Warnf(logger, "farm %d vault holds %d of asset %d, ledger expects %d", farm, have, asset, want)
			short++
		}
	}
	return short
}

// durationToNextRefresh returns how long until the next wall-clock multiple of refreshMinutes (UTC based).
func durationToNextRefresh(now time.Time, refreshMinutes int) time.Duration {
	interval := time.Duration(refreshMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Minute
	}
	return now.Truncate(interval).Add(interval).Sub(now)
}
