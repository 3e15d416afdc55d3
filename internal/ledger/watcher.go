package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/peakecoin/peakpoker/internal/hive"
)

// DefaultPollInterval matches the original deposit watcher cadence
const DefaultPollInterval = 30 * time.Second

// defaultFetchLimit is how many recent transfers each poll inspects
const defaultFetchLimit = 100

// TransferSource supplies recent token transfers into an account,
// newest first. Implemented by hive.Client.
type TransferSource interface {
	TransfersTo(ctx context.Context, account, symbol string, limit int) ([]hive.Transfer, error)
}

// Crediter records a deposit against an account. Implemented by
// BalanceStore.
type Crediter interface {
	Credit(ctx context.Context, account string, amount float64) error
}

// Watcher polls the chain history for deposits to the platform account
// and credits them to player balances. Each transaction id is credited
// at most once per process lifetime.
type Watcher struct {
	source   TransferSource
	store    Crediter
	platform string
	symbol   string
	interval time.Duration
	clock    quartz.Clock
	logger   *log.Logger
	seen     map[string]struct{}
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithClock replaces the wall clock, for tests
func WithClock(clock quartz.Clock) WatcherOption {
	return func(w *Watcher) { w.clock = clock }
}

// WithInterval overrides the poll interval
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.interval = d }
}

// NewWatcher creates a deposit watcher for the platform account
func NewWatcher(source TransferSource, store Crediter, platform, symbol string, logger *log.Logger, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		source:   source,
		store:    store,
		platform: platform,
		symbol:   symbol,
		interval: DefaultPollInterval,
		clock:    quartz.NewReal(),
		logger:   logger.WithPrefix("deposits"),
		seen:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until ctx is cancelled. Poll failures are transient and
// logged, never fatal: the next tick retries.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("starting deposit watcher", "platform", w.platform, "symbol", w.symbol, "interval", w.interval)

	w.pollOnce(ctx)
	waiter := w.clock.TickerFunc(ctx, w.interval, func() error {
		w.pollOnce(ctx)
		return nil
	}, "deposit-watcher")

	err := waiter.Wait()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (w *Watcher) pollOnce(ctx context.Context) {
	transfers, err := w.source.TransfersTo(ctx, w.platform, w.symbol, defaultFetchLimit)
	if err != nil {
		w.logger.Warn("deposit poll failed", "error", err)
		return
	}

	for _, tx := range transfers {
		if tx.ID == "" {
			continue
		}
		if _, ok := w.seen[tx.ID]; ok {
			continue
		}
		w.seen[tx.ID] = struct{}{}

		account := strings.ToLower(tx.From)
		amount := tx.Amount()
		if account == "" || amount <= 0 || tx.Symbol != w.symbol {
			continue
		}
		if err := w.store.Credit(ctx, account, amount); err != nil {
			// Forget the tx so the next poll retries the credit
			delete(w.seen, tx.ID)
			w.logger.Error("failed to credit deposit", "tx", tx.ID, "account", account, "error", err)
			continue
		}
		w.logger.Info("deposit credited", "tx", tx.ID, "account", account, "amount", amount, "symbol", w.symbol)
	}
}
