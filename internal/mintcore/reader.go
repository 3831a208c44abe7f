package mintcore

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/ligun0805/nft-mint/internal/chain"
	"github.com/ligun0805/nft-mint/internal/metrics"
)

// RefreshAll re-reads prices, rewards, supply and the presale flag
// concurrently with the current handle. It is a no-op while disconnected.
func (a *App) RefreshAll(ctx context.Context) {
	if h := a.current(); h != nil {
		a.refreshAll(ctx, h)
	}
}

// RefreshPrices re-reads both unit prices.
func (a *App) RefreshPrices(ctx context.Context) {
	if h := a.current(); h != nil {
		a.refreshPrices(ctx, h)
	}
}

// RefreshRewards re-reads the claimable amount of account.
func (a *App) RefreshRewards(ctx context.Context, account common.Address) {
	if h := a.current(); h != nil {
		a.refreshRewards(ctx, h, account)
	}
}

// RefreshTotalSupply re-reads the minted count.
func (a *App) RefreshTotalSupply(ctx context.Context) {
	if h := a.current(); h != nil {
		a.refreshTotalSupply(ctx, h)
	}
}

// RefreshPresaleActive re-reads the presale flag.
func (a *App) RefreshPresaleActive(ctx context.Context) {
	if h := a.current(); h != nil {
		a.refreshPresaleActive(ctx, h)
	}
}

func (a *App) refreshAll(ctx context.Context, h *chain.Handle) {
	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); a.refreshPrices(ctx, h) }()
	go func() { defer wg.Done(); a.refreshRewards(ctx, h, h.Account()) }()
	go func() { defer wg.Done(); a.refreshTotalSupply(ctx, h) }()
	go func() { defer wg.Done(); a.refreshPresaleActive(ctx, h) }()
	wg.Wait()
}

// read runs fn under the per-call timeout and records the outcome.
func (a *App) read(ctx context.Context, h *chain.Handle, field Field, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, a.opts.CallTimeout)
	defer cancel()

	start := time.Now()
	err := fn(cctx)
	metrics.ReadDuration.WithLabelValues(string(field)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ReadsTotal.WithLabelValues(string(field), "error").Inc()
		rerr := &ReadError{Field: field, Err: err}
		a.log.Warn("contract read failed", zap.Uint64("generation", h.Generation), zap.Error(rerr))
		return rerr
	}
	metrics.ReadsTotal.WithLabelValues(string(field), "ok").Inc()
	return nil
}

func (a *App) dispatchRead(field Field, act Action) {
	if !a.store.Dispatch(act) {
		a.log.Debug("stale read discarded", zap.String("field", string(field)))
	}
}

func (a *App) refreshPrices(ctx context.Context, h *chain.Handle) {
	var (
		pa, pb     *big.Int
		errA, errB error
		wg         sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errA = a.read(ctx, h, FieldPriceA, func(ctx context.Context) error {
			var err error
			pa, err = h.MintPriceA(ctx)
			return err
		})
	}()
	go func() {
		defer wg.Done()
		errB = a.read(ctx, h, FieldPriceB, func(ctx context.Context) error {
			var err error
			pb, err = h.MintPriceB(ctx)
			return err
		})
	}()
	wg.Wait()
	a.dispatchRead(FieldPriceA, PricesLoaded{Generation: h.Generation, A: pa, B: pb, ErrA: errA, ErrB: errB})
}

func (a *App) refreshRewards(ctx context.Context, h *chain.Handle, account common.Address) {
	var amount *big.Int
	err := a.read(ctx, h, FieldRewards, func(ctx context.Context) error {
		var err error
		amount, err = h.ClaimableAmount(ctx, account)
		return err
	})
	a.dispatchRead(FieldRewards, RewardsLoaded{Generation: h.Generation, Amount: amount, Err: err})
}

func (a *App) refreshTotalSupply(ctx context.Context, h *chain.Handle) {
	var supply *big.Int
	err := a.read(ctx, h, FieldSupply, func(ctx context.Context) error {
		var err error
		supply, err = h.TotalSupply(ctx)
		return err
	})
	a.dispatchRead(FieldSupply, SupplyLoaded{Generation: h.Generation, Supply: supply, Err: err})
}

func (a *App) refreshPresaleActive(ctx context.Context, h *chain.Handle) {
	var live bool
	err := a.read(ctx, h, FieldPresale, func(ctx context.Context) error {
		var err error
		live, err = h.IsPresaleLive(ctx)
		return err
	})
	a.dispatchRead(FieldPresale, PresaleLoaded{Generation: h.Generation, Active: live, Err: err})
}
