package mintcore

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ligun0805/nft-mint/internal/chain"
	"github.com/ligun0805/nft-mint/internal/config"
	"github.com/ligun0805/nft-mint/internal/metrics"
)

// Request is one state-changing user action.
type Request struct {
	Kind        Kind
	Quantity    int      // PublicMint
	Approved    *big.Int // PublicMint; payment the user agreed to, nil to accept any
	TargetID    *big.Int // PreMint
	Beneficiary string   // PreMint, FreeMint; configured default when empty
}

// Submit routes req to the matching operation.
func (a *App) Submit(ctx context.Context, req Request) (*Receipt, error) {
	switch req.Kind {
	case PublicMint:
		return a.PublicMintQuoted(ctx, req.Quantity, req.Approved)
	case PreMint:
		return a.PreMint(ctx, req.TargetID, req.Beneficiary)
	case FreeMint:
		return a.FreeMint(ctx, req.Beneficiary)
	case Claim:
		return a.ClaimRewards(ctx)
	}
	return nil, fmt.Errorf("unknown request kind %v", req.Kind)
}

// Quote returns what a public mint of quantity would pay right now,
// reading the unit price and presale flag fresh.
func (a *App) Quote(ctx context.Context, quantity int) (*big.Int, bool, error) {
	h := a.current()
	if h == nil {
		return nil, false, ErrNotInitialized
	}
	if err := a.checkQuantity(quantity); err != nil {
		return nil, false, err
	}
	return a.quote(ctx, h, quantity)
}

func (a *App) checkQuantity(quantity int) error {
	if quantity < 1 || quantity > a.opts.MaxMintQuantity {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidQuantity, quantity, a.opts.MaxMintQuantity)
	}
	return nil
}

func (a *App) quote(ctx context.Context, h *chain.Handle, quantity int) (*big.Int, bool, error) {
	cctx, cancel := context.WithTimeout(ctx, a.opts.CallTimeout)
	defer cancel()

	unit, err := h.MintPriceA(cctx)
	if err != nil {
		return nil, false, &ReadError{Field: FieldPriceA, Err: err}
	}
	presale, err := h.IsPresaleLive(cctx)
	if err != nil {
		a.log.Warn("presale flag unknown, quoting full price", zap.Error(err))
		presale = false
	}
	payment, err := a.opts.Policy.Quote(unit, int64(quantity), presale)
	if err != nil {
		return nil, false, err
	}
	return payment, presale, nil
}

// PublicMint pays for quantity units at the current price and waits for inclusion.
func (a *App) PublicMint(ctx context.Context, quantity int) (*Receipt, error) {
	return a.PublicMintQuoted(ctx, quantity, nil)
}

// PublicMintQuoted is PublicMint that refuses to pay anything but approved
// when approved is set. The price is still re-read before sending.
func (a *App) PublicMintQuoted(ctx context.Context, quantity int, approved *big.Int) (*Receipt, error) {
	if a.current() == nil {
		return nil, ErrNotInitialized
	}
	if err := a.checkQuantity(quantity); err != nil {
		return nil, err
	}
	return a.submit(ctx, PublicMint, func(ctx context.Context, h *chain.Handle, log *zap.Logger) (*types.Transaction, *big.Int, error) {
		payment, presale, err := a.quote(ctx, h, quantity)
		if err != nil {
			return nil, nil, err
		}
		if approved != nil && payment.Cmp(approved) != 0 {
			return nil, nil, fmt.Errorf("%w: approved %s, now %s", ErrQuoteChanged, approved, payment)
		}
		log.Info("mint quoted",
			zap.Int("quantity", quantity),
			zap.Bool("presale", presale),
			zap.String("payment", payment.String()))
		tx, err := h.Mint(ctx, int64(quantity), payment, a.opts.MintGasLimit)
		return tx, payment, err
	})
}

// PreMint is the owner path: tokenID goes to beneficiary with no payment attached.
func (a *App) PreMint(ctx context.Context, tokenID *big.Int, beneficiary string) (*Receipt, error) {
	return a.submit(ctx, PreMint, func(ctx context.Context, h *chain.Handle, log *zap.Logger) (*types.Transaction, *big.Int, error) {
		if tokenID == nil || tokenID.Sign() < 0 {
			return nil, nil, errors.New("premint needs a non-negative token id")
		}
		to, err := config.Beneficiary(beneficiary, a.opts.PremintBeneficiary)
		if err != nil {
			return nil, nil, err
		}
		log.Info("premint", zap.String("token_id", tokenID.String()), zap.String("to", to.Hex()))
		tx, err := h.PreMint(ctx, tokenID, to)
		return tx, nil, err
	})
}

// FreeMint mints one token to beneficiary without payment.
func (a *App) FreeMint(ctx context.Context, beneficiary string) (*Receipt, error) {
	return a.submit(ctx, FreeMint, func(ctx context.Context, h *chain.Handle, log *zap.Logger) (*types.Transaction, *big.Int, error) {
		to, err := config.Beneficiary(beneficiary, a.opts.FreemintBeneficiary)
		if err != nil {
			return nil, nil, err
		}
		log.Info("freemint", zap.String("to", to.Hex()))
		tx, err := h.FreeMint(ctx, to)
		return tx, nil, err
	})
}

// ClaimRewards claims the rewards of the connected account.
func (a *App) ClaimRewards(ctx context.Context) (*Receipt, error) {
	return a.submit(ctx, Claim, func(ctx context.Context, h *chain.Handle, _ *zap.Logger) (*types.Transaction, *big.Int, error) {
		tx, err := h.ClaimRewards(ctx, h.Account())
		return tx, nil, err
	})
}

type sendFunc func(ctx context.Context, h *chain.Handle, log *zap.Logger) (*types.Transaction, *big.Int, error)

func (a *App) begin(k Kind) (*chain.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.handle == nil {
		return nil, ErrNotInitialized
	}
	if a.inflight[k] {
		return nil, ErrSubmissionPending
	}
	a.inflight[k] = true
	return a.handle, nil
}

func (a *App) end(k Kind) {
	a.mu.Lock()
	delete(a.inflight, k)
	a.mu.Unlock()
}

// submit sends, waits for the receipt and refreshes reads exactly once on success.
// Sending and waiting are each bounded by TxTimeout. Display fields are only
// touched by the refresh.
func (a *App) submit(ctx context.Context, k Kind, send sendFunc) (*Receipt, error) {
	h, err := a.begin(k)
	if err != nil {
		metrics.SubmissionsTotal.WithLabelValues(k.String(), "rejected").Inc()
		return nil, err
	}
	id := uuid.NewString()
	log := a.log.With(
		zap.String("submission", id),
		zap.String("kind", k.String()),
		zap.Uint64("generation", h.Generation))
	a.store.Dispatch(SubmissionStarted{Kind: k})

	fail := func(err error) (*Receipt, error) {
		serr := &SubmissionError{Kind: k, Err: err}
		a.end(k)
		a.store.Dispatch(SubmissionFinished{Kind: k, Err: serr})
		metrics.SubmissionsTotal.WithLabelValues(k.String(), "error").Inc()
		log.Warn("submission failed", zap.Error(err))
		return nil, serr
	}

	sctx, scancel := context.WithTimeout(ctx, a.opts.TxTimeout)
	tx, payment, err := send(sctx, h, log)
	scancel()
	if err != nil {
		return fail(err)
	}
	log.Info("transaction sent", zap.String("tx", tx.Hash().Hex()))

	start := time.Now()
	wctx, cancel := context.WithTimeout(ctx, a.opts.TxTimeout)
	rcpt, err := h.WaitMined(wctx, tx)
	cancel()
	if err != nil {
		return fail(err)
	}
	if rcpt.Status != types.ReceiptStatusSuccessful {
		return fail(fmt.Errorf("%w: %s in block %d", ErrReverted, tx.Hash().Hex(), blockOf(rcpt)))
	}
	metrics.ConfirmDuration.Observe(time.Since(start).Seconds())

	out := &Receipt{
		ID:          id,
		Kind:        k,
		TxHash:      tx.Hash(),
		BlockNumber: blockOf(rcpt),
		GasUsed:     rcpt.GasUsed,
		Payment:     payment,
	}
	a.end(k)
	a.store.Dispatch(SubmissionFinished{Kind: k, Receipt: out})
	metrics.SubmissionsTotal.WithLabelValues(k.String(), "ok").Inc()
	log.Info("transaction confirmed",
		zap.String("tx", out.TxHash.Hex()),
		zap.Uint64("block", out.BlockNumber),
		zap.Uint64("gas_used", out.GasUsed))

	a.RefreshAll(ctx)
	return out, nil
}

func blockOf(r *types.Receipt) uint64 {
	if r.BlockNumber == nil {
		return 0
	}
	return r.BlockNumber.Uint64()
}
