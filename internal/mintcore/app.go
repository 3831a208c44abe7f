// Package mintcore keeps contract state in sync with the connected wallet
// and submits mint and claim transactions.
package mintcore

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ligun0805/nft-mint/internal/chain"
	"github.com/ligun0805/nft-mint/internal/config"
	"github.com/ligun0805/nft-mint/internal/metrics"
	"github.com/ligun0805/nft-mint/internal/pricing"
	"github.com/ligun0805/nft-mint/internal/wallet"
)

// Options configures an App.
type Options struct {
	Binding             chain.Binding
	Policy              pricing.Policy
	MintGasLimit        uint64
	MaxMintQuantity     int
	PremintBeneficiary  string
	FreemintBeneficiary string
	CallTimeout         time.Duration
	TxTimeout           time.Duration
	PriceDecimals       int
	RewardDecimals      int
	ChainLabel          string
	TokenName           string
}

// OptionsFromSettings maps loaded settings onto App options.
func OptionsFromSettings(st config.Settings, abiJSON string) Options {
	return Options{
		Binding:             chain.BindingFromSettings(st, abiJSON),
		Policy:              pricing.Policy{Numerator: st.DiscountNumerator, Denominator: st.DiscountDenominator},
		MintGasLimit:        st.MintGasLimit,
		MaxMintQuantity:     st.MaxMintQuantity,
		PremintBeneficiary:  st.PremintBeneficiary,
		FreemintBeneficiary: st.FreemintBeneficiary,
		CallTimeout:         st.CallTimeout,
		TxTimeout:           st.TxTimeout,
		PriceDecimals:       st.PriceDecimals,
		RewardDecimals:      st.RewardDecimals,
		ChainLabel:          st.ChainLabel,
		TokenName:           st.ChainTokenName,
	}
}

func (o *Options) defaults() {
	if o.MaxMintQuantity < 1 {
		o.MaxMintQuantity = 10
	}
	if o.MintGasLimit == 0 {
		o.MintGasLimit = 8_000_000
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = 15 * time.Second
	}
	if o.TxTimeout <= 0 {
		o.TxTimeout = 3 * time.Minute
	}
}

// App owns the current contract handle and its session generation.
type App struct {
	opts  Options
	log   *zap.Logger
	store *Store

	mu       sync.Mutex
	handle   *chain.Handle
	gen      uint64
	inflight map[Kind]bool
}

// New returns a disconnected App.
func New(opts Options, log *zap.Logger) *App {
	opts.defaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		opts: opts,
		log:  log,
		store: NewStore(Presentation{
			Policy:         opts.Policy,
			PriceDecimals:  opts.PriceDecimals,
			RewardDecimals: opts.RewardDecimals,
			ChainLabel:     opts.ChainLabel,
			TokenName:      opts.TokenName,
		}),
		inflight: map[Kind]bool{},
	}
}

// Store exposes the observable state.
func (a *App) Store() *Store { return a.store }

// Options returns the effective options.
func (a *App) Options() Options { return a.opts }

func (a *App) current() *chain.Handle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle
}

// switchSession rebuilds the handle for session (nil disconnects) and
// publishes the new generation before any read can use it.
func (a *App) switchSession(session *chain.Session) (*chain.Handle, error) {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	var (
		h   *chain.Handle
		err error
	)
	if session != nil {
		h, err = chain.Build(session, a.opts.Binding, gen)
	}
	a.handle = h
	a.mu.Unlock()

	metrics.SessionGeneration.Set(float64(gen))
	wrong := errors.Is(err, chain.ErrWrongChain)
	if wrong {
		metrics.WrongChain.Set(1)
	} else {
		metrics.WrongChain.Set(0)
	}

	ev := SessionChanged{Generation: gen, Connected: session != nil, WrongChain: wrong, Err: err}
	if session != nil {
		ev.Account = session.Account
	}
	a.store.Dispatch(ev)

	switch {
	case err != nil:
		a.log.Warn("contract handle not built", zap.Uint64("generation", gen), zap.Error(err))
	case h == nil:
		a.log.Info("session cleared", zap.Uint64("generation", gen))
	default:
		a.log.Info("contract handle built",
			zap.Uint64("generation", gen),
			zap.String("account", session.Account.Hex()),
			zap.String("contract", h.Address().Hex()))
	}
	return h, err
}

// Connect binds session and refreshes every read before returning.
// A wrong-chain session is reported through the state and the error.
func (a *App) Connect(ctx context.Context, session *chain.Session) error {
	if session == nil {
		return chain.ErrNoSession
	}
	h, err := a.switchSession(session)
	if err != nil {
		return err
	}
	a.refreshAll(ctx, h)
	return nil
}

// Disconnect drops the handle; in-flight reads become stale.
func (a *App) Disconnect() {
	_, _ = a.switchSession(nil)
}

// Watch follows p, rebuilding the handle on every session change. Reads for
// a new session start without waiting for the previous session's reads.
func (a *App) Watch(ctx context.Context, p wallet.Provider) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)

	var (
		mu     sync.Mutex
		latest wallet.Status
	)
	kick := make(chan struct{}, 1)
	push := func(s wallet.Status) {
		mu.Lock()
		latest = s
		mu.Unlock()
		select {
		case kick <- struct{}{}:
		default:
		}
	}
	unsub := p.Subscribe(push)
	push(p.Status())

	done := make(chan struct{})
	go func() {
		defer close(done)
		var last *chain.Session
		first := true
		for {
			select {
			case <-ctx.Done():
				return
			case <-kick:
			}
			mu.Lock()
			st := latest
			mu.Unlock()

			a.store.Dispatch(ConnectingChanged{Connecting: st.Connecting})
			if !first && st.Wallet == last {
				continue
			}
			first = false
			last = st.Wallet
			h, err := a.switchSession(st.Wallet)
			if err == nil && h != nil {
				go a.refreshAll(ctx, h)
			}
		}
	}()

	return func() {
		unsub()
		cancel()
		<-done
	}
}
