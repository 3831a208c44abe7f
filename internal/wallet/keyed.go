package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/ligun0805/nft-mint/internal/chain"
)

// Client is the node connection a keyed wallet signs against.
type Client interface {
	chain.Backend
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// DialFunc opens a node connection.
type DialFunc func(ctx context.Context, rawURL string) (Client, error)

// DialEthclient dials with go-ethereum's ethclient.
func DialEthclient(ctx context.Context, rawURL string) (Client, error) {
	ec, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return ec, nil
}

// Parse hex ECDSA private key (with / without 0x).
func hexToECDSAPriv(s string) (*ecdsa.PrivateKey, error) {
	h := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if len(h) == 0 {
		return nil, errors.New("empty private key")
	}
	return gethcrypto.HexToECDSA(h)
}

// NewTransactorFromHex builds *bind.TransactOpts from hex key and chain ID.
func NewTransactorFromHex(pkHex string, chainID *big.Int) (*bind.TransactOpts, error) {
	prv, err := hexToECDSAPriv(pkHex)
	if err != nil {
		return nil, err
	}
	return bind.NewKeyedTransactorWithChainID(prv, chainID)
}

// KeyedProvider is a local wallet: one private key signing over an RPC node.
type KeyedProvider struct {
	rpcURL string
	dial   DialFunc
	log    *zap.Logger

	mu     sync.Mutex
	keyHex string
	client Client
	status Status
	subs   map[int]func(Status)
	nextID int
}

// Option configures a KeyedProvider.
type Option func(*KeyedProvider)

// WithDialer replaces the ethclient dialer.
func WithDialer(d DialFunc) Option {
	return func(p *KeyedProvider) { p.dial = d }
}

// NewKeyedProvider returns a disconnected provider for rpcURL and keyHex.
func NewKeyedProvider(rpcURL, keyHex string, log *zap.Logger, opts ...Option) *KeyedProvider {
	if log == nil {
		log = zap.NewNop()
	}
	p := &KeyedProvider{
		rpcURL: rpcURL,
		keyHex: keyHex,
		dial:   DialEthclient,
		log:    log,
		subs:   map[int]func(Status){},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Connect dials the node, reads its chain ID and derives the signer.
func (p *KeyedProvider) Connect(ctx context.Context) error {
	p.mu.Lock()
	if p.status.Wallet != nil || p.status.Connecting {
		p.mu.Unlock()
		return nil
	}
	p.status.Connecting = true
	keyHex := p.keyHex
	p.mu.Unlock()
	p.notify()

	client, session, err := p.open(ctx, keyHex)

	p.mu.Lock()
	p.status.Connecting = false
	if err == nil {
		p.client = client
		p.status.Wallet = session
	}
	p.mu.Unlock()
	p.notify()

	if err != nil {
		p.log.Warn("wallet connect failed", zap.String("rpc", p.rpcURL), zap.Error(err))
		return err
	}
	p.log.Info("wallet connected",
		zap.String("account", session.Account.Hex()),
		zap.Int64("chain_id", session.ChainID))
	return nil
}

func (p *KeyedProvider) open(ctx context.Context, keyHex string) (Client, *chain.Session, error) {
	client, err := p.dial(ctx, p.rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", p.rpcURL, err)
	}
	session, err := sessionFor(ctx, client, keyHex)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return client, session, nil
}

func sessionFor(ctx context.Context, client Client, keyHex string) (*chain.Session, error) {
	id, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	opts, err := NewTransactorFromHex(keyHex, id)
	if err != nil {
		return nil, fmt.Errorf("signer: %w", err)
	}
	return &chain.Session{
		ChainID: id.Int64(),
		Account: opts.From,
		Backend: client,
		Signer:  opts.Signer,
	}, nil
}

// SwitchAccount replaces the signing key. A connected provider publishes a
// new session so dependents rebuild their handles.
func (p *KeyedProvider) SwitchAccount(ctx context.Context, keyHex string) error {
	p.mu.Lock()
	client := p.client
	p.mu.Unlock()

	if client == nil {
		if _, err := hexToECDSAPriv(keyHex); err != nil {
			return fmt.Errorf("signer: %w", err)
		}
		p.mu.Lock()
		p.keyHex = keyHex
		p.mu.Unlock()
		return nil
	}

	session, err := sessionFor(ctx, client, keyHex)
	if err != nil {
		return err
	}
	p.mu.Lock()
	if p.client != client {
		p.mu.Unlock()
		return errors.New("wallet disconnected during account switch")
	}
	p.keyHex = keyHex
	p.status.Wallet = session
	p.mu.Unlock()
	p.notify()
	p.log.Info("wallet account switched", zap.String("account", session.Account.Hex()))
	return nil
}

// Disconnect drops the session and closes the node connection.
func (p *KeyedProvider) Disconnect() {
	p.mu.Lock()
	client := p.client
	p.client = nil
	was := p.status.Wallet != nil
	p.status = Status{}
	p.mu.Unlock()

	if client != nil {
		client.Close()
	}
	if was {
		p.notify()
		p.log.Info("wallet disconnected")
	}
}

// Status returns the current provider state.
func (p *KeyedProvider) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Subscribe registers fn for status changes.
func (p *KeyedProvider) Subscribe(fn func(Status)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *KeyedProvider) notify() {
	p.mu.Lock()
	st := p.status
	fns := make([]func(Status), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}
