// Package chaintest provides an in-memory chain backend for tests.
// It answers eth_call by ABI-packing canned outputs and records every
// transaction sent through it.
package chaintest

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ligun0805/nft-mint/internal/chain"
)

// Gate holds a method's calls until released.
type Gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	relOnce sync.Once
}

// Entered is closed when the first call reaches the gate.
func (g *Gate) Entered() <-chan struct{} { return g.entered }

// Release lets held calls continue.
func (g *Gate) Release() { g.relOnce.Do(func() { close(g.release) }) }

// Backend implements chain.Backend in memory.
type Backend struct {
	ABI abi.ABI

	mu       sync.Mutex
	results  map[string][]interface{}
	errs     map[string]error
	gates    map[string]*Gate
	calls    map[string]int
	sent     []*types.Transaction
	status   uint64
	sendErr  error
	waitErr  error
	nonce    uint64
	gasLimit uint64
}

// New returns a backend for the given ABI JSON (chain.DefaultABI when empty).
func New(abiJSON string) *Backend {
	if abiJSON == "" {
		abiJSON = chain.DefaultABI
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(fmt.Sprintf("chaintest: bad abi: %v", err))
	}
	return &Backend{
		ABI:      parsed,
		results:  map[string][]interface{}{},
		errs:     map[string]error{},
		gates:    map[string]*Gate{},
		calls:    map[string]int{},
		status:   types.ReceiptStatusSuccessful,
		gasLimit: 100_000,
	}
}

// SetResult makes calls to method return values.
func (b *Backend) SetResult(method string, values ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results[method] = values
	delete(b.errs, method)
}

// SetError makes calls to method fail with err.
func (b *Backend) SetError(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs[method] = err
}

// Block holds calls to method until the returned gate is released.
func (b *Backend) Block(method string) *Gate {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := &Gate{entered: make(chan struct{}), release: make(chan struct{})}
	b.gates[method] = g
	return g
}

// SetReceiptStatus sets the status of receipts for sent transactions.
func (b *Backend) SetReceiptStatus(status uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = status
}

// SetSendError makes SendTransaction fail.
func (b *Backend) SetSendError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendErr = err
}

// SetReceiptError makes receipt lookups fail.
func (b *Backend) SetReceiptError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.waitErr = err
}

// Calls reports how many eth_calls reached method.
func (b *Backend) Calls(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[method]
}

// Sent returns the transactions accepted so far.
func (b *Backend) Sent() []*types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Transaction(nil), b.sent...)
}

// Decode returns the method name and arguments of a sent transaction.
func (b *Backend) Decode(tx *types.Transaction) (string, []interface{}, error) {
	data := tx.Data()
	if len(data) < 4 {
		return "", nil, errors.New("chaintest: short calldata")
	}
	m, err := b.ABI.MethodById(data[:4])
	if err != nil {
		return "", nil, err
	}
	args, err := m.Inputs.Unpack(data[4:])
	return m.Name, args, err
}

func (b *Backend) CallContract(ctx context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if len(call.Data) < 4 {
		return nil, errors.New("chaintest: short calldata")
	}
	m, err := b.ABI.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.calls[m.Name]++
	g := b.gates[m.Name]
	b.mu.Unlock()

	if g != nil {
		g.once.Do(func() { close(g.entered) })
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.errs[m.Name]; err != nil {
		return nil, err
	}
	values, ok := b.results[m.Name]
	if !ok {
		return nil, fmt.Errorf("execution reverted: no result for %s", m.Name)
	}
	return m.Outputs.Pack(values...)
}

func (b *Backend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (b *Backend) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return []byte{0x60, 0x80}, nil
}

func (b *Backend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: big.NewInt(25_000_000_000)}, nil
}

func (b *Backend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonce, nil
}

func (b *Backend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(25_000_000_000), nil
}

func (b *Backend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *Backend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gasLimit, nil
}

func (b *Backend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}
	b.sent = append(b.sent, tx)
	b.nonce++
	return nil
}

func (b *Backend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.waitErr != nil {
		return nil, b.waitErr
	}
	for i, tx := range b.sent {
		if tx.Hash() == hash {
			return &types.Receipt{
				Status:      b.status,
				TxHash:      hash,
				BlockNumber: big.NewInt(int64(100 + i)),
				GasUsed:     b.gasLimit / 2,
			}, nil
		}
	}
	return nil, ethereum.NotFound
}

func (b *Backend) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (b *Backend) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("chaintest: subscriptions not supported")
}

// Session returns a wallet session on chainID signed by a fresh key.
func Session(t testing.TB, backend chain.Backend, chainID int64) *chain.Session {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(chainID))
	if err != nil {
		t.Fatalf("transactor: %v", err)
	}
	return &chain.Session{
		ChainID: chainID,
		Account: opts.From,
		Backend: backend,
		Signer:  opts.Signer,
	}
}
