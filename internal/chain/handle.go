package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ligun0805/nft-mint/internal/config"
)

// Binding is the configured target of a handle.
type Binding struct {
	ChainID int64
	Address common.Address
	ABI     string // JSON; DefaultABI when empty
	Methods config.Methods
}

// BindingFromSettings derives the binding from loaded settings.
// abiJSON is the contents of CONTRACT_ABI_PATH, or empty.
func BindingFromSettings(st config.Settings, abiJSON string) Binding {
	return Binding{
		ChainID: st.ChainID,
		Address: st.Contract(),
		ABI:     abiJSON,
		Methods: st.Methods,
	}
}

// Handle is a read/write capability on the mint contract for one wallet
// session. It is never reused across sessions.
type Handle struct {
	Generation uint64

	session  *Session
	address  common.Address
	methods  config.Methods
	contract *bind.BoundContract
}

// Build validates the session against the binding and binds the contract.
// No call is made to the chain.
func Build(session *Session, b Binding, generation uint64) (*Handle, error) {
	if session == nil || session.Backend == nil {
		return nil, ErrNoSession
	}
	if session.ChainID != b.ChainID {
		return nil, fmt.Errorf("%w: wallet chain %d, want %d", ErrWrongChain, session.ChainID, b.ChainID)
	}
	src := b.ABI
	if strings.TrimSpace(src) == "" {
		src = DefaultABI
	}
	parsed, err := abi.JSON(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: parse abi: %v", ErrContractInit, err)
	}
	for _, name := range []string{
		b.Methods.PriceA, b.Methods.PriceB, b.Methods.Claimable, b.Methods.TotalSupply,
		b.Methods.Presale, b.Methods.Mint, b.Methods.PreMint, b.Methods.FreeMint, b.Methods.Claim,
	} {
		if _, ok := parsed.Methods[name]; !ok {
			return nil, fmt.Errorf("%w: abi has no method %q", ErrContractInit, name)
		}
	}
	if b.Address == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero contract address", ErrContractInit)
	}
	return &Handle{
		Generation: generation,
		session:    session,
		address:    b.Address,
		methods:    b.Methods,
		contract:   bind.NewBoundContract(b.Address, parsed, session.Backend, session.Backend, session.Backend),
	}, nil
}

// Account is the signer the handle was built for.
func (h *Handle) Account() common.Address { return h.session.Account }

// Address is the bound contract address.
func (h *Handle) Address() common.Address { return h.address }

func (h *Handle) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	err := withRetry(ctx, func() error {
		out = nil
		return h.contract.Call(&bind.CallOpts{Context: ctx, From: h.session.Account}, &out, method, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("call %s: empty result", method)
	}
	return out, nil
}

func (h *Handle) callBig(ctx context.Context, method string, args ...interface{}) (*big.Int, error) {
	out, err := h.call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("call %s: unexpected result type %T", method, out[0])
	}
	return v, nil
}

// MintPriceA reads the native-currency unit price.
func (h *Handle) MintPriceA(ctx context.Context) (*big.Int, error) {
	return h.callBig(ctx, h.methods.PriceA)
}

// MintPriceB reads the secondary-currency unit price.
func (h *Handle) MintPriceB(ctx context.Context) (*big.Int, error) {
	return h.callBig(ctx, h.methods.PriceB)
}

// ClaimableAmount reads the rewards claimable by account.
func (h *Handle) ClaimableAmount(ctx context.Context, account common.Address) (*big.Int, error) {
	return h.callBig(ctx, h.methods.Claimable, account)
}

// TotalSupply reads the number of tokens minted so far.
func (h *Handle) TotalSupply(ctx context.Context) (*big.Int, error) {
	return h.callBig(ctx, h.methods.TotalSupply)
}

// IsPresaleLive reads the presale flag.
func (h *Handle) IsPresaleLive(ctx context.Context) (bool, error) {
	out, err := h.call(ctx, h.methods.Presale)
	if err != nil {
		return false, err
	}
	v, ok := out[0].(bool)
	if !ok {
		return false, fmt.Errorf("call %s: unexpected result type %T", h.methods.Presale, out[0])
	}
	return v, nil
}

func (h *Handle) transact(ctx context.Context, value *big.Int, gasLimit uint64, method string, args ...interface{}) (*types.Transaction, error) {
	if h.session.Signer == nil {
		return nil, errors.New("wallet session has no signer")
	}
	opts := &bind.TransactOpts{
		From:     h.session.Account,
		Signer:   h.session.Signer,
		Value:    value,
		GasLimit: gasLimit,
		Context:  ctx,
	}
	tx, err := h.contract.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", method, err)
	}
	return tx, nil
}

// Mint sends the public mint with the given payment and gas limit.
func (h *Handle) Mint(ctx context.Context, quantity int64, value *big.Int, gasLimit uint64) (*types.Transaction, error) {
	return h.transact(ctx, value, gasLimit, h.methods.Mint, big.NewInt(quantity))
}

// PreMint sends the owner premint of tokenID to beneficiary. No value is attached.
func (h *Handle) PreMint(ctx context.Context, tokenID *big.Int, beneficiary common.Address) (*types.Transaction, error) {
	return h.transact(ctx, nil, 0, h.methods.PreMint, tokenID, beneficiary)
}

// FreeMint sends a free mint to beneficiary.
func (h *Handle) FreeMint(ctx context.Context, beneficiary common.Address) (*types.Transaction, error) {
	return h.transact(ctx, nil, 0, h.methods.FreeMint, beneficiary)
}

// ClaimRewards claims the rewards accrued by account.
func (h *Handle) ClaimRewards(ctx context.Context, account common.Address) (*types.Transaction, error) {
	return h.transact(ctx, nil, 0, h.methods.Claim, account)
}

// WaitMined blocks until tx is included or ctx ends.
func (h *Handle) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	rcpt, err := bind.WaitMined(ctx, h.session.Backend, tx)
	if err != nil {
		return nil, fmt.Errorf("wait %s: %w", tx.Hash().Hex(), err)
	}
	return rcpt, nil
}
