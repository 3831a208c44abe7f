package mintcore

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ligun0805/nft-mint/internal/chain"
	"github.com/ligun0805/nft-mint/internal/chain/chaintest"
	"github.com/ligun0805/nft-mint/internal/config"
	"github.com/ligun0805/nft-mint/internal/pricing"
)

const testChainID = 19

var (
	testContract    = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	testBeneficiary = "0xAe159D94CFd3Dea954389C4a181a3DB1F42b75B4"
)

func ether(n int64, tenths int64) *big.Int {
	v := new(big.Int).Mul(big.NewInt(n*10+tenths), big.NewInt(100_000_000_000_000_000))
	return v
}

func testOptions() Options {
	return Options{
		Binding: chain.Binding{
			ChainID: testChainID,
			Address: testContract,
			Methods: config.Methods{
				PriceA:      "MINT_PRICE_SGB",
				PriceB:      "MINT_PRICE_CGLD",
				Claimable:   "getClaimableAmountSGB",
				TotalSupply: "totalSupply",
				Presale:     "isPresaleLive",
				Mint:        "mintNFTSGB",
				PreMint:     "preMintNFT",
				FreeMint:    "freeMintNFT",
				Claim:       "claimRewardsSGB",
			},
		},
		Policy:              pricing.Default,
		MintGasLimit:        8_000_000,
		MaxMintQuantity:     10,
		PremintBeneficiary:  testBeneficiary,
		FreemintBeneficiary: testBeneficiary,
		CallTimeout:         2 * time.Second,
		TxTimeout:           5 * time.Second,
		PriceDecimals:       1,
		RewardDecimals:      4,
		ChainLabel:          "Songbird",
		TokenName:           "SGB",
	}
}

func newTestApp() *App { return New(testOptions(), zap.NewNop()) }

// stocked returns a backend with every read answering.
func stocked(presale bool) *chaintest.Backend {
	b := chaintest.New("")
	b.SetResult("MINT_PRICE_SGB", ether(2, 5))
	b.SetResult("MINT_PRICE_CGLD", ether(5, 0))
	b.SetResult("getClaimableAmountSGB", big.NewInt(1_234_567_000_000_000_000))
	b.SetResult("totalSupply", big.NewInt(321))
	b.SetResult("isPresaleLive", presale)
	return b
}

func TestConnectAllReadsSucceed(t *testing.T) {
	app := newTestApp()
	backend := stocked(true)
	session := chaintest.Session(t, backend, testChainID)

	require.NoError(t, app.Connect(context.Background(), session))
	st := app.Store().Snapshot()

	assert.True(t, st.Connected)
	assert.False(t, st.WrongChain)
	assert.Equal(t, session.Account, st.Account)
	assert.Equal(t, "1.2345", st.Rewards)
	assert.Equal(t, "321", st.TotalSupply)
	assert.True(t, st.PresaleActive)
	// 2.5 and 5.0 discounted by 0.9
	assert.Equal(t, "2.2", st.PriceA)
	assert.Equal(t, "4.5", st.PriceB)
	assert.Equal(t, ether(2, 5), st.RawPriceA)
}

func TestConnectWithoutPresaleShowsFullPrices(t *testing.T) {
	app := newTestApp()
	require.NoError(t, app.Connect(context.Background(), chaintest.Session(t, stocked(false), testChainID)))
	st := app.Store().Snapshot()
	assert.Equal(t, "2.5", st.PriceA)
	assert.Equal(t, "5.0", st.PriceB)
}

func TestRewardsReadFailureIsIsolated(t *testing.T) {
	app := newTestApp()
	backend := stocked(false)
	backend.SetError("getClaimableAmountSGB", errors.New("execution reverted"))

	require.NoError(t, app.Connect(context.Background(), chaintest.Session(t, backend, testChainID)))
	st := app.Store().Snapshot()
	assert.Equal(t, "?", st.Rewards)
	assert.Equal(t, "321", st.TotalSupply)
	assert.Equal(t, "2.5", st.PriceA)
	assert.Equal(t, "5.0", st.PriceB)
}

func TestPresaleReadFailureFailsClosed(t *testing.T) {
	app := newTestApp()
	backend := stocked(true)
	backend.SetError("isPresaleLive", errors.New("execution reverted"))

	require.NoError(t, app.Connect(context.Background(), chaintest.Session(t, backend, testChainID)))
	st := app.Store().Snapshot()
	assert.False(t, st.PresaleActive)
	assert.Equal(t, "2.5", st.PriceA)
}

func TestPriceReadFailureShowsUnknown(t *testing.T) {
	app := newTestApp()
	backend := stocked(false)
	backend.SetError("MINT_PRICE_CGLD", errors.New("execution reverted"))

	require.NoError(t, app.Connect(context.Background(), chaintest.Session(t, backend, testChainID)))
	st := app.Store().Snapshot()
	assert.Equal(t, "2.5", st.PriceA)
	assert.Equal(t, "?", st.PriceB)
	assert.Equal(t, "321", st.TotalSupply)

	backend.SetError("MINT_PRICE_SGB", errors.New("execution reverted"))
	backend.SetResult("MINT_PRICE_CGLD", ether(5, 0))
	app.RefreshPrices(context.Background())
	st = app.Store().Snapshot()
	assert.Equal(t, "?", st.PriceA)
	assert.Nil(t, st.RawPriceA)
	assert.Equal(t, "5.0", st.PriceB)
}

func TestStaleReadFromOldSessionIsDiscarded(t *testing.T) {
	app := newTestApp()
	ctx := context.Background()

	oldBackend := stocked(false)
	oldBackend.SetResult("totalSupply", big.NewInt(100))
	gate := oldBackend.Block("totalSupply")
	oldSession := chaintest.Session(t, oldBackend, testChainID)

	newBackend := stocked(false)
	newBackend.SetResult("totalSupply", big.NewInt(200))
	newSession := chaintest.Session(t, newBackend, testChainID)

	done := make(chan error, 1)
	go func() { done <- app.Connect(ctx, oldSession) }()
	select {
	case <-gate.Entered():
	case <-time.After(2 * time.Second):
		t.Fatal("old supply read never started")
	}

	require.NoError(t, app.Connect(ctx, newSession))
	assert.Equal(t, "200", app.Store().Snapshot().TotalSupply)

	gate.Release()
	require.NoError(t, <-done)

	st := app.Store().Snapshot()
	assert.Equal(t, "200", st.TotalSupply)
	assert.Equal(t, newSession.Account, st.Account)
}

func TestWrongChainBuildsNoHandle(t *testing.T) {
	app := newTestApp()
	backend := stocked(false)

	err := app.Connect(context.Background(), chaintest.Session(t, backend, 1))
	require.ErrorIs(t, err, chain.ErrWrongChain)

	st := app.Store().Snapshot()
	assert.True(t, st.WrongChain)
	assert.Equal(t, "Please switch to the Songbird network.", st.NetworkPrompt())
	assert.Nil(t, app.current())

	_, err = app.PublicMint(context.Background(), 1)
	require.ErrorIs(t, err, ErrNotInitialized)
	assert.Zero(t, backend.Calls("MINT_PRICE_SGB"))
	assert.Empty(t, backend.Sent())
}

func TestSubmitWithoutHandleMakesNoNetworkCall(t *testing.T) {
	app := newTestApp()
	ctx := context.Background()
	for _, req := range []Request{
		{Kind: PublicMint, Quantity: 1},
		{Kind: PreMint, TargetID: big.NewInt(1)},
		{Kind: FreeMint},
		{Kind: Claim},
	} {
		_, err := app.Submit(ctx, req)
		require.ErrorIs(t, err, ErrNotInitialized, req.Kind.String())
	}
	assert.Empty(t, app.Store().Snapshot().Pending)
}

func TestPublicMintInPresalePaysDiscountedTotal(t *testing.T) {
	app := newTestApp()
	backend := stocked(true)
	backend.SetResult("MINT_PRICE_SGB", big.NewInt(100))
	ctx := context.Background()
	require.NoError(t, app.Connect(ctx, chaintest.Session(t, backend, testChainID)))
	supplyReads := backend.Calls("totalSupply")

	rcpt, err := app.PublicMint(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "270", rcpt.Payment.String())
	assert.Equal(t, PublicMint, rcpt.Kind)
	assert.NotEmpty(t, rcpt.ID)

	sent := backend.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "270", sent[0].Value().String())
	assert.Equal(t, uint64(8_000_000), sent[0].Gas())
	assert.Equal(t, rcpt.TxHash, sent[0].Hash())

	method, args, err := backend.Decode(sent[0])
	require.NoError(t, err)
	assert.Equal(t, "mintNFTSGB", method)
	assert.Equal(t, "3", args[0].(*big.Int).String())

	// one refresh after confirmation
	assert.Equal(t, supplyReads+1, backend.Calls("totalSupply"))
	st := app.Store().Snapshot()
	assert.False(t, st.IsPending(PublicMint))
	assert.Equal(t, rcpt, st.LastReceipt)
}

func TestPublicMintPresaleUnknownPaysFullPrice(t *testing.T) {
	app := newTestApp()
	backend := stocked(true)
	backend.SetResult("MINT_PRICE_SGB", big.NewInt(100))
	ctx := context.Background()
	require.NoError(t, app.Connect(ctx, chaintest.Session(t, backend, testChainID)))

	backend.SetError("isPresaleLive", errors.New("execution reverted"))
	rcpt, err := app.PublicMint(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "300", rcpt.Payment.String())
}

func TestPublicMintRejectsQuantityOutOfRange(t *testing.T) {
	app := newTestApp()
	backend := stocked(false)
	require.NoError(t, app.Connect(context.Background(), chaintest.Session(t, backend, testChainID)))

	for _, q := range []int{0, -1, 11} {
		_, err := app.PublicMint(context.Background(), q)
		require.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Empty(t, backend.Sent())
}

func TestDuplicateSubmissionIsRejected(t *testing.T) {
	app := newTestApp()
	backend := stocked(false)
	ctx := context.Background()
	require.NoError(t, app.Connect(ctx, chaintest.Session(t, backend, testChainID)))

	gate := backend.Block("MINT_PRICE_SGB")
	done := make(chan error, 1)
	go func() {
		_, err := app.PublicMint(ctx, 2)
		done <- err
	}()
	select {
	case <-gate.Entered():
	case <-time.After(2 * time.Second):
		t.Fatal("first mint never started")
	}

	assert.True(t, app.Store().Snapshot().IsPending(PublicMint))
	_, err := app.PublicMint(ctx, 1)
	require.ErrorIs(t, err, ErrSubmissionPending)

	gate.Release()
	require.NoError(t, <-done)
	assert.Len(t, backend.Sent(), 1)
	assert.False(t, app.Store().Snapshot().IsPending(PublicMint))
}

func TestRevertedReceiptLeavesStateUnchanged(t *testing.T) {
	app := newTestApp()
	backend := stocked(false)
	ctx := context.Background()
	require.NoError(t, app.Connect(ctx, chaintest.Session(t, backend, testChainID)))
	before := app.Store().Snapshot()
	supplyReads := backend.Calls("totalSupply")

	backend.SetReceiptStatus(0)
	_, err := app.ClaimRewards(ctx)

	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, Claim, serr.Kind)
	require.ErrorIs(t, err, ErrReverted)

	after := app.Store().Snapshot()
	assert.Equal(t, before.Rewards, after.Rewards)
	assert.Equal(t, before.TotalSupply, after.TotalSupply)
	assert.Equal(t, before.PriceA, after.PriceA)
	assert.Equal(t, before.PriceB, after.PriceB)
	assert.False(t, after.IsPending(Claim))
	assert.NotEmpty(t, after.LastError)
	assert.Equal(t, supplyReads, backend.Calls("totalSupply"))
}

func TestSendFailureIsSubmissionError(t *testing.T) {
	app := newTestApp()
	backend := stocked(false)
	ctx := context.Background()
	require.NoError(t, app.Connect(ctx, chaintest.Session(t, backend, testChainID)))

	cause := errors.New("user rejected signature")
	backend.SetSendError(cause)
	_, err := app.FreeMint(ctx, "")
	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, FreeMint, serr.Kind)
	require.ErrorIs(t, err, cause)

	// the interlock is released after a failure
	backend.SetSendError(nil)
	_, err = app.FreeMint(ctx, "")
	require.NoError(t, err)
}

func TestReceiptWaitTimesOut(t *testing.T) {
	opts := testOptions()
	opts.TxTimeout = 50 * time.Millisecond
	app := New(opts, zap.NewNop())
	backend := stocked(false)
	ctx := context.Background()
	require.NoError(t, app.Connect(ctx, chaintest.Session(t, backend, testChainID)))

	backend.SetReceiptError(errors.New("header not found"))
	_, err := app.ClaimRewards(ctx)
	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, backend.Sent(), 1)
	assert.False(t, app.Store().Snapshot().IsPending(Claim))
}

// stalledNode accepts calls but never answers a broadcast.
type stalledNode struct{ *chaintest.Backend }

func (stalledNode) SendTransaction(ctx context.Context, _ *types.Transaction) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestStalledSendReleasesInterlock(t *testing.T) {
	opts := testOptions()
	opts.CallTimeout = 50 * time.Millisecond
	opts.TxTimeout = 50 * time.Millisecond
	app := New(opts, zap.NewNop())
	backend := stocked(false)
	ctx := context.Background()
	require.NoError(t, app.Connect(ctx, chaintest.Session(t, stalledNode{backend}, testChainID)))

	done := make(chan error, 1)
	go func() {
		_, err := app.ClaimRewards(ctx)
		done <- err
	}()
	var err error
	select {
	case err = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("claim did not return after a stalled send")
	}
	var serr *SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, app.Store().Snapshot().IsPending(Claim))
	assert.Empty(t, backend.Sent())

	// a second attempt is not blocked by the first
	_, err = app.ClaimRewards(ctx)
	assert.NotErrorIs(t, err, ErrSubmissionPending)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHungReadTimesOutAlone(t *testing.T) {
	opts := testOptions()
	opts.CallTimeout = 50 * time.Millisecond
	app := New(opts, zap.NewNop())
	backend := stocked(true)
	gate := backend.Block("totalSupply")
	t.Cleanup(gate.Release)

	start := time.Now()
	require.NoError(t, app.Connect(context.Background(), chaintest.Session(t, backend, testChainID)))
	assert.Less(t, time.Since(start), 2*time.Second)

	st := app.Store().Snapshot()
	assert.Equal(t, "?", st.TotalSupply)
	assert.Equal(t, "1.2345", st.Rewards)
	assert.Equal(t, "2.2", st.PriceA)
	assert.Equal(t, "4.5", st.PriceB)
	assert.True(t, st.PresaleActive)
}

func TestPublicMintRefusesChangedQuote(t *testing.T) {
	app := newTestApp()
	backend := stocked(false)
	ctx := context.Background()
	require.NoError(t, app.Connect(ctx, chaintest.Session(t, backend, testChainID)))

	approved, _, err := app.Quote(ctx, 2)
	require.NoError(t, err)

	backend.SetResult("isPresaleLive", true)
	_, err = app.Submit(ctx, Request{Kind: PublicMint, Quantity: 2, Approved: approved})
	require.ErrorIs(t, err, ErrQuoteChanged)
	assert.Empty(t, backend.Sent())
	assert.False(t, app.Store().Snapshot().IsPending(PublicMint))

	approved, _, err = app.Quote(ctx, 2)
	require.NoError(t, err)
	rcpt, err := app.PublicMintQuoted(ctx, 2, approved)
	require.NoError(t, err)
	assert.Zero(t, approved.Cmp(rcpt.Payment))
	require.Len(t, backend.Sent(), 1)
	assert.Zero(t, approved.Cmp(backend.Sent()[0].Value()))
}

func TestPreMintSendsNoValueAndSkipsPriceRead(t *testing.T) {
	app := newTestApp()
	backend := stocked(false)
	ctx := context.Background()
	require.NoError(t, app.Connect(ctx, chaintest.Session(t, backend, testChainID)))
	priceReads := backend.Calls("MINT_PRICE_SGB")

	rcpt, err := app.PreMint(ctx, big.NewInt(12), "")
	require.NoError(t, err)
	assert.Nil(t, rcpt.Payment)

	sent := backend.Sent()
	require.Len(t, sent, 1)
	assert.Zero(t, sent[0].Value().Sign())
	method, args, err := backend.Decode(sent[0])
	require.NoError(t, err)
	assert.Equal(t, "preMintNFT", method)
	assert.Equal(t, "12", args[0].(*big.Int).String())
	assert.Equal(t, common.HexToAddress(testBeneficiary), args[1])

	// only the post-confirmation refresh read the price
	assert.Equal(t, priceReads+1, backend.Calls("MINT_PRICE_SGB"))
}

func TestClaimRewardsUsesSessionAccount(t *testing.T) {
	app := newTestApp()
	backend := stocked(false)
	session := chaintest.Session(t, backend, testChainID)
	ctx := context.Background()
	require.NoError(t, app.Connect(ctx, session))

	_, err := app.Submit(ctx, Request{Kind: Claim})
	require.NoError(t, err)
	_, args, err := backend.Decode(backend.Sent()[0])
	require.NoError(t, err)
	assert.Equal(t, session.Account, args[0])
}

func TestDisconnectClearsState(t *testing.T) {
	app := newTestApp()
	ctx := context.Background()
	require.NoError(t, app.Connect(ctx, chaintest.Session(t, stocked(false), testChainID)))

	app.Disconnect()
	st := app.Store().Snapshot()
	assert.False(t, st.Connected)
	assert.Equal(t, "?", st.TotalSupply)
	assert.Equal(t, "?", st.PriceA)

	_, err := app.ClaimRewards(ctx)
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestQuote(t *testing.T) {
	app := newTestApp()
	backend := stocked(true)
	backend.SetResult("MINT_PRICE_SGB", big.NewInt(100))
	ctx := context.Background()

	_, _, err := app.Quote(ctx, 1)
	require.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, app.Connect(ctx, chaintest.Session(t, backend, testChainID)))
	total, presale, err := app.Quote(ctx, 3)
	require.NoError(t, err)
	assert.True(t, presale)
	assert.Equal(t, "270", total.String())
}
