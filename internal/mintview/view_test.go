package mintview

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"

	"github.com/ligun0805/nft-mint/internal/mintcore"
	"github.com/ligun0805/nft-mint/internal/pricing"
)

func connectedState() mintcore.State {
	return mintcore.State{
		Connected:     true,
		Account:       common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		TokenName:     "SGB",
		ChainLabel:    "Songbird",
		Rewards:       "1.2345",
		TotalSupply:   "321",
		PriceA:        "2.2",
		PriceB:        "4.5",
		PresaleActive: true,
		RawPriceA:     big.NewInt(100),
		Pending:       map[mintcore.Kind]bool{},
	}
}

func fixedTotal(s string) func(int) string { return func(int) string { return s } }

func TestViewModelConnected(t *testing.T) {
	vm := Build(connectedState(), 3, fixedTotal("0.0000"))
	assert.Equal(t, "1.2345 SGB", vm.Rewards)
	assert.Equal(t, "2.2 SGB", vm.PriceA)
	assert.Equal(t, "4.5 CGLD", vm.PriceB)
	assert.Equal(t, "Presale: live", vm.Presale)
	assert.Equal(t, "Mint 3 for 0.0000 SGB", vm.MintLabel)
	assert.Equal(t, "0x70997970…c79C8", vm.Account)
	assert.Equal(t, "Disconnect", vm.ConnectText)
	assert.True(t, vm.MintEnabled)
	assert.True(t, vm.ClaimEnabled)
}

func TestViewModelPendingDisablesOnlyItsButton(t *testing.T) {
	s := connectedState()
	s.Pending = map[mintcore.Kind]bool{mintcore.PublicMint: true}
	vm := Build(s, 1, nil)
	assert.False(t, vm.MintEnabled)
	assert.Equal(t, "Minting…", vm.MintLabel)
	assert.True(t, vm.ClaimEnabled)
	assert.True(t, vm.FreeMintEnabled)
}

func TestViewModelWrongChain(t *testing.T) {
	s := connectedState()
	s.Connected = false
	s.WrongChain = true
	vm := Build(s, 1, nil)
	assert.Equal(t, "Please switch to the Songbird network.", vm.Banner)
	assert.False(t, vm.MintEnabled)
	assert.False(t, vm.ClaimEnabled)
	assert.Equal(t, "Connect wallet", vm.ConnectText)
}

func TestViewModelUnknownPriceDisablesMint(t *testing.T) {
	s := connectedState()
	s.RawPriceA = nil
	vm := Build(s, 1, nil)
	assert.False(t, vm.MintEnabled)
	assert.Equal(t, "Mint 1 for ? SGB", vm.MintLabel)
}

func TestViewModelConnecting(t *testing.T) {
	vm := Build(mintcore.State{Connecting: true}, 1, nil)
	assert.Equal(t, "Connecting…", vm.ConnectText)
	assert.False(t, vm.ConnectEnabled)
}

func TestEstimate(t *testing.T) {
	s := connectedState()
	s.RawPriceA = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	est := Estimate(pricing.Default, s, 4)
	assert.Equal(t, "2.7000", est(3))
	assert.Equal(t, "?", est(0))

	s.RawPriceA = nil
	assert.Equal(t, "?", Estimate(pricing.Default, s, 4)(1))
}
