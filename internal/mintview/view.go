// Package mintview derives what the mint window shows from a state snapshot.
package mintview

import (
	"fmt"

	"github.com/ligun0805/nft-mint/internal/display"
	"github.com/ligun0805/nft-mint/internal/mintcore"
	"github.com/ligun0805/nft-mint/internal/pricing"
)

// Model is everything the window shows for one state snapshot.
type Model struct {
	Banner      string
	Account     string
	Rewards     string
	Supply      string
	PriceA      string
	PriceB      string
	Presale     string
	MintLabel   string
	ConnectText string

	ConnectEnabled  bool
	MintEnabled     bool
	PreMintEnabled  bool
	FreeMintEnabled bool
	ClaimEnabled    bool
}

// ShortAddr abbreviates a hex address for labels.
func ShortAddr(s string) string {
	if len(s) <= 16 {
		return s
	}
	return s[:10] + "…" + s[len(s)-5:]
}

// Build derives the window contents; qty is the slider value and total
// estimates the payment for a quantity.
func Build(s mintcore.State, qty int, total func(int) string) Model {
	vm := Model{
		Rewards: s.Rewards + " " + s.TokenName,
		Supply:  s.TotalSupply,
		PriceA:  s.PriceA + " " + s.TokenName,
		PriceB:  s.PriceB + " CGLD",
		Presale: "Presale: off",
	}
	if s.PresaleActive {
		vm.Presale = "Presale: live"
	}

	switch {
	case s.Connecting:
		vm.ConnectText = "Connecting…"
	case s.Connected:
		vm.ConnectText = "Disconnect"
		vm.ConnectEnabled = true
	default:
		vm.ConnectText = "Connect wallet"
		vm.ConnectEnabled = true
	}

	switch {
	case s.WrongChain:
		vm.Banner = s.NetworkPrompt()
	case !s.Connected:
		vm.Banner = "Connect a wallet to mint."
	case s.LastError != "":
		vm.Banner = s.LastError
	case s.LastReceipt != nil:
		vm.Banner = fmt.Sprintf("%s confirmed in block %d", s.LastReceipt.Kind, s.LastReceipt.BlockNumber)
	}

	if s.Connected {
		vm.Account = ShortAddr(s.Account.Hex())
	}
	ready := s.Connected && !s.WrongChain

	est := display.Unknown
	if total != nil {
		est = total(qty)
	}
	vm.MintLabel = fmt.Sprintf("Mint %d for %s %s", qty, est, s.TokenName)
	if s.IsPending(mintcore.PublicMint) {
		vm.MintLabel = "Minting…"
	}

	vm.MintEnabled = ready && !s.IsPending(mintcore.PublicMint) && s.RawPriceA != nil
	vm.PreMintEnabled = ready && !s.IsPending(mintcore.PreMint)
	vm.FreeMintEnabled = ready && !s.IsPending(mintcore.FreeMint)
	vm.ClaimEnabled = ready && !s.IsPending(mintcore.Claim)
	return vm
}

// Estimate quotes from the last read price and presale flag. The charge
// itself is re-quoted from fresh reads at submission time.
func Estimate(policy pricing.Policy, s mintcore.State, decimals int) func(int) string {
	return func(q int) string {
		total, err := policy.Quote(s.RawPriceA, int64(q), s.PresaleActive)
		if err != nil {
			return display.Unknown
		}
		return display.Format(total, decimals)
	}
}
