package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/ligun0805/nft-mint/internal/config"
	"github.com/ligun0805/nft-mint/internal/mintcore"
)

func printConfig(w io.Writer, st config.Settings) {
	fmt.Fprintln(w, "=== CONFIG (.env) ===")
	fmt.Fprintln(w, "RPC_URL            :", st.RPCURL)
	fmt.Fprintln(w, "CHAIN_ID           :", st.ChainID, "("+st.ChainLabel+")")
	fmt.Fprintln(w, "CONTRACT_ADDRESS   :", st.ContractAddress)
	if strings.TrimSpace(st.ContractABIPath) != "" {
		fmt.Fprintln(w, "CONTRACT_ABI_PATH  :", st.ContractABIPath)
	}
	fmt.Fprintf(w, "Presale discount   : %d/%d\n", st.DiscountNumerator, st.DiscountDenominator)
	fmt.Fprintln(w, "Mint gas limit     :", st.MintGasLimit)
	fmt.Fprintln(w, "WALLET_PRIVATE_KEY :", maskHex(st.WalletPrivateKeyHex))
	fmt.Fprintln(w, "=====================")
}

func printStatus(w io.Writer, s mintcore.State) {
	if p := s.NetworkPrompt(); p != "" {
		fmt.Fprintln(w, p)
		return
	}
	if !s.Connected {
		fmt.Fprintln(w, "wallet not connected")
		return
	}
	presale := "no"
	if s.PresaleActive {
		presale = "yes"
	}
	fmt.Fprintln(w, "Account            :", s.Account.Hex())
	fmt.Fprintln(w, "Claimable rewards  :", s.Rewards, s.TokenName)
	fmt.Fprintln(w, "Total minted       :", s.TotalSupply)
	fmt.Fprintln(w, "Mint price         :", s.PriceA, s.TokenName)
	fmt.Fprintln(w, "Mint price (CGLD)  :", s.PriceB, "CGLD")
	fmt.Fprintln(w, "Presale live       :", presale)
}

func printReceipt(w io.Writer, r *mintcore.Receipt, st mintcore.State) {
	fmt.Fprintf(w, "%s confirmed: tx %s block %d gas %d\n", r.Kind, r.TxHash.Hex(), r.BlockNumber, r.GasUsed)
	fmt.Fprintln(w, "submission id      :", r.ID)
	printStatus(w, st)
}
