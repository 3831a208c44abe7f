package main

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ligun0805/nft-mint/internal/mintcore"
)

func TestMaskHex(t *testing.T) {
	assert.Equal(t, "***", maskHex(""))
	assert.Equal(t, "***", maskHex("0x1234"))
	assert.Equal(t, "0xabcd…7890", maskHex("0xabcdef0123456789012345678901234567890"))
}

func TestYes(t *testing.T) {
	assert.True(t, yes("Y"))
	assert.True(t, yes(" yes "))
	assert.False(t, yes(""))
	assert.False(t, yes("no"))
	assert.True(t, confirm(true, &bytes.Buffer{}, "send?"))
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	printStatus(&buf, mintcore.State{WrongChain: true, ChainLabel: "Songbird"})
	assert.Equal(t, "Please switch to the Songbird network.\n", buf.String())

	buf.Reset()
	printStatus(&buf, mintcore.State{
		Connected:     true,
		Account:       common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		TokenName:     "SGB",
		Rewards:       "1.2345",
		TotalSupply:   "321",
		PriceA:        "2.2",
		PriceB:        "4.5",
		PresaleActive: true,
	})
	out := buf.String()
	assert.Contains(t, out, "1.2345 SGB")
	assert.Contains(t, out, "Presale live       : yes")
	assert.Contains(t, out, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, n := range []string{"status", "mint", "premint", "freemint", "claim"} {
		assert.True(t, names[n], n)
	}

	root.SetArgs([]string{"premint", "--id", "abc"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--id")
}
