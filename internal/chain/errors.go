package chain

import "errors"

var (
	// ErrNoSession is returned when building a handle without a wallet.
	ErrNoSession = errors.New("chain: no wallet session")
	// ErrWrongChain means the wallet is connected to another network.
	ErrWrongChain = errors.New("chain: wallet is on the wrong network")
	// ErrContractInit means the contract binding could not be constructed.
	ErrContractInit = errors.New("chain: contract init failed")
)
