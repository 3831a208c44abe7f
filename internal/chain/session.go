// Package chain binds a wallet session to the mint contract.
package chain

import (
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// Backend is the transport a wallet lends to the client: contract calls,
// transaction sending and receipt lookups. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Session is a connected wallet. It is owned by the wallet provider;
// the client only borrows the backend and signer.
type Session struct {
	ChainID int64
	Account common.Address
	Backend Backend
	Signer  bind.SignerFn
}
