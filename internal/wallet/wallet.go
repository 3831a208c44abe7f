// Package wallet adapts a wallet provider to the mint client.
package wallet

import (
	"context"

	"github.com/ligun0805/nft-mint/internal/chain"
)

// Status is the reactive provider state. A nil Wallet means disconnected.
type Status struct {
	Wallet     *chain.Session
	Connecting bool
}

// Provider is the wallet-connection collaborator the client observes.
type Provider interface {
	Connect(ctx context.Context) error
	Disconnect()
	Status() Status
	Subscribe(fn func(Status)) (unsubscribe func())
}
