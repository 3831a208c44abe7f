package mintcore

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ligun0805/nft-mint/internal/display"
	"github.com/ligun0805/nft-mint/internal/pricing"
)

// Kind is the type of a state-changing request.
type Kind int

const (
	PublicMint Kind = iota
	PreMint
	FreeMint
	Claim
)

// Kinds lists every request kind.
var Kinds = []Kind{PublicMint, PreMint, FreeMint, Claim}

func (k Kind) String() string {
	switch k {
	case PublicMint:
		return "mint"
	case PreMint:
		return "premint"
	case FreeMint:
		return "freemint"
	case Claim:
		return "claim"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Receipt is the outcome of a confirmed submission.
type Receipt struct {
	ID          string
	Kind        Kind
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
	Payment     *big.Int
}

// State is the application snapshot observed by presentation layers.
// Snapshots are values; the Pending map is never mutated after publication.
type State struct {
	Generation uint64
	Connected  bool
	Connecting bool
	WrongChain bool
	Account    common.Address
	ChainLabel string
	TokenName  string

	Rewards       string
	TotalSupply   string
	PriceA        string
	PriceB        string
	PresaleActive bool
	RawPriceA     *big.Int
	RawPriceB     *big.Int

	Pending     map[Kind]bool
	LastError   string
	LastReceipt *Receipt
}

// IsPending reports whether a submission of kind is in flight.
func (s State) IsPending(k Kind) bool { return s.Pending[k] }

// NetworkPrompt is the message shown while the wallet is on another chain.
func (s State) NetworkPrompt() string {
	if !s.WrongChain {
		return ""
	}
	return fmt.Sprintf("Please switch to the %s network.", s.ChainLabel)
}

// Action is a state transition.
type Action interface{ isAction() }

// SessionChanged announces a rebuilt (or dropped) contract handle.
type SessionChanged struct {
	Generation uint64
	Connected  bool
	WrongChain bool
	Account    common.Address
	Err        error
}

// ConnectingChanged mirrors the wallet provider's connecting flag.
type ConnectingChanged struct{ Connecting bool }

// PricesLoaded carries both raw unit prices. Each price fails on its own.
type PricesLoaded struct {
	Generation uint64
	A, B       *big.Int
	ErrA, ErrB error
}

// RewardsLoaded carries the claimable amount of the session account.
type RewardsLoaded struct {
	Generation uint64
	Amount     *big.Int
	Err        error
}

// SupplyLoaded carries the minted token count.
type SupplyLoaded struct {
	Generation uint64
	Supply     *big.Int
	Err        error
}

// PresaleLoaded carries the presale flag.
type PresaleLoaded struct {
	Generation uint64
	Active     bool
	Err        error
}

// SubmissionStarted marks kind as in flight.
type SubmissionStarted struct{ Kind Kind }

// SubmissionFinished clears kind and records the outcome.
type SubmissionFinished struct {
	Kind    Kind
	Receipt *Receipt
	Err     error
}

func (SessionChanged) isAction()     {}
func (ConnectingChanged) isAction()  {}
func (PricesLoaded) isAction()       {}
func (RewardsLoaded) isAction()      {}
func (SupplyLoaded) isAction()       {}
func (PresaleLoaded) isAction()      {}
func (SubmissionStarted) isAction()  {}
func (SubmissionFinished) isAction() {}

// Presentation fixes how raw values become display strings.
type Presentation struct {
	Policy         pricing.Policy
	PriceDecimals  int
	RewardDecimals int
	ChainLabel     string
	TokenName      string
}

// Initial is the disconnected state.
func (p Presentation) Initial() State {
	return State{
		ChainLabel:  p.ChainLabel,
		TokenName:   p.TokenName,
		Rewards:     display.Unknown,
		TotalSupply: display.Unknown,
		PriceA:      display.Unknown,
		PriceB:      display.Unknown,
		Pending:     map[Kind]bool{},
	}
}

// Reduce applies a to s. The second result is false when a was discarded
// because it belongs to a superseded session.
func (p Presentation) Reduce(s State, a Action) (State, bool) {
	switch a := a.(type) {
	case SessionChanged:
		if a.Generation < s.Generation {
			return s, false
		}
		next := p.Initial()
		next.Generation = a.Generation
		next.Connecting = s.Connecting
		next.Connected = a.Connected
		next.WrongChain = a.WrongChain
		next.Account = a.Account
		next.Pending = s.Pending
		next.LastReceipt = s.LastReceipt
		if a.Err != nil {
			next.LastError = a.Err.Error()
		}
		return next, true

	case ConnectingChanged:
		s.Connecting = a.Connecting
		return s, true

	case PricesLoaded:
		if a.Generation != s.Generation {
			return s, false
		}
		s.RawPriceA, s.RawPriceB = a.A, a.B
		if a.ErrA != nil {
			s.RawPriceA = nil
		}
		if a.ErrB != nil {
			s.RawPriceB = nil
		}
		return p.derivePrices(s), true

	case RewardsLoaded:
		if a.Generation != s.Generation {
			return s, false
		}
		if a.Err != nil {
			s.Rewards = display.Unknown
		} else {
			s.Rewards = display.Format(a.Amount, p.RewardDecimals)
		}
		return s, true

	case SupplyLoaded:
		if a.Generation != s.Generation {
			return s, false
		}
		if a.Err != nil {
			s.TotalSupply = display.Unknown
		} else {
			s.TotalSupply = display.Integer(a.Supply)
		}
		return s, true

	case PresaleLoaded:
		if a.Generation != s.Generation {
			return s, false
		}
		s.PresaleActive = a.Err == nil && a.Active
		return p.derivePrices(s), true

	case SubmissionStarted:
		s.Pending = withPending(s.Pending, a.Kind, true)
		return s, true

	case SubmissionFinished:
		s.Pending = withPending(s.Pending, a.Kind, false)
		if a.Err != nil {
			s.LastError = a.Err.Error()
		} else {
			s.LastError = ""
			s.LastReceipt = a.Receipt
		}
		return s, true
	}
	return s, false
}

// derivePrices keeps displayed prices equal to what a mint would charge.
func (p Presentation) derivePrices(s State) State {
	s.PriceA = display.Format(p.Policy.Unit(s.RawPriceA, s.PresaleActive), p.PriceDecimals)
	s.PriceB = display.Format(p.Policy.Unit(s.RawPriceB, s.PresaleActive), p.PriceDecimals)
	return s
}

func withPending(m map[Kind]bool, k Kind, on bool) map[Kind]bool {
	next := make(map[Kind]bool, len(m)+1)
	for kk, v := range m {
		if v {
			next[kk] = true
		}
	}
	if on {
		next[k] = true
	} else {
		delete(next, k)
	}
	return next
}
