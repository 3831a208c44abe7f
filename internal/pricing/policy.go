// Package pricing computes the native-currency payment for a mint.
package pricing

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrOverflow is returned when a payment does not fit in 256 bits.
	ErrOverflow = errors.New("pricing: amount overflows uint256")
	// ErrQuantity is returned for a mint of less than one unit.
	ErrQuantity = errors.New("pricing: quantity must be at least 1")
)

// Policy is the presale discount expressed as an integer fraction.
// A zero Denominator means no discount.
type Policy struct {
	Numerator   int64
	Denominator int64
}

// Default is the observed 0.9x presale discount.
var Default = Policy{Numerator: 9, Denominator: 10}

// Unit returns the per-unit price charged while presale is or is not active.
// Amounts that cannot be represented are returned undiscounted.
func (p Policy) Unit(unit *big.Int, presale bool) *big.Int {
	if unit == nil {
		return nil
	}
	u, err := p.unit(unit, presale)
	if err != nil {
		return new(big.Int).Set(unit)
	}
	return u.ToBig()
}

// Quote returns the payable amount for quantity units: the unit price is
// discounted first, floor(unit*num/den), and then multiplied by quantity.
func (p Policy) Quote(unit *big.Int, quantity int64, presale bool) (*big.Int, error) {
	if unit == nil {
		return nil, errors.New("pricing: unit price unknown")
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrQuantity, quantity)
	}
	u, err := p.unit(unit, presale)
	if err != nil {
		return nil, err
	}
	total, overflow := new(uint256.Int).MulOverflow(u, uint256.NewInt(uint64(quantity)))
	if overflow {
		return nil, ErrOverflow
	}
	return total.ToBig(), nil
}

func (p Policy) unit(unit *big.Int, presale bool) (*uint256.Int, error) {
	if unit.Sign() < 0 {
		return nil, errors.New("pricing: negative unit price")
	}
	u, overflow := uint256.FromBig(unit)
	if overflow {
		return nil, ErrOverflow
	}
	if !presale || p.Denominator <= 0 {
		return u, nil
	}
	if p.Numerator < 0 {
		return nil, fmt.Errorf("pricing: negative discount numerator %d", p.Numerator)
	}
	scaled, overflow := new(uint256.Int).MulOverflow(u, uint256.NewInt(uint64(p.Numerator)))
	if overflow {
		return nil, ErrOverflow
	}
	return scaled.Div(scaled, uint256.NewInt(uint64(p.Denominator))), nil
}
