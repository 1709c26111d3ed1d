// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package randomness

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/gravity-chain/epochcore/gravity"
)

// Variant selects the randomness scheme.
type Variant uint8

const (
	VariantOff Variant = iota
	VariantV2
)

func (v Variant) String() string {
	switch v {
	case VariantOff:
		return "off"
	case VariantV2:
		return "v2"
	}
	return fmt.Sprintf("variant(%d)", uint8(v))
}

// One is the fixed-point representation of 1.0 (2^64).
var One = new(uint256.Int).Lsh(uint256.NewInt(1), gravity.ThresholdScaleBits)

// Config is the DKG threshold configuration. Thresholds are fractions of
// total voting power expressed as fixed-point numbers over 2^64.
type Config struct {
	Variant                  Variant
	SecrecyThreshold         *uint256.Int
	ReconstructionThreshold  *uint256.Int
	FastPathSecrecyThreshold *uint256.Int
}

// Fraction returns num/den as a fixed-point number over 2^64.
func Fraction(num, den uint64) *uint256.Int {
	v := new(uint256.Int).Mul(uint256.NewInt(num), One)
	return v.Div(v, uint256.NewInt(den))
}

// DefaultConfig is the V2 configuration with 1/2 secrecy, 2/3 reconstruction and fast path.
func DefaultConfig() *Config {
	return &Config{
		Variant:                  VariantV2,
		SecrecyThreshold:         Fraction(1, 2),
		ReconstructionThreshold:  Fraction(2, 3),
		FastPathSecrecyThreshold: Fraction(2, 3),
	}
}

// OffConfig disables randomness.
func OffConfig() *Config {
	return &Config{
		Variant:                  VariantOff,
		SecrecyThreshold:         new(uint256.Int),
		ReconstructionThreshold:  new(uint256.Int),
		FastPathSecrecyThreshold: new(uint256.Int),
	}
}

// Validate checks the threshold ordering of an enabled configuration.
func (c *Config) Validate() error {
	switch c.Variant {
	case VariantOff:
		return nil
	case VariantV2:
	default:
		return ErrInvalidConfig
	}
	if c.SecrecyThreshold == nil || c.ReconstructionThreshold == nil || c.FastPathSecrecyThreshold == nil {
		return ErrInvalidConfig
	}
	if c.SecrecyThreshold.IsZero() ||
		c.SecrecyThreshold.Gt(c.ReconstructionThreshold) ||
		c.ReconstructionThreshold.Gt(One) ||
		c.FastPathSecrecyThreshold.Gt(One) {
		return ErrInvalidConfig
	}
	return nil
}

// Copy returns a deep copy.
func (c *Config) Copy() *Config {
	cpy := &Config{Variant: c.Variant}
	clone := func(v *uint256.Int) *uint256.Int {
		if v == nil {
			return new(uint256.Int)
		}
		return v.Clone()
	}
	cpy.SecrecyThreshold = clone(c.SecrecyThreshold)
	cpy.ReconstructionThreshold = clone(c.ReconstructionThreshold)
	cpy.FastPathSecrecyThreshold = clone(c.FastPathSecrecyThreshold)
	return cpy
}
