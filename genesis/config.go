// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/gravity-chain/epochcore/builtin/randomness"
	"github.com/gravity-chain/epochcore/gravity"
)

// Config is the genesis file.
type Config struct {
	ChainID             uint64           `json:"chainId" yaml:"chainId"`
	LaunchTimeMicros    uint64           `json:"launchTimeMicros" yaml:"launchTimeMicros"`
	Governance          gravity.Address  `json:"governance" yaml:"governance"`
	ValidatorConfig     ValidatorConfig  `json:"validatorConfig" yaml:"validatorConfig"`
	StakingConfig       StakingConfig    `json:"stakingConfig" yaml:"stakingConfig"`
	EpochIntervalMicros uint64           `json:"epochIntervalMicros" yaml:"epochIntervalMicros"`
	MajorVersion        uint64           `json:"majorVersion" yaml:"majorVersion"`
	RandomnessConfig    RandomnessConfig `json:"randomnessConfig" yaml:"randomnessConfig"`
	Accounts            []Account        `json:"accounts" yaml:"accounts"`
	Validators          []Validator      `json:"validators" yaml:"validators"`
}

type ValidatorConfig struct {
	MinimumBond                 *math.HexOrDecimal256 `json:"minimumBond" yaml:"minimumBond"`
	MaximumBond                 *math.HexOrDecimal256 `json:"maximumBond" yaml:"maximumBond"`
	UnbondingDelayMicros        uint64                `json:"unbondingDelayMicros" yaml:"unbondingDelayMicros"`
	AllowValidatorSetChange     bool                  `json:"allowValidatorSetChange" yaml:"allowValidatorSetChange"`
	VotingPowerIncreaseLimitPct uint64                `json:"votingPowerIncreaseLimitPct" yaml:"votingPowerIncreaseLimitPct"`
	MaxValidatorSetSize         *math.HexOrDecimal256 `json:"maxValidatorSetSize" yaml:"maxValidatorSetSize"`
	AutoEvictEnabled            bool                  `json:"autoEvictEnabled" yaml:"autoEvictEnabled"`
	AutoEvictThreshold          *math.HexOrDecimal256 `json:"autoEvictThreshold" yaml:"autoEvictThreshold"`
}

type StakingConfig struct {
	MinimumStake            *math.HexOrDecimal256 `json:"minimumStake" yaml:"minimumStake"`
	LockupDurationMicros    uint64                `json:"lockupDurationMicros" yaml:"lockupDurationMicros"`
	MaxLockupDurationMicros uint64                `json:"maxLockupDurationMicros" yaml:"maxLockupDurationMicros"`
	UnbondingDelayMicros    uint64                `json:"unbondingDelayMicros" yaml:"unbondingDelayMicros"`
	MinimumProposalStake    *math.HexOrDecimal256 `json:"minimumProposalStake" yaml:"minimumProposalStake"`
}

type RandomnessConfig struct {
	Variant  uint8        `json:"variant" yaml:"variant"`
	ConfigV2 ThresholdsV2 `json:"configV2" yaml:"configV2"`
}

// ThresholdsV2 are fixed-point fractions over 2^64.
type ThresholdsV2 struct {
	SecrecyThreshold         *math.HexOrDecimal256 `json:"secrecyThreshold" yaml:"secrecyThreshold"`
	ReconstructionThreshold  *math.HexOrDecimal256 `json:"reconstructionThreshold" yaml:"reconstructionThreshold"`
	FastPathSecrecyThreshold *math.HexOrDecimal256 `json:"fastPathSecrecyThreshold" yaml:"fastPathSecrecyThreshold"`
}

type Account struct {
	Address gravity.Address       `json:"address" yaml:"address"`
	Balance *math.HexOrDecimal256 `json:"balance" yaml:"balance"`
}

type Validator struct {
	Operator          gravity.Address       `json:"operator" yaml:"operator"`
	Owner             gravity.Address       `json:"owner" yaml:"owner"`
	StakeAmount       *math.HexOrDecimal256 `json:"stakeAmount" yaml:"stakeAmount"`
	Moniker           string                `json:"moniker" yaml:"moniker"`
	ConsensusPubkey   hexutil.Bytes         `json:"consensusPubkey" yaml:"consensusPubkey"`
	ConsensusPop      hexutil.Bytes         `json:"consensusPop" yaml:"consensusPop"`
	NetworkAddresses  string                `json:"networkAddresses" yaml:"networkAddresses"`
	FullnodeAddresses string                `json:"fullnodeAddresses" yaml:"fullnodeAddresses"`
	FeeRecipient      *gravity.Address      `json:"feeRecipient,omitempty" yaml:"feeRecipient,omitempty"`
}

// LoadConfig reads a genesis file, YAML when the extension says so, JSON otherwise.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, errors.Wrap(err, "decode genesis file")
	}
	return &cfg, nil
}

func bigOr(v *math.HexOrDecimal256, def *big.Int) *big.Int {
	if v == nil {
		return new(big.Int).Set(def)
	}
	return (*big.Int)(v)
}

func uint64Or(v, def uint64) uint64 {
	if v == 0 {
		return def
	}
	return v
}

func boolInt(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

// randomness converts the file representation, falling back to the default thresholds.
func (r *RandomnessConfig) randomness() (*randomness.Config, error) {
	if r.Variant == uint8(randomness.VariantOff) && r.ConfigV2.SecrecyThreshold == nil {
		return randomness.OffConfig(), nil
	}
	cfg := randomness.DefaultConfig()
	cfg.Variant = randomness.Variant(r.Variant)
	set := func(name string, dst **uint256.Int, v *math.HexOrDecimal256) error {
		if v == nil {
			return nil
		}
		if (*big.Int)(v).Sign() < 0 {
			return errors.Errorf("%s must not be negative", name)
		}
		n, overflow := uint256.FromBig((*big.Int)(v))
		if overflow {
			return errors.Errorf("%s overflows 256 bits", name)
		}
		*dst = n
		return nil
	}
	if err := set("secrecyThreshold", &cfg.SecrecyThreshold, r.ConfigV2.SecrecyThreshold); err != nil {
		return nil, err
	}
	if err := set("reconstructionThreshold", &cfg.ReconstructionThreshold, r.ConfigV2.ReconstructionThreshold); err != nil {
		return nil, err
	}
	if err := set("fastPathSecrecyThreshold", &cfg.FastPathSecrecyThreshold, r.ConfigV2.FastPathSecrecyThreshold); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parts of the config the contracts do not check themselves.
func (c *Config) Validate() error {
	if c.LaunchTimeMicros == 0 {
		return errors.New("launchTimeMicros must be set")
	}
	if len(c.Validators) == 0 {
		return errors.New("at least one genesis validator is required")
	}
	for i, v := range c.Validators {
		if v.StakeAmount == nil || (*big.Int)(v.StakeAmount).Sign() <= 0 {
			return errors.Errorf("validator %d: stakeAmount must be positive", i)
		}
		if !(*big.Int)(v.StakeAmount).IsUint64() {
			return errors.Errorf("validator %d: stakeAmount overflows uint64", i)
		}
	}
	rnd, err := c.RandomnessConfig.randomness()
	if err != nil {
		return errors.Wrap(err, "randomnessConfig")
	}
	if err := rnd.Validate(); err != nil {
		return errors.Wrap(err, "randomnessConfig")
	}
	for _, a := range c.Accounts {
		if a.Balance == nil || (*big.Int)(a.Balance).Sign() < 1 {
			return errors.Errorf("%s: balance must be a non-zero integer", a.Address)
		}
	}
	return nil
}
