// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/gravity-chain/epochcore/gravity"
)

// DevAccount account for development.
type DevAccount struct {
	Address    gravity.Address
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts atomic.Value

// DevAccounts returns pre-alloced accounts for the devnet.
func DevAccounts() []DevAccount {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]DevAccount)
	}

	var accs []DevAccount
	privKeys := []string{
		"dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65",
		"321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51",
		"2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2",
		"593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e",
		"ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058",
		"88d2d80b12b92feaa0da6d62309463d20408157723f2d7e799b6a74ead9a673b",
	}
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		addr := crypto.PubkeyToAddress(pk.PublicKey)
		accs = append(accs, DevAccount{gravity.Address(addr), pk})
	}
	devAccounts.Store(accs)
	return accs
}

// DevConsensusKey derives a placeholder consensus key for acc. The proof of
// possession is acc's signature over the key.
func DevConsensusKey(acc DevAccount) (pubkey, pop []byte) {
	seed := gravity.Blake2b([]byte("consensus"), crypto.FromECDSA(acc.PrivateKey))
	pubkey = make([]byte, gravity.ConsensusPubkeyLen)
	copy(pubkey, seed[:])
	copy(pubkey[len(seed):], seed[:gravity.ConsensusPubkeyLen-len(seed)])

	sig, err := crypto.Sign(crypto.Keccak256(pubkey), acc.PrivateKey)
	if err != nil {
		panic(err)
	}
	return pubkey, sig
}

// DevGovernance is the governance account of the devnet.
func DevGovernance() DevAccount {
	return DevAccounts()[len(DevAccounts())-1]
}

// NewDevnetConfig returns the devnet config: the first four dev accounts run
// a validator each, and every dev account is funded.
func NewDevnetConfig(launchTimeMicros uint64, epochInterval uint64) *Config {
	balance := new(big.Int).Exp(big.NewInt(10), big.NewInt(9), nil)
	stake := (*math.HexOrDecimal256)(big.NewInt(1_000_000))

	cfg := &Config{
		ChainID:             1337,
		LaunchTimeMicros:    launchTimeMicros,
		Governance:          DevGovernance().Address,
		EpochIntervalMicros: epochInterval,
		MajorVersion:        1,
		ValidatorConfig: ValidatorConfig{
			MinimumBond:                 (*math.HexOrDecimal256)(big.NewInt(1000)),
			MaximumBond:                 (*math.HexOrDecimal256)(big.NewInt(1_000_000_000)),
			AllowValidatorSetChange:     true,
			VotingPowerIncreaseLimitPct: 50,
			MaxValidatorSetSize:         (*math.HexOrDecimal256)(big.NewInt(16)),
		},
		StakingConfig: StakingConfig{
			MinimumStake:         (*math.HexOrDecimal256)(big.NewInt(100)),
			LockupDurationMicros: 30 * gravity.Day,
		},
		RandomnessConfig: RandomnessConfig{Variant: 1},
	}
	for i, acc := range DevAccounts() {
		cfg.Accounts = append(cfg.Accounts, Account{Address: acc.Address, Balance: (*math.HexOrDecimal256)(balance)})
		if i >= 4 {
			continue
		}
		pubkey, pop := DevConsensusKey(acc)
		cfg.Validators = append(cfg.Validators, Validator{
			Operator:          acc.Address,
			Owner:             acc.Address,
			StakeAmount:       stake,
			Moniker:           fmt.Sprintf("dev-%d", i),
			ConsensusPubkey:   pubkey,
			ConsensusPop:      pop,
			NetworkAddresses:  fmt.Sprintf("/ip4/127.0.0.1/tcp/%d", 6180+i),
			FullnodeAddresses: fmt.Sprintf("/ip4/127.0.0.1/tcp/%d", 6280+i),
		})
	}
	return cfg
}

// NewDevnet creates the devnet genesis.
func NewDevnet(launchTimeMicros uint64, epochInterval uint64) *Genesis {
	g, err := New("devnet", NewDevnetConfig(launchTimeMicros, epochInterval))
	if err != nil {
		panic(err)
	}
	return g
}
