// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package gravity

// Well-known system identities and contract addresses.
var (
	SystemCallerAddress = MustParseAddress("0x00000000000000000000000000000001625F0000")
	GenesisAddress      = MustParseAddress("0x00000000000000000000000000000001625F0001")

	TimestampAddress        = MustParseAddress("0x00000000000000000000000000000001625F1000")
	StakeConfigAddress      = MustParseAddress("0x00000000000000000000000000000001625F1001")
	ValidatorConfigAddress  = MustParseAddress("0x00000000000000000000000000000001625F1002")
	RandomnessConfigAddress = MustParseAddress("0x00000000000000000000000000000001625F1003")
	GovernanceConfigAddress = MustParseAddress("0x00000000000000000000000000000001625F1004")
	EpochConfigAddress      = MustParseAddress("0x00000000000000000000000000000001625F1005")

	StakingAddress          = MustParseAddress("0x00000000000000000000000000000001625F2000")
	ValidatorManagerAddress = MustParseAddress("0x00000000000000000000000000000001625F2001")
	DKGAddress              = MustParseAddress("0x00000000000000000000000000000001625F2002")
	ReconfigurationAddress  = MustParseAddress("0x00000000000000000000000000000001625F2003")
	BlockAddress            = MustParseAddress("0x00000000000000000000000000000001625F2004")

	GovernanceAddress = MustParseAddress("0x00000000000000000000000000000001625F3000")
)

// NilProposer is the proposer reported for blocks produced by the NIL path,
// where the timestamp is allowed to repeat.
var NilProposer = Address{}
