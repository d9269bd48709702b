// Package reward computes the split of a block's coinbase into miner,
// service-node, governance, and developer-fund shares.
package reward

import (
	"errors"

	"github.com/ardanlabs/blockchain/foundation/blockchain/hardfork"
)

// Named constants mirrored bit-exactly from the reference implementation
// so the derived arithmetic below reproduces its numbers.
const (
	StakingPortions    uint64 = 0xfffffffffffffffc
	MaxContributors           = 4
	MinPortions        uint64 = StakingPortions / MaxContributors
	Coin               uint64 = 1_000_000_000
	MinOperatorV12     uint64 = 10000 * Coin
	MaxOperatorV12     uint64 = 35000 * Coin
	MaxPoolStakersV12  uint64 = 65000 * Coin
	UnlockWindow              = 60
)

// ErrInvalidBaseReward is returned when the base-reward formula yields
// zero at a non-genesis height.
var ErrInvalidBaseReward = errors.New("reward: base reward formula returned zero at a non-genesis height")

// Parts is the output of the reward calculator: the split of a block's
// total reward into its constituent shares.
type Parts struct {
	OriginalBaseReward uint64
	Governance         uint64
	DevFund            uint64
	AdjustedBaseReward uint64
	ServiceNodeTotal   uint64
	OperatorReward     uint64
	StakerReward       uint64
	BaseMiner          uint64
	BaseMinerFee       uint64
}

// Inputs bundles the arguments the reward calculator needs.
type Inputs struct {
	MedianBlockWeight     uint64
	CurrentBlockWeight    uint64
	AlreadyGeneratedCoins uint64
	HardForkVersion       uint32
	Height                uint64
	Network               hardfork.Network
	Fee                   uint64
	BaseRewardFunc        func(medianWeight, currentWeight, alreadyGenerated uint64) uint64
}

// Calculate computes the reward split for a block per §4.A. When Height
// is 0 (genesis) a zero base reward is tolerated; for every other height
// a zero base reward is a consensus error.
func Calculate(in Inputs) (Parts, error) {
	baseReward := in.BaseRewardFunc(in.MedianBlockWeight, in.CurrentBlockWeight, in.AlreadyGeneratedCoins)
	if baseReward == 0 && in.Height != 0 {
		return Parts{}, ErrInvalidBaseReward
	}

	governance := GovernanceAmount(in.Network, in.HardForkVersion, in.Height)
	devFund := DevFundAmount(in.Network, in.HardForkVersion, in.Height)

	adjusted := baseReward
	if adjusted >= governance {
		adjusted -= governance
	} else {
		adjusted = 0
	}
	if adjusted >= devFund {
		adjusted -= devFund
	} else {
		adjusted = 0
	}

	parts := Parts{
		OriginalBaseReward: baseReward,
		Governance:         governance,
		DevFund:            devFund,
		AdjustedBaseReward: adjusted,
		BaseMinerFee:       in.Fee,
	}

	switch {
	case in.HardForkVersion < hardfork.ActivationSN:
		parts.ServiceNodeTotal = 0
	case in.HardForkVersion <= 11:
		parts.ServiceNodeTotal = adjusted / 2
	default:
		parts.ServiceNodeTotal = mulDiv64(adjusted, 3, 4)
	}

	parts.OperatorReward = parts.ServiceNodeTotal / 2
	parts.StakerReward = parts.ServiceNodeTotal - parts.OperatorReward
	parts.BaseMiner = adjusted - parts.ServiceNodeTotal

	return parts, nil
}

// PortionsToAmount converts a portions value (out of StakingPortions) into
// an atomic-unit amount against the supplied basis, via the 128-bit-precision
// mul_div the reference implementation requires.
func PortionsToAmount(portions, basis uint64) uint64 {
	return mulDiv64(basis, portions, StakingPortions)
}

// MulDiv exposes the package's 128-bit-precision mul_div helper
// (floor(a*b/c)) for callers outside this package that need the same
// bit-exact rounding, such as the winner selector's portions-based
// reward split (§4.E).
func MulDiv(a, b, c uint64) uint64 {
	return mulDiv64(a, b, c)
}
