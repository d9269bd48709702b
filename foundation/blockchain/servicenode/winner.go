package servicenode

import (
	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/hardfork"
	"github.com/ardanlabs/blockchain/foundation/blockchain/reward"
)

// Winner is the service node selected to receive this block's
// service-node reward, along with the per-contributor payout split.
type Winner struct {
	Node     database.AccountID
	Operator database.AccountID
	Payouts  []Payout
}

// Payout is one contributor's share of a service-node reward.
type Payout struct {
	Address database.AccountID
	Amount  uint64
}

// SelectWinner picks the node with the smallest
// (LastRewardBlockHeight, LastRewardTransactionIndex) among nodes
// satisfying the hf-gated eligibility predicate, per §4.E, and splits
// rewardAmount across its contributors. Nodes with equal pairs go to the
// lower node key. It returns false if no node is currently eligible.
func (r *Registry) SelectWinner(height uint64, rewardAmount uint64) (Winner, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hf := r.hardForkAt(height)

	var (
		winnerKey database.AccountID
		winner    Info
		found     bool
	)

	for key, info := range r.nodes {
		var eligible bool
		if hf >= hardfork.ActivationSN {
			eligible = info.IsValid()
		} else {
			eligible = info.IsFullyFunded()
		}
		if !eligible {
			continue
		}

		if !found || lessRewardOrder(info, winner) || (!lessRewardOrder(winner, info) && key < winnerKey) {
			winnerKey = key
			winner = info
			found = true
		}
	}

	if !found {
		return Winner{}, false
	}

	return Winner{
		Node:     winnerKey,
		Operator: winner.OperatorAddress,
		Payouts:  winner.splitReward(hf, rewardAmount),
	}, true
}

// lessRewardOrder orders two candidates by last-paid height then
// transaction index, ties broken in favour of the candidate that has
// never been paid.
func lessRewardOrder(a, b Info) bool {
	if a.LastRewardBlockHeight != b.LastRewardBlockHeight {
		return a.LastRewardBlockHeight < b.LastRewardBlockHeight
	}
	return a.LastRewardTransactionIndex < b.LastRewardTransactionIndex
}

// splitReward divides rewardAmount across the node's contributors by
// first deriving each contributor's share of STAKING_PORTIONS, per the
// hf-gated formula in §4.E, then converting that portions figure back
// into an amount via the same mul_div used everywhere else portions
// are turned into coins. The operator's own contributor slot carries
// PortionsForOperator on top of its pro-rata share; every other
// contributor gets only its pro-rata share of the portions left over
// after the operator's cut.
func (info Info) splitReward(hf uint32, rewardAmount uint64) []Payout {
	if len(info.Contributors) == 0 || info.TotalContributed == 0 {
		return nil
	}

	operatorBasis, poolBasis := rewardBasis(hf, info.StakingRequirement)
	remainingPortions := reward.StakingPortions - info.PortionsForOperator

	payouts := make([]Payout, 0, len(info.Contributors))

	var distributed uint64
	for i, c := range info.Contributors {
		basis := poolBasis
		if c.Address == info.OperatorAddress {
			basis = operatorBasis
		}

		portions := reward.MulDiv(c.Amount, remainingPortions, basis)
		if c.Address == info.OperatorAddress {
			portions += info.PortionsForOperator
		}

		var amount uint64
		if i == len(info.Contributors)-1 {
			amount = rewardAmount - distributed
		} else {
			amount = reward.PortionsToAmount(portions, rewardAmount)
		}
		distributed += amount

		payouts = append(payouts, Payout{Address: c.Address, Amount: amount})
	}

	return payouts
}

// rewardBasis returns the (operator, pool) bases the portions formula
// divides a contributor's amount against, per §4.E's three hf ranges:
// hf < 12 and hf ≥ 17 both use the node's own staking requirement;
// 12 ≤ hf < 17 switches to the fixed V12 operator/pool caps.
func rewardBasis(hf uint32, stakingRequirement uint64) (operatorBasis, poolBasis uint64) {
	if hf >= hardfork.V12 && hf < hardfork.V17 {
		return reward.MaxOperatorV12, reward.MaxPoolStakersV12
	}
	return stakingRequirement, stakingRequirement
}
