package servicenode

import (
	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/hardfork"
	"github.com/ardanlabs/blockchain/foundation/blockchain/reward"
)

// tryRegister attempts to admit a node keyed by tx.ToID, either as a
// brand-new entry or, once hf ≥ 5, as a grace-period replacement of an
// already-bonded key. It rejects the transaction (returning false, no
// mutation) on any of the conditions in §4.D.1.
func (r *Registry) tryRegister(tx database.BlockTx, height uint64, txIndex int, timestamp int64, hf uint32) bool {
	var extra RegisterExtra
	if err := decodeExtra(tx.Extra, &extra); err != nil {
		r.evHandler("servicenode: register: bad extra: %s", err)
		return false
	}

	if len(extra.Portions) == 0 || len(extra.Portions) != len(extra.Addresses) {
		r.evHandler("servicenode: register: portions/addresses length mismatch")
		return false
	}

	if len(extra.Portions) > reward.MaxContributors {
		r.evHandler("servicenode: register: too many contributors")
		return false
	}

	if extra.PortionsForOperator > reward.StakingPortions {
		r.evHandler("servicenode: register: operator portion exceeds staking total")
		return false
	}

	if extra.Expiration != 0 && extra.Expiration < timestamp {
		r.evHandler("servicenode: register: registration window expired")
		return false
	}

	if !checkFirstContribution(tx, extra, hf) {
		r.evHandler("servicenode: register: first contribution does not satisfy minimum/burn requirements")
		return false
	}

	seen := make(map[database.AccountID]bool, len(extra.Addresses))
	for _, addr := range extra.Addresses {
		if seen[addr] {
			r.evHandler("servicenode: register: duplicate contributor address %s", addr)
			return false
		}
		seen[addr] = true
	}

	// Portions are checked against a running remainder rather than an
	// exact sum: not all contributors need be present at registration
	// time, so the consumed total may fall short of StakingPortions but
	// must never exceed it.
	portionsLeft := reward.StakingPortions
	for _, p := range extra.Portions {
		minPortion := reward.MinPortions
		if portionsLeft < minPortion {
			minPortion = portionsLeft
		}
		if p < minPortion || p > portionsLeft {
			r.evHandler("servicenode: register: contributor portion out of range")
			return false
		}
		portionsLeft -= p
	}

	existing, exists := r.nodes[tx.ToID]
	if exists {
		if hf < 5 || height < existing.RegistrationHeight+LockBlocks {
			r.evHandler("servicenode: register: %s already bonded", tx.ToID)
			return false
		}
	}

	basis := extra.StakingRequirement
	if hf >= hardfork.V12 && hf < hardfork.V17 {
		basis = reward.MaxOperatorV12
	}

	contributors := make([]Contribution, len(extra.Addresses))
	for i, addr := range extra.Addresses {
		contributors[i] = Contribution{
			Address:  addr,
			Reserved: reward.PortionsToAmount(extra.Portions[i], basis),
		}
	}

	// The registering transaction's own transferred value is the
	// operator's first contribution, folded in directly here rather than
	// requiring a separate contribute transaction right behind it.
	contributors[0].Amount = tx.Value
	if contributors[0].Amount > contributors[0].Reserved {
		contributors[0].Amount = contributors[0].Reserved
	}

	version := VersionLegacy
	if hf >= hardfork.ActivationSN {
		version = VersionWithSwarm
	}

	info := Info{
		Version:             version,
		RegistrationHeight:  height,
		Contributors:        contributors,
		TotalContributed:    contributors[0].Amount,
		StakingRequirement:  extra.StakingRequirement,
		PortionsForOperator: extra.PortionsForOperator,
		SwarmID:             UnassignedSwarm,
		OperatorAddress:     contributors[0].Address,
	}
	for _, c := range contributors {
		info.TotalReserved += c.Reserved
	}

	// Grace-period re-registration replaces the entry in place but keeps
	// the old reward cursor, so the node does not jump the winner queue
	// just by re-registering.
	if exists {
		info.LastRewardBlockHeight = existing.LastRewardBlockHeight
		info.LastRewardTransactionIndex = existing.LastRewardTransactionIndex
		r.journal.PushChange(height, tx.ToID, existing.clone())
	} else {
		r.journal.PushNew(height, tx.ToID)
	}
	r.nodes[tx.ToID] = info

	return true
}

// checkFirstContribution validates the registering transaction's own
// transferred value against §4.D.1's hf-gated minimum (and, once hf ≥
// 12, the v12 ceiling and burn-fee requirement). This account model has
// no separate miner-fee/total-fee split: the transaction's Tip is the
// whole fee, so the reference's `total_fee - miner_fee` burn requirement
// collapses to `burned_amount >= tx.Tip`.
func checkFirstContribution(tx database.BlockTx, extra RegisterExtra, hf uint32) bool {
	transferred := tx.Value

	if hf < hardfork.V12 {
		return transferred >= extra.StakingRequirement/reward.MaxContributors
	}

	if transferred < reward.MinOperatorV12 {
		return false
	}

	if extra.BurnedAmount < tx.Tip {
		return false
	}

	if hf < hardfork.V17 && transferred > reward.MaxOperatorV12 {
		return false
	}

	return true
}

// tryContribution credits value toward a previously reserved slot, or
// opens a new unreserved slot if the node still has open capacity and
// hf permits pooled contributions. Rejects per §4.D.2: a claimed amount
// that does not match the transaction's own transferred value, unknown
// node, node already fully funded, contribution exceeding its
// reservation with no open capacity remaining, a missing hf≥12 burn
// fee, or (12≤hf<17) an amount above the pooled-staker ceiling.
func (r *Registry) tryContribution(tx database.BlockTx, height uint64, txIndex int, hf uint32) bool {
	var extra ContributeExtra
	if err := decodeExtra(tx.Extra, &extra); err != nil {
		return false
	}

	if extra.Amount != tx.Value {
		r.evHandler("servicenode: contribute: claimed amount does not match transferred value")
		return false
	}

	key := extra.ServiceNode
	info, exists := r.nodes[key]
	if !exists {
		r.evHandler("servicenode: contribute: unknown node %s", key)
		return false
	}

	if info.IsFullyFunded() {
		r.evHandler("servicenode: contribute: %s already fully funded", key)
		return false
	}

	if hf >= hardfork.V12 && extra.BurnedAmount < tx.Tip {
		r.evHandler("servicenode: contribute: burned amount below required burn fee")
		return false
	}

	if hf >= hardfork.V12 && hf < hardfork.V17 && extra.Amount > reward.MaxPoolStakersV12 {
		r.evHandler("servicenode: contribute: amount exceeds pooled-staker ceiling")
		return false
	}

	from, err := tx.FromAccount()
	if err != nil {
		return false
	}

	prior := info.clone()

	matched := false
	for i := range info.Contributors {
		if info.Contributors[i].Address == from {
			info.Contributors[i].Amount += extra.Amount
			matched = true
			break
		}
	}

	if !matched {
		if hf < hardfork.ActivationSN && len(info.Contributors) >= reward.MaxContributors {
			r.evHandler("servicenode: contribute: no open slot for %s", from)
			return false
		}
		info.Contributors = append(info.Contributors, Contribution{Address: from, Amount: extra.Amount})
	}

	info.TotalContributed += extra.Amount
	if info.TotalContributed > info.StakingRequirement {
		info.TotalContributed = info.StakingRequirement
	}

	info.LastRewardBlockHeight = height
	info.LastRewardTransactionIndex = uint64(txIndex)

	r.journal.PushChange(height, key, prior)
	r.nodes[key] = info

	return true
}

// tryDeregister removes a node voted out by quorum, per §4.D.3. The
// extra payload names the quorum height and the index into that
// quorum's NodesToTest list; deregistration is rejected if that quorum
// snapshot is no longer cached or the index is out of range.
func (r *Registry) tryDeregister(tx database.BlockTx, height uint64) bool {
	var extra DeregisterExtra
	if err := decodeExtra(tx.Extra, &extra); err != nil {
		return false
	}

	state, ok := r.quorums.Lookup(extra.BlockHeight)
	if !ok {
		r.evHandler("servicenode: deregister: no quorum cached for height %d", extra.BlockHeight)
		return false
	}

	if extra.ServiceNodeIndex < 0 || extra.ServiceNodeIndex >= len(state.NodesToTest) {
		r.evHandler("servicenode: deregister: index out of range")
		return false
	}

	key := state.NodesToTest[extra.ServiceNodeIndex]

	info, exists := r.nodes[key]
	if !exists {
		return false
	}

	r.journal.PushChange(height, key, info.clone())
	delete(r.nodes, key)

	return true
}

// trySwap validates a cross-chain swap memo against the transaction's
// own transferred value, grounded on the reference's process_swap_tx: a
// pure validation that never touches the node registry. Swap requires
// the same service-node activation hard fork as the rest of this
// subsystem.
func (r *Registry) trySwap(tx database.BlockTx, height uint64, txIndex int, hf uint32) bool {
	if hf < hardfork.ActivationSN {
		r.evHandler("servicenode: swap: not active before hard fork %d", hardfork.ActivationSN)
		return false
	}

	var extra SwapExtra
	if err := decodeExtra(tx.Extra, &extra); err != nil {
		r.evHandler("servicenode: swap: bad extra: %s", err)
		return false
	}

	if extra.Amount != tx.Value {
		r.evHandler("servicenode: swap: claimed amount does not match transferred value")
		return false
	}

	return true
}
