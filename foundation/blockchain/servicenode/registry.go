package servicenode

import (
	"sort"
	"sync"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/hardfork"
	"github.com/ardanlabs/blockchain/foundation/blockchain/quorum"
	"github.com/ardanlabs/blockchain/foundation/blockchain/reward"
	"github.com/ardanlabs/blockchain/foundation/blockchain/rollback"
)

// LockBlocks is the number of blocks a bonded stake remains locked for
// before it is eligible for expiry. The same value applies on every network.
const LockBlocks = 30000

// ExpiryExcess is additional grace blocks added to LockBlocks once hf >= 5
// before a node is actually dropped for expiry.
const ExpiryExcess = 2 * quorum.DeregisterLifetime

// Retention is how far back the rollback journal keeps events before
// culling, expressed in blocks.
const Retention = quorum.RetentionWindow

// Registry is the deterministic state machine tracking bonded service
// nodes. A single mutex protects the registry and its journal, acquired
// for the full duration of BlockAdded/Detach, mirroring the host chain's
// state.State/database.Database lock split.
type Registry struct {
	mu        sync.Mutex
	network   hardfork.Network
	height    uint64
	nodes     map[database.AccountID]Info
	journal   *rollback.Journal
	quorums   *quorum.Cache
	evHandler func(v string, args ...any)
}

// Config bundles the construction-time dependencies for a Registry.
type Config struct {
	Network   hardfork.Network
	EvHandler func(v string, args ...any)
}

// New constructs an empty registry at height 0.
func New(cfg Config) *Registry {
	ev := cfg.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	return &Registry{
		network:   cfg.Network,
		nodes:     make(map[database.AccountID]Info),
		journal:   rollback.NewJournal(),
		quorums:   quorum.NewCache(),
		evHandler: ev,
	}
}

// Height returns the registry's current cursor height.
func (r *Registry) Height() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.height
}

// Len reports the number of currently registered nodes.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.nodes)
}

// QuorumCacheLen reports the number of quorum states currently cached,
// for callers monitoring the registry's memory footprint.
func (r *Registry) QuorumCacheLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.quorums.States())
}

// Lookup returns a copy of a node's registry entry.
func (r *Registry) Lookup(key database.AccountID) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.nodes[key]
	return info.clone(), exists
}

// RestoreChange implements rollback.Apply: it restores a node's prior
// snapshot during a detach.
func (r *Registry) RestoreChange(key database.AccountID, priorInfo any) {
	info, ok := priorInfo.(Info)
	if !ok {
		return
	}
	r.nodes[key] = info
}

// EraseNew implements rollback.Apply: it erases a node inserted after the
// detach target during a detach.
func (r *Registry) EraseNew(key database.AccountID) {
	delete(r.nodes, key)
}

// Detach rolls the registry back to the state it held at target height,
// undoing journalled events in reverse order.
func (r *Registry) Detach(target uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.journal.Detach(target, r); err != nil {
		return err
	}

	r.height = target
	return nil
}

// BlockAdded advances the registry by exactly one block, applying the
// sequence described in §4.D: cull+PreventBefore, expire, winner bump,
// per-tx register/contribute/deregister/swap, swarm update, quorum
// build. Swap transactions are validated but never mutate r.nodes, so
// they never flip changed to true on their own.
func (r *Registry) BlockAdded(height uint64, blockHash string, timestamp int64, coinbaseWinner database.AccountID, txs []database.BlockTx) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if height != r.height {
		return ErrHeightInvariantBroken
	}

	if height > Retention {
		r.journal.Cull(height - Retention)
		r.journal.PushPreventBefore(height, height-Retention)
	}

	changed := r.expire(height)

	if coinbaseWinner != "" {
		if info, exists := r.nodes[coinbaseWinner]; exists {
			r.journal.PushChange(height, coinbaseWinner, info.clone())
			info.LastRewardBlockHeight = height
			info.LastRewardTransactionIndex = ^uint64(0)
			r.nodes[coinbaseWinner] = info
		}
	}

	hf := r.hardForkAt(height)

	for i, tx := range txs {
		switch tx.Type {
		case database.TxTypeRegister:
			if r.tryRegister(tx, height, i, timestamp, hf) {
				changed = true
			}
		case database.TxTypeContribute:
			if r.tryContribution(tx, height, i, hf) {
				changed = true
			}
		case database.TxTypeDeregister:
			if r.tryDeregister(tx, height) {
				changed = true
			}
		case database.TxTypeSwap:
			r.trySwap(tx, height, i, hf)
		}
	}

	if changed {
		r.updateSwarms(height, blockHash)
	}

	eligible := r.eligiblePubkeys(hf)
	state := quorum.Select(height, blockHash, eligible)
	r.quorums.Store(state)

	r.height = height + 1

	return nil
}

// hardForkAt resolves the active hard-fork version for height using the
// registry's configured network schedule.
func (r *Registry) hardForkAt(height uint64) uint32 {
	return hardfork.For(r.network).VersionAt(height)
}

// eligiblePubkeys lists nodes satisfying §4.B's eligibility predicate,
// sorted lexicographically as required before seeding the shuffle.
func (r *Registry) eligiblePubkeys(hf uint32) []database.AccountID {
	var ids []database.AccountID
	for key, info := range r.nodes {
		var eligible bool
		if hf >= hardfork.ActivationSN {
			eligible = info.IsValid()
		} else {
			eligible = info.IsFullyFunded()
		}
		if eligible {
			ids = append(ids, key)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// expire removes every node whose lock period (plus excess, once hf>=5)
// has elapsed as of height, journalling each removal.
func (r *Registry) expire(height uint64) bool {
	changed := false
	hf := r.hardForkAt(height)

	for key, info := range r.nodes {
		lockBlocks := uint64(LockBlocks)
		excess := uint64(0)
		if hf >= 5 {
			excess = ExpiryExcess
		}

		if info.RegistrationHeight+lockBlocks+excess < height {
			r.journal.PushChange(height, key, info.clone())
			delete(r.nodes, key)
			changed = true
		}
	}

	return changed
}

// PortionsToAmount exposes reward.PortionsToAmount for callers outside
// this package (the winner selector and miner-tx builder).
func PortionsToAmount(portions, basis uint64) uint64 {
	return reward.PortionsToAmount(portions, basis)
}
