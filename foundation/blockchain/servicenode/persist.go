package servicenode

import (
	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/quorum"
	"github.com/ardanlabs/blockchain/foundation/blockchain/rollback"
)

// NodeRecord is a single node's registry entry paired with its key, in
// the field order §4.I's persisted-registry-format declares: version,
// registration_height, last_reward_block_height,
// last_reward_transaction_index, contributors, total_contributed,
// total_reserved, staking_requirement, portions_for_operator, swarm_id,
// operator_address.
type NodeRecord struct {
	Key                        database.AccountID
	Version                    Version
	RegistrationHeight         uint64
	LastRewardBlockHeight      uint64
	LastRewardTransactionIndex uint64
	Contributors               []Contribution
	TotalContributed           uint64
	TotalReserved              uint64
	StakingRequirement         uint64
	PortionsForOperator        uint64
	SwarmID                    uint64
	OperatorAddress            database.AccountID
}

// JournalEventRecord is a rollback.Event with its PriorInfo narrowed from
// `any` to a concrete *Info, so it round-trips through JSON without a
// type registry.
type JournalEventRecord struct {
	Kind          rollback.Kind
	BlockHeight   uint64
	Key           database.AccountID
	PriorInfo     *Info
	PreventHeight uint64
}

// Snapshot is everything a Registry needs to resume from rather than
// replay from genesis: the height cursor, every live node, the cached
// quorum states, and the rollback journal, per §4.I.
type Snapshot struct {
	Height  uint64
	Nodes   []NodeRecord
	Quorums []quorum.State
	Journal []JournalEventRecord
}

// Snapshot captures the registry's current state for persistence. The
// returned value shares no memory with the live registry.
func (r *Registry) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	nodes := make([]NodeRecord, 0, len(r.nodes))
	for key, info := range r.nodes {
		info = info.clone()
		nodes = append(nodes, NodeRecord{
			Key:                        key,
			Version:                    info.Version,
			RegistrationHeight:         info.RegistrationHeight,
			LastRewardBlockHeight:      info.LastRewardBlockHeight,
			LastRewardTransactionIndex: info.LastRewardTransactionIndex,
			Contributors:               info.Contributors,
			TotalContributed:           info.TotalContributed,
			TotalReserved:              info.TotalReserved,
			StakingRequirement:         info.StakingRequirement,
			PortionsForOperator:        info.PortionsForOperator,
			SwarmID:                    info.SwarmID,
			OperatorAddress:            info.OperatorAddress,
		})
	}

	events := r.journal.Events()
	journal := make([]JournalEventRecord, 0, len(events))
	for _, e := range events {
		rec := JournalEventRecord{
			Kind:          e.Kind,
			BlockHeight:   e.BlockHeight,
			Key:           e.Key,
			PreventHeight: e.PreventHeight,
		}
		if info, ok := e.PriorInfo.(Info); ok {
			cloned := info.clone()
			rec.PriorInfo = &cloned
		}
		journal = append(journal, rec)
	}

	return Snapshot{
		Height:  r.height,
		Nodes:   nodes,
		Quorums: r.quorums.States(),
		Journal: journal,
	}
}

// Restore replaces the registry's live state with a previously captured
// Snapshot, for node startup after a restart. It does not validate the
// snapshot against the chain; the caller is responsible for restoring
// only a snapshot consistent with the database it will run alongside.
func (r *Registry) Restore(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.height = snap.Height

	r.nodes = make(map[database.AccountID]Info, len(snap.Nodes))
	for _, rec := range snap.Nodes {
		r.nodes[rec.Key] = Info{
			Version:                    rec.Version,
			RegistrationHeight:         rec.RegistrationHeight,
			LastRewardBlockHeight:      rec.LastRewardBlockHeight,
			LastRewardTransactionIndex: rec.LastRewardTransactionIndex,
			Contributors:               append([]Contribution{}, rec.Contributors...),
			TotalContributed:           rec.TotalContributed,
			TotalReserved:              rec.TotalReserved,
			StakingRequirement:         rec.StakingRequirement,
			PortionsForOperator:        rec.PortionsForOperator,
			SwarmID:                    rec.SwarmID,
			OperatorAddress:            rec.OperatorAddress,
		}
	}

	r.quorums = quorum.NewCache()
	r.quorums.LoadStates(snap.Quorums)

	events := make([]rollback.Event, 0, len(snap.Journal))
	for _, rec := range snap.Journal {
		event := rollback.Event{
			Kind:          rec.Kind,
			BlockHeight:   rec.BlockHeight,
			Key:           rec.Key,
			PreventHeight: rec.PreventHeight,
		}
		if rec.PriorInfo != nil {
			event.PriorInfo = rec.PriorInfo.clone()
		}
		events = append(events, event)
	}
	r.journal = rollback.NewJournal()
	r.journal.Load(events)
}
