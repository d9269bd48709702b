package state

import (
	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/peer"
)

// AddKnownPeer provides the ability to add a new peer.
func (s *State) AddKnownPeer(peer peer.Peer) bool {
	return s.knownPeers.Add(peer)
}

func (s *State) RemoveKnownPeer(peer peer.Peer) {
	s.knownPeers.Remove(peer)
}

// UpsertMempool adds a transaction recovered during peer sync back into
// the mempool, bypassing the fee/size/double-spend admission checks since
// it was already accepted by the network once.
func (s *State) UpsertMempool(tx database.BlockTx) error {
	medianWeight, targetWeight := s.poolWeightBudget()
	_, err := s.mempool.AdmitTx(tx, s.currentHardFork(), medianWeight, targetWeight, true)
	return err
}

// MaintainMempool sweeps transactions that have aged past their
// retention window and prunes the pool back under its weight budget,
// for the worker's periodic pool-maintenance operation.
func (s *State) MaintainMempool() int {
	removed := s.mempool.SweepStuck()

	_, targetWeight := s.poolWeightBudget()
	s.mempool.Prune(targetWeight)

	return removed
}

// TxsDueForRelay returns the pooled transactions that are due for a
// fluff-phase re-relay, marking each as relayed so the next maintenance
// pass won't pick it again before its delay elapses.
func (s *State) TxsDueForRelay() []database.BlockTx {
	var due []database.BlockTx

	for _, tx := range s.mempool.PickBest(-1) {
		if !s.mempool.DueForRelay(tx) {
			continue
		}

		due = append(due, tx)
		s.mempool.MarkRelayed(tx)
	}

	return due
}
