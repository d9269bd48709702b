package state

import (
	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockchain/foundation/blockchain/hardfork"
	"github.com/ardanlabs/blockchain/foundation/blockchain/peer"
	"github.com/ardanlabs/blockchain/foundation/blockchain/servicenode"
)

// RetrieveHost returns the host this node is known by on the network.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveKnownPeers retrieves a copy of the known peer list that doesn't
// include this node.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy of the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.BlockTx {
	return s.mempool.PickBest(-1)
}

// RetrieveMempoolCount returns the number of transactions currently
// pooled.
func (s *State) RetrieveMempoolCount() int {
	return s.mempool.Count()
}

// RetrieveMempoolWeight returns the pool's current summed transaction
// weight.
func (s *State) RetrieveMempoolWeight() uint64 {
	return s.mempool.TotalWeight()
}

// RetrieveServiceNode returns a copy of a bonded node's registry entry.
func (s *State) RetrieveServiceNode(key database.AccountID) (servicenode.Info, bool) {
	return s.registry.Lookup(key)
}

// RetrieveServiceNodeCount returns the number of currently bonded nodes.
func (s *State) RetrieveServiceNodeCount() int {
	return s.registry.Len()
}

// RetrieveCheckpoint returns the checkpointed block hash for height, if
// one has been recorded.
func (s *State) RetrieveCheckpoint(height uint64) (string, bool) {
	return s.checkpoints.Lookup(height)
}

// RetrieveQuorumCacheSize returns the number of quorum states currently
// cached by the registry.
func (s *State) RetrieveQuorumCacheSize() int {
	return s.registry.QuorumCacheLen()
}

// HardForkGate describes a single version's position in the network's
// activation schedule.
type HardForkGate struct {
	Version uint32 `json:"version"`
	Height  uint64 `json:"height"`
	Active  bool   `json:"active"`
}

// HardForkStatus reports the version active at the next block along with
// the activation gates that drive the service-node and reward-split rules.
type HardForkStatus struct {
	Network        hardfork.Network `json:"network"`
	CurrentVersion uint32           `json:"current_version"`
	ServiceNode    HardForkGate     `json:"service_node"`
	RewardSplitV12 HardForkGate     `json:"reward_split_v12"`
	DevFundV17     HardForkGate     `json:"dev_fund_v17"`
}

// RetrieveHardForkStatus reports the version this node would use for the
// next block, plus where the service-node and reward-split gates fall in
// its network's activation schedule.
func (s *State) RetrieveHardForkStatus() HardForkStatus {
	height := s.db.LatestBlock().Header.Number + 1
	schedule := hardfork.For(s.network)

	gate := func(version uint32) HardForkGate {
		activationHeight, ok := schedule.HeightOf(version)
		return HardForkGate{
			Version: version,
			Height:  activationHeight,
			Active:  ok && height >= activationHeight,
		}
	}

	return HardForkStatus{
		Network:        s.network,
		CurrentVersion: schedule.VersionAt(height),
		ServiceNode:    gate(hardfork.ActivationSN),
		RewardSplitV12: gate(hardfork.V12),
		DevFundV17:     gate(hardfork.V17),
	}
}
