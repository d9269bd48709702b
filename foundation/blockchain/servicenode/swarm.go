package servicenode

import (
	"sort"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/quorum"
)

// SwarmMin and SwarmMax bound the number of nodes a swarm may hold
// before the rebalancer joins it into a neighbour or splits it.
const (
	SwarmMin = 5
	SwarmMax = 10
)

// updateSwarms rebalances every WithSwarm-or-later node into swarms no
// smaller than SwarmMin and no larger than SwarmMax, deterministically
// seeded off blockHash so every node reaches the same assignment. This
// is a deliberate reimplementation rather than a port: the upstream
// rebalancer's bucket algorithm is approximated here by a seeded
// bin-packer built on the same MT19937-64 shuffle quorum selection
// uses, grouping swarm-eligible nodes into contiguous bins of a shuffled
// order. Per §4.D.4, only nodes whose swarm_id actually moves are
// journalled, so a Detach to a height before the rebalance restores
// every other node's swarm_id untouched.
func (r *Registry) updateSwarms(height uint64, blockHash string) {
	var ids []database.AccountID
	for key, info := range r.nodes {
		if info.Version >= VersionWithSwarm {
			ids = append(ids, key)
		}
	}

	if len(ids) == 0 {
		return
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	quorum.Shuffle(blockHash, ids)

	bins := packBins(len(ids), SwarmMin, SwarmMax)

	offset := 0
	for swarmID, size := range bins {
		for i := 0; i < size; i++ {
			key := ids[offset+i]
			info := r.nodes[key]

			newSwarmID := uint64(swarmID + 1)
			if info.SwarmID != newSwarmID {
				r.journal.PushChange(height, key, info.clone())
				info.SwarmID = newSwarmID
				r.nodes[key] = info
			}
		}
		offset += size
	}
}

// packBins splits n items into contiguous bins each within [min, max],
// preferring max-sized bins. When the remainder is smaller than min, the
// bin before it is shrunk so the trailing bin holds exactly min rather
// than leaving an under-sized trailing swarm. If n is at most max,
// everything goes in one bin.
func packBins(n, min, max int) []int {
	if n <= max {
		return []int{n}
	}

	var bins []int
	remaining := n

	for remaining > max {
		bins = append(bins, max)
		remaining -= max
	}

	if remaining < min && len(bins) > 0 {
		last := bins[len(bins)-1]
		bins[len(bins)-1] = last - (min - remaining)
		bins = append(bins, min)
	} else {
		bins = append(bins, remaining)
	}

	return bins
}
