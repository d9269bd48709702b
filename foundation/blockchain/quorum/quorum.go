// Package quorum selects, for a given block height, the set of service
// nodes authorised to vote on deregistrations (the quorum) and the set of
// nodes eligible to be voted on (nodes-to-test).
package quorum

import (
	"encoding/binary"
	"encoding/hex"
	"math/rand"
	"sort"
	"strings"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
)

// Size limits for the quorum and the testable set. These mirror the
// reference implementation's QUORUM_SIZE/MIN_NODES_TO_TEST/NTH_OF_NETWORK
// constants, scaled to this project's own consensus parameters.
const (
	QuorumSize     = 10
	MinNodesToTest = 2
	NthOfNetwork   = 100
)

// State is the immutable snapshot of a quorum decision at a given height.
type State struct {
	Height      uint64
	Quorum      []database.AccountID
	NodesToTest []database.AccountID
}

// newSourceFromHash seeds an MT19937-64 generator with the low 8 bytes of
// the block hash, little-endian, matching the reference implementation's
// seeding convention exactly so permutations are reproducible cross
// platform.
func newSourceFromHash(blockHash string) *rand.Rand {
	var seed uint64
	b, err := hex.DecodeString(strings.TrimPrefix(blockHash, "0x"))
	if err != nil {
		b = []byte(blockHash)
	}
	if len(b) >= 8 {
		seed = binary.LittleEndian.Uint64(b[:8])
	} else {
		padded := make([]byte, 8)
		copy(padded, b)
		seed = binary.LittleEndian.Uint64(padded)
	}

	return rand.New(newMT19937_64(seed))
}

// uniform draws a uniform integer in [0, n) from src using rejection
// sampling, discarding draws that would bias the result toward low
// values. This guarantees the same permutation regardless of host
// platform or math/rand implementation details.
func uniform(src *rand.Rand, n uint64) uint64 {
	if n == 0 {
		return 0
	}

	const maxVal = ^uint64(0)
	secureMax := maxVal - maxVal%n

	for {
		draw := src.Uint64()
		if draw < secureMax {
			return draw / (secureMax / n)
		}
	}
}

// shuffle performs an in-place shuffle over ids using uniform draws from
// src, walking forward from index 1 and swapping each element with a
// uniformly chosen predecessor-or-self. This consumes the random stream
// in the same order the reference implementation's xeq_shuffle does, so
// the resulting permutation matches it bit-for-bit for the same seed.
func shuffle(src *rand.Rand, ids []database.AccountID) {
	for i := 1; i < len(ids); i++ {
		j := uniform(src, uint64(i+1))
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// Shuffle performs the same deterministic, hash-seeded shuffle Select
// uses internally, exported so other packages (the swarm rebalancer)
// can derive reproducible permutations from a block hash without
// duplicating the MT19937-64 seeding convention.
func Shuffle(blockHash string, ids []database.AccountID) {
	src := newSourceFromHash(blockHash)
	shuffle(src, ids)
}

// Select computes the quorum and nodes-to-test for the specified height
// given the block hash seed and the set of eligible pubkeys (already
// filtered by the caller for is_valid/is_fully_funded per §4.B).
func Select(height uint64, blockHash string, eligible []database.AccountID) State {
	ids := make([]database.AccountID, len(eligible))
	copy(ids, eligible)

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	src := newSourceFromHash(blockHash)
	shuffle(src, ids)

	quorumSize := len(ids)
	if quorumSize > QuorumSize {
		quorumSize = QuorumSize
	}

	remaining := len(ids) - quorumSize
	testCount := remaining / NthOfNetwork
	if testCount < MinNodesToTest {
		testCount = MinNodesToTest
	}
	if testCount > remaining {
		testCount = remaining
	}

	state := State{
		Height:      height,
		Quorum:      append([]database.AccountID{}, ids[:quorumSize]...),
		NodesToTest: append([]database.AccountID{}, ids[quorumSize:quorumSize+testCount]...),
	}

	return state
}
