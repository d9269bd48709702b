package mempool

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/servicenode"
)

// RelayMethod tracks how a pooled transaction has been announced to
// the network, per the Dandelion++ state machine in §4.G.
type RelayMethod int

// The relay states a pooled transaction can be in.
const (
	RelayNone RelayMethod = iota
	RelayLocal
	RelayStem
	RelayFluff
	RelayBlock
)

// RejectFlag discriminates the specific reason add_tx refused a
// transaction, mirroring the verification-context flags in §4.G.
type RejectFlag int

// The admission rejection flags.
const (
	RejectNone RejectFlag = iota
	RejectInvalidInput
	RejectFeeTooLow
	RejectTooBig
	RejectDoubleSpend
	RejectInvalidOutput
)

// Errors surfaced by AdmitTx, wrapping a RejectFlag for callers that
// want the numeric reason without string matching.
var (
	ErrRejectInvalidInput  = errors.New("mempool: unsupported input type")
	ErrRejectFeeTooLow     = errors.New("mempool: fee below the minimum for this weight")
	ErrRejectTooBig        = errors.New("mempool: transaction weight exceeds the pool limit")
	ErrRejectDoubleSpend   = errors.New("mempool: conflicts with a pending transaction")
	ErrRejectInvalidOutput = errors.New("mempool: invalid transaction output")
)

// Tuning constants named after their §4.G counterparts.
const (
	CoinbaseReserved          = 600
	DeregisterLifetime        = 720 * 2 * time.Minute
	MempoolTxLivetime         = 72 * time.Hour
	MempoolTxFromAltBlockLive = 7 * 24 * time.Hour
	EmbargoAverageSeconds     = 173
	MinRelayTime              = 5 * time.Second
	MaxRelayTime              = 10 * time.Minute
)

// meta is the per-transaction admission/relay bookkeeping the simple
// CRUD methods in mempool.go don't need to know about.
type meta struct {
	receiveTime     time.Time
	lastRelayedTime time.Time
	relayMethod     RelayMethod
	isDeregister    bool
	keptByBlock     bool
	weight          uint64
	embargoDeadline time.Time
}

func newMeta(tx database.BlockTx) *meta {
	return &meta{
		receiveTime:  time.Now(),
		relayMethod:  RelayNone,
		isDeregister: tx.Type == database.TxTypeDeregister,
		weight:       weightOf(tx),
	}
}

// weightOf approximates a transaction's pool weight as its payload
// size plus a fixed per-transaction overhead, standing in for the
// reference implementation's serialized-byte weight since this chain's
// account-model transactions have no ring-signature payload to size.
func weightOf(tx database.BlockTx) uint64 {
	const overhead = 128
	return uint64(len(tx.Data)) + uint64(len(tx.Extra)) + overhead
}

// WeightOf exposes weightOf for callers outside the pool that need to
// size a transaction or block the same way admission does (the reward
// calculator's current-block-weight input).
func WeightOf(tx database.BlockTx) uint64 {
	return weightOf(tx)
}

func feePerByte(tx database.BlockTx, weight uint64) uint64 {
	if weight == 0 {
		return tx.Tip
	}
	return tx.Tip / weight
}

// TxWeightLimit returns the maximum weight a single pooled transaction
// may have for the given hard-fork version and block-weight median.
func TxWeightLimit(hf uint32, medianWeight uint64) uint64 {
	limit := medianWeight
	if hf >= 8 {
		limit /= 2
	}
	if limit <= CoinbaseReserved {
		return 0
	}
	return limit - CoinbaseReserved
}

// AdmitTx runs the admission checks in §4.G against tx and, on success,
// inserts it via Upsert and prunes the pool back under targetWeight.
// keptByBlock mirrors the reference's kept_by_block flag: such
// transactions bypass the fee/size/double-spend checks because they
// are already part of a block the node is re-processing.
func (mp *Mempool) AdmitTx(tx database.BlockTx, hf uint32, medianWeight, targetWeight uint64, keptByBlock bool) (RejectFlag, error) {
	weight := weightOf(tx)

	if !keptByBlock {
		limit := TxWeightLimit(hf, medianWeight)
		if limit > 0 && weight > limit {
			return RejectTooBig, ErrRejectTooBig
		}

		if tx.Tip == 0 {
			return RejectFeeTooLow, ErrRejectFeeTooLow
		}

		if mp.hasConflictingNonce(tx) {
			return RejectDoubleSpend, ErrRejectDoubleSpend
		}

		if tx.Type == database.TxTypeDeregister && mp.hasConflictingDeregister(tx) {
			return RejectDoubleSpend, ErrRejectDoubleSpend
		}
	}

	if _, err := tx.FromAccount(); err != nil {
		return RejectInvalidInput, ErrRejectInvalidInput
	}

	if _, err := mp.Upsert(tx); err != nil {
		return RejectInvalidOutput, err
	}

	mp.mu.Lock()
	if key, err := mapKey(tx); err == nil {
		if m, exists := mp.meta[key]; exists {
			m.keptByBlock = keptByBlock
		}
	}
	mp.mu.Unlock()

	mp.Prune(targetWeight)

	return RejectNone, nil
}

// hasConflictingNonce reports whether tx shares an (account, nonce)
// with a transaction already pooled under a different signature,
// standing in for the reference implementation's key-image conflict
// check since this chain's account model keys transactions by nonce
// rather than by spent ring-signature input.
func (mp *Mempool) hasConflictingNonce(tx database.BlockTx) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	key, err := mapKey(tx)
	if err != nil {
		return false
	}

	existing, exists := mp.pool[key]
	if !exists {
		return false
	}

	return !existing.Equals(tx)
}

// hasConflictingDeregister reports whether the pool already holds a
// pending deregister transaction targeting the same quorum decision
// (block_height, service_node_index) as tx, which would otherwise let
// the same vote be submitted more than once before it lands in a block.
func (mp *Mempool) hasConflictingDeregister(tx database.BlockTx) bool {
	var extra servicenode.DeregisterExtra
	if err := json.Unmarshal(tx.Extra, &extra); err != nil {
		return false
	}

	mp.mu.RLock()
	defer mp.mu.RUnlock()

	key, err := mapKey(tx)
	if err != nil {
		return false
	}

	for k, pooled := range mp.pool {
		if k == key || pooled.Type != database.TxTypeDeregister {
			continue
		}

		var other servicenode.DeregisterExtra
		if err := json.Unmarshal(pooled.Extra, &other); err != nil {
			continue
		}

		if other.BlockHeight == extra.BlockHeight && other.ServiceNodeIndex == extra.ServiceNodeIndex {
			return true
		}
	}

	return false
}

// Prune removes the lowest fee-per-byte transactions until the pool's
// total weight is at or below targetWeight, skipping deregisters still
// inside their retention window and anything kept_by_block.
func (mp *Mempool) Prune(targetWeight uint64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for mp.totalWeight() > targetWeight {
		key, ok := mp.lowestPriorityKey()
		if !ok {
			return
		}

		delete(mp.pool, key)
		delete(mp.meta, key)
	}
}

func (mp *Mempool) totalWeight() uint64 {
	var sum uint64
	for _, m := range mp.meta {
		sum += m.weight
	}
	return sum
}

// TotalWeight reports the pool's current summed transaction weight, for
// callers monitoring pool pressure (e.g. the node's Prometheus gauges).
func (mp *Mempool) TotalWeight() uint64 {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return mp.totalWeight()
}

func (mp *Mempool) lowestPriorityKey() (string, bool) {
	var (
		bestKey string
		bestFPB uint64 = math.MaxUint64
		found   bool
	)

	now := time.Now()

	for key, tx := range mp.pool {
		m := mp.meta[key]
		if m == nil || m.keptByBlock {
			continue
		}
		if m.isDeregister && now.Sub(m.receiveTime) < DeregisterLifetime {
			continue
		}

		fpb := feePerByte(tx, m.weight)
		if fpb < bestFPB {
			bestFPB = fpb
			bestKey = key
			found = true
		}
	}

	return bestKey, found
}

// SweepStuck removes transactions that have aged past their retention
// window, per the stuck-tx sweep in §4.G.
func (mp *Mempool) SweepStuck() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	now := time.Now()
	removed := 0

	for key, m := range mp.meta {
		age := now.Sub(m.receiveTime)

		var livetime time.Duration
		switch {
		case m.isDeregister:
			livetime = DeregisterLifetime
		case m.keptByBlock:
			livetime = MempoolTxFromAltBlockLive
		default:
			livetime = MempoolTxLivetime
		}

		if age > livetime {
			delete(mp.pool, key)
			delete(mp.meta, key)
			removed++
		}
	}

	return removed
}

// PromoteRelay advances tx's relay state machine per the transition
// table in §4.G, sampling a fresh stem embargo deadline when entering
// the stem state.
func (mp *Mempool) PromoteRelay(tx database.BlockTx, next RelayMethod) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key, err := mapKey(tx)
	if err != nil {
		return err
	}

	m, exists := mp.meta[key]
	if !exists {
		return errors.New("mempool: unknown transaction")
	}

	if !relayTransitionAllowed(m.relayMethod, next) {
		return errors.New("mempool: invalid relay state transition")
	}

	m.relayMethod = next
	if next == RelayStem {
		m.embargoDeadline = time.Now().Add(samplePoisson(EmbargoAverageSeconds))
		m.lastRelayedTime = m.embargoDeadline
	}

	return nil
}

func relayTransitionAllowed(from, to RelayMethod) bool {
	switch from {
	case RelayNone:
		return to == RelayLocal || to == RelayStem || to == RelayFluff || to == RelayBlock
	case RelayLocal:
		return to == RelayFluff || to == RelayBlock
	case RelayStem:
		return to == RelayFluff || to == RelayBlock || to == RelayStem
	case RelayFluff:
		return to == RelayBlock
	}
	return false
}

// samplePoisson draws a duration from an exponential distribution with
// the given mean in seconds, the continuous-time analogue the
// reference implementation uses for its embargo timer.
func samplePoisson(meanSeconds float64) time.Duration {
	u := rand.Float64()
	if u <= 0 {
		u = 1e-9
	}
	seconds := -meanSeconds * math.Log(u)
	return time.Duration(seconds * float64(time.Second))
}

// RelayDelay computes the minimum re-relay interval for a fluff-state
// transaction that has been pooled for elapsed, clamped to
// [MinRelayTime, MaxRelayTime] and rounded up to the next multiple of
// MinRelayTime, per §4.G's relay_delay formula.
func RelayDelay(elapsed time.Duration) time.Duration {
	steps := math.Ceil(float64(elapsed+MinRelayTime) / float64(MinRelayTime))
	delay := time.Duration(steps) * MinRelayTime

	if delay < MinRelayTime {
		return MinRelayTime
	}
	if delay > MaxRelayTime {
		return MaxRelayTime
	}
	return delay
}

// DueForRelay reports whether a fluff-state transaction is due for
// re-relay, and refuses re-relay once the transaction has lived past
// half its maximum lifetime (flap avoidance).
func (mp *Mempool) DueForRelay(tx database.BlockTx) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	key, err := mapKey(tx)
	if err != nil {
		return false
	}

	m, exists := mp.meta[key]
	if !exists || m.relayMethod != RelayFluff {
		return false
	}

	now := time.Now()
	age := now.Sub(m.receiveTime)
	if age > MempoolTxLivetime/2 {
		return false
	}

	return now.Sub(m.lastRelayedTime) > RelayDelay(age)
}

// MarkRelayed records that tx was just relayed, for DueForRelay's next
// interval calculation.
func (mp *Mempool) MarkRelayed(tx database.BlockTx) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key, err := mapKey(tx)
	if err != nil {
		return err
	}

	m, exists := mp.meta[key]
	if !exists {
		return errors.New("mempool: unknown transaction")
	}

	m.lastRelayedTime = time.Now()
	return nil
}

// templateCandidate is a pool entry staged for FillTemplate's fee-sorted
// selection pass.
type templateCandidate struct {
	tx     database.BlockTx
	weight uint64
	fpb    uint64
}

// FillTemplate selects transactions for a new block template by
// iterating the pool from highest fee-per-byte downward, skipping any
// transaction that would push the total past maxTotalWeight and any
// that double-spends an account nonce already claimed in this template.
func (mp *Mempool) FillTemplate(maxTotalWeight uint64) []database.BlockTx {
	mp.mu.RLock()

	candidates := make([]templateCandidate, 0, len(mp.pool))
	for key, tx := range mp.pool {
		m := mp.meta[key]
		if m == nil {
			continue
		}
		candidates = append(candidates, templateCandidate{tx: tx, weight: m.weight, fpb: feePerByte(tx, m.weight)})
	}
	mp.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].fpb > candidates[j].fpb })

	seenNonce := make(map[string]bool)
	var (
		selected    []database.BlockTx
		totalWeight uint64
	)

	for _, c := range candidates {
		if totalWeight+c.weight > maxTotalWeight {
			continue
		}

		nonceKey, err := mapKey(c.tx)
		if err != nil {
			continue
		}

		if seenNonce[nonceKey] {
			continue
		}

		seenNonce[nonceKey] = true
		totalWeight += c.weight
		selected = append(selected, c.tx)
	}

	return selected
}
