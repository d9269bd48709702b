// Package minertx builds and validates the extended coinbase output
// set: the host chain's existing block-reward mechanism
// (database.Database.ApplyMiningReward), extended with the
// service-node, governance, and dev-fund outputs a hard-forked chain
// pays out alongside the miner's own share.
package minertx

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/hardfork"
	"github.com/ardanlabs/blockchain/foundation/blockchain/reward"
	"github.com/ardanlabs/blockchain/foundation/blockchain/servicenode"
)

// Failure kinds returned by Validate, named after §4.F's list.
var (
	ErrWrongWinner    = errors.New("minertx: winner does not match the current select_winner result")
	ErrOutputCount    = errors.New("minertx: fewer outputs than contributors")
	ErrWrongAmount    = errors.New("minertx: output amounts do not sum to the expected reward")
	ErrWrongTarget    = errors.New("minertx: output target kind is not a standard one-time key")
	ErrWrongOutputKey = errors.New("minertx: output key does not match the deterministic derivation")
)

// Output is a single coinbase payment: a beneficiary and an amount,
// plus the deterministic one-time key guarding it (§6).
type Output struct {
	Address   database.AccountID
	Amount    uint64
	OutputKey [32]byte
}

// CoinbaseTx is the full extended coinbase: the miner's own share plus
// every service-node/governance/dev-fund output paid alongside it.
type CoinbaseTx struct {
	Height      uint64
	BlockKey    [32]byte
	MinerOutput Output
	SNOutputs   []Output
	Governance  *Output
	DevFund     *Output
}

// Inputs bundles everything Build needs to construct a CoinbaseTx.
type Inputs struct {
	Height                uint64
	MedianBlockWeight     uint64
	CurrentBlockWeight    uint64
	AlreadyGeneratedCoins uint64
	Fee                   uint64
	MinerAddress          database.AccountID
	HardForkVersion       uint32
	Network               hardfork.Network
	BaseRewardFunc        func(medianWeight, currentWeight, alreadyGenerated uint64) uint64
	Winner                *servicenode.Winner
}

// BlockKey derives the deterministic per-height keypair stand-in used
// to produce every output's one-time key, per §6: height is written
// little-endian into the low 8 bytes of a 32-byte secret, then hashed
// to stand in for the reference's scalar-basepoint multiplication
// (this chain has no elliptic-curve output-key scheme to reuse, so the
// derivation is reduced to a hash while preserving its determinism and
// per-height uniqueness).
func BlockKey(height uint64) [32]byte {
	var sec [32]byte
	binary.LittleEndian.PutUint64(sec[:8], height)
	return sha256.Sum256(sec[:])
}

// outputKey derives a per-output one-time key from the block key, the
// beneficiary address, and the output's index, mirroring §6's
// per-output derivation without requiring a real elliptic-curve view
// key on the beneficiary's account.
func outputKey(blockKey [32]byte, address database.AccountID, index int) [32]byte {
	h := sha256.New()
	h.Write(blockKey[:])
	h.Write([]byte(address))
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], uint64(index))
	h.Write(idx[:])

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Build constructs the extended coinbase for a block, per §4.F.
func Build(in Inputs) (CoinbaseTx, error) {
	parts, err := reward.Calculate(reward.Inputs{
		MedianBlockWeight:     in.MedianBlockWeight,
		CurrentBlockWeight:    in.CurrentBlockWeight,
		AlreadyGeneratedCoins: in.AlreadyGeneratedCoins,
		HardForkVersion:       in.HardForkVersion,
		Height:                in.Height,
		Network:               in.Network,
		Fee:                   in.Fee,
		BaseRewardFunc:        in.BaseRewardFunc,
	})
	if err != nil {
		return CoinbaseTx{}, fmt.Errorf("minertx: compute reward split: %w", err)
	}

	blockKey := BlockKey(in.Height)

	tx := CoinbaseTx{
		Height:   in.Height,
		BlockKey: blockKey,
		MinerOutput: Output{
			Address:   in.MinerAddress,
			Amount:    parts.BaseMiner + parts.BaseMinerFee,
			OutputKey: outputKey(blockKey, in.MinerAddress, 0),
		},
	}

	var snPaid uint64
	if in.Winner != nil {
		for i, payout := range in.Winner.Payouts {
			out := Output{
				Address:   payout.Address,
				Amount:    payout.Amount,
				OutputKey: outputKey(blockKey, payout.Address, i+1),
			}
			tx.SNOutputs = append(tx.SNOutputs, out)
			snPaid += payout.Amount
		}
	}

	nextIndex := len(tx.SNOutputs) + 1

	if in.HardForkVersion >= 7 {
		if addr := reward.GovernanceAddress(in.Network, in.HardForkVersion); addr != "" {
			amount := reward.GovernanceAmount(in.Network, in.HardForkVersion, in.Height)
			tx.Governance = &Output{
				Address:   addr,
				Amount:    amount,
				OutputKey: outputKey(blockKey, addr, nextIndex),
			}
			nextIndex++
		}
	}

	if in.HardForkVersion >= hardfork.V17 {
		if addr := reward.DevFundAddress(in.Network, in.HardForkVersion); addr != "" {
			amount := reward.DevFundAmount(in.Network, in.HardForkVersion, in.Height)
			tx.DevFund = &Output{
				Address:   addr,
				Amount:    amount,
				OutputKey: outputKey(blockKey, addr, nextIndex),
			}
		}
	}

	total := tx.MinerOutput.Amount + snPaid
	if tx.Governance != nil {
		total += tx.Governance.Amount
	}
	if tx.DevFund != nil {
		total += tx.DevFund.Amount
	}

	expected := parts.BaseMiner + parts.BaseMinerFee + snPaid + parts.Governance + parts.DevFund
	if total != expected {
		return CoinbaseTx{}, ErrWrongAmount
	}

	return tx, nil
}

// Validate checks tx against the winner and reward split the registry
// and reward calculator would independently compute for its height,
// per §4.F's failure-kind list.
func Validate(tx CoinbaseTx, in Inputs) error {
	if in.Winner == nil {
		if len(tx.SNOutputs) != 0 {
			return ErrWrongWinner
		}
		return nil
	}

	if len(tx.SNOutputs) < len(in.Winner.Payouts) {
		return ErrOutputCount
	}

	for i, payout := range in.Winner.Payouts {
		out := tx.SNOutputs[i]

		if out.Address != payout.Address {
			return ErrWrongWinner
		}

		if out.Amount != payout.Amount {
			return ErrWrongAmount
		}

		want := outputKey(tx.BlockKey, out.Address, i+1)
		if out.OutputKey != want {
			return ErrWrongOutputKey
		}
	}

	return nil
}
