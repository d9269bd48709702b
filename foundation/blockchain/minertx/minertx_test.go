package minertx_test

import (
	"testing"

	"github.com/ardanlabs/blockchain/foundation/blockchain/hardfork"
	"github.com/ardanlabs/blockchain/foundation/blockchain/minertx"
	"github.com/ardanlabs/blockchain/foundation/blockchain/servicenode"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func fixedBaseReward(amount uint64) func(uint64, uint64, uint64) uint64 {
	return func(uint64, uint64, uint64) uint64 {
		return amount
	}
}

func TestBuildWithoutWinnerPaysMinerInFull(t *testing.T) {
	t.Log("Given the need to build a coinbase before any service node is eligible.")
	{
		in := minertx.Inputs{
			Height:          10,
			MinerAddress:    "0x000000000000000000000000000000000000ee",
			HardForkVersion: 1,
			Network:         hardfork.Testnet,
			BaseRewardFunc:  fixedBaseReward(1000),
		}

		tx, err := minertx.Build(in)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the coinbase: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to build the coinbase.", success)

		if tx.MinerOutput.Amount != 1000 {
			t.Fatalf("\t%s\tShould pay the full base reward to the miner, got %d.", failed, tx.MinerOutput.Amount)
		}
		t.Logf("\t%s\tShould pay the full base reward to the miner.", success)

		if len(tx.SNOutputs) != 0 {
			t.Fatalf("\t%s\tShould have no service-node outputs, got %d.", failed, len(tx.SNOutputs))
		}
		t.Logf("\t%s\tShould have no service-node outputs.", success)
	}
}

func TestBuildWithWinnerPaysContributors(t *testing.T) {
	t.Log("Given the need to build a coinbase that pays a service-node winner.")
	{
		winner := servicenode.Winner{
			Node:     "0x00000000000000000000000000000000000011",
			Operator: "0x00000000000000000000000000000000000022",
			Payouts: []servicenode.Payout{
				{Address: "0x00000000000000000000000000000000000022", Amount: 100},
				{Address: "0x00000000000000000000000000000000000033", Amount: 200},
			},
		}

		in := minertx.Inputs{
			Height:          400100,
			MinerAddress:    "0x000000000000000000000000000000000000ee",
			HardForkVersion: hardfork.V17,
			Network:         hardfork.Testnet,
			BaseRewardFunc:  fixedBaseReward(1000),
			Winner:          &winner,
		}

		tx, err := minertx.Build(in)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the coinbase: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to build the coinbase.", success)

		if len(tx.SNOutputs) != 2 {
			t.Fatalf("\t%s\tShould have one output per contributor, got %d.", failed, len(tx.SNOutputs))
		}
		t.Logf("\t%s\tShould have one output per contributor.", success)

		if err := minertx.Validate(tx, in); err != nil {
			t.Fatalf("\t%s\tShould validate against its own inputs: %s", failed, err)
		}
		t.Logf("\t%s\tShould validate against its own inputs.", success)
	}
}

func TestValidateRejectsTamperedAmount(t *testing.T) {
	t.Log("Given the need to reject a coinbase whose service-node amount was tampered with.")
	{
		winner := servicenode.Winner{
			Node: "0x00000000000000000000000000000000000011",
			Payouts: []servicenode.Payout{
				{Address: "0x00000000000000000000000000000000000033", Amount: 200},
			},
		}

		in := minertx.Inputs{
			Height:          400100,
			MinerAddress:    "0x000000000000000000000000000000000000ee",
			HardForkVersion: hardfork.V17,
			Network:         hardfork.Testnet,
			BaseRewardFunc:  fixedBaseReward(1000),
			Winner:          &winner,
		}

		tx, err := minertx.Build(in)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the coinbase: %s", failed, err)
		}

		tx.SNOutputs[0].Amount += 1

		if err := minertx.Validate(tx, in); err != minertx.ErrWrongAmount {
			t.Fatalf("\t%s\tShould reject a tampered output amount, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject a tampered output amount.", success)
	}
}
