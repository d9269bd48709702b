package reward_test

import (
	"testing"

	"github.com/ardanlabs/blockchain/foundation/blockchain/hardfork"
	"github.com/ardanlabs/blockchain/foundation/blockchain/reward"
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

func TestCalculateServiceNodeSplit(t *testing.T) {
	t.Log("Given the need to split a block reward between miner and service nodes.")
	{
		in := reward.Inputs{
			HardForkVersion: hardfork.V17,
			Height:          400100,
			Network:         hardfork.Mainnet,
			BaseRewardFunc:  fixedBaseReward(1000),
		}

		parts, err := reward.Calculate(in)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to calculate the reward split: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to calculate the reward split.", success)

		if got := parts.OperatorReward + parts.StakerReward; got != parts.ServiceNodeTotal {
			t.Fatalf("\t%s\tShould split service node total into operator+staker exactly, got %d want %d.", failed, got, parts.ServiceNodeTotal)
		}
		t.Logf("\t%s\tShould split service node total into operator+staker exactly.", success)

		if got := parts.BaseMiner + parts.ServiceNodeTotal; got != parts.AdjustedBaseReward {
			t.Fatalf("\t%s\tShould account for the entire adjusted base reward, got %d want %d.", failed, got, parts.AdjustedBaseReward)
		}
		t.Logf("\t%s\tShould account for the entire adjusted base reward.", success)
	}
}

func TestCalculateBeforeActivation(t *testing.T) {
	t.Log("Given the need to pay the miner the full reward before service-node activation.")
	{
		in := reward.Inputs{
			HardForkVersion: 1,
			Height:          10,
			Network:         hardfork.Mainnet,
			BaseRewardFunc:  fixedBaseReward(1000),
		}

		parts, err := reward.Calculate(in)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to calculate the reward split: %s", failed, err)
		}

		if parts.ServiceNodeTotal != 0 {
			t.Fatalf("\t%s\tShould pay nothing to service nodes before activation, got %d.", failed, parts.ServiceNodeTotal)
		}
		t.Logf("\t%s\tShould pay nothing to service nodes before activation.", success)
	}
}

func TestCalculateInvalidBaseReward(t *testing.T) {
	t.Log("Given the need to reject a zero base reward at a non-genesis height.")
	{
		in := reward.Inputs{
			HardForkVersion: hardfork.V17,
			Height:          100,
			Network:         hardfork.Mainnet,
			BaseRewardFunc:  fixedBaseReward(0),
		}

		if _, err := reward.Calculate(in); err != reward.ErrInvalidBaseReward {
			t.Fatalf("\t%s\tShould return ErrInvalidBaseReward, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould return ErrInvalidBaseReward.", success)
	}
}

func TestPortionsToAmount(t *testing.T) {
	t.Log("Given the need to convert portions into an atomic-unit amount.")
	{
		half := reward.StakingPortions / 2
		got := reward.PortionsToAmount(half, 1000)

		if got < 499 || got > 500 {
			t.Fatalf("\t%s\tShould convert half the portions into roughly half the basis, got %d.", failed, got)
		}
		t.Logf("\t%s\tShould convert half the portions into roughly half the basis.", success)
	}
}
