package servicenode_test

import (
	"encoding/json"
	"testing"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/hardfork"
	"github.com/ardanlabs/blockchain/foundation/blockchain/reward"
	"github.com/ardanlabs/blockchain/foundation/blockchain/servicenode"
	"github.com/ethereum/go-ethereum/crypto"
)

func TestSelectWinnerSplitsRewardByContribution(t *testing.T) {
	t.Log("Given the need to pick a reward winner and split its payout across contributors.")
	{
		reg := servicenode.New(servicenode.Config{Network: hardfork.Testnet})

		node, err := database.ToAccountID("0x00000000000000000000000000000000000000dd")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a node account id: %s", failed, err)
		}

		operatorPK, _ := crypto.HexToECDSA(operatorKey)
		operatorID := database.PublicKeyToAccountID(operatorPK.PublicKey)

		extra := servicenode.RegisterExtra{
			PortionsForOperator: reward.StakingPortions / 10,
			Portions:            []uint64{reward.StakingPortions},
			Addresses:           []database.AccountID{operatorID},
			StakingRequirement:  1000,
		}

		registerTx := newSignedRegister(t, node, 250, extra)

		if err := reg.BlockAdded(0, "aa", 1, "", []database.BlockTx{registerTx}); err != nil {
			t.Fatalf("\t%s\tShould be able to add the registration block: %s", failed, err)
		}

		contributeTx := newSignedContribution(t, node, 1000)

		if err := reg.BlockAdded(1, "bb", 2, "", []database.BlockTx{contributeTx}); err != nil {
			t.Fatalf("\t%s\tShould be able to add the contribution block: %s", failed, err)
		}

		winner, ok := reg.SelectWinner(2, 10000)
		if !ok {
			t.Fatalf("\t%s\tShould find a winner once a node is fully funded.", failed)
		}
		t.Logf("\t%s\tShould find a winner once a node is fully funded.", success)

		if winner.Node != node {
			t.Fatalf("\t%s\tShould select the only registered node, got %s.", failed, winner.Node)
		}
		t.Logf("\t%s\tShould select the only registered node as the winner.", success)

		var payload servicenode.ContributeExtra
		_ = json.Unmarshal(contributeTx.Extra, &payload)

		var total uint64
		for _, p := range winner.Payouts {
			total += p.Amount
		}

		if total == 0 || total > 10000 {
			t.Fatalf("\t%s\tShould distribute no more than the reward amount, got %d.", failed, total)
		}
		t.Logf("\t%s\tShould distribute no more than the reward amount.", success)
	}
}
