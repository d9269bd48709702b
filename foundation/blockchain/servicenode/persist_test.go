package servicenode_test

import (
	"testing"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/hardfork"
	"github.com/ardanlabs/blockchain/foundation/blockchain/reward"
	"github.com/ardanlabs/blockchain/foundation/blockchain/servicenode"
	"github.com/ethereum/go-ethereum/crypto"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	t.Log("Given the need to resume a registry from a persisted snapshot.")
	{
		reg := servicenode.New(servicenode.Config{Network: hardfork.Testnet})

		node, err := database.ToAccountID("0x00000000000000000000000000000000000000cc")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a node account id: %s", failed, err)
		}

		operatorPK, _ := crypto.HexToECDSA(operatorKey)
		operatorID := database.PublicKeyToAccountID(operatorPK.PublicKey)

		extra := servicenode.RegisterExtra{
			PortionsForOperator: reward.MinPortions,
			Portions:            []uint64{reward.StakingPortions},
			Addresses:           []database.AccountID{operatorID},
			StakingRequirement:  1000,
		}

		registerTx := newSignedRegister(t, node, 250, extra)

		if err := reg.BlockAdded(0, "deadbeef", 1000, "", []database.BlockTx{registerTx}); err != nil {
			t.Fatalf("\t%s\tShould be able to add a block containing a registration: %s", failed, err)
		}

		snap := reg.Snapshot()
		if len(snap.Nodes) != 1 {
			t.Fatalf("\t%s\tShould capture exactly one node in the snapshot, got %d.", failed, len(snap.Nodes))
		}
		t.Logf("\t%s\tShould capture exactly one node in the snapshot.", success)

		if snap.Height != reg.Height() {
			t.Fatalf("\t%s\tShould capture the registry's current height, got %d want %d.", failed, snap.Height, reg.Height())
		}
		t.Logf("\t%s\tShould capture the registry's current height.", success)

		fresh := servicenode.New(servicenode.Config{Network: hardfork.Testnet})
		fresh.Restore(snap)

		if fresh.Height() != reg.Height() {
			t.Fatalf("\t%s\tShould restore the height cursor, got %d want %d.", failed, fresh.Height(), reg.Height())
		}
		t.Logf("\t%s\tShould restore the height cursor.", success)

		info, exists := fresh.Lookup(node)
		if !exists {
			t.Fatalf("\t%s\tShould restore the registered node.", failed)
		}
		t.Logf("\t%s\tShould restore the registered node.", success)

		if info.StakingRequirement != 1000 {
			t.Fatalf("\t%s\tShould restore the node's staking requirement, got %d.", failed, info.StakingRequirement)
		}
		t.Logf("\t%s\tShould restore the node's staking requirement.", success)

		if err := fresh.Detach(0); err != nil {
			t.Fatalf("\t%s\tShould be able to detach the restored registry back to genesis: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to detach the restored registry back to genesis.", success)

		if _, exists := fresh.Lookup(node); exists {
			t.Fatalf("\t%s\tShould erase the node once detached past its registration, still found.", failed)
		}
		t.Logf("\t%s\tShould erase the node once detached past its registration.", success)
	}
}
