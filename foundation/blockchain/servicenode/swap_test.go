package servicenode_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/hardfork"
	"github.com/ardanlabs/blockchain/foundation/blockchain/servicenode"
	"github.com/ethereum/go-ethereum/crypto"
)

func newSignedSwap(t *testing.T, node database.AccountID, value uint64, extra servicenode.SwapExtra) database.BlockTx {
	t.Helper()

	pk, err := crypto.HexToECDSA(operatorKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the test private key: %s", failed, err)
	}

	payload, err := json.Marshal(extra)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to marshal the swap extra: %s", failed, err)
	}

	tx, err := database.NewTypedTx(1, node, value, 0, database.TxTypeSwap, payload)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the swap transaction: %s", failed, err)
	}

	signedTx, err := tx.Sign(pk)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign the swap transaction: %s", failed, err)
	}

	return database.NewBlockTx(signedTx, 0, 0)
}

func TestRegistrySwapNeverMutatesNodes(t *testing.T) {
	t.Log("Given the need to validate a cross-chain swap memo without touching the node registry.")
	{
		var events []string
		reg := servicenode.New(servicenode.Config{
			Network:   hardfork.Testnet,
			EvHandler: func(v string, args ...any) { events = append(events, fmt.Sprintf(v, args...)) },
		})

		node, err := database.ToAccountID("0x00000000000000000000000000000000000000ee")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a node account id: %s", failed, err)
		}

		swapTx := newSignedSwap(t, node, 400, servicenode.SwapExtra{Network: "bitcoin", Address: node, Amount: 400})

		// Height 1000 is the testnet service-node activation height, so
		// swap is recognised here.
		reg.Restore(servicenode.Snapshot{Height: 1000})
		if err := reg.BlockAdded(1000, "55", 1, "", []database.BlockTx{swapTx}); err != nil {
			t.Fatalf("\t%s\tShould be able to add a block containing a matching swap: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to add a block containing a matching swap.", success)

		if reg.Len() != 0 {
			t.Fatalf("\t%s\tShould never add a node entry for a swap transaction, got %d.", failed, reg.Len())
		}
		t.Logf("\t%s\tShould never add a node entry for a swap transaction.", success)

		for _, e := range events {
			if strings.Contains(e, "servicenode: swap:") {
				t.Fatalf("\t%s\tShould not reject a swap whose claimed amount matches the transferred value, got %q.", failed, e)
			}
		}
		t.Logf("\t%s\tShould accept a swap whose claimed amount matches the transferred value.", success)
	}
}

func TestRegistryRejectsMismatchedSwap(t *testing.T) {
	t.Log("Given the need to reject a swap whose claimed amount does not match the transferred value.")
	{
		var events []string
		reg := servicenode.New(servicenode.Config{
			Network:   hardfork.Testnet,
			EvHandler: func(v string, args ...any) { events = append(events, fmt.Sprintf(v, args...)) },
		})

		node, err := database.ToAccountID("0x00000000000000000000000000000000000000ff")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a node account id: %s", failed, err)
		}

		swapTx := newSignedSwap(t, node, 400, servicenode.SwapExtra{Network: "bitcoin", Address: node, Amount: 999})

		reg.Restore(servicenode.Snapshot{Height: 1000})
		if err := reg.BlockAdded(1000, "66", 1, "", []database.BlockTx{swapTx}); err != nil {
			t.Fatalf("\t%s\tShould be able to add a block even if its swap is rejected: %s", failed, err)
		}

		found := false
		for _, e := range events {
			if strings.Contains(e, "servicenode: swap: claimed amount does not match transferred value") {
				found = true
			}
		}
		if !found {
			t.Fatalf("\t%s\tShould log a rejection for the mismatched swap claim.", failed)
		}
		t.Logf("\t%s\tShould reject a swap whose claimed amount does not match the transferred value.", success)
	}
}

func TestRegistryRejectsSwapBeforeActivation(t *testing.T) {
	t.Log("Given the need to reject swap transactions before the service-node activation hard fork.")
	{
		var events []string
		reg := servicenode.New(servicenode.Config{
			Network:   hardfork.Testnet,
			EvHandler: func(v string, args ...any) { events = append(events, fmt.Sprintf(v, args...)) },
		})

		node, err := database.ToAccountID("0x000000000000000000000000000000000000ff11")
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a node account id: %s", failed, err)
		}

		swapTx := newSignedSwap(t, node, 400, servicenode.SwapExtra{Network: "bitcoin", Address: node, Amount: 400})

		if err := reg.BlockAdded(0, "77", 1, "", []database.BlockTx{swapTx}); err != nil {
			t.Fatalf("\t%s\tShould be able to add a block even if its swap is rejected: %s", failed, err)
		}

		found := false
		for _, e := range events {
			if strings.Contains(e, "servicenode: swap: not active before hard fork") {
				found = true
			}
		}
		if !found {
			t.Fatalf("\t%s\tShould log a rejection for a pre-activation swap.", failed)
		}
		t.Logf("\t%s\tShould reject a swap transaction before the activation hard fork.", success)
	}
}
