package persist_test

import (
	"path/filepath"
	"testing"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/persist"
	"github.com/ardanlabs/blockchain/foundation/blockchain/servicenode"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestStoreWriteLoadRoundTrip(t *testing.T) {
	t.Log("Given the need to survive a restart by reloading the last written snapshot.")
	{
		path := filepath.Join(t.TempDir(), "servicenode.jsonl")

		store, err := persist.NewStore(path)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open a new store: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to open a new store.", success)

		first := servicenode.Snapshot{Height: 1}
		if err := store.Write(first); err != nil {
			t.Fatalf("\t%s\tShould be able to write the first snapshot: %s", failed, err)
		}

		second := servicenode.Snapshot{
			Height: 2,
			Nodes: []servicenode.NodeRecord{
				{
					Key:                database.AccountID("0x000000000000000000000000000000000000dd"),
					StakingRequirement: 5000,
					TotalContributed:   2500,
				},
			},
		}
		if err := store.Write(second); err != nil {
			t.Fatalf("\t%s\tShould be able to write the second snapshot: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to write successive snapshots.", success)

		loaded, ok, err := store.Load()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the latest snapshot: %s", failed, err)
		}
		if !ok {
			t.Fatalf("\t%s\tShould report a snapshot was found.", failed)
		}
		t.Logf("\t%s\tShould report a snapshot was found.", success)

		if loaded.Height != 2 {
			t.Fatalf("\t%s\tShould load the most recently written snapshot, got height %d.", failed, loaded.Height)
		}
		t.Logf("\t%s\tShould load the most recently written snapshot.", success)

		if len(loaded.Nodes) != 1 || loaded.Nodes[0].StakingRequirement != 5000 {
			t.Fatalf("\t%s\tShould round-trip node records, got %+v.", failed, loaded.Nodes)
		}
		t.Logf("\t%s\tShould round-trip node records.", success)

		if err := store.Close(); err != nil {
			t.Fatalf("\t%s\tShould be able to close the store: %s", failed, err)
		}
	}
}

func TestStoreLoadEmptyReportsNotFound(t *testing.T) {
	t.Log("Given the need to start a registry from genesis when no snapshot exists yet.")
	{
		path := filepath.Join(t.TempDir(), "servicenode.jsonl")

		store, err := persist.NewStore(path)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open a new store: %s", failed, err)
		}

		_, ok, err := store.Load()
		if err != nil {
			t.Fatalf("\t%s\tShould not error loading an empty store: %s", failed, err)
		}
		if ok {
			t.Fatalf("\t%s\tShould report no snapshot was found in an empty store.", failed)
		}
		t.Logf("\t%s\tShould report no snapshot was found in an empty store.", success)
	}
}
