package quorum_test

import (
	"fmt"
	"testing"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/quorum"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func eligible(n int) []database.AccountID {
	ids := make([]database.AccountID, n)
	for i := 0; i < n; i++ {
		ids[i] = database.AccountID(fmt.Sprintf("0x%040d", i))
	}
	return ids
}

func TestSelectDeterministic(t *testing.T) {
	t.Log("Given the need to select a deterministic quorum for a height.")
	{
		ids := eligible(30)

		state1 := quorum.Select(100, "0xabc123", ids)
		state2 := quorum.Select(100, "0xabc123", ids)

		if len(state1.Quorum) != len(state2.Quorum) {
			t.Fatalf("\t%s\tShould produce quorums of identical size: %d vs %d", failed, len(state1.Quorum), len(state2.Quorum))
		}
		t.Logf("\t%s\tShould produce quorums of identical size.", success)

		for i := range state1.Quorum {
			if state1.Quorum[i] != state2.Quorum[i] {
				t.Fatalf("\t%s\tShould produce an identical quorum ordering for the same seed.", failed)
			}
		}
		t.Logf("\t%s\tShould produce an identical quorum ordering for the same seed.", success)
	}
}

func TestSelectDiffersByHash(t *testing.T) {
	t.Log("Given the need to vary the quorum by block hash.")
	{
		ids := eligible(30)

		state1 := quorum.Select(100, "0xabc123", ids)
		state2 := quorum.Select(100, "0xdef456", ids)

		same := true
		for i := range state1.Quorum {
			if state1.Quorum[i] != state2.Quorum[i] {
				same = false
				break
			}
		}

		if same {
			t.Fatalf("\t%s\tShould produce a different quorum for a different block hash.", failed)
		}
		t.Logf("\t%s\tShould produce a different quorum for a different block hash.", success)
	}
}

func TestSelectBoundedSize(t *testing.T) {
	t.Log("Given the need to bound the quorum and test-set sizes.")
	{
		ids := eligible(5)

		state := quorum.Select(1, "0x01", ids)

		if len(state.Quorum) > quorum.QuorumSize {
			t.Fatalf("\t%s\tShould cap the quorum at QuorumSize, got %d.", failed, len(state.Quorum))
		}
		t.Logf("\t%s\tShould cap the quorum at QuorumSize.", success)

		if len(state.Quorum)+len(state.NodesToTest) > len(ids) {
			t.Fatalf("\t%s\tShould never select more nodes than are eligible.", failed)
		}
		t.Logf("\t%s\tShould never select more nodes than are eligible.", success)
	}
}

func TestCacheEviction(t *testing.T) {
	t.Log("Given the need to evict quorum states outside the retention window.")
	{
		cache := quorum.NewCache()

		cache.Store(quorum.State{Height: 1})
		cache.Store(quorum.State{Height: quorum.RetentionWindow + 100})

		if _, exists := cache.Lookup(1); exists {
			t.Fatalf("\t%s\tShould evict a quorum state once it falls outside the retention window.", failed)
		}
		t.Logf("\t%s\tShould evict a quorum state once it falls outside the retention window.", success)

		if _, exists := cache.Lookup(quorum.RetentionWindow + 100); !exists {
			t.Fatalf("\t%s\tShould retain the most recent quorum state.", failed)
		}
		t.Logf("\t%s\tShould retain the most recent quorum state.", success)
	}
}
