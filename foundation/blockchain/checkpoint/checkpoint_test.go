package checkpoint_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/blockchain/foundation/blockchain/checkpoint"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func TestAddIdempotentAndConflicting(t *testing.T) {
	t.Log("Given the need to insert checkpoints without allowing silent corruption.")
	{
		set := checkpoint.New()

		if err := set.Add(100, "aa"); err != nil {
			t.Fatalf("\t%s\tShould be able to add a new checkpoint: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to add a new checkpoint.", success)

		if err := set.Add(100, "aa"); err != nil {
			t.Fatalf("\t%s\tShould treat re-adding the same hash as idempotent: %s", failed, err)
		}
		t.Logf("\t%s\tShould treat re-adding the same hash as idempotent.", success)

		if err := set.Add(100, "bb"); err != checkpoint.ErrConflict {
			t.Fatalf("\t%s\tShould reject a conflicting hash at the same height, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould reject a conflicting hash at the same height.", success)
	}
}

func TestCheckBlock(t *testing.T) {
	t.Log("Given the need to validate a block against a checkpointed height.")
	{
		set := checkpoint.New()
		_ = set.Add(50, "cc")

		if !set.CheckBlock(51, "anything") {
			t.Fatalf("\t%s\tShould pass a height with no checkpoint.", failed)
		}
		t.Logf("\t%s\tShould pass a height with no checkpoint.", success)

		if !set.CheckBlock(50, "cc") {
			t.Fatalf("\t%s\tShould pass a matching checkpointed hash.", failed)
		}
		t.Logf("\t%s\tShould pass a matching checkpointed hash.", success)

		if set.CheckBlock(50, "dd") {
			t.Fatalf("\t%s\tShould fail a mismatched checkpointed hash.", failed)
		}
		t.Logf("\t%s\tShould fail a mismatched checkpointed hash.", success)
	}
}

func TestIsAlternativeBlockAllowed(t *testing.T) {
	t.Log("Given the need to bound how far back an alternative chain may reach.")
	{
		set := checkpoint.New()
		_ = set.Add(100, "aa")
		_ = set.Add(200, "bb")

		if set.IsAlternativeBlockAllowed(250, 150) {
			t.Fatalf("\t%s\tShould reject an alternative that forks before the last checkpoint.", failed)
		}
		t.Logf("\t%s\tShould reject an alternative that forks before the last checkpoint.", success)

		if !set.IsAlternativeBlockAllowed(250, 201) {
			t.Fatalf("\t%s\tShould allow an alternative that forks after the last checkpoint.", failed)
		}
		t.Logf("\t%s\tShould allow an alternative that forks after the last checkpoint.", success)
	}
}

func TestLoadFile(t *testing.T) {
	t.Log("Given the need to load checkpoints from a JSON file.")
	{
		dir := t.TempDir()
		path := filepath.Join(dir, "checkpoints.json")

		doc := `{"hashlines":[{"height":1,"hash":"aa"},{"height":2,"hash":"bb"}]}`
		if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
			t.Fatalf("\t%s\tShould be able to write the test checkpoint file: %s", failed, err)
		}

		set := checkpoint.New()
		n, err := set.LoadFile(path)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the checkpoint file: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to load the checkpoint file.", success)

		if n != 2 {
			t.Fatalf("\t%s\tShould load both entries, got %d.", failed, n)
		}
		t.Logf("\t%s\tShould load both entries.", success)

		if set.Len() != 2 {
			t.Fatalf("\t%s\tShould retain both checkpoints, got %d.", failed, set.Len())
		}
		t.Logf("\t%s\tShould retain both checkpoints.", success)
	}
}
