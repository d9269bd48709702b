package mempool_test

import (
	"testing"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/mempool"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func sign(nonce uint64, to string, tip uint64) (database.BlockTx, error) {
	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		return database.BlockTx{}, err
	}

	tx, err := database.NewTx(nonce, database.AccountID(to), 0, tip, nil)
	if err != nil {
		return database.BlockTx{}, err
	}

	signedTx, err := tx.Sign(pk)
	if err != nil {
		return database.BlockTx{}, err
	}

	return database.NewBlockTx(signedTx, 0, 0), nil
}

func TestCRUD(t *testing.T) {
	type table struct {
		name  string
		nonce uint64
		to    string
		tip   uint64
	}

	tt := []table{
		{name: "first", nonce: 1, to: "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32", tip: 10},
		{name: "second", nonce: 2, to: "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4", tip: 50},
		{name: "third", nonce: 3, to: "0xbEE6ACE826eC3DE1B6349888B9151B92522F7F76", tip: 100},
	}

	t.Log("Given the need to validate the mempool api.")
	{
		mp, err := mempool.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a mempool: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to construct a mempool.", success)

		for testID, tst := range tt {
			tx, err := sign(tst.nonce, tst.to, tst.tip)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to sign transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to sign transaction.", success, testID)

			if _, err := mp.Upsert(tx); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to add new transaction: %s", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to add new transaction.", success, testID)
		}

		if got := mp.Count(); got != len(tt) {
			t.Fatalf("\t%s\tShould have %d transactions in the pool, got %d.", failed, len(tt), got)
		}
		t.Logf("\t%s\tShould have %d transactions in the pool.", success, len(tt))

		best := mp.PickBest(1)
		if len(best) != 1 {
			t.Fatalf("\t%s\tShould get back a single best transaction, got %d.", failed, len(best))
		}
		if best[0].Tip != 10 {
			t.Fatalf("\t%s\tShould get back the lowest nonce transaction first, got tip %d.", failed, best[0].Tip)
		}
		t.Logf("\t%s\tShould get back the lowest nonce transaction first.", success)

		mp.Truncate()
		if got := mp.Count(); got != 0 {
			t.Fatalf("\t%s\tShould be able to truncate the mempool, got %d remaining.", failed, got)
		}
		t.Logf("\t%s\tShould be able to truncate the mempool.", success)
	}
}
