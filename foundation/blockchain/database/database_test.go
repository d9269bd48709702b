package database_test

import (
	"testing"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/genesis"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// memStorage is a no-op Storage implementation used to keep these tests
// from touching the filesystem.
type memStorage struct{}

func (memStorage) Write(database.BlockFS) error              { return nil }
func (memStorage) GetBlock(uint64) (*database.BlockFS, error) { return nil, nil }
func (memStorage) Foreach() database.Iterator                 { return memIterator{} }
func (memStorage) Close() error                                { return nil }
func (memStorage) Reset() error                                { return nil }

type memIterator struct{}

func (memIterator) Next() (*database.BlockFS, error) { return nil, nil }
func (memIterator) Done() bool                        { return true }

// signerKey is an arbitrary well-formed private key used to produce
// deterministic, verifiably-signed transactions for these tests.
const signerKey = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"

var (
	minerID database.AccountID = "0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8"
	toID    database.AccountID = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"
)

func fromAccount(t *testing.T) database.AccountID {
	pk, err := crypto.HexToECDSA(signerKey)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to load the signing key: %v", failed, err)
	}
	return database.PublicKeyToAccountID(pk.PublicKey)
}

// =============================================================================

func Test_Transactions(t *testing.T) {
	from := fromAccount(t)

	gen := genesis.Genesis{
		MiningReward: 100,
		Balances: map[string]uint64{
			string(from):    1_000,
			string(toID):    0,
			string(minerID): 0,
		},
	}

	db, err := database.New(gen, memStorage{}, nil)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open database: %v", failed, err)
	}
	t.Logf("\t%s\tShould be able to open database.", success)

	block := database.Block{Header: database.BlockHeader{BeneficiaryID: minerID, Number: 1, MiningReward: gen.MiningReward}}

	for i, tip := range []uint64{50, 50} {
		blockTx, err := sign(uint64(i+1), toID, 100, tip)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign transaction.", success)

		if err := db.ApplyTransaction(block, blockTx); err != nil {
			t.Fatalf("\t%s\tShould be able to apply transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to apply transaction.", success)
	}

	db.ApplyMiningReward(block)
	t.Logf("\t%s\tShould be able to apply miner reward.", success)

	accounts := db.CopyAccounts()

	final := map[database.AccountID]uint64{
		from:    700,
		toID:    200,
		minerID: 200,
	}

	for account, expected := range final {
		info, exists := accounts[account]
		if !exists {
			t.Fatalf("\t%s\tShould have account %s in balances.", failed, account)
		}

		if info.Balance != expected {
			t.Logf("\t%s\tgot: %d", failed, info.Balance)
			t.Logf("\t%s\texp: %d", failed, expected)
			t.Fatalf("\t%s\tShould have correct balance for %s.", failed, account)
		}
		t.Logf("\t%s\tShould have correct balance for %s.", success, account)
	}
}

func TestNonceValidation(t *testing.T) {
	from := fromAccount(t)

	gen := genesis.Genesis{
		MiningReward: 100,
		Balances:     map[string]uint64{string(from): 1_000},
	}

	db, err := database.New(gen, memStorage{}, nil)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open database: %v", failed, err)
	}
	t.Logf("\t%s\tShould be able to open database.", success)

	block := database.Block{Header: database.BlockHeader{BeneficiaryID: minerID, Number: 1}}

	first, err := sign(5, toID, 0, 0)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign transaction: %v", failed, err)
	}
	if err := db.ApplyTransaction(block, first); err != nil {
		t.Fatalf("\t%s\tShould be able to apply a transaction with a higher nonce: %v", failed, err)
	}
	t.Logf("\t%s\tShould be able to apply a transaction with a higher nonce.", success)

	second, err := sign(3, toID, 0, 0)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to sign transaction: %v", failed, err)
	}
	if err := db.ApplyTransaction(block, second); err == nil {
		t.Fatalf("\t%s\tShould reject a transaction with a nonce that is too small.", failed)
	}
	t.Logf("\t%s\tShould reject a transaction with a nonce that is too small.", success)
}

// =============================================================================

func sign(nonce uint64, to database.AccountID, value, tip uint64) (database.BlockTx, error) {
	pk, err := crypto.HexToECDSA(signerKey)
	if err != nil {
		return database.BlockTx{}, err
	}

	tx, err := database.NewTx(nonce, to, value, tip, nil)
	if err != nil {
		return database.BlockTx{}, err
	}

	signedTx, err := tx.Sign(pk)
	if err != nil {
		return database.BlockTx{}, err
	}

	return database.NewBlockTx(signedTx, 0, 0), nil
}
