package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/mempool"
)

// Pool weight policy: the mempool's per-transaction and total weight
// budgets are derived from the genesis block-size target rather than a
// fixed constant, so a chain configured for bigger blocks also carries a
// proportionally bigger pool.
const (
	averageTxWeight    = 256
	poolCapacityFactor = 4
)

func (s *State) poolWeightBudget() (medianWeight, targetWeight uint64) {
	medianWeight = uint64(s.genesis.TransPerBlock) * averageTxWeight
	targetWeight = medianWeight * poolCapacityFactor
	return medianWeight, targetWeight
}

// UpsertWalletTransaction accepts a transaction from a wallet client,
// validates it against the current account state, and if valid, adds it to
// the mempool and signals the other node support goroutines.
func (s *State) UpsertWalletTransaction(tx database.BlockTx) error {
	if err := s.validateTransaction(tx); err != nil {
		return err
	}

	medianWeight, targetWeight := s.poolWeightBudget()
	if _, err := s.mempool.AdmitTx(tx, s.currentHardFork(), medianWeight, targetWeight, false); err != nil {
		return err
	}

	// This node originated the transaction, so there is no stem hop to
	// wait on: it goes straight to the fluff phase the worker's relay
	// maintenance pass keeps re-announcing on a schedule.
	s.mempool.PromoteRelay(tx, mempool.RelayFluff)

	if s.Worker != nil {
		s.Worker.SignalShareTx(tx)
		s.Worker.SignalStartMining()
	}

	return nil
}

// UpsertNodeTransaction accepts a transaction that has been shared by
// another node. It performs the same validation as a wallet submitted
// transaction but does not re-share it, since it already came from a peer.
func (s *State) UpsertNodeTransaction(tx database.BlockTx) error {
	if err := s.validateTransaction(tx); err != nil {
		return err
	}

	medianWeight, targetWeight := s.poolWeightBudget()
	if _, err := s.mempool.AdmitTx(tx, s.currentHardFork(), medianWeight, targetWeight, false); err != nil {
		return err
	}

	// A peer already relayed this one; mark it fluffed without
	// re-announcing it ourselves.
	s.mempool.PromoteRelay(tx, mempool.RelayFluff)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return nil
}

// validateTransaction performs the set of checks a transaction must pass
// before it is accepted into the mempool.
func (s *State) validateTransaction(tx database.BlockTx) error {
	fromID, err := tx.FromAccount()
	if err != nil {
		return fmt.Errorf("invalid signature, %w", err)
	}

	if fromID == tx.ToID {
		return errors.New("transaction invalid, sending money to yourself")
	}

	account, err := s.QueryAccounts(fromID)
	if err != nil {
		return fmt.Errorf("unable to find account, %w", err)
	}

	if tx.Nonce <= account.Nonce {
		return fmt.Errorf("transaction invalid, nonce too small, current %d, provided %d", account.Nonce, tx.Nonce)
	}

	if account.Balance < (tx.Value + tx.Tip) {
		return fmt.Errorf("transaction invalid, insufficient funds, bal %d, needed %d", account.Balance, tx.Value+tx.Tip)
	}

	return nil
}
