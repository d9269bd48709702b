package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockchain/foundation/blockchain/minertx"
	"github.com/ardanlabs/blockchain/foundation/blockchain/reward"
	"github.com/ardanlabs/blockchain/foundation/blockchain/servicenode"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are not enough transactions.
var ErrNoTransactions = errors.New("no transactions in mempool")

// ErrCheckpointMismatch is returned when a block's hash at a
// checkpointed height does not match the recorded checkpoint hash.
var ErrCheckpointMismatch = errors.New("block hash does not match the recorded checkpoint")

// =============================================================================

// MineNewBlock attempts to create a new block with a proper hash that can become
// the next block in the chain.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check mempool count")

	// Are there enough transactions in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW")

	// Fill the block template from the pool, highest fee-per-byte first,
	// up to this chain's per-block weight budget.
	medianWeight, _ := s.poolWeightBudget()
	trans := s.mempool.FillTemplate(medianWeight)

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := database.POW(ctx, database.POWArgs{
		BeneficiaryID:   s.minerAccountID,
		Difficulty:      s.genesis.Difficulty,
		MiningReward:    s.genesis.MiningReward,
		PrevBlock:       s.db.LatestBlock(),
		StateRoot:       s.db.HashState(),
		Trans:           trans,
		HardForkVersion: s.currentHardFork(),
		EvHandler:       s.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: validate and update database")

	// Validate the block and then update the blockchain database.
	if err := s.validateUpdateDatabase(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ValidateProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.Header.PrevBlockHash, block.Hash(), len(block.Trans.Values()))
	defer s.evHandler("state: ValidateProposedBlock: completed: newBlk[%s]", block.Hash())

	// Validate the block and then update the blockchain database.
	if err := s.validateUpdateDatabase(block); err != nil {
		return err
	}

	// If the runMiningOperation function is being executed it needs to stop
	// immediately. The G executing runMiningOperation will not return from the
	// function until done is called. That allows this function to complete
	// its state changes before a new mining operation takes place.
	done := s.Worker.SignalCancelMining()
	defer func() {
		s.evHandler("state: ValidateProposedBlock: signal runMiningOperation to terminate")
		done()
	}()

	return nil
}

// =============================================================================

// validateUpdateDatabase takes the block and validates the block against the
// consensus rules. If the block passes, then the state of the node is updated
// including adding the block to disk.
func (s *State) validateUpdateDatabase(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: validateUpdateDatabase: validate block")

	if err := block.ValidateBlock(s.db.LatestBlock(), s.db.HashState(), s.evHandler); err != nil {
		return err
	}

	if !s.checkpoints.CheckBlock(block.Header.Number, block.Hash()) {
		return ErrCheckpointMismatch
	}

	s.evHandler("state: validateUpdateDatabase: write to disk")

	// Write the new block to the chain on disk.
	if err := s.db.Write(block); err != nil {
		return err
	}
	s.db.UpdateLatestBlock(block)

	s.evHandler("state: validateUpdateDatabase: update accounts and remove from mempool")

	// Process the transactions and update the accounts.
	for _, tx := range block.Trans.Values() {
		s.evHandler("state: validateUpdateDatabase: tx[%s] update and remove", tx)

		// Remove this transaction from the mempool.
		s.mempool.Delete(tx)

		// Apply the balance changes based on this transaction.
		if err := s.db.ApplyTransaction(block, tx); err != nil {
			s.evHandler("state: validateUpdateDatabase: WARNING : %s", err)
			continue
		}
	}

	s.evHandler("state: validateUpdateDatabase: apply mining reward and coinbase")

	// Every node derives the same extended coinbase independently from
	// chain state (the registry's current contents and the block's own
	// header), rather than trusting a claim embedded in the block, so
	// there is nothing here to validate against a miner-supplied split.
	coinbase, winner, err := s.buildCoinbase(block)
	if err != nil {
		s.evHandler("state: validateUpdateDatabase: WARNING : coinbase: %s", err)
		s.db.ApplyMiningReward(block)
	} else {
		s.applyCoinbase(coinbase)
	}

	s.evHandler("state: validateUpdateDatabase: advance service-node registry")

	// Advance the registry by this block: apply register/contribute/
	// deregister transactions, expire stale nodes, cache the quorum for
	// the new height, and bump the winning node's reward order.
	var winnerID database.AccountID
	if winner != nil {
		winnerID = winner.Node
	}
	if err := s.registry.BlockAdded(block.Header.Number, block.Hash(), int64(block.Header.TimeStamp), winnerID, block.Trans.Values()); err != nil {
		s.evHandler("state: validateUpdateDatabase: WARNING : registry: %s", err)
	}

	if s.snStore != nil {
		if err := s.snStore.Write(s.registry.Snapshot()); err != nil {
			s.evHandler("state: validateUpdateDatabase: WARNING : persist: %s", err)
		}
	}

	// Send an event about this new block.
	s.blockEvent(block)

	// Send an event for every registry mutation this block carried.
	s.registryEvents(block)

	return nil
}

// baseRewardFor returns this chain's flat per-block reward, ignoring the
// weight and already-generated-coins inputs the reward formula accepts:
// the host chain has no halving or weight-based base reward to plug in,
// so genesis.MiningReward stands in for it at every height.
func (s *State) baseRewardFor(medianWeight, currentWeight, alreadyGenerated uint64) uint64 {
	return s.genesis.MiningReward
}

// buildCoinbase derives this block's extended coinbase from chain state:
// the registry's current contents decide the service-node winner, and
// the reward calculator decides the split. Every node computes the same
// result from the same inputs, so there is no miner-supplied claim to
// validate against.
func (s *State) buildCoinbase(block database.Block) (minertx.CoinbaseTx, *servicenode.Winner, error) {
	var fee, weight uint64
	for _, tx := range block.Trans.Values() {
		fee += tx.Tip
		weight += mempool.WeightOf(tx)
	}

	medianWeight, _ := s.poolWeightBudget()

	parts, err := reward.Calculate(reward.Inputs{
		MedianBlockWeight:  medianWeight,
		CurrentBlockWeight: weight,
		HardForkVersion:    block.Header.HardForkVersion,
		Height:             block.Header.Number,
		Network:            s.network,
		Fee:                fee,
		BaseRewardFunc:     s.baseRewardFor,
	})
	if err != nil {
		return minertx.CoinbaseTx{}, nil, err
	}

	var winner *servicenode.Winner
	if w, ok := s.registry.SelectWinner(block.Header.Number, parts.ServiceNodeTotal); ok {
		winner = &w
	}

	coinbase, err := minertx.Build(minertx.Inputs{
		Height:             block.Header.Number,
		MedianBlockWeight:  medianWeight,
		CurrentBlockWeight: weight,
		Fee:                fee,
		MinerAddress:       block.Header.BeneficiaryID,
		HardForkVersion:    block.Header.HardForkVersion,
		Network:            s.network,
		BaseRewardFunc:     s.baseRewardFor,
		Winner:             winner,
	})
	if err != nil {
		return minertx.CoinbaseTx{}, nil, err
	}

	return coinbase, winner, nil
}

// applyCoinbase credits every output of an extended coinbase to its
// beneficiary account.
func (s *State) applyCoinbase(coinbase minertx.CoinbaseTx) {
	outputs := make(map[database.AccountID]uint64)
	outputs[coinbase.MinerOutput.Address] += coinbase.MinerOutput.Amount
	for _, out := range coinbase.SNOutputs {
		outputs[out.Address] += out.Amount
	}
	if coinbase.Governance != nil {
		outputs[coinbase.Governance.Address] += coinbase.Governance.Amount
	}
	if coinbase.DevFund != nil {
		outputs[coinbase.DevFund.Address] += coinbase.DevFund.Amount
	}

	s.db.ApplyCoinbaseOutputs(outputs)
}

// registryEvents sends one viewer event per register/contribute/
// deregister/swap transaction in the block, so a connected client can
// track registry activity distinctly from the block's own transaction
// list.
func (s *State) registryEvents(block database.Block) {
	for _, tx := range block.Trans.Values() {
		switch tx.Type {
		case database.TxTypeRegister, database.TxTypeContribute, database.TxTypeDeregister, database.TxTypeSwap:
		default:
			continue
		}

		fromID, err := tx.FromAccount()
		if err != nil {
			continue
		}

		s.evHandler(`viewer: registry: {"height":%d,"type":%q,"account":%q,"to":%q,"value":%d}`,
			block.Header.Number, tx.Type, fromID, tx.ToID, tx.Value)
	}
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockHeaderJSON, err := json.Marshal(block.Header)
	if err != nil {
		blockHeaderJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	blockTransJSON, err := json.Marshal(block.Trans.Values())
	if err != nil {
		blockTransJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"header":%s,"trans":%s}`, block.Hash(), string(blockHeaderJSON), string(blockTransJSON))
}
