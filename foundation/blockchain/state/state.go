// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"os"
	"sync"

	"github.com/ardanlabs/blockchain/foundation/blockchain/checkpoint"
	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockchain/foundation/blockchain/hardfork"
	"github.com/ardanlabs/blockchain/foundation/blockchain/mempool"
	"github.com/ardanlabs/blockchain/foundation/blockchain/peer"
	"github.com/ardanlabs/blockchain/foundation/blockchain/persist"
	"github.com/ardanlabs/blockchain/foundation/blockchain/servicenode"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and transaction sharing.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining() (done func())
	SignalShareTx(blockTx database.BlockTx)
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	MinerAccountID        database.AccountID
	Host                  string
	DBPath                string
	StorageStrategy       string
	SelectStrategy        string
	Network               hardfork.Network
	CheckpointFile        string
	CheckpointDNS         string
	CheckpointDNSResolver string
	ServiceNodeStorePath  string
	KnownPeers            *peer.PeerSet
	EvHandler             EventHandler
}

// State manages the blockchain database.
type State struct {
	minerAccountID database.AccountID
	host           string
	dbPath         string
	network        hardfork.Network
	evHandler      EventHandler
	mu             sync.Mutex
	allowMining    bool

	knownPeers  *peer.PeerSet
	genesis     genesis.Genesis
	mempool     *mempool.Mempool
	db          *database.Database
	registry    *servicenode.Registry
	checkpoints *checkpoint.Set
	snStore     *persist.Store

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Load the genesis file to get starting balances for
	// founders of the block chain.
	gen, err := genesis.Load()
	if err != nil {
		return nil, err
	}

	// Access the storage for the blockchain. The "files" strategy keeps
	// one JSON file per block, which is easier to inspect by hand at the
	// cost of an open/close per read; the default keeps every block
	// appended to a single JSONL file.
	var strg database.Storage
	switch cfg.StorageStrategy {
	case "files":
		if err := os.MkdirAll(cfg.DBPath, 0755); err != nil {
			return nil, err
		}
		strg = database.NewFilesStorage(cfg.DBPath)
	default:
		jsonStrg, err := database.NewJSONStorage(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		strg = jsonStrg
	}

	// Load all existing blocks from storage into memory for processing.
	db, err := database.New(gen, strg, ev)
	if err != nil {
		return nil, err
	}

	// Construct a mempool with the specified sort strategy.
	mp, err := mempool.NewWithStrategy(cfg.SelectStrategy)
	if err != nil {
		return nil, err
	}

	network := cfg.Network
	if network == "" {
		network = hardfork.Mainnet
	}

	registry := servicenode.New(servicenode.Config{Network: network, EvHandler: ev})

	checkpoints := checkpoint.New()
	if cfg.CheckpointFile != "" {
		if _, err := checkpoints.LoadFile(cfg.CheckpointFile); err != nil {
			return nil, err
		}
	}
	if cfg.CheckpointDNS != "" {
		resolver := cfg.CheckpointDNSResolver
		if resolver == "" {
			resolver = "8.8.8.8:53"
		}
		if _, err := checkpoint.LoadDNS(checkpoints, cfg.CheckpointDNS, resolver); err != nil {
			ev("state: load dns checkpoints: %s", err)
		}
	}

	var snStore *persist.Store
	restored := false
	if cfg.ServiceNodeStorePath != "" {
		snStore, err = persist.NewStore(cfg.ServiceNodeStorePath)
		if err != nil {
			return nil, err
		}

		if snap, ok, err := snStore.Load(); err != nil {
			return nil, err
		} else if ok {
			registry.Restore(snap)
			restored = true
		}
	}

	// Without a persisted snapshot, align the registry's height cursor to
	// the next block this chain expects so BlockAdded's height invariant
	// holds going forward. Any register/contribute/deregister transactions
	// inside blocks already on disk before the registry existed are not
	// replayed into it.
	if !restored {
		registry.Restore(servicenode.Snapshot{Height: db.LatestBlock().Header.Number + 1})
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		minerAccountID: cfg.MinerAccountID,
		host:           cfg.Host,
		dbPath:         cfg.DBPath,
		network:        network,
		evHandler:      ev,
		allowMining:    true,

		knownPeers:  cfg.KnownPeers,
		genesis:     gen,
		mempool:     mp,
		db:          db,
		registry:    registry,
		checkpoints: checkpoints,
		snStore:     snStore,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	defer s.db.Close()

	if s.snStore != nil {
		defer s.snStore.Close()
	}

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()

	return nil
}

// currentHardFork returns the hard-fork version active at the next block
// this node would mine or accept.
func (s *State) currentHardFork() uint32 {
	height := s.db.LatestBlock().Header.Number + 1
	return hardfork.For(s.network).VersionAt(height)
}

// IsMiningAllowed reports whether the node is currently permitted to mine
// new blocks. Mining is turned off while a rollback/reorg is in progress.
func (s *State) IsMiningAllowed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.allowMining
}

// Truncate resets the chain both on disk and in memory. This is used to
// correct an identified fork.
func (s *State) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mempool.Truncate()

	if err := s.db.Reset(); err != nil {
		return err
	}

	s.registry.Restore(servicenode.Snapshot{Height: s.db.LatestBlock().Header.Number + 1})

	if s.snStore != nil {
		return s.snStore.Reset()
	}

	return nil
}
