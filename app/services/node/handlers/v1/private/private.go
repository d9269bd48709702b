// Package private implements the node-to-node handlers used for peer
// discovery, mempool gossip, and block propagation.
package private

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ardanlabs/blockchain/business/web/errs"
	"github.com/ardanlabs/blockchain/business/web/metrics"
	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/peer"
	"github.com/ardanlabs/blockchain/foundation/blockchain/state"
	"github.com/ardanlabs/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node-to-node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns this node's current status so a peer can decide whether it
// needs to sync blocks or add this node to its known peer set.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latestBlock := h.State.RetrieveLatestBlock()

	status := peer.PeerStatus{
		LatestBlockHash:   latestBlock.Hash(),
		LatestBlockNumber: latestBlock.Header.Number,
		KnownPeers:        h.State.RetrieveKnownPeers(),
	}

	metrics.QuorumCacheSize.Set(float64(h.State.RetrieveQuorumCacheSize()))

	return web.Respond(ctx, w, status, http.StatusOK)
}

// AddPeer accepts a peer announcement and adds it to the known peer set.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var pr peer.Peer
	if err := json.NewDecoder(r.Body).Decode(&pr); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.State.AddKnownPeer(pr)

	return web.Respond(ctx, w, struct{ Status string }{"OK"}, http.StatusOK)
}

// MempoolList returns this node's mempool so a requesting peer can merge it
// into its own.
func (h Handlers) MempoolList(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempool(), http.StatusOK)
}

// SubmitTx accepts a transaction shared by another node.
func (h Handlers) SubmitTx(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var tx database.BlockTx
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := h.State.UpsertNodeTransaction(tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, struct{ Status string }{"accepted"}, http.StatusOK)
}

// BlocksList returns the requested range of blocks, used by a peer that is
// syncing from this node.
func (h Handlers) BlocksList(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	params := paramsFrom(r)

	from, err := parseBlockParam(params["from"])
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	to, err := parseBlockParam(params["to"])
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByNumber(from, to)

	out := make([]database.BlockFS, len(blocks))
	for i, block := range blocks {
		out[i] = database.NewBlockFS(block)
	}

	return web.Respond(ctx, w, out, http.StatusOK)
}

// ProposeBlock accepts a block mined by another node and, if valid, commits
// it to this node's chain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var blockFS database.BlockFS
	if err := json.NewDecoder(r.Body).Decode(&blockFS); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	block, err := database.ToBlock(blockFS)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := h.State.ProcessProposedBlock(block); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, struct{ Status string }{"accepted"}, http.StatusOK)
}
