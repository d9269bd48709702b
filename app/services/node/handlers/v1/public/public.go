// Package public implements the world-facing handlers for account queries
// and transaction submission.
package public

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	v1 "github.com/ardanlabs/blockchain/business/web/v1"
	"github.com/ardanlabs/blockchain/business/web/errs"
	"github.com/ardanlabs/blockchain/business/web/metrics"
	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/state"
	"github.com/ardanlabs/blockchain/foundation/events"
	"github.com/ardanlabs/blockchain/foundation/nameservice"
	"github.com/ardanlabs/blockchain/foundation/web"
	"github.com/dimfeld/httptreemux/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

// Account returns the current balance/nonce for the specified account.
func (h Handlers) Account(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	params := httptreemux.ContextParams(r.Context())

	accountID, err := database.ToAccountID(params["id"])
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	account, err := h.State.QueryAccounts(accountID)
	if err != nil {
		return errs.NewTrusted(err, http.StatusNotFound)
	}

	return web.Respond(ctx, w, account, http.StatusOK)
}

// Genesis returns the genesis information for the chain.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveGenesis(), http.StatusOK)
}

// HardFork returns the version this node is using for the next block and
// where the service-node and reward-split gates fall in its network's
// activation schedule.
func (h Handlers) HardFork(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveHardForkStatus(), http.StatusOK)
}

// SubmitTx accepts a signed transaction from a wallet and, if valid, adds it
// to the mempool.
func (h Handlers) SubmitTx(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var signedTx database.SignedTx
	if err := json.NewDecoder(r.Body).Decode(&signedTx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := v1.Validate(signedTx.Tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if err := signedTx.Validate(); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	gasPrice := h.State.RetrieveGenesis().GasPrice
	tx := database.NewBlockTx(signedTx, gasPrice, 1)

	if err := h.State.UpsertWalletTransaction(tx); err != nil {
		metrics.AdmissionRejections.WithLabelValues(err.Error()).Inc()
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.recordMempoolMetrics()

	return web.Respond(ctx, w, struct{ Status string }{"accepted"}, http.StatusOK)
}

// Mempool returns the current set of pending transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempool(), http.StatusOK)
}

// ServiceNode returns the registry entry for a bonded node.
func (h Handlers) ServiceNode(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	params := httptreemux.ContextParams(r.Context())

	key, err := database.ToAccountID(params["id"])
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	info, exists := h.State.RetrieveServiceNode(key)
	if !exists {
		return errs.NewTrusted(errors.New("service node not found"), http.StatusNotFound)
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// ServiceNodeCount returns the number of currently bonded nodes.
func (h Handlers) ServiceNodeCount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	count := h.State.RetrieveServiceNodeCount()
	metrics.ServiceNodes.Set(float64(count))

	return web.Respond(ctx, w, struct{ Count int }{count}, http.StatusOK)
}

// recordMempoolMetrics refreshes the mempool gauges after a transaction is
// admitted or rejected.
func (h Handlers) recordMempoolMetrics() {
	metrics.MempoolCount.Set(float64(h.State.RetrieveMempoolCount()))
	metrics.MempoolWeight.Set(float64(h.State.RetrieveMempoolWeight()))
}

// Checkpoint returns the checkpointed block hash for a height, if any.
func (h Handlers) Checkpoint(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	params := httptreemux.ContextParams(r.Context())

	height, err := strconv.ParseUint(params["height"], 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	hash, exists := h.State.RetrieveCheckpoint(height)
	if !exists {
		return errs.NewTrusted(errors.New("height is not checkpointed"), http.StatusNotFound)
	}

	return web.Respond(ctx, w, struct{ Hash string }{hash}, http.StatusOK)
}

// Blocks returns a range of committed blocks.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	params := httptreemux.ContextParams(r.Context())

	from, err := parseBlockParam(params["from"])
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	to, err := parseBlockParam(params["to"])
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByNumber(from, to)
	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// BlocksByAccount returns every committed block touching the given
// account, either as sender or receiver.
func (h Handlers) BlocksByAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	params := httptreemux.ContextParams(r.Context())

	accountID, err := database.ToAccountID(params["id"])
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	blocks, err := h.State.QueryBlocksByAccount(accountID)
	if err != nil {
		return errs.NewTrusted(err, http.StatusInternalServerError)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// =============================================================================

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Events upgrades the connection to a websocket and streams node activity
// (new blocks, registry mutations) to the client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v := web.GetValues(ctx)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	for msg := range ch {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return nil
		}
	}

	return nil
}

// parseBlockParam converts a path segment into a block number, treating the
// literal "latest" as state.QueryLastest.
func parseBlockParam(s string) (uint64, error) {
	if s == "latest" {
		return state.QueryLastest, nil
	}

	return strconv.ParseUint(s, 10, 64)
}
