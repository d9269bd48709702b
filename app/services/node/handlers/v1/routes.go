// Package v1 wires the public and private handler sets into a web.App.
package v1

import (
	"net/http"

	"github.com/ardanlabs/blockchain/app/services/node/handlers/v1/private"
	"github.com/ardanlabs/blockchain/app/services/node/handlers/v1/public"
	"github.com/ardanlabs/blockchain/foundation/blockchain/state"
	"github.com/ardanlabs/blockchain/foundation/events"
	"github.com/ardanlabs/blockchain/foundation/nameservice"
	"github.com/ardanlabs/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by the v1 routes.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	Evts  *events.Events
}

const group = "v1"

// PublicRoutes binds all the world-facing v1 endpoints to the app.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		NS:    cfg.NS,
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, group, "/accounts/:id", pbl.Account)
	app.Handle(http.MethodGet, group, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodPost, group, "/tx/submit", pbl.SubmitTx)
	app.Handle(http.MethodGet, group, "/tx/list", pbl.Mempool)
	app.Handle(http.MethodGet, group, "/blocks/list/:from/:to", pbl.Blocks)
	app.Handle(http.MethodGet, group, "/blocks/account/:id", pbl.BlocksByAccount)
	app.Handle(http.MethodGet, group, "/events", pbl.Events)
	app.Handle(http.MethodGet, group, "/servicenode/:id", pbl.ServiceNode)
	app.Handle(http.MethodGet, group, "/servicenode/count", pbl.ServiceNodeCount)
	app.Handle(http.MethodGet, group, "/checkpoint/:height", pbl.Checkpoint)
	app.Handle(http.MethodGet, group, "/hardfork", pbl.HardFork)
}

// PrivateRoutes binds all the node-to-node v1 endpoints to the app.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodGet, group, "/node/status", prv.Status)
	app.Handle(http.MethodPost, group, "/node/peers", prv.AddPeer)
	app.Handle(http.MethodGet, group, "/tx/list", prv.MempoolList)
	app.Handle(http.MethodPost, group, "/tx/submit", prv.SubmitTx)
	app.Handle(http.MethodGet, group, "/node/block/list/:from/:to", prv.BlocksList)
	app.Handle(http.MethodPost, group, "/node/block/propose", prv.ProposeBlock)
}
