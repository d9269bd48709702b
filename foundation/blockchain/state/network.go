package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/peer"
)

// netClient is used for all outbound peer-to-peer requests made by this
// node. A short timeout keeps a single unreachable peer from stalling the
// sync/mining loops for long.
var netClient = http.Client{Timeout: 5 * time.Second}

// send issues a request against a peer and, when out is non-nil, decodes
// the JSON response body into it.
func send(method string, url string, in any, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, url, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := netClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request to %s failed, status %d", url, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// =============================================================================

// NetRequestPeerStatus asks a peer directly for its current status.
func (s *State) NetRequestPeerStatus(pr peer.Peer) (peer.PeerStatus, error) {
	url := fmt.Sprintf("http://%s/v1/node/status", pr.Host)

	var ps peer.PeerStatus
	if err := send(http.MethodGet, url, nil, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	return ps, nil
}

// NetQueryPeerStatus behaves the same way as NetRequestPeerStatus. It exists
// as a distinct name because the sync workflow and the peer-discovery
// workflow query status for different reasons and may evolve independently.
func (s *State) NetQueryPeerStatus(pr peer.Peer) (peer.PeerStatus, error) {
	return s.NetRequestPeerStatus(pr)
}

// NetRequestAddPeer tells a peer about this node so it can add it to its
// own known peer list.
func (s *State) NetRequestAddPeer(pr peer.Peer) error {
	url := fmt.Sprintf("http://%s/v1/node/peers", pr.Host)

	host := peer.New(s.RetrieveHost())
	return send(http.MethodPost, url, host, nil)
}

// NetRetrievePeerMempool asks a peer for a copy of its mempool.
func (s *State) NetRetrievePeerMempool(pr peer.Peer) ([]database.BlockTx, error) {
	url := fmt.Sprintf("http://%s/v1/tx/list", pr.Host)

	var txs []database.BlockTx
	if err := send(http.MethodGet, url, nil, &txs); err != nil {
		return nil, err
	}

	return txs, nil
}

// NetRetrievePeerBlocks retrieves the blocks this node is missing from the
// specified peer and commits each one in order.
func (s *State) NetRetrievePeerBlocks(pr peer.Peer) error {
	from := s.RetrieveLatestBlock().Header.Number + 1
	url := fmt.Sprintf("http://%s/v1/node/block/list/%d/latest", pr.Host, from)

	var blockFSs []database.BlockFS
	if err := send(http.MethodGet, url, nil, &blockFSs); err != nil {
		return err
	}

	for _, blockFS := range blockFSs {
		block, err := database.ToBlock(blockFS)
		if err != nil {
			return err
		}

		if err := s.ProcessProposedBlock(block); err != nil {
			return fmt.Errorf("block[%d]: %w", block.Header.Number, err)
		}
	}

	return nil
}

// NetShareTx broadcasts a transaction to every known peer.
func (s *State) NetShareTx(tx database.BlockTx) error {
	for _, pr := range s.RetrieveKnownPeers() {
		url := fmt.Sprintf("http://%s/v1/tx/submit", pr.Host)

		if err := send(http.MethodPost, url, tx, nil); err != nil {
			s.evHandler("state: NetShareTx: %s: WARNING: %s", pr.Host, err)
		}
	}

	return nil
}

// NetSendBlockToPeers broadcasts a newly mined block to every known peer.
func (s *State) NetSendBlockToPeers(block database.Block) error {
	blockFS := database.NewBlockFS(block)

	for _, pr := range s.RetrieveKnownPeers() {
		url := fmt.Sprintf("http://%s/v1/node/block/propose", pr.Host)

		if err := send(http.MethodPost, url, blockFS, nil); err != nil {
			s.evHandler("state: NetSendBlockToPeers: %s: WARNING: %s", pr.Host, err)
		}
	}

	return nil
}
