package servicenode

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
)

// RegisterExtra is the JSON payload carried in a database.TxTypeRegister
// transaction's Extra field. The transaction's own ECDSA signature
// (database.BlockTx.FromAccount) authenticates this payload the same way
// it authenticates the rest of the transaction, standing in for the
// reference implementation's separate registration-hash signature.
type RegisterExtra struct {
	PortionsForOperator uint64               `json:"portions_for_operator"`
	Portions            []uint64             `json:"portions"`
	Addresses           []database.AccountID `json:"addresses"`
	Expiration          int64                `json:"expiration"`
	StakingRequirement  uint64               `json:"staking_requirement"`
	BurnedAmount        uint64               `json:"burned_amount,omitempty"`
}

// ContributeExtra is the JSON payload carried in a
// database.TxTypeContribute transaction.
type ContributeExtra struct {
	ServiceNode  database.AccountID `json:"service_node"`
	Amount       uint64             `json:"amount"`
	BurnedAmount uint64             `json:"burned_amount,omitempty"`
}

// DeregisterExtra is the JSON payload carried in a
// database.TxTypeDeregister transaction, voting a node out based on a
// quorum decision recorded at an earlier height.
type DeregisterExtra struct {
	BlockHeight      uint64 `json:"block_height"`
	ServiceNodeIndex int    `json:"service_node_index"`
}

// SwapExtra is the JSON payload carried in a database.TxTypeSwap
// transaction: a memo claiming a cross-chain swap of Amount to Address
// on the named Network. It never touches the node registry; the only
// check is that the claim matches the transaction's own transferred
// value.
type SwapExtra struct {
	Network string             `json:"network"`
	Address database.AccountID `json:"address"`
	Amount  uint64             `json:"amount"`
}

func decodeExtra(extra []byte, out any) error {
	if len(extra) == 0 {
		return fmt.Errorf("servicenode: empty extra payload")
	}
	return json.Unmarshal(extra, out)
}
