// Package servicenode implements the bonded service-node registry: the
// deterministic state machine that applies registration, contribution,
// deregistration, and expiry to per-node state as blocks arrive.
package servicenode

import (
	"errors"

	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
)

// Version tags the shape of a registry entry, in the order features were
// added upstream.
type Version int

// The supported entry versions.
const (
	VersionLegacy Version = iota
	VersionWithSwarm
	VersionPooled
)

// UnassignedSwarm is the swarm id a node holds before it has been placed
// into a swarm by the rebalancer.
const UnassignedSwarm uint64 = 0

// Contribution records a single contributor's stake in a service node.
type Contribution struct {
	Amount   uint64
	Reserved uint64
	Address  database.AccountID
}

// Info is the full record the registry keeps per service node.
type Info struct {
	Version                    Version
	RegistrationHeight         uint64
	LastRewardBlockHeight      uint64
	LastRewardTransactionIndex uint64
	Contributors               []Contribution
	TotalContributed           uint64
	TotalReserved              uint64
	StakingRequirement         uint64
	PortionsForOperator        uint64
	SwarmID                    uint64
	OperatorAddress            database.AccountID
}

// IsValid reports whether the node has received at least as much as was
// reserved for it.
func (info Info) IsValid() bool {
	return info.TotalContributed >= info.TotalReserved
}

// IsFullyFunded reports whether the node has reached its staking
// requirement.
func (info Info) IsFullyFunded() bool {
	return info.TotalContributed >= info.StakingRequirement
}

// clone returns a deep-enough copy of info suitable for journalling as a
// PriorInfo snapshot (the Contributors slice is copied so later mutation
// of the live entry cannot corrupt the journalled snapshot).
func (info Info) clone() Info {
	c := info
	c.Contributors = append([]Contribution{}, info.Contributors...)
	return c
}

// Errors returned by the registry's block-driver entry point.
var (
	ErrHeightInvariantBroken = errors.New("servicenode: block height does not match registry cursor")
)
