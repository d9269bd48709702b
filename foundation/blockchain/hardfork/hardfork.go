// Package hardfork tracks the height at which each numbered set of
// consensus rules becomes active, mirroring the reference chain's
// version-gated activation table but with this project's own heights.
package hardfork

// Network identifies which constant table and activation schedule applies.
type Network string

// The set of supported networks.
const (
	Mainnet  Network = "mainnet"
	Testnet  Network = "testnet"
	Stagenet Network = "stagenet"
)

// Entry represents a single row of an activation table: the height at
// which version becomes active, the voting threshold required to lock it
// in, and the time it was activated.
type Entry struct {
	Version   uint32
	Height    uint64
	Threshold uint32
	Time      int64
}

// Schedule is an ordered, per-network table of hard-fork activations.
type Schedule []Entry

// Well-known version numbers referenced by the reward/registry/winner
// rules. ActivationSN is the height-independent version at which the
// service-node subsystem turns on; V12/V17 gate the reward-split and
// contribution-basis rules in §4.A/§4.D/§4.E.
const (
	ActivationSN uint32 = 10
	V12          uint32 = 12
	V17          uint32 = 17
)

var schedules = map[Network]Schedule{
	Mainnet: {
		{Version: 1, Height: 1, Threshold: 0, Time: 1704067200},
		{Version: 2, Height: 5000, Threshold: 0, Time: 1706745600},
		{Version: 9, Height: 120000, Threshold: 0, Time: 1717200000},
		{Version: 10, Height: 150000, Threshold: 0, Time: 1720569600},
		{Version: 12, Height: 250000, Threshold: 0, Time: 1735689600},
		{Version: 17, Height: 400000, Threshold: 0, Time: 1759276800},
	},
	Testnet: {
		{Version: 1, Height: 1, Threshold: 0, Time: 1704067200},
		{Version: 10, Height: 1000, Threshold: 0, Time: 1704153600},
		{Version: 12, Height: 2000, Threshold: 0, Time: 1704240000},
		{Version: 17, Height: 3000, Threshold: 0, Time: 1704326400},
	},
	Stagenet: {
		{Version: 1, Height: 1, Threshold: 0, Time: 1704067200},
	},
}

// For looks up the activation schedule for the given network. An unknown
// network returns the mainnet schedule.
func For(network Network) Schedule {
	if s, exists := schedules[network]; exists {
		return s
	}
	return schedules[Mainnet]
}

// VersionAt returns the highest hard-fork version whose activation height
// is less than or equal to the given height.
func (s Schedule) VersionAt(height uint64) uint32 {
	var version uint32
	for _, entry := range s {
		if entry.Height > height {
			break
		}
		version = entry.Version
	}
	return version
}

// HeightOf returns the activation height of the given version and whether
// it exists in the schedule.
func (s Schedule) HeightOf(version uint32) (uint64, bool) {
	for _, entry := range s {
		if entry.Version == version {
			return entry.Height, true
		}
	}
	return 0, false
}
