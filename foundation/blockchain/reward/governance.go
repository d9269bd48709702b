package reward

import (
	"github.com/ardanlabs/blockchain/foundation/blockchain/database"
	"github.com/ardanlabs/blockchain/foundation/blockchain/hardfork"
)

// scheduleRow describes a single scheduled payout: the
// fixed amount paid at every block once the row's hard-fork version is
// active, and the address it is paid to. Only one row is ever "current"
// per network; earlier rows stop applying once a later row's version
// activates.
type scheduleRow struct {
	Version uint32
	Amount  uint64
	Address database.AccountID
}

// Placeholder addresses. They are compile-time constants; no
// configuration setting overrides them.
const (
	placeholderGovernanceAddr = database.AccountID("0x0000000000000000000000000000000000000001")
	placeholderDevFundAddr    = database.AccountID("0x0000000000000000000000000000000000000002")
)

var governanceSchedules = map[hardfork.Network][]scheduleRow{
	hardfork.Mainnet: {
		{Version: 7, Amount: 1000 * Coin, Address: placeholderGovernanceAddr},
	},
	hardfork.Testnet: {
		{Version: 7, Amount: 1000 * Coin, Address: placeholderGovernanceAddr},
	},
	hardfork.Stagenet: {
		{Version: 7, Amount: 1000 * Coin, Address: placeholderGovernanceAddr},
	},
}

var devFundSchedules = map[hardfork.Network][]scheduleRow{
	hardfork.Mainnet: {
		{Version: hardfork.V17, Amount: 500 * Coin, Address: placeholderDevFundAddr},
	},
	hardfork.Testnet: {
		{Version: hardfork.V17, Amount: 500 * Coin, Address: placeholderDevFundAddr},
	},
	hardfork.Stagenet: {
		{Version: hardfork.V17, Amount: 500 * Coin, Address: placeholderDevFundAddr},
	},
}

// currentRow returns the highest-version row whose version is active at
// hf, or the zero row if none is active yet.
func currentRow(rows []scheduleRow, hf uint32) scheduleRow {
	var current scheduleRow
	for _, row := range rows {
		if row.Version > hf {
			break
		}
		current = row
	}
	return current
}

// GovernanceAmount returns the fixed per-block governance payout active
// at the given hard-fork version, or 0 before the governance subsystem
// activates (hf < 7, per §4.F).
func GovernanceAmount(network hardfork.Network, hf uint32, height uint64) uint64 {
	if hf < 7 {
		return 0
	}
	return currentRow(governanceSchedules[network], hf).Amount
}

// GovernanceAddress returns the payout address for the active governance
// row at the given hard-fork version.
func GovernanceAddress(network hardfork.Network, hf uint32) database.AccountID {
	return currentRow(governanceSchedules[network], hf).Address
}

// DevFundAmount returns the fixed per-block developer-fund payout active
// at the given hard-fork version, or 0 before hf 17 (§4.F).
func DevFundAmount(network hardfork.Network, hf uint32, height uint64) uint64 {
	if hf < hardfork.V17 {
		return 0
	}
	return currentRow(devFundSchedules[network], hf).Amount
}

// DevFundAddress returns the payout address for the active developer-fund
// row at the given hard-fork version.
func DevFundAddress(network hardfork.Network, hf uint32) database.AccountID {
	return currentRow(devFundSchedules[network], hf).Address
}
