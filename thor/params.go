// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

// Protocol constants.
const (
	// SeedRotationInterval is the number of ticks a selection seed stays valid.
	SeedRotationInterval uint32 = 256
	// SeedWindow is how far back the tick source serves block ids.
	SeedWindow uint32 = 256
	// MinTargetInterval is the floor a target production interval must exceed.
	MinTargetInterval uint32 = 30
	// DefaultSelectionDelay ticks between the seed anchor and the first eligible tick.
	DefaultSelectionDelay uint32 = 1

	// SplitBase is the basis point denominator of beneficiary splits.
	SplitBase uint64 = 10000
	// AdjustmentBase is the parts-per-million base of the difficulty adjustment parameter.
	AdjustmentBase uint64 = 1_000_000
	// Log2Scale is the fixed point scale of lottery logarithms.
	Log2Scale uint64 = 1_000_000

	// DefaultBlockInterval seconds between simulated host blocks.
	DefaultBlockInterval uint64 = 10
)
