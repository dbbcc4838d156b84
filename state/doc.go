// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages contract storage and emitted events.
// It follows the flow as below:
//
//	          o
//	          |
//	 [ revertable state ]
//	          |
//	   [ stacked map ] -> [ journal ] -> [ playback(staging) ] -> [ kv batch ]
//	          |
//	    [ lru cache ]
//	          |
//	   [ kv store ]
//
// Every write lands in the stacked map, so reverting to a checkpoint drops
// storage writes and events emitted after it.
package state
