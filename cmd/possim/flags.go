// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/lottery/log"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to the simulation yaml, the built-in devnet scenario if empty",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Usage: "directory for databases, in memory if empty",
	}
	ticksFlag = cli.Uint64Flag{
		Name:  "ticks",
		Usage: "number of host blocks to simulate, overrides the config",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	logFormatFlag = cli.StringFlag{
		Name:  "log-format",
		Value: log.FormatTerminal,
		Usage: "log output format (terminal|json|logfmt)",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "serve prometheus metrics on this address, disabled if empty",
	}
	noProgressFlag = cli.BoolFlag{
		Name:  "no-progress",
		Usage: "hide the progress bar",
	}

	// events command
	addressFlag = cli.StringFlag{
		Name:  "address",
		Usage: "emitter address",
	}
	topicFlag = cli.StringSliceFlag{
		Name:  "topic",
		Usage: "topics to match by position, empty matches any",
	}
	fromFlag = cli.Uint64Flag{
		Name:  "from",
		Usage: "first block number",
	}
	toFlag = cli.Uint64Flag{
		Name:  "to",
		Value: uint64(^uint32(0)),
		Usage: "last block number",
	}
	limitFlag = cli.Uint64Flag{
		Name:  "limit",
		Value: 100,
		Usage: "max count of events",
	}
	descFlag = cli.BoolFlag{
		Name:  "desc",
		Usage: "newest first",
	}
)
