// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// possim runs the stake-weighted production lottery on a simulated host chain.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/lottery/log"
)

var (
	version   string
	gitCommit string
)

func main() {
	app := cli.App{
		Version: fmt.Sprintf("%s-%s", version, gitCommit),
		Name:    "possim",
		Usage:   "Stake-weighted block production simulator",
		Flags: []cli.Flag{
			configFlag,
			dataDirFlag,
			ticksFlag,
			verbosityFlag,
			logFormatFlag,
			metricsAddrFlag,
			noProgressFlag,
		},
		Action: runAction,
		Commands: []cli.Command{
			{
				Name:   "config",
				Usage:  "print the default simulation config",
				Action: configAction,
			},
			{
				Name:  "events",
				Usage: "query events stored in the log db of data-dir",
				Flags: []cli.Flag{
					dataDirFlag,
					addressFlag,
					topicFlag,
					fromFlag,
					toFlag,
					limitFlag,
					descFlag,
				},
				Action: eventsAction,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initLogger(ctx *cli.Context) error {
	return log.Setup(ctx.String(logFormatFlag.Name), ctx.Int(verbosityFlag.Name))
}

func exitContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func configAction(ctx *cli.Context) error {
	data, err := DefaultConfig().Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
