// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/lottery/logdb"
	"github.com/vechain/lottery/thor"
)

// parseCriteria builds criteria from an optional address and positional
// topics, where "" or "*" matches any topic.
func parseCriteria(address string, topics []string) (*logdb.EventCriteria, error) {
	var c logdb.EventCriteria
	if address != "" {
		addr, err := thor.ParseAddress(address)
		if err != nil {
			return nil, errors.Wrap(err, "address")
		}
		c.Address = &addr
	}
	if len(topics) > len(c.Topics) {
		return nil, errors.Errorf("at most %d topics", len(c.Topics))
	}
	for i, t := range topics {
		if t == "" || t == "*" {
			continue
		}
		topic, err := thor.ParseBytes32(t)
		if err != nil {
			return nil, errors.Wrapf(err, "topic%d", i)
		}
		c.Topics[i] = &topic
	}
	return &c, nil
}

func eventsAction(ctx *cli.Context) error {
	if err := initLogger(ctx); err != nil {
		return err
	}
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return errors.New("data-dir required")
	}
	criteria, err := parseCriteria(ctx.String(addressFlag.Name), ctx.StringSlice(topicFlag.Name))
	if err != nil {
		return err
	}

	from, to := ctx.Uint64(fromFlag.Name), ctx.Uint64(toFlag.Name)
	if to > uint64(^uint32(0)) {
		to = uint64(^uint32(0))
	}
	filter := &logdb.EventFilter{
		CriteriaSet: []*logdb.EventCriteria{criteria},
		Range:       &logdb.Range{From: uint32(from), To: uint32(to)},
		Options:     &logdb.Options{Limit: ctx.Uint64(limitFlag.Name)},
		Order:       logdb.ASC,
	}
	if ctx.Bool(descFlag.Name) {
		filter.Order = logdb.DESC
	}

	logDB, err := logdb.New(filepath.Join(dataDir, logDBName))
	if err != nil {
		return err
	}
	defer logDB.Close()

	exitCtx, stop := exitContext()
	defer stop()
	events, err := logDB.FilterEvents(exitCtx, filter)
	if err != nil {
		return err
	}
	printEvents(os.Stdout, events)
	return nil
}

func printEvents(w io.Writer, events []*logdb.Event) {
	for _, ev := range events {
		var topics []string
		for _, t := range ev.Topics {
			if t != nil {
				topics = append(topics, hexutil.Encode(t.Bytes()))
			}
		}
		fmt.Fprintf(w, "#%d/%d %v\n  topics: %s\n  data:   %s\n",
			ev.BlockNumber, ev.Index, ev.Address, strings.Join(topics, ","), hexutil.Encode(ev.Data))
	}
}
