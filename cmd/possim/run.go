// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/lottery/builtin"
	"github.com/vechain/lottery/chain"
	"github.com/vechain/lottery/genesis"
	"github.com/vechain/lottery/kv"
	"github.com/vechain/lottery/logdb"
	"github.com/vechain/lottery/lvldb"
	"github.com/vechain/lottery/metric"
	"github.com/vechain/lottery/metrics"
	"github.com/vechain/lottery/runtime"
	"github.com/vechain/lottery/xenv"
)

const (
	mainDBName = "main.db"
	logDBName  = "logs.db"
)

func loadConfig(ctx *cli.Context) (*Config, error) {
	cfg := DefaultConfig()
	if path := ctx.String(configFlag.Name); path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if ctx.IsSet(ticksFlag.Name) {
		cfg.Ticks = uint32(ctx.Uint64(ticksFlag.Name))
	}
	return cfg, cfg.Validate()
}

func openDatabases(dataDir string) (kv.Store, *logdb.LogDB, error) {
	if dataDir == "" {
		logDB, err := logdb.NewMem()
		if err != nil {
			return nil, nil, err
		}
		return lvldb.NewMem(), logDB, nil
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, nil, errors.Wrap(err, "create data dir")
	}
	db, err := lvldb.New(filepath.Join(dataDir, mainDBName), lvldb.Options{
		CacheSize:              128,
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, nil, err
	}
	logDB, err := logdb.New(filepath.Join(dataDir, logDBName))
	if err != nil {
		db.Close()
		return nil, nil, errors.Wrap(err, "open log db")
	}
	return db, logDB, nil
}

// initChain opens the repository, writing the genesis when db holds no
// block after it.
func initChain(db kv.Store, logDB *logdb.LogDB, gene *genesis.Genesis) (*chain.Repository, bool, error) {
	mem := lvldb.NewMem()
	defer mem.Close()
	header, events, err := gene.Build(mem)
	if err != nil {
		return nil, false, err
	}
	repo, err := chain.NewRepository(db, header)
	if err != nil {
		return nil, false, err
	}
	if repo.BestBlock().Number() > 0 {
		return repo, false, nil
	}
	if _, _, err := gene.Build(db); err != nil {
		return nil, false, err
	}
	if err := logDB.Truncate(0); err != nil {
		return nil, false, err
	}
	if err := logDB.Write(header, events); err != nil {
		return nil, false, err
	}
	return repo, true, nil
}

func runAction(ctx *cli.Context) error {
	if err := initLogger(ctx); err != nil {
		return err
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	gene, err := genesis.NewCustomNet(&cfg.Genesis)
	if err != nil {
		return errors.Wrap(err, "genesis")
	}

	metricsAddr := ctx.String(metricsAddrFlag.Name)
	if metricsAddr != "" {
		metrics.InitializePrometheusMetrics()
	}

	dataDir := ctx.String(dataDirFlag.Name)
	db, logDB, err := openDatabases(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()
	defer logDB.Close()

	repo, fresh, err := initChain(db, logDB, gene)
	if err != nil {
		return err
	}
	logger.Info("chain ready", "genesis", hexutil.Encode(gene.ID().Bytes()), "best", repo.BestBlock().Number())

	rt := runtime.New(db, repo, logDB)
	defer rt.Close()
	if err := rt.SetTime(repo.BestBlock().Timestamp() + cfg.BlockInterval); err != nil {
		return err
	}

	sim := NewSimulator(rt, cfg)
	if fresh {
		if err := sim.Setup(); err != nil {
			return err
		}
	}

	var bar *pb.ProgressBar
	if !ctx.Bool(noProgressFlag.Name) {
		bar = pb.New64(int64(cfg.Ticks)).SetMaxWidth(90).Start()
	}

	exitCtx, stop := exitContext()
	defer stop()
	g, gctx := errgroup.WithContext(exitCtx)
	simCtx, simDone := context.WithCancel(gctx)

	g.Go(func() error {
		defer simDone()
		return sim.Run(simCtx, cfg.Ticks, bar)
	})
	g.Go(func() error {
		return sim.Watch(simCtx)
	})
	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           newMetricsMux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-simCtx.Done()
			return srv.Shutdown(context.Background())
		})
		logger.Info("metrics server started", "addr", metricsAddr)
	}

	err = g.Wait()
	if bar != nil {
		bar.Finish()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return printSummary(os.Stdout, rt, sim, cfg, dataDir)
}

func newMetricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler())
	return mux
}

func printSummary(w io.Writer, rt *runtime.Runtime, sim *Simulator, cfg *Config, dataDir string) error {
	best := rt.Repo().BestBlock()
	fmt.Fprintf(w, "best block  #%d %s\n", best.Number(), hexutil.Encode(best.ID().Bytes()))
	fmt.Fprintf(w, "state root  %s\n", hexutil.Encode(best.StateRoot().Bytes()))

	err := rt.View(func(env *xenv.Environment) error {
		registry := builtin.PoS.WithState(env.State(), env.Seeker())
		for i := range cfg.Genesis.Instances {
			index := uint32(i)
			inst, err := registry.Instance(index)
			if err != nil {
				return err
			}
			difficulty, err := registry.GetDifficulty(index)
			if err != nil {
				return err
			}
			balance, err := builtin.RewardPool(cfg.Genesis.Instances[i].Pool).WithState(env.State()).Balance()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "instance %d (%v) productions=%d difficulty=%v pool=%v\n",
				index, inst.Variant, inst.ProductionCount, difficulty, balance)
			for _, c := range sim.Counts(index) {
				fmt.Fprintf(w, "  %v %d\n", c.Owner, c.Count)
			}
		}
		tk := builtin.Token.WithState(env.State())
		for _, p := range cfg.Producers {
			bal, err := tk.BalanceOf(p.Owner)
			if err != nil {
				return err
			}
			staked, err := builtin.Staking.WithState(env.State()).GetStakedBalance(p.Owner, env.BlockContext().Time)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "producer %v balance=%v staked=%v\n", p.Owner, bal, staked)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if dataDir != "" {
		size, err := metric.DirSize(dataDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "data dir    %s (%v)\n", dataDir, size)
	}
	return nil
}
