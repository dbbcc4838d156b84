// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/lottery/block"
	"github.com/vechain/lottery/kv"
	"github.com/vechain/lottery/thor"
)

const (
	hdrBucket   = kv.Bucket("chain.hdr")   // block id => header
	indexBucket = kv.Bucket("chain.idx")   // block number => block id
	propBucket  = kv.Bucket("chain.props") // property named blocks such as best block

	idCacheSize = 1024
)

var (
	errNotFound    = errors.New("not found")
	bestBlockIDKey = []byte("best-block-id")
)

// Repository stores the headers of the linear host chain and serves block
// ids as selection seeds.
//
// It's thread-safe.
type Repository struct {
	db      kv.Store
	genesis *block.Header
	best    atomic.Value
	addMu   sync.Mutex

	ids *lru // block number => block id
}

// NewRepository create an instance of repository. The genesis header is
// stored when db is empty, otherwise it must match the stored one.
func NewRepository(db kv.Store, genesis *block.Header) (*Repository, error) {
	if genesis.Number() != 0 {
		return nil, errors.New("genesis number != 0")
	}
	repo := &Repository{
		db:      db,
		genesis: genesis,
	}
	repo.ids = newLRU(idCacheSize, func(key any) (any, error) {
		return repo.loadBlockID(key.(uint32))
	})

	val, err := propBucket.NewGetter(db).Get(bestBlockIDKey)
	if err != nil {
		if !db.IsNotFound(err) {
			return nil, err
		}
		if err := repo.saveHeader(genesis); err != nil {
			return nil, err
		}
		return repo, nil
	}

	existing, err := repo.loadBlockID(0)
	if err != nil {
		return nil, errors.Wrap(err, "get existing genesis id")
	}
	if existing != genesis.ID() {
		return nil, errors.New("genesis mismatch")
	}
	best, err := repo.GetBlockHeader(thor.BytesToBytes32(val))
	if err != nil {
		return nil, errors.Wrap(err, "get best block")
	}
	repo.setBest(best)
	return repo, nil
}

// GenesisBlock returns genesis block header.
func (r *Repository) GenesisBlock() *block.Header {
	return r.genesis
}

// BestBlock returns the newest block.
func (r *Repository) BestBlock() *block.Header {
	return r.best.Load().(*block.Header)
}

func (r *Repository) setBest(h *block.Header) {
	r.best.Store(h)
	metricBestBlock().Set(int64(h.Number()))
}

func numberKey(num uint32) []byte {
	var key [4]byte
	binary.BigEndian.PutUint32(key[:], num)
	return key[:]
}

func (r *Repository) saveHeader(h *block.Header) error {
	data, err := rlp.EncodeToBytes(h)
	if err != nil {
		return err
	}
	id := h.ID()
	batch := r.db.NewBatch()
	if err := hdrBucket.NewPutter(batch).Put(id[:], data); err != nil {
		return err
	}
	if err := indexBucket.NewPutter(batch).Put(numberKey(h.Number()), id[:]); err != nil {
		return err
	}
	if err := propBucket.NewPutter(batch).Put(bestBlockIDKey, id[:]); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "write block")
	}
	r.setBest(h)
	return nil
}

// AddBlock appends h on top of the best block.
func (r *Repository) AddBlock(h *block.Header) error {
	r.addMu.Lock()
	defer r.addMu.Unlock()

	best := r.BestBlock()
	if h.ParentID() != best.ID() {
		return errors.Errorf("parent %v is not the best block %v", h.ParentID(), best.ID())
	}
	if h.Timestamp() < best.Timestamp() {
		return errors.New("block timestamp goes backwards")
	}
	return r.saveHeader(h)
}

// GetBlockHeader get block header by id.
func (r *Repository) GetBlockHeader(id thor.Bytes32) (*block.Header, error) {
	data, err := hdrBucket.NewGetter(r.db).Get(id[:])
	if err != nil {
		if r.db.IsNotFound(err) {
			return nil, errNotFound
		}
		return nil, err
	}
	var h block.Header
	if err := rlp.DecodeBytes(data, &h); err != nil {
		return nil, errors.Wrap(err, "decode header")
	}
	return &h, nil
}

func (r *Repository) loadBlockID(num uint32) (thor.Bytes32, error) {
	data, err := indexBucket.NewGetter(r.db).Get(numberKey(num))
	if err != nil {
		if r.db.IsNotFound(err) {
			return thor.Bytes32{}, errNotFound
		}
		return thor.Bytes32{}, err
	}
	return thor.BytesToBytes32(data), nil
}

// GetBlockID returns the id of block num. Only the last 256 blocks are
// served, counted from the block being built on top of the best one.
func (r *Repository) GetBlockID(num uint32) (thor.Bytes32, error) {
	best := r.BestBlock().Number()
	if num > best {
		return thor.Bytes32{}, errNotFound
	}
	if best+1-num > thor.SeedWindow {
		return thor.Bytes32{}, errNotFound
	}
	id, err := r.ids.GetOrLoad(num)
	if err != nil {
		return thor.Bytes32{}, err
	}
	return id.(thor.Bytes32), nil
}

// IsNotFound returns if an error means not found.
func (r *Repository) IsNotFound(err error) bool {
	return errors.Is(err, errNotFound)
}
