// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"sync"

	cache "github.com/hashicorp/golang-lru/simplelru"
)

type lru struct {
	mu     sync.Mutex
	lru    *cache.LRU
	loader func(key any) (any, error)
}

func newLRU(maxSize int, loader func(key any) (any, error)) *lru {
	c, err := cache.NewLRU(maxSize, nil)
	if err != nil {
		panic(err)
	}
	return &lru{lru: c, loader: loader}
}

func (l *lru) GetOrLoad(key any) (any, error) {
	l.mu.Lock()
	value, ok := l.lru.Get(key)
	l.mu.Unlock()
	if ok {
		metricCacheHitMiss().AddWithLabel(1, map[string]string{"event": "hit"})
		return value, nil
	}
	metricCacheHitMiss().AddWithLabel(1, map[string]string{"event": "miss"})

	value, err := l.loader(key)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.lru.Add(key, value)
	l.mu.Unlock()
	return value, nil
}
