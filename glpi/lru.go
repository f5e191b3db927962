// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpi

// This file provides a small LRU cache of per-itemtype field maps.

import (
	"container/list"
	"sync"
)

// fieldMap maps the search option uids of one itemtype to their ids
// and back.  uids are stored without the leading "Itemtype.".
type fieldMap struct {
	Itemtype string
	ByUID    map[string]string
	ByID     map[string]string
}

// lru is a least-recently-used cache of field maps with a fixed
// capacity.  The cache can be safely accessed from multiple
// goroutines.
type lru struct {
	size      int
	lock      sync.Mutex
	evictList *list.List
	index     map[string]*list.Element
}

func newLRU(size int) *lru {
	return &lru{
		size:      size,
		evictList: list.New(),
		index:     make(map[string]*list.Element),
	}
}

// Get retrieves a field map from the cache.  If it is not present,
// calls the fetch function, and if that succeeds, saves the map and
// returns it.  This returns an error only if the map is not present
// and the fetch function returns an error.  Concurrent misses are
// serialized so each itemtype is fetched once.
func (lru *lru) Get(itemtype string, fetch func(string) (*fieldMap, error)) (*fieldMap, error) {
	lru.lock.Lock()
	defer lru.lock.Unlock()

	if element, present := lru.index[itemtype]; present {
		lru.evictList.MoveToBack(element)
		return element.Value.(*fieldMap), nil
	}

	fields, err := fetch(itemtype)
	if err != nil {
		return nil, err
	}
	lru.add(fields)
	return fields, nil
}

// Remove takes a field map out of the cache.  It does nothing if the
// itemtype is not cached.
func (lru *lru) Remove(itemtype string) {
	lru.lock.Lock()
	defer lru.lock.Unlock()

	if element, present := lru.index[itemtype]; present {
		delete(lru.index, itemtype)
		lru.evictList.Remove(element)
	}
}

// add is an internal helper, running under the lock, that adds a new
// field map to the cache.  The itemtype is known to not already exist.
func (lru *lru) add(fields *fieldMap) {
	element := lru.evictList.PushBack(fields)
	lru.index[fields.Itemtype] = element

	for len(lru.index) > lru.size {
		head := lru.evictList.Front()
		evicted := head.Value.(*fieldMap)
		delete(lru.index, evicted.Itemtype)
		lru.evictList.Remove(head)
	}
}
