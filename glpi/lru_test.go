// Copyright 2026 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package glpi

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func Make(itemtype string) (*fieldMap, error) {
	return &fieldMap{
		Itemtype: itemtype,
		ByUID:    map[string]string{"name": "1"},
		ByID:     map[string]string{"1": "name"},
	}, nil
}

func DoNotMake(itemtype string) (*fieldMap, error) {
	return nil, assert.AnError
}

type LRUAssertions struct {
	*assert.Assertions
	LRU *lru
}

func NewLRUAssertions(t assert.TestingT, size int) *LRUAssertions {
	return &LRUAssertions{
		assert.New(t),
		newLRU(size),
	}
}

// GetName fetches the field map of an itemtype from the cache; if not
// present, it is added.
func (a *LRUAssertions) GetName(itemtype string) {
	fields, err := a.LRU.Get(itemtype, Make)
	if a.NoError(err) && a.NotNil(fields) {
		a.Equal(itemtype, fields.Itemtype)
	}
}

// GetPresent fetches a field map from the cache; if not present, it
// should produce an assertion error.
func (a *LRUAssertions) GetPresent(itemtype string) {
	fields, err := a.LRU.Get(itemtype, DoNotMake)
	if a.NoError(err) && a.NotNil(fields) {
		a.Equal(itemtype, fields.Itemtype)
	}
}

// GetError tries to fetch a field map from the cache, but it should
// not exist, and the resulting error will be caught.
func (a *LRUAssertions) GetError(itemtype string) {
	_, err := a.LRU.Get(itemtype, DoNotMake)
	a.Error(err)
}

// peek returns a cached field map without affecting its recency, or
// nil if absent.
func (lru *lru) peek(itemtype string) *fieldMap {
	lru.lock.Lock()
	defer lru.lock.Unlock()
	if element, present := lru.index[itemtype]; present {
		return element.Value.(*fieldMap)
	}
	return nil
}

// LRUHas asserts that an itemtype is in the cache.
func (a *LRUAssertions) LRUHas(itemtype string) {
	fields := a.LRU.peek(itemtype)
	if a.NotNil(fields) {
		a.Equal(itemtype, fields.Itemtype)
	}
}

// LRUDoesNotHave asserts that an itemtype is not in the cache.
func (a *LRUAssertions) LRUDoesNotHave(itemtype string) {
	a.Nil(a.LRU.peek(itemtype))
}

// TestLRUAutoInsert tests lru.Get() adding absent items.
func TestLRUAutoInsert(t *testing.T) {
	a := NewLRUAssertions(t, 2)

	a.GetName("Computer")
	a.GetName("Monitor")
	a.LRUHas("Computer")
	a.LRUHas("Monitor")

	// A third itemtype evicts the oldest
	a.GetName("Printer")
	a.LRUDoesNotHave("Computer")
	a.LRUHas("Monitor")
	a.LRUHas("Printer")
}

func TestLRUInsertError(t *testing.T) {
	a := NewLRUAssertions(t, 2)

	a.GetName("Computer")
	a.GetName("Monitor")

	// A failed fetch adds nothing, so evicts nothing
	a.GetError("Printer")
	a.LRUHas("Computer")
	a.LRUHas("Monitor")
	a.LRUDoesNotHave("Printer")

	// Present entries never call the fetch function
	a.GetPresent("Computer")
	a.GetPresent("Monitor")
}

// TestLRUOrder tests that getting an item causes it to not get evicted.
func TestLRUOrder(t *testing.T) {
	a := NewLRUAssertions(t, 2)

	a.GetName("Computer")
	a.GetName("Monitor")

	// Do an *additional* get for Computer, so it is more-recently-used
	a.GetName("Computer")

	a.GetName("Printer")
	a.LRUHas("Computer")
	a.LRUDoesNotHave("Monitor")
	a.LRUHas("Printer")
}

// TestLRURemoval does simple tests on the Remove call.
func TestLRURemoval(t *testing.T) {
	a := NewLRUAssertions(t, 2)

	a.GetName("Computer")
	a.LRUHas("Computer")
	a.LRU.Remove("Computer")
	a.LRUDoesNotHave("Computer")

	// Removing something absent is harmless
	a.LRU.Remove("Printer")
	a.LRUDoesNotHave("Printer")

	// Removing a more-recent entry keeps the older one alive
	a.GetName("Computer")
	a.GetName("Monitor")
	a.LRU.Remove("Monitor")
	a.GetName("Printer")
	a.LRUHas("Computer")
	a.LRUDoesNotHave("Monitor")
	a.LRUHas("Printer")
}
