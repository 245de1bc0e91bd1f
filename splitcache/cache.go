/*
 * rvtrace - Split-tag set-associative cache.
 *
 * Copyright 2026, the rvtrace authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package splitcache implements a multi-level, multi-core cache simulator
// with a split-tag addressing scheme: the conventional cache tag is
// divided into a per-set high tag and a per-block low tag. Any change to
// a set's high tag invalidates every block in that set at once.
package splitcache

import (
	"fmt"
	"math/bits"
	"sync"
)

// CacheBlock is one line inside a set.
type CacheBlock struct {
	LowTag int
	Valid  bool
}

// CacheSet holds the blocks that share a high tag, plus whatever
// eviction-policy metadata that policy needs for this set.
type CacheSet struct {
	HighTag    uint64
	hasHighTag bool
	Blocks     []CacheBlock
	meta       any
}

// Geometry describes the address-decomposition parameters of one cache.
type Geometry struct {
	CacheSize int
	BlkSize   int
	Assoc     int
	TagLSize  int // low-tag width in bits; 0 degenerates to a single low tag.
}

// Access-status bits returned by Cache.Access.
const (
	StatusMiss  = 1 << 0 // the access missed.
	StatusInval = 1 << 1 // the access caused a set-wide invalidation.
)

// Cache is one split-tag, set-associative cache instance: an L1-I, an
// L1-D, or an L2. Each instance owns a dedicated mutex; a caller holds at
// most one Cache's mutex at a time.
type Cache struct {
	mu sync.Mutex

	numSets  int
	assoc    int
	blkShift uint
	setBits  uint
	tagLBits uint

	sets   []CacheSet
	policy Policy

	accesses      uint64
	misses        uint64
	invalidations uint64
}

// New builds a Cache from a validated Geometry. numSets is derived by the
// caller via pluginconfig.ValidateGeometry and passed in alongside the
// geometry so New never has to re-derive or re-validate it.
func New(geom Geometry, numSets int, policy Policy) *Cache {
	c := &Cache{
		numSets:  numSets,
		assoc:    geom.Assoc,
		blkShift: uint(bits.TrailingZeros(uint(geom.BlkSize))),
		setBits:  uint(bits.TrailingZeros(uint(numSets))),
		tagLBits: uint(geom.TagLSize),
		sets:     make([]CacheSet, numSets),
		policy:   policy,
	}
	for i := range c.sets {
		c.sets[i].Blocks = make([]CacheBlock, geom.Assoc)
		c.sets[i].meta = policy.newSetMeta(geom.Assoc)
	}
	return c
}

// decompose splits an address into its high tag, low tag, and set index,
// per §4.1: block offset, then set index, then low tag, then high tag,
// from low bits to high.
func (c *Cache) decompose(addr uint64) (highTag uint64, lowTag int, setIdx int) {
	a := addr >> c.blkShift
	if c.setBits > 0 {
		setIdx = int(a & ((1 << c.setBits) - 1))
		a >>= c.setBits
	}
	if c.tagLBits > 0 {
		lowTag = int(a & ((1 << c.tagLBits) - 1))
		a >>= c.tagLBits
	}
	highTag = a
	return highTag, lowTag, setIdx
}

// Access performs a lookup for addr, installing a block on a miss, and
// returns the 2-bit status described by StatusMiss/StatusInval.
func (c *Cache) Access(addr uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.accesses++
	high, low, setIdx := c.decompose(addr)
	set := &c.sets[setIdx]

	if !set.hasHighTag || set.HighTag != high {
		status := StatusMiss
		if set.hasHighTag {
			// A defined high tag is changing out from under the set: every
			// block it holds is now stale. The set's very first high-tag
			// assignment below is not an invalidation, just a cold fill.
			c.invalidations++
			status |= StatusInval
		}
		for i := range set.Blocks {
			set.Blocks[i].Valid = false
		}
		set.HighTag = high
		set.hasHighTag = true
		c.misses++
		c.install(set, low)
		return status
	}

	for i := range set.Blocks {
		if set.Blocks[i].Valid && set.Blocks[i].LowTag == low {
			c.policy.onHit(set, i)
			return 0
		}
	}

	c.misses++
	c.install(set, low)
	return StatusMiss
}

// install chooses a block to fill with low, preferring an invalid block
// (lowest index) and falling back to the configured eviction policy.
func (c *Cache) install(set *CacheSet, low int) {
	for i := range set.Blocks {
		if !set.Blocks[i].Valid {
			set.Blocks[i].Valid = true
			set.Blocks[i].LowTag = low
			c.policy.onInstall(set, i)
			return
		}
	}
	victim := c.policy.victim(set)
	set.Blocks[victim].Valid = true
	set.Blocks[victim].LowTag = low
	c.policy.onInstall(set, victim)
}

// Stats returns the running totals: accesses, misses, invalidations.
func (c *Cache) Stats() (accesses, misses, invalidations uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accesses, c.misses, c.invalidations
}

// Reset zeroes the running totals, leaving installed blocks untouched.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accesses, c.misses, c.invalidations = 0, 0, 0
}

func (g Geometry) String() string {
	return fmt.Sprintf("size=%d blksize=%d assoc=%d taglsize=%d", g.CacheSize, g.BlkSize, g.Assoc, g.TagLSize)
}
