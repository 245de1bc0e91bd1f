/*
 * rvtrace - Cache eviction policies.
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

package splitcache

import (
	"fmt"
	"math/rand"
)

// Policy is the eviction-policy contract a Cache dispatches through.
// Replacing the source's function-pointer plumbing (update_hit,
// metadata_init, ...), each policy owns its own per-set metadata shape,
// created once per set at Cache construction.
type Policy interface {
	// newSetMeta allocates the per-set metadata for a set of the given
	// associativity. Called once per set, at Cache construction.
	newSetMeta(assoc int) any

	// victim chooses a block to evict from set. Called only when every
	// block in set is already valid.
	victim(set *CacheSet) int

	// onInstall is called after a block has been filled (whether the
	// block was previously invalid or was just evicted).
	onInstall(set *CacheSet, blk int)

	// onHit is called after a hit on blk.
	onHit(set *CacheSet, blk int)
}

// NewPolicy builds the named policy ("lru", "fifo", or "rand"). seed
// parameterizes the random policy's PRNG so a run is reproducible.
func NewPolicy(name string, seed int64) (Policy, error) {
	switch name {
	case "", "lru":
		return &lruPolicy{}, nil
	case "fifo":
		return &fifoPolicy{}, nil
	case "rand":
		return &randPolicy{rng: rand.New(rand.NewSource(seed))}, nil
	default:
		return nil, fmt.Errorf("unknown replacement policy %q", name)
	}
}

// lruMeta tracks a monotonically increasing priority per block; the
// block with the lowest priority is the least recently used.
type lruMeta struct {
	priority []int
	gen      int
}

type lruPolicy struct{}

func (p *lruPolicy) newSetMeta(assoc int) any {
	return &lruMeta{priority: make([]int, assoc)}
}

func (p *lruPolicy) victim(set *CacheSet) int {
	m := set.meta.(*lruMeta)
	best := 0
	for i := 1; i < len(m.priority); i++ {
		if m.priority[i] < m.priority[best] {
			best = i
		}
	}
	return best
}

func (p *lruPolicy) onInstall(set *CacheSet, blk int) {
	m := set.meta.(*lruMeta)
	m.gen++
	m.priority[blk] = m.gen
}

func (p *lruPolicy) onHit(set *CacheSet, blk int) {
	m := set.meta.(*lruMeta)
	m.gen++
	m.priority[blk] = m.gen
}

// fifoMeta is a queue of block indices, head-first: queue[0] is the most
// recently installed block, queue[len-1] the oldest.
type fifoMeta struct {
	queue []int
}

type fifoPolicy struct{}

func (p *fifoPolicy) newSetMeta(assoc int) any {
	return &fifoMeta{queue: make([]int, 0, assoc)}
}

func (p *fifoPolicy) victim(set *CacheSet) int {
	m := set.meta.(*fifoMeta)
	return m.queue[len(m.queue)-1]
}

func (p *fifoPolicy) onInstall(set *CacheSet, blk int) {
	m := set.meta.(*fifoMeta)
	for i, b := range m.queue {
		if b == blk {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
	m.queue = append([]int{blk}, m.queue...)
}

func (p *fifoPolicy) onHit(set *CacheSet, blk int) {}

type randPolicy struct {
	rng *rand.Rand
}

func (p *randPolicy) newSetMeta(assoc int) any { return nil }

func (p *randPolicy) victim(set *CacheSet) int {
	return p.rng.Intn(len(set.Blocks))
}

func (p *randPolicy) onInstall(set *CacheSet, blk int) {}

func (p *randPolicy) onHit(set *CacheSet, blk int) {}
