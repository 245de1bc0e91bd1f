/*
 * rvtrace - Eviction policy tests.
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

import "testing"

func TestNewPolicyUnknown(t *testing.T) {
	if _, err := NewPolicy("nonesuch", 0); err == nil {
		t.Error("expected an error for an unknown replacement policy")
	}
}

func TestNewPolicyDefaultIsLRU(t *testing.T) {
	p, err := NewPolicy("", 0)
	if err != nil {
		t.Fatalf("NewPolicy: %v", err)
	}
	if _, ok := p.(*lruPolicy); !ok {
		t.Errorf("empty policy name should default to lru, got %T", p)
	}
}

func TestLRUVictimIsLeastRecentlyUsed(t *testing.T) {
	p := &lruPolicy{}
	set := &CacheSet{Blocks: make([]CacheBlock, 3)}
	set.meta = p.newSetMeta(3)

	p.onInstall(set, 0)
	p.onInstall(set, 1)
	p.onInstall(set, 2)
	p.onHit(set, 0) // 0 is now most recently used; 1 is least.

	if v := p.victim(set); v != 1 {
		t.Errorf("expected victim 1, got %d", v)
	}
}

func TestFIFOVictimIsOldestInstall(t *testing.T) {
	p := &fifoPolicy{}
	set := &CacheSet{Blocks: make([]CacheBlock, 3)}
	set.meta = p.newSetMeta(3)

	p.onInstall(set, 0)
	p.onInstall(set, 1)
	p.onInstall(set, 2)
	p.onHit(set, 0) // hits never reorder FIFO.

	if v := p.victim(set); v != 0 {
		t.Errorf("expected victim 0 (oldest install), got %d", v)
	}
}

func TestFIFOReinstallMovesToFront(t *testing.T) {
	p := &fifoPolicy{}
	set := &CacheSet{Blocks: make([]CacheBlock, 2)}
	set.meta = p.newSetMeta(2)

	p.onInstall(set, 0)
	p.onInstall(set, 1)
	p.onInstall(set, 0) // re-installed at block 0: moves back to the front.

	if v := p.victim(set); v != 1 {
		t.Errorf("expected victim 1 after re-install of 0, got %d", v)
	}
}
