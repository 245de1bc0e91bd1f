/*
 * rvtrace - Instruction registry.
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
	"sync"
	"sync/atomic"
)

// InsnRecord is interned by effective address and re-used across
// re-translations of the same address. Only the registry's mutex
// guards creation; the six counters below are mutated by atomic
// fetch-add from execution callbacks, never under the registry lock.
type InsnRecord struct {
	Addr   uint64
	Disasm string
	Symbol string

	L1IMiss  atomic.Uint64
	L1DMiss  atomic.Uint64
	L1IInval atomic.Uint64
	L1DInval atomic.Uint64
	L2Miss   atomic.Uint64
	L2Inval  atomic.Uint64
}

func (r *InsnRecord) reset() {
	r.L1IMiss.Store(0)
	r.L1DMiss.Store(0)
	r.L1IInval.Store(0)
	r.L1DInval.Store(0)
	r.L2Miss.Store(0)
	r.L2Inval.Store(0)
}

// Registry interns InsnRecords by effective address. Each record is
// allocated exactly once and owned by the registry for the lifetime of
// the analysis; nothing outside it ever frees one.
type Registry struct {
	mu      sync.Mutex
	byAddr  map[uint64]*InsnRecord
	records []*InsnRecord
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byAddr: make(map[uint64]*InsnRecord)}
}

// Intern returns the InsnRecord for addr, creating it on first sight.
func (r *Registry) Intern(addr uint64, disasm, symbol string) *InsnRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.byAddr[addr]; ok {
		return rec
	}
	rec := &InsnRecord{Addr: addr, Disasm: disasm, Symbol: symbol}
	r.byAddr[addr] = rec
	r.records = append(r.records, rec)
	return rec
}

// Snapshot returns the current set of interned records, in interning
// order.
func (r *Registry) Snapshot() []*InsnRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*InsnRecord, len(r.records))
	copy(out, r.records)
	return out
}

// ResetCounters zeroes every record's miss/invalidation counters,
// without forgetting any interned address.
func (r *Registry) ResetCounters() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, rec := range r.records {
		rec.reset()
	}
}
