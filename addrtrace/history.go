/*
 * rvtrace - Per-vCPU execution history.
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

package addrtrace

// defaultHistoryCap bounds a single vCPU's retained history. The source
// keeps an unbounded intrusive linked list per §9; this cap keeps a long
// replay's memory use flat while comfortably covering any realistic
// dependency chain, which in practice never walks back more than a
// handful of instructions.
const defaultHistoryCap = 4096

// Tracer owns one vCPU's execution history as a flat, growable arena
// instead of the source's intrusive linked list (§9's redesign): newest
// entries are appended, and the walker scans backward from the end.
// A Tracer is only ever touched by the single host thread driving its
// vCPU, so it needs no lock of its own.
type Tracer struct {
	buf []InsnDecode
	cap int

	lastEmitted uint64
	haveEmitted bool
}

// NewTracer builds an empty Tracer with room for cap history entries
// (defaultHistoryCap if cap <= 0).
func NewTracer(cap int) *Tracer {
	if cap <= 0 {
		cap = defaultHistoryCap
	}
	return &Tracer{cap: cap}
}

// Record appends d to the history, evicting the oldest entry once the
// Tracer is at capacity.
func (tr *Tracer) Record(d InsnDecode) {
	if len(tr.buf) >= tr.cap {
		copy(tr.buf, tr.buf[1:])
		tr.buf = tr.buf[:len(tr.buf)-1]
	}
	tr.buf = append(tr.buf, d)
}

// findProducer searches newer-to-older, before index "before" (exclusive),
// for the first entry whose Rd equals reg, returning its index or -1.
func (tr *Tracer) findProducer(before int, reg int) int {
	if reg == Unused {
		return -1
	}
	for i := before - 1; i >= 0; i-- {
		if tr.buf[i].Rd == reg {
			return i
		}
	}
	return -1
}

// last returns the index of the most recently recorded entry, or -1 if
// the history is empty.
func (tr *Tracer) last() int {
	return len(tr.buf) - 1
}
