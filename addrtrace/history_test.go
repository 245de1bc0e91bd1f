/*
 * rvtrace - History arena tests.
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

import "testing"

func TestTracerFindProducerNewestFirst(t *testing.T) {
	tr := NewTracer(16)
	tr.Record(InsnDecode{VAddr: 0x1000, Rd: 10}) // producer of a0, older
	tr.Record(InsnDecode{VAddr: 0x1004, Rd: 10}) // producer of a0, newer
	tr.Record(InsnDecode{VAddr: 0x1008, Rd: 11})

	idx := tr.findProducer(tr.last(), 10)
	if idx < 0 || tr.buf[idx].VAddr != 0x1004 {
		t.Errorf("expected the newer producer at 0x1004, got index %d", idx)
	}
}

func TestTracerFindProducerNoMatch(t *testing.T) {
	tr := NewTracer(16)
	tr.Record(InsnDecode{VAddr: 0x1000, Rd: 5})
	if idx := tr.findProducer(tr.last(), 9); idx >= 0 {
		t.Errorf("expected no producer for an unreferenced register, got index %d", idx)
	}
}

func TestTracerFindProducerUnusedRegisterNeverMatches(t *testing.T) {
	tr := NewTracer(16)
	tr.Record(InsnDecode{VAddr: 0x1000, Rd: Unused})
	if idx := tr.findProducer(tr.last(), Unused); idx >= 0 {
		t.Error("Unused should never be treated as a traceable register")
	}
}

func TestTracerCapEvictsOldest(t *testing.T) {
	tr := NewTracer(2)
	tr.Record(InsnDecode{VAddr: 0x1000})
	tr.Record(InsnDecode{VAddr: 0x1004})
	tr.Record(InsnDecode{VAddr: 0x1008})

	if len(tr.buf) != 2 {
		t.Fatalf("expected history capped at 2, got %d", len(tr.buf))
	}
	if tr.buf[0].VAddr != 0x1004 {
		t.Errorf("expected the oldest entry (0x1000) evicted, got %#x first", tr.buf[0].VAddr)
	}
}
