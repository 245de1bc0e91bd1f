/*
 * rvtrace - Instruction registry tests.
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

func TestInternReturnsSameRecord(t *testing.T) {
	r := NewRegistry()
	a := r.Intern(0x1000, "addi a0,a0,1", "foo")
	b := r.Intern(0x1000, "addi a0,a0,1", "foo")
	if a != b {
		t.Error("Intern allocated a second record for an already-seen address")
	}
}

func TestInternDistinctAddresses(t *testing.T) {
	r := NewRegistry()
	a := r.Intern(0x1000, "nop", "")
	b := r.Intern(0x1004, "nop", "")
	if a == b {
		t.Error("Intern returned the same record for two distinct addresses")
	}
	if len(r.Snapshot()) != 2 {
		t.Errorf("expected 2 interned records, got %d", len(r.Snapshot()))
	}
}

func TestResetCountersZeroesButKeepsRecords(t *testing.T) {
	r := NewRegistry()
	rec := r.Intern(0x2000, "ld a1,0(a0)", "")
	rec.L1DMiss.Add(5)
	rec.L2Inval.Add(3)

	r.ResetCounters()

	if rec.L1DMiss.Load() != 0 || rec.L2Inval.Load() != 0 {
		t.Error("ResetCounters did not zero all counters")
	}
	if len(r.Snapshot()) != 1 {
		t.Error("ResetCounters should not forget interned addresses")
	}
}
