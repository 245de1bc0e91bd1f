/*
 * rvtrace - Dependency walker tests.
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

// TestWalkAuipcAddiLdChain reproduces the worked example: auipc
// computes a base, addi adjusts it, ld dereferences it. The walk should
// surface ld -> addi -> auipc, terminating at auipc since its
// address_source is rd-is-address.
func TestWalkAuipcAddiLdChain(t *testing.T) {
	tr := NewTracer(16)
	tr.Record(Classify(0x1000, "auipc a0,0x10", nil))
	tr.Record(Classify(0x1004, "addi a0,a0,4", nil))
	tr.Record(Classify(0x1008, "ld a1,0(a0)", nil))

	var lines []uint64
	seps := 0
	Walk(tr, func(vaddr uint64, disasm string) { lines = append(lines, vaddr) }, func() { seps++ })

	want := []uint64{0x1008, 0x1004, 0x1000}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %#v", len(want), len(lines), lines)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d: expected 0x%x, got 0x%x", i, w, lines[i])
		}
	}
	if seps != 1 {
		t.Errorf("expected exactly 1 separator, got %d", seps)
	}
}

func TestWalkDuplicateSuppressionConsecutive(t *testing.T) {
	// A tight loop re-executing the same load with no producer in
	// between: the second burst's trigger repeats the immediately
	// preceding emitted vaddr and should be suppressed, exactly as §4.5
	// specifies for compact loops.
	tr := NewTracer(16)
	tr.Record(Classify(0x2000, "ld a1,0(a0)", nil))
	var first []uint64
	Walk(tr, func(vaddr uint64, disasm string) { first = append(first, vaddr) }, func() {})
	if len(first) != 1 || first[0] != 0x2000 {
		t.Fatalf("expected first burst to emit the trigger once, got %#v", first)
	}

	tr.Record(Classify(0x2000, "ld a1,0(a0)", nil))
	var second []uint64
	Walk(tr, func(vaddr uint64, disasm string) { second = append(second, vaddr) }, func() {})
	if len(second) != 0 {
		t.Errorf("repeated trigger with no intervening emission should be suppressed, got %#v", second)
	}
}

func TestWalkNoProducerEmitsOnlyTrigger(t *testing.T) {
	tr := NewTracer(16)
	tr.Record(Classify(0x2000, "ld a1,0(a0)", nil)) // a0 never produced in this history.

	var lines []uint64
	seps := 0
	Walk(tr, func(vaddr uint64, disasm string) { lines = append(lines, vaddr) }, func() { seps++ })

	if len(lines) != 1 || lines[0] != 0x2000 {
		t.Errorf("expected only the trigger emitted, got %#v", lines)
	}
	if seps != 1 {
		t.Errorf("expected a separator even with no producer found, got %d", seps)
	}
}

func TestWalkSameProducerAcrossTriggersEmittedWhenNotAdjacent(t *testing.T) {
	tr := NewTracer(16)
	tr.Record(Classify(0x1000, "auipc a0,0x10", nil))
	tr.Record(Classify(0x1004, "ld a1,0(a0)", nil))
	Walk(tr, func(vaddr uint64, disasm string) {}, func() {})

	// A second, identical load immediately afterwards: its producer
	// walk finds the same auipc again, but the "immediately preceding
	// emitted vaddr" is now the new trigger at 0x1008, not the earlier
	// auipc, so the producer is emitted again rather than suppressed.
	tr.Record(Classify(0x1008, "ld a1,0(a0)", nil))
	var lines []uint64
	Walk(tr, func(vaddr uint64, disasm string) { lines = append(lines, vaddr) }, func() {})

	if len(lines) != 2 {
		t.Errorf("expected the trigger and its producer both emitted in the new chain, got %#v", lines)
	}
}
