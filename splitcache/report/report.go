/*
 * rvtrace - Split-tag cache text reporting.
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

// Package report renders splitcache's aggregated stats and top-N data as
// the plain-text tables described by the external output schema. It has
// no knowledge of Cache/Core internals, only of the data types splitcache
// already exports.
package report

import (
	"fmt"
	"io"

	"github.com/rcornwell/rvtrace/splitcache"
)

// WriteStats renders the per-core stats table, one row per core plus a
// trailing "sum" row when there is more than one core.
func WriteStats(w io.Writer, rows []splitcache.CoreStats) {
	header := "core #, data accesses, data misses, dmiss rate, dcache inval, insn accesses, insn misses, imiss rate, icache inval"
	if len(rows) > 0 && rows[0].L2Enabled {
		header += ", l2 accesses, l2 misses, l2 miss rate"
	}
	fmt.Fprintln(w, header)

	for _, r := range rows {
		id := fmt.Sprintf("%d", r.CoreID)
		if r.CoreID < 0 {
			id = "sum"
		}
		fmt.Fprintf(w, "%s, %d, %d, %.2f, %d, %d, %d, %.2f, %d",
			id,
			r.DAccesses, r.DMisses, r.DMissRate(), r.DInvals,
			r.IAccesses, r.IMisses, r.IMissRate(), r.IInvals,
		)
		if r.L2Enabled {
			fmt.Fprintf(w, ", %d, %d, %.2f", r.L2Accesses, r.L2Misses, r.L2MissRate())
		}
		fmt.Fprintln(w)
	}
}

// WriteTopN renders one top-N section: a header naming the miss kind,
// then one "address[ (symbol)], count, disassembly" line per entry.
func WriteTopN(w io.Writer, kind string, entries []splitcache.TopEntry) {
	fmt.Fprintf(w, "address, %s misses, instruction\n", kind)
	for _, e := range entries {
		if e.Symbol != "" {
			fmt.Fprintf(w, "0x%08x (%s), %d, %s\n", e.Addr, e.Symbol, e.Count, e.Disasm)
		} else {
			fmt.Fprintf(w, "0x%08x, %d, %s\n", e.Addr, e.Count, e.Disasm)
		}
	}
}

// WriteFull renders the stats table followed by the three top-N
// sections (data, fetch, and — when present — L2), each separated by a
// blank line.
func WriteFull(w io.Writer, rows []splitcache.CoreStats, data, fetch, l2 []splitcache.TopEntry) {
	WriteStats(w, rows)
	fmt.Fprintln(w)
	WriteTopN(w, "data", data)
	fmt.Fprintln(w)
	WriteTopN(w, "fetch", fetch)
	if l2 != nil {
		fmt.Fprintln(w)
		WriteTopN(w, "L2", l2)
	}
}
