/*
 * rvtrace - Backward address-dependency walker.
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

// Separator is emitted after each triggering instruction's dependency
// chain.
const Separator = "@@@@@@@@@@@@@@@@@"

// Emitter receives one traced line: an instruction's virtual address and
// disassembly, in emission order. The end of one triggering instruction's
// chain is marked by Walk's separate sep callback, not by the Emitter.
type Emitter func(vaddr uint64, disasm string)

// Walk runs the triggering instruction (the one currently executing,
// already appended to tr's history) through the backward dependency
// search described in §4.5, calling emit for each line and sep after the
// chain completes.
func Walk(tr *Tracer, emit Emitter, sep func()) {
	idx := tr.last()
	if idx < 0 {
		return
	}
	trigger := tr.buf[idx]

	emitLine := func(d InsnDecode) {
		if tr.haveEmitted && tr.lastEmitted == d.VAddr {
			return
		}
		emit(d.VAddr, d.Disasm)
		tr.lastEmitted = d.VAddr
		tr.haveEmitted = true
	}

	emitLine(trigger)
	walkFrom(tr, idx, trigger.Rs1, emitLine)
	sep()
}

// walkFrom searches for the producer of reg strictly before index
// "before", emits it subject to duplicate suppression, and recurses on
// its rs1 then rs2 unless the producer's own address_source is
// rd-is-address (a chain terminator: lui/auipc/jal).
func walkFrom(tr *Tracer, before int, reg int, emitLine func(InsnDecode)) {
	pIdx := tr.findProducer(before, reg)
	if pIdx < 0 {
		return
	}
	producer := tr.buf[pIdx]
	emitLine(producer)

	if producer.AddrSource == AddrRdIsAddress {
		return
	}
	walkFrom(tr, pIdx, producer.Rs1, emitLine)
	walkFrom(tr, pIdx, producer.Rs2, emitLine)
}
