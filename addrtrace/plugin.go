/*
 * rvtrace - Host wiring for the address-dependency tracer.
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

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rcornwell/rvtrace/config/pluginconfig"
	"github.com/rcornwell/rvtrace/host"
)

// Controller owns the per-vCPU history arenas installed into a host.
type Controller struct {
	tracers []*Tracer
	out     io.Writer
}

// Install builds one Tracer per vCPU and wires translation/execution
// callbacks into h: every instruction is classified and recorded, and
// any instruction whose address_source is rs1-is-address triggers a
// backward dependency walk, streamed to out as it completes.
func Install(h host.Host, args []string, out io.Writer, log *slog.Logger) (*Controller, error) {
	v, err := pluginconfig.Parse(args)
	if err != nil {
		return nil, err
	}
	histCap, err := v.Int("histsize", defaultHistoryCap)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stderr
	}

	ncores := h.VCPUs()
	tracers := make([]*Tracer, ncores)
	for i := range tracers {
		tracers[i] = NewTracer(histCap)
	}
	ctrl := &Controller{tracers: tracers, out: out}

	h.OnTranslate(func(vcpu int, b host.Block) {
		tr := tracers[vcpu%len(tracers)]
		for i := 0; i < b.Len(); i++ {
			insn := b.Insn(i)
			decode := Classify(insn.VAddr, insn.Disasm, log)
			h.OnExec(vcpu, i, func(vcpu int) {
				tr.Record(decode)
				if decode.AddrSource == AddrRs1IsAddress {
					Walk(tr, ctrl.emit, ctrl.separator)
				}
			})
		}
	})

	return ctrl, nil
}

func (c *Controller) emit(vaddr uint64, disasm string) {
	fmt.Fprintf(c.out, "0x%08x %s\n", vaddr, disasm)
}

func (c *Controller) separator() {
	fmt.Fprintln(c.out, Separator)
}
