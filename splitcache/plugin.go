/*
 * rvtrace - Host wiring for the split-tag cache analysis core.
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
	"encoding/binary"
	"log/slog"
	"sync/atomic"

	"github.com/rcornwell/rvtrace/config/pluginconfig"
	"github.com/rcornwell/rvtrace/host"
)

// Magic opcodes bracketing an instrumentation window: a pair of
// otherwise-unused system-instruction encodings the source reserves for
// telling the analysis core when to start and stop counting.
const (
	MagicStart uint32 = 0xc0102073
	MagicStop  uint32 = 0xc0002073
)

// Controller owns the live cache state installed into a host and exposes
// it for reporting once the host has finished running.
type Controller struct {
	cores    []*Core
	registry *Registry
	active   atomic.Bool
	gated    bool
	Limit    int
}

// Cores returns the per-vCPU cache state, for Snapshot.
func (c *Controller) Cores() []*Core { return c.cores }

// Registry returns the interned per-instruction counters, for TopN.
func (c *Controller) Registry() *Registry { return c.registry }

// Install builds the split-tag cache hierarchy described by args and
// wires it into h's callback surface. When the "magic" option is set,
// the magic opcodes gate the instrumentation window: counting is off
// until MagicStart executes, and each MagicStop turns counting off and
// zeroes the counters of every core's caches and of every interned
// instruction. MagicStop reports nothing before that reset, so the counts
// of a finished window are not kept. Without "magic", counting runs from
// the first instruction.
func Install(h host.Host, args []string, log *slog.Logger) (*Controller, error) {
	v, err := pluginconfig.Parse(args)
	if err != nil {
		return nil, err
	}

	iBlk, err := v.Int("iblksize", 64)
	if err != nil {
		return nil, err
	}
	iAssoc, err := v.Int("iassoc", 8)
	if err != nil {
		return nil, err
	}
	iSize, err := v.Int("icachesize", 16384)
	if err != nil {
		return nil, err
	}
	iTagL, err := v.Int("itaglsize", 53)
	if err != nil {
		return nil, err
	}

	dBlk, err := v.Int("dblksize", 64)
	if err != nil {
		return nil, err
	}
	dAssoc, err := v.Int("dassoc", 8)
	if err != nil {
		return nil, err
	}
	dSize, err := v.Int("dcachesize", 16384)
	if err != nil {
		return nil, err
	}
	dTagL, err := v.Int("dtaglsize", 53)
	if err != nil {
		return nil, err
	}

	l2Blk, err := v.Int("l2blksize", 64)
	if err != nil {
		return nil, err
	}
	l2Assoc, err := v.Int("l2assoc", 16)
	if err != nil {
		return nil, err
	}
	l2Size, err := v.Int("l2cachesize", 2097152)
	if err != nil {
		return nil, err
	}
	l2TagL, err := v.Int("l2taglsize", 45)
	if err != nil {
		return nil, err
	}
	haveL2, err := v.Bool("l2", v.Has("l2blksize") || v.Has("l2assoc") || v.Has("l2cachesize") || v.Has("l2taglsize"))
	if err != nil {
		return nil, err
	}

	ncores, err := v.Int("cores", h.VCPUs())
	if err != nil {
		return nil, err
	}
	if ncores <= 0 {
		ncores = 1
	}

	policyName := v.String("replace", "lru")

	gated, err := v.Bool("magic", false)
	if err != nil {
		return nil, err
	}

	limit, err := v.Int("limit", 32)
	if err != nil {
		return nil, err
	}

	iGeom := Geometry{CacheSize: iSize, BlkSize: iBlk, Assoc: iAssoc, TagLSize: iTagL}
	iSets, err := pluginconfig.ValidateGeometry("icache", iSize, iBlk, iAssoc)
	if err != nil {
		return nil, err
	}
	dGeom := Geometry{CacheSize: dSize, BlkSize: dBlk, Assoc: dAssoc, TagLSize: dTagL}
	dSets, err := pluginconfig.ValidateGeometry("dcache", dSize, dBlk, dAssoc)
	if err != nil {
		return nil, err
	}
	var l2Geom Geometry
	var l2Sets int
	if haveL2 {
		l2Geom = Geometry{CacheSize: l2Size, BlkSize: l2Blk, Assoc: l2Assoc, TagLSize: l2TagL}
		l2Sets, err = pluginconfig.ValidateGeometry("l2cache", l2Size, l2Blk, l2Assoc)
		if err != nil {
			return nil, err
		}
	}

	ctrl := &Controller{registry: NewRegistry(), gated: gated, Limit: limit}
	if !gated {
		ctrl.active.Store(true)
	}

	cores := make([]*Core, ncores)
	for i := 0; i < ncores; i++ {
		iPolicy, err := NewPolicy(policyName, int64(i))
		if err != nil {
			return nil, err
		}
		dPolicy, err := NewPolicy(policyName, int64(i)+int64(ncores))
		if err != nil {
			return nil, err
		}
		core := &Core{
			ID:  i,
			L1I: New(iGeom, iSets, iPolicy),
			L1D: New(dGeom, dSets, dPolicy),
		}
		if haveL2 {
			l2Policy, err := NewPolicy(policyName, int64(i)+int64(2*ncores))
			if err != nil {
				return nil, err
			}
			core.L2 = New(l2Geom, l2Sets, l2Policy)
		}
		cores[i] = core
	}
	ctrl.cores = cores

	h.OnTranslate(func(vcpu int, b host.Block) {
		core := cores[vcpu%len(cores)]
		for i := 0; i < b.Len(); i++ {
			insn := b.Insn(i)
			rec := ctrl.registry.Intern(insn.VAddr, insn.Disasm, insn.Symbol)
			ctrl.wireInsn(h, vcpu, i, insn, rec, core)
		}
	})
	h.OnExit(func() {
		log.Info("split-tag cache analysis complete")
	})

	return ctrl, nil
}

func (c *Controller) wireInsn(h host.Host, vcpu, idx int, insn host.Insn, rec *InsnRecord, core *Core) {
	opcode := binary.LittleEndian.Uint32(insn.Opcode[:])

	if c.gated {
		switch opcode {
		case MagicStart:
			h.OnExec(vcpu, idx, func(vcpu int) { c.active.Store(true) })
			return
		case MagicStop:
			h.OnExec(vcpu, idx, func(vcpu int) {
				c.active.Store(false)
				c.registry.ResetCounters()
				for _, cc := range c.cores {
					cc.L1I.Reset()
					cc.L1D.Reset()
					if cc.L2 != nil {
						cc.L2.Reset()
					}
				}
			})
			return
		}
	}

	fetchAddr := insn.VAddr
	if h.SystemMode() {
		fetchAddr = insn.HostPtr
	}
	h.OnExec(vcpu, idx, func(vcpu int) {
		if !c.active.Load() {
			return
		}
		res := core.AccessFetch(fetchAddr)
		if res.L1Miss {
			rec.L1IMiss.Add(1)
		}
		if res.L1Inval {
			rec.L1IInval.Add(1)
		}
		if res.L2Present {
			if res.L2Miss {
				rec.L2Miss.Add(1)
			}
			if res.L2Inval {
				rec.L2Inval.Add(1)
			}
		}
	})

	h.OnMemAccess(vcpu, idx, func(vcpu int, acc host.MemAccess) {
		if !c.active.Load() {
			return
		}
		if acc.IsIO {
			return
		}
		addr := acc.VAddr
		if acc.HasHW {
			addr = acc.HWAddr
		}
		res := core.AccessData(addr)
		if res.L1Miss {
			rec.L1DMiss.Add(1)
		}
		if res.L1Inval {
			rec.L1DInval.Add(1)
		}
		if res.L2Present {
			if res.L2Miss {
				rec.L2Miss.Add(1)
			}
			if res.L2Inval {
				rec.L2Inval.Add(1)
			}
		}
	})
}
