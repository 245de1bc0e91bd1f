/*
 * rvtrace - Trace-file replay harness.
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

// Package replay drives a host.Host implementation purely in-process
// from a line-oriented trace file, so both analysis cores can run and be
// tested end-to-end without a real emulator attached.
//
// Trace file grammar, one directive per line, blank lines and lines
// starting with '#' ignored:
//
//	BLOCK <vcpu>
//	INSN <vaddr-hex> <hostptr-hex> <opcode-hex> <symbol-or-{}> <disasm...>
//	EXEC <vcpu>
//	MEM <vcpu> <vaddr-hex> <hwaddr-hex-or-{}> <io 0|1> <store 0|1>
//	END
//
// A BLOCK line starts a new translation block for a vCPU; subsequent
// INSN lines belong to it until the next BLOCK, EXEC, MEM, or END line.
// EXEC/MEM lines replay execution against the most recently translated
// block, by position: the Nth EXEC/MEM line since the last BLOCK fires
// the callbacks registered for that block's Nth instruction.
package replay

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rcornwell/rvtrace/host"
)

type traceBlock struct {
	insns []host.Insn
}

func (b *traceBlock) Len() int             { return len(b.insns) }
func (b *traceBlock) Insn(i int) host.Insn { return b.insns[i] }

// TraceHost implements host.Host by replaying a trace file in-process.
type TraceHost struct {
	system bool
	vcpus  int

	onTranslate func(vcpu int, b host.Block)
	onExit      func()

	// execFns/memFns are keyed by (vcpu, insnIndex), matching the
	// registration shape the cores use.
	execFns map[[2]int]func(int)
	memFns  map[[2]int]func(int, host.MemAccess)

	// translated records, per block, whether it has already been handed
	// to onTranslate: a block is flushed lazily, on the first EXEC/MEM
	// that references it, since the trace grammar has no explicit
	// end-of-block marker.
	translated map[*traceBlock]bool
}

// New builds a TraceHost for a system of vcpus virtual CPUs. system
// selects whether fetches resolve through the host-pointer column.
func New(vcpus int, system bool) *TraceHost {
	if vcpus <= 0 {
		vcpus = 1
	}
	return &TraceHost{
		vcpus:      vcpus,
		system:     system,
		execFns:    make(map[[2]int]func(int)),
		memFns:     make(map[[2]int]func(int, host.MemAccess)),
		translated: make(map[*traceBlock]bool),
	}
}

func (h *TraceHost) OnTranslate(fn func(vcpu int, b host.Block)) { h.onTranslate = fn }
func (h *TraceHost) OnExec(vcpu, idx int, fn func(int))          { h.execFns[[2]int{vcpu, idx}] = fn }
func (h *TraceHost) OnMemAccess(vcpu, idx int, fn func(int, host.MemAccess)) {
	h.memFns[[2]int{vcpu, idx}] = fn
}
func (h *TraceHost) OnExit(fn func()) { h.onExit = fn }
func (h *TraceHost) SystemMode() bool { return h.system }
func (h *TraceHost) VCPUs() int       { return h.vcpus }

// Run reads trace directives from r until EOF or an "END" line, driving
// the registered callbacks as it goes. A malformed line is a fatal,
// descriptive error; Run stops at the first one.
func (h *TraceHost) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)

	var curVCPU int
	var curBlock *traceBlock
	execCount := make(map[int]int)
	memCount := make(map[int]int)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "BLOCK":
			vcpu, err := parseInt(fields, 1, lineNo)
			if err != nil {
				return err
			}
			curVCPU = vcpu
			curBlock = &traceBlock{}
			execCount[vcpu] = 0
			memCount[vcpu] = 0

		case "INSN":
			if curBlock == nil {
				return fmt.Errorf("replay line %d: INSN with no active BLOCK", lineNo)
			}
			insn, err := parseInsn(fields, lineNo)
			if err != nil {
				return err
			}
			curBlock.insns = append(curBlock.insns, insn)

		case "EXEC":
			if err := h.flushBlock(curVCPU, curBlock); err != nil {
				return err
			}
			vcpu, err := parseInt(fields, 1, lineNo)
			if err != nil {
				return err
			}
			idx := execCount[vcpu]
			execCount[vcpu]++
			if fn, ok := h.execFns[[2]int{vcpu, idx}]; ok {
				fn(vcpu)
			}

		case "MEM":
			if err := h.flushBlock(curVCPU, curBlock); err != nil {
				return err
			}
			acc, vcpu, err := parseMem(fields, lineNo)
			if err != nil {
				return err
			}
			idx := memCount[vcpu]
			memCount[vcpu]++
			if fn, ok := h.memFns[[2]int{vcpu, idx}]; ok {
				fn(vcpu, acc)
			}

		case "END":
			if h.onExit != nil {
				h.onExit()
			}
			return scanner.Err()

		default:
			return fmt.Errorf("replay line %d: unknown directive %q", lineNo, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if h.onExit != nil {
		h.onExit()
	}
	return nil
}

func (h *TraceHost) flushBlock(vcpu int, b *traceBlock) error {
	if b == nil {
		return fmt.Errorf("EXEC/MEM with no active BLOCK")
	}
	if !h.translated[b] {
		h.translated[b] = true
		if h.onTranslate != nil {
			h.onTranslate(vcpu, b)
		}
	}
	return nil
}

func parseInt(fields []string, i int, lineNo int) (int, error) {
	if i >= len(fields) {
		return 0, fmt.Errorf("replay line %d: missing field %d", lineNo, i)
	}
	n, err := strconv.Atoi(fields[i])
	if err != nil {
		return 0, fmt.Errorf("replay line %d: %q is not an integer", lineNo, fields[i])
	}
	return n, nil
}

func parseHex(s string) (uint64, bool, error) {
	if s == "{}" {
		return 0, false, nil
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func parseInsn(fields []string, lineNo int) (host.Insn, error) {
	// INSN <vaddr-hex> <hostptr-hex> <opcode-hex> <symbol-or-{}> <disasm...>
	if len(fields) < 6 {
		return host.Insn{}, fmt.Errorf("replay line %d: malformed INSN", lineNo)
	}
	vaddr, _, err := parseHex(fields[1])
	if err != nil {
		return host.Insn{}, fmt.Errorf("replay line %d: bad vaddr: %v", lineNo, err)
	}
	hostPtr, _, err := parseHex(fields[2])
	if err != nil {
		return host.Insn{}, fmt.Errorf("replay line %d: bad hostptr: %v", lineNo, err)
	}
	opcodeVal, _, err := parseHex(fields[3])
	if err != nil {
		return host.Insn{}, fmt.Errorf("replay line %d: bad opcode: %v", lineNo, err)
	}
	symbol := fields[4]
	if symbol == "{}" {
		symbol = ""
	}
	disasm := strings.Join(fields[5:], " ")

	var opcode [4]byte
	binary.LittleEndian.PutUint32(opcode[:], uint32(opcodeVal))

	return host.Insn{
		Disasm:  disasm,
		VAddr:   vaddr,
		Opcode:  opcode,
		HostPtr: hostPtr,
		Symbol:  symbol,
	}, nil
}

func parseMem(fields []string, lineNo int) (host.MemAccess, int, error) {
	// MEM <vcpu> <vaddr-hex> <hwaddr-hex-or-{}> <io 0|1> <store 0|1>
	if len(fields) < 6 {
		return host.MemAccess{}, 0, fmt.Errorf("replay line %d: malformed MEM", lineNo)
	}
	vcpu, err := parseInt(fields, 1, lineNo)
	if err != nil {
		return host.MemAccess{}, 0, err
	}
	vaddr, _, err := parseHex(fields[2])
	if err != nil {
		return host.MemAccess{}, 0, fmt.Errorf("replay line %d: bad vaddr: %v", lineNo, err)
	}
	hwAddr, hasHW, err := parseHex(fields[3])
	if err != nil {
		return host.MemAccess{}, 0, fmt.Errorf("replay line %d: bad hwaddr: %v", lineNo, err)
	}
	isIO := fields[4] == "1"
	isStore := fields[5] == "1"

	return host.MemAccess{
		VAddr:   vaddr,
		HWAddr:  hwAddr,
		HasHW:   hasHW,
		IsIO:    isIO,
		IsStore: isStore,
	}, vcpu, nil
}
