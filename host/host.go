/*
 * rvtrace - Host callback contract.
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

// Package host defines the narrow contract an emulator (or a trace replay
// harness) must satisfy for the split-tag cache and address-dependency
// analysis cores to observe its instruction and memory-access stream.
package host

// Insn is one decoded instruction inside a translation block, as the host
// enumerates it at translation time.
type Insn struct {
	Disasm  string // Textual disassembly, e.g. "ld a1,0(a0)".
	VAddr   uint64 // Virtual address of the instruction.
	Opcode  [4]byte
	HostPtr uint64 // Host-address-mapped pointer, valid in system-emulation mode.
	Symbol  string // Nearest preceding symbol name, if known. Empty if none.
}

// Block is a translation block: a run of instructions the host decoded
// together before executing any of them.
type Block interface {
	Len() int
	Insn(i int) Insn
}

// MemAccess describes one memory reference made by an executing instruction.
type MemAccess struct {
	VAddr   uint64
	HWAddr  uint64
	HasHW   bool // HWAddr is valid.
	IsIO    bool
	IsStore bool
}

// Host is the callback surface an emulator exposes to an analysis core.
// Per-instruction and per-memory-access callbacks are tagged with the vCPU
// index that is executing them; the host may invoke them from any number of
// OS threads, one per emulated CPU, but never two callbacks for the same
// vCPU concurrently.
type Host interface {
	// OnTranslate registers a callback invoked once per translation block,
	// before any of its instructions execute.
	OnTranslate(fn func(vcpu int, b Block))

	// OnExec registers fn to run immediately before instruction insnIndex
	// of the most recently translated block executes, tagged with the
	// executing vCPU.
	OnExec(vcpu int, insnIndex int, fn func(vcpu int))

	// OnMemAccess registers fn to run for every memory access made by
	// instruction insnIndex of the most recently translated block.
	OnMemAccess(vcpu int, insnIndex int, fn func(vcpu int, acc MemAccess))

	// OnExit registers fn to run once, at host shutdown.
	OnExit(fn func())

	// SystemMode reports whether the host is running in system-emulation
	// mode (as opposed to user-mode emulation).
	SystemMode() bool

	// VCPUs reports the number of virtual CPUs the host multiplexes.
	VCPUs() int
}
