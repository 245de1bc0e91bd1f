/*
 * rvtrace - Instruction classifier tests.
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

func TestClassifyRdRs1Rs2(t *testing.T) {
	d := Classify(0x1000, "add a0,a1,a2", nil)
	if d.Shape != ShapeRdRs1Rs2 {
		t.Fatalf("expected ShapeRdRs1Rs2, got %v", d.Shape)
	}
	if d.Rd != regIndex["a0"] || d.Rs1 != regIndex["a1"] || d.Rs2 != regIndex["a2"] {
		t.Errorf("unexpected operands: %+v", d)
	}
	if d.AddrSource != AddrNone {
		t.Errorf("expected no address source, got %v", d.AddrSource)
	}
}

func TestClassifyLuiIsAddrRdIsAddress(t *testing.T) {
	d := Classify(0x2000, "lui a0,0x10", nil)
	if d.Shape != ShapeRdImm {
		t.Fatalf("expected ShapeRdImm, got %v", d.Shape)
	}
	if d.AddrSource != AddrRdIsAddress {
		t.Errorf("expected rd-is-address, got %v", d.AddrSource)
	}
	if d.Rd != regIndex["a0"] {
		t.Errorf("expected rd=a0, got %d", d.Rd)
	}
}

func TestClassifyJalrIsAddrRs1IsAddress(t *testing.T) {
	d := Classify(0x2004, "jalr ra,a0,0", nil)
	if d.AddrSource != AddrRs1IsAddress {
		t.Errorf("jalr should report rs1-is-address, got %v", d.AddrSource)
	}
}

func TestClassifyAddiIsNotAddressSource(t *testing.T) {
	d := Classify(0x2008, "addi a0,a1,4", nil)
	if d.AddrSource != AddrNone {
		t.Errorf("addi (non-jump) should report no address source, got %v", d.AddrSource)
	}
}

func TestClassifyLoadRdOffsetRs1(t *testing.T) {
	d := Classify(0x3000, "ld a1,0(a0)", nil)
	if d.Shape != ShapeRdOffsetRs1 {
		t.Fatalf("expected ShapeRdOffsetRs1, got %v", d.Shape)
	}
	if d.Rd != regIndex["a1"] {
		t.Errorf("expected rd=a1, got %d", d.Rd)
	}
	if d.Rs1 != regIndex["a0"] {
		t.Errorf("expected rs1=a0, got %d", d.Rs1)
	}
	if d.AddrSource != AddrRs1IsAddress {
		t.Errorf("loads should report rs1-is-address, got %v", d.AddrSource)
	}
}

func TestClassifyStoreRs2OffsetRs1(t *testing.T) {
	d := Classify(0x3004, "sd a1,0(a0)", nil)
	if d.Shape != ShapeRs2OffsetRs1 {
		t.Fatalf("expected ShapeRs2OffsetRs1, got %v", d.Shape)
	}
	if d.Rs1 != regIndex["a0"] || d.Rs2 != regIndex["a1"] {
		t.Errorf("unexpected operands: %+v", d)
	}
}

func TestClassifyUnknownMnemonicIsZeroedNotAccidental(t *testing.T) {
	d := Classify(0x4000, "whatsit a0,a1", nil)
	if d.Shape != ShapeNone {
		t.Errorf("unknown mnemonic should decode to ShapeNone, got %v", d.Shape)
	}
	if d.Rd != Unused || d.Rs1 != Unused || d.Rs2 != Unused {
		t.Errorf("unknown mnemonic should leave every register Unused, got %+v", d)
	}
	if d.AddrSource != AddrNone {
		t.Errorf("unknown mnemonic should report no address source, got %v", d.AddrSource)
	}
}

func TestClassifyCsrShapes(t *testing.T) {
	d := Classify(0x5000, "csrrw a0,mstatus,a1", nil)
	if d.Rd != regIndex["a0"] || d.Rs1 != regIndex["a1"] {
		t.Errorf("csrrw: unexpected operands %+v", d)
	}

	// rd_csr_zimm places rd at t3, per the classifier table.
	d2 := Classify(0x5004, "csrrwi mstatus,a0,3", nil)
	if d2.Rd != regIndex["a0"] {
		t.Errorf("csrrwi: expected rd=a0 (at t3), got %d", d2.Rd)
	}
}
