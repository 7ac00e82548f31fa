package cpu

import (
	"testing"

	"github.com/flytrapdev/apple2go/irq"
)

// flatBus is a 64 KiB flat memory satisfying the Bus interface, used to
// exercise the cpu package in isolation from the real Apple II memory
// map, the way the teacher's tests drive the Chip against a bare
// memory.Ram.
type flatBus struct {
	mem [1 << 16]uint8
}

func (f *flatBus) Read8(addr uint16) uint8     { return f.mem[addr] }
func (f *flatBus) Write8(addr uint16, v uint8) { f.mem[addr] = v }
func (f *flatBus) Read16(addr uint16) uint16 {
	return uint16(f.mem[addr]) | uint16(f.mem[addr+1])<<8
}
func (f *flatBus) Write16(addr uint16, v uint16) {
	f.mem[addr] = uint8(v)
	f.mem[addr+1] = uint8(v >> 8)
}
func (f *flatBus) RMW(addr uint16, fn func(uint8) uint8) uint8 {
	v := fn(f.mem[addr])
	f.mem[addr] = v
	return v
}

func newChip(t *testing.T, resetVector uint16) (*Chip, *flatBus) {
	t.Helper()
	b := &flatBus{}
	b.Write16(RESET_VECTOR, resetVector)
	c, err := Init(&ChipDef{Bus: b})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return c, b
}

// TestOpcodeByteLengthAdvancesPC covers spec §8's invariant that PC
// advances by exactly the opcode's documented instruction length.
func TestOpcodeByteLengthAdvancesPC(t *testing.T) {
	cases := []struct {
		name string
		prog []uint8
		want uint16
	}{
		{"LDA #imm", []uint8{0xA9, 0x42}, 0x2002},
		{"LDA zp", []uint8{0xA5, 0x10}, 0x2002},
		{"LDA abs", []uint8{0xAD, 0x00, 0x30}, 0x2003},
		{"LDA abs,X", []uint8{0xBD, 0x00, 0x30}, 0x2003},
		{"NOP", []uint8{0xEA}, 0x2001},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, b := newChip(t, 0x2000)
			copy(b.mem[0x2000:], tc.prog)
			if _, err := c.Step(); err != nil {
				t.Fatalf("Step: %v", err)
			}
			if c.PC != tc.want {
				t.Fatalf("PC = 0x%.4X, want 0x%.4X", c.PC, tc.want)
			}
		})
	}
}

// TestADCBinaryFlags quantifies over a spread of operand pairs that the
// NZCV flags always match the 8-bit binary-mode result, per spec §8.
func TestADCBinaryFlags(t *testing.T) {
	for _, a := range []uint8{0x00, 0x01, 0x7F, 0x80, 0xFF, 0x50} {
		for _, v := range []uint8{0x00, 0x01, 0x7F, 0x80, 0xFF, 0x50} {
			c, b := newChip(t, 0x2000)
			b.mem[0x2000] = 0xA9 // LDA #a
			b.mem[0x2001] = a
			b.mem[0x2002] = 0x69 // ADC #v
			b.mem[0x2003] = v
			if _, err := c.Step(); err != nil {
				t.Fatalf("Step: %v", err)
			}
			if _, err := c.Step(); err != nil {
				t.Fatalf("Step: %v", err)
			}
			wantSum := uint16(a) + uint16(v)
			wantA := uint8(wantSum)
			if c.A != wantA {
				t.Fatalf("A=0x%.2X v=0x%.2X: got A=0x%.2X, want 0x%.2X", a, v, c.A, wantA)
			}
			wantCarry := wantSum > 0xFF
			if (c.P&P_CARRY != 0) != wantCarry {
				t.Fatalf("A=0x%.2X v=0x%.2X: carry = %v, want %v", a, v, c.P&P_CARRY != 0, wantCarry)
			}
			wantZero := wantA == 0
			if (c.P&P_ZERO != 0) != wantZero {
				t.Fatalf("A=0x%.2X v=0x%.2X: zero = %v, want %v", a, v, c.P&P_ZERO != 0, wantZero)
			}
			wantNeg := wantA&0x80 != 0
			if (c.P&P_NEGATIVE != 0) != wantNeg {
				t.Fatalf("A=0x%.2X v=0x%.2X: negative = %v, want %v", a, v, c.P&P_NEGATIVE != 0, wantNeg)
			}
			wantOverflow := (a^wantA)&(v^wantA)&0x80 != 0
			if (c.P&P_OVERFLOW != 0) != wantOverflow {
				t.Fatalf("A=0x%.2X v=0x%.2X: overflow = %v, want %v", a, v, c.P&P_OVERFLOW != 0, wantOverflow)
			}
		}
	}
}

// TestADCDecimalMode exercises the BCD fixup path against a couple of
// worked values from http://6502.org/tutorials/decimal_mode.html.
func TestADCDecimalMode(t *testing.T) {
	c, b := newChip(t, 0x2000)
	b.mem[0x2000] = 0x18 // CLC
	b.mem[0x2001] = 0xF8 // SED
	b.mem[0x2002] = 0xA9 // LDA #0x15
	b.mem[0x2003] = 0x15
	b.mem[0x2004] = 0x69 // ADC #0x27
	b.mem[0x2005] = 0x27
	for i := 0; i < 4; i++ {
		if _, err := c.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if c.A != 0x42 {
		t.Fatalf("BCD 0x15+0x27: A = 0x%.2X, want 0x42", c.A)
	}
}

// TestStackRoundTrip covers PHA/PLA preserving the accumulator across a
// push/pop cycle, per spec §8. JSR/RTS and BRK/RTI are covered by
// TestJSRRTS and TestBRKRTI.
func TestStackRoundTrip(t *testing.T) {
	c, b := newChip(t, 0x2000)
	b.mem[0x2000] = 0xA9 // LDA #0x99
	b.mem[0x2001] = 0x99
	b.mem[0x2002] = 0x48 // PHA
	b.mem[0x2003] = 0xA9 // LDA #0x00
	b.mem[0x2004] = 0x00
	b.mem[0x2005] = 0x68 // PLA
	for i := 0; i < 4; i++ {
		if _, err := c.Step(); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}
	if c.A != 0x99 {
		t.Fatalf("after PHA/LDA#0/PLA: A = 0x%.2X, want 0x99", c.A)
	}
}

func TestJSRRTS(t *testing.T) {
	c, b := newChip(t, 0x2000)
	b.mem[0x2000] = 0x20 // JSR 0x3000
	b.mem[0x2001] = 0x00
	b.mem[0x2002] = 0x30
	b.mem[0x3000] = 0x60 // RTS
	if _, err := c.Step(); err != nil {
		t.Fatalf("JSR: %v", err)
	}
	if c.PC != 0x3000 {
		t.Fatalf("after JSR: PC = 0x%.4X, want 0x3000", c.PC)
	}
	if _, err := c.Step(); err != nil {
		t.Fatalf("RTS: %v", err)
	}
	if c.PC != 0x2003 {
		t.Fatalf("after RTS: PC = 0x%.4X, want 0x2003", c.PC)
	}
}

func TestBRKRTI(t *testing.T) {
	c, b := newChip(t, 0x2000)
	b.Write16(IRQ_VECTOR, 0x4000)
	b.mem[0x2000] = 0x00 // BRK
	b.mem[0x2001] = 0x00 // padding byte
	b.mem[0x4000] = 0x40 // RTI
	wantP := c.P
	if _, err := c.Step(); err != nil {
		t.Fatalf("BRK: %v", err)
	}
	if c.PC != 0x4000 {
		t.Fatalf("after BRK: PC = 0x%.4X, want 0x4000", c.PC)
	}
	if _, err := c.Step(); err != nil {
		t.Fatalf("RTI: %v", err)
	}
	if c.PC != 0x2002 {
		t.Fatalf("after RTI: PC = 0x%.4X, want 0x2002", c.PC)
	}
	if c.P&^P_B != wantP&^P_B {
		t.Fatalf("P after RTI = 0x%.2X, want 0x%.2X (modulo B)", c.P, wantP)
	}
}

// TestUnknownOpcodeContinues covers spec §7: an opcode byte with no
// documented instruction is recorded as a diagnostic, not fatal, and
// execution continues at the next byte.
func TestUnknownOpcodeContinues(t *testing.T) {
	c, b := newChip(t, 0x2000)
	b.mem[0x2000] = 0x02 // not a documented opcode
	b.mem[0x2001] = 0xEA // NOP
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step on unknown opcode: %v", err)
	}
	if c.PC != 0x2001 {
		t.Fatalf("PC after unknown opcode = 0x%.4X, want 0x2001", c.PC)
	}
	diags := c.Diagnostics()
	if len(diags) != 1 || diags[0].Opcode != 0x02 {
		t.Fatalf("Diagnostics() = %+v, want one entry for opcode 0x02", diags)
	}
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step on following NOP: %v", err)
	}
	if c.PC != 0x2002 {
		t.Fatalf("PC after NOP = 0x%.4X, want 0x2002", c.PC)
	}
}

// TestIRQGatedByInterruptFlag covers the IRQ line being ignored while I
// is set and taken promptly once it's clear.
func TestIRQGatedByInterruptFlag(t *testing.T) {
	c, b := newChip(t, 0x2000)
	b.Write16(IRQ_VECTOR, 0x5000)
	var src irq.Latch
	src.Set()
	c.irq = &src
	c.P |= P_INTERRUPT
	b.mem[0x2000] = 0xEA // NOP
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c.PC != 0x2001 {
		t.Fatalf("IRQ fired while I was set: PC = 0x%.4X", c.PC)
	}

	c.P &^= P_INTERRUPT
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c.PC != 0x5000 {
		t.Fatalf("IRQ not taken once I cleared: PC = 0x%.4X, want 0x5000", c.PC)
	}
}

func TestNMIAlwaysFires(t *testing.T) {
	c, b := newChip(t, 0x2000)
	b.Write16(NMI_VECTOR, 0x6000)
	var src irq.Latch
	src.Set()
	c.nmi = &src
	c.P |= P_INTERRUPT
	b.mem[0x2000] = 0xEA
	if _, err := c.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if c.PC != 0x6000 {
		t.Fatalf("NMI not taken with I set: PC = 0x%.4X, want 0x6000", c.PC)
	}
}

// TestResetZeroesRegisters covers spec §4.3's Reset operation literally:
// A/X/Y clear, SP=0xFD, I set, PC loaded from the reset vector.
func TestResetZeroesRegisters(t *testing.T) {
	c, b := newChip(t, 0x2000)
	c.A, c.X, c.Y = 0x11, 0x22, 0x33
	b.Write16(RESET_VECTOR, 0x3000)
	c.Reset()
	if c.A != 0 || c.X != 0 || c.Y != 0 {
		t.Fatalf("A/X/Y after Reset = %.2X/%.2X/%.2X, want all zero", c.A, c.X, c.Y)
	}
	if c.S != 0xFD {
		t.Fatalf("S after Reset = 0x%.2X, want 0xFD", c.S)
	}
	if c.P&P_INTERRUPT == 0 {
		t.Fatalf("I flag not set after Reset")
	}
	if c.PC != 0x3000 {
		t.Fatalf("PC after Reset = 0x%.4X, want 0x3000", c.PC)
	}
}

func TestRunCyclesBudget(t *testing.T) {
	c, b := newChip(t, 0x2000)
	for i := 0; i < 10; i++ {
		b.mem[0x2000+uint16(i)] = 0xEA // NOP, 2 cycles each
	}
	got, err := c.RunCycles(10)
	if err != nil {
		t.Fatalf("RunCycles: %v", err)
	}
	if got < 10 {
		t.Fatalf("RunCycles(10) consumed %d cycles, want >= 10", got)
	}
}
