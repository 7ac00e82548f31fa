// Package cpu implements the 6502 instruction set: registers, flags,
// addressing modes, and the documented opcode table. It depends only on
// the Bus capability interface (see bus.go), not on any concrete memory
// map, so it can be driven by the real Apple II bus package or by a flat
// test memory.
package cpu

import (
	"fmt"
	"math/rand"

	"github.com/flytrapdev/apple2go/irq"
)

const (
	NMI_VECTOR   = uint16(0xFFFA)
	RESET_VECTOR = uint16(0xFFFC)
	IRQ_VECTOR   = uint16(0xFFFE)

	P_NEGATIVE  = uint8(0x80)
	P_OVERFLOW  = uint8(0x40)
	P_S1        = uint8(0x20) // Always 1.
	P_B         = uint8(0x10) // Only set during BRK; cleared on IRQ/NMI.
	P_DECIMAL   = uint8(0x8)
	P_INTERRUPT = uint8(0x4)
	P_ZERO      = uint8(0x2)
	P_CARRY     = uint8(0x1)
)

// Chip holds 6502 register state and the wiring to its bus and
// interrupt sources.
type Chip struct {
	A  uint8  // Accumulator.
	X  uint8  // X index register.
	Y  uint8  // Y index register.
	S  uint8  // Stack pointer.
	P  uint8  // Status register.
	PC uint16 // Program counter.

	bus Bus
	irq irq.Sender
	nmi irq.Sender

	prevNMI bool // Edge-detect state for the NMI line.

	// delayInterrupt holds off interrupt delivery for exactly one more
	// Step() call after CLI re-enables interrupts, matching real 6502
	// behavior where the instruction after CLI always completes first.
	// PLP and RTI clearing I do not set it.
	delayInterrupt bool

	diagnostics []UnknownOpcode

	// extraCycle accumulates cycle costs execute() can't express through
	// the single pageCrossExtra bit (a taken branch that also crosses a
	// page). Reset and consumed once per Step.
	extraCycle int
}

// InvalidCPUState indicates a programmer error in how the CPU was
// constructed or driven, not anything a guest program could trigger.
type InvalidCPUState struct {
	Reason string
}

// Error implements error.
func (e InvalidCPUState) Error() string {
	return fmt.Sprintf("invalid CPU state: %s", e.Reason)
}

// UnknownOpcode records an opcode byte with no documented 6502
// instruction, per spec §7: execution treats it as a two-cycle no-op
// and continues, but the occurrence is recorded for diagnostics.
type UnknownOpcode struct {
	Opcode uint8
	PC     uint16
}

// Error implements error.
func (e UnknownOpcode) Error() string {
	return fmt.Sprintf("unknown opcode 0x%.2X at PC 0x%.4X", e.Opcode, e.PC)
}

// ChipDef configures a new Chip.
type ChipDef struct {
	Bus Bus
	// Irq is an optional level-triggered IRQ source, checked before
	// decoding each instruction.
	Irq irq.Sender
	// Nmi is an optional edge-triggered NMI source.
	Nmi irq.Sender
}

// Init constructs a Chip wired to the given bus and optional interrupt
// sources, in its power-on state.
func Init(def *ChipDef) (*Chip, error) {
	if def.Bus == nil {
		return nil, InvalidCPUState{"ChipDef.Bus must not be nil"}
	}
	p := &Chip{
		bus: def.Bus,
		irq: def.Irq,
		nmi: def.Nmi,
	}
	p.PowerOn()
	return p, nil
}

// PowerOn puts registers into their (real-hardware) indeterminate
// cold-start state: randomized A/X/Y/S, interrupts disabled, and PC
// loaded from the reset vector. Used only to bring a freshly
// constructed Chip to a legal starting state (see Init); the guest-
// visible reset line is Reset, which zeroes registers deterministically.
func (p *Chip) PowerOn() {
	p.A = uint8(rand.Intn(256))
	p.X = uint8(rand.Intn(256))
	p.Y = uint8(rand.Intn(256))
	p.S = uint8(rand.Intn(256))
	p.P = P_S1 | P_INTERRUPT
	p.delayInterrupt = false
	p.diagnostics = nil
	p.PC = p.bus.Read16(RESET_VECTOR)
}

// Reset clears A, X, and Y, sets status to I=1 (all other flags clear),
// sets SP to 0xFD, and loads PC from the reset vector.
func (p *Chip) Reset() {
	p.A, p.X, p.Y = 0, 0, 0
	p.S = 0xFD
	p.P = P_S1 | P_INTERRUPT
	p.delayInterrupt = false
	p.diagnostics = nil
	p.PC = p.bus.Read16(RESET_VECTOR)
}

// Diagnostics returns the UnknownOpcode occurrences recorded so far.
func (p *Chip) Diagnostics() []UnknownOpcode {
	return p.diagnostics
}

// Step executes exactly one instruction (first servicing a pending
// interrupt if one is due) and returns the number of cycles it
// consumed, per spec §4.3/§5's cycle-budget model.
func (p *Chip) Step() (int, error) {
	if cycles, handled := p.maybeInterrupt(); handled {
		return cycles, nil
	}
	p.delayInterrupt = false

	opPC := p.PC
	op := p.fetch8()
	base := baseCycles[op]
	if base == 0 {
		p.diagnostics = append(p.diagnostics, UnknownOpcode{Opcode: op, PC: opPC})
		return 2, nil
	}

	p.extraCycle = 0
	extra := p.execute(op)
	cycles := base
	if extra && pageCrossExtra[op] {
		cycles++
	}
	cycles += p.extraCycle
	return cycles, nil
}

// RunCycles executes instructions until at least n cycles have been
// consumed (the last instruction may overshoot n, since instructions
// execute atomically — see spec §5) or an error occurs. It returns the
// number of cycles actually consumed.
func (p *Chip) RunCycles(n int64) (int64, error) {
	var total int64
	for total < n {
		c, err := p.Step()
		if err != nil {
			return total, err
		}
		total += int64(c)
	}
	return total, nil
}

// maybeInterrupt checks the NMI (edge) and IRQ (level, gated on the I
// flag) lines and, if one is due, runs the interrupt sequence. Returns
// the cycle cost and true if an interrupt was taken.
func (p *Chip) maybeInterrupt() (int, bool) {
	nmiEdge := false
	if p.nmi != nil {
		raised := p.nmi.Raised()
		nmiEdge = raised && !p.prevNMI
		p.prevNMI = raised
	}
	if nmiEdge {
		p.runInterrupt(NMI_VECTOR, false)
		return 7, true
	}
	if p.delayInterrupt {
		return 0, false
	}
	if p.irq != nil && p.irq.Raised() && p.P&P_INTERRUPT == 0 {
		p.runInterrupt(IRQ_VECTOR, false)
		return 7, true
	}
	return 0, false
}

// runInterrupt pushes PC and P and loads PC from the given vector. brk
// is true only for a guest BRK instruction; it's false for IRQ/NMI
// (which must not advance PC before pushing it) and sets the B flag
// in the pushed status byte accordingly.
func (p *Chip) runInterrupt(vector uint16, brk bool) {
	if brk {
		p.PC++
	}
	p.pushStack(uint8(p.PC >> 8))
	p.pushStack(uint8(p.PC))
	push := p.P | P_S1
	if brk {
		push |= P_B
	} else {
		push &^= P_B
	}
	p.pushStack(push)
	p.P |= P_INTERRUPT
	p.PC = p.bus.Read16(vector)
}

func (p *Chip) pushStack(val uint8) {
	p.bus.Write8(0x0100+uint16(p.S), val)
	p.S--
}

func (p *Chip) popStack() uint8 {
	p.S++
	return p.bus.Read8(0x0100 + uint16(p.S))
}

func (p *Chip) zeroCheck(reg uint8) {
	p.P &^= P_ZERO
	if reg == 0 {
		p.P |= P_ZERO
	}
}

func (p *Chip) negativeCheck(reg uint8) {
	p.P &^= P_NEGATIVE
	if reg&P_NEGATIVE == P_NEGATIVE {
		p.P |= P_NEGATIVE
	}
}

// carryCheck sets C if the 8-bit ALU result (passed widened to 16 bits)
// carried out, i.e. is >= 0x100. BCD fixups can push this as high as
// 0x200, which still counts as a carry.
func (p *Chip) carryCheck(res uint16) {
	p.P &^= P_CARRY
	if res >= 0x100 {
		p.P |= P_CARRY
	}
}

// overflowCheck sets V if the ALU operation caused a two's-complement
// sign change. See http://www.righto.com/2012/12/the-6502-overflow-flag-explained.html
func (p *Chip) overflowCheck(reg, arg, res uint8) {
	p.P &^= P_OVERFLOW
	if (reg^res)&(arg^res)&0x80 != 0 {
		p.P |= P_OVERFLOW
	}
}

func (p *Chip) loadRegister(reg *uint8, val uint8) {
	*reg = val
	p.zeroCheck(val)
	p.negativeCheck(val)
}
