// Package system wires together the bus, CPU, and disk controller into
// the single front-end type a host (the windowed renderer and event
// pump this spec explicitly leaves to another component) drives: mount
// firmware and a disk image, reset, and run cycles, per spec §5/§6.
package system

import (
	"fmt"
	"strings"

	"github.com/flytrapdev/apple2go/bus"
	"github.com/flytrapdev/apple2go/cpu"
	"github.com/flytrapdev/apple2go/disassemble"
	"github.com/flytrapdev/apple2go/irq"
)

// ImageIoError wraps an I/O failure encountered while a host was
// reading a firmware or disk image file before handing the bytes to
// Machine.
type ImageIoError struct {
	Path string
	Err  error
}

// Error implements error.
func (e ImageIoError) Error() string {
	return fmt.Sprintf("reading %q: %v", e.Path, e.Err)
}

// Unwrap supports errors.Is/errors.As against the underlying I/O error.
func (e ImageIoError) Unwrap() error {
	return e.Err
}

// Config controls optional Machine behavior.
type Config struct {
	// IgnoreCycles, if true, makes RunCycles' cycle budget a no-op: it
	// executes exactly one instruction and returns, regardless of n.
	IgnoreCycles bool
	// DebugTrace, if true, appends a disassembled line to the Machine's
	// debug log for every instruction RunCycles executes, plus a line
	// for every UnknownOpcode diagnostic the CPU records.
	DebugTrace bool
}

// Machine is the assembled emulator: bus, CPU, and disk controller.
type Machine struct {
	Bus *bus.Bus
	CPU *cpu.Chip

	cfg      Config
	debug    strings.Builder
	irqLatch irq.Latch
}

// New constructs an unpowered Machine. MountFirmware must be called
// before Reset.
func New(cfg Config) (*Machine, error) {
	b, err := bus.New()
	if err != nil {
		return nil, fmt.Errorf("constructing bus: %w", err)
	}
	m := &Machine{Bus: b, cfg: cfg}
	c, err := cpu.Init(&cpu.ChipDef{Bus: b, Irq: &m.irqLatch, Nmi: &b.VBL})
	if err != nil {
		return nil, fmt.Errorf("constructing cpu: %w", err)
	}
	m.CPU = c
	return m, nil
}

// MountFirmware copies a ROM image into the 0xD000-0xFFFF shadow.
func (m *Machine) MountFirmware(data []byte) error {
	return m.Bus.MountFirmware(data)
}

// MountDisk loads a raw DOS-order disk image into drive 0/1's shared
// controller.
func (m *Machine) MountDisk(data []byte) error {
	return m.Bus.Disk().Load(data)
}

// Reset clears A/X/Y, sets SP to 0xFD and status to I=1, reinitializes
// the bus (zeroes main RAM, re-copies the firmware, and copies in the
// disk bootstrap ROM when an image is mounted), and loads PC from the
// firmware's reset vector. Soft switches and the disk stepper keep
// their state.
func (m *Machine) Reset() error {
	if err := m.Bus.Reset(); err != nil {
		return err
	}
	m.CPU.Reset()
	return nil
}

// RunCycles executes instructions until at least n cycles have run (or,
// if Config.IgnoreCycles is set, executes exactly one instruction
// regardless of n), recording a disassembled line per instruction plus
// any UnknownOpcode diagnostics into the debug log when
// Config.DebugTrace is set. Returns the number of cycles actually
// consumed.
func (m *Machine) RunCycles(n int64) (int64, error) {
	before := len(m.CPU.Diagnostics())
	var total int64
	for {
		if m.cfg.DebugTrace {
			line, _ := disassemble.Step(m.CPU.PC, m.Bus)
			fmt.Fprintf(&m.debug, "%s\n", line)
		}
		c, err := m.CPU.Step()
		total += int64(c)
		if err != nil {
			return total, err
		}
		if m.cfg.IgnoreCycles || total >= n {
			break
		}
	}
	if m.cfg.DebugTrace {
		for _, d := range m.CPU.Diagnostics()[before:] {
			fmt.Fprintf(&m.debug, "%s\n", d.Error())
		}
	}
	return total, nil
}

// StrobeKey latches a keypress for the guest to read at $C000.
func (m *Machine) StrobeKey(ascii uint8) {
	m.Bus.StrobeKey(ascii)
}

// ClearStrobe clears the keyboard strobe bit, as if the guest had read
// $C010 (provided directly for a host that polls the latch itself
// rather than executing guest code to do so).
func (m *Machine) ClearStrobe() {
	m.Bus.ClearStrobe()
}

// RequestIRQ raises (or, if raise is false, lowers) the level-triggered
// IRQ line, gated inside the CPU on the I status flag.
func (m *Machine) RequestIRQ(raise bool) {
	if raise {
		m.irqLatch.Set()
		return
	}
	m.irqLatch.Clear()
}

// RequestNMI raises (or lowers) the edge-triggered NMI line — the same
// latch the bus's vertical-blank hook drives.
func (m *Machine) RequestNMI(raise bool) {
	if raise {
		m.Bus.VBL.Set()
		return
	}
	m.Bus.VBL.Clear()
}

// Peek reads a byte with no side effects, for a host inspecting
// framebuffer memory or building a disassembly listing.
func (m *Machine) Peek(addr uint16) uint8 {
	return m.Bus.Peek(addr)
}

// ModeFlags returns the current video soft-switch state.
func (m *Machine) ModeFlags() bus.ModeFlags {
	return m.Bus.ModeFlags()
}

// Debug returns the accumulated debug trace log (empty unless
// Config.DebugTrace was set).
func (m *Machine) Debug() string {
	return m.debug.String()
}
