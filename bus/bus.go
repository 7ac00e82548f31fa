// Package bus implements the Apple II-style memory map: 64 KiB of main
// RAM, a 64 KiB auxiliary bank (only zero page is routed there, under
// ALTZP; the other bank-switch flags are stored but do not reroute
// accesses), the firmware ROM shadow at
// 0xD000-0xFFFF, the keyboard latch, the sixteen video/memory soft
// switches, and the disk controller's I/O window. This is the "bus
// capability" the cpu package depends on (see design note in spec.md
// §9: parameterizing the CPU over an interface rather than using
// run-time dispatch on a class hierarchy).
package bus

import (
	"fmt"

	"github.com/flytrapdev/apple2go/disk"
	"github.com/flytrapdev/apple2go/irq"
	"github.com/flytrapdev/apple2go/memory"
)

const (
	firmwareBase = 0xD000
	firmwareTop  = 0xFFFF
	// MaxFirmwareSize is the largest firmware blob that fits in the ROM
	// shadow (0xD000-0xFFFF inclusive).
	MaxFirmwareSize = firmwareTop - firmwareBase + 1

	bootstrapBase = 0xC600
)

// FirmwareMissing is returned by Reset when no firmware has been
// mounted yet; booting a 6502 with no reset vector is meaningless.
type FirmwareMissing struct{}

// Error implements error.
func (FirmwareMissing) Error() string {
	return "reset attempted with no firmware mounted"
}

// Bus is the Apple II memory map and soft-switch set. It satisfies the
// minimal capability interface the cpu package needs (Read8/Read16/
// Write8/Write16/RMW) plus the host-facing operations from spec.md §4.1.
type Bus struct {
	main memory.Bank
	aux  memory.Bank

	firmware      [MaxFirmwareSize]byte
	firmwareSet   bool
	disk          *disk.Disk
	keyboardLatch uint8

	// Soft switches, stored as bytes (not bools) so that a guest read of
	// $C013-$C01F returns the stored flag value directly, per spec §4.1.
	sw80Store     uint8
	swRamRd       uint8
	swRamWrt      uint8
	swIntCxRom    uint8
	swAltZP       uint8
	swSlotC3Rom   uint8
	sw80Col       uint8
	swAltCharset  uint8
	swText        uint8
	swMixed       uint8
	swPage2       uint8
	swHires       uint8
	swAn0         uint8
	swAn1         uint8
	swAn2         uint8
	swAn3         uint8

	// VBL is an optional interrupt source hooked up to the video
	// subsystem's vertical-blank edge; wired by a host front end, not
	// set internally. Held here so address-decode side effects (a
	// future VBL status read at $C019) and interrupt delivery share one
	// owner, matching spec §2's "Interrupt latches are set by the Bus".
	VBL irq.Latch
}

// New constructs a Bus with power-on-randomized main/aux RAM and an
// unmounted, freshly constructed Disk.
func New() (*Bus, error) {
	main, err := memory.NewRAM(1 << 16)
	if err != nil {
		return nil, fmt.Errorf("allocating main RAM: %w", err)
	}
	aux, err := memory.NewRAM(1 << 16)
	if err != nil {
		return nil, fmt.Errorf("allocating aux RAM: %w", err)
	}
	b := &Bus{
		main: main,
		aux:  aux,
		disk: disk.New(),
	}
	b.main.PowerOn()
	b.aux.PowerOn()
	return b, nil
}

// Disk returns the controller backing this bus's $C0E0-$C0EF/$C080-$C08F
// I/O window, so a host can mount images into it.
func (b *Bus) Disk() *disk.Disk {
	return b.disk
}

// MountFirmware copies a ROM blob into the 0xD000-0xFFFF shadow. The
// blob must be no larger than MaxFirmwareSize; a shorter blob is placed
// at the top of the window (ending at 0xFFFF) so the reset/IRQ/NMI
// vectors at the very end always come from the supplied image.
func (b *Bus) MountFirmware(data []byte) error {
	if len(data) > MaxFirmwareSize {
		return fmt.Errorf("firmware is %d bytes, exceeds %d byte ROM shadow", len(data), MaxFirmwareSize)
	}
	for i := range b.firmware {
		b.firmware[i] = 0
	}
	offset := MaxFirmwareSize - len(data)
	copy(b.firmware[offset:], data)
	b.firmwareSet = true
	return nil
}

// Reset zeroes main RAM, re-copies the firmware into the ROM shadow, and
// (if a disk image is mounted) overwrites 0xC600-0xC6FF with the disk
// bootstrap. Returns FirmwareMissing if no firmware has ever been
// mounted.
func (b *Bus) Reset() error {
	if !b.firmwareSet {
		return FirmwareMissing{}
	}
	b.main.PowerOn()
	for addr := 0; addr < 1<<16; addr++ {
		b.main.Write(uint16(addr), 0)
	}
	for i, v := range b.firmware {
		b.main.Write(uint16(firmwareBase+i), v)
	}
	if b.disk.Loaded() {
		for i, v := range disk.BootstrapROM {
			b.main.Write(uint16(bootstrapBase+i), v)
		}
	}
	return nil
}

// Read8 implements the full address decoder's read path from spec §4.1.
func (b *Bus) Read8(addr uint16) uint8 {
	switch {
	case addr <= 0x00FF:
		if b.swAltZP != 0 {
			return b.aux.Read(addr)
		}
		return b.main.Read(addr)
	case addr < 0xC000:
		return b.main.Read(addr)
	case addr == 0xC000:
		return b.keyboardLatch
	case addr == 0xC010:
		strobe := b.keyboardLatch & 0x80
		b.ClearStrobe()
		return strobe
	case addr >= 0xC013 && addr <= 0xC01F:
		return b.softSwitchByte(addr)
	case addr >= 0xC050 && addr <= 0xC05F:
		b.setVideoSwitch(addr)
		return 0
	case addr >= 0xC0E0 && addr <= 0xC0EF:
		return b.disk.IO(addr)
	case addr >= 0xC000 && addr <= 0xC0FF:
		return 0
	default:
		return b.main.Read(addr)
	}
}

// softSwitchByte implements the $C013-$C01F read-only status block.
func (b *Bus) softSwitchByte(addr uint16) uint8 {
	switch addr {
	case 0xC013:
		return b.swRamRd
	case 0xC014:
		return b.swRamWrt
	case 0xC015:
		return b.swIntCxRom
	case 0xC016:
		return b.swAltZP
	case 0xC017:
		return b.swSlotC3Rom
	case 0xC018:
		return b.sw80Store
	case 0xC019:
		return 0 // VBL status: not modeled beyond the VBL irq.Latch hook.
	case 0xC01A:
		return b.swText
	case 0xC01B:
		return b.swMixed
	case 0xC01C:
		return b.swPage2
	case 0xC01D:
		return b.swHires
	case 0xC01E:
		return b.swAltCharset
	case 0xC01F:
		return b.sw80Col
	}
	return 0
}

// setVideoSwitch implements the $C050-$C05F read-triggered video mode
// toggles (each address both reads and writes the same flag).
func (b *Bus) setVideoSwitch(addr uint16) {
	switch addr {
	case 0xC050:
		b.swText = 0
	case 0xC051:
		b.swText = 1
	case 0xC052:
		b.swMixed = 0
	case 0xC053:
		b.swMixed = 1
	case 0xC054:
		b.swPage2 = 0
	case 0xC055:
		b.swPage2 = 1
	case 0xC056:
		b.swHires = 0
	case 0xC057:
		b.swHires = 1
	case 0xC058:
		b.swAn0 = 0
	case 0xC059:
		b.swAn0 = 1
	case 0xC05A:
		b.swAn1 = 0
	case 0xC05B:
		b.swAn1 = 1
	case 0xC05C:
		b.swAn2 = 0
	case 0xC05D:
		b.swAn2 = 1
	case 0xC05E:
		b.swAn3 = 0
	case 0xC05F:
		b.swAn3 = 1
	}
}

// Write8 implements the full address decoder's write path from spec §4.1.
func (b *Bus) Write8(addr uint16, val uint8) {
	switch {
	case addr >= firmwareBase:
		return // ROM shadow: writes are dropped.
	case addr <= 0x00FF:
		if b.swAltZP != 0 {
			b.aux.Write(addr, val)
			return
		}
		b.main.Write(addr, val)
	case addr <= 0xC00F && addr >= 0xC000:
		b.setPairedSwitch(addr)
	case addr >= 0xC050 && addr <= 0xC05F:
		b.setVideoSwitch(addr)
	case addr >= 0xC080 && addr <= 0xC08F:
		b.disk.IO(addr)
	case addr >= 0xC000 && addr <= 0xC0FF:
		// No other I/O page address is writable.
	default:
		b.main.Write(addr, val)
	}
}

// setPairedSwitch implements the $C000-$C00F write-only paired soft
// switches (off/on siblings at consecutive addresses).
func (b *Bus) setPairedSwitch(addr uint16) {
	switch addr {
	case 0xC000:
		b.sw80Store = 0
	case 0xC001:
		b.sw80Store = 1
	case 0xC002:
		b.swRamRd = 0
	case 0xC003:
		b.swRamRd = 1
	case 0xC004:
		b.swRamWrt = 0
	case 0xC005:
		b.swRamWrt = 1
	case 0xC006:
		b.swIntCxRom = 0
	case 0xC007:
		b.swIntCxRom = 1
	case 0xC008:
		b.swAltZP = 0
	case 0xC009:
		b.swAltZP = 1
	case 0xC00A:
		b.swSlotC3Rom = 0
	case 0xC00B:
		b.swSlotC3Rom = 1
	case 0xC00C:
		b.sw80Col = 0
	case 0xC00D:
		b.sw80Col = 1
	case 0xC00E:
		b.swAltCharset = 0
	case 0xC00F:
		b.swAltCharset = 1
	}
}

// Read16 reads a little-endian word at addr/addr+1, each byte routed
// through the full decode path (so a 16-bit read spanning an I/O
// address still triggers its side effects), per spec §4.1.
func (b *Bus) Read16(addr uint16) uint16 {
	lo := b.Read8(addr)
	hi := b.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// Write16 writes a little-endian word at addr/addr+1.
func (b *Bus) Write16(addr uint16, val uint16) {
	b.Write8(addr, uint8(val))
	b.Write8(addr+1, uint8(val>>8))
}

// RMW performs a read-modify-write at addr: reads the byte through
// Read8, passes it to fn, and writes back fn's result through Write8, so
// an I/O address sees both the read-side and the write-side effect.
// This is the "closure form" spec.md §9 recommends in place of a raw
// pointer, used by the CPU's ASL/LSR/ROL/ROR/INC/DEC opcodes.
func (b *Bus) RMW(addr uint16, fn func(uint8) uint8) uint8 {
	old := b.Read8(addr)
	updated := fn(old)
	b.Write8(addr, updated)
	return updated
}

// StrobeKey latches ascii with the strobe bit (bit 7) set, per spec §4.1.
// Must only be called outside a CPU RunCycles call (see spec §5).
func (b *Bus) StrobeKey(ascii uint8) {
	b.keyboardLatch = ascii | 0x80
}

// ClearStrobe clears the keyboard latch's strobe bit.
func (b *Bus) ClearStrobe() {
	b.keyboardLatch &^= 0x80
}

// Peek reads a byte with no side effects at all, bypassing the I/O
// decoder entirely — always the underlying RAM byte, even in the
// 0xC000-0xC0FF window (aux RAM for zero page while ALTZP is on, main
// RAM otherwise). Used by a host front end to read framebuffer
// memory and by the disassembler, per spec §6.
func (b *Bus) Peek(addr uint16) uint8 {
	if addr <= 0x00FF && b.swAltZP != 0 {
		return b.aux.Read(addr)
	}
	return b.main.Read(addr)
}

// ModeFlags is the video-mode snapshot spec §6 says a host renderer
// needs to interpret framebuffer memory correctly.
type ModeFlags struct {
	Text       bool
	Mixed      bool
	Page2      bool
	Hires      bool
	AltCharset bool
	EightyCol  bool
}

// ModeFlags returns the current video soft-switch state.
func (b *Bus) ModeFlags() ModeFlags {
	return ModeFlags{
		Text:       b.swText != 0,
		Mixed:      b.swMixed != 0,
		Page2:      b.swPage2 != 0,
		Hires:      b.swHires != 0,
		AltCharset: b.swAltCharset != 0,
		EightyCol:  b.sw80Col != 0,
	}
}
