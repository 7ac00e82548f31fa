package cpu

// Bus is the capability the CPU needs from its memory map: plain byte/word
// access plus an atomic read-modify-write for INC/DEC/ASL/LSR/ROL/ROR. A
// *bus.Bus satisfies this, and so does a flat test memory — see the
// design note in spec.md §9 about parameterizing over this interface
// instead of a concrete type, the way the teacher parameterizes over
// memory.Ram.
type Bus interface {
	Read8(addr uint16) uint8
	Write8(addr uint16, val uint8)
	Read16(addr uint16) uint16
	Write16(addr uint16, val uint16)
	RMW(addr uint16, fn func(uint8) uint8) uint8
}
