package cpu

// Addressing mode resolvers. Each advances PC past its operand bytes and
// returns the effective address; the *X/*Y indexed absolute and
// indirect-indexed forms additionally report whether the index crossed a
// page boundary, since that's what the literal pageCrossExtra table in
// tables.go keys off of. Named after the teacher's addrZP/addrAbsoluteX/
// etc. functions, adapted from a tick-driven state machine to a single
// direct call per spec §9's instruction-granular execution model.

func (p *Chip) fetch8() uint8 {
	v := p.bus.Read8(p.PC)
	p.PC++
	return v
}

func (p *Chip) fetch16() uint16 {
	v := p.bus.Read16(p.PC)
	p.PC += 2
	return v
}

func (p *Chip) addrZP() uint16 {
	return uint16(p.fetch8())
}

func (p *Chip) addrZPX() uint16 {
	return uint16(p.fetch8() + p.X)
}

func (p *Chip) addrZPY() uint16 {
	return uint16(p.fetch8() + p.Y)
}

func (p *Chip) addrAbsolute() uint16 {
	return p.fetch16()
}

func (p *Chip) addrAbsoluteX() (uint16, bool) {
	base := p.fetch16()
	addr := base + uint16(p.X)
	return addr, (base & 0xFF00) != (addr & 0xFF00)
}

func (p *Chip) addrAbsoluteY() (uint16, bool) {
	base := p.fetch16()
	addr := base + uint16(p.Y)
	return addr, (base & 0xFF00) != (addr & 0xFF00)
}

// addrIndirect implements JMP (a16). Unlike the original 6502, the
// pointer read never wraps within a page when the low byte of the
// pointer is 0xFF — the famous page-wrap bug is an explicit spec
// Non-goal, so this implements the corrected behavior instead.
func (p *Chip) addrIndirect() uint16 {
	ptr := p.fetch16()
	lo := p.bus.Read8(ptr)
	hi := p.bus.Read8(ptr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

func (p *Chip) addrIndirectX() uint16 {
	zp := p.fetch8() + p.X
	lo := p.bus.Read8(uint16(zp))
	hi := p.bus.Read8(uint16(zp + 1))
	return uint16(hi)<<8 | uint16(lo)
}

func (p *Chip) addrIndirectY() (uint16, bool) {
	zp := p.fetch8()
	lo := p.bus.Read8(uint16(zp))
	hi := p.bus.Read8(uint16(zp + 1))
	base := uint16(hi)<<8 | uint16(lo)
	addr := base + uint16(p.Y)
	return addr, (base & 0xFF00) != (addr & 0xFF00)
}
