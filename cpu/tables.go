package cpu

// baseCycles gives the base cycle count for every opcode, indexed by
// opcode byte. A 0 entry marks a slot with no documented 6502
// instruction — per spec §7, those are reported as an UnknownOpcode
// diagnostic rather than executed.
//
// Taken verbatim from the original emulator's cycleCount table: the
// undocumented-opcode Non-goal means we never dispatch those slots, but
// the literal table is preserved anyway since spec §9 calls out keeping
// the 256-entry cycle tables as literal data rather than recomputing
// them from addressing mode logic.
var baseCycles = [256]int{
	//  0  1  2  3  4  5  6  7  8  9  a  b  c  d  e  f
	7, 6, 0, 0, 0, 3, 5, 0, 3, 2, 2, 0, 0, 4, 6, 0, // 0
	2, 5, 0, 0, 0, 4, 6, 0, 2, 4, 0, 0, 0, 4, 7, 0, // 1
	6, 6, 0, 0, 3, 3, 5, 0, 4, 2, 2, 0, 4, 4, 6, 0, // 2
	2, 5, 0, 0, 0, 4, 6, 0, 2, 4, 0, 0, 0, 4, 7, 0, // 3
	6, 6, 0, 0, 0, 3, 5, 0, 3, 2, 2, 0, 3, 4, 6, 0, // 4
	2, 5, 0, 0, 0, 4, 6, 0, 2, 4, 0, 0, 0, 4, 7, 0, // 5
	6, 6, 0, 0, 0, 3, 5, 0, 4, 2, 2, 0, 5, 4, 6, 0, // 6
	2, 5, 0, 0, 0, 4, 6, 0, 2, 4, 0, 0, 0, 4, 7, 0, // 7
	0, 6, 0, 0, 3, 3, 3, 0, 2, 0, 2, 0, 4, 4, 4, 0, // 8
	2, 6, 0, 0, 4, 4, 4, 0, 2, 5, 2, 0, 0, 5, 0, 0, // 9
	2, 6, 2, 0, 3, 3, 3, 0, 2, 2, 2, 0, 4, 4, 4, 0, // a
	2, 5, 0, 0, 4, 4, 4, 0, 2, 4, 2, 0, 4, 4, 4, 0, // b
	2, 6, 0, 0, 3, 3, 5, 0, 2, 2, 2, 0, 4, 4, 6, 0, // c
	2, 5, 0, 0, 0, 4, 6, 0, 2, 4, 0, 0, 0, 4, 7, 0, // d
	2, 6, 0, 0, 3, 3, 5, 0, 2, 2, 2, 0, 4, 4, 6, 0, // e
	2, 5, 0, 0, 0, 4, 6, 0, 2, 4, 0, 0, 0, 4, 7, 0, // f
}

// pageCrossExtra marks opcodes whose base cycle count above doesn't
// include the extra cycle indexed-addressing modes take when the
// index crosses a page boundary. Also transcribed verbatim from the
// original emulator's pageCrossOpcodes table.
var pageCrossExtra = [256]bool{
	false, false, false, false, false, false, false, false, false, false, false, false, false, false, false, false,
	true, true, false, false, false, false, false, false, false, true, false, false, false, true, false, false,
	false, false, false, false, false, false, false, false, false, false, false, false, false, false, false, false,
	true, true, false, false, false, false, false, false, false, true, false, false, false, true, false, false,
	false, false, false, false, false, false, false, false, false, false, false, false, false, false, false, false,
	true, true, false, false, false, false, false, false, false, true, false, false, false, true, false, false,
	false, false, false, false, false, false, false, false, false, false, false, false, false, false, false, false,
	true, true, false, false, false, false, false, false, false, true, false, false, false, true, false, false,
	false, false, false, false, false, false, false, false, false, false, false, false, false, false, false, false,
	true, false, false, false, false, false, false, false, false, false, false, false, false, false, false, false,
	false, false, false, false, false, false, false, false, false, false, false, false, false, false, false, false,
	true, true, false, false, false, false, false, false, false, true, false, false, true, true, true, false,
	false, false, false, false, false, false, false, false, false, false, false, false, false, false, false, false,
	true, true, false, false, false, false, false, false, false, true, false, false, false, true, false, false,
	false, false, false, false, false, false, false, false, false, false, false, false, false, false, false, false,
	true, true, false, false, false, false, false, false, false, true, false, false, false, true, false, false,
}
