package disassemble

import "testing"

type flatPeek [1 << 16]uint8

func (f *flatPeek) Peek(addr uint16) uint8 { return f[addr] }

func TestStepByteCounts(t *testing.T) {
	cases := []struct {
		name      string
		prog      []uint8
		wantCount int
		wantWords []string
	}{
		{"LDA immediate", []uint8{0xA9, 0x42}, 2, []string{"LDA", "#42"}},
		{"LDA absolute", []uint8{0xAD, 0x00, 0x30}, 3, []string{"LDA", "3000"}},
		{"JMP indirect", []uint8{0x6C, 0x00, 0x30}, 3, []string{"JMP", "(3000)"}},
		{"BRK", []uint8{0x00, 0x00}, 2, []string{"BRK"}},
		{"NOP", []uint8{0xEA}, 1, []string{"NOP"}},
		{"ASL accumulator", []uint8{0x0A}, 1, []string{"ASL", "A"}},
		{"unknown opcode", []uint8{0x02}, 1, []string{"???"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var mem flatPeek
			copy(mem[:], tc.prog)
			out, count := Step(0, &mem)
			if count != tc.wantCount {
				t.Fatalf("count = %d, want %d (line: %q)", count, tc.wantCount, out)
			}
			for _, word := range tc.wantWords {
				if !contains(out, word) {
					t.Fatalf("output %q missing expected substring %q", out, word)
				}
			}
		})
	}
}

func TestStepRelativeBranchTarget(t *testing.T) {
	var mem flatPeek
	mem[0x1000] = 0xF0 // BEQ
	mem[0x1001] = 0x05
	out, count := Step(0x1000, &mem)
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if !contains(out, "1007") {
		t.Fatalf("output %q missing computed branch target 0x1007", out)
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
