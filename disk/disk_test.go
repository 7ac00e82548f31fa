package disk

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"
)

func testImage() []byte {
	img := make([]byte, ImageSize)
	for t := 0; t < tracksPerDisk; t++ {
		for s := 0; s < sectorsPerTrack; s++ {
			base := (t*16 + s) * sectorBytes
			for b := 0; b < sectorBytes; b++ {
				img[base+b] = byte(t ^ s ^ b)
			}
		}
	}
	return img
}

func TestLoadRejectsWrongSize(t *testing.T) {
	d := New()
	if err := d.Load(make([]byte, ImageSize-1)); err == nil {
		t.Fatalf("Load(short image): got nil error, want ImageSizeWrong")
	}
	if err := d.Load(make([]byte, ImageSize+1)); err == nil {
		t.Fatalf("Load(long image): got nil error, want ImageSizeWrong")
	}
	if err := d.Load(testImage()); err != nil {
		t.Fatalf("Load(valid image): got %v, want nil", err)
	}
	if !d.Loaded() {
		t.Fatalf("Loaded() false after successful Load")
	}
}

// TestGap1Bytes exercises scenario #4 from spec §8: the first six nibbles
// of any track's first sector must be the 0xFF self-sync run (gap 1).
func TestGap1Bytes(t *testing.T) {
	d := New()
	if err := d.Load(testImage()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	d.currentDrive = 0
	for i := 0; i < 6; i++ {
		if got := d.readData(); got != 0xFF {
			t.Fatalf("nibble %d: got 0x%.2X, want 0xFF (gap 1), state: %s", i, got, spew.Sdump(d))
		}
	}
}

// TestNibblizationRoundTrip decodes the 6-and-2 stream back into the
// original 256 bytes for every track and asserts it round-trips, per
// spec §8 invariant 5.
func TestNibblizationRoundTrip(t *testing.T) {
	img := testImage()
	d := New()
	if err := d.Load(img); err != nil {
		t.Fatalf("Load: %v", err)
	}
	d.encodeAll()

	for track := 0; track < tracksPerDisk; track++ {
		stream := d.nibbles[track][:]
		decoded, err := decodeTrack(stream)
		if err != nil {
			t.Fatalf("track %d: decode failed: %v", track, err)
		}
		want := img[track*16*sectorBytes : (track+1)*16*sectorBytes]
		if diff := deep.Equal(decoded, want); diff != nil {
			t.Fatalf("track %d: decoded data doesn't match original: %v", track, diff)
		}
	}
}

// decodeTrack reverses encodeTrack for test purposes only: given one
// track's nibble stream, reconstructs the original 16*256 logical
// sector bytes (in logical sector order), verifying encode62/encode44
// are bijective modulo the XOR chain, as spec §8 invariant 5 requires.
func decodeTrack(stream []byte) ([]byte, error) {
	out := make([]byte, 16*sectorBytes)
	pos := 0
	skipSync := func() {
		for pos < len(stream) && stream[pos] == 0xFF {
			pos++
		}
	}
	for s := 0; s < 16; s++ {
		skipSync()
		if pos+3 > len(stream) || stream[pos] != 0xD5 || stream[pos+1] != 0xAA || stream[pos+2] != 0x96 {
			return nil, errAt(pos, "address prologue")
		}
		pos += 3 + 8 + 3 // skip encoded address field + epilogue
		skipSync()
		if pos+3 > len(stream) || stream[pos] != 0xD5 || stream[pos+1] != 0xAA || stream[pos+2] != 0xAD {
			return nil, errAt(pos, "data prologue")
		}
		pos += 3

		var sixbit [343]byte
		rev := invertSixAndTwo()
		for i := 0; i < 343; i++ {
			v, ok := rev[stream[pos+i]]
			if !ok {
				return nil, errAt(pos+i, "disk byte")
			}
			sixbit[i] = v
		}
		pos += 343 + 3 // data field + epilogue

		var buf [343]byte
		buf[0] = sixbit[0]
		for i := 1; i < 342; i++ {
			buf[i] = sixbit[i] ^ buf[i-1]
		}
		buf[342] = sixbit[342]

		physical := dosOrder[s]
		sector := make([]byte, sectorBytes)
		for i := 0; i < 84; i++ {
			sector[i] |= unreverse2(buf[i] & 0x03)
			sector[i+86] |= unreverse2((buf[i] >> 2) & 0x03)
			sector[i+172] |= unreverse2((buf[i] >> 4) & 0x03)
		}
		for i := 84; i < 86; i++ {
			sector[i] |= unreverse2(buf[i] & 0x03)
			sector[i+86] |= unreverse2((buf[i] >> 2) & 0x03)
		}
		for i := 86; i < 342; i++ {
			sector[i-86] |= buf[i] << 2
		}
		copy(out[int(physical)*sectorBytes:(int(physical)+1)*sectorBytes], sector)
	}
	return out, nil
}

func unreverse2(b byte) byte {
	return reverse2(b)
}

func invertSixAndTwo() map[byte]byte {
	m := make(map[byte]byte, len(sixAndTwoTable))
	for i, v := range sixAndTwoTable {
		m[v] = byte(i)
	}
	return m
}

type decodeError struct {
	pos  int
	what string
}

func (e decodeError) Error() string {
	return spew.Sprintf("decode error at %d: %s", e.pos, e.what)
}

func errAt(pos int, what string) error {
	return decodeError{pos, what}
}

// TestStepperMonotonicity covers spec §8 invariant 6: cycling magnets
// 0->1->2->3->0 moves the head by exactly one per step; the reverse
// cycle moves it back by one; leaving all magnets off doesn't move it.
func TestStepperMonotonicity(t *testing.T) {
	d := New()

	seq := []int{1, 2, 3, 0}
	prev := d.motorPhase
	for _, magnet := range seq {
		d.setPhase((magnet+3)%4, false, 0xC0E0)
		d.setPhase(magnet, true, 0xC0E0)
		if got, want := d.motorPhase, prev+1; got != want {
			t.Fatalf("forward step to magnet %d: motorPhase = %d, want %d, state: %s", magnet, got, want, spew.Sdump(d))
		}
		prev = d.motorPhase
	}

	for _, magnet := range []int{3, 2, 1, 0} {
		d.setPhase((magnet+1)%4, false, 0xC0E0)
		d.setPhase(magnet, true, 0xC0E0)
		if got, want := d.motorPhase, prev-1; got != want {
			t.Fatalf("reverse step to magnet %d: motorPhase = %d, want %d, state: %s", magnet, got, want, spew.Sdump(d))
		}
		prev = d.motorPhase
	}

	d2 := New()
	before := d2.motorPhase
	d2.setPhase(0, false, 0xC0E0)
	d2.setPhase(1, false, 0xC0E0)
	if d2.motorPhase != before {
		t.Fatalf("all magnets off: motorPhase moved from %d to %d", before, d2.motorPhase)
	}
}

func TestByteCountWraps(t *testing.T) {
	d := New()
	if err := d.Load(testImage()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	d.currentDrive = 0
	for i := 0; i < nibblesPerTrack; i++ {
		d.readData()
	}
	if d.byteCount != 0 {
		t.Fatalf("byteCount after a full track's worth of reads = %d, want 0", d.byteCount)
	}
}

func TestDriveSelection(t *testing.T) {
	d := New()
	if got := d.IO(0xC0E9); got != 0 {
		t.Fatalf("enable drive: got %d want 0", got)
	}
	if !d.driveOn[0] {
		t.Fatalf("drive 0 not marked on after $C0E9")
	}
	d.IO(0xC0EB) // select drive 1
	if d.currentDrive != 1 {
		t.Fatalf("currentDrive = %d, want 1", d.currentDrive)
	}
}
