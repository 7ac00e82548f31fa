// Package disk implements the Disk II floppy controller: the
// stepper-motor head simulation and the 6-and-2 nibble encoder that
// turns a flat DOS-order disk image into the bit stream the Apple II
// boot ROM reads a byte at a time from $C0EC.
package disk

import "fmt"

const (
	// ImageSize is the expected size of a raw DOS-order .dsk/.do image:
	// 35 tracks * 16 sectors * 256 bytes.
	ImageSize = 35 * 16 * 256

	tracksPerDisk   = 35
	sectorsPerTrack = 16
	sectorBytes     = 256

	// nibblesPerTrack is the length of one fully-encoded track: 16
	// sectors, each gap1(48) + addr-field(14) + gap2(5) + data-field(349).
	nibblesPerTrack = 16 * (48 + 3 + 8 + 3 + 5 + 3 + 343 + 3)

	maxMotorPhase = 70
)

// ImageSizeWrong is returned by Load when the image isn't exactly
// ImageSize bytes.
type ImageSizeWrong struct {
	Got int
}

// Error implements error.
func (e ImageSizeWrong) Error() string {
	return fmt.Sprintf("disk image is %d bytes, want %d", e.Got, ImageSize)
}

// Disk emulates a single Disk II drive pair sharing one controller card,
// per spec §3/§4.2. Only drive 0 ever returns data (matching the
// original firmware's single-drive boot path); drive 1 exists only so
// DriveOn/SelectDrive bookkeeping matches real hardware.
type Disk struct {
	image   [ImageSize]byte
	loaded  bool
	nibbles [tracksPerDisk][nibblesPerTrack]byte
	encoded bool

	motorPhase int
	magnet     [4]bool

	driveOn      [2]bool
	currentDrive int
	writeMode    bool
	byteCount    int
}

// New returns a freshly powered-on, unmounted Disk controller.
func New() *Disk {
	return &Disk{}
}

// Load mounts a raw disk image. The image must be exactly ImageSize
// bytes (35 tracks * 16 sectors * 256 bytes); shorter or longer images
// are rejected. Mounting clears the nibble cache so the next read
// re-nibblizes from the new image.
func (d *Disk) Load(data []byte) error {
	if len(data) != ImageSize {
		return ImageSizeWrong{Got: len(data)}
	}
	copy(d.image[:], data)
	d.loaded = true
	d.encoded = false
	return nil
}

// Loaded reports whether a disk image is currently mounted.
func (d *Disk) Loaded() bool {
	return d.loaded
}

// Track returns the current head position, 0..34.
func (d *Disk) Track() int {
	return d.motorPhase >> 1
}

// Reset returns the controller to its power-on state without unmounting
// the current image (mirrors original_source's Disk constructor, which
// never touches the already-loaded DiskImage).
func (d *Disk) Reset() {
	d.motorPhase = 0
	d.magnet = [4]bool{}
	d.driveOn = [2]bool{}
	d.currentDrive = 0
	d.writeMode = false
	d.byteCount = 0
}

// IO implements the $C0E0-$C0EF read dispatch and the $C080-$C08F write
// dispatch, which the original firmware (and spec §4.2) treat
// identically: writes simply forward to the same handler as reads. addr
// must already be in one of those two ranges; only the low nibble is
// consulted.
func (d *Disk) IO(addr uint16) uint8 {
	switch addr & 0x0F {
	case 0x0:
		return d.setPhase(0, false, addr)
	case 0x1:
		return d.setPhase(0, true, addr)
	case 0x2:
		return d.setPhase(1, false, addr)
	case 0x3:
		return d.setPhase(1, true, addr)
	case 0x4:
		return d.setPhase(2, false, addr)
	case 0x5:
		return d.setPhase(2, true, addr)
	case 0x6:
		return d.setPhase(3, false, addr)
	case 0x7:
		return d.setPhase(3, true, addr)
	case 0x8:
		d.driveOn[d.currentDrive] = false
		return 0
	case 0x9:
		d.driveOn[d.currentDrive] = true
		return 0
	case 0xA:
		d.currentDrive = 0
		return 0
	case 0xB:
		d.currentDrive = 1
		return 0
	case 0xC:
		return d.readData()
	case 0xD:
		return 0
	case 0xE:
		d.writeMode = false
		return 0
	case 0xF:
		d.writeMode = true
		return 0
	}
	return 0
}

// setPhase turns stepper magnet `phase` on or off and moves the head
// per spec §4.2's stepper algorithm. Returns 0xFF if addr is exactly the
// phase-0 off address ($C0E0), else 0x00, matching the (admittedly odd)
// original firmware's observed return contract.
func (d *Disk) setPhase(phase int, on bool, addr uint16) uint8 {
	d.magnet[phase&3] = on

	direction := 0
	if !d.magnet[d.motorPhase&3] {
		if d.magnet[(d.motorPhase+3)&3] {
			direction--
		}
		if d.magnet[(d.motorPhase+1)&3] {
			direction++
		}
	}
	d.motorPhase += direction
	if d.motorPhase < 0 {
		d.motorPhase = 0
	}
	if d.motorPhase > maxMotorPhase {
		d.motorPhase = maxMotorPhase
	}

	if addr == 0xC0E0 {
		return 0xFF
	}
	return 0x00
}

// readData implements the $C0EC data-register read: advances byteCount
// and returns the next nibble from the current track, nibblizing lazily
// on first access.
func (d *Disk) readData() uint8 {
	if d.currentDrive != 0 || d.writeMode {
		return 0
	}
	if !d.loaded {
		return 0
	}
	if !d.encoded {
		d.encodeAll()
	}
	track := d.Track()
	val := d.nibbles[track][d.byteCount]
	d.byteCount = (d.byteCount + 1) % nibblesPerTrack
	return val
}

// encodeAll nibblizes every track of the mounted image into the nibble
// cache. Executed exactly once per mount, lazily, per spec §3.
func (d *Disk) encodeAll() {
	for track := 0; track < tracksPerDisk; track++ {
		encodeTrack(d.image[track*sectorsPerTrack*sectorBytes:], d.nibbles[track][:], byte(track))
	}
	d.encoded = true
}

// encode44 4-and-4 encodes a single byte into two self-clocking nibbles.
func encode44(b byte, out []byte) {
	out[0] = ((b >> 1) & 0x55) | 0xAA
	out[1] = (b & 0x55) | 0xAA
}

// encode62 implements the 6-and-2 codec from spec §4.2: build the
// 343-byte intermediate buffer, XOR-chain it, then map each byte through
// the disk-byte table.
func encode62(data []byte, out []byte) {
	var buf [343]byte
	for i := 0; i < 84; i++ {
		buf[i] = (reverse2(data[i]) << 0) | (reverse2(data[i+86]) << 2) | (reverse2(data[i+172]) << 4)
	}
	for i := 84; i < 86; i++ {
		buf[i] = reverse2(data[i]) | (reverse2(data[i+86]) << 2)
	}
	for i := 86; i < 342; i++ {
		buf[i] = data[i-86] >> 2
	}
	buf[342] = buf[341]

	var result [343]byte
	result[0] = buf[0]
	for i := 1; i < 342; i++ {
		result[i] = buf[i] ^ buf[i-1]
	}
	result[342] = buf[342]

	for i, r := range result {
		out[i] = sixAndTwoTable[r&0x3F]
	}
}

// reverse2 bit-reverses the low 2 bits of b, per spec's 6-and-2 codec
// ("each 2-bit field bit-reversed").
func reverse2(b byte) byte {
	lo := b & 0x03
	return ((lo & 0x01) << 1) | ((lo & 0x02) >> 1)
}

// encodeTrack nibblizes one track's worth of sectors (data must point at
// the start of that track's 16*256 raw bytes) into out, which must be at
// least nibblesPerTrack long.
func encodeTrack(data []byte, out []byte, track byte) {
	pos := 0
	const volume = byte(0xFE)

	for sector := byte(0); sector < 16; sector++ {
		physical := dosOrder[sector]

		for i := 0; i < 48; i++ {
			out[pos] = 0xFF
			pos++
		}

		out[pos], out[pos+1], out[pos+2] = 0xD5, 0xAA, 0x96
		pos += 3
		encode44(volume, out[pos:])
		encode44(track, out[pos+2:])
		encode44(sector, out[pos+4:])
		encode44(volume^track^sector, out[pos+6:])
		pos += 8
		out[pos], out[pos+1], out[pos+2] = 0xDE, 0xAA, 0xEB
		pos += 3

		for i := 0; i < 5; i++ {
			out[pos] = 0xFF
			pos++
		}

		out[pos], out[pos+1], out[pos+2] = 0xD5, 0xAA, 0xAD
		pos += 3
		encode62(data[int(physical)*sectorBytes:int(physical)*sectorBytes+sectorBytes], out[pos:pos+343])
		pos += 343
		out[pos], out[pos+1], out[pos+2] = 0xDE, 0xAA, 0xEB
		pos += 3
	}
}
