package toyfs

import "testing"

// memDevice is a minimal in-memory block.Device for unit tests that
// want to drive the filesystem core without going through the wire
// protocol at all.
type memDevice struct {
	ncyl, nsec int
	blocks     [][]byte
}

func newMemDevice(ncyl, nsec int) *memDevice {
	blocks := make([][]byte, ncyl*nsec)
	for i := range blocks {
		blocks[i] = make([]byte, BSIZE)
	}
	return &memDevice{ncyl: ncyl, nsec: nsec, blocks: blocks}
}

func (d *memDevice) Info() (int, int, error) { return d.ncyl, d.nsec, nil }

func (d *memDevice) ReadAt(bno uint32, buf []byte) error {
	copy(buf, d.blocks[bno])
	return nil
}

func (d *memDevice) WriteAt(bno uint32, buf []byte) error {
	copy(d.blocks[bno], buf)
	return nil
}

// newFormattedFS returns an FS over a fresh in-memory device, already
// formatted, with a deterministic clock.
func newFormattedFS(t *testing.T, ncyl, nsec int) *FS {
	t.Helper()
	now = func() uint32 { return 1700000000 }
	fs := New(newMemDevice(ncyl, nsec))
	if err := fs.Format(); err != nil {
		t.Fatalf("format: %v", err)
	}
	return fs
}
