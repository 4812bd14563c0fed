package toyfs

import (
	"fmt"
	"time"

	"github.com/toylabs/toyfs/pkg/block"
)

// FS ties a block device to an in-memory superblock snapshot and
// implements every operation in spec.md §4.2-§4.4: the bitmap/inode
// allocator, the block map, readi/writei/itrunc/itest, and the directory
// layer. FS itself holds no session state — pwd/uid live in
// session.Session, one per connection.
type FS struct {
	Dev block.Device
	SB  Superblock
}

// New wraps a device with an (as yet unformatted, or freshly loaded)
// superblock.
func New(dev block.Device) *FS {
	return &FS{Dev: dev}
}

// Load reads block 0 into the superblock snapshot. Called once at
// startup; the spec requires no implicit format.
func (fs *FS) Load() error {
	buf := make([]byte, BSIZE)
	if err := fs.Dev.ReadAt(0, buf); err != nil {
		return fmt.Errorf("toyfs: load superblock: %w", err)
	}
	fs.SB.UnmarshalBinary(buf)
	return nil
}

// Formatted reports whether the in-memory superblock snapshot carries the
// expected magic.
func (fs *FS) Formatted() bool {
	return fs.SB.Formatted()
}

func (fs *FS) bread(bno uint32) ([]byte, error) {
	buf := make([]byte, BSIZE)
	if err := fs.Dev.ReadAt(bno, buf); err != nil {
		return nil, fmt.Errorf("toyfs: bread(%d): %w", bno, err)
	}
	return buf, nil
}

func (fs *FS) bwrite(bno uint32, buf []byte) error {
	if err := fs.Dev.WriteAt(bno, buf); err != nil {
		return fmt.Errorf("toyfs: bwrite(%d): %w", bno, err)
	}
	return nil
}

func (fs *FS) bzero(bno uint32) error {
	return fs.bwrite(bno, make([]byte, BSIZE))
}

// now is overridden in tests that need deterministic mtimes.
var now = func() uint32 { return uint32(time.Now().Unix()) }
