package toyfs

import "fmt"

// Format lays down a fresh superblock, zeroes the inode table and
// bitmap, marks the meta range in-use, and creates the root directory
// (inode 0) owned by uid 0 with full owner+other read/write. It is
// idempotent: running it again re-zeroes everything from scratch.
func (fs *FS) Format() error {
	ncyl, nsec, err := fs.Dev.Info()
	if err != nil {
		return fmt.Errorf("toyfs: format: %w", err)
	}
	size := uint32(ncyl * nsec)

	inodeBlocks := InodeBlocks()
	sb := Superblock{
		Magic:       Magic,
		Size:        size,
		NInodes:     NInodes,
		InodeStart:  1,
		BitmapStart: 1 + inodeBlocks,
	}
	sb.NBlocks = size - sb.nmeta()
	nmeta := sb.nmeta()

	if err := fs.bwrite(0, sb.MarshalBinary()); err != nil {
		return err
	}

	zero := make([]byte, BSIZE)
	for b := uint32(0); b < inodeBlocks; b++ {
		if err := fs.bwrite(sb.InodeStart+b, zero); err != nil {
			return err
		}
	}

	nbitmapBlocks := bitmapBlocks(size)
	for b := uint32(0); b < nbitmapBlocks; b++ {
		if err := fs.bwrite(sb.BitmapStart+b, zero); err != nil {
			return err
		}
	}
	for i := uint32(0); i < nmeta; i += BPB {
		buf := make([]byte, BSIZE)
		for j := uint32(0); j < BPB && i+j < nmeta; j++ {
			buf[j/8] |= 1 << (j % 8)
		}
		if err := fs.bwrite(BBlock(i, sb.BitmapStart), buf); err != nil {
			return err
		}
	}

	fs.SB = sb

	if _, err := fs.Icreate(TypeDir, "", nil, 0, ModeRoot); err != nil {
		return fmt.Errorf("toyfs: format: create root: %w", err)
	}
	return nil
}
