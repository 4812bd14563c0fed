package toyfs

import "fmt"

// balloc scans the bitmap left-to-right for the first free data block,
// marks it used, zeroes it (callers depend on freshly allocated indirect
// blocks containing all-zero addresses), and returns its block number.
// Returns (0, ErrOutOfBlocks) when the device is full; 0 is never a valid
// data block address.
func (fs *FS) balloc() (uint32, error) {
	for i := uint32(0); i < fs.SB.Size; i += BPB {
		bno := BBlock(i, fs.SB.BitmapStart)
		buf, err := fs.bread(bno)
		if err != nil {
			return 0, err
		}
		for j := uint32(0); j < BPB && i+j < fs.SB.Size; j++ {
			mask := byte(1 << (j % 8))
			if buf[j/8]&mask == 0 {
				buf[j/8] |= mask
				if err := fs.bwrite(bno, buf); err != nil {
					return 0, err
				}
				if err := fs.bzero(i + j); err != nil {
					return 0, err
				}
				return i + j, nil
			}
		}
	}
	return 0, ErrOutOfBlocks
}

// bfree clears the bitmap bit for bno. Freeing an already-free block is
// not fatal; it only returns an error if the bitmap block itself can't be
// read or written.
func (fs *FS) bfree(bno uint32) error {
	ioBno := BBlock(bno, fs.SB.BitmapStart)
	buf, err := fs.bread(ioBno)
	if err != nil {
		return err
	}
	i := bno % BPB
	mask := byte(1 << (i % 8))
	if buf[i/8]&mask == 0 {
		// freeing an already-free block: not fatal, and not logged;
		// the caller cannot tell it apart from a normal free.
		return nil
	}
	buf[i/8] &^= mask
	return fs.bwrite(ioBno, buf)
}

// ialloc scans the inode table for the first free slot, marks it with
// the requested type, and returns a fresh in-memory snapshot.
func (fs *FS) ialloc(typ Type) (*Inode, error) {
	for i := uint32(0); i < fs.SB.NInodes; i++ {
		bno := IBlock(i, fs.SB.InodeStart)
		buf, err := fs.bread(bno)
		if err != nil {
			return nil, err
		}
		off := (i % IPB) * DinodeSize
		rec := buf[off : off+DinodeSize]
		if Type(rec[0]&0x3) == TypeFree {
			ip := &Inode{Inum: i, Type: typ}
			copy(rec, marshalDinode(ip))
			if err := fs.bwrite(bno, buf); err != nil {
				return nil, err
			}
			return ip, nil
		}
	}
	return nil, ErrOutOfInodes
}

// iget reads and validates the dinode at inum, returning a new detached
// in-memory snapshot.
func (fs *FS) iget(inum uint32) (*Inode, error) {
	if inum >= fs.SB.NInodes {
		return nil, ErrInvalidInum
	}
	bno := IBlock(inum, fs.SB.InodeStart)
	buf, err := fs.bread(bno)
	if err != nil {
		return nil, err
	}
	off := (inum % IPB) * DinodeSize
	rec := buf[off : off+DinodeSize]
	if Type(rec[0]&0x3) == TypeFree {
		return nil, fmt.Errorf("toyfs: iget(%d): %w", inum, ErrInvalidInum)
	}
	return unmarshalDinode(inum, rec), nil
}

// Iupdate writes an in-memory Inode snapshot back to its dinode block,
// refreshing Mtime to the current wall-clock time.
func (fs *FS) Iupdate(ip *Inode) error {
	ip.Mtime = now()
	bno := IBlock(ip.Inum, fs.SB.InodeStart)
	buf, err := fs.bread(bno)
	if err != nil {
		return err
	}
	off := (ip.Inum % IPB) * DinodeSize
	copy(buf[off:off+DinodeSize], marshalDinode(ip))
	return fs.bwrite(bno, buf)
}

// Iget is the exported form of iget, used by callers outside the package
// (dispatch, directory traversal) that need a fresh snapshot of a known
// inode number.
func (fs *FS) Iget(inum uint32) (*Inode, error) {
	return fs.iget(inum)
}

// Ialloc is the exported form of ialloc.
func (fs *FS) Ialloc(typ Type) (*Inode, error) {
	return fs.ialloc(typ)
}
