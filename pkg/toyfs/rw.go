package toyfs

// Readi reads up to n bytes starting at off into dst (which must have
// capacity n), clamping to [off, Size). Returns the actual number of
// bytes read.
func (fs *FS) Readi(ip *Inode, dst []byte, off, n uint32) (uint32, error) {
	if off > ip.Size || off+n < off {
		return 0, ErrInvalidRange
	}
	if off+n > ip.Size {
		n = ip.Size - off
	}

	var tot uint32
	for tot < n {
		bno, err := fs.Bmap(ip, off/BSIZE)
		if err != nil {
			return tot, err
		}
		buf, err := fs.bread(bno)
		if err != nil {
			return tot, err
		}
		m := min(n-tot, BSIZE-off%BSIZE)
		copy(dst[tot:tot+m], buf[off%BSIZE:off%BSIZE+m])
		tot += m
		off += m
	}
	return tot, nil
}

// Writei writes n bytes from src at offset off, allocating blocks via
// Bmap as needed. On success it updates Size (if the write extended the
// file) and Blocks, refreshes Mtime, and persists the inode with Iupdate.
func (fs *FS) Writei(ip *Inode, src []byte, off, n uint32) (uint32, error) {
	if off > ip.Size || off+n < off {
		return 0, ErrInvalidRange
	}
	if uint64(off)+uint64(n) > uint64(MaxFileBlocks)*BSIZE {
		return 0, ErrFileTooLarge
	}

	var tot uint32
	for tot < n {
		bno, err := fs.Bmap(ip, off/BSIZE)
		if err != nil {
			return tot, err
		}
		buf, err := fs.bread(bno)
		if err != nil {
			return tot, err
		}
		m := min(n-tot, BSIZE-off%BSIZE)
		copy(buf[off%BSIZE:off%BSIZE+m], src[tot:tot+m])
		if err := fs.bwrite(bno, buf); err != nil {
			return tot, err
		}
		tot += m
		off += m
	}

	if n > 0 && off > ip.Size {
		ip.Size = off
		needed := (off + BSIZE - 1) / BSIZE
		if needed > ip.Blocks {
			ip.Blocks = needed
		}
	}
	if n > 0 {
		if err := fs.Iupdate(ip); err != nil {
			return tot, err
		}
	}
	return tot, nil
}

// Itest is the post-shrink recycling check: if the true block count
// (ceil(Size/BSIZE)) is at most half of Blocks, trailing blocks are freed
// from Blocks-1 down to trueBlocks+1 and the inode is persisted.
func (fs *FS) Itest(ip *Inode) error {
	trueBlocks := (ip.Size + BSIZE - 1) / BSIZE
	if ip.Blocks == 0 || trueBlocks > ip.Blocks/2 {
		return nil
	}
	for bn := ip.Blocks - 1; bn > trueBlocks; bn-- {
		if err := fs.freeLogical(ip, bn); err != nil {
			return err
		}
	}
	ip.Blocks = trueBlocks
	return fs.Iupdate(ip)
}

// freeLogical frees the physical block mapped to logical index bn and
// clears the owning address slot, so a later write doesn't hand back a
// freed block without re-marking it in the bitmap. Used only by Itest,
// which only ever frees blocks it knows are allocated (bn < ip.Blocks).
func (fs *FS) freeLogical(ip *Inode, bn uint32) error {
	switch {
	case bn < NDIRECT:
		if ip.Addrs[bn] == 0 {
			return nil
		}
		if err := fs.bfree(ip.Addrs[bn]); err != nil {
			return err
		}
		ip.Addrs[bn] = 0
		return nil

	case bn < NDIRECT+APB:
		return fs.freeSlot(ip.Addrs[NDIRECT], bn-NDIRECT)

	default:
		k := bn - NDIRECT - APB
		a, b := k/APB, k%APB
		if ip.Addrs[NDIRECT+1] == 0 {
			return nil
		}
		dbuf, err := fs.bread(ip.Addrs[NDIRECT+1])
		if err != nil {
			return err
		}
		saddr := readAddr(dbuf, a)
		return fs.freeSlot(saddr, b)
	}
}

// freeSlot frees the data block referenced by slot bn of the indirect
// block at indirectAddr, then zeroes that slot so it won't be reused
// without going through balloc again.
func (fs *FS) freeSlot(indirectAddr, bn uint32) error {
	if indirectAddr == 0 {
		return nil
	}
	buf, err := fs.bread(indirectAddr)
	if err != nil {
		return err
	}
	addr := readAddr(buf, bn)
	if addr == 0 {
		return nil
	}
	if err := fs.bfree(addr); err != nil {
		return err
	}
	writeAddr(buf, bn, 0)
	return fs.bwrite(indirectAddr, buf)
}

func min(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
