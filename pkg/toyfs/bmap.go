package toyfs

import "encoding/binary"

// Bmap translates a logical block index into a physical block number,
// lazily allocating any missing level of the direct/single-indirect/
// double-indirect map on the way. It never updates ip.Blocks — writei
// does that once the write actually lands. Returns 0 for bn past
// MaxFileBlocks.
func (fs *FS) Bmap(ip *Inode, bn uint32) (uint32, error) {
	switch {
	case bn < NDIRECT:
		if ip.Addrs[bn] == 0 {
			addr, err := fs.balloc()
			if err != nil {
				return 0, err
			}
			ip.Addrs[bn] = addr
		}
		return ip.Addrs[bn], nil

	case bn < NDIRECT+APB:
		return fs.bmapIndirect(&ip.Addrs[NDIRECT], bn-NDIRECT)

	case bn < MaxFileBlocks:
		k := bn - NDIRECT - APB
		a, b := k/APB, k%APB

		if ip.Addrs[NDIRECT+1] == 0 {
			addr, err := fs.balloc()
			if err != nil {
				return 0, err
			}
			ip.Addrs[NDIRECT+1] = addr
		}
		daddr := ip.Addrs[NDIRECT+1]

		saddr, err := fs.resolveSlot(daddr, a)
		if err != nil {
			return 0, err
		}
		return fs.resolveSlot(saddr, b)

	default:
		return 0, nil
	}
}

// bmapIndirect resolves slot bn within the single-indirect block whose
// address is stored at *indirect, allocating the indirect block itself
// and/or the target data block as needed.
func (fs *FS) bmapIndirect(indirect *uint32, bn uint32) (uint32, error) {
	if *indirect == 0 {
		addr, err := fs.balloc()
		if err != nil {
			return 0, err
		}
		*indirect = addr
	}
	return fs.resolveSlot(*indirect, bn)
}

// resolveSlot reads the indirect block at addr, allocates slot bn if
// unset, writes the indirect block back on change, and returns the
// resolved address.
func (fs *FS) resolveSlot(indirectAddr, bn uint32) (uint32, error) {
	buf, err := fs.bread(indirectAddr)
	if err != nil {
		return 0, err
	}
	addr := readAddr(buf, bn)
	if addr == 0 {
		addr, err = fs.balloc()
		if err != nil {
			return 0, err
		}
		writeAddr(buf, bn, addr)
		if err := fs.bwrite(indirectAddr, buf); err != nil {
			return 0, err
		}
	}
	return addr, nil
}

// readAddr/writeAddr access the bn'th 32-bit address slot of an indirect
// block buffer.
func readAddr(buf []byte, bn uint32) uint32 {
	return binary.LittleEndian.Uint32(buf[bn*4 : bn*4+4])
}

func writeAddr(buf []byte, bn, addr uint32) {
	binary.LittleEndian.PutUint32(buf[bn*4:bn*4+4], addr)
}
