package toyfs

import "encoding/binary"

// Superblock is the on-disk header stored in block 0. It is held in
// process memory once loaded or written; it is not re-read until restart.
type Superblock struct {
	Magic       uint32
	Size        uint32 // total blocks on the device
	NBlocks     uint32 // number of data blocks
	NInodes     uint32 // number of inodes
	InodeStart  uint32 // first inode-table block
	BitmapStart uint32 // first bitmap block
}

// Formatted reports whether the superblock carries the expected magic.
func (sb *Superblock) Formatted() bool {
	return sb.Magic == Magic
}

// MarshalBinary encodes the superblock as six little-endian uint32s,
// zero-padded to fill a full block.
func (sb *Superblock) MarshalBinary() []byte {
	buf := make([]byte, BSIZE)
	binary.LittleEndian.PutUint32(buf[0:4], sb.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], sb.Size)
	binary.LittleEndian.PutUint32(buf[8:12], sb.NBlocks)
	binary.LittleEndian.PutUint32(buf[12:16], sb.NInodes)
	binary.LittleEndian.PutUint32(buf[16:20], sb.InodeStart)
	binary.LittleEndian.PutUint32(buf[20:24], sb.BitmapStart)
	return buf
}

// UnmarshalBinary decodes a superblock from a full block previously
// produced by MarshalBinary.
func (sb *Superblock) UnmarshalBinary(buf []byte) {
	sb.Magic = binary.LittleEndian.Uint32(buf[0:4])
	sb.Size = binary.LittleEndian.Uint32(buf[4:8])
	sb.NBlocks = binary.LittleEndian.Uint32(buf[8:12])
	sb.NInodes = binary.LittleEndian.Uint32(buf[12:16])
	sb.InodeStart = binary.LittleEndian.Uint32(buf[16:20])
	sb.BitmapStart = binary.LittleEndian.Uint32(buf[20:24])
}

// nmeta returns the number of blocks occupied by the superblock, the
// inode table, and the bitmap — the range marked "in use" immediately
// after format.
func (sb *Superblock) nmeta() uint32 {
	return 1 + InodeBlocks() + bitmapBlocks(sb.Size)
}

// bitmapBlocks returns the number of blocks needed for a bitmap covering
// size blocks (one bit per block, BPB bits per block). Matches the
// reference implementation's `(fsize / BPB) + 1`, which always reserves
// one extra bitmap block even when size divides BPB evenly.
func bitmapBlocks(size uint32) uint32 {
	return size/BPB + 1
}
