package toyfs

import "encoding/binary"

// Inode is a detached in-memory snapshot of a dinode record. It mirrors
// the on-disk fields plus the inode number it was read from. Mutating an
// Inode has no effect on disk until FS.Iupdate writes it back; there is
// no shared inode cache, so concurrent edits to the same inode from two
// sessions race (this matches the single-threaded-dispatch assumption in
// spec.md §5).
type Inode struct {
	Inum uint32

	Type  Type
	Mode  uint8 // 4 bits: ownerR ownerW otherR otherW
	UID   uint16
	NLink uint16
	Mtime uint32
	Size  uint32
	Blocks uint32

	// Addrs holds NDIRECT direct block numbers, one single-indirect
	// pointer, and one double-indirect pointer. Zero means unallocated.
	Addrs [NDIRECT + 2]uint32
}

// marshalDinode packs an Inode into a DinodeSize-byte on-disk record. The
// first word packs type:2 | mode:4 | uid:10, low bits first.
func marshalDinode(ip *Inode) []byte {
	buf := make([]byte, DinodeSize)
	word := uint16(ip.Type&0x3) | (uint16(ip.Mode&0xf) << 2) | (uint16(ip.UID&0x3ff) << 6)
	binary.LittleEndian.PutUint16(buf[0:2], word)
	binary.LittleEndian.PutUint16(buf[2:4], ip.NLink)
	binary.LittleEndian.PutUint32(buf[4:8], ip.Mtime)
	binary.LittleEndian.PutUint32(buf[8:12], ip.Size)
	binary.LittleEndian.PutUint32(buf[12:16], ip.Blocks)
	for i, a := range ip.Addrs {
		off := 16 + i*4
		binary.LittleEndian.PutUint32(buf[off:off+4], a)
	}
	return buf
}

// unmarshalDinode decodes a DinodeSize-byte on-disk record starting at
// buf into an Inode with the given inode number.
func unmarshalDinode(inum uint32, buf []byte) *Inode {
	word := binary.LittleEndian.Uint16(buf[0:2])
	ip := &Inode{
		Inum:  inum,
		Type:  Type(word & 0x3),
		Mode:  uint8((word >> 2) & 0xf),
		UID:   (word >> 6) & 0x3ff,
		NLink: binary.LittleEndian.Uint16(buf[2:4]),
		Mtime: binary.LittleEndian.Uint32(buf[4:8]),
		Size:  binary.LittleEndian.Uint32(buf[8:12]),
		Blocks: binary.LittleEndian.Uint32(buf[12:16]),
	}
	for i := range ip.Addrs {
		off := 16 + i*4
		ip.Addrs[i] = binary.LittleEndian.Uint32(buf[off : off+4])
	}
	return ip
}

// IsDir reports whether the inode is a directory.
func (ip *Inode) IsDir() bool { return ip.Type == TypeDir }

// IsFile reports whether the inode is a regular file.
func (ip *Inode) IsFile() bool { return ip.Type == TypeFile }
