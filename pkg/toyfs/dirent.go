package toyfs

import (
	"bytes"
	"encoding/binary"
)

// Tombstone is the sentinel inum (equal to NInodes) that marks a dirent as
// logically deleted pending compaction.
const Tombstone = NInodes

// Dirent is one 16-byte directory entry: a 4-byte inode number followed
// by a 12-byte NUL-padded name.
type Dirent struct {
	Inum uint32
	Name string
}

func marshalDirent(de Dirent) []byte {
	buf := make([]byte, DirentSize)
	binary.LittleEndian.PutUint32(buf[0:4], de.Inum)
	copy(buf[4:16], de.Name)
	return buf
}

func unmarshalDirent(buf []byte) Dirent {
	inum := binary.LittleEndian.Uint32(buf[0:4])
	name := buf[4:16]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return Dirent{Inum: inum, Name: string(name)}
}

// IsTombstone reports whether the entry has been deleted and is only
// awaiting compaction.
func (de Dirent) IsTombstone() bool { return de.Inum == Tombstone }

// ValidName reports whether name satisfies spec.md §4.4's naming rules:
// non-empty, strictly shorter than 12 bytes, doesn't start with '.', and
// isn't "/".
func ValidName(name string) bool {
	if len(name) == 0 || len(name) > MaxNameLen {
		return false
	}
	if name[0] == '.' {
		return false
	}
	if name == "/" {
		return false
	}
	return true
}
