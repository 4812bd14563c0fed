package toyfs

// readEntries reads the full packed entry list of a directory inode.
func (fs *FS) readEntries(dir *Inode) ([]Dirent, error) {
	n := dir.Size / DirentSize
	entries := make([]Dirent, 0, n)
	buf := make([]byte, dir.Size)
	if dir.Size > 0 {
		if _, err := fs.Readi(dir, buf, 0, dir.Size); err != nil {
			return nil, err
		}
	}
	for i := uint32(0); i < n; i++ {
		off := i * DirentSize
		entries = append(entries, unmarshalDirent(buf[off:off+DirentSize]))
	}
	return entries, nil
}

// ReadDirEntries returns the full packed entry list of a directory
// inode, tombstones included, for callers that need to enumerate or
// filter it themselves (ls, rmdir's emptiness check).
func (fs *FS) ReadDirEntries(dir *Inode) ([]Dirent, error) {
	return fs.readEntries(dir)
}

// appendEntry appends one dirent to the end of dir's body.
func (fs *FS) appendEntry(dir *Inode, de Dirent) error {
	_, err := fs.Writei(dir, marshalDirent(de), dir.Size, DirentSize)
	return err
}

// FindInum linearly scans dir for the first non-tombstone entry named
// name, returning Tombstone (NInodes) if none matches.
func (fs *FS) FindInum(dir *Inode, name string) (uint32, error) {
	entries, err := fs.readEntries(dir)
	if err != nil {
		return 0, err
	}
	for _, de := range entries {
		if de.IsTombstone() {
			continue
		}
		if de.Name == name {
			return de.Inum, nil
		}
	}
	return Tombstone, nil
}

// DelInum marks every entry in dir matching inum as a tombstone, writing
// back only the affected 16-byte slots. If more than half the entries are
// now tombstones, the directory is compacted: live entries are packed to
// the front, Size is set to the live count * 16, and Itest is invoked.
func (fs *FS) DelInum(dir *Inode, inum uint32) error {
	entries, err := fs.readEntries(dir)
	if err != nil {
		return err
	}

	tombstones := 0
	for i, de := range entries {
		if de.IsTombstone() {
			tombstones++
			continue
		}
		if de.Inum == inum {
			off := uint32(i) * DirentSize
			tomb := Dirent{Inum: Tombstone}
			if _, err := fs.Writei(dir, marshalDirent(tomb), off, DirentSize); err != nil {
				return err
			}
			entries[i] = tomb
			tombstones++
		}
	}

	if tombstones*2 <= len(entries) {
		return nil
	}
	return fs.compact(dir, entries)
}

// compact rewrites dir's body with tombstones dropped, packs live entries
// to the front, shrinks Size, and invokes Itest to recycle trailing
// blocks.
func (fs *FS) compact(dir *Inode, entries []Dirent) error {
	live := entries[:0]
	for _, de := range entries {
		if !de.IsTombstone() {
			live = append(live, de)
		}
	}

	buf := make([]byte, len(live)*DirentSize)
	for i, de := range live {
		copy(buf[i*DirentSize:(i+1)*DirentSize], marshalDirent(de))
	}
	if _, err := fs.Writei(dir, buf, 0, uint32(len(buf))); err != nil {
		return err
	}
	dir.Size = uint32(len(buf))
	if err := fs.Iupdate(dir); err != nil {
		return err
	}
	return fs.Itest(dir)
}

// Icreate allocates a new inode of the given type, initializes it, wires
// up "." and ".." for directories, and — unless this is the root (parent
// == self) — appends a (inum, name) entry to parent.
func (fs *FS) Icreate(typ Type, name string, parent *Inode, uid uint16, mode uint8) (*Inode, error) {
	ip, err := fs.ialloc(typ)
	if err != nil {
		return nil, err
	}
	ip.Mode = mode
	ip.UID = uid
	ip.NLink = 1
	ip.Size = 0
	ip.Blocks = 0

	if typ == TypeDir {
		var parentInum uint32
		if parent != nil {
			parentInum = parent.Inum
		} else {
			parentInum = ip.Inum
		}
		if err := fs.appendEntry(ip, Dirent{Inum: ip.Inum, Name: "."}); err != nil {
			return nil, err
		}
		if err := fs.appendEntry(ip, Dirent{Inum: parentInum, Name: ".."}); err != nil {
			return nil, err
		}
	} else if err := fs.Iupdate(ip); err != nil {
		return nil, err
	}

	if parent != nil && parent.Inum != ip.Inum {
		if err := fs.appendEntry(parent, Dirent{Inum: ip.Inum, Name: name}); err != nil {
			return nil, err
		}
	}

	return ip, nil
}
