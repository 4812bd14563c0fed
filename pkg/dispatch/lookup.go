package dispatch

import (
	"github.com/toylabs/toyfs/pkg/toyfs"
)

// resolveChild looks up name inside dir and loads its inode, returning
// toyfs.ErrNotFound if no live entry matches.
func resolveChild(fs *toyfs.FS, dir *toyfs.Inode, name string) (*toyfs.Inode, error) {
	inum, err := fs.FindInum(dir, name)
	if err != nil {
		return nil, err
	}
	if inum == toyfs.Tombstone {
		return nil, toyfs.ErrNotFound
	}
	return fs.Iget(inum)
}

// pwdInode loads the session's current directory.
func pwdInode(fs *toyfs.FS, pwd uint32) (*toyfs.Inode, error) {
	return fs.Iget(pwd)
}
