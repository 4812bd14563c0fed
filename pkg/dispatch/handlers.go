package dispatch

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/toylabs/toyfs/pkg/session"
	"github.com/toylabs/toyfs/pkg/toyfs"
)

// handlerFunc implements one command. rest is everything on the line
// after the command word, unsplit, so handlers that take free-form data
// (w/i) can parse it themselves without losing embedded spaces.
type handlerFunc func(fs *toyfs.FS, sess *session.Session, rest string) Response

func handleLogin(fs *toyfs.FS, sess *session.Session, rest string) Response {
	fields := strings.Fields(rest)
	if len(fields) != 1 {
		return no("Usage: login <uid>")
	}
	uid, err := strconv.Atoi(fields[0])
	if err != nil || uid < 1 || uid >= toyfs.NInodes {
		return no("Usage: login <uid>")
	}
	sess.UID = uint16(uid)
	return linef("Hello, uid=%d!", uid)
}

func handleFormat(fs *toyfs.FS, sess *session.Session, rest string) Response {
	if err := fs.Format(); err != nil {
		return no(err.Error())
	}
	sess.PWD = toyfs.RootInum
	return line("Done")
}

func handleMk(fs *toyfs.FS, sess *session.Session, rest string) Response {
	return create(fs, sess, rest, toyfs.TypeFile)
}

func handleMkdir(fs *toyfs.FS, sess *session.Session, rest string) Response {
	return create(fs, sess, rest, toyfs.TypeDir)
}

func create(fs *toyfs.FS, sess *session.Session, rest string, typ toyfs.Type) Response {
	fields := strings.Fields(rest)
	if len(fields) < 1 || len(fields) > 2 {
		return no("Usage: <name> [mode]")
	}
	name := fields[0]
	mode := uint8(toyfs.ModeDefaultFile)
	if len(fields) == 2 {
		m, err := strconv.Atoi(fields[1])
		if err != nil || m < 0 || m > 0b1111 {
			return no("Usage: <name> [mode]")
		}
		mode = uint8(m)
	}
	if !toyfs.ValidName(name) {
		return errorResponse(toyfs.ErrInvalidName)
	}

	dir, err := pwdInode(fs, sess.PWD)
	if err != nil {
		return errorResponse(err)
	}
	if !toyfs.CanWrite(dir.Mode, dir.UID, sess.UID) {
		return errorResponse(toyfs.ErrPermission)
	}
	if inum, err := fs.FindInum(dir, name); err != nil {
		return errorResponse(err)
	} else if inum != toyfs.Tombstone {
		return errorResponse(toyfs.ErrExists)
	}

	if _, err := fs.Icreate(typ, name, dir, sess.UID, mode); err != nil {
		return errorResponse(err)
	}
	return ok()
}

func handleRm(fs *toyfs.FS, sess *session.Session, rest string) Response {
	return remove(fs, sess, rest, toyfs.TypeFile)
}

func handleRmdir(fs *toyfs.FS, sess *session.Session, rest string) Response {
	return remove(fs, sess, rest, toyfs.TypeDir)
}

func remove(fs *toyfs.FS, sess *session.Session, rest string, typ toyfs.Type) Response {
	fields := strings.Fields(rest)
	if len(fields) != 1 {
		return no("Usage: <name>")
	}
	name := fields[0]

	dir, err := pwdInode(fs, sess.PWD)
	if err != nil {
		return errorResponse(err)
	}
	if !toyfs.CanWrite(dir.Mode, dir.UID, sess.UID) {
		return errorResponse(toyfs.ErrPermission)
	}
	if typ == toyfs.TypeDir && !toyfs.CanRead(dir.Mode, dir.UID, sess.UID) {
		return errorResponse(toyfs.ErrPermission)
	}
	target, err := resolveChild(fs, dir, name)
	if err != nil {
		return errorResponse(err)
	}
	if target.Type != typ {
		if typ == toyfs.TypeFile {
			return errorResponse(toyfs.ErrNotFile)
		}
		return errorResponse(toyfs.ErrNotDir)
	}
	if typ == toyfs.TypeDir && !toyfs.CanRead(target.Mode, target.UID, sess.UID) {
		return errorResponse(toyfs.ErrPermission)
	}
	if !toyfs.CanWrite(target.Mode, target.UID, sess.UID) {
		return errorResponse(toyfs.ErrPermission)
	}
	if typ == toyfs.TypeDir {
		entries, err := fs.ReadDirEntries(target)
		if err != nil {
			return errorResponse(err)
		}
		for _, de := range entries {
			if de.IsTombstone() || de.Name == "." || de.Name == ".." {
				continue
			}
			return errorResponse(toyfs.ErrNotEmpty)
		}
		if err := fs.Itrunc(target); err != nil {
			return errorResponse(err)
		}
	} else {
		target.NLink--
		if target.NLink == 0 {
			if err := fs.Itrunc(target); err != nil {
				return errorResponse(err)
			}
			target.Type = toyfs.TypeFree
		}
		if err := fs.Iupdate(target); err != nil {
			return errorResponse(err)
		}
	}

	if err := fs.DelInum(dir, target.Inum); err != nil {
		return errorResponse(err)
	}
	return ok()
}

func handleCd(fs *toyfs.FS, sess *session.Session, rest string) Response {
	fields := strings.Fields(rest)
	if len(fields) != 1 {
		return no("Usage: <path>")
	}
	path := fields[0]
	saved := sess.PWD

	cur := sess.PWD
	if strings.HasPrefix(path, "/") {
		cur = toyfs.RootInum
	}
	for _, name := range strings.Split(path, "/") {
		if name == "" {
			continue
		}
		dir, err := fs.Iget(cur)
		if err != nil {
			sess.PWD = saved
			return errorResponse(err)
		}
		if !toyfs.CanRead(dir.Mode, dir.UID, sess.UID) {
			sess.PWD = saved
			return errorResponse(toyfs.ErrPermission)
		}
		next, err := resolveChild(fs, dir, name)
		if err != nil {
			sess.PWD = saved
			return errorResponse(err)
		}
		if !next.IsDir() {
			sess.PWD = saved
			return errorResponse(toyfs.ErrNotDir)
		}
		cur = next.Inum
	}
	sess.PWD = cur
	return ok()
}

func handleLs(fs *toyfs.FS, sess *session.Session, rest string) Response {
	dir, err := pwdInode(fs, sess.PWD)
	if err != nil {
		return errorResponse(err)
	}
	if !toyfs.CanRead(dir.Mode, dir.UID, sess.UID) {
		return errorResponse(toyfs.ErrPermission)
	}

	entries, err := fs.ReadDirEntries(dir)
	if err != nil {
		return errorResponse(err)
	}

	type row struct {
		ip   *toyfs.Inode
		name string
	}
	rows := make([]row, 0, len(entries))
	for _, de := range entries {
		if de.IsTombstone() || de.Name == "." || de.Name == ".." {
			continue
		}
		ip, err := fs.Iget(de.Inum)
		if err != nil {
			continue
		}
		rows = append(rows, row{ip: ip, name: de.Name})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ip.IsDir() != rows[j].ip.IsDir() {
			return rows[i].ip.IsDir()
		}
		return rows[i].name < rows[j].name
	})

	var b strings.Builder
	b.WriteString("MODE       UID   MTIME        SIZE  NAME\n")
	for _, r := range rows {
		mtime := time.Unix(int64(r.ip.Mtime), 0).UTC().Format("01-02 15:04")
		fmt.Fprintf(&b, "%-5s %5d  %s %8d  %s\n",
			toyfs.ModeString(r.ip.Type, r.ip.Mode), r.ip.UID, mtime, r.ip.Size, r.name)
	}
	return Response{Data: []byte(b.String())}
}

func handleCat(fs *toyfs.FS, sess *session.Session, rest string) Response {
	fields := strings.Fields(rest)
	if len(fields) != 1 {
		return no("Usage: <name>")
	}
	name := fields[0]

	dir, err := pwdInode(fs, sess.PWD)
	if err != nil {
		return errorResponse(err)
	}
	target, err := resolveChild(fs, dir, name)
	if err != nil {
		return errorResponse(err)
	}
	if !target.IsFile() {
		return errorResponse(toyfs.ErrNotFile)
	}
	if !toyfs.CanRead(target.Mode, target.UID, sess.UID) {
		return errorResponse(toyfs.ErrPermission)
	}

	buf := make([]byte, target.Size)
	if target.Size > 0 {
		if _, err := fs.Readi(target, buf, 0, target.Size); err != nil {
			return errorResponse(err)
		}
	}
	buf = append(buf, '\n')
	return Response{Data: buf}
}

func handleW(fs *toyfs.FS, sess *session.Session, rest string) Response {
	fields := strings.SplitN(rest, " ", 3)
	if len(fields) < 2 {
		return no("Usage: <name> <len> <data>")
	}
	name := fields[0]
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 || n > 512 {
		return no("Usage: <name> <len> <data>")
	}
	data := ""
	if len(fields) == 3 {
		data = fields[2]
	}
	if len(data) < n {
		return no("Usage: <name> <len> <data>")
	}

	target, err := lookupWritableFile(fs, sess, name)
	if err != nil {
		return errorResponse(err)
	}

	if _, err := fs.Writei(target, []byte(data[:n]), 0, uint32(n)); err != nil {
		return errorResponse(err)
	}
	if uint32(n) < target.Size {
		target.Size = uint32(n)
		if err := fs.Iupdate(target); err != nil {
			return errorResponse(err)
		}
		if err := fs.Itest(target); err != nil {
			return errorResponse(err)
		}
	}
	return ok()
}

func handleI(fs *toyfs.FS, sess *session.Session, rest string) Response {
	fields := strings.SplitN(rest, " ", 4)
	if len(fields) < 3 {
		return no("Usage: <name> <pos> <len> <data>")
	}
	name := fields[0]
	pos, err1 := strconv.Atoi(fields[1])
	length, err2 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || pos < 0 || length < 0 {
		return no("Usage: <name> <pos> <len> <data>")
	}
	data := ""
	if len(fields) == 4 {
		data = fields[3]
	}
	if len(data) < length {
		return no("Usage: <name> <pos> <len> <data>")
	}
	data = data[:length]

	target, err := lookupWritableFile(fs, sess, name)
	if err != nil {
		return errorResponse(err)
	}

	size := target.Size
	if uint32(pos) >= size {
		if _, err := fs.Writei(target, []byte(data), size, uint32(length)); err != nil {
			return errorResponse(err)
		}
		return ok()
	}

	suffix := make([]byte, size-uint32(pos))
	if _, err := fs.Readi(target, suffix, uint32(pos), size-uint32(pos)); err != nil {
		return errorResponse(err)
	}
	if _, err := fs.Writei(target, []byte(data), uint32(pos), uint32(length)); err != nil {
		return errorResponse(err)
	}
	if _, err := fs.Writei(target, suffix, uint32(pos)+uint32(length), uint32(len(suffix))); err != nil {
		return errorResponse(err)
	}
	return ok()
}

func handleD(fs *toyfs.FS, sess *session.Session, rest string) Response {
	fields := strings.Fields(rest)
	if len(fields) != 3 {
		return no("Usage: <name> <pos> <len>")
	}
	name := fields[0]
	pos, err1 := strconv.Atoi(fields[1])
	length, err2 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil || pos < 0 || length < 0 {
		return no("Usage: <name> <pos> <len>")
	}

	target, err := lookupWritableFile(fs, sess, name)
	if err != nil {
		return errorResponse(err)
	}

	size := target.Size
	if uint32(pos)+uint32(length) >= size {
		target.Size = uint32(pos)
		if err := fs.Iupdate(target); err != nil {
			return errorResponse(err)
		}
		return ok()
	}

	tail := make([]byte, size-uint32(pos)-uint32(length))
	if _, err := fs.Readi(target, tail, uint32(pos)+uint32(length), uint32(len(tail))); err != nil {
		return errorResponse(err)
	}
	if _, err := fs.Writei(target, tail, uint32(pos), uint32(len(tail))); err != nil {
		return errorResponse(err)
	}
	target.Size = size - uint32(length)
	if err := fs.Iupdate(target); err != nil {
		return errorResponse(err)
	}
	if err := fs.Itest(target); err != nil {
		return errorResponse(err)
	}
	return ok()
}

// lookupWritableFile resolves name in the session's pwd, checks it is a
// file, and checks the acting uid may write it.
func lookupWritableFile(fs *toyfs.FS, sess *session.Session, name string) (*toyfs.Inode, error) {
	dir, err := pwdInode(fs, sess.PWD)
	if err != nil {
		return nil, err
	}
	target, err := resolveChild(fs, dir, name)
	if err != nil {
		return nil, err
	}
	if !target.IsFile() {
		return nil, toyfs.ErrNotFile
	}
	if !toyfs.CanWrite(target.Mode, target.UID, sess.UID) {
		return nil, toyfs.ErrPermission
	}
	return target, nil
}
