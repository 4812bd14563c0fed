package toyfs

import "testing"

func TestIcreateRootHasSelfAndParent(t *testing.T) {
	fs := newFormattedFS(t, 16, 32)
	root, err := fs.Iget(RootInum)
	if err != nil {
		t.Fatalf("iget root: %v", err)
	}
	entries, err := fs.ReadDirEntries(root)
	if err != nil {
		t.Fatalf("read root entries: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "." || entries[1].Name != ".." {
		t.Fatalf("root directory missing '.'/'..' entries: %+v", entries)
	}
	if entries[0].Inum != RootInum || entries[1].Inum != RootInum {
		t.Fatalf("root's '.' and '..' must both point at itself")
	}
}

func TestIcreateFileAppendsToParent(t *testing.T) {
	fs := newFormattedFS(t, 16, 32)
	root, err := fs.Iget(RootInum)
	if err != nil {
		t.Fatalf("iget root: %v", err)
	}

	ip, err := fs.Icreate(TypeFile, "foo", root, 1, ModeDefaultFile)
	if err != nil {
		t.Fatalf("icreate: %v", err)
	}

	root, _ = fs.Iget(RootInum) // re-read, appendEntry mutated the parent on disk
	inum, err := fs.FindInum(root, "foo")
	if err != nil {
		t.Fatalf("findinum: %v", err)
	}
	if inum != ip.Inum {
		t.Fatalf("findinum returned %d, want %d", inum, ip.Inum)
	}
}

func TestFindInumMissReturnsTombstone(t *testing.T) {
	fs := newFormattedFS(t, 16, 32)
	root, _ := fs.Iget(RootInum)
	inum, err := fs.FindInum(root, "nope")
	if err != nil {
		t.Fatalf("findinum: %v", err)
	}
	if inum != Tombstone {
		t.Fatalf("expected Tombstone for a miss, got %d", inum)
	}
}

func TestMkThenRmLeavesNoLiveEntryAndFreesInode(t *testing.T) {
	fs := newFormattedFS(t, 16, 32)
	root, _ := fs.Iget(RootInum)

	ip, err := fs.Icreate(TypeFile, "foo", root, 1, ModeDefaultFile)
	if err != nil {
		t.Fatalf("icreate: %v", err)
	}

	root, _ = fs.Iget(RootInum)
	ip.NLink--
	if ip.NLink == 0 {
		if err := fs.Itrunc(ip); err != nil {
			t.Fatalf("itrunc: %v", err)
		}
		ip.Type = TypeFree
	}
	if err := fs.Iupdate(ip); err != nil {
		t.Fatalf("iupdate: %v", err)
	}
	if err := fs.DelInum(root, ip.Inum); err != nil {
		t.Fatalf("delinum: %v", err)
	}

	root, _ = fs.Iget(RootInum)
	inum, err := fs.FindInum(root, "foo")
	if err != nil {
		t.Fatalf("findinum: %v", err)
	}
	if inum != Tombstone {
		t.Fatalf("expected foo to be gone, found inum %d", inum)
	}

	reread, err := fs.Iget(ip.Inum)
	if err == nil {
		t.Fatalf("expected iget on freed inode to fail, got %+v", reread)
	}
}

func TestDirectoryCompactionShrinksSize(t *testing.T) {
	fs := newFormattedFS(t, 16, 32)
	root, _ := fs.Iget(RootInum)

	const n = 10
	inums := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		name := string(rune('a' + i))
		ip, err := fs.Icreate(TypeFile, name, root, 1, ModeDefaultFile)
		if err != nil {
			t.Fatalf("icreate %s: %v", name, err)
		}
		inums = append(inums, ip.Inum)
		root, _ = fs.Iget(RootInum)
	}

	// delete 7 of the 12 entries (10 files plus "." and ".."), more than
	// half: triggers compaction
	for i := 0; i < 7; i++ {
		if err := fs.DelInum(root, inums[i]); err != nil {
			t.Fatalf("delinum: %v", err)
		}
		root, _ = fs.Iget(RootInum)
	}

	entries, err := fs.ReadDirEntries(root)
	if err != nil {
		t.Fatalf("read entries: %v", err)
	}
	live := 0
	for _, de := range entries {
		if !de.IsTombstone() {
			live++
		}
	}
	wantSize := uint32(live) * DirentSize
	if root.Size != wantSize {
		t.Fatalf("after compaction size=%d, want live_count*16=%d", root.Size, wantSize)
	}
	for _, de := range entries {
		if de.IsTombstone() {
			t.Fatalf("compaction should have dropped tombstones, found one")
		}
	}
}

func TestValidName(t *testing.T) {
	cases := map[string]bool{
		"":            false,
		".":           false,
		".hidden":     false,
		"/":           false,
		"ok":            true,
		"twelvechars":   true,  // 11 bytes, exactly the max
		"twelvecharsx":  false, // 12 bytes, one over the max
	}
	for name, want := range cases {
		if got := ValidName(name); got != want {
			t.Errorf("ValidName(%q) = %v, want %v", name, got, want)
		}
	}
}
