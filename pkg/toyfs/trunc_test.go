package toyfs

import "testing"

// countUsedDataBlocks walks the bitmap and returns how many bits are set.
func countUsedDataBlocks(t *testing.T, fs *FS) int {
	t.Helper()
	used := 0
	for b := uint32(0); b < fs.SB.Size; b++ {
		bno := BBlock(b, fs.SB.BitmapStart)
		buf, err := fs.bread(bno)
		if err != nil {
			t.Fatalf("bread bitmap: %v", err)
		}
		i := b % BPB
		if buf[i/8]&(1<<(i%8)) != 0 {
			used++
		}
	}
	return used
}

func TestItruncFreesEverythingAndBitmapMatches(t *testing.T) {
	fs := newFormattedFS(t, 64, 64)
	before := countUsedDataBlocks(t, fs)

	ip, err := fs.Ialloc(TypeFile)
	if err != nil {
		t.Fatalf("ialloc: %v", err)
	}
	big := make([]byte, BSIZE*(NDIRECT+5)) // reaches into the single-indirect range
	for i := range big {
		big[i] = byte(i)
	}
	if _, err := fs.Writei(ip, big, 0, uint32(len(big))); err != nil {
		t.Fatalf("writei: %v", err)
	}

	mid := countUsedDataBlocks(t, fs)
	if mid <= before {
		t.Fatalf("writei did not mark any new blocks used")
	}

	if err := fs.Itrunc(ip); err != nil {
		t.Fatalf("itrunc: %v", err)
	}
	if ip.Size != 0 || ip.Blocks != 0 {
		t.Fatalf("itrunc did not zero size/blocks: size=%d blocks=%d", ip.Size, ip.Blocks)
	}
	for _, a := range ip.Addrs {
		if a != 0 {
			t.Fatalf("itrunc left a non-zero address slot")
		}
	}

	after := countUsedDataBlocks(t, fs)
	if after != before {
		t.Fatalf("bitmap invariant violated: before=%d after=%d (should match, all blocks freed)", before, after)
	}
}
