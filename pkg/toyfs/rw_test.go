package toyfs

import (
	"bytes"
	"testing"
)

func TestWriteiReadiRoundTrip(t *testing.T) {
	fs := newFormattedFS(t, 16, 32)
	ip, err := fs.Ialloc(TypeFile)
	if err != nil {
		t.Fatalf("ialloc: %v", err)
	}

	payload := []byte("hello, world")
	if _, err := fs.Writei(ip, payload, 0, uint32(len(payload))); err != nil {
		t.Fatalf("writei: %v", err)
	}
	if ip.Size != uint32(len(payload)) {
		t.Fatalf("size not updated: got %d want %d", ip.Size, len(payload))
	}

	out := make([]byte, ip.Size)
	if _, err := fs.Readi(ip, out, 0, ip.Size); err != nil {
		t.Fatalf("readi: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("readi(writei(x)) != x: got %q want %q", out, payload)
	}
}

func TestWriteiSpansMultipleBlocks(t *testing.T) {
	fs := newFormattedFS(t, 16, 64)
	ip, err := fs.Ialloc(TypeFile)
	if err != nil {
		t.Fatalf("ialloc: %v", err)
	}

	payload := bytes.Repeat([]byte("0123456789abcdef"), BSIZE) // way over one block
	if _, err := fs.Writei(ip, payload, 0, uint32(len(payload))); err != nil {
		t.Fatalf("writei: %v", err)
	}

	out := make([]byte, len(payload))
	if _, err := fs.Readi(ip, out, 0, uint32(len(payload))); err != nil {
		t.Fatalf("readi: %v", err)
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("multi-block round trip mismatch")
	}

	wantBlocks := (uint32(len(payload)) + BSIZE - 1) / BSIZE
	if ip.Blocks != wantBlocks {
		t.Fatalf("blocks = %d, want %d", ip.Blocks, wantBlocks)
	}
}

func TestReadiClampsToSize(t *testing.T) {
	fs := newFormattedFS(t, 16, 32)
	ip, err := fs.Ialloc(TypeFile)
	if err != nil {
		t.Fatalf("ialloc: %v", err)
	}
	if _, err := fs.Writei(ip, []byte("abcde"), 0, 5); err != nil {
		t.Fatalf("writei: %v", err)
	}

	out := make([]byte, 100)
	n, err := fs.Readi(ip, out, 0, 100)
	if err != nil {
		t.Fatalf("readi: %v", err)
	}
	if n != 5 {
		t.Fatalf("readi should clamp to size=5, got n=%d", n)
	}
}

func TestReadiInvalidRange(t *testing.T) {
	fs := newFormattedFS(t, 16, 32)
	ip, err := fs.Ialloc(TypeFile)
	if err != nil {
		t.Fatalf("ialloc: %v", err)
	}
	if _, err := fs.Writei(ip, []byte("abc"), 0, 3); err != nil {
		t.Fatalf("writei: %v", err)
	}
	if _, err := fs.Readi(ip, make([]byte, 1), 10, 1); err != ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange for off > size, got %v", err)
	}
}

func TestWriteiNoHolesPastEOF(t *testing.T) {
	fs := newFormattedFS(t, 16, 32)
	ip, err := fs.Ialloc(TypeFile)
	if err != nil {
		t.Fatalf("ialloc: %v", err)
	}
	if _, err := fs.Writei(ip, []byte("abc"), 10, 3); err != ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange writing past EOF with a hole, got %v", err)
	}
}

func TestItestRecyclesTrailingBlocks(t *testing.T) {
	fs := newFormattedFS(t, 16, 64)
	ip, err := fs.Ialloc(TypeFile)
	if err != nil {
		t.Fatalf("ialloc: %v", err)
	}

	big := bytes.Repeat([]byte{1}, BSIZE*8)
	if _, err := fs.Writei(ip, big, 0, uint32(len(big))); err != nil {
		t.Fatalf("writei: %v", err)
	}
	before := ip.Blocks

	// shrink the file to under half its current block count
	ip.Size = BSIZE * 2
	if err := fs.Iupdate(ip); err != nil {
		t.Fatalf("iupdate: %v", err)
	}
	if err := fs.Itest(ip); err != nil {
		t.Fatalf("itest: %v", err)
	}

	if ip.Blocks >= before {
		t.Fatalf("itest did not recycle trailing blocks: before=%d after=%d", before, ip.Blocks)
	}
	wantBlocks := (ip.Size + BSIZE - 1) / BSIZE
	if ip.Blocks != wantBlocks {
		t.Fatalf("blocks after itest = %d, want %d", ip.Blocks, wantBlocks)
	}
}
