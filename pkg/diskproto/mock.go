package diskproto

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/toylabs/toyfs/pkg/toyfs"
)

// MockDisk is an in-memory block store implementing block.Device
// directly, for unit tests of the filesystem core that don't need a real
// socket round-trip. It does not model seek delay — that's the real
// disk simulator's concern, explicitly out of scope here.
type MockDisk struct {
	mu     sync.Mutex
	ncyl   int
	nsec   int
	blocks [][]byte
}

// NewMockDisk creates an in-memory disk of ncyl*nsec blocks, all
// zero-filled.
func NewMockDisk(ncyl, nsec int) *MockDisk {
	blocks := make([][]byte, ncyl*nsec)
	for i := range blocks {
		blocks[i] = make([]byte, toyfs.BSIZE)
	}
	return &MockDisk{ncyl: ncyl, nsec: nsec, blocks: blocks}
}

// Info returns the configured geometry.
func (d *MockDisk) Info() (ncyl, nsec int, err error) {
	return d.ncyl, d.nsec, nil
}

// ReadAt copies the stored block into buf.
func (d *MockDisk) ReadAt(bno uint32, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(bno) >= len(d.blocks) {
		return fmt.Errorf("diskproto: mock read: block %d out of range", bno)
	}
	copy(buf, d.blocks[bno])
	return nil
}

// WriteAt stores a copy of buf as the block's contents.
func (d *MockDisk) WriteAt(bno uint32, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if int(bno) >= len(d.blocks) {
		return fmt.Errorf("diskproto: mock write: block %d out of range", bno)
	}
	copy(d.blocks[bno], buf)
	return nil
}

// ServeMock speaks the disk wire protocol (§6) over conn against d,
// handling requests until the connection closes or a protocol error
// occurs. It exists for end-to-end tests of diskproto.Client and of
// servers built on it, standing in for the real disk simulator.
func ServeMock(conn net.Conn, d *MockDisk) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "I":
			fmt.Fprintf(conn, "%d %d\n", d.ncyl, d.nsec)
		case "R":
			if len(fields) != 3 {
				fmt.Fprintf(conn, "No bad request\n")
				continue
			}
			var cyl, sec int
			fmt.Sscanf(fields[1], "%d", &cyl)
			fmt.Sscanf(fields[2], "%d", &sec)
			buf := make([]byte, toyfs.BSIZE)
			if err := d.ReadAt(uint32(cyl*d.nsec+sec), buf); err != nil {
				fmt.Fprintf(conn, "No %s\n", err)
				continue
			}
			fmt.Fprintf(conn, "Yes %s\n", hex.EncodeToString(buf))
		case "W":
			if len(fields) != 4 {
				fmt.Fprintf(conn, "No bad request\n")
				continue
			}
			var cyl, sec int
			fmt.Sscanf(fields[1], "%d", &cyl)
			fmt.Sscanf(fields[2], "%d", &sec)
			decoded, err := hex.DecodeString(fields[3])
			if err != nil || len(decoded) != toyfs.BSIZE {
				fmt.Fprintf(conn, "No bad data\n")
				continue
			}
			if err := d.WriteAt(uint32(cyl*d.nsec+sec), decoded); err != nil {
				fmt.Fprintf(conn, "No %s\n", err)
				continue
			}
			fmt.Fprintf(conn, "Yes\n")
		case "E":
			fmt.Fprintf(conn, "Goodbye!\n")
			return
		default:
			fmt.Fprintf(conn, "No unknown command\n")
		}
	}
}

// ListenMock starts a TCP listener on addr serving d to every accepted
// connection, for tests that want a real diskproto.Client round trip.
func ListenMock(addr string, d *MockDisk) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go ServeMock(conn, d)
		}
	}()
	return ln, nil
}
