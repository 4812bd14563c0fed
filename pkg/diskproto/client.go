// Package diskproto speaks the block-device wire protocol from spec.md
// §6: "I\n" for geometry, "R cyl sec\n"/"W cyl sec hex\n" for reads and
// writes, each answered with a single "Yes"/"No" line. Client is the real
// network client; MockDisk (mock.go) is an in-memory stand-in used by
// tests and local development that speaks the identical framing.
package diskproto

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"net"
	"strings"

	"github.com/toylabs/toyfs/pkg/toyfs"
)

// Client is a TCP client for the disk service's text protocol. It
// implements block.Device.
type Client struct {
	conn net.Conn
	r    *bufio.Reader

	ncyl, nsec int
}

// Dial connects to a disk service at addr and queries its geometry.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("diskproto: dial %s: %w", addr, err)
	}
	c := &Client{conn: conn, r: bufio.NewReader(conn)}
	if err := c.queryInfo(); err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) queryInfo() error {
	if _, err := fmt.Fprint(c.conn, "I\n"); err != nil {
		return fmt.Errorf("diskproto: send I: %w", err)
	}
	line, err := c.readLine()
	if err != nil {
		return fmt.Errorf("diskproto: read I reply: %w", err)
	}
	var ncyl, nsec int
	if _, err := fmt.Sscanf(line, "%d %d", &ncyl, &nsec); err != nil {
		return fmt.Errorf("diskproto: parse I reply %q: %w", line, err)
	}
	c.ncyl, c.nsec = ncyl, nsec
	return nil
}

// Info returns the cached device geometry queried at Dial time.
func (c *Client) Info() (ncyl, nsec int, err error) {
	return c.ncyl, c.nsec, nil
}

// ReadAt reads the 256-byte block at bno.
func (c *Client) ReadAt(bno uint32, buf []byte) error {
	if len(buf) != toyfs.BSIZE {
		return fmt.Errorf("diskproto: ReadAt: buf must be %d bytes", toyfs.BSIZE)
	}
	cyl, sec := c.cylSec(bno)
	if _, err := fmt.Fprintf(c.conn, "R %d %d\n", cyl, sec); err != nil {
		return fmt.Errorf("diskproto: send R: %w", err)
	}
	line, err := c.readLine()
	if err != nil {
		return fmt.Errorf("diskproto: read R reply: %w", err)
	}
	if !strings.HasPrefix(line, "Yes ") {
		return fmt.Errorf("diskproto: read(%d,%d) failed: %s", cyl, sec, line)
	}
	decoded, err := hex.DecodeString(line[len("Yes "):])
	if err != nil || len(decoded) != toyfs.BSIZE {
		return fmt.Errorf("diskproto: malformed read reply for (%d,%d)", cyl, sec)
	}
	copy(buf, decoded)
	return nil
}

// WriteAt writes the 256-byte block buf to bno.
func (c *Client) WriteAt(bno uint32, buf []byte) error {
	if len(buf) != toyfs.BSIZE {
		return fmt.Errorf("diskproto: WriteAt: buf must be %d bytes", toyfs.BSIZE)
	}
	cyl, sec := c.cylSec(bno)
	if _, err := fmt.Fprintf(c.conn, "W %d %d %s\n", cyl, sec, hex.EncodeToString(buf)); err != nil {
		return fmt.Errorf("diskproto: send W: %w", err)
	}
	line, err := c.readLine()
	if err != nil {
		return fmt.Errorf("diskproto: read W reply: %w", err)
	}
	if strings.TrimSpace(line) != "Yes" {
		return fmt.Errorf("diskproto: write(%d,%d) failed: %s", cyl, sec, line)
	}
	return nil
}

func (c *Client) cylSec(bno uint32) (int, int) {
	n := bno
	return int(n) / c.nsec, int(n) % c.nsec
}

func (c *Client) readLine() (string, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
