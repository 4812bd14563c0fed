package diskproto_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/toylabs/toyfs/pkg/diskproto"
	"github.com/toylabs/toyfs/pkg/toyfs"
)

func TestClientRoundTrip(t *testing.T) {
	disk := diskproto.NewMockDisk(4, 8)
	ln, err := diskproto.ListenMock("127.0.0.1:0", disk)
	require.NoError(t, err)
	defer ln.Close()

	c, err := diskproto.Dial(ln.Addr().String())
	require.NoError(t, err)
	defer c.Close()

	ncyl, nsec, err := c.Info()
	require.NoError(t, err)
	require.Equal(t, 4, ncyl)
	require.Equal(t, 8, nsec)

	payload := bytes.Repeat([]byte{0xAB}, toyfs.BSIZE)
	require.NoError(t, c.WriteAt(3, payload))

	out := make([]byte, toyfs.BSIZE)
	require.NoError(t, c.ReadAt(3, out))
	require.Equal(t, payload, out)
}

func TestMockDiskDirect(t *testing.T) {
	disk := diskproto.NewMockDisk(2, 4)
	buf := make([]byte, toyfs.BSIZE)
	buf[0] = 0x42
	require.NoError(t, disk.WriteAt(5, buf))

	out := make([]byte, toyfs.BSIZE)
	require.NoError(t, disk.ReadAt(5, out))
	require.Equal(t, byte(0x42), out[0])
}
