// Package block defines the narrow interface the filesystem core programs
// against for raw block I/O, so it can run unmodified against either the
// networked disk-service client or an in-memory mock.
package block

// Device is a block-number-addressed store of fixed-size blocks. All
// blocks are BSIZE bytes (see toyfs.BSIZE); callers never see partial
// blocks.
type Device interface {
	// Info returns the device geometry as (cylinders, sectors per
	// cylinder). Total block count is ncyl*nsec.
	Info() (ncyl, nsec int, err error)

	// ReadAt reads the block at the given block number into buf, which
	// must be exactly BSIZE bytes long.
	ReadAt(bno uint32, buf []byte) error

	// WriteAt writes buf, which must be exactly BSIZE bytes long, to the
	// block at the given block number.
	WriteAt(bno uint32, buf []byte) error
}
