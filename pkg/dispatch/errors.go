package dispatch

import (
	"errors"

	"github.com/toylabs/toyfs/pkg/toyfs"
)

// errorResponse maps a toyfs sentinel error to the exact "No <reason>"
// text spec.md §7 assigns it. Errors with no row in that table fall back
// to the error's own message, still under the "No " prefix — every
// internal layer returns plain errors and only the dispatch boundary
// ever formats protocol text.
func errorResponse(err error) Response {
	switch {
	case errors.Is(err, toyfs.ErrInvalidName):
		return no("Invalid name!")
	case errors.Is(err, toyfs.ErrNotFile):
		return no("Not a file")
	case errors.Is(err, toyfs.ErrNotDir):
		return no("Not a directory")
	case errors.Is(err, toyfs.ErrNotFound):
		return no("Not found!")
	case errors.Is(err, toyfs.ErrExists):
		return no("Already exists!")
	case errors.Is(err, toyfs.ErrPermission):
		return no("Permission denied")
	case errors.Is(err, toyfs.ErrNotFormatted):
		return no("Not formatted")
	case errors.Is(err, toyfs.ErrNotEmpty):
		return no("Directory not empty!")
	case errors.Is(err, toyfs.ErrOutOfBlocks):
		return no("Out of space")
	case errors.Is(err, toyfs.ErrOutOfInodes):
		return no("Out of space")
	case errors.Is(err, toyfs.ErrInvalidRange):
		return no("Invalid range")
	case errors.Is(err, toyfs.ErrFileTooLarge):
		return no("File too large")
	default:
		return no(err.Error())
	}
}
