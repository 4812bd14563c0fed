package dispatch

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/toylabs/toyfs/pkg/session"
	"github.com/toylabs/toyfs/pkg/toyfs"
)

// table is the command name → handler mapping, matching spec.md §4.5's
// command list.
var table = map[string]handlerFunc{
	"login": handleLogin,
	"f":     handleFormat,
	"mk":    handleMk,
	"mkdir": handleMkdir,
	"rm":    handleRm,
	"rmdir": handleRmdir,
	"cd":    handleCd,
	"ls":    handleLs,
	"cat":   handleCat,
	"w":     handleW,
	"i":     handleI,
	"d":     handleD,
}

// bypassLogin names the commands that run without a logged-in session.
var bypassLogin = map[string]bool{
	"login": true,
	"e":     true,
}

// bypassFormatted names the commands that run against an unformatted
// disk. f needs this since it's the operation that formats the disk,
// but it still requires a logged-in session like everything else.
var bypassFormatted = map[string]bool{
	"login": true,
	"f":     true,
	"e":     true,
}

// Dispatch parses one non-empty command line and runs it against fs on
// behalf of sess, returning the exact response bytes to write back. log
// receives lifecycle/error fields; it never sees protocol response text.
func Dispatch(fs *toyfs.FS, sess *session.Session, raw string, log *logrus.Entry) Response {
	cmd, rest := splitCommand(raw)
	if cmd == "" {
		return no("")
	}

	if cmd == "e" {
		return line("Goodbye!")
	}

	if !bypassLogin[cmd] && !sess.LoggedIn() {
		return line("Please enter your UID: login <uid>")
	}
	if !bypassFormatted[cmd] && !fs.Formatted() {
		return errorResponse(toyfs.ErrNotFormatted)
	}

	handler, known := table[cmd]
	if !known {
		log.WithFields(logrus.Fields{"session": sess.ID, "cmd": cmd}).Warn("unrecognized command")
		return no("")
	}

	resp := handler(fs, sess, rest)
	log.WithFields(logrus.Fields{"session": sess.ID, "cmd": cmd, "uid": sess.UID}).Debug("dispatched")
	return resp
}

// splitCommand splits raw into its leading command word and the
// untouched remainder, so handlers that accept free-form data (w, i)
// can parse their own tail without strings.Fields collapsing spaces.
func splitCommand(raw string) (cmd, rest string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ""
	}
	i := strings.IndexByte(raw, ' ')
	if i < 0 {
		return raw, ""
	}
	return raw[:i], strings.TrimLeft(raw[i+1:], " ")
}
