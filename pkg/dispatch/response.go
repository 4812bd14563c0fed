// Package dispatch parses session command lines and invokes filesystem
// operations, matching the command table in spec.md §4.5 and the error
// taxonomy in §7. It never reads or writes a socket directly — callers
// (the reactor) hand it a line and get back the exact bytes to send.
package dispatch

import "fmt"

// Response is the exact byte sequence to write back to the client for
// one command. Every command produces exactly one Response; cat is the
// only handler whose Response carries a raw file body rather than a
// formatted protocol line.
type Response struct {
	Data []byte
}

func line(s string) Response {
	return Response{Data: []byte(s + "\n")}
}

func linef(format string, args ...interface{}) Response {
	return line(fmt.Sprintf(format, args...))
}

func ok() Response {
	return line("Yes")
}

func no(reason string) Response {
	if reason == "" {
		return line("No")
	}
	return line("No " + reason)
}
