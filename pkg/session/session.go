// Package session holds per-connection state for the filesystem
// protocol: the working directory and the logged-in uid. Sessions are
// owned by the reactor and never shared; the dispatcher only ever sees
// one session at a time, matching the single-threaded dispatch model.
package session

// Session is one connection's private state.
type Session struct {
	// ID identifies the session for logging (the reactor assigns a
	// per-server counter, starting at 1, at accept time).
	ID int
	// PWD is the inode number of the session's current working
	// directory, 0 (root) at connect time.
	PWD uint32
	// UID is the logged-in user id, 0 (anonymous) until "login" runs.
	UID uint16
}

// New returns a freshly connected session: pwd at root, not logged in.
func New(id int) *Session {
	return &Session{ID: id, PWD: 0, UID: 0}
}

// LoggedIn reports whether the session has completed "login".
func (s *Session) LoggedIn() bool {
	return s.UID != 0
}
