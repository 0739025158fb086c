package project

import (
	"sync"
)

// Session is the single serialization point for a project. All mutations and
// all reads go through it, so concurrent edit requests from the HTTP layer
// are strictly ordered and the Project itself needs no internal locking. The
// long-running solve never holds the lock: it works on a Snapshot and comes
// back through Update to ingest.
type Session struct {
	mu   sync.Mutex
	proj *Project
	path string
}

// NewSession wraps a project. The path is where the project was opened from
// or last saved to; empty for a new, never-saved project.
func NewSession(p *Project, path string) *Session {
	if p == nil {
		p = New()
	}
	return &Session{proj: p, path: path}
}

// Update runs a mutation under the session lock. If fn returns an error the
// convention is that it made no changes (every Project operation is
// atomic-or-unchanged).
func (s *Session) Update(fn func(*Project) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.proj)
}

// View runs a read-only function under the session lock. fn must not mutate
// the project and must not retain references past its return.
func (s *Session) View(fn func(*Project)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.proj)
}

// Snapshot deep-copies the project under the lock. The copy is owned by the
// caller and can be serialized or fed to the solver without affecting the
// live project.
func (s *Session) Snapshot() *Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proj.Snapshot()
}

// Revision returns the live revision counter.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proj.revision
}

// Replace swaps in a different project (project open / new project) and
// records its path.
func (s *Session) Replace(p *Project, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proj = p
	s.path = path
}

// Path returns the file path associated with the session, if any.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// SetPath records where the project was last saved.
func (s *Session) SetPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
}
