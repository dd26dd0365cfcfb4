// Package session keeps per-candidate request state in memory. Sessions
// are ephemeral and vanish on restart; the vector index is the only
// durable store.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/candidex/candidex/internal/domain"
)

// Session holds the state accumulated across a candidate's requests.
type Session struct {
	ResumeText       string
	UploadedFile     string
	Preferences      *domain.Preferences
	Matches          *domain.MatchResult
	OutreachPackages map[string]domain.OutreachPackage
}

// Store is a uuid-keyed in-memory session store, safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create allocates a new empty session and returns its id.
func (s *Store) Create() string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &Session{
		OutreachPackages: make(map[string]domain.OutreachPackage),
	}
	return id
}

// Get returns a snapshot of the session. The OutreachPackages map is
// copied: the live map keeps being written by SetOutreachPackage, and a
// shared reference would let callers range over it outside the lock.
func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, domain.ErrSessionNotFound
	}

	snapshot := *sess
	snapshot.OutreachPackages = make(map[string]domain.OutreachPackage, len(sess.OutreachPackages))
	for name, pkg := range sess.OutreachPackages {
		snapshot.OutreachPackages[name] = pkg
	}
	return snapshot, nil
}

// SetResume stores the extracted resume text and the stored filename.
func (s *Store) SetResume(id, resumeText, uploadedFile string) error {
	return s.update(id, func(sess *Session) {
		sess.ResumeText = resumeText
		sess.UploadedFile = uploadedFile
	})
}

// SetPreferences stores the candidate's preference set.
func (s *Store) SetPreferences(id string, prefs domain.Preferences) error {
	return s.update(id, func(sess *Session) {
		sess.Preferences = &prefs
	})
}

// SetMatches stores the most recent match result.
func (s *Store) SetMatches(id string, result domain.MatchResult) error {
	return s.update(id, func(sess *Session) {
		sess.Matches = &result
	})
}

// SetOutreachPackage stores a generated package keyed by company name.
func (s *Store) SetOutreachPackage(id, companyName string, pkg domain.OutreachPackage) error {
	return s.update(id, func(sess *Session) {
		if sess.OutreachPackages == nil {
			sess.OutreachPackages = make(map[string]domain.OutreachPackage)
		}
		sess.OutreachPackages[companyName] = pkg
	})
}

func (s *Store) update(id string, fn func(*Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	fn(sess)
	return nil
}
