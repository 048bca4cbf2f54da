package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"adboard-booking/internal/editor"
	"adboard-booking/internal/models"
	"adboard-booking/internal/wizard"
)

// toastQueue collects toasts until the next view drains them.
type toastQueue struct {
	mu     sync.Mutex
	toasts []models.Toast
}

func (q *toastQueue) Notify(message string, kind models.ToastKind) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.toasts = append(q.toasts, models.Toast{Message: message, Kind: kind})
}

func (q *toastQueue) drain() []models.Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	toasts := q.toasts
	q.toasts = nil
	if toasts == nil {
		return []models.Toast{}
	}
	return toasts
}

// editorSession owns one editor. mu serializes every request touching it.
// When both locks are needed, an editor session is locked before a wizard session.
type editorSession struct {
	id       string
	wizardID string

	lastSeen atomic.Int64 // unix nanoseconds

	mu        sync.Mutex
	editor    *editor.Editor
	toasts    *toastQueue
	refreshed bool
}

type wizardSession struct {
	id string

	lastSeen atomic.Int64 // unix nanoseconds

	mu       sync.Mutex
	wizard   *wizard.Wizard
	editorID string
}

type sessionStore struct {
	now func() time.Time

	mu      sync.RWMutex
	editors map[string]*editorSession
	wizards map[string]*wizardSession
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		now:     time.Now,
		editors: make(map[string]*editorSession),
		wizards: make(map[string]*wizardSession),
	}
}

func (s *sessionStore) newID() string {
	return uuid.NewString()
}

func (s *sessionStore) putEditor(sess *editorSession) {
	sess.lastSeen.Store(s.now().UnixNano())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editors[sess.id] = sess
}

func (s *sessionStore) editor(id string) (*editorSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.editors[id]
	return sess, ok
}

// touchEditor looks up an editor on behalf of a client and marks it, and the
// wizard it belongs to, as in use.
func (s *sessionStore) touchEditor(id string) (*editorSession, bool) {
	sess, ok := s.editor(id)
	if !ok {
		return nil, false
	}
	now := s.now().UnixNano()
	sess.lastSeen.Store(now)
	if ws, found := s.wizard(sess.wizardID); found {
		ws.lastSeen.Store(now)
	}
	return sess, true
}

func (s *sessionStore) dropEditor(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.editors, id)
}

func (s *sessionStore) putWizard(sess *wizardSession) {
	sess.lastSeen.Store(s.now().UnixNano())
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wizards[sess.id] = sess
}

func (s *sessionStore) wizard(id string) (*wizardSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.wizards[id]
	return sess, ok
}

// touchWizard looks up a wizard on behalf of a client and marks it as in use.
func (s *sessionStore) touchWizard(id string) (*wizardSession, bool) {
	sess, ok := s.wizard(id)
	if ok {
		sess.lastSeen.Store(s.now().UnixNano())
	}
	return sess, ok
}

func (s *sessionStore) dropWizard(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.wizards, id)
}

func (s *sessionStore) counts() (editors, wizards int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.editors), len(s.wizards)
}

// takeIdleEditors removes and returns the editors not touched since cutoff.
func (s *sessionStore) takeIdleEditors(cutoff time.Time) []*editorSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	var idle []*editorSession
	for id, sess := range s.editors {
		if sess.lastSeen.Load() < cutoff.UnixNano() {
			idle = append(idle, sess)
			delete(s.editors, id)
		}
	}
	return idle
}

func (s *sessionStore) allWizards() []*wizardSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wizards := make([]*wizardSession, 0, len(s.wizards))
	for _, sess := range s.wizards {
		wizards = append(wizards, sess)
	}
	return wizards
}

// evictIdle closes and forgets the sessions no client has touched for idle.
// Closing an evicted editor settles the booking step of its wizard.
func (s *Server) evictIdle(idle time.Duration) {
	cutoff := s.sessions.now().Add(-idle)

	for _, es := range s.sessions.takeIdleEditors(cutoff) {
		es.mu.Lock()
		es.editor.Close()
		es.mu.Unlock()
		log.Info().Str("editor_id", es.id).Msg("Idle editor evicted")
	}

	for _, ws := range s.sessions.allWizards() {
		ws.mu.Lock()
		expired := ws.wizard.Done() || ws.lastSeen.Load() < cutoff.UnixNano()
		ws.mu.Unlock()
		if expired {
			s.sessions.dropWizard(ws.id)
			log.Info().Str("wizard_id", ws.id).Msg("Wizard session evicted")
		}
	}
}

// runJanitor evicts idle sessions until ctx is cancelled.
func (s *Server) runJanitor(ctx context.Context, idle time.Duration) {
	ticker := time.NewTicker(janitorInterval(idle))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Session janitor stopped")
			return
		case <-ticker.C:
			s.evictIdle(idle)
			s.limiter.prune(time.Now().Add(-idle))
		}
	}
}

func janitorInterval(idle time.Duration) time.Duration {
	interval := idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	if interval > time.Minute {
		interval = time.Minute
	}
	return interval
}
