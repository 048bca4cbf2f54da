package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"adboard-booking/internal/models"
	"adboard-booking/internal/wizard"
)

type creativeCreatedRequest struct {
	Creative models.Creative `json:"creative"`
}

type wizardView struct {
	ID       string       `json:"id"`
	State    wizard.State `json:"state"`
	EditorID string       `json:"editorId,omitempty"`
	Editor   *editorView  `json:"editor,omitempty"`
}

// wizardView snapshots the wizard and forgets it once done. The caller holds sess.mu.
func (s *Server) wizardView(sess *wizardSession) wizardView {
	v := wizardView{
		ID:       sess.id,
		State:    sess.wizard.State(),
		EditorID: sess.editorID,
	}
	if v.State.Done {
		s.sessions.dropWizard(sess.id)
	}
	return v
}

func (s *Server) createWizardHandler(w http.ResponseWriter, r *http.Request) {
	sess := &wizardSession{id: s.sessions.newID()}
	sess.wizard = wizard.New(func() {
		log.Info().Str("wizard_id", sess.id).Msg("Wizard finished")
	})
	s.sessions.putWizard(sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusCreated, s.wizardView(sess))
}

func (s *Server) lookupWizard(w http.ResponseWriter, r *http.Request) (*wizardSession, bool) {
	sess, ok := s.sessions.touchWizard(chi.URLParam(r, "wizardID"))
	if !ok {
		writeError(w, http.StatusNotFound, "WIZARD_NOT_FOUND", "Wizard session not found")
	}
	return sess, ok
}

func (s *Server) getWizardHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupWizard(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusOK, s.wizardView(sess))
}

// creativeCreatedHandler completes the creative step and opens the booking
// editor for the new creative.
func (s *Server) creativeCreatedHandler(w http.ResponseWriter, r *http.Request) {
	var req creativeCreatedRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request payload")
		return
	}
	if req.Creative.ID == "" {
		writeValidationError(w, map[string]string{"creative.id": "This field is required"})
		return
	}

	sess, ok := s.lookupWizard(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	if !sess.wizard.State().CreativeVisible {
		defer sess.mu.Unlock()
		writeErrorWithData(w, http.StatusConflict, "STEP_CLOSED", "Creative step is no longer open", s.wizardView(sess))
		return
	}
	sess.wizard.CreativeCreated(req.Creative)
	sess.mu.Unlock()

	// Editor locks are taken before wizard locks, so the editor is opened
	// without holding sess.mu.
	es := s.openEditor(r, req.Creative.ID, nil, sess.id)

	es.mu.Lock()
	defer es.mu.Unlock()

	sess.mu.Lock()
	done := sess.wizard.Done()
	if !done {
		sess.editorID = es.id
	}
	sess.mu.Unlock()
	if done {
		// The booking step was dismissed while the editor was loading.
		es.editor.Close()
	}
	ev := s.view(es)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	v := s.wizardView(sess)
	v.Editor = &ev
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) creativeCancelledHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupWizard(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.wizard.CreativeCancelled()
	writeJSON(w, http.StatusOK, s.wizardView(sess))
}

// bookingClosedHandler dismisses the booking step, closing its editor.
func (s *Server) bookingClosedHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupWizard(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	editorID := sess.editorID
	sess.mu.Unlock()

	if es, found := s.sessions.editor(editorID); found {
		es.mu.Lock()
		es.editor.Close() // reports back through bookingStepClosed
		es.mu.Unlock()
		s.sessions.dropEditor(es.id)
	} else {
		s.bookingStepClosed(sess.id)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusOK, s.wizardView(sess))
}

// bookingStepClosed is the close callback of a wizard's booking editor.
func (s *Server) bookingStepClosed(wizardID string) {
	sess, ok := s.sessions.wizard(wizardID)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.wizard.BookingClosed()
}
