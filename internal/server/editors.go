package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"adboard-booking/internal/adapi"
	"adboard-booking/internal/editor"
	"adboard-booking/internal/models"
	"adboard-booking/internal/validator"
)

type createEditorRequest struct {
	CreativeID       string           `json:"creativeId" validate:"required"`
	ExistingBookings []models.Booking `json:"existingBookings"`
}

type updateDraftRequest struct {
	Field string `json:"field" validate:"required"`
	Value string `json:"value"`
}

type confirmDeleteRequest struct {
	Confirmed bool `json:"confirmed"`
}

type deletePrompt struct {
	DraftID string `json:"draftId"`
}

type editorView struct {
	ID               string               `json:"id"`
	WizardID         string               `json:"wizardId,omitempty"`
	CreativeID       string               `json:"creativeId"`
	CreativeTitle    string               `json:"creativeTitle"`
	Mode             string               `json:"mode"`
	Heading          string               `json:"heading"`
	SubmitLabel      string               `json:"submitLabel"`
	Drafts           []models.Draft       `json:"drafts"`
	Invalid          []string             `json:"invalid"`
	BoardOptions     []models.BoardOption `json:"boardOptions"`
	DeletePrompt     *deletePrompt        `json:"deletePrompt,omitempty"`
	Closed           bool                 `json:"closed"`
	RefreshRequested bool                 `json:"refreshRequested"`
	Toasts           []models.Toast       `json:"toasts"`
}

// view snapshots the session, drains its toasts, and forgets the session once
// its editor has closed. The caller holds sess.mu.
func (s *Server) view(sess *editorSession) editorView {
	e := sess.editor
	v := editorView{
		ID:               sess.id,
		WizardID:         sess.wizardID,
		CreativeID:       e.CreativeID(),
		CreativeTitle:    e.Title(),
		Mode:             e.Mode().String(),
		Heading:          e.Mode().Heading(),
		SubmitLabel:      e.Mode().SubmitLabel(),
		Drafts:           nonNil(e.Drafts()),
		Invalid:          nonNil(e.Invalid()),
		BoardOptions:     nonNil(e.BoardOptions()),
		Closed:           e.Closed(),
		RefreshRequested: sess.refreshed,
		Toasts:           sess.toasts.drain(),
	}
	if id, open := e.PendingDelete(); open {
		v.DeletePrompt = &deletePrompt{DraftID: id}
	}
	if v.Closed {
		s.sessions.dropEditor(sess.id)
	}
	return v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// openEditor registers a new editor session and loads its option lists.
func (s *Server) openEditor(r *http.Request, creativeID string, existing []models.Booking, wizardID string) *editorSession {
	sess := &editorSession{
		id:       s.sessions.newID(),
		wizardID: wizardID,
		toasts:   &toastQueue{},
	}

	logger := log.With().Str("editor_id", sess.id).Logger()
	opts := editor.Options{
		API:      s.api,
		Notifier: sess.toasts,
		Refresh:  func() { sess.refreshed = true },
		Logger:   &logger,
	}
	if wizardID != "" {
		opts.OnClose = func() { s.bookingStepClosed(wizardID) }
	}

	sess.mu.Lock()
	sess.editor = editor.New(creativeID, existing, opts)
	s.sessions.putEditor(sess)
	if err := sess.editor.Load(r.Context()); err != nil {
		logger.Warn().Err(err).Msg("Editor opened with incomplete option lists")
	}
	sess.mu.Unlock()

	logger.Info().Str("creative_id", creativeID).Str("mode", sess.editor.Mode().String()).Msg("Editor opened")
	return sess
}

func (s *Server) createEditorHandler(w http.ResponseWriter, r *http.Request) {
	var req createEditorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		log.Debug().Err(err).Msg("Invalid editor payload")
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request payload")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		writeValidationError(w, errs)
		return
	}

	sess := s.openEditor(r, req.CreativeID, req.ExistingBookings, "")

	sess.mu.Lock()
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusCreated, s.view(sess))
}

// withEditor runs fn on the session named in the URL and replies with its view.
func (s *Server) withEditor(w http.ResponseWriter, r *http.Request, fn func(e *editor.Editor) error) {
	sess, ok := s.sessions.touchEditor(chi.URLParam(r, "editorID"))
	if !ok {
		writeError(w, http.StatusNotFound, "EDITOR_NOT_FOUND", "Editor session not found")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := fn(sess.editor); err != nil {
		switch {
		case errors.Is(err, editor.ErrDraftNotFound):
			writeErrorWithData(w, http.StatusNotFound, "DRAFT_NOT_FOUND", err.Error(), s.view(sess))
		case errors.Is(err, editor.ErrUnknownField):
			writeErrorWithData(w, http.StatusBadRequest, "UNKNOWN_FIELD", err.Error(), s.view(sess))
		case errors.Is(err, editor.ErrClosed):
			writeError(w, http.StatusGone, "EDITOR_CLOSED", err.Error())
		case errors.Is(err, editor.ErrIncomplete):
			writeErrorWithData(w, http.StatusUnprocessableEntity, "INCOMPLETE_DRAFTS", "Please fill all fields", s.view(sess))
		case adapi.IsAPIError(err):
			writeErrorWithData(w, http.StatusBadGateway, "UPSTREAM_REJECTED", err.Error(), s.view(sess))
		default:
			writeErrorWithData(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error(), s.view(sess))
		}
		return
	}

	writeJSON(w, http.StatusOK, s.view(sess))
}

func (s *Server) getEditorHandler(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) error { return nil })
}

// closeEditorHandler cancels the editor and discards its drafts.
func (s *Server) closeEditorHandler(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) error {
		e.Close()
		return nil
	})
}

func (s *Server) addDraftHandler(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) error {
		_, err := e.AddDraft()
		return err
	})
}

func (s *Server) updateDraftHandler(w http.ResponseWriter, r *http.Request) {
	var req updateDraftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request payload")
		return
	}
	if errs := validator.Validate(req); errs != nil {
		writeValidationError(w, errs)
		return
	}

	draftID := chi.URLParam(r, "draftID")
	s.withEditor(w, r, func(e *editor.Editor) error {
		return e.UpdateField(draftID, editor.Field(req.Field), req.Value)
	})
}

func (s *Server) setTodayHandler(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")
	s.withEditor(w, r, func(e *editor.Editor) error {
		return e.SetToday(draftID)
	})
}

// requestDeleteHandler only opens the confirmation prompt.
func (s *Server) requestDeleteHandler(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")
	s.withEditor(w, r, func(e *editor.Editor) error {
		return e.RequestDelete(draftID)
	})
}

func (s *Server) confirmDeleteHandler(w http.ResponseWriter, r *http.Request) {
	var req confirmDeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request payload")
		return
	}

	s.withEditor(w, r, func(e *editor.Editor) error {
		e.ConfirmDelete(req.Confirmed)
		return nil
	})
}

func (s *Server) submitHandler(w http.ResponseWriter, r *http.Request) {
	s.withEditor(w, r, func(e *editor.Editor) error {
		return e.Submit(r.Context())
	})
}
