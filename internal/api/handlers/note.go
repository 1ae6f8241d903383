package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dom/notely/internal/api/response"
	"github.com/dom/notely/internal/domain"
	"github.com/dom/notely/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type NoteHandler struct {
	noteService *service.NoteService
	log         *zap.Logger
}

func NewNoteHandler(noteService *service.NoteService, log *zap.Logger) *NoteHandler {
	return &NoteHandler{noteService: noteService, log: log}
}

type CreateNoteRequest struct {
	Title    string `json:"title"`
	Synopsis string `json:"synopsis"`
	Content  string `json:"content"`
}

// UpdateNoteRequest leaves absent fields untouched.
type UpdateNoteRequest struct {
	Title    *string `json:"title"`
	Synopsis *string `json:"synopsis"`
	Content  *string `json:"content"`
}

type FavoriteRequest struct {
	Favorite *bool `json:"favorite"`
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req CreateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, "note.Create", err)
		return
	}

	note, err := h.noteService.Create(r.Context(), id.UserID, service.CreateNoteInput{
		Title:    req.Title,
		Synopsis: req.Synopsis,
		Content:  req.Content,
	})
	if err != nil {
		writeError(w, r, h.log, "note.Create", err)
		return
	}

	response.JSON(w, http.StatusCreated, "Note created successfully", note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "note.List", h.noteService.List)
}

func (h *NoteHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "note.ListTrash", h.noteService.ListTrash)
}

func (h *NoteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "note.ListFavorites", h.noteService.ListFavorites)
}

func (h *NoteHandler) list(w http.ResponseWriter, r *http.Request, op string, fetch listFunc) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	notes, err := fetch(r.Context(), id.UserID)
	if err != nil {
		writeError(w, r, h.log, op, err)
		return
	}

	response.JSON(w, http.StatusOK, "", notes)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, "note.Get", "", h.noteService.Get)
}

func (h *NoteHandler) GetTrashed(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, "note.GetTrashed", "", h.noteService.GetTrashed)
}

func (h *NoteHandler) Trash(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, "note.Trash", "Note moved to trash", h.noteService.Trash)
}

func (h *NoteHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.single(w, r, "note.Restore", "Note restored successfully", h.noteService.Restore)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	nid, ok := noteID(w, r)
	if !ok {
		return
	}

	var req UpdateNoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, "note.Update", err)
		return
	}

	note, err := h.noteService.Update(r.Context(), id.UserID, nid, service.UpdateNoteInput{
		Title:    req.Title,
		Synopsis: req.Synopsis,
		Content:  req.Content,
	})
	if err != nil {
		writeError(w, r, h.log, "note.Update", err)
		return
	}

	response.JSON(w, http.StatusOK, "Note updated successfully", note)
}

func (h *NoteHandler) Purge(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	nid, ok := noteID(w, r)
	if !ok {
		return
	}

	if err := h.noteService.Purge(r.Context(), id.UserID, nid); err != nil {
		writeError(w, r, h.log, "note.Purge", err)
		return
	}

	response.JSON(w, http.StatusOK, "Note permanently deleted", nil)
}

func (h *NoteHandler) SetFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	nid, ok := noteID(w, r)
	if !ok {
		return
	}

	var req FavoriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, "note.SetFavorite", err)
		return
	}
	if req.Favorite == nil {
		writeError(w, r, h.log, "note.SetFavorite", fmt.Errorf("%w: favorite required", domain.ErrValidation))
		return
	}

	note, err := h.noteService.SetFavorite(r.Context(), id.UserID, nid, *req.Favorite)
	if err != nil {
		writeError(w, r, h.log, "note.SetFavorite", err)
		return
	}

	response.JSON(w, http.StatusOK, "", note)
}

func (h *NoteHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	nid, ok := noteID(w, r)
	if !ok {
		return
	}

	events, err := h.noteService.History(r.Context(), id.UserID, nid)
	if err != nil {
		writeError(w, r, h.log, "note.History", err)
		return
	}

	response.JSON(w, http.StatusOK, "", events)
}

func (h *NoteHandler) single(w http.ResponseWriter, r *http.Request, op, message string, call noteFunc) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	nid, ok := noteID(w, r)
	if !ok {
		return
	}

	note, err := call(r.Context(), id.UserID, nid)
	if err != nil {
		writeError(w, r, h.log, op, err)
		return
	}

	response.JSON(w, http.StatusOK, message, note)
}

type (
	listFunc func(ctx context.Context, ownerID uuid.UUID) ([]*domain.Note, error)
	noteFunc func(ctx context.Context, ownerID, noteID uuid.UUID) (*domain.Note, error)
)
