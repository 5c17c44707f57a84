package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"notedrive/internal/auth"
	"notedrive/internal/service"
)

type NoteHandler struct {
	trashService *service.TrashService
	verifier     *auth.Verifier
}

type createNoteRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	FolderID *int64 `json:"folder_id,omitempty"`
}

type restoreNoteRequest struct {
	TargetFolderID *int64 `json:"target_folder_id,omitempty"`
}

func NewNoteHandler(trashService *service.TrashService, verifier *auth.Verifier) *NoteHandler {
	return &NoteHandler{trashService: trashService, verifier: verifier}
}

// CreateNote обрабатывает запрос на создание заметки
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.VerifyToken(r)
	if err != nil {
		log.Printf("Authorization failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	note, err := h.trashService.CreateNote(r.Context(), identity.UserID, req.Title, req.Content, req.FolderID)
	if err != nil {
		log.Printf("Failed to create note: %v", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, note)
}

// DeleteNote обрабатывает запрос на перемещение заметки в корзину
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.VerifyToken(r)
	if err != nil {
		log.Printf("Authorization failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	noteID, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		http.Error(w, "Invalid note UUID", http.StatusBadRequest)
		return
	}

	if err := h.trashService.SoftDeleteNote(r.Context(), noteID, identity.UserID); err != nil {
		log.Printf("Failed to delete note: %v", err)
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// RestoreNote обрабатывает запрос на восстановление заметки из корзины
func (h *NoteHandler) RestoreNote(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.VerifyToken(r)
	if err != nil {
		log.Printf("Authorization failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	noteID, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		http.Error(w, "Invalid note UUID", http.StatusBadRequest)
		return
	}

	var req restoreNoteRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	target, err := h.trashService.RestoreNote(r.Context(), noteID, identity.UserID, req.TargetFolderID)
	if err != nil {
		log.Printf("Failed to restore note: %v", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, struct {
		RestoredToFolderID *int64 `json:"restored_to_folder_id,omitempty"`
	}{RestoredToFolderID: target})
}

// DeleteNotePermanently обрабатывает запрос на окончательное удаление заметки
func (h *NoteHandler) DeleteNotePermanently(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.VerifyToken(r)
	if err != nil {
		log.Printf("Authorization failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	noteID, err := uuid.Parse(chi.URLParam(r, "uuid"))
	if err != nil {
		http.Error(w, "Invalid note UUID", http.StatusBadRequest)
		return
	}

	if err := h.trashService.PermanentDeleteNote(r.Context(), noteID, identity.UserID); err != nil {
		log.Printf("Failed to delete note permanently: %v", err)
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
