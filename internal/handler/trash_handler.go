package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"notedrive/internal/auth"
	"notedrive/internal/service"
)

type TrashHandler struct {
	trashService *service.TrashService
	bulkService  *service.BulkService
	verifier     *auth.Verifier
}

type bulkRestoreRequest struct {
	NoteIDs        []uuid.UUID `json:"note_ids"`
	TargetFolderID *int64      `json:"target_folder_id,omitempty"`
}

type bulkDeleteRequest struct {
	NoteIDs []uuid.UUID `json:"note_ids"`
}

func NewTrashHandler(trashService *service.TrashService, bulkService *service.BulkService, verifier *auth.Verifier) *TrashHandler {
	return &TrashHandler{
		trashService: trashService,
		bulkService:  bulkService,
		verifier:     verifier,
	}
}

// GetTrashItems обрабатывает запрос на получение содержимого корзины.
// Параметр folder_id ограничивает выборку исходной папкой, q фильтрует
// по заголовку.
func (h *TrashHandler) GetTrashItems(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.VerifyToken(r)
	if err != nil {
		log.Printf("Authorization failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var folderFilter *int64
	if raw := r.URL.Query().Get("folder_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "Invalid folder ID", http.StatusBadRequest)
			return
		}
		folderFilter = &id
	}

	items, err := h.trashService.GetDeletedItems(r.Context(), identity.UserID, folderFilter, r.URL.Query().Get("q"))
	if err != nil {
		log.Printf("Failed to get trash items: %v", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// EmptyTrash обрабатывает запрос на полную очистку корзины
func (h *TrashHandler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.VerifyToken(r)
	if err != nil {
		log.Printf("Authorization failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	result, err := h.bulkService.EmptyTrash(r.Context(), identity.UserID)
	if err != nil {
		log.Printf("Failed to empty trash: %v", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// BulkRestore обрабатывает запрос на пакетное восстановление заметок
func (h *TrashHandler) BulkRestore(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.VerifyToken(r)
	if err != nil {
		log.Printf("Authorization failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req bulkRestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	results, err := h.bulkService.BulkRestore(r.Context(), identity.UserID, req.NoteIDs, req.TargetFolderID)
	if err != nil {
		log.Printf("Failed to bulk restore notes: %v", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// BulkDelete обрабатывает запрос на пакетное окончательное удаление заметок
func (h *TrashHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.VerifyToken(r)
	if err != nil {
		log.Printf("Authorization failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	results, err := h.bulkService.BulkPermanentDelete(r.Context(), identity.UserID, req.NoteIDs)
	if err != nil {
		log.Printf("Failed to bulk delete notes: %v", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}
