package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"notedrive/internal/auth"
	"notedrive/internal/service"
)

type FolderHandler struct {
	trashService *service.TrashService
	verifier     *auth.Verifier
}

type createFolderRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

func NewFolderHandler(trashService *service.TrashService, verifier *auth.Verifier) *FolderHandler {
	return &FolderHandler{trashService: trashService, verifier: verifier}
}

// CreateFolder обрабатывает запрос на создание папки
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.VerifyToken(r)
	if err != nil {
		log.Printf("Authorization failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req createFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	folder, err := h.trashService.CreateFolder(r.Context(), identity.UserID, req.Name, req.ParentID)
	if err != nil {
		log.Printf("Failed to create folder: %v", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, folder)
}

// DeleteFolder обрабатывает запрос на перемещение папки в корзину.
// Параметр delete_contents решает судьбу содержимого: true — заметки
// отправляются в корзину вместе с папкой, false — выносятся в корень.
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.VerifyToken(r)
	if err != nil {
		log.Printf("Authorization failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	folderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid folder ID", http.StatusBadRequest)
		return
	}

	deleteContents := r.URL.Query().Get("delete_contents") == "true"

	if err := h.trashService.SoftDeleteFolder(r.Context(), folderID, identity.UserID, deleteContents); err != nil {
		log.Printf("Failed to delete folder: %v", err)
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// RestoreFolder обрабатывает запрос на восстановление папки из корзины
func (h *FolderHandler) RestoreFolder(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.VerifyToken(r)
	if err != nil {
		log.Printf("Authorization failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	folderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid folder ID", http.StatusBadRequest)
		return
	}

	if err := h.trashService.RestoreFolder(r.Context(), folderID, identity.UserID); err != nil {
		log.Printf("Failed to restore folder: %v", err)
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
