package handler

import (
	"log"
	"net/http"
	"strconv"

	"notedrive/internal/auth"
	"notedrive/internal/service"
)

type AuditHandler struct {
	auditService *service.AuditService
	verifier     *auth.Verifier
}

func NewAuditHandler(auditService *service.AuditService, verifier *auth.Verifier) *AuditHandler {
	return &AuditHandler{auditService: auditService, verifier: verifier}
}

// GetUserLog обрабатывает запрос на получение журнала операций пользователя
func (h *AuditHandler) GetUserLog(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.VerifyToken(r)
	if err != nil {
		log.Printf("Authorization failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	entries, err := h.auditService.GetUserLog(r.Context(), identity.UserID, parseLimit(r))
	if err != nil {
		log.Printf("Failed to get audit log: %v", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// GetAllLog обрабатывает административный запрос на получение полного
// журнала операций
func (h *AuditHandler) GetAllLog(w http.ResponseWriter, r *http.Request) {
	identity, err := h.verifier.VerifyToken(r)
	if err != nil {
		log.Printf("Authorization failed: %v", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	entries, err := h.auditService.GetAllLog(r.Context(), identity.Email, parseLimit(r))
	if err != nil {
		log.Printf("Failed to get full audit log: %v", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}
