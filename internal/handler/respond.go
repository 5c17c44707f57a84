package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"notedrive/internal/domain"
)

// respondJSON отправляет ответ в формате JSON
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("Error encoding response: %v", err)
		}
	}
}

// respondError переводит ошибки доменного уровня в HTTP-статусы
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, "Invalid request", http.StatusBadRequest)
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Item not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrAlreadyDeleted):
		http.Error(w, "Item is already in trash", http.StatusConflict)
	case errors.Is(err, domain.ErrNotDeleted):
		http.Error(w, "Item is not in trash", http.StatusConflict)
	case errors.Is(err, domain.ErrUnauthorized):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
