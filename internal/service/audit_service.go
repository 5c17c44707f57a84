package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/benbjohnson/clock"

	"notedrive/internal/domain"
)

// AuditStore описывает хранилище журнала операций
type AuditStore interface {
	Record(ctx context.Context, entry *domain.AuditLogEntry) error
	QueryForUser(ctx context.Context, userID string, limit int) ([]domain.AuditLogEntry, error)
	QueryAll(ctx context.Context, limit int) ([]domain.AuditLogEntry, error)
	IsActiveAdmin(ctx context.Context, email string) (bool, error)
}

type AuditService struct {
	store AuditStore
	clock clock.Clock
}

func NewAuditService(store AuditStore, clk clock.Clock) *AuditService {
	return &AuditService{store: store, clock: clk}
}

// Record добавляет запись в журнал. Ошибка записи логируется и не
// прерывает вызвавшую операцию: журнал не должен ронять уже совершённый
// переход жизненного цикла.
func (s *AuditService) Record(ctx context.Context, userID, action, itemType, itemID, itemTitle string, metadata map[string]interface{}) {
	entry := &domain.AuditLogEntry{
		UserID:    userID,
		Action:    action,
		ItemType:  itemType,
		ItemID:    itemID,
		ItemTitle: itemTitle,
		CreatedAt: s.clock.Now(),
	}

	if metadata != nil {
		raw, err := json.Marshal(metadata)
		if err != nil {
			log.Printf("warning: failed to marshal audit metadata: %v", err)
		} else {
			entry.Metadata = raw
		}
	}

	if err := s.store.Record(ctx, entry); err != nil {
		log.Printf("warning: failed to record audit entry (%s %s %s): %v", action, itemType, itemID, err)
	}
}

// RecordNoteAction пишет запись о переходе жизненного цикла заметки
func (s *AuditService) RecordNoteAction(ctx context.Context, userID, action string, note *domain.Note, metadata map[string]interface{}) {
	s.Record(ctx, userID, action, domain.AuditItemNote, note.UUID.String(), note.Title, metadata)
}

// RecordFolderAction пишет запись о переходе жизненного цикла папки
func (s *AuditService) RecordFolderAction(ctx context.Context, userID, action string, folder *domain.Folder, metadata map[string]interface{}) {
	s.Record(ctx, userID, action, domain.AuditItemFolder, fmt.Sprintf("%d", folder.ID), folder.Name, metadata)
}

// GetUserLog возвращает журнал пользователя, свежие записи первыми.
// limit <= 0 заменяется значением по умолчанию.
func (s *AuditService) GetUserLog(ctx context.Context, userID string, limit int) ([]domain.AuditLogEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	if limit <= 0 {
		limit = domain.DefaultAuditQueryLimit
	}

	return s.store.QueryForUser(ctx, userID, limit)
}

// GetAllLog возвращает журнал по всем пользователям. Требует активной
// административной роли, привязанной к почте вызывающего.
func (s *AuditService) GetAllLog(ctx context.Context, callerEmail string, limit int) ([]domain.AuditLogEntry, error) {
	active, err := s.store.IsActiveAdmin(ctx, callerEmail)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, domain.ErrUnauthorized
	}

	if limit <= 0 {
		limit = domain.DefaultAuditQueryLimit
	}

	return s.store.QueryAll(ctx, limit)
}
