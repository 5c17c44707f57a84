package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"notedrive/internal/domain"
)

// Причины отказа по отдельным элементам пакетной операции
const (
	ReasonNotFoundOrNotDeleted = "not_found_or_not_deleted"
	ReasonNotFound             = "not_found"
	ReasonInternal             = "internal_error"
)

// ItemResult — итог обработки одного элемента пакетной операции
type ItemResult struct {
	NoteID             uuid.UUID `json:"note_id"`
	Success            bool      `json:"success"`
	RestoredToFolderID *int64    `json:"restored_to_folder_id,omitempty"`
	Reason             string    `json:"reason,omitempty"`
}

// EmptyTrashResult — итог полной очистки корзины
type EmptyTrashResult struct {
	NotesDeleted   int `json:"notes_deleted"`
	FoldersDeleted int `json:"folders_deleted"`
}

// BulkService выполняет пакетные операции над корзиной: синхронный обход
// списка идентификаторов, по одному результату на элемент. Состояния у
// пакета нет, отката нет; отказ одного элемента никогда не прерывает
// обработку остальных.
type BulkService struct {
	trash *TrashService
	audit *AuditService
}

func NewBulkService(trash *TrashService, audit *AuditService) *BulkService {
	return &BulkService{trash: trash, audit: audit}
}

// BulkRestore восстанавливает каждую заметку из списка независимо от
// остальных. Заметка, которой нет или которая не в корзине, получает
// отказ с причиной, но не прерывает пакет.
func (s *BulkService) BulkRestore(ctx context.Context, ownerID string, noteIDs []uuid.UUID, explicitTarget *int64) ([]ItemResult, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}
	if len(noteIDs) == 0 {
		return nil, fmt.Errorf("%w: note id list is empty", domain.ErrValidation)
	}

	results := make([]ItemResult, 0, len(noteIDs))
	for _, noteID := range noteIDs {
		target, note, err := s.trash.restoreNote(ctx, noteID, ownerID, explicitTarget)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrNotDeleted) {
				results = append(results, ItemResult{NoteID: noteID, Reason: ReasonNotFoundOrNotDeleted})
				continue
			}
			log.Printf("bulk restore: note %s failed: %v", noteID, err)
			results = append(results, ItemResult{NoteID: noteID, Reason: ReasonInternal})
			continue
		}

		s.audit.RecordNoteAction(ctx, ownerID, domain.AuditActionBulkRestore, note, map[string]interface{}{
			"restored_to_folder_id": target,
			"original_folder_id":    note.DeletedFromFolderID,
		})

		results = append(results, ItemResult{NoteID: noteID, Success: true, RestoredToFolderID: target})
	}

	return results, nil
}

// BulkPermanentDelete окончательно удаляет каждую заметку из списка вместе
// со связями тегов
func (s *BulkService) BulkPermanentDelete(ctx context.Context, ownerID string, noteIDs []uuid.UUID) ([]ItemResult, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}
	if len(noteIDs) == 0 {
		return nil, fmt.Errorf("%w: note id list is empty", domain.ErrValidation)
	}

	results := make([]ItemResult, 0, len(noteIDs))
	for _, noteID := range noteIDs {
		note, err := s.trash.notes.GetByUUID(ctx, noteID, ownerID)
		if err != nil {
			results = append(results, ItemResult{NoteID: noteID, Reason: ReasonNotFound})
			continue
		}

		if err := s.trash.notes.Purge(ctx, noteID, ownerID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				results = append(results, ItemResult{NoteID: noteID, Reason: ReasonNotFound})
				continue
			}
			log.Printf("bulk delete: note %s failed: %v", noteID, err)
			results = append(results, ItemResult{NoteID: noteID, Reason: ReasonInternal})
			continue
		}

		s.audit.RecordNoteAction(ctx, ownerID, domain.AuditActionBulkPermanentDelete, note, nil)

		results = append(results, ItemResult{NoteID: noteID, Success: true})
	}

	return results, nil
}

// EmptyTrash окончательно удаляет всё содержимое корзины пользователя.
// Каждое удаление — отдельный атомарный вызов хранилища; в журнал пишется
// одна сводная запись, а не по записи на элемент.
func (s *BulkService) EmptyTrash(ctx context.Context, ownerID string) (*EmptyTrashResult, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}

	result := &EmptyTrashResult{}

	notes, err := s.trash.notes.ListDeletedByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, note := range notes {
		if err := s.trash.notes.PurgeDeleted(ctx, note.UUID, ownerID); err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				log.Printf("empty trash: note %s failed: %v", note.UUID, err)
			}
			continue
		}
		result.NotesDeleted++
	}

	folders, err := s.trash.folders.ListDeletedByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, folder := range folders {
		if err := s.trash.folders.PurgeDeleted(ctx, folder.ID, ownerID); err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				log.Printf("empty trash: folder %d failed: %v", folder.ID, err)
			}
			continue
		}
		result.FoldersDeleted++
	}

	s.audit.Record(ctx, ownerID, domain.AuditActionEmptyTrash, "trash", "", "", map[string]interface{}{
		"notes_deleted":   result.NotesDeleted,
		"folders_deleted": result.FoldersDeleted,
	})

	return result, nil
}
