package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"notedrive/internal/domain"
)

// NoteStore описывает примитивы хранилища заметок, нужные сервисам.
// Каждый вызов — одна атомарная операция над хранилищем; логика,
// охватывающая несколько вызовов, обязана переживать прерывание между ними.
type NoteStore interface {
	Create(ctx context.Context, note *domain.Note) error
	GetByUUID(ctx context.Context, id uuid.UUID, ownerID string) (*domain.Note, error)
	SoftDelete(ctx context.Context, id uuid.UUID, ownerID string, now time.Time) error
	Restore(ctx context.Context, id uuid.UUID, ownerID string, targetFolderID *int64, now time.Time) error
	MoveToRoot(ctx context.Context, id uuid.UUID, ownerID string, now time.Time) error
	Purge(ctx context.Context, id uuid.UUID, ownerID string) error
	PurgeDeleted(ctx context.Context, id uuid.UUID, ownerID string) error
	PurgeExpired(ctx context.Context, id uuid.UUID, threshold time.Time) error
	DeleteTagLinks(ctx context.Context, id uuid.UUID) error
	ListDeleted(ctx context.Context, ownerID string, folderID *int64, search string) ([]domain.Note, []*string, error)
	ListDeletedByOwner(ctx context.Context, ownerID string) ([]domain.Note, error)
	ListExpired(ctx context.Context, threshold time.Time) ([]domain.Note, error)
	ListActiveByFolder(ctx context.Context, folderID int64, ownerID string) ([]domain.Note, error)
	ListByFolderRef(ctx context.Context, folderID int64) ([]domain.Note, error)
}

// FolderStore описывает примитивы хранилища папок
type FolderStore interface {
	Create(ctx context.Context, folder *domain.Folder) error
	GetByID(ctx context.Context, id int64, ownerID string) (*domain.Folder, error)
	SoftDelete(ctx context.Context, id int64, ownerID string, now time.Time) error
	Restore(ctx context.Context, id int64, ownerID string, parentID *int64, now time.Time) error
	Purge(ctx context.Context, id int64, ownerID string) error
	PurgeDeleted(ctx context.Context, id int64, ownerID string) error
	PurgeExpired(ctx context.Context, id int64, threshold time.Time) error
	ListDeletedByOwner(ctx context.Context, ownerID string) ([]domain.Folder, error)
	ListExpired(ctx context.Context, threshold time.Time) ([]domain.Folder, error)
}

type TrashService struct {
	notes   NoteStore
	folders FolderStore
	audit   *AuditService
	policy  *domain.RetentionPolicy
	clock   clock.Clock
}

func NewTrashService(notes NoteStore, folders FolderStore, audit *AuditService, clk clock.Clock) *TrashService {
	return &TrashService{
		notes:   notes,
		folders: folders,
		audit:   audit,
		policy:  domain.NewRetentionPolicy(clk),
		clock:   clk,
	}
}

// CreateNote создаёт заметку
func (s *TrashService) CreateNote(ctx context.Context, ownerID, title, content string, folderID *int64) (*domain.Note, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}

	note := &domain.Note{
		Title:    title,
		Content:  content,
		FolderID: folderID,
		OwnerID:  ownerID,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}

	return note, nil
}

// CreateFolder создаёт папку
func (s *TrashService) CreateFolder(ctx context.Context, ownerID, name string, parentID *int64) (*domain.Folder, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: folder name is required", domain.ErrValidation)
	}

	folder := &domain.Folder{
		Name:     name,
		OwnerID:  ownerID,
		ParentID: parentID,
	}
	if err := s.folders.Create(ctx, folder); err != nil {
		return nil, err
	}

	return folder, nil
}

// SoftDeleteNote перемещает заметку в корзину. Повторное удаление
// возвращает ErrAlreadyDeleted: вызывающий волен считать это успехом.
func (s *TrashService) SoftDeleteNote(ctx context.Context, noteID uuid.UUID, ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}

	return s.notes.SoftDelete(ctx, noteID, ownerID, s.clock.Now())
}

// RestoreNote восстанавливает заметку из корзины и пишет запись в журнал.
// Целевая папка выбирается resolveRestoreTarget.
func (s *TrashService) RestoreNote(ctx context.Context, noteID uuid.UUID, ownerID string, explicitTarget *int64) (*int64, error) {
	target, note, err := s.restoreNote(ctx, noteID, ownerID, explicitTarget)
	if err != nil {
		return nil, err
	}

	s.audit.RecordNoteAction(ctx, ownerID, domain.AuditActionRestore, note, map[string]interface{}{
		"restored_to_folder_id": target,
		"original_folder_id":    note.DeletedFromFolderID,
	})

	return target, nil
}

// restoreNote — общий путь восстановления без записи в журнал; журнал
// ведут вызывающие, поскольку одиночное и пакетное восстановление пишут
// разные действия
func (s *TrashService) restoreNote(ctx context.Context, noteID uuid.UUID, ownerID string, explicitTarget *int64) (*int64, *domain.Note, error) {
	note, err := s.notes.GetByUUID(ctx, noteID, ownerID)
	if err != nil {
		return nil, nil, err
	}
	if !note.IsDeleted() {
		return nil, nil, domain.ErrNotDeleted
	}

	target := s.resolveRestoreTarget(ctx, ownerID, note.DeletedFromFolderID, explicitTarget)

	if err := s.notes.Restore(ctx, noteID, ownerID, target, s.clock.Now()); err != nil {
		return nil, nil, err
	}

	return target, note, nil
}

// resolveRestoreTarget выбирает папку для восстановления заметки.
// Приоритет: явное указание вызывающего (без проверки существования, как
// и в остальных мутациях), затем папка на момент удаления, если она ещё
// жива, иначе корень. Тихое падение в корень — осознанный выбор: лучше
// восстановить не туда, чем не восстановить вовсе.
func (s *TrashService) resolveRestoreTarget(ctx context.Context, ownerID string, deletedFrom *int64, explicitTarget *int64) *int64 {
	if explicitTarget != nil {
		return explicitTarget
	}

	if deletedFrom != nil {
		folder, err := s.folders.GetByID(ctx, *deletedFrom, ownerID)
		if err == nil && !folder.IsDeleted() {
			return deletedFrom
		}
	}

	return nil
}

// PermanentDeleteNote окончательно удаляет заметку вместе со связями
// тегов, минуя корзину
func (s *TrashService) PermanentDeleteNote(ctx context.Context, noteID uuid.UUID, ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}

	return s.notes.Purge(ctx, noteID, ownerID)
}

// SoftDeleteFolder перемещает папку в корзину. deleteContents решает судьбу
// лежащих в ней заметок: true — заметки тоже уходят в корзину с пометкой об
// исходной папке, false — заметки выносятся в корень и остаются живыми.
// Выбор делается один раз и не отменяется последующим восстановлением папки.
// Каскад выполняется по одной заметке за вызов; прерывание посередине
// оставляет хвост, который добирает либо повторный вызов, либо очистка.
func (s *TrashService) SoftDeleteFolder(ctx context.Context, folderID int64, ownerID string, deleteContents bool) error {
	if ownerID == "" {
		return fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}

	notes, err := s.notes.ListActiveByFolder(ctx, folderID, ownerID)
	if err != nil {
		return err
	}

	if err := s.folders.SoftDelete(ctx, folderID, ownerID, s.clock.Now()); err != nil {
		return err
	}

	for _, note := range notes {
		if deleteContents {
			err = s.notes.SoftDelete(ctx, note.UUID, ownerID, s.clock.Now())
			if errors.Is(err, domain.ErrAlreadyDeleted) {
				err = nil
			}
		} else {
			err = s.notes.MoveToRoot(ctx, note.UUID, ownerID, s.clock.Now())
		}
		if err != nil {
			return fmt.Errorf("failed to cascade folder delete to note %s: %w", note.UUID, err)
		}
	}

	return nil
}

// RestoreFolder восстанавливает папку из корзины. Если запомненный
// родитель исчез или сам находится в корзине, папка восстанавливается
// в корень — зеркально правилу для заметок.
func (s *TrashService) RestoreFolder(ctx context.Context, folderID int64, ownerID string) error {
	folder, err := s.folders.GetByID(ctx, folderID, ownerID)
	if err != nil {
		return err
	}
	if !folder.IsDeleted() {
		return domain.ErrNotDeleted
	}

	parent := s.resolveRestoreTarget(ctx, ownerID, folder.ParentID, nil)

	if err := s.folders.Restore(ctx, folderID, ownerID, parent, s.clock.Now()); err != nil {
		return err
	}

	s.audit.RecordFolderAction(ctx, ownerID, domain.AuditActionRestore, folder, map[string]interface{}{
		"restored_to_parent_id": parent,
	})

	return nil
}

// GetDeletedItems возвращает содержимое корзины пользователя вместе со
// сроками хранения. folderFilter ограничивает выборку исходной папкой,
// search фильтрует по заголовку.
func (s *TrashService) GetDeletedItems(ctx context.Context, ownerID string, folderFilter *int64, search string) ([]domain.TrashItem, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}

	notes, folderNames, err := s.notes.ListDeleted(ctx, ownerID, folderFilter, search)
	if err != nil {
		return nil, err
	}

	items := make([]domain.TrashItem, len(notes))
	for i, note := range notes {
		// deleted_at гарантированно задан выборкой по корзине
		deletedAt := *note.DeletedAt
		items[i] = domain.TrashItem{
			Note:               note,
			ExpiresAt:          s.policy.ExpirationOf(deletedAt),
			DaysRemaining:      s.policy.DaysRemaining(deletedAt),
			Urgency:            s.policy.UrgencyOf(deletedAt),
			OriginalFolderName: folderNames[i],
		}
	}

	return items, nil
}
