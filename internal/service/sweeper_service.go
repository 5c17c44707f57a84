package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/benbjohnson/clock"

	"notedrive/internal/domain"
)

// SweepResult — наблюдаемый итог одного прохода очистки
type SweepResult struct {
	NotesDeleted   int       `json:"notes_deleted"`
	FoldersDeleted int       `json:"folders_deleted"`
	Timestamp      time.Time `json:"timestamp"`
}

// SweeperService окончательно удаляет элементы, пересидевшие срок хранения
// в корзине. Запускается раз в сутки; проход повторно-входим: уже
// удалённый элемент пропускается без ошибки, поэтому повторный запуск или
// гонка с пользовательским восстановлением безопасны. Ошибки хранилища
// посреди прохода не ретраятся — следующий запуск сам доберёт всё, что
// осталось просроченным.
type SweeperService struct {
	notes   NoteStore
	folders FolderStore
	audit   *AuditService
	clock   clock.Clock
}

func NewSweeperService(notes NoteStore, folders FolderStore, audit *AuditService, clk clock.Clock) *SweeperService {
	return &SweeperService{
		notes:   notes,
		folders: folders,
		audit:   audit,
		clock:   clk,
	}
}

// Run выполняет один проход очистки: сначала просроченные заметки, затем
// просроченные папки. Порядок обязателен — папку нельзя удалять, пока на
// неё ссылаются ещё не удалённые заметки, иначе они останутся с висячей
// ссылкой.
func (s *SweeperService) Run(ctx context.Context) (*SweepResult, error) {
	now := s.clock.Now()
	threshold := now.Add(-domain.RetentionPeriod)
	result := &SweepResult{Timestamp: now}

	// Счётчик заметок, ушедших вместе со своей папкой: запись журнала по
	// папке сообщает, сколько дочерних заметок удалено вместе с ней
	childCounts := make(map[int64]int)

	expiredNotes, err := s.notes.ListExpired(ctx, threshold)
	if err != nil {
		return result, fmt.Errorf("failed to scan expired notes: %w", err)
	}

	for _, note := range expiredNotes {
		if err := s.purgeExpiredNote(ctx, &note, threshold); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			log.Printf("sweep: failed to purge note %s: %v", note.UUID, err)
			continue
		}
		if note.FolderID != nil {
			childCounts[*note.FolderID]++
		}
		result.NotesDeleted++
	}

	expiredFolders, err := s.folders.ListExpired(ctx, threshold)
	if err != nil {
		return result, fmt.Errorf("failed to scan expired folders: %w", err)
	}

	for _, folder := range expiredFolders {
		// Заметки, всё ещё ссылающиеся на папку, удаляются независимо от
		// их собственного состояния корзины: каскад при удалении папки
		// многошаговый, и прерывание могло оставить такие строки
		orphans, err := s.notes.ListByFolderRef(ctx, folder.ID)
		if err != nil {
			log.Printf("sweep: failed to list notes of folder %d: %v", folder.ID, err)
			continue
		}

		children := childCounts[folder.ID]
		for _, orphan := range orphans {
			if err := s.notes.Purge(ctx, orphan.UUID, orphan.OwnerID); err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					log.Printf("sweep: failed to purge note %s of folder %d: %v", orphan.UUID, folder.ID, err)
				}
				continue
			}
			children++
		}

		s.audit.RecordFolderAction(ctx, folder.OwnerID, domain.AuditActionAutoDelete, &folder, map[string]interface{}{
			"deleted_at":        folder.DeletedAt,
			"expiration_date":   folder.DeletedAt.Add(domain.RetentionPeriod),
			"child_notes_count": children,
		})

		if err := s.folders.PurgeExpired(ctx, folder.ID, threshold); err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				log.Printf("sweep: failed to purge folder %d: %v", folder.ID, err)
			}
			continue
		}
		result.FoldersDeleted++
	}

	log.Printf("retention sweep completed: %d notes, %d folders", result.NotesDeleted, result.FoldersDeleted)
	return result, nil
}

// purgeExpiredNote окончательно удаляет одну просроченную заметку: связи
// тегов, запись журнала, затем сама строка. Последний шаг условен по сроку,
// поэтому параллельное восстановление побеждает очистку.
func (s *SweeperService) purgeExpiredNote(ctx context.Context, note *domain.Note, threshold time.Time) error {
	if err := s.notes.DeleteTagLinks(ctx, note.UUID); err != nil {
		return err
	}

	metadata := map[string]interface{}{}
	if note.DeletedAt != nil {
		metadata["deleted_at"] = note.DeletedAt
		metadata["expiration_date"] = note.DeletedAt.Add(domain.RetentionPeriod)
	}
	s.audit.RecordNoteAction(ctx, note.OwnerID, domain.AuditActionAutoDelete, note, metadata)

	return s.notes.PurgeExpired(ctx, note.UUID, threshold)
}
