package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"notedrive/internal/domain"
)

type NoteRepository struct {
	db *sqlx.DB
}

func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create создаёт новую заметку
func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) error {
	query := `
        INSERT INTO notes (uuid, title, content, folder_id, owner_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`

	if note.UUID == uuid.Nil {
		note.UUID = uuid.New()
	}

	err := r.db.QueryRowxContext(ctx, query,
		note.UUID, note.Title, note.Content, note.FolderID, note.OwnerID,
	).Scan(&note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	return nil
}

// GetByUUID получает заметку пользователя по идентификатору
func (r *NoteRepository) GetByUUID(ctx context.Context, id uuid.UUID, ownerID string) (*domain.Note, error) {
	var note domain.Note
	query := `SELECT * FROM notes WHERE uuid = $1 AND owner_id = $2`

	err := r.db.GetContext(ctx, &note, query, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return &note, nil
}

// SoftDelete перемещает заметку в корзину одним атомарным запросом.
// Текущая папка запоминается в deleted_from_folder_id для последующего
// восстановления в исходное место.
func (r *NoteRepository) SoftDelete(ctx context.Context, id uuid.UUID, ownerID string, now time.Time) error {
	query := `
        UPDATE notes
        SET deleted_at = $3,
            deleted_from_folder_id = folder_id,
            updated_at = $3
        WHERE uuid = $1 AND owner_id = $2 AND deleted_at IS NULL
        RETURNING uuid`

	var deleted uuid.UUID
	err := r.db.QueryRowxContext(ctx, query, id, ownerID, now).Scan(&deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.classifyMiss(ctx, id, ownerID, domain.ErrAlreadyDeleted)
		}
		return fmt.Errorf("failed to soft delete note: %w", err)
	}

	return nil
}

// Restore восстанавливает заметку из корзины в указанную папку
// (nil означает корень)
func (r *NoteRepository) Restore(ctx context.Context, id uuid.UUID, ownerID string, targetFolderID *int64, now time.Time) error {
	query := `
        UPDATE notes
        SET deleted_at = NULL,
            deleted_from_folder_id = NULL,
            folder_id = $3,
            updated_at = $4
        WHERE uuid = $1 AND owner_id = $2 AND deleted_at IS NOT NULL
        RETURNING uuid`

	var restored uuid.UUID
	err := r.db.QueryRowxContext(ctx, query, id, ownerID, targetFolderID, now).Scan(&restored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.classifyMiss(ctx, id, ownerID, domain.ErrNotDeleted)
		}
		return fmt.Errorf("failed to restore note: %w", err)
	}

	return nil
}

// MoveToRoot выносит живую заметку из папки в корень. Используется при
// удалении папки без содержимого; повторный вызов безвреден.
func (r *NoteRepository) MoveToRoot(ctx context.Context, id uuid.UUID, ownerID string, now time.Time) error {
	query := `
        UPDATE notes
        SET folder_id = NULL, updated_at = $3
        WHERE uuid = $1 AND owner_id = $2 AND deleted_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, id, ownerID, now); err != nil {
		return fmt.Errorf("failed to move note to root: %w", err)
	}

	return nil
}

// Purge окончательно удаляет заметку независимо от состояния корзины.
// Сначала снимаются связи с тегами, затем удаляется сама строка; каждый
// шаг атомарен сам по себе, повторный проход по уже удалённой заметке
// возвращает ErrNotFound.
func (r *NoteRepository) Purge(ctx context.Context, id uuid.UUID, ownerID string) error {
	if err := r.DeleteTagLinks(ctx, id); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE uuid = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to purge note: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// PurgeDeleted окончательно удаляет заметку, только если она находится в
// корзине. Заметка, восстановленная параллельным запросом, остаётся жива —
// побеждает тот вызов хранилища, который зафиксировался первым.
func (r *NoteRepository) PurgeDeleted(ctx context.Context, id uuid.UUID, ownerID string) error {
	if err := r.DeleteTagLinks(ctx, id); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE uuid = $1 AND owner_id = $2 AND deleted_at IS NOT NULL`,
		id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to purge note: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// PurgeExpired окончательно удаляет заметку, только если её срок хранения
// в корзине истёк к моменту threshold. Используется очисткой: повторный
// проход и гонка с восстановлением дают ErrNotFound, а не порчу данных.
func (r *NoteRepository) PurgeExpired(ctx context.Context, id uuid.UUID, threshold time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE uuid = $1 AND deleted_at IS NOT NULL AND deleted_at < $2`,
		id, threshold)
	if err != nil {
		return fmt.Errorf("failed to purge expired note: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// DeleteTagLinks удаляет связи заметки с тегами
func (r *NoteRepository) DeleteTagLinks(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note tag links: %w", err)
	}
	return nil
}

// trashRow — строка выборки корзины вместе с именем исходной папки
type trashRow struct {
	domain.Note
	OriginalFolderName *string `db:"original_folder_name"`
}

// ListDeleted возвращает заметки в корзине пользователя, свежеудалённые
// первыми. folderID ограничивает выборку исходной папкой, search фильтрует
// по заголовку.
func (r *NoteRepository) ListDeleted(ctx context.Context, ownerID string, folderID *int64, search string) ([]domain.Note, []*string, error) {
	query := `
        SELECT n.*, f.name AS original_folder_name
        FROM notes n
        LEFT JOIN folders f ON f.id = n.deleted_from_folder_id
        WHERE n.owner_id = $1 AND n.deleted_at IS NOT NULL`

	args := []interface{}{ownerID}
	if folderID != nil {
		args = append(args, *folderID)
		query += fmt.Sprintf(" AND n.deleted_from_folder_id = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND n.title ILIKE $%d", len(args))
	}
	query += " ORDER BY n.deleted_at DESC"

	var rows []trashRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, nil, fmt.Errorf("failed to list deleted notes: %w", err)
	}

	notes := make([]domain.Note, len(rows))
	folderNames := make([]*string, len(rows))
	for i, row := range rows {
		notes[i] = row.Note
		folderNames[i] = row.OriginalFolderName
	}

	return notes, folderNames, nil
}

// ListDeletedByOwner возвращает все заметки в корзине пользователя
func (r *NoteRepository) ListDeletedByOwner(ctx context.Context, ownerID string) ([]domain.Note, error) {
	var notes []domain.Note
	query := `SELECT * FROM notes WHERE owner_id = $1 AND deleted_at IS NOT NULL`

	if err := r.db.SelectContext(ctx, &notes, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list deleted notes: %w", err)
	}

	return notes, nil
}

// ListExpired возвращает заметки, чей срок хранения в корзине истёк
// к моменту threshold
func (r *NoteRepository) ListExpired(ctx context.Context, threshold time.Time) ([]domain.Note, error) {
	var notes []domain.Note
	query := `SELECT * FROM notes WHERE deleted_at IS NOT NULL AND deleted_at < $1`

	if err := r.db.SelectContext(ctx, &notes, query, threshold); err != nil {
		return nil, fmt.Errorf("failed to list expired notes: %w", err)
	}

	return notes, nil
}

// ListActiveByFolder возвращает живые заметки, лежащие в папке
func (r *NoteRepository) ListActiveByFolder(ctx context.Context, folderID int64, ownerID string) ([]domain.Note, error) {
	var notes []domain.Note
	query := `SELECT * FROM notes WHERE folder_id = $1 AND owner_id = $2 AND deleted_at IS NULL`

	if err := r.db.SelectContext(ctx, &notes, query, folderID, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list notes in folder: %w", err)
	}

	return notes, nil
}

// ListByFolderRef возвращает все заметки, ссылающиеся на папку, независимо
// от состояния корзины. Нужен очистке: перед окончательным удалением папки
// такие заметки не должны остаться с висячей ссылкой.
func (r *NoteRepository) ListByFolderRef(ctx context.Context, folderID int64) ([]domain.Note, error) {
	var notes []domain.Note
	query := `SELECT * FROM notes WHERE folder_id = $1`

	if err := r.db.SelectContext(ctx, &notes, query, folderID); err != nil {
		return nil, fmt.Errorf("failed to list notes referencing folder: %w", err)
	}

	return notes, nil
}

// classifyMiss разбирает, почему условный UPDATE не затронул строк:
// заметки нет (или она чужая) либо она в неподходящем состоянии корзины
func (r *NoteRepository) classifyMiss(ctx context.Context, id uuid.UUID, ownerID string, stateErr error) error {
	var deletedAt *time.Time
	err := r.db.GetContext(ctx, &deletedAt,
		`SELECT deleted_at FROM notes WHERE uuid = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to check note state: %w", err)
	}

	return stateErr
}
