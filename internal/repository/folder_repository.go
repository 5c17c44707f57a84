package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"notedrive/internal/domain"
)

type FolderRepository struct {
	db *sqlx.DB
}

func NewFolderRepository(db *sqlx.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

// Create создаёт новую папку
func (r *FolderRepository) Create(ctx context.Context, folder *domain.Folder) error {
	query := `
        INSERT INTO folders (name, owner_id, parent_id)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		folder.Name, folder.OwnerID, folder.ParentID,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	return nil
}

// GetByID получает папку пользователя по идентификатору
func (r *FolderRepository) GetByID(ctx context.Context, id int64, ownerID string) (*domain.Folder, error) {
	var folder domain.Folder
	query := `SELECT * FROM folders WHERE id = $1 AND owner_id = $2`

	err := r.db.GetContext(ctx, &folder, query, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}

	return &folder, nil
}

// SoftDelete перемещает папку в корзину одним атомарным запросом. Судьба
// содержимого решается на уровне сервиса отдельными шагами.
func (r *FolderRepository) SoftDelete(ctx context.Context, id int64, ownerID string, now time.Time) error {
	query := `
        UPDATE folders
        SET deleted_at = $3, updated_at = $3
        WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
        RETURNING id`

	var deleted int64
	err := r.db.QueryRowxContext(ctx, query, id, ownerID, now).Scan(&deleted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.classifyMiss(ctx, id, ownerID, domain.ErrAlreadyDeleted)
		}
		return fmt.Errorf("failed to soft delete folder: %w", err)
	}

	return nil
}

// Restore восстанавливает папку из корзины под указанного родителя
// (nil означает корень)
func (r *FolderRepository) Restore(ctx context.Context, id int64, ownerID string, parentID *int64, now time.Time) error {
	query := `
        UPDATE folders
        SET deleted_at = NULL, parent_id = $3, updated_at = $4
        WHERE id = $1 AND owner_id = $2 AND deleted_at IS NOT NULL
        RETURNING id`

	var restored int64
	err := r.db.QueryRowxContext(ctx, query, id, ownerID, parentID, now).Scan(&restored)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.classifyMiss(ctx, id, ownerID, domain.ErrNotDeleted)
		}
		return fmt.Errorf("failed to restore folder: %w", err)
	}

	return nil
}

// Purge окончательно удаляет папку. Повторный вызов по уже удалённой
// папке возвращает ErrNotFound.
func (r *FolderRepository) Purge(ctx context.Context, id int64, ownerID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM folders WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to purge folder: %w", err)
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

// PurgeDeleted окончательно удаляет папку, только если она находится в
// корзине
func (r *FolderRepository) PurgeDeleted(ctx context.Context, id int64, ownerID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM folders WHERE id = $1 AND owner_id = $2 AND deleted_at IS NOT NULL`,
		id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to purge folder: %w", err)
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

// PurgeExpired окончательно удаляет папку, только если её срок хранения
// в корзине истёк к моменту threshold
func (r *FolderRepository) PurgeExpired(ctx context.Context, id int64, threshold time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM folders WHERE id = $1 AND deleted_at IS NOT NULL AND deleted_at < $2`,
		id, threshold)
	if err != nil {
		return fmt.Errorf("failed to purge expired folder: %w", err)
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

// ListDeletedByOwner возвращает все папки в корзине пользователя
func (r *FolderRepository) ListDeletedByOwner(ctx context.Context, ownerID string) ([]domain.Folder, error) {
	var folders []domain.Folder
	query := `SELECT * FROM folders WHERE owner_id = $1 AND deleted_at IS NOT NULL`

	if err := r.db.SelectContext(ctx, &folders, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list deleted folders: %w", err)
	}

	return folders, nil
}

// ListExpired возвращает папки, чей срок хранения в корзине истёк
// к моменту threshold
func (r *FolderRepository) ListExpired(ctx context.Context, threshold time.Time) ([]domain.Folder, error) {
	var folders []domain.Folder
	query := `SELECT * FROM folders WHERE deleted_at IS NOT NULL AND deleted_at < $1`

	if err := r.db.SelectContext(ctx, &folders, query, threshold); err != nil {
		return nil, fmt.Errorf("failed to list expired folders: %w", err)
	}

	return folders, nil
}

func (r *FolderRepository) classifyMiss(ctx context.Context, id int64, ownerID string, stateErr error) error {
	var deletedAt *time.Time
	err := r.db.GetContext(ctx, &deletedAt,
		`SELECT deleted_at FROM folders WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to check folder state: %w", err)
	}

	return stateErr
}
