package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"notedrive/internal/domain"
)

type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record добавляет запись в журнал. Тег действия не проверяется на
// принадлежность известному набору: журнал хранит то, что ему передали.
func (r *AuditRepository) Record(ctx context.Context, entry *domain.AuditLogEntry) error {
	query := `
        INSERT INTO audit_log (user_id, action, item_type, item_id, item_title, metadata, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id`

	err := r.db.QueryRowxContext(ctx, query,
		entry.UserID, entry.Action, entry.ItemType, entry.ItemID,
		entry.ItemTitle, entry.Metadata, entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}

// QueryForUser возвращает записи журнала пользователя, свежие первыми
func (r *AuditRepository) QueryForUser(ctx context.Context, userID string, limit int) ([]domain.AuditLogEntry, error) {
	var entries []domain.AuditLogEntry
	query := `
        SELECT * FROM audit_log
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2`

	if err := r.db.SelectContext(ctx, &entries, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}

	return entries, nil
}

// QueryAll возвращает записи журнала по всем пользователям. Проверка
// административной роли — забота сервиса.
func (r *AuditRepository) QueryAll(ctx context.Context, limit int) ([]domain.AuditLogEntry, error) {
	var entries []domain.AuditLogEntry
	query := `
        SELECT * FROM audit_log
        ORDER BY created_at DESC, id DESC
        LIMIT $1`

	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}

	return entries, nil
}

// IsActiveAdmin проверяет наличие неотозванной административной роли
// по адресу почты
func (r *AuditRepository) IsActiveAdmin(ctx context.Context, email string) (bool, error) {
	var active bool
	query := `
        SELECT EXISTS(
            SELECT 1 FROM admin_roles
            WHERE email = $1 AND revoked_at IS NULL
        )`

	if err := r.db.GetContext(ctx, &active, query, email); err != nil {
		return false, fmt.Errorf("failed to check admin role: %w", err)
	}

	return active, nil
}
