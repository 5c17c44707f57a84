package domain

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Действия, фиксируемые в журнале. Набор открытый: хранилище принимает
// и неизвестные теги, валидация — забота вызывающего.
const (
	AuditActionRestore             = "restore"
	AuditActionBulkRestore         = "bulk_restore"
	AuditActionBulkPermanentDelete = "bulk_permanent_delete"
	AuditActionAutoDelete          = "auto_delete"
	AuditActionEmptyTrash          = "empty_trash"
)

// Типы элементов в журнале
const (
	AuditItemNote   = "note"
	AuditItemFolder = "folder"
)

// AuditLogEntry — одна запись журнала операций над корзиной. Записи
// неизменяемы, пишутся по одной на переход жизненного цикла и не удаляются
// вместе с самим элементом: снимок заголовка позволяет показать запись
// после окончательного удаления.
type AuditLogEntry struct {
	ID        int64          `json:"id" db:"id"`
	UserID    string         `json:"user_id" db:"user_id"`
	Action    string         `json:"action" db:"action"`
	ItemType  string         `json:"item_type" db:"item_type"`
	ItemID    string         `json:"item_id" db:"item_id"`
	ItemTitle string         `json:"item_title" db:"item_title"`
	Metadata  types.JSONText `json:"metadata,omitempty" db:"metadata"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// AdminRole — административная роль, дающая доступ к полному журналу.
// Роль активна, пока RevokedAt не задан.
type AdminRole struct {
	ID        int64      `json:"id" db:"id"`
	Email     string     `json:"email" db:"email"`
	GrantedAt time.Time  `json:"granted_at" db:"granted_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}

// DefaultAuditQueryLimit — предел выборки журнала по умолчанию
const DefaultAuditQueryLimit = 100
