package domain

import (
	"time"

	"github.com/google/uuid"
)

// Note представляет заметку пользователя. Признаком удаления служит
// единственное поле DeletedAt: заметка либо активна (DeletedAt == nil),
// либо находится в корзине (DeletedAt задан). Отдельного булевого флага
// нет, поэтому рассинхронизация состояния невозможна.
type Note struct {
	UUID                uuid.UUID  `json:"uuid" db:"uuid"`
	Title               string     `json:"title" db:"title"`
	Content             string     `json:"content" db:"content"`
	FolderID            *int64     `json:"folder_id,omitempty" db:"folder_id"`
	OwnerID             string     `json:"owner_id" db:"owner_id"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt           *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	DeletedFromFolderID *int64     `json:"deleted_from_folder_id,omitempty" db:"deleted_from_folder_id"`
}

// IsDeleted сообщает, находится ли заметка в корзине
func (n *Note) IsDeleted() bool {
	return n.DeletedAt != nil
}

// TrashItem представляет заметку в корзине вместе с вычисляемыми полями
// о сроке хранения
type TrashItem struct {
	Note
	ExpiresAt          time.Time `json:"expires_at"`
	DaysRemaining      int       `json:"days_remaining"`
	Urgency            Urgency   `json:"urgency"`
	OriginalFolderName *string   `json:"original_folder_name,omitempty" db:"original_folder_name"`
}
