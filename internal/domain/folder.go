package domain

import "time"

// Folder представляет папку пользователя. Вложенность задаётся через
// ParentID. Удалённая папка не делает свои заметки удалёнными — судьба
// содержимого выбирается вызывающим в момент удаления (см. DeleteContents).
type Folder struct {
	ID        int64      `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	OwnerID   string     `json:"owner_id" db:"owner_id"`
	ParentID  *int64     `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsDeleted сообщает, находится ли папка в корзине
func (f *Folder) IsDeleted() bool {
	return f.DeletedAt != nil
}
