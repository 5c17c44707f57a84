package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"notedrive/internal/domain"
)

// fakeNoteStore повторяет семантику NoteRepository в памяти: каждая
// операция атомарна, условия UPDATE-ов превращены в проверки состояния
type fakeNoteStore struct {
	notes    map[uuid.UUID]*domain.Note
	tagLinks map[uuid.UUID][]int64
	folders  *fakeFolderStore

	failListExpired error
	failPurge       error
}

type fakeFolderStore struct {
	folders map[int64]*domain.Folder
	nextID  int64
}

type fakeAuditStore struct {
	entries []domain.AuditLogEntry
	admins  map[string]bool

	lastLimit int
}

func newFakes() (*fakeNoteStore, *fakeFolderStore, *fakeAuditStore) {
	folders := &fakeFolderStore{folders: make(map[int64]*domain.Folder)}
	notes := &fakeNoteStore{
		notes:    make(map[uuid.UUID]*domain.Note),
		tagLinks: make(map[uuid.UUID][]int64),
		folders:  folders,
	}
	audit := &fakeAuditStore{admins: make(map[string]bool)}
	return notes, folders, audit
}

func copyNote(n *domain.Note) domain.Note {
	out := *n
	if n.DeletedAt != nil {
		t := *n.DeletedAt
		out.DeletedAt = &t
	}
	if n.FolderID != nil {
		id := *n.FolderID
		out.FolderID = &id
	}
	if n.DeletedFromFolderID != nil {
		id := *n.DeletedFromFolderID
		out.DeletedFromFolderID = &id
	}
	return out
}

func (f *fakeNoteStore) Create(_ context.Context, note *domain.Note) error {
	if note.UUID == uuid.Nil {
		note.UUID = uuid.New()
	}
	stored := copyNote(note)
	f.notes[note.UUID] = &stored
	return nil
}

func (f *fakeNoteStore) GetByUUID(_ context.Context, id uuid.UUID, ownerID string) (*domain.Note, error) {
	note, ok := f.notes[id]
	if !ok || note.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	out := copyNote(note)
	return &out, nil
}

func (f *fakeNoteStore) SoftDelete(_ context.Context, id uuid.UUID, ownerID string, now time.Time) error {
	note, ok := f.notes[id]
	if !ok || note.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	if note.DeletedAt != nil {
		return domain.ErrAlreadyDeleted
	}
	t := now
	note.DeletedAt = &t
	note.DeletedFromFolderID = note.FolderID
	note.UpdatedAt = now
	return nil
}

func (f *fakeNoteStore) Restore(_ context.Context, id uuid.UUID, ownerID string, targetFolderID *int64, now time.Time) error {
	note, ok := f.notes[id]
	if !ok || note.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	if note.DeletedAt == nil {
		return domain.ErrNotDeleted
	}
	note.DeletedAt = nil
	note.DeletedFromFolderID = nil
	note.FolderID = targetFolderID
	note.UpdatedAt = now
	return nil
}

func (f *fakeNoteStore) MoveToRoot(_ context.Context, id uuid.UUID, ownerID string, now time.Time) error {
	note, ok := f.notes[id]
	if !ok || note.OwnerID != ownerID || note.DeletedAt != nil {
		return nil
	}
	note.FolderID = nil
	note.UpdatedAt = now
	return nil
}

func (f *fakeNoteStore) Purge(_ context.Context, id uuid.UUID, ownerID string) error {
	if f.failPurge != nil {
		return f.failPurge
	}
	delete(f.tagLinks, id)
	note, ok := f.notes[id]
	if !ok || note.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(f.notes, id)
	return nil
}

func (f *fakeNoteStore) PurgeDeleted(_ context.Context, id uuid.UUID, ownerID string) error {
	delete(f.tagLinks, id)
	note, ok := f.notes[id]
	if !ok || note.OwnerID != ownerID || note.DeletedAt == nil {
		return domain.ErrNotFound
	}
	delete(f.notes, id)
	return nil
}

func (f *fakeNoteStore) PurgeExpired(_ context.Context, id uuid.UUID, threshold time.Time) error {
	if f.failPurge != nil {
		return f.failPurge
	}
	note, ok := f.notes[id]
	if !ok || note.DeletedAt == nil || !note.DeletedAt.Before(threshold) {
		return domain.ErrNotFound
	}
	delete(f.notes, id)
	return nil
}

func (f *fakeNoteStore) DeleteTagLinks(_ context.Context, id uuid.UUID) error {
	delete(f.tagLinks, id)
	return nil
}

func (f *fakeNoteStore) ListDeleted(_ context.Context, ownerID string, folderID *int64, search string) ([]domain.Note, []*string, error) {
	var notes []domain.Note
	for _, note := range f.notes {
		if note.OwnerID != ownerID || note.DeletedAt == nil {
			continue
		}
		if folderID != nil && (note.DeletedFromFolderID == nil || *note.DeletedFromFolderID != *folderID) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(note.Title), strings.ToLower(search)) {
			continue
		}
		notes = append(notes, copyNote(note))
	}
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].DeletedAt.After(*notes[j].DeletedAt)
	})

	names := make([]*string, len(notes))
	for i, note := range notes {
		if note.DeletedFromFolderID != nil {
			if folder, ok := f.folders.folders[*note.DeletedFromFolderID]; ok {
				name := folder.Name
				names[i] = &name
			}
		}
	}
	return notes, names, nil
}

func (f *fakeNoteStore) ListDeletedByOwner(_ context.Context, ownerID string) ([]domain.Note, error) {
	var notes []domain.Note
	for _, note := range f.notes {
		if note.OwnerID == ownerID && note.DeletedAt != nil {
			notes = append(notes, copyNote(note))
		}
	}
	return notes, nil
}

func (f *fakeNoteStore) ListExpired(_ context.Context, threshold time.Time) ([]domain.Note, error) {
	if f.failListExpired != nil {
		return nil, f.failListExpired
	}
	var notes []domain.Note
	for _, note := range f.notes {
		if note.DeletedAt != nil && note.DeletedAt.Before(threshold) {
			notes = append(notes, copyNote(note))
		}
	}
	return notes, nil
}

func (f *fakeNoteStore) ListActiveByFolder(_ context.Context, folderID int64, ownerID string) ([]domain.Note, error) {
	var notes []domain.Note
	for _, note := range f.notes {
		if note.OwnerID == ownerID && note.DeletedAt == nil &&
			note.FolderID != nil && *note.FolderID == folderID {
			notes = append(notes, copyNote(note))
		}
	}
	return notes, nil
}

func (f *fakeNoteStore) ListByFolderRef(_ context.Context, folderID int64) ([]domain.Note, error) {
	var notes []domain.Note
	for _, note := range f.notes {
		if note.FolderID != nil && *note.FolderID == folderID {
			notes = append(notes, copyNote(note))
		}
	}
	return notes, nil
}

func copyFolder(f *domain.Folder) domain.Folder {
	out := *f
	if f.DeletedAt != nil {
		t := *f.DeletedAt
		out.DeletedAt = &t
	}
	if f.ParentID != nil {
		id := *f.ParentID
		out.ParentID = &id
	}
	return out
}

func (f *fakeFolderStore) Create(_ context.Context, folder *domain.Folder) error {
	f.nextID++
	folder.ID = f.nextID
	stored := copyFolder(folder)
	f.folders[folder.ID] = &stored
	return nil
}

func (f *fakeFolderStore) GetByID(_ context.Context, id int64, ownerID string) (*domain.Folder, error) {
	folder, ok := f.folders[id]
	if !ok || folder.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	out := copyFolder(folder)
	return &out, nil
}

func (f *fakeFolderStore) SoftDelete(_ context.Context, id int64, ownerID string, now time.Time) error {
	folder, ok := f.folders[id]
	if !ok || folder.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	if folder.DeletedAt != nil {
		return domain.ErrAlreadyDeleted
	}
	t := now
	folder.DeletedAt = &t
	folder.UpdatedAt = now
	return nil
}

func (f *fakeFolderStore) Restore(_ context.Context, id int64, ownerID string, parentID *int64, now time.Time) error {
	folder, ok := f.folders[id]
	if !ok || folder.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	if folder.DeletedAt == nil {
		return domain.ErrNotDeleted
	}
	folder.DeletedAt = nil
	folder.ParentID = parentID
	folder.UpdatedAt = now
	return nil
}

func (f *fakeFolderStore) Purge(_ context.Context, id int64, ownerID string) error {
	folder, ok := f.folders[id]
	if !ok || folder.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(f.folders, id)
	return nil
}

func (f *fakeFolderStore) PurgeDeleted(_ context.Context, id int64, ownerID string) error {
	folder, ok := f.folders[id]
	if !ok || folder.OwnerID != ownerID || folder.DeletedAt == nil {
		return domain.ErrNotFound
	}
	delete(f.folders, id)
	return nil
}

func (f *fakeFolderStore) PurgeExpired(_ context.Context, id int64, threshold time.Time) error {
	folder, ok := f.folders[id]
	if !ok || folder.DeletedAt == nil || !folder.DeletedAt.Before(threshold) {
		return domain.ErrNotFound
	}
	delete(f.folders, id)
	return nil
}

func (f *fakeFolderStore) ListDeletedByOwner(_ context.Context, ownerID string) ([]domain.Folder, error) {
	var folders []domain.Folder
	for _, folder := range f.folders {
		if folder.OwnerID == ownerID && folder.DeletedAt != nil {
			folders = append(folders, copyFolder(folder))
		}
	}
	return folders, nil
}

func (f *fakeFolderStore) ListExpired(_ context.Context, threshold time.Time) ([]domain.Folder, error) {
	var folders []domain.Folder
	for _, folder := range f.folders {
		if folder.DeletedAt != nil && folder.DeletedAt.Before(threshold) {
			folders = append(folders, copyFolder(folder))
		}
	}
	return folders, nil
}

func (f *fakeAuditStore) Record(_ context.Context, entry *domain.AuditLogEntry) error {
	entry.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditStore) QueryForUser(_ context.Context, userID string, limit int) ([]domain.AuditLogEntry, error) {
	f.lastLimit = limit
	var entries []domain.AuditLogEntry
	for i := len(f.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		if f.entries[i].UserID == userID {
			entries = append(entries, f.entries[i])
		}
	}
	return entries, nil
}

func (f *fakeAuditStore) QueryAll(_ context.Context, limit int) ([]domain.AuditLogEntry, error) {
	f.lastLimit = limit
	var entries []domain.AuditLogEntry
	for i := len(f.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, f.entries[i])
	}
	return entries, nil
}

func (f *fakeAuditStore) IsActiveAdmin(_ context.Context, email string) (bool, error) {
	return f.admins[email], nil
}

// byAction возвращает записи журнала с указанным действием
func (f *fakeAuditStore) byAction(action string) []domain.AuditLogEntry {
	var entries []domain.AuditLogEntry
	for _, entry := range f.entries {
		if entry.Action == action {
			entries = append(entries, entry)
		}
	}
	return entries
}
