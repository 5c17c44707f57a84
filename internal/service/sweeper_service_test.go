package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notedrive/internal/domain"
)

func newSweeperFixture(t *testing.T) (*SweeperService, *TrashService, *fakeNoteStore, *fakeFolderStore, *fakeAuditStore, *clock.Mock) {
	t.Helper()

	trash, notes, folders, audit, clk := newTrashFixture(t)
	sweeper := NewSweeperService(notes, folders, trash.audit, clk)
	return sweeper, trash, notes, folders, audit, clk
}

func TestSweep_PurgesExpiredNotes(t *testing.T) {
	sweeper, trash, notes, _, audit, clk := newSweeperFixture(t)
	ctx := context.Background()

	expired := mustCreateNote(t, trash, "expired", nil)
	require.NoError(t, trash.SoftDeleteNote(ctx, expired.UUID, testOwner))
	notes.tagLinks[expired.UUID] = []int64{3}

	clk.Add(31 * 24 * time.Hour)
	fresh := mustCreateNote(t, trash, "fresh", nil)
	require.NoError(t, trash.SoftDeleteNote(ctx, fresh.UUID, testOwner))

	result, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NotesDeleted)
	assert.Equal(t, 0, result.FoldersDeleted)

	assert.NotContains(t, notes.notes, expired.UUID)
	assert.NotContains(t, notes.tagLinks, expired.UUID)
	assert.Contains(t, notes.notes, fresh.UUID, "items inside the retention window stay")

	entries := audit.byAction(domain.AuditActionAutoDelete)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditItemNote, entries[0].ItemType)
	assert.Equal(t, expired.UUID.String(), entries[0].ItemID)
	assert.Equal(t, "expired", entries[0].ItemTitle, "journal keeps the title after the note is gone")
}

func TestSweep_KeepsItemsWithinRetention(t *testing.T) {
	sweeper, trash, notes, _, _, clk := newSweeperFixture(t)
	ctx := context.Background()

	note := mustCreateNote(t, trash, "recent", nil)
	require.NoError(t, trash.SoftDeleteNote(ctx, note.UUID, testOwner))

	clk.Add(29 * 24 * time.Hour)

	result, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.NotesDeleted)
	assert.Contains(t, notes.notes, note.UUID)
}

func TestSweep_SecondRunPurgesNothing(t *testing.T) {
	sweeper, trash, _, _, audit, clk := newSweeperFixture(t)
	ctx := context.Background()

	note := mustCreateNote(t, trash, "once", nil)
	require.NoError(t, trash.SoftDeleteNote(ctx, note.UUID, testOwner))
	clk.Add(31 * 24 * time.Hour)

	first, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.NotesDeleted)

	second, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.NotesDeleted)
	assert.Equal(t, 0, second.FoldersDeleted)
	assert.Len(t, audit.byAction(domain.AuditActionAutoDelete), 1)
}

func TestSweep_FolderWithChildren(t *testing.T) {
	sweeper, trash, notes, folders, audit, clk := newSweeperFixture(t)
	ctx := context.Background()

	folder := mustCreateFolder(t, trash, "Doomed")
	a := mustCreateNote(t, trash, "a", &folder.ID)
	b := mustCreateNote(t, trash, "b", &folder.ID)
	require.NoError(t, trash.SoftDeleteFolder(ctx, folder.ID, testOwner, true))

	clk.Add(31 * 24 * time.Hour)

	result, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.NotesDeleted)
	assert.Equal(t, 1, result.FoldersDeleted)

	assert.NotContains(t, notes.notes, a.UUID)
	assert.NotContains(t, notes.notes, b.UUID)
	assert.NotContains(t, folders.folders, folder.ID)

	entries := audit.byAction(domain.AuditActionAutoDelete)
	var folderEntry *domain.AuditLogEntry
	for i := range entries {
		if entries[i].ItemType == domain.AuditItemFolder {
			folderEntry = &entries[i]
		}
	}
	require.NotNil(t, folderEntry)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(folderEntry.Metadata, &meta))
	assert.EqualValues(t, 2, meta["child_notes_count"])
}

func TestSweep_DefensiveOrphanPurge(t *testing.T) {
	sweeper, trash, notes, folders, _, clk := newSweeperFixture(t)
	ctx := context.Background()

	folder := mustCreateFolder(t, trash, "Broken cascade")
	orphan := mustCreateNote(t, trash, "left behind", &folder.ID)
	// Папка в корзине, а заметка осталась живой — так выглядит каскад,
	// прерванный между шагами
	require.NoError(t, folders.SoftDelete(ctx, folder.ID, testOwner, clk.Now()))

	clk.Add(31 * 24 * time.Hour)

	result, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.FoldersDeleted)

	assert.NotContains(t, notes.notes, orphan.UUID, "notes still referencing the folder go with it")
	assert.NotContains(t, folders.folders, folder.ID)
}

func TestSweep_AuditSurvivesPurge(t *testing.T) {
	sweeper, trash, _, _, audit, clk := newSweeperFixture(t)
	ctx := context.Background()

	note := mustCreateNote(t, trash, "remembered", nil)
	require.NoError(t, trash.SoftDeleteNote(ctx, note.UUID, testOwner))
	deletedAt := clk.Now()
	clk.Add(31 * 24 * time.Hour)

	_, err := sweeper.Run(ctx)
	require.NoError(t, err)

	auditSvc := NewAuditService(audit, clk)
	entries, err := auditSvc.GetUserLog(ctx, testOwner, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var meta map[string]string
	require.NoError(t, json.Unmarshal(entries[0].Metadata, &meta))
	assert.Equal(t, deletedAt.Format(time.RFC3339), meta["deleted_at"])
	assert.Equal(t, deletedAt.Add(domain.RetentionPeriod).Format(time.RFC3339), meta["expiration_date"])
}

func TestSweep_ScanFailureStopsRun(t *testing.T) {
	sweeper, trash, notes, _, _, clk := newSweeperFixture(t)
	ctx := context.Background()

	note := mustCreateNote(t, trash, "pending", nil)
	require.NoError(t, trash.SoftDeleteNote(ctx, note.UUID, testOwner))
	clk.Add(31 * 24 * time.Hour)

	notes.failListExpired = assert.AnError
	_, err := sweeper.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, notes.notes, note.UUID)

	// Следующий запуск добирает просроченное
	notes.failListExpired = nil
	result, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.NotesDeleted)
}
