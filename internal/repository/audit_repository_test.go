package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notedrive/internal/domain"
)

func newAuditRepoMock(t *testing.T) (*AuditRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewAuditRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestAuditRepository_Record(t *testing.T) {
	repo, mock := newAuditRepoMock(t)

	entry := &domain.AuditLogEntry{
		UserID:    "user-1",
		Action:    domain.AuditActionAutoDelete,
		ItemType:  domain.AuditItemNote,
		ItemID:    "a7d2",
		ItemTitle: "Expired note",
		Metadata:  types.JSONText(`{"child_notes_count":2}`),
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO audit_log (user_id, action, item_type, item_id, item_title, metadata, created_at)`)).
		WithArgs(entry.UserID, entry.Action, entry.ItemType, entry.ItemID,
			entry.ItemTitle, entry.Metadata, entry.CreatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

	require.NoError(t, repo.Record(context.Background(), entry))
	assert.EqualValues(t, 12, entry.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_IsActiveAdmin(t *testing.T) {
	repo, mock := newAuditRepoMock(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("admin@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	active, err := repo.IsActiveAdmin(context.Background(), "admin@example.com")
	require.NoError(t, err)
	assert.True(t, active)
	assert.NoError(t, mock.ExpectationsWereMet())
}
