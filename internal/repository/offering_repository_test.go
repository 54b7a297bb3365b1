package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
)

func newOfferingRepoMock(t *testing.T) (*OfferingRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "sqlmock")
	return NewOfferingRepository(sqlxDB), mock, func() { sqlxDB.Close() }
}

func offeringRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "name", "teacher_id", "room", "day", "block", "capacity", "price_cents", "status", "created_at", "updated_at"}).
		AddRow("off-1", "Pottery", "t1", "R101", string(models.DayTuesday), string(models.Block2), 12, int64(4500), string(models.OfferingStatusPublished), now, now)
}

func TestOfferingFindByID(t *testing.T) {
	repo, mock, closeFn := newOfferingRepoMock(t)
	defer closeFn()

	mock.ExpectQuery(`SELECT (.+) FROM class_offerings WHERE id`).
		WithArgs("off-1").
		WillReturnRows(offeringRows(t))

	offering, err := repo.FindByID(context.Background(), "off-1")
	require.NoError(t, err)
	assert.Equal(t, "Pottery", offering.Name)
	assert.Equal(t, models.Block2, offering.Block)
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectQuery(`SELECT (.+) FROM class_offerings WHERE id`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByID(context.Background(), "missing")
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestOfferingCreateDefaultsToDraft(t *testing.T) {
	repo, mock, closeFn := newOfferingRepoMock(t)
	defer closeFn()

	mock.ExpectExec(`INSERT INTO class_offerings`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	offering := &models.Offering{Name: "Pottery", TeacherID: "t1", Day: models.DayTuesday, Block: models.Block2, Capacity: 12}
	require.NoError(t, repo.Create(context.Background(), offering))
	assert.Equal(t, models.OfferingStatusDraft, offering.Status)
	assert.NotEmpty(t, offering.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingListActiveBySlot(t *testing.T) {
	repo, mock, closeFn := newOfferingRepoMock(t)
	defer closeFn()

	mock.ExpectQuery(`SELECT (.+) FROM class_offerings WHERE day`).
		WithArgs(string(models.DayTuesday), string(models.Block2),
			string(models.OfferingStatusCancelled), string(models.OfferingStatusCompleted)).
		WillReturnRows(offeringRows(t))

	offerings, err := repo.ListActiveBySlot(context.Background(), models.DayTuesday, models.Block2)
	require.NoError(t, err)
	require.Len(t, offerings, 1)
	assert.Equal(t, "off-1", offerings[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingUpdateStatus(t *testing.T) {
	repo, mock, closeFn := newOfferingRepoMock(t)
	defer closeFn()

	mock.ExpectExec(`UPDATE class_offerings SET status`).
		WithArgs("off-1", string(models.OfferingStatusPublished), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "off-1", models.OfferingStatusPublished))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOfferingDeleteDraftOnly(t *testing.T) {
	repo, mock, closeFn := newOfferingRepoMock(t)
	defer closeFn()

	mock.ExpectExec(`DELETE FROM class_offerings`).
		WithArgs("off-1", string(models.OfferingStatusDraft)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.Delete(context.Background(), "off-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	// Published offerings fall outside the status guard; zero rows affected.
	mock.ExpectExec(`DELETE FROM class_offerings`).
		WithArgs("off-2", string(models.OfferingStatusDraft)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err = repo.Delete(context.Background(), "off-2")
	require.NoError(t, err)
	assert.False(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
