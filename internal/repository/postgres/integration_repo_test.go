package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/mkarpenko/socialvault/internal/errs"
	"github.com/mkarpenko/socialvault/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func recordColumns() []string {
	return []string{"id", "user_id", "platform_name", "credentials", "credentials_encrypted", "status", "created_at", "updated_at"}
}

func TestIntegrationRepo_Upsert_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewIntegrationRepo(db)

	id := uuid.Must(uuid.NewV4())
	now := time.Now()
	rec := &model.IntegrationRecord{
		ID:                   id,
		UserID:               "user-1",
		Platform:             model.PlatformLinkedIn,
		Credentials:          []byte("aXY=:Y3Q="),
		CredentialsEncrypted: true,
		Status:               model.StatusActive,
	}

	mock.ExpectQuery(`INSERT INTO integrations`).
		WithArgs(id, "user-1", "linkedin", []byte("aXY=:Y3Q="), true, "active").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(id, now, now))

	got, err := r.Upsert(context.Background(), rec)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
	require.Equal(t, now, got.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIntegrationRepo_Upsert_StorageFailure(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewIntegrationRepo(db)

	mock.ExpectQuery(`INSERT INTO integrations`).
		WillReturnError(errors.New("connection refused"))

	_, err := r.Upsert(context.Background(), &model.IntegrationRecord{
		ID: uuid.Must(uuid.NewV4()), UserID: "u", Platform: model.PlatformTwitter, Status: model.StatusActive,
	})
	require.ErrorIs(t, err, errs.ErrPersistence)
}

func TestIntegrationRepo_Get_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewIntegrationRepo(db)

	mock.ExpectQuery(`FROM integrations WHERE user_id=\$1 AND platform_name=\$2`).
		WithArgs("user-1", "youtube").
		WillReturnError(pgx.ErrNoRows)

	_, err := r.Get(context.Background(), "user-1", model.PlatformYouTube)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestIntegrationRepo_Get_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewIntegrationRepo(db)

	id := uuid.Must(uuid.NewV4())
	now := time.Now()
	mock.ExpectQuery(`FROM integrations WHERE user_id=\$1 AND platform_name=\$2`).
		WithArgs("user-1", "linkedin").
		WillReturnRows(pgxmock.NewRows(recordColumns()).
			AddRow(id, "user-1", "linkedin", []byte(`{"a":1}`), false, "active", now, now))

	rec, err := r.Get(context.Background(), "user-1", model.PlatformLinkedIn)
	require.NoError(t, err)
	require.Equal(t, model.PlatformLinkedIn, rec.Platform)
	require.Equal(t, model.StatusActive, rec.Status)
	require.False(t, rec.CredentialsEncrypted)
}

func TestIntegrationRepo_UpdateWithLock_OK(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewIntegrationRepo(db)

	id := uuid.Must(uuid.NewV4())
	created := time.Now().Add(-time.Hour)
	updated := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM integrations WHERE user_id=\$1 AND platform_name=\$2 FOR UPDATE`).
		WithArgs("user-1", "linkedin").
		WillReturnRows(pgxmock.NewRows(recordColumns()).
			AddRow(id, "user-1", "linkedin", []byte("old"), true, "active", created, created))
	mock.ExpectQuery(`UPDATE integrations`).
		WithArgs("user-1", "linkedin", []byte("new"), true, "inactive").
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(updated))
	mock.ExpectCommit()

	rec, err := r.UpdateWithLock(context.Background(), "user-1", model.PlatformLinkedIn,
		func(rec *model.IntegrationRecord) error {
			rec.Credentials = []byte("new")
			rec.Status = model.StatusInactive
			return nil
		})
	require.NoError(t, err)
	require.Equal(t, []byte("new"), rec.Credentials)
	require.Equal(t, model.StatusInactive, rec.Status)
	require.Equal(t, updated, rec.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIntegrationRepo_UpdateWithLock_NotFound(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewIntegrationRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("user-1", "twitter").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := r.UpdateWithLock(context.Background(), "user-1", model.PlatformTwitter,
		func(rec *model.IntegrationRecord) error { return nil })
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestIntegrationRepo_UpdateWithLock_CallbackErrorAborts(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewIntegrationRepo(db)

	id := uuid.Must(uuid.NewV4())
	now := time.Now()
	sentinel := errors.New("merge refused")

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs("user-1", "linkedin").
		WillReturnRows(pgxmock.NewRows(recordColumns()).
			AddRow(id, "user-1", "linkedin", []byte("cur"), true, "active", now, now))
	mock.ExpectRollback()

	_, err := r.UpdateWithLock(context.Background(), "user-1", model.PlatformLinkedIn,
		func(rec *model.IntegrationRecord) error { return sentinel })
	require.ErrorIs(t, err, sentinel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIntegrationRepo_ListActive(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewIntegrationRepo(db)

	id1 := uuid.Must(uuid.NewV4())
	id2 := uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`status='active' AND platform_name = ANY\(\$2\)`).
		WithArgs("user-1", []string{"facebook", "linkedin"}).
		WillReturnRows(pgxmock.NewRows(recordColumns()).
			AddRow(id1, "user-1", "facebook", []byte("a"), true, "active", now, now).
			AddRow(id2, "user-1", "linkedin", []byte("b"), true, "active", now, now))

	recs, err := r.ListActive(context.Background(), "user-1",
		[]model.Platform{model.PlatformFacebook, model.PlatformLinkedIn})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, model.PlatformFacebook, recs[0].Platform)
	require.Equal(t, model.PlatformLinkedIn, recs[1].Platform)
}
