package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"smart-practice/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionGetSession(t *testing.T) {
	db, mock := newMockDB(t)

	session := domain.NewSessionState("u1", "Go")
	session.ActiveNodeID = "n1"
	session.Skill("n1").CorrectStreak = 2
	raw, err := session.Encode()
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT state FROM sessions WHERE user_id = ? AND topic = ?`)).
		WithArgs("u1", "Go").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(raw))

	repo := NewSessionDatabaseAdapter(db)
	got, err := repo.GetSession(context.Background(), "u1", "Go")

	assert.NoError(t, err)
	assert.Equal(t, "n1", got.ActiveNodeID)
	assert.Equal(t, 2, got.NodeStates["n1"].CorrectStreak)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionGetSession_AbsentIsNotAnError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT state FROM sessions WHERE user_id = ? AND topic = ?`)).
		WithArgs("u1", "Go").
		WillReturnRows(sqlmock.NewRows([]string{"state"}))

	repo := NewSessionDatabaseAdapter(db)
	got, err := repo.GetSession(context.Background(), "u1", "Go")

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionGetSession_CorruptBlob(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT state FROM sessions WHERE user_id = ? AND topic = ?`)).
		WithArgs("u1", "Go").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow([]byte("{broken")))

	repo := NewSessionDatabaseAdapter(db)
	_, err := repo.GetSession(context.Background(), "u1", "Go")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode session")
}

func TestSessionSaveSession_Upserts(t *testing.T) {
	db, mock := newMockDB(t)
	session := domain.NewSessionState("u1", "Go")

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions`)).
		WithArgs("u1", "Go", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewSessionDatabaseAdapter(db)
	assert.NoError(t, repo.SaveSession(context.Background(), session))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionSaveSession_ExecError(t *testing.T) {
	db, mock := newMockDB(t)
	session := domain.NewSessionState("u1", "Go")

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO sessions`)).
		WillReturnError(errors.New("database is locked"))

	repo := NewSessionDatabaseAdapter(db)
	assert.Error(t, repo.SaveSession(context.Background(), session))
}
