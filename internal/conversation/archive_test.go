package conversation

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilArchiveIsNoOp(t *testing.T) {
	var archive *TranscriptArchive

	id, err := archive.EnsureConversation(context.Background(), "conv-1", StateGreeting)
	assert.NoError(t, err)
	assert.Equal(t, uuid.Nil, id)

	assert.NoError(t, archive.AppendMessage(context.Background(), "conv-1", Message{}, StateGreeting))

	msgs, err := archive.Messages(context.Background(), "conv-1", 0)
	assert.NoError(t, err)
	assert.Nil(t, msgs)

	assert.Nil(t, NewTranscriptArchive(nil))
}

func TestEnsureConversationCreates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	archive := NewTranscriptArchive(db)

	mock.ExpectQuery(`SELECT id FROM conversations`).
		WithArgs("conv-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO conversations`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := archive.EnsureConversation(context.Background(), "conv-1", StateGreeting)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureConversationRefreshesExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	archive := NewTranscriptArchive(db)
	existing := uuid.New()

	mock.ExpectQuery(`SELECT id FROM conversations`).
		WithArgs("conv-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing.String()))
	mock.ExpectExec(`UPDATE conversations SET state`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := archive.EnsureConversation(context.Background(), "conv-1", StateCollectingMissing)
	require.NoError(t, err)
	assert.Equal(t, existing, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMessageUpdatesCounters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	archive := NewTranscriptArchive(db)
	existing := uuid.New()

	mock.ExpectQuery(`SELECT id FROM conversations`).
		WithArgs("conv-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing.String()))
	mock.ExpectExec(`UPDATE conversations SET state`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO conversation_messages`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`user_message_count = user_message_count \+ 1`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	msg := Message{Role: ChatRoleUser, Content: "我想預約內科", Timestamp: time.Now()}
	require.NoError(t, archive.AppendMessage(context.Background(), "conv-1", msg, StateExtractingEntities))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendMessageDuplicateSkipsCounters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	archive := NewTranscriptArchive(db)
	existing := uuid.New()

	mock.ExpectQuery(`SELECT id FROM conversations`).
		WithArgs("conv-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing.String()))
	mock.ExpectExec(`UPDATE conversations SET state`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO conversation_messages`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	msg := Message{Role: ChatRoleAssistant, Content: "好的", Timestamp: time.Now()}
	require.NoError(t, archive.AppendMessage(context.Background(), "conv-1", msg, StateCollectingMissing))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessagesReadsRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	archive := NewTranscriptArchive(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT id, conversation_id, role, content, created_at`).
		WithArgs("conv-1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "role", "content", "created_at"}).
			AddRow(uuid.New().String(), "conv-1", ChatRoleUser, "我想預約", now).
			AddRow(uuid.New().String(), "conv-1", ChatRoleAssistant, "好的", now))

	msgs, err := archive.Messages(context.Background(), "conv-1", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "我想預約", msgs[0].Content)
	assert.Equal(t, ChatRoleAssistant, msgs[1].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
