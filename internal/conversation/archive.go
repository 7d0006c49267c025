package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TranscriptArchive persists conversations and messages to PostgreSQL for
// long-term history, separate from the live Redis session. A nil archive
// is valid and turns every call into a no-op.
type TranscriptArchive struct {
	db *sql.DB
}

// NewTranscriptArchive creates an archive over the given database, or nil
// when no database is configured.
func NewTranscriptArchive(db *sql.DB) *TranscriptArchive {
	if db == nil {
		return nil
	}
	return &TranscriptArchive{db: db}
}

// MessageRecord is one archived message row.
type MessageRecord struct {
	ID             uuid.UUID
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
}

// EnsureConversation creates the conversation row if needed and refreshes
// its state. Returns the row UUID.
func (a *TranscriptArchive) EnsureConversation(ctx context.Context, conversationID string, state State) (uuid.UUID, error) {
	if a == nil || a.db == nil {
		return uuid.Nil, nil
	}

	var existingID uuid.UUID
	err := a.db.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE conversation_id = $1`,
		conversationID,
	).Scan(&existingID)

	if err == nil {
		_, err = a.db.ExecContext(ctx,
			`UPDATE conversations SET state = $1, updated_at = $2 WHERE id = $3`,
			string(state), time.Now(), existingID,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("conversation: failed to refresh archive row: %w", err)
		}
		return existingID, nil
	}

	if err != sql.ErrNoRows {
		return uuid.Nil, fmt.Errorf("conversation: failed to check archive row: %w", err)
	}

	newID := uuid.New()
	now := time.Now()
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO conversations (
			id, conversation_id, state,
			message_count, user_message_count, assistant_message_count,
			started_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, newID, conversationID, string(state), 0, 0, 0, now, now, now)

	if err != nil {
		// Another request may have created it concurrently.
		if strings.Contains(err.Error(), "duplicate key") {
			return a.EnsureConversation(ctx, conversationID, state)
		}
		return uuid.Nil, fmt.Errorf("conversation: failed to create archive row: %w", err)
	}
	return newID, nil
}

// AppendMessage archives one message and updates the conversation
// counters.
func (a *TranscriptArchive) AppendMessage(ctx context.Context, conversationID string, msg Message, state State) error {
	if a == nil || a.db == nil {
		return nil
	}

	if _, err := a.EnsureConversation(ctx, conversationID, state); err != nil {
		return err
	}

	timestamp := msg.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	result, err := a.db.ExecContext(ctx, `
		INSERT INTO conversation_messages (
			id, conversation_id, role, content, created_at
		) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`, uuid.New(), conversationID, msg.Role, msg.Content, timestamp)
	if err != nil {
		return fmt.Errorf("conversation: failed to archive message: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("conversation: failed to read archive result: %w", err)
	}
	if rowsAffected == 0 {
		return nil
	}

	counterColumn := "message_count"
	switch msg.Role {
	case ChatRoleUser:
		counterColumn = "user_message_count"
	case ChatRoleAssistant:
		counterColumn = "assistant_message_count"
	}

	_, err = a.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE conversations SET
			message_count = message_count + 1,
			%s = %s + 1,
			last_message_at = $1,
			updated_at = $1
		WHERE conversation_id = $2
	`, counterColumn, counterColumn), timestamp, conversationID)
	if err != nil {
		return fmt.Errorf("conversation: failed to update archive counters: %w", err)
	}
	return nil
}

// Messages retrieves archived messages in chronological order.
func (a *TranscriptArchive) Messages(ctx context.Context, conversationID string, limit int) ([]MessageRecord, error) {
	if a == nil || a.db == nil {
		return nil, nil
	}

	query := `
		SELECT id, conversation_id, role, content, created_at
		FROM conversation_messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`
	args := []any{conversationID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to read archive: %w", err)
	}
	defer rows.Close()

	var messages []MessageRecord
	for rows.Next() {
		var msg MessageRecord
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("conversation: failed to scan archive row: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
