package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const defaultSessionTTL = 24 * time.Hour

// ErrNotFound is returned when a conversation ID has no stored session,
// either because it never existed or because its TTL elapsed.
var ErrNotFound = errors.New("conversation: not found")

// Store keeps live conversation sessions in Redis. Sessions expire after
// the configured TTL; expiry is the only session cleanup.
type Store struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
}

// NewStore builds a Store. The TTL defaults to 24 hours when zero.
func NewStore(client *redis.Client, tracer trace.Tracer, ttl time.Duration) *Store {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("clinic.internal.conversation.store")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Store{
		redis:  client,
		tracer: tracer,
		ttl:    ttl,
	}
}

// Save persists the conversation and refreshes its TTL.
func (s *Store) Save(ctx context.Context, conv *Conversation) error {
	ctx, span := s.tracer.Start(ctx, "conversation.save_session")
	defer span.End()

	data, err := json.Marshal(conv)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(conv.ID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist session: %w", err)
	}
	return nil
}

// Load retrieves a conversation by ID, returning ErrNotFound for unknown
// or expired sessions.
func (s *Store) Load(ctx context.Context, id string) (*Conversation, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_session")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		span.RecordError(err)
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("conversation: failed to load session: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode session: %w", err)
	}
	return &conv, nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("booking:conversation:%s", id)
}
