// internal/chat/log.go
//
// Bounded chat history shared by every player.
// Responsibilities:
//   - Append a validated message, evicting the oldest entries past the cap.
//   - Return the most recent N messages in insertion order.
//
// Storage:
//   The sequence lives under game.ChatKey as one JSON array. Append is
//   fetch → push → trim → write of that value, with the same lost-update
//   exposure as the player registry: two appends that read the same snapshot
//   keep only the later writer's message.

package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/emojiworld/apps/go-server/internal/game"
	"github.com/robalobadob/emojiworld/apps/go-server/internal/store"
)

// Message is one persisted chat line. Immutable once written.
type Message struct {
	ID         string `json:"id"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"` // ISO-8601, UTC, millisecond precision
}

// TimestampLayout is the ISO-8601 layout used for Message.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Log is a stateless facade over the chat collection.
type Log struct {
	store      store.Store
	now        game.Clock
	maxHistory int
	maxLength  int
	newID      func(time.Time) string
}

// Option customizes a Log.
type Option func(*Log)

// WithClock overrides the time source.
func WithClock(c game.Clock) Option { return func(l *Log) { l.now = c } }

// WithMaxHistory sets how many messages are kept.
func WithMaxHistory(n int) Option { return func(l *Log) { l.maxHistory = n } }

// WithMaxLength sets the body length cap in characters.
func WithMaxLength(n int) Option { return func(l *Log) { l.maxLength = n } }

// NewLog constructs a Log over st.
func NewLog(st store.Store, opts ...Option) *Log {
	l := &Log{
		store:      st,
		now:        game.SystemClock,
		maxHistory: game.DefaultMaxChatHistory,
		maxLength:  game.DefaultMaxMessageLength,
		newID:      messageID,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// MaxHistory reports the history cap.
func (l *Log) MaxHistory() int { return l.maxHistory }

// Append stores a new message from the given author and returns it together
// with the number of messages stored after the write.
//
// The body is trimmed; an empty result is rejected with game.ErrInvalidInput.
// Bodies longer than the cap are truncated, not rejected.
func (l *Log) Append(ctx context.Context, playerID, playerName, raw string) (Message, int, error) {
	if strings.TrimSpace(playerID) == "" {
		return Message{}, 0, game.ErrUnauthorized
	}
	body := strings.TrimSpace(raw)
	if body == "" {
		return Message{}, 0, fmt.Errorf("%w: message is empty", game.ErrInvalidInput)
	}
	body = truncate(body, l.maxLength)
	if playerName == "" {
		playerName = playerID
	}

	msgs, err := l.load(ctx)
	if err != nil {
		return Message{}, 0, err
	}

	now := l.now()
	m := Message{
		ID:         l.newID(now),
		PlayerID:   playerID,
		PlayerName: playerName,
		Message:    body,
		Timestamp:  now.UTC().Format(TimestampLayout),
	}
	msgs = append(msgs, m)
	if over := len(msgs) - l.maxHistory; over > 0 {
		msgs = msgs[over:]
	}

	if err := l.save(ctx, msgs); err != nil {
		return Message{}, 0, err
	}
	return m, len(msgs), nil
}

// Tail returns the last limit messages in insertion order and the total
// number stored. limit <= 0 returns every message.
func (l *Log) Tail(ctx context.Context, limit int) ([]Message, int, error) {
	msgs, err := l.load(ctx)
	if err != nil {
		return []Message{}, 0, err
	}
	total := len(msgs)
	if limit > 0 && total > limit {
		msgs = msgs[total-limit:]
	}
	return msgs, total, nil
}

// ----------------------------------------------------------------------------

func (l *Log) load(ctx context.Context) ([]Message, error) {
	var msgs []Message
	if _, err := store.GetJSON(ctx, l.store, game.ChatKey, &msgs); err != nil {
		return nil, fmt.Errorf("%w: read chat: %v", game.ErrStoreUnavailable, err)
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, nil
}

func (l *Log) save(ctx context.Context, msgs []Message) error {
	if err := store.SetJSON(ctx, l.store, game.ChatKey, msgs); err != nil {
		return fmt.Errorf("%w: write chat: %v", game.ErrStoreUnavailable, err)
	}
	return nil
}

// messageID combines the creation time with a random suffix so that two
// messages created in the same millisecond never collide.
func messageID(t time.Time) string {
	r := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%d-%s", t.UnixMilli(), r[:12])
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
