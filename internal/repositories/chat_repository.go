package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"estatehub/internal/models"
)

type ChatRepository interface {
	ListUserChats(ctx context.Context, userID int) ([]*models.Chat, error)
	TotalUnread(ctx context.Context, userID int) (int, error)
	MarkRead(ctx context.Context, chatID, userID int) (int, error)
	ListMessages(ctx context.Context, chatID, limit, offset int) ([]*models.ChatMessage, error)
	CreateMessage(ctx context.Context, chatID, senderID int, text string) (*models.ChatMessage, error)
	IsMember(ctx context.Context, chatID, userID int) (bool, error)
	ListMembers(ctx context.Context, chatID int) ([]int, error)
}

type chatRepository struct {
	DB *sql.DB
}

func NewChatRepository(db *sql.DB) ChatRepository {
	return &chatRepository{DB: db}
}

// A message is unread for a user when it was sent by someone else after the
// user's read marker for that chat.
const unreadInChat = `
	SELECT COUNT(*) FROM messages m
	WHERE m.chat_id = c.id
	  AND m.sender_id <> $1
	  AND m.id > COALESCE((SELECT r.last_read_message_id FROM chat_reads r
	                       WHERE r.chat_id = c.id AND r.user_id = $1), 0)
`

func (r *chatRepository) ListUserChats(ctx context.Context, userID int) ([]*models.Chat, error) {
	q := `
		SELECT c.id, c.name, c.is_group, c.created_at,
		       COALESCE((SELECT array_agg(cm2.user_id ORDER BY cm2.user_id)
		                 FROM chat_members cm2 WHERE cm2.chat_id = c.id), '{}') AS members,
		       (` + unreadInChat + `) AS unread
		FROM chats c
		JOIN chat_members cm ON cm.chat_id = c.id AND cm.user_id = $1
		ORDER BY c.id
	`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("chats list: %w", err)
	}
	defer rows.Close()

	var chats []*models.Chat
	for rows.Next() {
		chat := &models.Chat{}
		var members pq.Int64Array
		if err := rows.Scan(&chat.ID, &chat.Name, &chat.IsGroup, &chat.CreatedAt, &members, &chat.UnreadCount); err != nil {
			return nil, fmt.Errorf("chats scan: %w", err)
		}
		for _, m := range members {
			chat.Members = append(chat.Members, int(m))
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

func (r *chatRepository) TotalUnread(ctx context.Context, userID int) (int, error) {
	q := `
		SELECT COALESCE(SUM((` + unreadInChat + `)), 0)
		FROM chats c
		JOIN chat_members cm ON cm.chat_id = c.id AND cm.user_id = $1
	`
	var total int
	if err := r.DB.QueryRowContext(ctx, q, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("chats total unread: %w", err)
	}
	return total, nil
}

// MarkRead moves the user's read marker to the newest message in the chat and
// returns how many messages were unread before the move.
func (r *chatRepository) MarkRead(ctx context.Context, chatID, userID int) (int, error) {
	const q = `
		WITH prev AS (
			SELECT COALESCE((SELECT last_read_message_id FROM chat_reads
			                 WHERE chat_id = $1 AND user_id = $2), 0) AS id
		), latest AS (
			SELECT COALESCE(MAX(id), 0) AS id FROM messages WHERE chat_id = $1
		), cnt AS (
			SELECT COUNT(*) AS n FROM messages m, prev
			WHERE m.chat_id = $1 AND m.sender_id <> $2 AND m.id > prev.id
		), upsert AS (
			INSERT INTO chat_reads (chat_id, user_id, last_read_message_id)
			SELECT $1, $2, latest.id FROM latest
			ON CONFLICT (chat_id, user_id)
			DO UPDATE SET last_read_message_id = GREATEST(chat_reads.last_read_message_id, EXCLUDED.last_read_message_id),
			              read_at = NOW()
		)
		SELECT n FROM cnt
	`
	var n int
	if err := r.DB.QueryRowContext(ctx, q, chatID, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("chats mark read: %w", err)
	}
	return n, nil
}

func (r *chatRepository) ListMessages(ctx context.Context, chatID, limit, offset int) ([]*models.ChatMessage, error) {
	const q = `
		SELECT id, chat_id, sender_id, text, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, q, chatID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("messages list: %w", err)
	}
	defer rows.Close()

	var messages []*models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Text, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("messages scan: %w", err)
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

func (r *chatRepository) CreateMessage(ctx context.Context, chatID, senderID int, text string) (*models.ChatMessage, error) {
	const q = `
		INSERT INTO messages (chat_id, sender_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	msg := &models.ChatMessage{ChatID: chatID, SenderID: senderID, Text: text}
	if err := r.DB.QueryRowContext(ctx, q, chatID, senderID, text).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("messages create: %w", err)
	}
	return msg, nil
}

func (r *chatRepository) IsMember(ctx context.Context, chatID, userID int) (bool, error) {
	const q = `SELECT 1 FROM chat_members WHERE chat_id = $1 AND user_id = $2 LIMIT 1`
	var dummy int
	err := r.DB.QueryRowContext(ctx, q, chatID, userID).Scan(&dummy)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("chat_members is member: %w", err)
	}
	return true, nil
}

func (r *chatRepository) ListMembers(ctx context.Context, chatID int) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT user_id FROM chat_members WHERE chat_id = $1 ORDER BY user_id`, chatID)
	if err != nil {
		return nil, fmt.Errorf("chat_members list: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("chat_members scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
