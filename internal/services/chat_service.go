package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"estatehub/internal/models"
	"estatehub/internal/repositories"
	"estatehub/internal/unread"
)

var ErrNotChatMember = errors.New("user is not a member of this chat")

// ChatService serves chats and keeps each user's unread badge in step with them.
type ChatService struct {
	repo   repositories.ChatRepository
	badges *unread.Registry
}

func NewChatService(repo repositories.ChatRepository, badges *unread.Registry) *ChatService {
	return &ChatService{repo: repo, badges: badges}
}

// ListUserChats returns the user's chats and sets the badge to their unread total.
func (s *ChatService) ListUserChats(ctx context.Context, userID int) ([]*models.Chat, error) {
	chats, err := s.repo.ListUserChats(ctx, userID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, c := range chats {
		total += c.UnreadCount
	}
	s.badges.Set(userID, total)
	return chats, nil
}

func (s *ChatService) EnsureMember(ctx context.Context, chatID, userID int) error {
	ok, err := s.repo.IsMember(ctx, chatID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotChatMember
	}
	return nil
}

// MarkRead clears a chat's unread messages and takes them off the badge.
func (s *ChatService) MarkRead(ctx context.Context, chatID, userID int) (int, error) {
	if err := s.EnsureMember(ctx, chatID, userID); err != nil {
		return 0, err
	}
	n, err := s.repo.MarkRead(ctx, chatID, userID)
	if err != nil {
		return 0, err
	}
	count := s.badges.Decrease(userID, n)
	log.Debug().Int("user_id", userID).Int("chat_id", chatID).Int("read", n).Int("unread", count).Msg("[chat][read]")
	return count, nil
}

func (s *ChatService) GetMessages(ctx context.Context, chatID, userID, limit, offset int) ([]*models.ChatMessage, error) {
	if err := s.EnsureMember(ctx, chatID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, chatID, limit, offset)
}

// SendMessage stores the message and refreshes the other members' badges from the store.
func (s *ChatService) SendMessage(ctx context.Context, chatID, senderID int, text string) (*models.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("message text is required")
	}
	if err := s.EnsureMember(ctx, chatID, senderID); err != nil {
		return nil, err
	}
	msg, err := s.repo.CreateMessage(ctx, chatID, senderID, text)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, chatID)
	if err != nil {
		log.Warn().Err(err).Int("chat_id", chatID).Msg("[chat][send] list members failed, badges not refreshed")
		return msg, nil
	}
	for _, id := range members {
		if id == senderID {
			continue
		}
		if _, err := s.SyncUnread(ctx, id); err != nil {
			log.Warn().Err(err).Int("user_id", id).Msg("[chat][send] badge refresh failed")
		}
	}
	return msg, nil
}

// SyncUnread recomputes the user's total from the store and sets the badge to it.
func (s *ChatService) SyncUnread(ctx context.Context, userID int) (int, error) {
	total, err := s.repo.TotalUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.badges.Set(userID, total), nil
}

func (s *ChatService) UnreadCount(userID int) int {
	return s.badges.Count(userID)
}

func (s *ChatService) SetUnread(userID, n int) int {
	return s.badges.Set(userID, n)
}

func (s *ChatService) DecreaseUnread(userID, n int) int {
	return s.badges.Decrease(userID, n)
}

func (s *ChatService) ResetUnread(userID int) int {
	return s.badges.Reset(userID)
}

func (s *ChatService) SubscribeUnread(userID int) (<-chan int, func()) {
	return s.badges.Subscribe(userID)
}
