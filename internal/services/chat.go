package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"listify_echo/internal/metrics"
	"listify_echo/internal/models"
)

const deletedSenderName = "Deleted User"

// Broadcaster fans a payload out to everyone subscribed to a group topic
type Broadcaster interface {
	Broadcast(groupID uint, eventType string, payload interface{})
}

// EventChatMessage is the event type used for new and updated chat messages
const EventChatMessage = "chat.message"

// ChatMessageView is a chat message as delivered to clients
type ChatMessageView struct {
	ID         uint               `json:"id"`
	Content    string             `json:"content"`
	SenderID   *uint              `json:"sender_id"`
	SenderName string             `json:"sender_name"`
	GroupID    uint               `json:"group_id"`
	Timestamp  time.Time          `json:"timestamp"`
	Type       models.MessageType `json:"type"`
	Poll       *models.Poll       `json:"metadata,omitempty"`
}

// SendMessageInput is a chat message posted by a client
type SendMessageInput struct {
	SenderID uint         `json:"sender_id"`
	GroupID  uint         `json:"group_id"`
	Content  string       `json:"content"`
	Type     string       `json:"type"`
	Poll     *models.Poll `json:"metadata"`
}

// VoteInput is a poll vote. Pointer fields distinguish missing from zero.
type VoteInput struct {
	MessageID   *uint `json:"message_id"`
	OptionIndex *int  `json:"option_index"`
	UserID      *uint `json:"user_id"`
}

type ChatService struct {
	db    *gorm.DB
	topic Broadcaster
}

func NewChatService(db *gorm.DB, topic Broadcaster) *ChatService {
	return &ChatService{db: db, topic: topic}
}

func newMessageView(m models.ChatMessage) ChatMessageView {
	view := ChatMessageView{
		ID:        m.ID,
		Content:   m.Content,
		SenderID:  m.SenderID,
		GroupID:   m.GroupID,
		Timestamp: m.Timestamp,
		Type:      m.Type,
		Poll:      m.Poll,
	}
	if view.Type == "" {
		view.Type = models.MessageTypeText
	}
	if m.Sender != nil {
		view.SenderName = m.Sender.Username
	} else {
		view.SenderID = nil
		view.SenderName = deletedSenderName
	}
	return view
}

// Send stores a message and broadcasts it to the group. It returns nil, nil
// when the message is dropped because sender or group is unknown or the
// sender is not a member.
func (s *ChatService) Send(ctx context.Context, in SendMessageInput) (*ChatMessageView, error) {
	var sender models.User
	if err := s.db.WithContext(ctx).First(&sender, in.SenderID).Error; err != nil {
		return nil, dropIfMissing(err, "sender")
	}
	var group models.Group
	if err := s.db.WithContext(ctx).First(&group, in.GroupID).Error; err != nil {
		return nil, dropIfMissing(err, "group")
	}
	if !sender.InGroup(group.ID) {
		slog.Debug("chat message dropped: sender not in group", "sender", sender.ID, "group", group.ID)
		return nil, nil
	}

	msg := models.ChatMessage{
		Content:   in.Content,
		Timestamp: time.Now(),
		Type:      models.ParseMessageType(in.Type),
		SenderID:  &sender.ID,
		GroupID:   group.ID,
	}
	if msg.Type == models.MessageTypePoll && in.Poll != nil {
		msg.Poll = in.Poll.Blank()
	}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("failed to save chat message: %w", err)
	}
	msg.Sender = &sender

	view := newMessageView(msg)
	metrics.ChatMessages.WithLabelValues(string(msg.Type)).Inc()
	s.topic.Broadcast(group.ID, EventChatMessage, view)
	return &view, nil
}

// Vote records a poll vote and broadcasts the updated poll. Invalid votes are
// dropped and return nil, nil.
func (s *ChatService) Vote(ctx context.Context, in VoteInput) (*ChatMessageView, error) {
	if in.MessageID == nil || in.OptionIndex == nil || in.UserID == nil {
		return nil, nil
	}

	var msg models.ChatMessage
	if err := s.db.WithContext(ctx).Preload("Sender").First(&msg, *in.MessageID).Error; err != nil {
		return nil, dropIfMissing(err, "poll message")
	}
	if msg.Type != models.MessageTypePoll || msg.Poll == nil {
		return nil, nil
	}

	var voter models.User
	if err := s.db.WithContext(ctx).First(&voter, *in.UserID).Error; err != nil {
		return nil, dropIfMissing(err, "voter")
	}
	if !voter.InGroup(msg.GroupID) {
		slog.Debug("poll vote dropped: voter not in group", "voter", voter.ID, "group", msg.GroupID)
		return nil, nil
	}
	if !msg.Poll.Vote(*in.UserID, *in.OptionIndex) {
		return nil, nil
	}

	if err := s.db.WithContext(ctx).Model(&msg).Select("poll").Updates(&models.ChatMessage{Poll: msg.Poll}).Error; err != nil {
		return nil, fmt.Errorf("failed to save vote: %w", err)
	}

	view := newMessageView(msg)
	metrics.ChatMessages.WithLabelValues("VOTE").Inc()
	s.topic.Broadcast(msg.GroupID, EventChatMessage, view)
	return &view, nil
}

// History returns the messages of a group, oldest first
func (s *ChatService) History(ctx context.Context, groupID uint) ([]ChatMessageView, error) {
	var msgs []models.ChatMessage
	if err := s.db.WithContext(ctx).Preload("Sender").Where("group_id = ?", groupID).Order("timestamp, id").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch chat history: %w", err)
	}
	views := make([]ChatMessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, newMessageView(m))
	}
	return views, nil
}

func dropIfMissing(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		slog.Debug("chat event dropped", "missing", what)
		return nil
	}
	return fmt.Errorf("failed to fetch %s: %w", what, err)
}
