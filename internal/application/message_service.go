package application

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/circle-up/internal/domain/entity"
	repo "github.com/oksasatya/circle-up/internal/domain/repository"
	"github.com/oksasatya/circle-up/internal/observability"
	"github.com/oksasatya/circle-up/pkg/apperror"
	"github.com/oksasatya/circle-up/pkg/helpers"
)

// MessageService is the direct messaging channel.
type MessageService struct {
	Messages repo.DirectMessageRepository
	Users    repo.UserRepository
	Hub      Broadcaster
	Metrics  *observability.Metrics
	Logger   *logrus.Logger
	Now      func() time.Time
}

func NewMessageService(messages repo.DirectMessageRepository, users repo.UserRepository, hub Broadcaster, m *observability.Metrics, logger *logrus.Logger) *MessageService {
	if m == nil {
		m = observability.NewNopMetrics()
	}
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &MessageService{Messages: messages, Users: users, Hub: hub, Metrics: m, Logger: logger, Now: time.Now}
}

// History returns the conversation between a and b, oldest first.
func (s *MessageService) History(ctx context.Context, a, b string) ([]DirectMessageView, error) {
	msgs, err := s.Messages.Conversation(ctx, a, b)
	if err != nil {
		return nil, err
	}
	out := make([]DirectMessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, NewDirectMessageView(m))
	}
	return out, nil
}

// Send persists the message and then pushes it to the receiver's room.
// A failed push is logged; the stored message is still returned.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, text string) (*DirectMessageView, error) {
	if senderID == "" || receiverID == "" {
		return nil, apperror.Validation("Sender and receiver are required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperror.Validation("Message is required")
	}
	if _, err := s.Users.GetByID(ctx, receiverID); err != nil {
		return nil, err
	}

	m := &entity.DirectMessage{SenderID: senderID, ReceiverID: receiverID, Message: text, Timestamp: s.Now().UTC()}
	if err := s.Messages.Create(ctx, m); err != nil {
		return nil, err
	}
	s.Metrics.MessagesSent.WithLabelValues("direct").Inc()

	if s.Hub != nil {
		payload := PrivateMessagePayload{Sender: m.SenderID, Message: m.Message, Timestamp: m.Timestamp}
		if err := s.Hub.Publish(ctx, UserRoom(receiverID), EventReceivePrivateMessage, payload); err != nil {
			s.Metrics.BroadcastFailures.WithLabelValues("direct").Inc()
			s.Logger.WithError(err).WithField("message_id", m.ID).Warn("publish private message failed")
		}
	}
	v := NewDirectMessageView(m)
	return &v, nil
}
