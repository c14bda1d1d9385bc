package entity

import (
	"strings"
	"time"

	"github.com/oksasatya/circle-up/pkg/apperror"
)

// DirectMessage is immutable once stored.
type DirectMessage struct {
	ID         string
	SenderID   string
	ReceiverID string
	Message    string
	Timestamp  time.Time
}

func (m *DirectMessage) Validate() error {
	if m.SenderID == "" || m.ReceiverID == "" {
		return apperror.Validation("Sender and receiver are required")
	}
	if strings.TrimSpace(m.Message) == "" {
		return apperror.Validation("Message is required")
	}
	return nil
}

// CommunityMessage is immutable once stored.
type CommunityMessage struct {
	ID          string
	CommunityID string
	SenderID    string
	Message     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (m *CommunityMessage) Validate() error {
	if m.CommunityID == "" || m.SenderID == "" {
		return apperror.Validation("Community and sender are required")
	}
	if strings.TrimSpace(m.Message) == "" {
		return apperror.Validation("Message is required")
	}
	return nil
}

// SenderProfile is the real identity attached to community messages.
type SenderProfile struct {
	ID    string
	Name  string
	Email string
}

// CommunityMessageView is a stored community message with its sender resolved.
type CommunityMessageView struct {
	CommunityMessage
	Sender SenderProfile
}
