package templates

import (
	"strings"
	"time"
)

// Base carries the application fields shared by every email.
type Base struct {
	AppName    string
	AppURL     string
	SupportURL string
}

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithPeerName(name string) Option {
	return func(d *EmailData) {
		if s := strings.TrimSpace(name); s != "" {
			d.PeerName = s
		}
	}
}

func NewBaseEmailData(b Base, typ, name, recipient string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          recipient,
		RecipientEmail: recipient,
		Type:           typ,
		AppName:        b.AppName,
		AppURL:         b.AppURL,
		SupportURL:     b.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(b Base, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(b, Welcome, name, email, opts...))
}

// NewFriendAddedData is sent to the user who was added; peerName must already
// be the name that recipient is allowed to see.
func NewFriendAddedData(b Base, name, email, peerName string, opts ...Option) map[string]any {
	opts = append([]Option{WithPeerName(peerName)}, opts...)
	return ToMap(NewBaseEmailData(b, FriendAdded, name, email, opts...))
}
