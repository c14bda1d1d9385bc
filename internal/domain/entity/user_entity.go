package entity

import (
	"strings"
	"time"

	"github.com/oksasatya/circle-up/pkg/apperror"
)

// User is the aggregate root for the user directory.
// Name is the real name; AnonymousName is what everyone sees by default.
type User struct {
	ID            string
	Name          string
	AnonymousName string
	Email         string
	Password      string
	Picture       string
	Goals         []string
	Friends       []FriendEdge
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FriendEdge is stored on its owner. ShowName reveals the owner's real name
// to Peer.
type FriendEdge struct {
	PeerID    string
	ShowName  bool
	CreatedAt time.Time
}

// Validate checks the fields every stored user must carry.
func (u *User) Validate() error {
	if strings.TrimSpace(u.AnonymousName) == "" {
		return apperror.Validation("Anonymous name is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return apperror.Validation("Email is required")
	}
	if u.Password == "" {
		return apperror.Validation("Password is required")
	}
	return nil
}

// Edge returns the edge u holds towards peerID.
func (u *User) Edge(peerID string) (FriendEdge, bool) {
	for _, e := range u.Friends {
		if e.PeerID == peerID {
			return e, true
		}
	}
	return FriendEdge{}, false
}

func (u *User) HasFriend(peerID string) bool {
	_, ok := u.Edge(peerID)
	return ok
}

// FriendIDs returns the peer ids in edge order.
func (u *User) FriendIDs() []string {
	ids := make([]string, 0, len(u.Friends))
	for _, e := range u.Friends {
		ids = append(ids, e.PeerID)
	}
	return ids
}
