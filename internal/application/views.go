package application

import (
	"time"

	"github.com/oksasatya/circle-up/internal/domain/entity"
	"github.com/oksasatya/circle-up/internal/domain/visibility"
)

type FriendEdgeView struct {
	Friend   string `json:"friend"`
	ShowName bool   `json:"showName"`
}

// UserView is a user as seen by one viewer. The real name is only set when
// the viewer may see it; email and friend edges only for the user themself.
type UserView struct {
	ID            string           `json:"id"`
	Name          string           `json:"name,omitempty"`
	AnonymousName string           `json:"anonymousName"`
	DisplayName   string           `json:"displayName"`
	Email         string           `json:"email,omitempty"`
	Picture       string           `json:"picture"`
	Goals         []string         `json:"goals"`
	Friends       []FriendEdgeView `json:"friends,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func NewUserView(u *entity.User, viewerID string) UserView {
	v := UserView{
		ID:            u.ID,
		AnonymousName: u.AnonymousName,
		DisplayName:   visibility.ResolveDisplayName(u, viewerID),
		Picture:       u.Picture,
		Goals:         u.Goals,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if v.Goals == nil {
		v.Goals = []string{}
	}
	if visibility.RevealsName(u, viewerID) {
		v.Name = u.Name
	}
	if viewerID != "" && viewerID == u.ID {
		v.Email = u.Email
		v.Friends = make([]FriendEdgeView, 0, len(u.Friends))
		for _, e := range u.Friends {
			v.Friends = append(v.Friends, FriendEdgeView{Friend: e.PeerID, ShowName: e.ShowName})
		}
	}
	return v
}

// SelfView is how a user sees their own record.
func SelfView(u *entity.User) UserView {
	return NewUserView(u, u.ID)
}

type PopulatedFriend struct {
	Friend   UserView `json:"friend"`
	ShowName bool     `json:"showName"`
}

// UserProfile is a user with its friend edges expanded. Each friend is
// rendered as the profile owner sees them.
type UserProfile struct {
	UserView
	Friends []PopulatedFriend `json:"friends"`
}

type DirectMessageView struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDirectMessageView(m *entity.DirectMessage) DirectMessageView {
	return DirectMessageView{ID: m.ID, Sender: m.SenderID, Receiver: m.ReceiverID, Message: m.Message, Timestamp: m.Timestamp}
}

type SenderView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type CommunityMessageView struct {
	ID        string     `json:"id"`
	Community string     `json:"community"`
	Sender    SenderView `json:"sender"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func NewCommunityMessageView(m *entity.CommunityMessageView) CommunityMessageView {
	return CommunityMessageView{
		ID:        m.ID,
		Community: m.CommunityID,
		Sender:    SenderView{ID: m.Sender.ID, Name: m.Sender.Name, Email: m.Sender.Email},
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type MemberView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

type CommunityView struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Admin       MemberView   `json:"admin"`
	Users       []MemberView `json:"users"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func newMemberView(id string, users map[string]*entity.User) MemberView {
	m := MemberView{ID: id}
	if u, ok := users[id]; ok {
		m.Name = u.Name
		m.Picture = u.Picture
	}
	return m
}

func NewCommunityView(c *entity.Community, users map[string]*entity.User) CommunityView {
	v := CommunityView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Admin:       newMemberView(c.AdminID, users),
		Users:       make([]MemberView, 0, len(c.Members)),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	for _, id := range c.Members {
		v.Users = append(v.Users, newMemberView(id, users))
	}
	return v
}
