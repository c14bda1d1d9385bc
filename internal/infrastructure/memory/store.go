// Package memory keeps every repository in process memory. It backs
// STORAGE_DRIVER=memory and the service and handler tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/circle-up/internal/domain/entity"
	"github.com/oksasatya/circle-up/internal/domain/repository"
	"github.com/oksasatya/circle-up/pkg/apperror"
)

// Store is shared by the four repositories so community messages can
// resolve their senders.
type Store struct {
	mu          sync.RWMutex
	now         func() time.Time
	users       map[string]*entity.User
	userOrder   []string
	communities map[string]*entity.Community
	commOrder   []string
	dms         []*entity.DirectMessage
	cms         []*entity.CommunityMessage
}

func NewStore() *Store {
	return &Store{
		now:         time.Now,
		users:       map[string]*entity.User{},
		communities: map[string]*entity.Community{},
	}
}

func (s *Store) Users() *UserRepository                         { return &UserRepository{s: s} }
func (s *Store) Communities() *CommunityRepository              { return &CommunityRepository{s: s} }
func (s *Store) DirectMessages() *DirectMessageRepository       { return &DirectMessageRepository{s: s} }
func (s *Store) CommunityMessages() *CommunityMessageRepository { return &CommunityMessageRepository{s: s} }

func cloneUser(u *entity.User) *entity.User {
	c := *u
	c.Goals = append([]string{}, u.Goals...)
	c.Friends = append([]entity.FriendEdge{}, u.Friends...)
	return &c
}

func cloneCommunity(c *entity.Community) *entity.Community {
	cc := *c
	cc.Members = append([]string{}, c.Members...)
	return &cc
}

type UserRepository struct{ s *Store }

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperror.Conflict("Email already exists")
		}
	}
	now := r.s.now()
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Goals == nil {
		u.Goals = []string{}
	}
	u.Friends = []entity.FriendEdge{}
	r.s.users[u.ID] = cloneUser(u)
	r.s.userOrder = append(r.s.userOrder, u.ID)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperror.NotFound("User not found")
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, apperror.NotFound("User not found")
}

func (r *UserRepository) GetMany(_ context.Context, ids []string) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*entity.User{}
	for _, id := range r.s.userOrder {
		if slices.Contains(ids, id) {
			out = append(out, cloneUser(r.s.users[id]))
		}
	}
	return out, nil
}

func (r *UserRepository) List(_ context.Context) ([]*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.User, 0, len(r.s.userOrder))
	for _, id := range r.s.userOrder {
		out = append(out, cloneUser(r.s.users[id]))
	}
	return out, nil
}

func (r *UserRepository) AddFriendship(_ context.Context, a, b string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ua, okA := r.s.users[a]
	ub, okB := r.s.users[b]
	if !okA || !okB {
		return apperror.NotFound("User not found")
	}
	if ua.HasFriend(b) || ub.HasFriend(a) {
		return apperror.Conflict("You are already friends")
	}
	now := r.s.now()
	ua.Friends = append(ua.Friends, entity.FriendEdge{PeerID: b, CreatedAt: now})
	ub.Friends = append(ub.Friends, entity.FriendEdge{PeerID: a, CreatedAt: now})
	return nil
}

func (r *UserRepository) SetShowName(_ context.Context, ownerID, peerID string, value bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[ownerID]
	if !ok {
		return apperror.NotFound("Friend not found")
	}
	for i := range u.Friends {
		if u.Friends[i].PeerID == peerID {
			u.Friends[i].ShowName = value
			return nil
		}
	}
	return apperror.NotFound("Friend not found")
}

func (r *UserRepository) mutateGoals(userID string, fn func([]string) []string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, apperror.NotFound("User not found")
	}
	u.Goals = fn(u.Goals)
	u.UpdatedAt = r.s.now()
	return cloneUser(u), nil
}

func (r *UserRepository) AppendGoal(_ context.Context, userID, goal string) (*entity.User, error) {
	return r.mutateGoals(userID, func(g []string) []string { return append(g, goal) })
}

func (r *UserRepository) RemoveGoal(_ context.Context, userID, goal string) (*entity.User, error) {
	return r.mutateGoals(userID, func(g []string) []string {
		out := make([]string, 0, len(g))
		for _, x := range g {
			if x != goal {
				out = append(out, x)
			}
		}
		return out
	})
}

func (r *UserRepository) ReplaceGoals(_ context.Context, userID string, goals []string) (*entity.User, error) {
	return r.mutateGoals(userID, func([]string) []string { return append([]string{}, goals...) })
}

type CommunityRepository struct{ s *Store }

func (r *CommunityRepository) Create(_ context.Context, c *entity.Community) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[c.AdminID]; !ok {
		return apperror.NotFound("User not found")
	}
	now := r.s.now()
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now
	c.Members = []string{c.AdminID}
	r.s.communities[c.ID] = cloneCommunity(c)
	r.s.commOrder = append(r.s.commOrder, c.ID)
	return nil
}

func (r *CommunityRepository) GetByID(_ context.Context, id string) (*entity.Community, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.communities[id]
	if !ok {
		return nil, apperror.NotFound("Community not found")
	}
	return cloneCommunity(c), nil
}

func (r *CommunityRepository) List(_ context.Context) ([]*entity.Community, error) {
	return r.filter(func(*entity.Community) bool { return true }), nil
}

func (r *CommunityRepository) ListByMember(_ context.Context, userID string) ([]*entity.Community, error) {
	return r.filter(func(c *entity.Community) bool { return c.HasMember(userID) }), nil
}

func (r *CommunityRepository) filter(keep func(*entity.Community) bool) []*entity.Community {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*entity.Community{}
	for _, id := range r.s.commOrder {
		if c := r.s.communities[id]; keep(c) {
			out = append(out, cloneCommunity(c))
		}
	}
	return out
}

func (r *CommunityRepository) AddMembers(_ context.Context, communityID string, userIDs []string) (*entity.Community, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.communities[communityID]
	if !ok {
		return nil, apperror.NotFound("Community not found")
	}
	for _, id := range userIDs {
		if _, exists := r.s.users[id]; !exists && id != "" {
			return nil, apperror.NotFound("User not found")
		}
	}
	if len(c.MergeMembers(userIDs)) > 0 {
		c.UpdatedAt = r.s.now()
	}
	return cloneCommunity(c), nil
}

type DirectMessageRepository struct{ s *Store }

func (r *DirectMessageRepository) Create(_ context.Context, m *entity.DirectMessage) error {
	if err := m.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[m.ReceiverID]; !ok {
		return apperror.NotFound("User not found")
	}
	if _, ok := r.s.users[m.SenderID]; !ok {
		return apperror.NotFound("User not found")
	}
	m.ID = uuid.NewString()
	if m.Timestamp.IsZero() {
		m.Timestamp = r.s.now()
	}
	cp := *m
	r.s.dms = append(r.s.dms, &cp)
	return nil
}

func (r *DirectMessageRepository) Conversation(_ context.Context, a, b string) ([]*entity.DirectMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*entity.DirectMessage{}
	for _, m := range r.s.dms {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

type CommunityMessageRepository struct{ s *Store }

func (r *CommunityMessageRepository) Create(_ context.Context, m *entity.CommunityMessage) error {
	if err := m.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.communities[m.CommunityID]; !ok {
		return apperror.NotFound("Community not found")
	}
	if _, ok := r.s.users[m.SenderID]; !ok {
		return apperror.NotFound("User not found")
	}
	now := r.s.now()
	m.ID = uuid.NewString()
	m.CreatedAt, m.UpdatedAt = now, now
	cp := *m
	r.s.cms = append(r.s.cms, &cp)
	return nil
}

func (r *CommunityMessageRepository) view(m *entity.CommunityMessage) *entity.CommunityMessageView {
	v := &entity.CommunityMessageView{CommunityMessage: *m, Sender: entity.SenderProfile{ID: m.SenderID}}
	if u, ok := r.s.users[m.SenderID]; ok {
		v.Sender.Name, v.Sender.Email = u.Name, u.Email
	}
	return v
}

func (r *CommunityMessageRepository) GetByID(_ context.Context, id string) (*entity.CommunityMessageView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.cms {
		if m.ID == id {
			return r.view(m), nil
		}
	}
	return nil, apperror.NotFound("Message not found")
}

func (r *CommunityMessageRepository) ListByCommunity(_ context.Context, communityID string) ([]*entity.CommunityMessageView, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*entity.CommunityMessageView{}
	for _, m := range r.s.cms {
		if m.CommunityID == communityID {
			out = append(out, r.view(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

var (
	_ repository.UserRepository             = (*UserRepository)(nil)
	_ repository.CommunityRepository        = (*CommunityRepository)(nil)
	_ repository.DirectMessageRepository    = (*DirectMessageRepository)(nil)
	_ repository.CommunityMessageRepository = (*CommunityMessageRepository)(nil)
)
