package application

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/circle-up/internal/domain/entity"
	repo "github.com/oksasatya/circle-up/internal/domain/repository"
	"github.com/oksasatya/circle-up/internal/observability"
	"github.com/oksasatya/circle-up/pkg/apperror"
	"github.com/oksasatya/circle-up/pkg/helpers"
)

var ErrNotCommunityAdmin = apperror.Forbidden("Only the admin can add users")

// CommunityService owns communities and their message channel.
type CommunityService struct {
	Communities repo.CommunityRepository
	Messages    repo.CommunityMessageRepository
	Users       repo.UserRepository
	Hub         Broadcaster
	ES          *elasticsearch.Client
	ESIndex     string
	Metrics     *observability.Metrics
	Logger      *logrus.Logger
}

func NewCommunityService(communities repo.CommunityRepository, messages repo.CommunityMessageRepository, users repo.UserRepository,
	hub Broadcaster, es *elasticsearch.Client, esIndex string, m *observability.Metrics, logger *logrus.Logger) *CommunityService {
	if m == nil {
		m = observability.NewNopMetrics()
	}
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &CommunityService{
		Communities: communities,
		Messages:    messages,
		Users:       users,
		Hub:         hub,
		ES:          es,
		ESIndex:     esIndex,
		Metrics:     m,
		Logger:      logger,
	}
}

type CreateCommunityInput struct {
	Name        string
	Description string
	AdminID     string
}

func (s *CommunityService) Create(ctx context.Context, in CreateCommunityInput) (*CommunityView, error) {
	c := &entity.Community{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		AdminID:     in.AdminID,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Users.GetByID(ctx, c.AdminID); err != nil {
		return nil, err
	}
	if err := s.Communities.Create(ctx, c); err != nil {
		return nil, err
	}
	_ = s.indexCommunity(ctx, c)
	views, err := s.views(ctx, []*entity.Community{c})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// AddUsers merges userIDs into the community. Only the admin may do this;
// membership is untouched on any failure.
func (s *CommunityService) AddUsers(ctx context.Context, communityID, requesterID string, userIDs []string) (*CommunityView, error) {
	c, err := s.Communities.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if !c.IsAdmin(requesterID) {
		return nil, ErrNotCommunityAdmin
	}
	ids := dedupe(userIDs)
	found, err := s.Users.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, apperror.NotFound("User not found")
	}
	updated, err := s.Communities.AddMembers(ctx, communityID, ids)
	if err != nil {
		return nil, err
	}
	_ = s.indexCommunity(ctx, updated)
	views, err := s.views(ctx, []*entity.Community{updated})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *CommunityService) Get(ctx context.Context, communityID string) (*CommunityView, error) {
	c, err := s.Communities.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []*entity.Community{c})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Mine lists the communities userID is a member of.
func (s *CommunityService) Mine(ctx context.Context, userID string) ([]CommunityView, error) {
	cs, err := s.Communities.ListByMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, cs)
}

func (s *CommunityService) All(ctx context.Context) ([]CommunityView, error) {
	cs, err := s.Communities.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, cs)
}

// views resolves admins and members with a single user lookup.
func (s *CommunityService) views(ctx context.Context, cs []*entity.Community) ([]CommunityView, error) {
	ids := []string{}
	for _, c := range cs {
		ids = append(ids, c.AdminID)
		ids = append(ids, c.Members...)
	}
	users, err := s.Users.GetMany(ctx, dedupe(ids))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]CommunityView, 0, len(cs))
	for _, c := range cs {
		out = append(out, NewCommunityView(c, byID))
	}
	return out, nil
}

// History returns the community conversation oldest first, senders by real name.
func (s *CommunityService) History(ctx context.Context, communityID string) ([]CommunityMessageView, error) {
	msgs, err := s.Messages.ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, err
	}
	out := make([]CommunityMessageView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, NewCommunityMessageView(m))
	}
	return out, nil
}

// Send persists the message, reloads it with the sender resolved and pushes
// it to the community room.
func (s *CommunityService) Send(ctx context.Context, communityID, senderID, text string) (*CommunityMessageView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperror.Validation("Message is required")
	}
	if senderID == "" {
		return nil, apperror.Validation("Sender is required")
	}
	if _, err := s.Communities.GetByID(ctx, communityID); err != nil {
		return nil, err
	}
	m := &entity.CommunityMessage{CommunityID: communityID, SenderID: senderID, Message: text}
	if err := s.Messages.Create(ctx, m); err != nil {
		return nil, err
	}
	s.Metrics.MessagesSent.WithLabelValues("community").Inc()

	stored, err := s.Messages.GetByID(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	v := NewCommunityMessageView(stored)
	if s.Hub != nil {
		if err := s.Hub.Publish(ctx, CommunityRoom(communityID), EventReceiveMessage, v); err != nil {
			s.Metrics.BroadcastFailures.WithLabelValues("community").Inc()
			s.Logger.WithError(err).WithField("message_id", m.ID).Warn("publish community message failed")
		}
	}
	return &v, nil
}

func (s *CommunityService) indexCommunity(ctx context.Context, c *entity.Community) error {
	if s.ES == nil || s.ESIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":           c.ID,
		"name":         c.Name,
		"description":  c.Description,
		"admin":        c.AdminID,
		"member_count": len(c.Members),
		"created_at":   c.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":   c.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: c.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(cctx, s.ES)
	if err != nil {
		s.Logger.WithError(err).WithField("community_id", c.ID).Warn("es index failed")
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithField("status", res.Status()).WithField("community_id", c.ID).Warn("es index response error")
	}
	return nil
}

// Search runs a multi_match over community name and description.
func (s *CommunityService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" || strings.TrimSpace(q) == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"name^2", "description"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(cctx), s.ES.Search.WithIndex(s.ESIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, apperror.Internal(err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.Logger.WithField("status", res.Status()).Warn("es search response error")
		return []map[string]any{}, nil
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperror.Internal(err)
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
