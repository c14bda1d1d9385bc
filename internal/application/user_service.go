package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/circle-up/internal/domain/entity"
	repo "github.com/oksasatya/circle-up/internal/domain/repository"
	"github.com/oksasatya/circle-up/pkg/apperror"
	"github.com/oksasatya/circle-up/pkg/helpers"
	mailtpl "github.com/oksasatya/circle-up/pkg/mailer/templates"
)

var (
	ErrInvalidCredentials = apperror.Unauthorized("Invalid credentials")
	ErrOldGoalNotFound    = apperror.Validation("Old goal not found")
)

// UserService covers signup, login and the user directory.
type UserService struct {
	Repo       repo.UserRepository
	JWT        *helpers.JWTManager
	Redis      *redis.Client
	Notifier   *Notifier
	MailBase   mailtpl.Base
	Logger     *logrus.Logger
	SignupTTL  time.Duration
	SessionTTL time.Duration
}

type AuthResult struct {
	User      *entity.User
	Token     string
	ExpiresAt time.Time
}

type SignupInput struct {
	Name          string
	Email         string
	Password      string
	AnonymousName string
	Picture       string
}

func NewUserService(r repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, notifier *Notifier, base mailtpl.Base, logger *logrus.Logger) *UserService {
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &UserService{
		Repo:       r,
		JWT:        jwt,
		Redis:      rdb,
		Notifier:   notifier,
		MailBase:   base,
		Logger:     logger,
		SignupTTL:  7 * 24 * time.Hour,
		SessionTTL: 7 * 24 * time.Hour,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func (s *UserService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	if strings.TrimSpace(in.AnonymousName) == "" {
		return nil, apperror.Validation("Anonymous name is required")
	}
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperror.Validation("Email and password are required")
	}
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("Email already exists")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	u := &entity.User{
		Name:          strings.TrimSpace(in.Name),
		AnonymousName: strings.TrimSpace(in.AnonymousName),
		Email:         email,
		Password:      hash,
		Picture:       in.Picture,
		Goals:         []string{},
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}

	res, err := s.issueToken(ctx, u, s.SignupTTL)
	if err != nil {
		return nil, err
	}
	s.Notifier.Enqueue(ctx, u.Email, mailtpl.Welcome, mailtpl.NewWelcomeData(s.MailBase, u.Name, u.Email, mailtpl.WithTime(u.CreatedAt)))
	s.Logger.WithField("user_id", u.ID).Info("user signed up")
	return res, nil
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.passwordMatches(u, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// passwordMatches accepts bcrypt hashes and, for rows written before hashing
// was introduced, a plaintext credential.
func (s *UserService) passwordMatches(u *entity.User, password string) bool {
	if helpers.IsBcryptHash(u.Password) {
		return helpers.CompareHashAndPassword(u.Password, password)
	}
	s.Logger.WithField("user_id", u.ID).Warn("plaintext credential on record")
	return u.Password != "" && u.Password == password
}

func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issueToken(ctx, u, s.JWT.AccessTTL)
}

// issueToken signs a token and records its session id in Redis.
func (s *UserService) issueToken(ctx context.Context, u *entity.User, ttl time.Duration) (*AuthResult, error) {
	sid := uuid.NewString()
	token, exp, err := s.JWT.GenerateAccessTokenTTL(u.ID, sid, ttl)
	if err != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		return nil, apperror.Internal(err)
	}

	if s.Redis != nil {
		key := helpers.SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"sid":        sid,
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, s.sessionTTL(ttl))
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}
	return &AuthResult{User: u, Token: token, ExpiresAt: exp}, nil
}

func (s *UserService) sessionTTL(tokenTTL time.Duration) time.Duration {
	if s.SessionTTL > tokenTTL {
		return s.SessionTTL
	}
	return tokenTTL
}

func (s *UserService) Logout(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	if err := s.Redis.Del(ctx, helpers.SessionKey(userID)).Err(); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// List returns every user with displayName resolved for viewerID.
func (s *UserService) List(ctx context.Context, viewerID string) ([]UserView, error) {
	users, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserView(u, viewerID))
	}
	return out, nil
}

// Get returns id's profile as viewerID sees it. Friend names are resolved
// for viewerID too, and the owner's showName flags are only reported back
// to the owner.
func (s *UserService) Get(ctx context.Context, id, viewerID string) (*UserProfile, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	friends, err := s.Repo.GetMany(ctx, u.FriendIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.User, len(friends))
	for _, f := range friends {
		byID[f.ID] = f
	}

	p := &UserProfile{UserView: NewUserView(u, viewerID), Friends: make([]PopulatedFriend, 0, len(u.Friends))}
	p.UserView.Friends = nil
	for _, e := range u.Friends {
		f, ok := byID[e.PeerID]
		if !ok {
			continue
		}
		p.Friends = append(p.Friends, PopulatedFriend{
			Friend:   NewUserView(f, viewerID),
			ShowName: e.ShowName && viewerID == u.ID,
		})
	}
	return p, nil
}

func (s *UserService) AddGoal(ctx context.Context, userID, goal string) (*entity.User, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, apperror.Validation("Goal is required")
	}
	return s.Repo.AppendGoal(ctx, userID, goal)
}

// DeleteGoal removes every occurrence of goal.
func (s *UserService) DeleteGoal(ctx context.Context, userID, goal string) (*entity.User, error) {
	return s.Repo.RemoveGoal(ctx, userID, strings.TrimSpace(goal))
}

// UpdateGoal replaces the first occurrence of oldGoal.
func (s *UserService) UpdateGoal(ctx context.Context, userID, oldGoal, newGoal string) (*entity.User, error) {
	newGoal = strings.TrimSpace(newGoal)
	if newGoal == "" {
		return nil, apperror.Validation("Goal is required")
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	oldGoal = strings.TrimSpace(oldGoal)
	goals := append([]string{}, u.Goals...)
	for i, g := range goals {
		if g == oldGoal {
			goals[i] = newGoal
			return s.Repo.ReplaceGoals(ctx, userID, goals)
		}
	}
	return nil, ErrOldGoalNotFound
}
