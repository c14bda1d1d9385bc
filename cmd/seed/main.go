package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/circle-up/config"
	"github.com/oksasatya/circle-up/internal/application"
	"github.com/oksasatya/circle-up/internal/domain/entity"
	pginfra "github.com/oksasatya/circle-up/internal/infrastructure/postgres"
	"github.com/oksasatya/circle-up/pkg/apperror"
	"github.com/oksasatya/circle-up/pkg/helpers"
	mailtpl "github.com/oksasatya/circle-up/pkg/mailer/templates"
)

type demoUser struct {
	name, anon, email string
	goals             []string
}

var demo = []demoUser{
	{"Ann Lee", "Fox", "ann@circleup.local", []string{"run a 10k"}},
	{"Bob Stone", "Owl", "bob@circleup.local", []string{"read more", "run a 10k"}},
	{"Cleo Park", "Heron", "cleo@circleup.local", nil},
}

const demoPassword = "password123"

// Seeds demo users, one friendship and a community. Safe to rerun.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	userRepo := pginfra.NewUserRepository(pool)
	communityRepo := pginfra.NewCommunityRepository(pool)
	jwt := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.AccessTTL, cfg.AppName)
	base := mailtpl.Base{AppName: cfg.AppName, AppURL: cfg.AppURL}

	users := application.NewUserService(userRepo, jwt, nil, nil, base, logger)
	friends := application.NewFriendService(userRepo, nil, base, logger)
	communities := application.NewCommunityService(communityRepo, pginfra.NewCommunityMessageRepository(pool), userRepo,
		nil, nil, "", nil, logger)

	ids := make([]string, 0, len(demo))
	for _, d := range demo {
		u, err := ensureUser(ctx, users, userRepo, d)
		if err != nil {
			log.Fatalf("failed to seed %s: %v", d.email, err)
		}
		ids = append(ids, u.ID)
		fmt.Printf("seeded user: id=%s email=%s anonymousName=%s password=%s\n", u.ID, u.Email, u.AnonymousName, demoPassword)
	}

	if err := friends.AddFriend(ctx, ids[0], ids[1]); err != nil && apperror.KindOf(err) != apperror.KindConflict {
		log.Fatalf("failed to seed friendship: %v", err)
	}
	if err := friends.SetVisibility(ctx, ids[0], ids[1], true); err != nil {
		log.Fatalf("failed to reveal name: %v", err)
	}
	fmt.Println("ann and bob are friends; bob sees ann's name")

	mine, err := communityRepo.ListByMember(ctx, ids[0])
	if err != nil {
		log.Fatalf("failed to list communities: %v", err)
	}
	for _, c := range mine {
		if c.Name == "Morning Runners" {
			fmt.Printf("community exists: id=%s\n", c.ID)
			return
		}
	}
	c, err := communities.Create(ctx, application.CreateCommunityInput{Name: "Morning Runners", Description: "Early runs, any pace.", AdminID: ids[0]})
	if err != nil {
		log.Fatalf("failed to seed community: %v", err)
	}
	if _, err := communities.AddUsers(ctx, c.ID, ids[0], ids[1:]); err != nil {
		log.Fatalf("failed to add members: %v", err)
	}
	fmt.Printf("seeded community: id=%s name=%s\n", c.ID, c.Name)
}

func ensureUser(ctx context.Context, users *application.UserService, repo *pginfra.UserRepository, d demoUser) (*entity.User, error) {
	_, err := users.Signup(ctx, application.SignupInput{Name: d.name, AnonymousName: d.anon, Email: d.email, Password: demoPassword})
	if err != nil && apperror.KindOf(err) != apperror.KindConflict {
		return nil, err
	}
	u, err := repo.GetByEmail(ctx, d.email)
	if err != nil {
		return nil, err
	}
	if len(u.Goals) == 0 && len(d.goals) > 0 {
		return repo.ReplaceGoals(ctx, u.ID, d.goals)
	}
	return u, nil
}
