package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"repute/backend/internal/account"
	"repute/backend/internal/config"
	"repute/backend/internal/logger"
	"repute/backend/internal/models"
	"repute/backend/internal/moderation"
	"repute/backend/internal/review"
	"repute/backend/internal/storage"
)

const usage = `Usage: admin <command> [args]

Commands:
  promote <email>          grant the admin role
  ban <user_id>            ban a user and revoke their sessions
  reports                  list open reports
  close-report <id>        dismiss a report
  hide-review <id>         hide a review
  publish-review <id>      publish a review

Moderation commands act as the admin named by ADMIN_EMAIL.`

func main() {
	_ = godotenv.Load()
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	log, err := logger.Init(logger.Config{Level: "warn", Dev: true})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := storage.OpenDB(ctx, storage.DBConfig{Driver: cfg.DatabaseDriver, DSN: cfg.DatabaseURL, MaxConns: 2}, clock.WallClock)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	// Redis is only needed to revoke sessions on ban; a banned user is
	// rejected on the next request anyway.
	rdb, err := storage.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, sessions will not be revoked", zap.Error(err))
		rdb = nil
	}
	s := storage.NewStorageService(db, rdb, clock.WallClock, nil)

	accounts := account.NewService(s, account.NewBcryptHasher(0), clock.WallClock, log)
	mod := moderation.NewService(s, review.NewEngine(s, log), log)

	if err := run(ctx, os.Args[1], os.Args[2:], s, accounts, mod); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string, s *storage.Service, accounts *account.Service, mod *moderation.Service) error {
	arg := func() (string, error) {
		if len(args) != 1 {
			return "", errors.NotValidf("arguments for %s", command)
		}
		return args[0], nil
	}

	if command == "promote" {
		email, err := arg()
		if err != nil {
			return err
		}
		user, err := accounts.Promote(ctx, email)
		if err != nil {
			return err
		}
		fmt.Printf("User %s (%s) is now an admin.\n", user.Username, user.ID)
		return nil
	}

	actor, err := operator(ctx, s)
	if err != nil {
		return err
	}

	switch command {
	case "ban":
		userID, err := arg()
		if err != nil {
			return err
		}
		if err := mod.BanUser(ctx, actor, userID); err != nil {
			return err
		}
		fmt.Printf("User %s has been banned.\n", userID)
	case "reports":
		reports, err := mod.OpenReports(ctx, actor)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "close-report":
		id, err := arg()
		if err != nil {
			return err
		}
		if _, err := mod.CloseReport(ctx, actor, id); err != nil {
			return err
		}
		fmt.Printf("Report %s has been closed.\n", id)
	case "hide-review", "publish-review":
		id, err := arg()
		if err != nil {
			return err
		}
		var r *models.Review
		if command == "hide-review" {
			r, err = mod.HideReview(ctx, actor, id)
		} else {
			r, err = mod.PublishReview(ctx, actor, id)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Review %s is now %s.\n", r.ID, r.Status)
	default:
		fmt.Println(usage)
		return errors.NotSupportedf("command %q", command)
	}
	return nil
}

// operator resolves ADMIN_EMAIL to the acting admin identity.
func operator(ctx context.Context, s *storage.Service) (models.Identity, error) {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		return models.Identity{}, errors.NotValidf("empty ADMIN_EMAIL")
	}
	user, err := s.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return models.Identity{}, errors.Annotate(err, "resolving ADMIN_EMAIL")
	}
	if user.Role != models.RoleAdmin {
		return models.Identity{}, errors.Forbiddenf("%s is not an admin", email)
	}
	return models.Identity{UserID: user.ID, Role: user.Role}, nil
}
