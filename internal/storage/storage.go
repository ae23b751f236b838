package storage

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"repute/backend/internal/models"
)

// Storage: повний набір операцій сховища. Сервіси залежать лише від
// потрібної їм частини, а *Service реалізує всі.
type Storage interface {
	Migrate(ctx context.Context) error

	CreateUserWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	CreateUserAcceptingInvite(ctx context.Context, user *models.User, token string) (*models.Nomination, *models.Profile, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UserExistsByEmail(ctx context.Context, email string) (bool, error)
	UserExistsByUsername(ctx context.Context, username string) (bool, error)
	UpdateUser(ctx context.Context, id string, fields map[string]interface{}) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UserSummaries(ctx context.Context, ids []string) (map[string]*models.UserSummary, error)
	BanUser(ctx context.Context, id string) error

	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetProfileByOwner(ctx context.Context, userID string) (*models.Profile, error)
	SearchProfiles(ctx context.Context, query, location string, limit int) ([]models.Profile, error)
	UpdateProfile(ctx context.Context, id string, fields map[string]interface{}) (*models.Profile, error)
	ClaimProfile(ctx context.Context, profileID, userID string) (*models.Profile, error)

	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, id string) (*models.Review, error)
	SetReviewStatus(ctx context.Context, id string, status models.ReviewStatus, actorUserID string) (*models.Review, error)
	ReviewsForProfile(ctx context.Context, profileID string, statuses ...models.ReviewStatus) ([]models.Review, error)
	ReviewsByReviewer(ctx context.Context, userID string) ([]models.Review, error)
	CountReviewsByReviewer(ctx context.Context, userID string) (int64, error)
	ReviewHistory(ctx context.Context, reviewID string) ([]models.ReviewStatusChange, error)
	RatingCounts(ctx context.Context, profileID string) (map[int]int, error)

	CreateNomination(ctx context.Context, nomination *models.Nomination, profile *models.Profile) error
	GetNominationByToken(ctx context.Context, token string) (*models.Nomination, error)
	AcceptNomination(ctx context.Context, token, userID string) (*models.Nomination, *models.Profile, error)
	NominationsByNominator(ctx context.Context, userID string) ([]models.Nomination, error)

	CreateReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	OpenReports(ctx context.Context) ([]models.OpenReport, error)
	CloseReport(ctx context.Context, id, actorUserID string) (*models.Report, error)

	RecordProfileView(ctx context.Context, profileID, viewerUserID string) error
	CountProfileViews(ctx context.Context, profileID string) (int64, error)
	PublicViewCountsSince(ctx context.Context, since time.Time) (map[string]int64, error)
	PublicReviewCountsSince(ctx context.Context, since time.Time) (map[string]int64, error)

	Follow(ctx context.Context, userID, profileID string) error
	Unfollow(ctx context.Context, userID, profileID string) error
	IsFollowing(ctx context.Context, userID, profileID string) (bool, error)
	FollowedProfileIDs(ctx context.Context, userID string) ([]string, error)

	FeedReviews(ctx context.Context, profileIDs []string, limit int) ([]models.Review, error)
	FeedClaimedProfiles(ctx context.Context, profileIDs []string, limit int) ([]models.Profile, error)
	PublicProfilesByID(ctx context.Context, ids []string) ([]models.Profile, error)

	SessionStore
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Clock clock.Clock

	node *snowflake.Node
}

var _ Storage = (*Service)(nil)

// NewStorageService Constructor. node генерує ID для журналу переглядів;
// якщо nil, використовується вузол 1.
func NewStorageService(db *gorm.DB, rdb *redis.Client, clk clock.Clock, node *snowflake.Node) *Service {
	if clk == nil {
		clk = clock.WallClock
	}
	if node == nil {
		node, _ = snowflake.NewNode(1)
	}
	return &Service{
		DB:    db,
		Redis: rdb,
		Clock: clk,
		node:  node,
	}
}

// Migrate створює або оновлює таблиці для всіх моделей.
// Порядок важливий: таблиці з зовнішніми ключами йдуть після тих, на які посилаються.
func (s *Service) Migrate(ctx context.Context) error {
	err := s.DB.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Review{},
		&models.ReviewStatusChange{},
		&models.Nomination{},
		&models.Report{},
		&models.ProfileView{},
		&models.Follow{},
	)
	return errors.Annotate(err, "running migrations")
}

func (s *Service) now() time.Time {
	return now(s.Clock)
}

func (s *Service) db(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx)
}
