// Package moderation handles reports against reviews and the admin actions
// that resolve them: closing tickets, hiding or republishing reviews and
// banning users.
package moderation

import (
	"context"
	"strings"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"repute/backend/internal/models"
)

type State interface {
	GetReview(ctx context.Context, id string) (*models.Review, error)
	CreateReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id string) (*models.Report, error)
	OpenReports(ctx context.Context) ([]models.OpenReport, error)
	CloseReport(ctx context.Context, id, actorUserID string) (*models.Report, error)
	BanUser(ctx context.Context, id string) error
}

// StatusUpdater moves a review between states. The review engine implements it.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, actor models.Identity, id string, status models.ReviewStatus) (*models.Review, error)
}

// Service handles the business logic for reports.
type Service struct {
	Storage State
	Reviews StatusUpdater

	logger *zap.Logger
}

// NewService creates a new moderation service.
func NewService(s State, reviews StatusUpdater, logger *zap.Logger) *Service {
	return &Service{Storage: s, Reviews: reviews, logger: logger}
}

// CreateReport files a new open ticket against a review. The same review may
// be reported any number of times, including by its own author.
func (s *Service) CreateReport(ctx context.Context, actor models.Identity, reviewID, reason string) (*models.Report, error) {
	if actor.IsAnonymous() {
		return nil, errors.Unauthorizedf("login required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.NewNotValid(nil, "report reason is required")
	}
	if _, err := s.Storage.GetReview(ctx, reviewID); err != nil {
		return nil, errors.Trace(err)
	}

	report := &models.Report{
		ReporterUserID: actor.UserID,
		ReviewID:       reviewID,
		Reason:         reason,
		Status:         models.ReportOpen,
	}
	if err := s.Storage.CreateReport(ctx, report); err != nil {
		return nil, errors.Trace(err)
	}
	s.logger.Info("review reported",
		zap.String("report_id", report.ID),
		zap.String("review_id", reviewID),
		zap.String("reporter_id", actor.UserID))
	return report, nil
}

// OpenReports lists open tickets, oldest first.
func (s *Service) OpenReports(ctx context.Context, actor models.Identity) ([]models.OpenReport, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reports, err := s.Storage.OpenReports(ctx)
	return reports, errors.Trace(err)
}

// CloseReport dismisses a ticket. The review is left untouched.
func (s *Service) CloseReport(ctx context.Context, actor models.Identity, id string) (*models.Report, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	report, err := s.Storage.CloseReport(ctx, id, actor.UserID)
	if err != nil {
		return nil, errors.Trace(err)
	}
	s.logger.Info("report closed", zap.String("report_id", id), zap.String("admin_id", actor.UserID))
	return report, nil
}

func (s *Service) HideReview(ctx context.Context, actor models.Identity, reviewID string) (*models.Review, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	review, err := s.Reviews.UpdateStatus(ctx, actor, reviewID, models.ReviewHidden)
	return review, errors.Trace(err)
}

func (s *Service) PublishReview(ctx context.Context, actor models.Identity, reviewID string) (*models.Review, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	review, err := s.Reviews.UpdateStatus(ctx, actor, reviewID, models.ReviewPublished)
	return review, errors.Trace(err)
}

// ResolveReport closes a ticket and, when hide is set, hides the reported
// review first. Other reports on the same review stay open.
func (s *Service) ResolveReport(ctx context.Context, actor models.Identity, id string, hide bool) (*models.Report, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	report, err := s.Storage.GetReport(ctx, id)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if hide {
		if _, err := s.HideReview(ctx, actor, report.ReviewID); err != nil {
			return nil, errors.Annotatef(err, "resolving report %q", id)
		}
	}
	return s.CloseReport(ctx, actor, id)
}

// BanUser tombstones an account and revokes its sessions. Reviews, reports
// and profiles of the user are kept.
func (s *Service) BanUser(ctx context.Context, actor models.Identity, userID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if userID == actor.UserID {
		return errors.NewNotValid(nil, "admins cannot ban themselves")
	}
	if err := s.Storage.BanUser(ctx, userID); err != nil {
		return errors.Trace(err)
	}
	s.logger.Warn("user banned", zap.String("user_id", userID), zap.String("admin_id", actor.UserID))
	return nil
}

func requireAdmin(actor models.Identity) error {
	if actor.IsAnonymous() {
		return errors.Unauthorizedf("login required")
	}
	if !actor.IsAdmin() {
		return errors.Forbiddenf("admin role required")
	}
	return nil
}
