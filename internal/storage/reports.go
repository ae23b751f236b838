package storage

import (
	"context"

	"github.com/juju/errors"

	"repute/backend/internal/models"
)

func (s *Service) CreateReport(ctx context.Context, report *models.Report) error {
	return translate(s.db(ctx).Create(report).Error, "report")
}

func (s *Service) GetReport(ctx context.Context, id string) (*models.Report, error) {
	var report models.Report
	if err := s.db(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		return nil, translate(err, "report %q", id)
	}
	return &report, nil
}

// OpenReports повертає відкриті скарги разом із відгуком і автором скарги.
// Скарги, чий відгук зник або автор забанений, пропускаються.
func (s *Service) OpenReports(ctx context.Context) ([]models.OpenReport, error) {
	var reports []models.Report
	if err := s.db(ctx).Where("status = ?", models.ReportOpen).
		Order("created_at ASC").Order("id ASC").
		Find(&reports).Error; err != nil {
		return nil, errors.Annotate(err, "listing open reports")
	}
	if len(reports) == 0 {
		return []models.OpenReport{}, nil
	}

	reviewIDs := make([]string, 0, len(reports))
	reporterIDs := make([]string, 0, len(reports))
	for _, r := range reports {
		reviewIDs = append(reviewIDs, r.ReviewID)
		reporterIDs = append(reporterIDs, r.ReporterUserID)
	}

	var reviews []models.Review
	if err := s.db(ctx).Where("id IN ?", unique(reviewIDs)).Find(&reviews).Error; err != nil {
		return nil, errors.Annotate(err, "loading reported reviews")
	}
	byID := make(map[string]models.Review, len(reviews))
	for _, r := range reviews {
		byID[r.ID] = r
	}
	reporters, err := s.UserSummaries(ctx, reporterIDs)
	if err != nil {
		return nil, errors.Trace(err)
	}

	out := make([]models.OpenReport, 0, len(reports))
	for _, r := range reports {
		review, ok := byID[r.ReviewID]
		reporter := reporters[r.ReporterUserID]
		if !ok || reporter == nil {
			continue
		}
		out = append(out, models.OpenReport{Report: r, Review: review, Reporter: *reporter})
	}
	return out, nil
}

// CloseReport закриває скаргу. На сам відгук це не впливає.
func (s *Service) CloseReport(ctx context.Context, id, actorUserID string) (*models.Report, error) {
	fields := map[string]interface{}{
		"status":    models.ReportClosed,
		"closed_at": s.now(),
	}
	if actorUserID != "" {
		fields["closed_by_user_id"] = actorUserID
	}
	res := s.db(ctx).Model(&models.Report{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, errors.Annotatef(res.Error, "closing report %q", id)
	}
	if res.RowsAffected == 0 {
		return nil, errors.NotFoundf("report %q", id)
	}
	return s.GetReport(ctx, id)
}
