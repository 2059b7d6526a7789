package repositories

import (
	"context"
	"errors"

	"vetting/interviewer/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReportRepository struct {
	DB *gorm.DB
}

func (r *ReportRepository) GetByCandidate(ctx context.Context, candidateID uint) (*models.CandidateReport, error) {
	var report models.CandidateReport
	if err := r.DB.WithContext(ctx).First(&report, "candidate_id = ?", candidateID).Error; err != nil {
		return nil, notFound(err, "report")
	}
	return &report, nil
}

func (r *ReportRepository) Exists(ctx context.Context, candidateID uint) (bool, error) {
	_, err := r.GetByCandidate(ctx, candidateID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// InsertIfAbsent stores the report unless the candidate already has one. It reports whether
// this call created the row.
func (r *ReportRepository) InsertIfAbsent(ctx context.Context, report *models.CandidateReport) (bool, error) {
	result := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "candidate_id"}}, DoNothing: true}).
		Create(report)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
