package repositories

import (
	"context"

	"vetting/interviewer/internal/models"

	"gorm.io/gorm"
)

// InterviewRepository reads candidate, interview and assignment records owned by other systems
type InterviewRepository struct {
	DB *gorm.DB
}

func (r *InterviewRepository) GetCandidateByPassKey(ctx context.Context, passKey string) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := r.DB.WithContext(ctx).First(&candidate, "pass_key = ?", passKey).Error; err != nil {
		return nil, notFound(err, "candidate")
	}
	return &candidate, nil
}

func (r *InterviewRepository) GetCandidate(ctx context.Context, id uint) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := r.DB.WithContext(ctx).First(&candidate, id).Error; err != nil {
		return nil, notFound(err, "candidate")
	}
	return &candidate, nil
}

func (r *InterviewRepository) GetInterview(ctx context.Context, id uint) (*models.Interview, error) {
	var interview models.Interview
	if err := r.DB.WithContext(ctx).First(&interview, id).Error; err != nil {
		return nil, notFound(err, "interview")
	}
	return &interview, nil
}

// ListAssignments returns the interview's questions in traversal order
func (r *InterviewRepository) ListAssignments(ctx context.Context, interviewID uint) ([]models.InterviewQuestion, error) {
	var assignments []models.InterviewQuestion
	err := r.DB.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("order_index ASC").
		Find(&assignments).Error
	return assignments, err
}
