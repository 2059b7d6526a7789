package repositories

import (
	"context"
	"errors"
	"time"

	"vetting/interviewer/internal/models"

	"gorm.io/gorm"
)

type PromptRepository struct {
	DB *gorm.DB
}

func (r *PromptRepository) GetByStage(ctx context.Context, stage string) (*models.PromptTemplate, error) {
	var tpl models.PromptTemplate
	if err := r.DB.WithContext(ctx).First(&tpl, "stage = ?", stage).Error; err != nil {
		return nil, notFound(err, "prompt template")
	}
	return &tpl, nil
}

// Save creates the stage override or replaces its content, bumping the version
func (r *PromptRepository) Save(ctx context.Context, stage, content string, isActive bool, editedBy string, now time.Time) (*models.PromptTemplate, error) {
	var saved models.PromptTemplate
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.First(&saved, "stage = ?", stage).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			saved = models.PromptTemplate{
				Stage:    stage,
				Content:  content,
				Version:  1,
				IsActive: isActive,
				EditedAt: now,
				EditedBy: editedBy,
			}
			return tx.Create(&saved).Error
		}
		if err != nil {
			return err
		}

		saved.Content = content
		saved.Version++
		saved.IsActive = isActive
		saved.EditedAt = now
		saved.EditedBy = editedBy
		return tx.Model(&saved).Updates(map[string]any{
			"content":   saved.Content,
			"version":   saved.Version,
			"is_active": saved.IsActive,
			"edited_at": saved.EditedAt,
			"edited_by": saved.EditedBy,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}
