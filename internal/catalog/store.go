// Package catalog keeps the variant templates in a SQL database and serves
// them to the worker from an in-memory cache refreshed on a schedule.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"gorm.io/gorm"

	"pipetask-service/internal/pipetask"
)

var ErrTemplateNotFound = errors.New("variant template not found")

type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Get(ctx context.Context, taskType, variantName string) (*VariantTemplate, error) {
	var tmpl VariantTemplate
	err := s.DB.WithContext(ctx).
		Where("task_type = ? AND variant_name = ?", taskType, variantName).
		First(&tmpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, pipetask.Key(taskType, variantName))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch variant template %s: %w", pipetask.Key(taskType, variantName), err)
	}
	return &tmpl, nil
}

func (s *Store) List(ctx context.Context) ([]VariantTemplate, error) {
	var templates []VariantTemplate
	if err := s.DB.WithContext(ctx).Order("task_type, variant_name").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list variant templates: %w", err)
	}
	return templates, nil
}

// Upsert creates the template or overwrites the editable fields of the
// existing one with the same key.
func (s *Store) Upsert(ctx context.Context, tmpl *VariantTemplate) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing VariantTemplate
		err := tx.Where("task_type = ? AND variant_name = ?", tmpl.TaskType, tmpl.VariantName).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(tmpl).Error; err != nil {
				return fmt.Errorf("failed to create variant template %s: %w", tmpl.Key(), err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("failed to look up variant template %s: %w", tmpl.Key(), err)
		}

		updates := map[string]interface{}{
			"description":  tmpl.Description,
			"param_schema": tmpl.ParamSchema,
			"parallel":     tmpl.Parallel,
			"disabled":     tmpl.Disabled,
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update variant template %s: %w", tmpl.Key(), err)
		}
		tmpl.ID = existing.ID
		tmpl.CreatedAt = existing.CreatedAt
		tmpl.UpdatedAt = existing.UpdatedAt
		return nil
	})
}

// Seed inserts a template for every descriptor that has none yet. Existing
// templates are left alone so operator edits survive restarts.
func (s *Store) Seed(ctx context.Context, descriptors []pipetask.Descriptor) (int, error) {
	created := 0
	for _, d := range descriptors {
		tmpl := TemplateFromDescriptor(d)
		var count int64
		err := s.DB.WithContext(ctx).Unscoped().Model(&VariantTemplate{}).
			Where("task_type = ? AND variant_name = ?", tmpl.TaskType, tmpl.VariantName).
			Count(&count).Error
		if err != nil {
			return created, fmt.Errorf("failed to check variant template %s: %w", d.Key(), err)
		}
		if count > 0 {
			continue
		}
		if err := s.DB.WithContext(ctx).Create(&tmpl).Error; err != nil {
			return created, fmt.Errorf("failed to seed variant template %s: %w", d.Key(), err)
		}
		created++
		hlog.Infof("Seeded variant template %s", d.Key())
	}
	return created, nil
}
