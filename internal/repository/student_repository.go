package repository

import (
	"context"

	"studyroom-backend/internal/model"

	"gorm.io/gorm"
)

type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (*model.Student, error)
	// ListEligible returns active students that have a student type and an existing branch.
	ListEligible(ctx context.Context) ([]model.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).Preload("StudentType").Preload("Branch").First(&student, id).Error
	return &student, err
}

func (r *studentRepository) ListEligible(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).Preload("StudentType").Preload("Branch").
		Joins("JOIN branches ON branches.id = students.branch_id AND branches.deleted_at IS NULL").
		Joins("JOIN student_types ON student_types.id = students.student_type_id AND student_types.deleted_at IS NULL").
		Where("students.is_active = ?", true).
		Order("students.id asc").
		Find(&students).Error
	return students, err
}

type IdentityRepository interface {
	FindByExternalUserIDs(ctx context.Context, externalIDs []string) (map[string]model.StudentIdentityLink, error)
}

type identityRepository struct {
	db *gorm.DB
}

func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepository{db}
}

func (r *identityRepository) FindByExternalUserIDs(ctx context.Context, externalIDs []string) (map[string]model.StudentIdentityLink, error) {
	links := make(map[string]model.StudentIdentityLink)
	if len(externalIDs) == 0 {
		return links, nil
	}
	var rows []model.StudentIdentityLink
	if err := r.db.WithContext(ctx).Where("external_user_id IN ?", externalIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		links[row.ExternalUserID] = row
	}
	return links, nil
}
