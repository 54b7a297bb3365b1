package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
	appErrors "github.com/JimEastburn/class-registration-system-sub001/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListByGuardian(ctx context.Context, guardianID string) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

// CreateStudentRequest holds payload for registering a family member.
type CreateStudentRequest struct {
	FullName string `json:"full_name" validate:"required"`
}

// StudentService manages family member records.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// ListMine returns the students owned by the acting guardian.
func (s *StudentService) ListMine(ctx context.Context, guardianID string) ([]models.Student, error) {
	students, err := s.repo.ListByGuardian(ctx, guardianID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns one student. Non-admin actors only see their own family.
func (s *StudentService) Get(ctx context.Context, actor Actor, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if actor.Role != models.RoleAdmin && student.GuardianID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student belongs to another family")
	}
	return student, nil
}

// Create registers a new student under the acting guardian.
func (s *StudentService) Create(ctx context.Context, actor Actor, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student := &models.Student{
		GuardianID: actor.UserID,
		FullName:   req.FullName,
		Active:     true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}
