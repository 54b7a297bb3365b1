package service

import (
	"context"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
	appErrors "github.com/JimEastburn/class-registration-system-sub001/pkg/errors"
)

type blockRepository interface {
	Exists(ctx context.Context, offeringID, studentID string) (bool, error)
	ListByOffering(ctx context.Context, offeringID string) ([]models.EnrollmentBlock, error)
	Create(ctx context.Context, block *models.EnrollmentBlock) error
	Delete(ctx context.Context, offeringID, studentID string) (bool, error)
}

// CreateBlockRequest holds payload for barring a student from an offering.
type CreateBlockRequest struct {
	OfferingID string  `json:"offering_id" validate:"required"`
	StudentID  string  `json:"student_id" validate:"required"`
	Reason     *string `json:"reason"`
}

// BlockService manages enrollment blocks. A block stops future admissions
// for the pair; it does not touch enrollments that already exist.
type BlockService struct {
	repo      blockRepository
	offerings enrollmentOfferingRepository
	students  enrollmentStudentRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBlockService constructs the block service.
func NewBlockService(
	repo blockRepository,
	offerings enrollmentOfferingRepository,
	students enrollmentStudentRepository,
	audit auditRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
) *BlockService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlockService{
		repo:      repo,
		offerings: offerings,
		students:  students,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// List returns the blocks attached to an offering.
func (s *BlockService) List(ctx context.Context, offeringID string) ([]models.EnrollmentBlock, error) {
	blocks, err := s.repo.ListByOffering(ctx, offeringID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollment blocks")
	}
	return blocks, nil
}

// Create bars a student from an offering. Creating the same block twice is
// a no-op.
func (s *BlockService) Create(ctx context.Context, actor Actor, req CreateBlockRequest) (*models.EnrollmentBlock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid block payload")
	}
	if err := s.ensureExists(ctx, req.OfferingID, req.StudentID); err != nil {
		return nil, err
	}
	createdBy := actor.UserID
	block := &models.EnrollmentBlock{
		OfferingID: req.OfferingID,
		StudentID:  req.StudentID,
		Reason:     req.Reason,
		CreatedBy:  &createdBy,
	}
	if err := s.repo.Create(ctx, block); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment block")
	}
	s.recordAudit(ctx, actor, models.AuditActionBlockCreate, block)
	return block, nil
}

// Remove lifts a block for the (offering, student) pair.
func (s *BlockService) Remove(ctx context.Context, actor Actor, offeringID, studentID string) error {
	removed, err := s.repo.Delete(ctx, offeringID, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove enrollment block")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment block not found")
	}
	s.recordAudit(ctx, actor, models.AuditActionBlockRemove, &models.EnrollmentBlock{OfferingID: offeringID, StudentID: studentID})
	return nil
}

func (s *BlockService) ensureExists(ctx context.Context, offeringID, studentID string) error {
	if _, err := s.offerings.FindByID(ctx, offeringID); err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "class offering not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if isNoRows(err) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return nil
}

func (s *BlockService) recordAudit(ctx context.Context, actor Actor, action string, block *models.EnrollmentBlock) {
	if s.audit == nil {
		return
	}
	payload, err := json.Marshal(block)
	if err != nil {
		payload = nil
	}
	userID := actor.UserID
	resourceID := block.OfferingID
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "enrollment_blocks",
		ResourceID: &resourceID,
		NewValues:  payload,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Error("failed to write audit record", zap.String("action", action), zap.Error(err))
	}
}
