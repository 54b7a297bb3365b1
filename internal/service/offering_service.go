package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
	appErrors "github.com/JimEastburn/class-registration-system-sub001/pkg/errors"
)

type offeringRepository interface {
	List(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, int, error)
	FindByID(ctx context.Context, id string) (*models.Offering, error)
	Create(ctx context.Context, offering *models.Offering) error
	Update(ctx context.Context, offering *models.Offering) error
	UpdateStatus(ctx context.Context, id string, status models.OfferingStatus) error
	Delete(ctx context.Context, id string) (bool, error)
}

type slotChecker interface {
	EnsureSlotFree(ctx context.Context, candidate models.Offering) error
}

type offeringEnrollmentCanceller interface {
	CancelAllActive(ctx context.Context, offeringID string, now time.Time) (int64, error)
}

// CreateOfferingRequest holds payload for creating class offerings.
type CreateOfferingRequest struct {
	Name       string            `json:"name" validate:"required"`
	TeacherID  string            `json:"teacher_id" validate:"required"`
	Room       *string           `json:"room"`
	Day        models.ClassDay   `json:"day"`
	Block      models.ClassBlock `json:"block"`
	Capacity   int               `json:"capacity" validate:"gte=1"`
	PriceCents int64             `json:"price_cents" validate:"gte=0"`
}

// UpdateOfferingRequest holds payload for updating class offerings.
type UpdateOfferingRequest struct {
	Name       string            `json:"name" validate:"required"`
	TeacherID  string            `json:"teacher_id" validate:"required"`
	Room       *string           `json:"room"`
	Day        models.ClassDay   `json:"day"`
	Block      models.ClassBlock `json:"block"`
	Capacity   int               `json:"capacity" validate:"gte=1"`
	PriceCents int64             `json:"price_cents" validate:"gte=0"`
}

// OfferingService handles the class offering lifecycle. Slot validity and
// schedule conflicts are enforced on create and update; lifecycle
// transitions are audited.
type OfferingService struct {
	repo        offeringRepository
	schedule    slotChecker
	enrollments offeringEnrollmentCanceller
	audit       auditRecorder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewOfferingService constructs the offering service.
func NewOfferingService(
	repo offeringRepository,
	schedule slotChecker,
	enrollments offeringEnrollmentCanceller,
	audit auditRecorder,
	validate *validator.Validate,
	logger *zap.Logger,
) *OfferingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfferingService{
		repo:        repo,
		schedule:    schedule,
		enrollments: enrollments,
		audit:       audit,
		validator:   validate,
		logger:      logger,
	}
}

// List returns offerings and pagination metadata.
func (s *OfferingService) List(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, *models.Pagination, error) {
	offerings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return offerings, pagination, nil
}

// Get returns one offering.
func (s *OfferingService) Get(ctx context.Context, id string) (*models.Offering, error) {
	offering, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	return offering, nil
}

// Create registers a new draft offering after slot and conflict checks.
func (s *OfferingService) Create(ctx context.Context, req CreateOfferingRequest) (*models.Offering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid offering payload")
	}
	offering := &models.Offering{
		Name:       req.Name,
		TeacherID:  req.TeacherID,
		Room:       req.Room,
		Day:        req.Day,
		Block:      req.Block,
		Capacity:   req.Capacity,
		PriceCents: req.PriceCents,
		Status:     models.OfferingStatusDraft,
	}
	if err := s.schedule.EnsureSlotFree(ctx, *offering); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create offering")
	}
	return offering, nil
}

// Update rewrites an offering's schedulable fields. Terminal offerings are
// immutable. The candidate slot is re-checked against the live schedule.
func (s *OfferingService) Update(ctx context.Context, id string, req UpdateOfferingRequest) (*models.Offering, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid offering payload")
	}
	offering, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if offering.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "offering can no longer be edited")
	}

	offering.Name = req.Name
	offering.TeacherID = req.TeacherID
	offering.Room = req.Room
	offering.Day = req.Day
	offering.Block = req.Block
	offering.Capacity = req.Capacity
	offering.PriceCents = req.PriceCents

	if err := s.schedule.EnsureSlotFree(ctx, *offering); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, offering); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update offering")
	}
	return offering, nil
}

// Publish opens a draft offering for enrollment.
func (s *OfferingService) Publish(ctx context.Context, actor Actor, id string) (*models.Offering, error) {
	return s.transition(ctx, actor, id, models.OfferingStatusDraft, models.OfferingStatusPublished, models.AuditActionOfferingPublish)
}

// Complete closes a published offering at the end of its run.
func (s *OfferingService) Complete(ctx context.Context, actor Actor, id string) (*models.Offering, error) {
	return s.transition(ctx, actor, id, models.OfferingStatusPublished, models.OfferingStatusCompleted, models.AuditActionOfferingComplete)
}

// Cancel withdraws an offering and cancels every enrollment attached to it.
// The slot is freed for other classes and no waitlist promotion runs.
func (s *OfferingService) Cancel(ctx context.Context, actor Actor, id string) (*models.Offering, error) {
	offering, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if offering.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "offering is already closed")
	}
	fromStatus := offering.Status
	if err := s.repo.UpdateStatus(ctx, id, models.OfferingStatusCancelled); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel offering")
	}
	cancelled, err := s.enrollments.CancelAllActive(ctx, id, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel offering enrollments")
	}
	offering.Status = models.OfferingStatusCancelled
	s.recordAudit(ctx, actor, models.AuditActionOfferingCancel, id, map[string]interface{}{
		"from_status":           fromStatus,
		"enrollments_cancelled": cancelled,
	})
	return offering, nil
}

// Delete removes a draft offering. Anything past draft is cancelled instead
// of deleted so its history survives.
func (s *OfferingService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete offering")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "only draft offerings can be deleted")
	}
	return nil
}

func (s *OfferingService) transition(ctx context.Context, actor Actor, id string, from, to models.OfferingStatus, action string) (*models.Offering, error) {
	offering, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if offering.Status != from {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "offering is not in a state that allows this transition")
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update offering status")
	}
	offering.Status = to
	s.recordAudit(ctx, actor, action, id, map[string]interface{}{"from_status": from, "to_status": to})
	return offering, nil
}

func (s *OfferingService) recordAudit(ctx context.Context, actor Actor, action, resourceID string, values interface{}) {
	if s.audit == nil {
		return
	}
	payload, err := json.Marshal(values)
	if err != nil {
		payload = nil
	}
	userID := actor.UserID
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "class_offerings",
		ResourceID: &resourceID,
		NewValues:  payload,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Error("failed to write audit record", zap.String("action", action), zap.Error(err))
	}
}
