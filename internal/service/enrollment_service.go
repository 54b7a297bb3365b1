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

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ExistsActive(ctx context.Context, studentID, offeringID string) (bool, error)
	SeatUsage(ctx context.Context, offeringID string) (models.SeatUsage, error)
	InsertSeated(ctx context.Context, enrollment *models.Enrollment, capacity int) (bool, error)
	InsertWaitlisted(ctx context.Context, enrollment *models.Enrollment) error
	InsertForced(ctx context.Context, enrollment *models.Enrollment) error
	WaitlistHead(ctx context.Context, offeringID string) (*models.Enrollment, error)
	ListWaitlist(ctx context.Context, offeringID string) ([]models.Enrollment, error)
	Promote(ctx context.Context, id string, now time.Time) (bool, error)
	Cancel(ctx context.Context, id string, from []models.EnrollmentStatus, now time.Time) (bool, error)
	ListPendingNewestFirst(ctx context.Context, offeringID string) ([]models.Enrollment, error)
	Demote(ctx context.Context, id string, now time.Time) (int, bool, error)
	Confirm(ctx context.Context, id string, now time.Time) (bool, error)
}

type enrollmentOfferingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Offering, error)
}

type enrollmentStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type enrollmentBlockRepository interface {
	Exists(ctx context.Context, offeringID, studentID string) (bool, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type notificationPublisher interface {
	Publish(event models.NotificationEvent)
}

type admissionMetrics interface {
	ObserveAdmission(outcome string)
	ObservePromotion()
	ObserveDemotions(count int)
}

// Admission outcomes recorded per attempt.
const (
	AdmissionOutcomeAdmitted   = "admitted"
	AdmissionOutcomeWaitlisted = "waitlisted"
	AdmissionOutcomeDuplicate  = "duplicate"
	AdmissionOutcomeBlocked    = "blocked"
	AdmissionOutcomeForced     = "forced"
)

// Actor identifies who performed an operation, for ownership checks and
// audit records.
type Actor struct {
	UserID    string
	Role      models.UserRole
	IP        string
	UserAgent string
}

// EnrollRequest holds payload for admitting a student into an offering.
type EnrollRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	OfferingID string `json:"offering_id" validate:"required"`
}

// DemotedEnrollment describes one enrollment moved back to the waitlist by
// reconciliation.
type DemotedEnrollment struct {
	EnrollmentID string `json:"enrollment_id"`
	StudentID    string `json:"student_id"`
	NewPosition  int    `json:"new_position"`
}

// ReconcileResult summarises a reconciliation pass over one offering.
type ReconcileResult struct {
	OfferingID string              `json:"offering_id"`
	Capacity   int                 `json:"capacity"`
	Occupied   int                 `json:"occupied"`
	Forced     int                 `json:"forced"`
	Demoted    []DemotedEnrollment `json:"demoted"`
}

// SeatReport pairs live seat usage with the offering's configured capacity.
type SeatReport struct {
	OfferingID string           `json:"offering_id"`
	Capacity   int              `json:"capacity"`
	Usage      models.SeatUsage `json:"usage"`
	Remaining  int              `json:"remaining"`
}

// EnrollmentService implements the admission engine: duplicate and block
// gates, capacity-checked seating, waitlisting, promotion and the
// reconciliation pass for over-admitted offerings.
type EnrollmentService struct {
	repo            enrollmentRepository
	offerings       enrollmentOfferingRepository
	students        enrollmentStudentRepository
	blocks          enrollmentBlockRepository
	audit           auditRecorder
	notifier        notificationPublisher
	metrics         admissionMetrics
	validator       *validator.Validate
	logger          *zap.Logger
	autoConfirmFree bool
}

// NewEnrollmentService constructs the enrollment service. Audit, notifier
// and metrics may be nil; the corresponding side effects are then skipped.
func NewEnrollmentService(
	repo enrollmentRepository,
	offerings enrollmentOfferingRepository,
	students enrollmentStudentRepository,
	blocks enrollmentBlockRepository,
	audit auditRecorder,
	notifier notificationPublisher,
	metrics admissionMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	autoConfirmFree bool,
) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:            repo,
		offerings:       offerings,
		students:        students,
		blocks:          blocks,
		audit:           audit,
		notifier:        notifier,
		metrics:         metrics,
		validator:       validate,
		logger:          logger,
		autoConfirmFree: autoConfirmFree,
	}
}

// List returns enrollments and pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
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
	return enrollments, pagination, nil
}

// Get returns one enrollment with student and offering context.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// Waitlist returns the offering's queue ordered by position.
func (s *EnrollmentService) Waitlist(ctx context.Context, offeringID string) ([]models.Enrollment, error) {
	if _, err := s.loadOffering(ctx, offeringID); err != nil {
		return nil, err
	}
	waitlist, err := s.repo.ListWaitlist(ctx, offeringID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load waitlist")
	}
	return waitlist, nil
}

// Seats returns live occupancy for an offering.
func (s *EnrollmentService) Seats(ctx context.Context, offeringID string) (*SeatReport, error) {
	offering, err := s.loadOffering(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	usage, err := s.repo.SeatUsage(ctx, offeringID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count seats")
	}
	remaining := offering.Capacity - usage.Occupied()
	if remaining < 0 {
		remaining = 0
	}
	return &SeatReport{OfferingID: offeringID, Capacity: offering.Capacity, Usage: usage, Remaining: remaining}, nil
}

// Enroll admits a student into an offering. Gates run in a fixed order:
// offering open, student active, duplicate, block, then capacity. A full
// class waitlists the student instead of failing.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	offering, err := s.loadOffering(ctx, req.OfferingID)
	if err != nil {
		return nil, err
	}
	if offering.Status != models.OfferingStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "class is not open for enrollment")
	}
	if err := s.ensureStudentEligible(ctx, req.StudentID); err != nil {
		return nil, err
	}

	duplicate, err := s.repo.ExistsActive(ctx, req.StudentID, req.OfferingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
	}
	if duplicate {
		s.observe(AdmissionOutcomeDuplicate)
		return nil, appErrors.Clone(appErrors.ErrDuplicateEnrollment, "")
	}

	blocked, err := s.blocks.Exists(ctx, req.OfferingID, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment block")
	}
	if blocked {
		s.observe(AdmissionOutcomeBlocked)
		return nil, appErrors.Clone(appErrors.ErrEnrollmentBlocked, "")
	}

	status := models.EnrollmentStatusPending
	if offering.PriceCents == 0 && s.autoConfirmFree {
		status = models.EnrollmentStatusConfirmed
	}
	enrollment := &models.Enrollment{
		StudentID:  req.StudentID,
		OfferingID: req.OfferingID,
		Status:     status,
	}

	seated, err := s.repo.InsertSeated(ctx, enrollment, offering.Capacity)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to admit student")
	}
	if seated {
		s.observe(AdmissionOutcomeAdmitted)
		s.notify(models.NotificationAdmitted, enrollment)
		return s.detail(ctx, enrollment.ID)
	}

	if err := s.repo.InsertWaitlisted(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to waitlist student")
	}
	s.observe(AdmissionOutcomeWaitlisted)
	s.notify(models.NotificationWaitlisted, enrollment)
	return s.detail(ctx, enrollment.ID)
}

// ForceEnroll writes a confirmed enrollment regardless of capacity and
// blocks. The duplicate gate still applies; two live seats for the same
// student in the same class is never valid. Every force-enroll leaves an
// audit record.
func (s *EnrollmentService) ForceEnroll(ctx context.Context, actor Actor, req EnrollRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	offering, err := s.loadOffering(ctx, req.OfferingID)
	if err != nil {
		return nil, err
	}
	if offering.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "class offering is no longer active")
	}
	if err := s.ensureStudentEligible(ctx, req.StudentID); err != nil {
		return nil, err
	}

	duplicate, err := s.repo.ExistsActive(ctx, req.StudentID, req.OfferingID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
	}
	if duplicate {
		s.observe(AdmissionOutcomeDuplicate)
		return nil, appErrors.Clone(appErrors.ErrDuplicateEnrollment, "")
	}

	enrollment := &models.Enrollment{
		StudentID:  req.StudentID,
		OfferingID: req.OfferingID,
	}
	if err := s.repo.InsertForced(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to force-enroll student")
	}
	s.observe(AdmissionOutcomeForced)
	s.recordAudit(ctx, actor, models.AuditActionForceEnroll, enrollment.ID, map[string]interface{}{
		"student_id":  req.StudentID,
		"offering_id": req.OfferingID,
	})
	s.notify(models.NotificationAdmitted, enrollment)
	return s.detail(ctx, enrollment.ID)
}

// Cancel releases an enrollment. Guardians may cancel pending and waitlisted
// enrollments of their own students; confirmed seats are released only
// through the refund flow or by an admin. Admin cancellations are audited.
// Vacating a seat promotes the waitlist head.
func (s *EnrollmentService) Cancel(ctx context.Context, actor Actor, enrollmentID string) (*models.EnrollmentDetail, error) {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusCancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is already cancelled")
	}

	allowed := []models.EnrollmentStatus{
		models.EnrollmentStatusPending,
		models.EnrollmentStatusConfirmed,
		models.EnrollmentStatusWaitlisted,
	}
	if actor.Role != models.RoleAdmin {
		if err := s.ensureOwnership(ctx, actor, enrollment.StudentID); err != nil {
			return nil, err
		}
		if enrollment.Status == models.EnrollmentStatusConfirmed {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "confirmed enrollments are released through a refund")
		}
		allowed = []models.EnrollmentStatus{
			models.EnrollmentStatusPending,
			models.EnrollmentStatusWaitlisted,
		}
	}

	detail, err := s.cancelAndPromote(ctx, enrollment, allowed)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleAdmin {
		s.recordAudit(ctx, actor, models.AuditActionAdminCancel, enrollmentID, map[string]interface{}{
			"student_id":  enrollment.StudentID,
			"offering_id": enrollment.OfferingID,
			"from_status": enrollment.Status,
		})
	}
	return detail, nil
}

// CancelForRefund releases a seat after the payment processor refunded it,
// then promotes the waitlist head. Called by the payment flow, not exposed
// directly over HTTP.
func (s *EnrollmentService) CancelForRefund(ctx context.Context, enrollmentID string) (*models.EnrollmentDetail, error) {
	enrollment, err := s.repo.FindByID(ctx, enrollmentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusCancelled {
		return s.detail(ctx, enrollmentID)
	}
	return s.cancelAndPromote(ctx, enrollment, []models.EnrollmentStatus{
		models.EnrollmentStatusConfirmed,
		models.EnrollmentStatusPending,
	})
}

// ConfirmPaid flips a pending enrollment to confirmed once its payment
// completes.
func (s *EnrollmentService) ConfirmPaid(ctx context.Context, enrollmentID string) (*models.EnrollmentDetail, error) {
	confirmed, err := s.repo.Confirm(ctx, enrollmentID, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm enrollment")
	}
	if !confirmed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is not pending payment")
	}
	return s.detail(ctx, enrollmentID)
}

// Reconcile restores the capacity invariant for one offering by demoting the
// most recently admitted pending enrollments back to the waitlist tail.
// Force-enrolled seats are sanctioned exceptions and never demoted.
func (s *EnrollmentService) Reconcile(ctx context.Context, actor Actor, offeringID string) (*ReconcileResult, error) {
	offering, err := s.loadOffering(ctx, offeringID)
	if err != nil {
		return nil, err
	}
	usage, err := s.repo.SeatUsage(ctx, offeringID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count seats")
	}

	result := &ReconcileResult{
		OfferingID: offeringID,
		Capacity:   offering.Capacity,
		Occupied:   usage.Occupied(),
		Forced:     usage.Forced,
	}
	excess := usage.Occupied() - usage.Forced - offering.Capacity
	if excess <= 0 {
		return result, nil
	}

	pending, err := s.repo.ListPendingNewestFirst(ctx, offeringID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pending enrollments")
	}
	now := time.Now().UTC()
	for _, enrollment := range pending {
		if excess <= 0 {
			break
		}
		position, demoted, err := s.repo.Demote(ctx, enrollment.ID, now)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to demote enrollment")
		}
		if !demoted {
			continue
		}
		result.Demoted = append(result.Demoted, DemotedEnrollment{
			EnrollmentID: enrollment.ID,
			StudentID:    enrollment.StudentID,
			NewPosition:  position,
		})
		excess--
	}

	if s.metrics != nil && len(result.Demoted) > 0 {
		s.metrics.ObserveDemotions(len(result.Demoted))
	}
	s.recordAudit(ctx, actor, models.AuditActionReconcile, offeringID, result)
	return result, nil
}

func (s *EnrollmentService) cancelAndPromote(ctx context.Context, enrollment *models.Enrollment, from []models.EnrollmentStatus) (*models.EnrollmentDetail, error) {
	cancelled, err := s.repo.Cancel(ctx, enrollment.ID, from, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel enrollment")
	}
	if !cancelled {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment status changed, cancellation not applied")
	}
	// Only a vacated seat frees capacity; cancelling a waitlisted row just
	// shortens the queue.
	if enrollment.Status == models.EnrollmentStatusPending || enrollment.Status == models.EnrollmentStatusConfirmed {
		s.promoteNext(ctx, enrollment.OfferingID)
	}
	return s.detail(ctx, enrollment.ID)
}

// promoteNext moves the lowest-position waitlisted enrollment into PENDING.
// The promoted student must complete payment to keep the seat. Promotion
// failures are logged, not surfaced: the cancellation already succeeded.
func (s *EnrollmentService) promoteNext(ctx context.Context, offeringID string) {
	now := time.Now().UTC()
	for {
		head, err := s.repo.WaitlistHead(ctx, offeringID)
		if err != nil {
			if err != sql.ErrNoRows {
				s.logger.Error("failed to read waitlist head", zap.String("offering_id", offeringID), zap.Error(err))
			}
			return
		}
		promoted, err := s.repo.Promote(ctx, head.ID, now)
		if err != nil {
			s.logger.Error("failed to promote enrollment", zap.String("enrollment_id", head.ID), zap.Error(err))
			return
		}
		if promoted {
			if s.metrics != nil {
				s.metrics.ObservePromotion()
			}
			s.notify(models.NotificationPromoted, head)
			return
		}
		// The head changed between read and update; take the new head.
	}
}

func (s *EnrollmentService) loadOffering(ctx context.Context, id string) (*models.Offering, error) {
	offering, err := s.offerings.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	return offering, nil
}

func (s *EnrollmentService) ensureStudentEligible(ctx context.Context, studentID string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "student record is inactive")
	}
	return nil
}

func (s *EnrollmentService) ensureOwnership(ctx context.Context, actor Actor, studentID string) error {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.GuardianID != actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "enrollment belongs to another family")
	}
	return nil
}

func (s *EnrollmentService) detail(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

func (s *EnrollmentService) notify(kind models.NotificationKind, enrollment *models.Enrollment) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(models.NotificationEvent{
		Event:        kind,
		EnrollmentID: enrollment.ID,
		StudentID:    enrollment.StudentID,
		OfferingID:   enrollment.OfferingID,
		OccurredAt:   time.Now().UTC(),
	})
}

func (s *EnrollmentService) observe(outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveAdmission(outcome)
	}
}

func (s *EnrollmentService) recordAudit(ctx context.Context, actor Actor, action, resourceID string, values interface{}) {
	if s.audit == nil {
		return
	}
	payload, err := json.Marshal(values)
	if err != nil {
		payload = nil
	}
	userID := actor.UserID
	resource := "enrollments"
	if action == models.AuditActionReconcile {
		resource = "class_offerings"
	}
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		NewValues:  payload,
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Error("failed to write audit record", zap.String("action", action), zap.Error(err))
	}
}
