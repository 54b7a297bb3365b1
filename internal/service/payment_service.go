package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
	appErrors "github.com/JimEastburn/class-registration-system-sub001/pkg/errors"
)

type paymentRepository interface {
	FindByEnrollment(ctx context.Context, enrollmentID string) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	Transition(ctx context.Context, id string, from, to models.PaymentStatus) (bool, error)
}

type enrollmentSettler interface {
	Get(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ConfirmPaid(ctx context.Context, enrollmentID string) (*models.EnrollmentDetail, error)
	CancelForRefund(ctx context.Context, enrollmentID string) (*models.EnrollmentDetail, error)
}

// PaymentService reacts to processor callbacks. The engine never initiates
// charges; it records outcomes and adjusts enrollments accordingly.
type PaymentService struct {
	repo        paymentRepository
	enrollments enrollmentSettler
	offerings   enrollmentOfferingRepository
	logger      *zap.Logger
}

// NewPaymentService constructs the payment service.
func NewPaymentService(repo paymentRepository, enrollments enrollmentSettler, offerings enrollmentOfferingRepository, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{repo: repo, enrollments: enrollments, offerings: offerings, logger: logger}
}

// Get returns the payment linked to an enrollment.
func (s *PaymentService) Get(ctx context.Context, enrollmentID string) (*models.Payment, error) {
	payment, err := s.repo.FindByEnrollment(ctx, enrollmentID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	return payment, nil
}

// HandleCompleted processes a successful-capture callback: the payment
// moves to COMPLETED and the pending enrollment is confirmed. Replayed
// callbacks are recognised and answered with the current state.
func (s *PaymentService) HandleCompleted(ctx context.Context, enrollmentID string) (*models.EnrollmentDetail, error) {
	payment, err := s.Get(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	applied, err := s.repo.Transition(ctx, payment.ID, models.PaymentStatusPending, models.PaymentStatusCompleted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment completion")
	}
	if !applied {
		if payment.Status == models.PaymentStatusCompleted {
			s.logger.Info("payment completion replayed", zap.String("enrollment_id", enrollmentID))
			return s.enrollments.ConfirmPaid(ctx, enrollmentID)
		}
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "payment is not awaiting capture")
	}
	return s.enrollments.ConfirmPaid(ctx, enrollmentID)
}

// HandleRefunded processes a refund callback: the payment moves to
// REFUNDED, the enrollment is cancelled and the freed seat promotes the
// waitlist head. Refunding anything but a completed payment is rejected.
func (s *PaymentService) HandleRefunded(ctx context.Context, enrollmentID string) (*models.EnrollmentDetail, error) {
	payment, err := s.Get(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	applied, err := s.repo.Transition(ctx, payment.ID, models.PaymentStatusCompleted, models.PaymentStatusRefunded)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record refund")
	}
	if !applied {
		if payment.Status == models.PaymentStatusRefunded {
			// Replayed callback; the cancellation already ran.
			s.logger.Info("refund replayed", zap.String("enrollment_id", enrollmentID))
			return s.enrollments.CancelForRefund(ctx, enrollmentID)
		}
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "payment has not been captured, nothing to refund")
	}
	return s.enrollments.CancelForRefund(ctx, enrollmentID)
}

// StartCheckout opens a pending payment for a seated enrollment. The amount
// is taken from the offering, never from the client. Calling it again before
// the processor reports back returns the same open payment.
func (s *PaymentService) StartCheckout(ctx context.Context, enrollmentID string) (*models.Payment, error) {
	existing, err := s.repo.FindByEnrollment(ctx, enrollmentID)
	if err == nil {
		return existing, nil
	}
	if !isNoRows(err) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	detail, err := s.enrollments.Get(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}
	if detail.Status != models.EnrollmentStatusPending {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment is not awaiting payment")
	}
	offering, err := s.offerings.FindByID(ctx, detail.OfferingID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class offering not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	if offering.PriceCents == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "class is free, there is nothing to pay")
	}
	return s.RecordPending(ctx, enrollmentID, offering.PriceCents)
}

// RecordPending creates the pending payment row for a paid enrollment.
func (s *PaymentService) RecordPending(ctx context.Context, enrollmentID string, amountCents int64) (*models.Payment, error) {
	payment := &models.Payment{
		EnrollmentID: enrollmentID,
		AmountCents:  amountCents,
		Status:       models.PaymentStatusPending,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	return payment, nil
}
