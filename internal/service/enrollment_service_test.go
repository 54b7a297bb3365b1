package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
	appErrors "github.com/JimEastburn/class-registration-system-sub001/pkg/errors"
)

// fakeEnrollmentRepo mimics the store's per-statement semantics in memory:
// conditional inserts re-derive counts, guarded updates check the current
// status, waitlist positions are max+1 and never renumbered.
type fakeEnrollmentRepo struct {
	seq         int
	clock       time.Time
	enrollments map[string]*models.Enrollment
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{
		clock:       time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC),
		enrollments: make(map[string]*models.Enrollment),
	}
}

func (f *fakeEnrollmentRepo) nextID() string {
	f.seq++
	return fmt.Sprintf("e%d", f.seq)
}

func (f *fakeEnrollmentRepo) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *fakeEnrollmentRepo) byOffering(offeringID string, statuses ...models.EnrollmentStatus) []*models.Enrollment {
	var out []*models.Enrollment
	for _, e := range f.enrollments {
		if e.OfferingID != offeringID {
			continue
		}
		for _, s := range statuses {
			if e.Status == s {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func (f *fakeEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := f.enrollments[id]; ok {
		copied := *e
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := f.enrollments[id]; ok {
		return &models.EnrollmentDetail{Enrollment: *e}, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentRepo) ExistsActive(ctx context.Context, studentID, offeringID string) (bool, error) {
	for _, e := range f.enrollments {
		if e.StudentID == studentID && e.OfferingID == offeringID && e.Status != models.EnrollmentStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEnrollmentRepo) SeatUsage(ctx context.Context, offeringID string) (models.SeatUsage, error) {
	var usage models.SeatUsage
	for _, e := range f.enrollments {
		if e.OfferingID != offeringID {
			continue
		}
		switch e.Status {
		case models.EnrollmentStatusConfirmed:
			usage.Confirmed++
			if e.ForceEnrolled {
				usage.Forced++
			}
		case models.EnrollmentStatusPending:
			usage.Pending++
		case models.EnrollmentStatusWaitlisted:
			usage.Waitlisted++
		}
	}
	return usage, nil
}

func (f *fakeEnrollmentRepo) InsertSeated(ctx context.Context, e *models.Enrollment, capacity int) (bool, error) {
	occupied := len(f.byOffering(e.OfferingID, models.EnrollmentStatusPending, models.EnrollmentStatusConfirmed))
	if occupied >= capacity {
		return false, nil
	}
	e.ID = f.nextID()
	e.CreatedAt = f.tick()
	e.UpdatedAt = e.CreatedAt
	stored := *e
	f.enrollments[e.ID] = &stored
	return true, nil
}

func (f *fakeEnrollmentRepo) maxPosition(offeringID string) int {
	max := 0
	for _, e := range f.byOffering(offeringID, models.EnrollmentStatusWaitlisted) {
		if e.WaitlistPosition != nil && *e.WaitlistPosition > max {
			max = *e.WaitlistPosition
		}
	}
	return max
}

func (f *fakeEnrollmentRepo) InsertWaitlisted(ctx context.Context, e *models.Enrollment) error {
	e.ID = f.nextID()
	e.CreatedAt = f.tick()
	e.UpdatedAt = e.CreatedAt
	e.Status = models.EnrollmentStatusWaitlisted
	position := f.maxPosition(e.OfferingID) + 1
	e.WaitlistPosition = &position
	stored := *e
	stored.WaitlistPosition = &position
	f.enrollments[e.ID] = &stored
	return nil
}

func (f *fakeEnrollmentRepo) InsertForced(ctx context.Context, e *models.Enrollment) error {
	e.ID = f.nextID()
	e.CreatedAt = f.tick()
	e.UpdatedAt = e.CreatedAt
	e.Status = models.EnrollmentStatusConfirmed
	e.ForceEnrolled = true
	stored := *e
	f.enrollments[e.ID] = &stored
	return nil
}

func (f *fakeEnrollmentRepo) WaitlistHead(ctx context.Context, offeringID string) (*models.Enrollment, error) {
	waitlisted := f.byOffering(offeringID, models.EnrollmentStatusWaitlisted)
	if len(waitlisted) == 0 {
		return nil, sql.ErrNoRows
	}
	sort.Slice(waitlisted, func(i, j int) bool {
		return *waitlisted[i].WaitlistPosition < *waitlisted[j].WaitlistPosition
	})
	copied := *waitlisted[0]
	return &copied, nil
}

func (f *fakeEnrollmentRepo) ListWaitlist(ctx context.Context, offeringID string) ([]models.Enrollment, error) {
	waitlisted := f.byOffering(offeringID, models.EnrollmentStatusWaitlisted)
	sort.Slice(waitlisted, func(i, j int) bool {
		return *waitlisted[i].WaitlistPosition < *waitlisted[j].WaitlistPosition
	})
	out := make([]models.Enrollment, 0, len(waitlisted))
	for _, e := range waitlisted {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeEnrollmentRepo) Promote(ctx context.Context, id string, now time.Time) (bool, error) {
	e, ok := f.enrollments[id]
	if !ok || e.Status != models.EnrollmentStatusWaitlisted {
		return false, nil
	}
	e.Status = models.EnrollmentStatusPending
	e.WaitlistPosition = nil
	e.UpdatedAt = now
	return true, nil
}

func (f *fakeEnrollmentRepo) Cancel(ctx context.Context, id string, from []models.EnrollmentStatus, now time.Time) (bool, error) {
	e, ok := f.enrollments[id]
	if !ok {
		return false, nil
	}
	allowed := false
	for _, s := range from {
		if e.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return false, nil
	}
	e.Status = models.EnrollmentStatusCancelled
	e.WaitlistPosition = nil
	e.UpdatedAt = now
	return true, nil
}

func (f *fakeEnrollmentRepo) ListPendingNewestFirst(ctx context.Context, offeringID string) ([]models.Enrollment, error) {
	var pending []*models.Enrollment
	for _, e := range f.byOffering(offeringID, models.EnrollmentStatusPending) {
		if !e.ForceEnrolled {
			pending = append(pending, e)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.After(pending[j].CreatedAt)
	})
	out := make([]models.Enrollment, 0, len(pending))
	for _, e := range pending {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeEnrollmentRepo) Demote(ctx context.Context, id string, now time.Time) (int, bool, error) {
	e, ok := f.enrollments[id]
	if !ok || e.Status != models.EnrollmentStatusPending || e.ForceEnrolled {
		return 0, false, nil
	}
	position := f.maxPosition(e.OfferingID) + 1
	e.Status = models.EnrollmentStatusWaitlisted
	e.WaitlistPosition = &position
	e.UpdatedAt = now
	return position, true, nil
}

func (f *fakeEnrollmentRepo) Confirm(ctx context.Context, id string, now time.Time) (bool, error) {
	e, ok := f.enrollments[id]
	if !ok || e.Status != models.EnrollmentStatusPending {
		return false, nil
	}
	e.Status = models.EnrollmentStatusConfirmed
	e.UpdatedAt = now
	return true, nil
}

type fakeOfferingReader struct {
	offerings map[string]*models.Offering
}

func (f *fakeOfferingReader) FindByID(ctx context.Context, id string) (*models.Offering, error) {
	if o, ok := f.offerings[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type fakeStudentReader struct {
	students map[string]*models.Student
}

func (f *fakeStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type fakeBlockChecker struct {
	blocked map[string]bool
}

func (f *fakeBlockChecker) Exists(ctx context.Context, offeringID, studentID string) (bool, error) {
	return f.blocked[offeringID+"/"+studentID], nil
}

type fakeAuditRecorder struct {
	logs []models.AuditLog
}

func (f *fakeAuditRecorder) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, *log)
	return nil
}

type fakeNotifier struct {
	events []models.NotificationEvent
}

func (f *fakeNotifier) Publish(event models.NotificationEvent) {
	f.events = append(f.events, event)
}

func (f *fakeNotifier) kinds() []models.NotificationKind {
	out := make([]models.NotificationKind, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Event)
	}
	return out
}

type admissionFixture struct {
	repo     *fakeEnrollmentRepo
	offering *models.Offering
	students *fakeStudentReader
	blocks   *fakeBlockChecker
	audit    *fakeAuditRecorder
	notifier *fakeNotifier
	svc      *EnrollmentService
}

func newAdmissionFixture(t *testing.T, capacity int, priceCents int64) *admissionFixture {
	t.Helper()
	repo := newFakeEnrollmentRepo()
	offering := &models.Offering{
		ID:         "off-1",
		Name:       "Pottery",
		TeacherID:  "t1",
		Day:        models.DayTuesday,
		Block:      models.Block2,
		Capacity:   capacity,
		PriceCents: priceCents,
		Status:     models.OfferingStatusPublished,
	}
	students := &fakeStudentReader{students: map[string]*models.Student{}}
	for i := 1; i <= 8; i++ {
		id := fmt.Sprintf("s%d", i)
		students.students[id] = &models.Student{ID: id, GuardianID: "g-" + id, FullName: "Student " + id, Active: true}
	}
	blocks := &fakeBlockChecker{blocked: map[string]bool{}}
	audit := &fakeAuditRecorder{}
	notifier := &fakeNotifier{}
	svc := NewEnrollmentService(
		repo,
		&fakeOfferingReader{offerings: map[string]*models.Offering{offering.ID: offering}},
		students, blocks, audit, notifier, nil,
		validator.New(), zap.NewNop(), true,
	)
	return &admissionFixture{repo: repo, offering: offering, students: students, blocks: blocks, audit: audit, notifier: notifier, svc: svc}
}

func (fx *admissionFixture) enroll(t *testing.T, studentID string) *models.EnrollmentDetail {
	t.Helper()
	detail, err := fx.svc.Enroll(context.Background(), EnrollRequest{StudentID: studentID, OfferingID: fx.offering.ID})
	require.NoError(t, err)
	return detail
}

func adminActor() Actor {
	return Actor{UserID: "admin-1", Role: models.RoleAdmin, IP: "10.0.0.1", UserAgent: "test"}
}

func guardianActor(studentID string) Actor {
	return Actor{UserID: "g-" + studentID, Role: models.RoleParent}
}

func TestEnrollAdmitsUntilCapacityThenWaitlists(t *testing.T) {
	fx := newAdmissionFixture(t, 2, 5000)

	first := fx.enroll(t, "s1")
	second := fx.enroll(t, "s2")
	third := fx.enroll(t, "s3")
	fourth := fx.enroll(t, "s4")

	assert.Equal(t, models.EnrollmentStatusPending, first.Status)
	assert.Equal(t, models.EnrollmentStatusPending, second.Status)

	require.NotNil(t, third.WaitlistPosition)
	require.NotNil(t, fourth.WaitlistPosition)
	assert.Equal(t, models.EnrollmentStatusWaitlisted, third.Status)
	assert.Equal(t, 1, *third.WaitlistPosition)
	assert.Equal(t, 2, *fourth.WaitlistPosition)

	usage, err := fx.repo.SeatUsage(context.Background(), fx.offering.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, usage.Occupied())
	assert.Equal(t, 2, usage.Waitlisted)

	assert.Equal(t, []models.NotificationKind{
		models.NotificationAdmitted, models.NotificationAdmitted,
		models.NotificationWaitlisted, models.NotificationWaitlisted,
	}, fx.notifier.kinds())
}

func TestEnrollFreeClassConfirmsImmediately(t *testing.T) {
	fx := newAdmissionFixture(t, 5, 0)
	detail := fx.enroll(t, "s1")
	assert.Equal(t, models.EnrollmentStatusConfirmed, detail.Status)
	assert.False(t, detail.ForceEnrolled)
}

func TestEnrollDuplicateRejected(t *testing.T) {
	fx := newAdmissionFixture(t, 1, 5000)
	fx.enroll(t, "s1")

	_, err := fx.svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", OfferingID: fx.offering.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateEnrollment.Code, appErrors.FromError(err).Code)

	// A waitlisted student is also an active enrollment.
	fx.enroll(t, "s2")
	_, err = fx.svc.Enroll(context.Background(), EnrollRequest{StudentID: "s2", OfferingID: fx.offering.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateEnrollment.Code, appErrors.FromError(err).Code)
}

func TestEnrollBlockedStudentRejectedBeforeCapacity(t *testing.T) {
	fx := newAdmissionFixture(t, 5, 5000)
	fx.blocks.blocked[fx.offering.ID+"/s1"] = true

	_, err := fx.svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", OfferingID: fx.offering.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrEnrollmentBlocked.Code, appErrors.FromError(err).Code)

	usage, _ := fx.repo.SeatUsage(context.Background(), fx.offering.ID)
	assert.Zero(t, usage.Occupied()+usage.Waitlisted)
}

func TestEnrollDuplicateWinsOverBlock(t *testing.T) {
	fx := newAdmissionFixture(t, 5, 5000)
	fx.enroll(t, "s1")
	fx.blocks.blocked[fx.offering.ID+"/s1"] = true

	_, err := fx.svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", OfferingID: fx.offering.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateEnrollment.Code, appErrors.FromError(err).Code)
}

func TestEnrollRequiresPublishedOffering(t *testing.T) {
	fx := newAdmissionFixture(t, 5, 5000)
	fx.offering.Status = models.OfferingStatusDraft

	_, err := fx.svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", OfferingID: fx.offering.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestCancelVacatedSeatPromotesWaitlistHead(t *testing.T) {
	fx := newAdmissionFixture(t, 1, 5000)
	seated := fx.enroll(t, "s1")
	headWaitlisted := fx.enroll(t, "s2")
	tailWaitlisted := fx.enroll(t, "s3")

	cancelled, err := fx.svc.Cancel(context.Background(), guardianActor("s1"), seated.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCancelled, cancelled.Status)

	promoted, err := fx.repo.FindByID(context.Background(), headWaitlisted.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPending, promoted.Status)
	assert.Nil(t, promoted.WaitlistPosition)

	rest, err := fx.repo.FindByID(context.Background(), tailWaitlisted.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusWaitlisted, rest.Status)
	assert.Equal(t, 2, *rest.WaitlistPosition)

	assert.Equal(t, models.NotificationPromoted, fx.notifier.events[len(fx.notifier.events)-1].Event)
}

func TestCancelWaitlistedDoesNotPromote(t *testing.T) {
	fx := newAdmissionFixture(t, 1, 5000)
	fx.enroll(t, "s1")
	waitlisted := fx.enroll(t, "s2")
	fx.enroll(t, "s3")

	before := len(fx.notifier.events)
	_, err := fx.svc.Cancel(context.Background(), guardianActor("s2"), waitlisted.ID)
	require.NoError(t, err)

	for _, event := range fx.notifier.events[before:] {
		assert.NotEqual(t, models.NotificationPromoted, event.Event)
	}
}

func TestWaitlistPositionsAreNeverReused(t *testing.T) {
	fx := newAdmissionFixture(t, 1, 5000)
	seated := fx.enroll(t, "s1")
	fx.enroll(t, "s2")
	fx.enroll(t, "s3")

	// Vacating the seat promotes position 1, leaving a gap.
	_, err := fx.svc.Cancel(context.Background(), guardianActor("s1"), seated.ID)
	require.NoError(t, err)

	// The class is full again, so the next student joins the queue after
	// the highest ever assigned position, not in the gap.
	next := fx.enroll(t, "s4")
	require.NotNil(t, next.WaitlistPosition)
	assert.Equal(t, 3, *next.WaitlistPosition)
}

func TestGuardianCannotCancelConfirmedOrForeignEnrollment(t *testing.T) {
	fx := newAdmissionFixture(t, 2, 0)
	confirmed := fx.enroll(t, "s1")
	require.Equal(t, models.EnrollmentStatusConfirmed, confirmed.Status)

	_, err := fx.svc.Cancel(context.Background(), guardianActor("s1"), confirmed.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	other := fx.enroll(t, "s2")
	_, err = fx.svc.Cancel(context.Background(), guardianActor("s1"), other.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAdminCancelConfirmedIsAudited(t *testing.T) {
	fx := newAdmissionFixture(t, 2, 0)
	confirmed := fx.enroll(t, "s1")

	_, err := fx.svc.Cancel(context.Background(), adminActor(), confirmed.ID)
	require.NoError(t, err)

	require.Len(t, fx.audit.logs, 1)
	assert.Equal(t, models.AuditActionAdminCancel, fx.audit.logs[0].Action)
	assert.Equal(t, "admin-1", *fx.audit.logs[0].UserID)
}

func TestForceEnrollBypassesCapacityAndBlocks(t *testing.T) {
	fx := newAdmissionFixture(t, 1, 5000)
	fx.enroll(t, "s1")
	fx.blocks.blocked[fx.offering.ID+"/s2"] = true

	detail, err := fx.svc.ForceEnroll(context.Background(), adminActor(), EnrollRequest{StudentID: "s2", OfferingID: fx.offering.ID})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusConfirmed, detail.Status)
	assert.True(t, detail.ForceEnrolled)

	require.Len(t, fx.audit.logs, 1)
	assert.Equal(t, models.AuditActionForceEnroll, fx.audit.logs[0].Action)

	// The duplicate gate survives the override.
	_, err = fx.svc.ForceEnroll(context.Background(), adminActor(), EnrollRequest{StudentID: "s2", OfferingID: fx.offering.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateEnrollment.Code, appErrors.FromError(err).Code)
}

func TestReconcileDemotesNewestPendingFirst(t *testing.T) {
	fx := newAdmissionFixture(t, 3, 5000)
	oldest := fx.enroll(t, "s1")
	middle := fx.enroll(t, "s2")
	newest := fx.enroll(t, "s3")

	// Capacity shrinks after admission; two seats must be given back.
	fx.offering.Capacity = 1

	result, err := fx.svc.Reconcile(context.Background(), adminActor(), fx.offering.ID)
	require.NoError(t, err)
	require.Len(t, result.Demoted, 2)
	assert.Equal(t, newest.ID, result.Demoted[0].EnrollmentID)
	assert.Equal(t, middle.ID, result.Demoted[1].EnrollmentID)
	assert.Equal(t, 1, result.Demoted[0].NewPosition)
	assert.Equal(t, 2, result.Demoted[1].NewPosition)

	kept, err := fx.repo.FindByID(context.Background(), oldest.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPending, kept.Status)

	require.Len(t, fx.audit.logs, 1)
	assert.Equal(t, models.AuditActionReconcile, fx.audit.logs[0].Action)
}

func TestReconcileIgnoresForcedSeats(t *testing.T) {
	fx := newAdmissionFixture(t, 1, 5000)
	fx.enroll(t, "s1")
	_, err := fx.svc.ForceEnroll(context.Background(), adminActor(), EnrollRequest{StudentID: "s2", OfferingID: fx.offering.ID})
	require.NoError(t, err)

	// Occupancy is capacity+1 but the extra seat is a sanctioned override.
	result, err := fx.svc.Reconcile(context.Background(), adminActor(), fx.offering.ID)
	require.NoError(t, err)
	assert.Empty(t, result.Demoted)
}

func TestReconcileNoopWithinCapacity(t *testing.T) {
	fx := newAdmissionFixture(t, 3, 5000)
	fx.enroll(t, "s1")

	result, err := fx.svc.Reconcile(context.Background(), adminActor(), fx.offering.ID)
	require.NoError(t, err)
	assert.Empty(t, result.Demoted)
	assert.Equal(t, 1, result.Occupied)
}

func TestConfirmPaidFlipsPendingOnly(t *testing.T) {
	fx := newAdmissionFixture(t, 1, 5000)
	seated := fx.enroll(t, "s1")

	detail, err := fx.svc.ConfirmPaid(context.Background(), seated.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusConfirmed, detail.Status)

	_, err = fx.svc.ConfirmPaid(context.Background(), seated.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestCancelForRefundFreesSeatAndPromotes(t *testing.T) {
	fx := newAdmissionFixture(t, 1, 5000)
	seated := fx.enroll(t, "s1")
	waitlisted := fx.enroll(t, "s2")

	_, err := fx.svc.ConfirmPaid(context.Background(), seated.ID)
	require.NoError(t, err)

	cancelled, err := fx.svc.CancelForRefund(context.Background(), seated.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusCancelled, cancelled.Status)

	promoted, err := fx.repo.FindByID(context.Background(), waitlisted.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusPending, promoted.Status)
}

func TestEnrollUnknownStudentOrOffering(t *testing.T) {
	fx := newAdmissionFixture(t, 1, 5000)

	_, err := fx.svc.Enroll(context.Background(), EnrollRequest{StudentID: "missing", OfferingID: fx.offering.ID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = fx.svc.Enroll(context.Background(), EnrollRequest{StudentID: "s1", OfferingID: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

// Offering validation refuses capacity 0, so such a row can only appear
// through direct data manipulation. The admission engine still degrades
// safely: nobody is seated, everyone queues.
func TestAdmissionToleratesZeroCapacityRow(t *testing.T) {
	fx := newAdmissionFixture(t, 0, 5000)
	first := fx.enroll(t, "s1")
	second := fx.enroll(t, "s2")

	assert.Equal(t, models.EnrollmentStatusWaitlisted, first.Status)
	assert.Equal(t, models.EnrollmentStatusWaitlisted, second.Status)
	assert.Equal(t, 1, *first.WaitlistPosition)
	assert.Equal(t, 2, *second.WaitlistPosition)
}
