package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
	appErrors "github.com/JimEastburn/class-registration-system-sub001/pkg/errors"
)

type fakeOfferingRepo struct {
	seq       int
	offerings map[string]*models.Offering
}

func newFakeOfferingRepo() *fakeOfferingRepo {
	return &fakeOfferingRepo{offerings: make(map[string]*models.Offering)}
}

func (f *fakeOfferingRepo) add(o models.Offering) *models.Offering {
	stored := o
	f.offerings[o.ID] = &stored
	return &stored
}

func (f *fakeOfferingRepo) List(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, int, error) {
	out := make([]models.Offering, 0, len(f.offerings))
	for _, o := range f.offerings {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (f *fakeOfferingRepo) FindByID(ctx context.Context, id string) (*models.Offering, error) {
	if o, ok := f.offerings[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeOfferingRepo) Create(ctx context.Context, offering *models.Offering) error {
	f.seq++
	offering.ID = fmt.Sprintf("off%d", f.seq)
	stored := *offering
	f.offerings[offering.ID] = &stored
	return nil
}

func (f *fakeOfferingRepo) Update(ctx context.Context, offering *models.Offering) error {
	if _, ok := f.offerings[offering.ID]; !ok {
		return sql.ErrNoRows
	}
	stored := *offering
	f.offerings[offering.ID] = &stored
	return nil
}

func (f *fakeOfferingRepo) UpdateStatus(ctx context.Context, id string, status models.OfferingStatus) error {
	o, ok := f.offerings[id]
	if !ok {
		return sql.ErrNoRows
	}
	o.Status = status
	return nil
}

func (f *fakeOfferingRepo) Delete(ctx context.Context, id string) (bool, error) {
	o, ok := f.offerings[id]
	if !ok || o.Status != models.OfferingStatusDraft {
		return false, nil
	}
	delete(f.offerings, id)
	return true, nil
}

func (f *fakeOfferingRepo) ListActive(ctx context.Context) ([]models.Offering, error) {
	var out []models.Offering
	for _, o := range f.offerings {
		if !o.Status.Terminal() {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOfferingRepo) ListActiveBySlot(ctx context.Context, day models.ClassDay, block models.ClassBlock) ([]models.Offering, error) {
	var out []models.Offering
	for _, o := range f.offerings {
		if !o.Status.Terminal() && o.Day == day && o.Block == block {
			out = append(out, *o)
		}
	}
	return out, nil
}

type fakeEnrollmentCanceller struct {
	cancelled map[string]int64
}

func (f *fakeEnrollmentCanceller) CancelAllActive(ctx context.Context, offeringID string, now time.Time) (int64, error) {
	if f.cancelled == nil {
		f.cancelled = make(map[string]int64)
	}
	f.cancelled[offeringID] = 3
	return 3, nil
}

func newOfferingFixture() (*fakeOfferingRepo, *fakeEnrollmentCanceller, *fakeAuditRecorder, *OfferingService) {
	repo := newFakeOfferingRepo()
	canceller := &fakeEnrollmentCanceller{}
	audit := &fakeAuditRecorder{}
	schedule := NewScheduleService(repo, zap.NewNop())
	svc := NewOfferingService(repo, schedule, canceller, audit, validator.New(), zap.NewNop())
	return repo, canceller, audit, svc
}

func validCreateRequest() CreateOfferingRequest {
	return CreateOfferingRequest{
		Name:       "Ceramics",
		TeacherID:  "t1",
		Room:       strPtr("R101"),
		Day:        models.DayTuesday,
		Block:      models.Block2,
		Capacity:   12,
		PriceCents: 4500,
	}
}

func TestCreateOfferingStartsAsDraft(t *testing.T) {
	_, _, _, svc := newOfferingFixture()

	offering, err := svc.Create(context.Background(), validCreateRequest())
	require.NoError(t, err)
	assert.Equal(t, models.OfferingStatusDraft, offering.Status)
	assert.NotEmpty(t, offering.ID)
}

func TestCreateOfferingRejectsTeacherConflict(t *testing.T) {
	repo, _, _, svc := newOfferingFixture()
	repo.add(models.Offering{ID: "existing", Name: "Painting", TeacherID: "t1", Day: models.DayTuesday, Block: models.Block2, Status: models.OfferingStatusPublished})

	_, err := svc.Create(context.Background(), validCreateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateOfferingRejectsLunchBlock(t *testing.T) {
	_, _, _, svc := newOfferingFixture()
	req := validCreateRequest()
	req.Block = models.BlockLunch

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidBlock.Code, appErrors.FromError(err).Code)
}

func TestOfferingCapacityMustBePositive(t *testing.T) {
	repo, _, _, svc := newOfferingFixture()

	// Capacity 0 would waitlist every applicant forever, and the zero value
	// also catches payloads that omit the field entirely.
	req := validCreateRequest()
	req.Capacity = 0
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	repo.add(models.Offering{ID: "a", Name: "Ceramics", TeacherID: "t1", Day: models.DayTuesday, Block: models.Block2, Capacity: 12, Status: models.OfferingStatusDraft})
	_, err = svc.Update(context.Background(), "a", UpdateOfferingRequest{
		Name: "Ceramics", TeacherID: "t1", Day: models.DayTuesday, Block: models.Block2, Capacity: 0,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateOfferingRequiresNameAndTeacher(t *testing.T) {
	_, _, _, svc := newOfferingFixture()
	req := validCreateRequest()
	req.Name = ""

	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateOfferingReChecksSlot(t *testing.T) {
	repo, _, _, svc := newOfferingFixture()
	repo.add(models.Offering{ID: "a", Name: "Ceramics", TeacherID: "t1", Day: models.DayTuesday, Block: models.Block2, Status: models.OfferingStatusDraft})
	repo.add(models.Offering{ID: "b", Name: "Painting", TeacherID: "t2", Day: models.DayFriday, Block: models.Block3, Status: models.OfferingStatusPublished})

	// Moving "a" onto "b"'s slot with "b"'s teacher collides.
	_, err := svc.Update(context.Background(), "a", UpdateOfferingRequest{
		Name: "Ceramics", TeacherID: "t2", Day: models.DayFriday, Block: models.Block3, Capacity: 10,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErrors.FromError(err).Code)

	// Keeping its own slot does not conflict with itself.
	updated, err := svc.Update(context.Background(), "a", UpdateOfferingRequest{
		Name: "Advanced Ceramics", TeacherID: "t1", Day: models.DayTuesday, Block: models.Block2, Capacity: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, "Advanced Ceramics", updated.Name)
}

func TestUpdateTerminalOfferingRejected(t *testing.T) {
	repo, _, _, svc := newOfferingFixture()
	repo.add(models.Offering{ID: "a", Name: "Done", TeacherID: "t1", Day: models.DayTuesday, Block: models.Block2, Status: models.OfferingStatusCompleted})

	_, err := svc.Update(context.Background(), "a", UpdateOfferingRequest{
		Name: "Done", TeacherID: "t1", Day: models.DayTuesday, Block: models.Block2,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestPublishTransitionsDraftOnly(t *testing.T) {
	repo, _, audit, svc := newOfferingFixture()
	repo.add(models.Offering{ID: "a", Status: models.OfferingStatusDraft})

	published, err := svc.Publish(context.Background(), adminActor(), "a")
	require.NoError(t, err)
	assert.Equal(t, models.OfferingStatusPublished, published.Status)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionOfferingPublish, audit.logs[0].Action)

	_, err = svc.Publish(context.Background(), adminActor(), "a")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestCompleteRequiresPublished(t *testing.T) {
	repo, _, _, svc := newOfferingFixture()
	repo.add(models.Offering{ID: "a", Status: models.OfferingStatusDraft})

	_, err := svc.Complete(context.Background(), adminActor(), "a")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestCancelOfferingCascadesToEnrollments(t *testing.T) {
	repo, canceller, audit, svc := newOfferingFixture()
	repo.add(models.Offering{ID: "a", Status: models.OfferingStatusPublished})

	cancelled, err := svc.Cancel(context.Background(), adminActor(), "a")
	require.NoError(t, err)
	assert.Equal(t, models.OfferingStatusCancelled, cancelled.Status)
	assert.Equal(t, int64(3), canceller.cancelled["a"])
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionOfferingCancel, audit.logs[0].Action)

	_, err = svc.Cancel(context.Background(), adminActor(), "a")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestCancelOfferingAuditsActualPriorStatus(t *testing.T) {
	repo, _, audit, svc := newOfferingFixture()
	repo.add(models.Offering{ID: "draft", Status: models.OfferingStatusDraft})

	_, err := svc.Cancel(context.Background(), adminActor(), "draft")
	require.NoError(t, err)
	require.Len(t, audit.logs, 1)
	assert.Contains(t, string(audit.logs[0].NewValues), `"from_status":"DRAFT"`)
}

func TestDeleteOfferingDraftOnly(t *testing.T) {
	repo, _, _, svc := newOfferingFixture()
	repo.add(models.Offering{ID: "draft", Status: models.OfferingStatusDraft})
	repo.add(models.Offering{ID: "live", Status: models.OfferingStatusPublished})

	require.NoError(t, svc.Delete(context.Background(), "draft"))

	err := svc.Delete(context.Background(), "live")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
