package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
	appErrors "github.com/JimEastburn/class-registration-system-sub001/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestValidateSlot(t *testing.T) {
	tests := []struct {
		name     string
		day      models.ClassDay
		block    models.ClassBlock
		wantCode string
	}{
		{"valid slot", models.DayTuesday, models.Block3, ""},
		{"multi-day pattern", models.DayMondayWednesday, models.Block1, ""},
		{"missing day reported first", "", models.BlockLunch, appErrors.ErrMissingField.Code},
		{"missing block", models.DayFriday, "", appErrors.ErrMissingField.Code},
		{"unknown day", "SATURDAY", models.Block1, appErrors.ErrInvalidDay.Code},
		{"lunch is never legal", models.DayThursday, models.BlockLunch, appErrors.ErrInvalidBlock.Code},
		{"unknown block", models.DayThursday, "BLOCK_9", appErrors.ErrInvalidBlock.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSlot(tt.day, tt.block)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, appErrors.FromError(err).Code)
		})
	}
}

func TestFindSlotConflictTeacherDimension(t *testing.T) {
	candidate := models.Offering{ID: "new", TeacherID: "t1", Day: models.DayTuesday, Block: models.Block2}
	existing := []models.Offering{
		{ID: "a", Name: "Ceramics", TeacherID: "t1", Day: models.DayTuesday, Block: models.Block2, Status: models.OfferingStatusPublished},
	}

	conflict := FindSlotConflict(candidate, existing)
	require.NotNil(t, conflict)
	assert.Equal(t, ConflictDimensionTeacher, conflict.Dimension)
	assert.Equal(t, "a", conflict.OfferingID)
}

func TestFindSlotConflictRoomDimension(t *testing.T) {
	candidate := models.Offering{ID: "new", TeacherID: "t2", Room: strPtr("R101"), Day: models.DayFriday, Block: models.Block4}
	existing := []models.Offering{
		{ID: "a", Name: "Chess", TeacherID: "t1", Room: strPtr("R101"), Day: models.DayFriday, Block: models.Block4, Status: models.OfferingStatusPublished},
	}

	conflict := FindSlotConflict(candidate, existing)
	require.NotNil(t, conflict)
	assert.Equal(t, ConflictDimensionRoom, conflict.Dimension)
}

func TestFindSlotConflictTeacherCheckedBeforeRoom(t *testing.T) {
	candidate := models.Offering{ID: "new", TeacherID: "t1", Room: strPtr("R101"), Day: models.DayTuesday, Block: models.Block1}
	existing := []models.Offering{
		{ID: "room-clash", TeacherID: "t9", Room: strPtr("R101"), Day: models.DayTuesday, Block: models.Block1, Status: models.OfferingStatusPublished},
		{ID: "teacher-clash", TeacherID: "t1", Room: strPtr("R202"), Day: models.DayTuesday, Block: models.Block1, Status: models.OfferingStatusPublished},
	}

	conflict := FindSlotConflict(candidate, existing)
	require.NotNil(t, conflict)
	assert.Equal(t, ConflictDimensionTeacher, conflict.Dimension)
	assert.Equal(t, "teacher-clash", conflict.OfferingID)
}

func TestFindSlotConflictSkipsSelfTerminalAndOtherSlots(t *testing.T) {
	candidate := models.Offering{ID: "new", TeacherID: "t1", Room: strPtr("R101"), Day: models.DayTuesday, Block: models.Block2}
	existing := []models.Offering{
		// The candidate's stored row during an update.
		{ID: "new", TeacherID: "t1", Room: strPtr("R101"), Day: models.DayTuesday, Block: models.Block2, Status: models.OfferingStatusPublished},
		// A cancelled class no longer holds its slot.
		{ID: "gone", TeacherID: "t1", Room: strPtr("R101"), Day: models.DayTuesday, Block: models.Block2, Status: models.OfferingStatusCancelled},
		// Same teacher and room, disjoint slot.
		{ID: "elsewhere", TeacherID: "t1", Room: strPtr("R101"), Day: models.DayTuesday, Block: models.Block3, Status: models.OfferingStatusPublished},
	}

	assert.Nil(t, FindSlotConflict(candidate, existing))
}

func TestFindSlotConflictIgnoresEmptyRooms(t *testing.T) {
	candidate := models.Offering{ID: "new", TeacherID: "t2", Day: models.DayTuesday, Block: models.Block2}
	existing := []models.Offering{
		{ID: "a", TeacherID: "t1", Day: models.DayTuesday, Block: models.Block2, Status: models.OfferingStatusPublished},
	}

	// Neither offering has a room; no room-dimension collision.
	assert.Nil(t, FindSlotConflict(candidate, existing))
}

func TestDetectBatchConflicts(t *testing.T) {
	offerings := []models.Offering{
		{ID: "a", Name: "Ceramics", TeacherID: "t1", Room: strPtr("R101"), Day: models.DayTuesday, Block: models.Block1, Status: models.OfferingStatusPublished},
		{ID: "b", Name: "Painting", TeacherID: "t1", Room: strPtr("R102"), Day: models.DayTuesday, Block: models.Block1, Status: models.OfferingStatusPublished},
		{ID: "c", Name: "Chess", TeacherID: "t2", Room: strPtr("R101"), Day: models.DayTuesday, Block: models.Block1, Status: models.OfferingStatusPublished},
		{ID: "d", Name: "Cancelled", TeacherID: "t1", Room: strPtr("R101"), Day: models.DayTuesday, Block: models.Block1, Status: models.OfferingStatusCancelled},
		{ID: "e", Name: "Elsewhere", TeacherID: "t1", Room: strPtr("R101"), Day: models.DayFriday, Block: models.Block1, Status: models.OfferingStatusPublished},
	}

	conflicts := DetectBatchConflicts(offerings)
	require.Len(t, conflicts, 2)

	assert.Equal(t, ConflictDimensionTeacher, conflicts[0].Dimension)
	assert.Equal(t, "b", conflicts[0].OfferingID)
	assert.Equal(t, ConflictDimensionRoom, conflicts[1].Dimension)
	assert.Equal(t, "c", conflicts[1].OfferingID)
}

func TestDetectBatchConflictsEmptySchedule(t *testing.T) {
	assert.Empty(t, DetectBatchConflicts(nil))
}

type fakeSlotOfferingRepo struct {
	active []models.Offering
	err    error
}

func (f *fakeSlotOfferingRepo) ListActive(ctx context.Context) ([]models.Offering, error) {
	return f.active, f.err
}

func (f *fakeSlotOfferingRepo) ListActiveBySlot(ctx context.Context, day models.ClassDay, block models.ClassBlock) ([]models.Offering, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Offering
	for _, o := range f.active {
		if o.Day == day && o.Block == block {
			out = append(out, o)
		}
	}
	return out, nil
}

func TestEnsureSlotFree(t *testing.T) {
	repo := &fakeSlotOfferingRepo{active: []models.Offering{
		{ID: "a", Name: "Ceramics", TeacherID: "t1", Day: models.DayTuesday, Block: models.Block2, Status: models.OfferingStatusPublished},
	}}
	svc := NewScheduleService(repo, zap.NewNop())

	err := svc.EnsureSlotFree(context.Background(), models.Offering{ID: "new", TeacherID: "t2", Day: models.DayTuesday, Block: models.Block2})
	assert.NoError(t, err)

	err = svc.EnsureSlotFree(context.Background(), models.Offering{ID: "new", TeacherID: "t1", Day: models.DayTuesday, Block: models.Block2})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErrors.FromError(err).Code)

	err = svc.EnsureSlotFree(context.Background(), models.Offering{ID: "new", TeacherID: "t1", Day: models.DayTuesday, Block: models.BlockLunch})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidBlock.Code, appErrors.FromError(err).Code)
}

func TestBoardConflicts(t *testing.T) {
	repo := &fakeSlotOfferingRepo{active: []models.Offering{
		{ID: "a", TeacherID: "t1", Day: models.DayThursday, Block: models.Block5, Status: models.OfferingStatusPublished},
		{ID: "b", TeacherID: "t1", Day: models.DayThursday, Block: models.Block5, Status: models.OfferingStatusPublished},
	}}
	svc := NewScheduleService(repo, zap.NewNop())

	conflicts, err := svc.BoardConflicts(context.Background())
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "b", conflicts[0].OfferingID)
}
