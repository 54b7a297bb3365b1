package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JimEastburn/class-registration-system-sub001/internal/models"
	appErrors "github.com/JimEastburn/class-registration-system-sub001/pkg/errors"
)

type slotOfferingRepository interface {
	ListActive(ctx context.Context) ([]models.Offering, error)
	ListActiveBySlot(ctx context.Context, day models.ClassDay, block models.ClassBlock) ([]models.Offering, error)
}

// Conflict dimensions reported by slot checks.
const (
	ConflictDimensionTeacher = "teacher"
	ConflictDimensionRoom    = "room"
)

var legalDays = map[models.ClassDay]struct{}{
	models.DayMondayWednesday: {},
	models.DayTuesday:         {},
	models.DayThursday:        {},
	models.DayFriday:          {},
}

var legalBlocks = map[models.ClassBlock]struct{}{
	models.Block1: {},
	models.Block2: {},
	models.Block3: {},
	models.Block4: {},
	models.Block5: {},
}

// ValidateSlot checks a (day, block) pair against the timetable. Missing
// fields are reported before value checks, and LUNCH is rejected even though
// it appears on the timetable.
func ValidateSlot(day models.ClassDay, block models.ClassBlock) error {
	if day == "" {
		return appErrors.Clone(appErrors.ErrMissingField, "day is required")
	}
	if block == "" {
		return appErrors.Clone(appErrors.ErrMissingField, "block is required")
	}
	if _, ok := legalDays[day]; !ok {
		return appErrors.Clone(appErrors.ErrInvalidDay, fmt.Sprintf("%q is not a legal class day", string(day)))
	}
	if _, ok := legalBlocks[block]; !ok {
		if block == models.BlockLunch {
			return appErrors.Clone(appErrors.ErrInvalidBlock, "classes cannot be scheduled during lunch")
		}
		return appErrors.Clone(appErrors.ErrInvalidBlock, fmt.Sprintf("%q is not a legal class block", string(block)))
	}
	return nil
}

// FindSlotConflict scans existing offerings for a collision with the
// candidate on the same (day, block). Teacher collisions are checked first,
// then room; offerings in a terminal status and the candidate itself are
// skipped. Returns nil when the slot is free.
func FindSlotConflict(candidate models.Offering, existing []models.Offering) *models.SlotConflict {
	for _, dimension := range []string{ConflictDimensionTeacher, ConflictDimensionRoom} {
		for i := range existing {
			other := existing[i]
			if other.ID == candidate.ID || other.Status.Terminal() {
				continue
			}
			if other.Day != candidate.Day || other.Block != candidate.Block {
				continue
			}
			if !sameDimension(dimension, candidate, other) {
				continue
			}
			return &models.SlotConflict{
				OfferingID: other.ID,
				Name:       other.Name,
				TeacherID:  other.TeacherID,
				Room:       other.Room,
				Day:        other.Day,
				Block:      other.Block,
				Dimension:  dimension,
			}
		}
	}
	return nil
}

func sameDimension(dimension string, a, b models.Offering) bool {
	switch dimension {
	case ConflictDimensionTeacher:
		return a.TeacherID != "" && a.TeacherID == b.TeacherID
	case ConflictDimensionRoom:
		return a.Room != nil && b.Room != nil && *a.Room != "" && *a.Room == *b.Room
	}
	return false
}

// DetectBatchConflicts finds every pairwise collision within a set of
// offerings in a single pass, keyed by (day, block, teacher) and
// (day, block, room). Terminal offerings are ignored.
func DetectBatchConflicts(offerings []models.Offering) []models.SlotConflict {
	seenTeacher := make(map[string]models.Offering, len(offerings))
	seenRoom := make(map[string]models.Offering, len(offerings))
	var conflicts []models.SlotConflict

	for i := range offerings {
		offering := offerings[i]
		if offering.Status.Terminal() {
			continue
		}
		if offering.TeacherID != "" {
			key := fmt.Sprintf("%s|%s|%s", offering.Day, offering.Block, offering.TeacherID)
			if first, ok := seenTeacher[key]; ok {
				conflicts = append(conflicts, conflictBetween(first, offering, ConflictDimensionTeacher))
			} else {
				seenTeacher[key] = offering
			}
		}
		if offering.Room != nil && *offering.Room != "" {
			key := fmt.Sprintf("%s|%s|%s", offering.Day, offering.Block, *offering.Room)
			if first, ok := seenRoom[key]; ok {
				conflicts = append(conflicts, conflictBetween(first, offering, ConflictDimensionRoom))
			} else {
				seenRoom[key] = offering
			}
		}
	}
	return conflicts
}

func conflictBetween(first, second models.Offering, dimension string) models.SlotConflict {
	return models.SlotConflict{
		OfferingID: second.ID,
		Name:       second.Name,
		TeacherID:  first.TeacherID,
		Room:       first.Room,
		Day:        second.Day,
		Block:      second.Block,
		Dimension:  dimension,
	}
}

// ScheduleService exposes slot validation and conflict detection over the
// offering store.
type ScheduleService struct {
	offerings slotOfferingRepository
	logger    *zap.Logger
}

// NewScheduleService constructs the schedule service.
func NewScheduleService(offerings slotOfferingRepository, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{offerings: offerings, logger: logger}
}

// EnsureSlotFree validates the candidate's slot and verifies no active
// offering collides with it on teacher or room.
func (s *ScheduleService) EnsureSlotFree(ctx context.Context, candidate models.Offering) error {
	if err := ValidateSlot(candidate.Day, candidate.Block); err != nil {
		return err
	}
	existing, err := s.offerings.ListActiveBySlot(ctx, candidate.Day, candidate.Block)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offerings for slot")
	}
	if conflict := FindSlotConflict(candidate, existing); conflict != nil {
		return s.wrapConflict(conflict)
	}
	return nil
}

// BoardConflicts reports every collision across the whole active schedule.
func (s *ScheduleService) BoardConflicts(ctx context.Context) ([]models.SlotConflict, error) {
	offerings, err := s.offerings.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active offerings")
	}
	return DetectBatchConflicts(offerings), nil
}

func (s *ScheduleService) wrapConflict(conflict *models.SlotConflict) error {
	message := fmt.Sprintf("%s is already scheduled on %s %s", conflict.Name, conflict.Day, conflict.Block)
	if conflict.Dimension == ConflictDimensionRoom && conflict.Room != nil {
		message = fmt.Sprintf("room %s is already booked on %s %s by %s", *conflict.Room, conflict.Day, conflict.Block, conflict.Name)
	}
	return appErrors.Wrap(
		&models.SlotConflictError{Dimension: conflict.Dimension, Message: message, Conflict: *conflict},
		appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status, message)
}
