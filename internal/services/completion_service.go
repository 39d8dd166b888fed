package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facilityinspect/server/internal/models"
	"github.com/facilityinspect/server/internal/observability"
	"github.com/facilityinspect/server/internal/repository"
)

// maxNumberRetries bounds the retry loop for the per-space deficiency
// number. Two inspectors completing into the same space at once collide at
// most once per insert, so a handful of attempts is plenty.
const maxNumberRetries = 5

// IncompleteSubmissionError is returned by Complete when checklist items are
// still unanswered. The inspection stays in progress.
type IncompleteSubmissionError struct {
	Count int
}

func (e IncompleteSubmissionError) Error() string {
	return fmt.Sprintf("cannot complete inspection: %d items unanswered", e.Count)
}

// CompletionSignaler receives the downstream signal fired after a successful
// completion. Delivery is best effort; implementations must not block.
type CompletionSignaler interface {
	InspectionCompleted(ctx context.Context, inspection *models.Inspection, buildingFullyInspected bool)
}

// CompletionService turns a finished draft into durable records: responses,
// photo records, deficiencies for failed items and their remediation tasks,
// then the status flip. Every write is an upsert or existence-checked insert,
// so a retried completion converges instead of duplicating.
type CompletionService struct {
	inspections  repository.InspectionRepo
	responses    repository.ResponseRepo
	items        repository.ChecklistItemRepo
	deficiencies repository.DeficiencyRepo
	tasks        repository.TaskRepo
	signaler     CompletionSignaler
	metrics      *observability.BusinessMetrics
	logger       *observability.Logger
}

// SetMetrics attaches business metrics instruments. May be left unset.
func (s *CompletionService) SetMetrics(m *observability.BusinessMetrics) {
	s.metrics = m
}

// NewCompletionService creates a new CompletionService. signaler may be nil.
func NewCompletionService(
	inspections repository.InspectionRepo,
	responses repository.ResponseRepo,
	items repository.ChecklistItemRepo,
	deficiencies repository.DeficiencyRepo,
	tasks repository.TaskRepo,
	signaler CompletionSignaler,
) *CompletionService {
	return &CompletionService{
		inspections:  inspections,
		responses:    responses,
		items:        items,
		deficiencies: deficiencies,
		tasks:        tasks,
		signaler:     signaler,
		logger:       observability.WithField("component", "completion"),
	}
}

// Complete persists the draft and completes the inspection. Item order does
// not matter; each failed item fans out to a deficiency and an auto task
// unless a deficiency for that response already exists. The status flip is
// the last write, so a crash mid-way leaves an in-progress inspection whose
// retry is safe.
func (s *CompletionService) Complete(ctx context.Context, inspection *models.Inspection, draft *DraftStore) error {
	if inspection == nil {
		return models.ErrInspectionNotFound
	}
	if inspection.IsCompleted() {
		return models.ErrAlreadyCompleted
	}

	if missing := draft.Unanswered(); len(missing) > 0 {
		return IncompleteSubmissionError{Count: len(missing)}
	}

	itemText, err := s.itemTextIndex(ctx, inspection)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	opened := 0
	for _, answer := range draft.Snapshot() {
		if err := s.persistAnswer(ctx, inspection.ID, answer, now); err != nil {
			return err
		}

		if answer.Result != models.ResultFail {
			continue
		}
		created, err := s.fanOutDeficiency(ctx, inspection, answer, itemText[answer.ChecklistItemID])
		if err != nil {
			return err
		}
		if created {
			opened++
		}
	}

	if err := s.inspections.MarkCompleted(ctx, inspection.ID, now); err != nil {
		return err
	}
	inspection.Status = models.StatusCompleted
	inspection.CompletedAt = &now

	draft.Reset()

	s.logger.WithContext(ctx).
		WithField("inspection_id", inspection.ID).
		WithField("space_id", inspection.SpaceID).
		Info("inspection completed")

	if s.metrics != nil {
		s.metrics.RecordInspectionCompleted(ctx, inspection.BuildingID, opened)
	}

	s.signalCompletion(inspection)

	return nil
}

// ApplyCorrections re-persists answers for a completed inspection inside the
// edit window. No deficiency fan-out, no status change. A denial is reported
// as not-found so callers cannot probe for completed inspections they may
// not touch.
func (s *CompletionService) ApplyCorrections(ctx context.Context, inspection *models.Inspection, actor models.Actor, answers []DraftAnswer) error {
	if !CanEdit(inspection, actor, time.Now().UTC()) {
		return models.ErrInspectionNotFound
	}

	now := time.Now().UTC()
	for _, answer := range answers {
		if err := s.persistAnswer(ctx, inspection.ID, answer, now); err != nil {
			return err
		}
	}

	s.logger.WithContext(ctx).
		WithField("inspection_id", inspection.ID).
		WithField("actor_id", actor.ID).
		Infof("applied %d corrections", len(answers))

	return nil
}

func (s *CompletionService) persistAnswer(ctx context.Context, inspectionID string, answer DraftAnswer, now time.Time) error {
	response := &models.Response{
		InspectionID:    inspectionID,
		ChecklistItemID: answer.ChecklistItemID,
		Result:          answer.Result,
		Comment:         answer.Comment,
		PhotoRefs:       answer.PhotoRefs,
		UpdatedAt:       now,
	}
	if err := s.responses.Upsert(ctx, response); err != nil {
		return err
	}

	for position, ref := range answer.PhotoRefs {
		record := &models.PhotoRecord{
			InspectionID:    inspectionID,
			ChecklistItemID: answer.ChecklistItemID,
			Position:        position,
			StoredPath:      ref,
		}
		if err := s.responses.UpsertPhoto(ctx, record); err != nil {
			return err
		}
	}

	// A shrunken photo list must not leave stale tail rows behind
	return s.responses.DeletePhotosFrom(ctx, inspectionID, answer.ChecklistItemID, len(answer.PhotoRefs))
}

// fanOutDeficiency creates the deficiency and auto task for one failed item.
// The per-space number comes from count+1 under a uniqueness constraint;
// a conflict from a concurrent completion just re-reads the count and tries
// again, so the conflict never reaches the caller.
func (s *CompletionService) fanOutDeficiency(ctx context.Context, inspection *models.Inspection, answer DraftAnswer, itemText string) (bool, error) {
	existing, err := s.deficiencies.GetByResponse(ctx, inspection.ID, answer.ChecklistItemID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	var deficiency *models.Deficiency
	for attempt := 0; ; attempt++ {
		count, err := s.deficiencies.CountForSpace(ctx, inspection.SpaceID)
		if err != nil {
			return false, err
		}

		deficiency = models.NewDeficiency(inspection.SpaceID, inspection.ID, answer.ChecklistItemID, count+1)
		err = s.deficiencies.Add(ctx, deficiency)
		if err == nil {
			break
		}
		if !errors.Is(err, models.ErrDuplicateDeficiencyNumber) || attempt >= maxNumberRetries {
			return false, err
		}

		s.logger.WithContext(ctx).
			WithField("space_id", inspection.SpaceID).
			WithField("number", deficiency.Number).
			Debug("deficiency number taken, retrying with fresh count")
	}

	task := models.NewAutoTask(deficiency, itemText, answer.Comment)
	if err := s.tasks.Add(ctx, task); err != nil {
		return false, err
	}
	return true, nil
}

// itemTextIndex loads the checklist item texts for the inspection's frozen
// template version. Missing items simply yield empty task prefixes.
func (s *CompletionService) itemTextIndex(ctx context.Context, inspection *models.Inspection) (map[string]string, error) {
	items, err := s.items.ListForTemplateVersion(ctx, inspection.TemplateID, inspection.TemplateVersion)
	if err != nil {
		return nil, err
	}

	index := make(map[string]string, len(items))
	for _, item := range items {
		index[item.ID] = item.Text
	}
	return index, nil
}

// signalCompletion fires the downstream "building may be fully inspected"
// signal. It runs detached from the request context and swallows failures;
// completion already succeeded.
func (s *CompletionService) signalCompletion(inspection *models.Inspection) {
	if s.signaler == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		open, err := s.inspections.CountOpenForBuilding(ctx, inspection.BuildingID)
		if err != nil {
			s.logger.WithField("building_id", inspection.BuildingID).
				Warnf("completion signal skipped: %v", err)
			return
		}

		s.signaler.InspectionCompleted(ctx, inspection, open == 0)
	}()
}
