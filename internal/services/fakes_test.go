package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/facilityinspect/server/internal/models"
)

// In-memory repository fakes shared by the service tests.

// upsertGate lets a test hold an Upsert mid-flight: the fake signals entered,
// then waits for release.
type upsertGate struct {
	entered chan struct{}
	release chan struct{}
}

type fakeResponseRepo struct {
	mu        sync.Mutex
	responses map[string]*models.Response
	photos    map[string]*models.PhotoRecord
	failing   bool
	upserts   int
	gate      *upsertGate
}

func newFakeResponseRepo() *fakeResponseRepo {
	return &fakeResponseRepo{
		responses: make(map[string]*models.Response),
		photos:    make(map[string]*models.PhotoRecord),
	}
}

func (f *fakeResponseRepo) setFailing(failing bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = failing
}

func (f *fakeResponseRepo) setUpsertGate(gate *upsertGate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = gate
}

func (f *fakeResponseRepo) Upsert(ctx context.Context, response *models.Response) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		gate.entered <- struct{}{}
		<-gate.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.upserts++
	if f.failing {
		return errors.New("backend unavailable")
	}

	copied := *response
	f.responses[response.InspectionID+"/"+response.ChecklistItemID] = &copied
	return nil
}

func (f *fakeResponseRepo) GetForInspection(ctx context.Context, inspectionID string) ([]*models.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.Response
	for _, r := range f.responses {
		if r.InspectionID == inspectionID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeResponseRepo) UpsertPhoto(ctx context.Context, record *models.PhotoRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	copied := *record
	f.photos[record.InspectionID+"/"+record.ChecklistItemID+"/"+strconv.Itoa(record.Position)] = &copied
	return nil
}

func (f *fakeResponseRepo) DeletePhotosFrom(ctx context.Context, inspectionID, checklistItemID string, position int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key, p := range f.photos {
		if p.InspectionID == inspectionID && p.ChecklistItemID == checklistItemID && p.Position >= position {
			delete(f.photos, key)
		}
	}
	return nil
}

func (f *fakeResponseRepo) GetPhotos(ctx context.Context, inspectionID string) ([]*models.PhotoRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.PhotoRecord
	for _, p := range f.photos {
		if p.InspectionID == inspectionID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeResponseRepo) photosFor(inspectionID, itemID string) []*models.PhotoRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*models.PhotoRecord
	for _, p := range f.photos {
		if p.InspectionID == inspectionID && p.ChecklistItemID == itemID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out
}

func (f *fakeResponseRepo) get(inspectionID, itemID string) *models.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.responses[inspectionID+"/"+itemID]
}

func (f *fakeResponseRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.responses)
}

type fakeInspectionRepo struct {
	mu          sync.Mutex
	inspections map[string]*models.Inspection
}

func newFakeInspectionRepo() *fakeInspectionRepo {
	return &fakeInspectionRepo{inspections: make(map[string]*models.Inspection)}
}

func (f *fakeInspectionRepo) Add(ctx context.Context, inspection *models.Inspection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *inspection
	f.inspections[inspection.ID] = &copied
	return nil
}

func (f *fakeInspectionRepo) GetByID(ctx context.Context, id string) (*models.Inspection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	insp, ok := f.inspections[id]
	if !ok {
		return nil, nil
	}
	copied := *insp
	return &copied, nil
}

func (f *fakeInspectionRepo) GetOpenForSpace(ctx context.Context, spaceID string) (*models.Inspection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, insp := range f.inspections {
		if insp.SpaceID == spaceID && insp.Status == models.StatusInProgress {
			copied := *insp
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeInspectionRepo) MarkCompleted(ctx context.Context, id string, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if insp, ok := f.inspections[id]; ok && insp.Status != models.StatusCompleted {
		insp.Status = models.StatusCompleted
		insp.CompletedAt = &completedAt
	}
	return nil
}

func (f *fakeInspectionRepo) ListForBuilding(ctx context.Context, buildingID string, limit int) ([]*models.Inspection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Inspection{}
	for _, insp := range f.inspections {
		if insp.BuildingID == buildingID && len(out) < limit {
			copied := *insp
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeInspectionRepo) CountOpenForBuilding(ctx context.Context, buildingID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, insp := range f.inspections {
		if insp.BuildingID == buildingID && insp.Status == models.StatusInProgress {
			count++
		}
	}
	return count, nil
}

type fakeChecklistItemRepo struct {
	items []models.ChecklistItem
}

func (f *fakeChecklistItemRepo) ListForTemplateVersion(ctx context.Context, templateID string, version int) ([]models.ChecklistItem, error) {
	var out []models.ChecklistItem
	for _, item := range f.items {
		if item.TemplateID == templateID && item.TemplateVersion == version {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeChecklistItemRepo) Add(ctx context.Context, item *models.ChecklistItem) error {
	f.items = append(f.items, *item)
	return nil
}

type fakeDeficiencyRepo struct {
	mu           sync.Mutex
	deficiencies []*models.Deficiency
	conflicts    int // next N Adds fail with a duplicate-number conflict
}

func (f *fakeDeficiencyRepo) Add(ctx context.Context, deficiency *models.Deficiency) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conflicts > 0 {
		f.conflicts--
		return models.ErrDuplicateDeficiencyNumber
	}

	for _, d := range f.deficiencies {
		if d.SpaceID == deficiency.SpaceID && d.Number == deficiency.Number {
			return models.ErrDuplicateDeficiencyNumber
		}
	}

	copied := *deficiency
	f.deficiencies = append(f.deficiencies, &copied)
	return nil
}

func (f *fakeDeficiencyRepo) GetByResponse(ctx context.Context, inspectionID, checklistItemID string) (*models.Deficiency, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.deficiencies {
		if d.InspectionID == inspectionID && d.ChecklistItemID == checklistItemID {
			copied := *d
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeDeficiencyRepo) CountForSpace(ctx context.Context, spaceID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, d := range f.deficiencies {
		if d.SpaceID == spaceID {
			count++
		}
	}
	return count, nil
}

func (f *fakeDeficiencyRepo) ListForInspection(ctx context.Context, inspectionID string) ([]*models.Deficiency, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Deficiency
	for _, d := range f.deficiencies {
		if d.InspectionID == inspectionID {
			copied := *d
			out = append(out, &copied)
		}
	}
	return out, nil
}

type fakeScheduleRepo struct {
	mu        sync.Mutex
	schedules map[string]*models.InspectionSchedule
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: make(map[string]*models.InspectionSchedule)}
}

func (f *fakeScheduleRepo) Add(ctx context.Context, schedule *models.InspectionSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *schedule
	f.schedules[schedule.ID] = &copied
	return nil
}

func (f *fakeScheduleRepo) Update(ctx context.Context, schedule *models.InspectionSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *schedule
	f.schedules[schedule.ID] = &copied
	return nil
}

func (f *fakeScheduleRepo) GetByID(ctx context.Context, id string) (*models.InspectionSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sched, ok := f.schedules[id]
	if !ok {
		return nil, nil
	}
	copied := *sched
	return &copied, nil
}

func (f *fakeScheduleRepo) ListDue(ctx context.Context, asOf time.Time) ([]*models.InspectionSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.InspectionSchedule
	for _, sched := range f.schedules {
		if sched.Enabled && !sched.NextDueAt.After(asOf) {
			copied := *sched
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) MarkTriggered(ctx context.Context, id string, triggeredAt, nextDueAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sched, ok := f.schedules[id]; ok {
		sched.LastTriggeredAt = &triggeredAt
		sched.NextDueAt = nextDueAt
	}
	return nil
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks []*models.Task
}

func (f *fakeTaskRepo) Add(ctx context.Context, task *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *task
	f.tasks = append(f.tasks, &copied)
	return nil
}

func (f *fakeTaskRepo) ListForDeficiency(ctx context.Context, deficiencyID string) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Task
	for _, t := range f.tasks {
		if t.DeficiencyID == deficiencyID {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}
