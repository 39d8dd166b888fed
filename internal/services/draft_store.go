package services

import (
	"sync"

	"github.com/facilityinspect/server/internal/models"
)

// DraftAnswer is the in-memory working copy of one checklist item's answer
type DraftAnswer struct {
	ChecklistItemID string        `json:"checklistItemId"`
	Result          models.Result `json:"result"`
	Comment         string        `json:"comment"`
	PhotoRefs       []string      `json:"photoRefs"`
}

// DraftStore holds the working copy of one open inspection: the set of item
// ids to answer and each item's current answer, plus a dirty flag watched by
// the sync engine. One instance per open inspection, owned by the caller.
// Mutations never touch durable storage.
type DraftStore struct {
	mu           sync.Mutex
	inspectionID string
	spaceID      string
	order        []string
	answers      map[string]*DraftAnswer
	dirty        bool
	generation   uint64
	initialized  bool
}

// NewDraftStore creates an empty, uninitialized draft store
func NewDraftStore() *DraftStore {
	return &DraftStore{
		answers: make(map[string]*DraftAnswer),
	}
}

// Init seeds one empty answer per checklist item. Calling Init twice without
// an intervening Reset fails with ErrAlreadyInitialized.
func (d *DraftStore) Init(inspectionID, spaceID string, itemIDs []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return ErrAlreadyInitialized
	}

	d.inspectionID = inspectionID
	d.spaceID = spaceID
	d.order = append([]string(nil), itemIDs...)
	d.answers = make(map[string]*DraftAnswer, len(itemIDs))
	for _, id := range itemIDs {
		d.answers[id] = &DraftAnswer{ChecklistItemID: id}
	}
	d.dirty = false
	d.initialized = true

	return nil
}

// SetResult records pass/fail for an item. Downgrading fail to pass does not
// clear an existing comment or photos; stale context is preserved for audit.
func (d *DraftStore) SetResult(itemID string, result models.Result) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	answer, ok := d.answers[itemID]
	if !ok {
		return ErrUnknownItem
	}

	answer.Result = result
	d.dirty = true
	d.generation++
	return nil
}

// SetComment records the free-text comment for an item
func (d *DraftStore) SetComment(itemID, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	answer, ok := d.answers[itemID]
	if !ok {
		return ErrUnknownItem
	}

	answer.Comment = text
	d.dirty = true
	d.generation++
	return nil
}

// AddPhoto appends a confirmed photo reference to an item. Callers add a ref
// only after the upload succeeded.
func (d *DraftStore) AddPhoto(itemID, ref string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	answer, ok := d.answers[itemID]
	if !ok {
		return ErrUnknownItem
	}

	answer.PhotoRefs = append(answer.PhotoRefs, ref)
	d.dirty = true
	d.generation++
	return nil
}

// RemovePhoto removes a photo reference from an item
func (d *DraftStore) RemovePhoto(itemID, ref string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	answer, ok := d.answers[itemID]
	if !ok {
		return ErrUnknownItem
	}

	kept := answer.PhotoRefs[:0]
	for _, r := range answer.PhotoRefs {
		if r != ref {
			kept = append(kept, r)
		}
	}
	answer.PhotoRefs = kept
	d.dirty = true
	d.generation++
	return nil
}

// MarkClean clears the dirty flag after a successful sync
func (d *DraftStore) MarkClean() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dirty = false
}

// Generation returns the mutation counter. The sync engine snapshots it
// before a flush so a mutation that lands mid-flush is not marked clean.
func (d *DraftStore) Generation() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.generation
}

// MarkCleanIfGeneration clears the dirty flag only if no mutation happened
// since gen was read. Returns whether the store is now clean.
func (d *DraftStore) MarkCleanIfGeneration(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.generation != gen {
		return false
	}
	d.dirty = false
	return true
}

// Reset discards the draft entirely. Called only after a confirmed completion.
func (d *DraftStore) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.inspectionID = ""
	d.spaceID = ""
	d.order = nil
	d.answers = make(map[string]*DraftAnswer)
	d.dirty = false
	d.initialized = false
}

// Dirty reports whether there are unsynced mutations
func (d *DraftStore) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty
}

// InspectionID returns the owning inspection's id
func (d *DraftStore) InspectionID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.inspectionID
}

// SpaceID returns the inspected space's id
func (d *DraftStore) SpaceID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.spaceID
}

// Snapshot returns a copy of every answer in item order
func (d *DraftStore) Snapshot() []DraftAnswer {
	d.mu.Lock()
	defer d.mu.Unlock()

	snapshot := make([]DraftAnswer, 0, len(d.order))
	for _, id := range d.order {
		answer := d.answers[id]
		copied := *answer
		copied.PhotoRefs = append([]string(nil), answer.PhotoRefs...)
		snapshot = append(snapshot, copied)
	}
	return snapshot
}

// Unanswered returns the item ids that still have no result
func (d *DraftStore) Unanswered() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var missing []string
	for _, id := range d.order {
		if d.answers[id].Result == models.ResultNone {
			missing = append(missing, id)
		}
	}
	return missing
}

// Errors
type DraftError struct {
	Message string
}

func (e DraftError) Error() string {
	return e.Message
}

var (
	ErrAlreadyInitialized = DraftError{"draft store already initialized"}
	ErrUnknownItem        = DraftError{"unknown checklist item id"}
	ErrNoDraft            = DraftError{"no open draft for inspection"}
)
