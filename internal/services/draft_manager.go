package services

import (
	"context"
	"sync"
	"time"

	"github.com/facilityinspect/server/internal/models"
	"github.com/facilityinspect/server/internal/observability"
	"github.com/facilityinspect/server/internal/repository"
)

// DraftSession is one open inspection's working state: the in-memory draft
// and the engine keeping it durable
type DraftSession struct {
	Store  *DraftStore
	Engine *SyncEngine
}

// DraftManager owns the open draft sessions, one per in-progress inspection.
// Starting an inspection seeds a fresh draft; reopening prefers the cached
// unsynced draft over re-deriving state, then falls back to persisted
// responses. Completion discards the session.
type DraftManager struct {
	inspections repository.InspectionRepo
	items       repository.ChecklistItemRepo
	responses   repository.ResponseRepo
	cache       *DraftCache
	spoolDir    string
	quiet       time.Duration
	metrics     *observability.BusinessMetrics
	logger      *observability.Logger

	mu       sync.Mutex
	sessions map[string]*DraftSession
}

// SetMetrics attaches business metrics instruments. May be left unset.
func (m *DraftManager) SetMetrics(metrics *observability.BusinessMetrics) {
	m.metrics = metrics
}

// NewDraftManager creates a DraftManager. spoolDir holds the per-inspection
// write-ahead logs.
func NewDraftManager(
	inspections repository.InspectionRepo,
	items repository.ChecklistItemRepo,
	responses repository.ResponseRepo,
	cache *DraftCache,
	spoolDir string,
	quiet time.Duration,
) *DraftManager {
	return &DraftManager{
		inspections: inspections,
		items:       items,
		responses:   responses,
		cache:       cache,
		spoolDir:    spoolDir,
		quiet:       quiet,
		logger:      observability.WithField("component", "drafts"),
		sessions:    make(map[string]*DraftSession),
	}
}

// Start creates a new in-progress inspection for a space and opens its draft.
// A space with an open inspection cannot start another one.
func (m *DraftManager) Start(ctx context.Context, orgID, buildingID, spaceID, inspectorID, templateID string, templateVersion int) (*models.Inspection, error) {
	open, err := m.inspections.GetOpenForSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, models.ErrOpenInspectionExists
	}

	inspection, err := models.NewInspection(orgID, buildingID, spaceID, inspectorID, templateID, templateVersion)
	if err != nil {
		return nil, err
	}

	if err := m.inspections.Add(ctx, inspection); err != nil {
		return nil, err
	}

	if _, err := m.openSession(ctx, inspection, false); err != nil {
		return nil, err
	}

	m.logger.WithContext(ctx).
		WithField("inspection_id", inspection.ID).
		WithField("space_id", spaceID).
		Info("inspection started")

	return inspection, nil
}

// Open returns the draft session for an in-progress inspection, creating one
// if the server restarted or the client reconnected. A cached unsynced draft
// for the space wins over persisted responses.
func (m *DraftManager) Open(ctx context.Context, inspection *models.Inspection) (*DraftSession, error) {
	if inspection == nil {
		return nil, models.ErrInspectionNotFound
	}
	if inspection.Status != models.StatusInProgress {
		return nil, models.ErrAlreadyCompleted
	}

	m.mu.Lock()
	if session, ok := m.sessions[inspection.ID]; ok {
		m.mu.Unlock()
		return session, nil
	}
	m.mu.Unlock()

	return m.openSession(ctx, inspection, true)
}

// Session returns the already-open session for an inspection
func (m *DraftManager) Session(inspectionID string) (*DraftSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[inspectionID]
	if !ok {
		return nil, ErrNoDraft
	}
	return session, nil
}

// SetResult records pass/fail and checkpoints the draft
func (m *DraftManager) SetResult(ctx context.Context, inspectionID, itemID string, result models.Result) error {
	session, err := m.Session(inspectionID)
	if err != nil {
		return err
	}
	if err := session.Store.SetResult(itemID, result); err != nil {
		return err
	}
	m.checkpoint(ctx, session)
	return nil
}

// SetComment records a comment and checkpoints the draft
func (m *DraftManager) SetComment(ctx context.Context, inspectionID, itemID, text string) error {
	session, err := m.Session(inspectionID)
	if err != nil {
		return err
	}
	if err := session.Store.SetComment(itemID, text); err != nil {
		return err
	}
	m.checkpoint(ctx, session)
	return nil
}

// AddPhoto attaches a confirmed photo reference and checkpoints the draft
func (m *DraftManager) AddPhoto(ctx context.Context, inspectionID, itemID, ref string) error {
	session, err := m.Session(inspectionID)
	if err != nil {
		return err
	}
	if err := session.Store.AddPhoto(itemID, ref); err != nil {
		return err
	}
	m.checkpoint(ctx, session)
	return nil
}

// RemovePhoto detaches a photo reference and checkpoints the draft
func (m *DraftManager) RemovePhoto(ctx context.Context, inspectionID, itemID, ref string) error {
	session, err := m.Session(inspectionID)
	if err != nil {
		return err
	}
	if err := session.Store.RemovePhoto(itemID, ref); err != nil {
		return err
	}
	m.checkpoint(ctx, session)
	return nil
}

// Discard tears the session down after a confirmed completion: the engine
// stops, the cached draft and WAL go away.
func (m *DraftManager) Discard(ctx context.Context, inspectionID, spaceID string) {
	m.mu.Lock()
	session, ok := m.sessions[inspectionID]
	delete(m.sessions, inspectionID)
	m.mu.Unlock()

	if ok {
		session.Engine.Close()
		if m.metrics != nil {
			m.metrics.DraftClosed(ctx)
		}
	}

	if err := m.cache.Drop(ctx, spaceID); err != nil {
		m.logger.Warnf("Failed to drop cached draft for space %s: %v", spaceID, err)
	}
	if wal, err := OpenWriteAheadLog(m.spoolDir, inspectionID); err == nil {
		if err := wal.Truncate(); err != nil {
			m.logger.Warnf("Failed to truncate WAL for inspection %s: %v", inspectionID, err)
		}
	}
}

// CloseAll stops every session's engine, flushing first. Used at shutdown.
func (m *DraftManager) CloseAll(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*DraftSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		if err := s.Engine.Flush(ctx); err != nil {
			m.logger.Warnf("Final flush failed: %v", err)
		}
		s.Engine.Close()
	}
}

func (m *DraftManager) openSession(ctx context.Context, inspection *models.Inspection, tryRestore bool) (*DraftSession, error) {
	store := NewDraftStore()

	restored := false
	if tryRestore {
		ok, err := m.cache.Restore(ctx, inspection.SpaceID, store)
		if err != nil {
			m.logger.Warnf("Draft cache restore failed for space %s: %v", inspection.SpaceID, err)
		}
		restored = ok && store.InspectionID() == inspection.ID
		if ok && !restored {
			// Cached draft belongs to an older inspection of this space
			store = NewDraftStore()
		}
	}

	if !restored {
		if err := m.seedFromPersisted(ctx, inspection, store, tryRestore); err != nil {
			return nil, err
		}
	}

	wal, err := OpenWriteAheadLog(m.spoolDir, inspection.ID)
	if err != nil {
		return nil, err
	}

	session := &DraftSession{
		Store:  store,
		Engine: NewSyncEngine(store, m.responses, wal, m.quiet),
	}

	m.mu.Lock()
	if existing, ok := m.sessions[inspection.ID]; ok {
		m.mu.Unlock()
		session.Engine.Close()
		return existing, nil
	}
	m.sessions[inspection.ID] = session
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.DraftOpened(ctx)
	}

	return session, nil
}

// seedFromPersisted initializes the draft from the checklist and overlays any
// responses that already reached durable storage
func (m *DraftManager) seedFromPersisted(ctx context.Context, inspection *models.Inspection, store *DraftStore, overlay bool) error {
	items, err := m.items.ListForTemplateVersion(ctx, inspection.TemplateID, inspection.TemplateVersion)
	if err != nil {
		return err
	}

	itemIDs := make([]string, len(items))
	for i, item := range items {
		itemIDs[i] = item.ID
	}

	if err := store.Init(inspection.ID, inspection.SpaceID, itemIDs); err != nil {
		return err
	}

	if !overlay {
		return nil
	}

	responses, err := m.responses.GetForInspection(ctx, inspection.ID)
	if err != nil {
		return err
	}
	for _, r := range responses {
		if r.Result != models.ResultNone {
			if err := store.SetResult(r.ChecklistItemID, r.Result); err != nil {
				continue
			}
		}
		if r.Comment != "" {
			store.SetComment(r.ChecklistItemID, r.Comment)
		}
	}

	photos, err := m.responses.GetPhotos(ctx, inspection.ID)
	if err != nil {
		return err
	}
	for _, p := range photos {
		store.AddPhoto(p.ChecklistItemID, p.StoredPath)
	}

	// Persisted state is already durable
	store.MarkClean()
	return nil
}

// checkpoint arms the sync debounce and refreshes the cached draft so a
// restart or connection loss cannot lose the mutation
func (m *DraftManager) checkpoint(ctx context.Context, session *DraftSession) {
	session.Engine.Notify()
	if err := m.cache.Save(ctx, session.Store); err != nil {
		m.logger.Warnf("Draft cache save failed: %v", err)
	}
}
