package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/facilityinspect/server/internal/models"
	"github.com/facilityinspect/server/internal/observability"
	"github.com/facilityinspect/server/internal/repository"
)

// DefaultQuietPeriod is how long the engine waits after the most recent
// mutation before persisting
const DefaultQuietPeriod = 3 * time.Second

const (
	retryBaseDelay = 5 * time.Second
	retryMaxDelay  = 5 * time.Minute
)

// SyncFailureError wraps a failed durable write. Recoverable: the WAL flusher
// retries with backoff and the draft stays dirty, so nothing is lost.
type SyncFailureError struct {
	Err error
}

func (e *SyncFailureError) Error() string {
	return fmt.Sprintf("sync failed: %v", e.Err)
}

func (e *SyncFailureError) Unwrap() error {
	return e.Err
}

// SyncEngine keeps one inspection's draft durable. Each mutation (re)arms a
// debounce timer; when the quiet period elapses the engine writes every
// answered item to the write-ahead log and then upserts each by
// (inspection_id, checklist_item_id). Failed flushes are retried by a backoff
// timer independently of further edits.
type SyncEngine struct {
	store     *DraftStore
	responses repository.ResponseRepo
	wal       *WriteAheadLog
	quiet     time.Duration
	logger    *observability.Logger

	mu       sync.Mutex
	debounce *time.Timer
	retry    *time.Timer
	attempts int
	closed   bool

	flushMu sync.Mutex
}

// NewSyncEngine creates a sync engine for one open draft. If the WAL carries
// entries from a previous run, an immediate flush is scheduled.
func NewSyncEngine(store *DraftStore, responses repository.ResponseRepo, wal *WriteAheadLog, quiet time.Duration) *SyncEngine {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}

	engine := &SyncEngine{
		store:     store,
		responses: responses,
		wal:       wal,
		quiet:     quiet,
		logger:    observability.WithField("inspection_id", store.InspectionID()),
	}

	if len(wal.Entries()) > 0 {
		engine.scheduleFlush(0)
	}

	return engine
}

// Notify (re)arms the debounce timer. Called after every draft mutation.
// Debounce, not throttle: a new mutation before the quiet period elapses
// restarts the wait.
func (s *SyncEngine) Notify() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(s.quiet, func() {
		if err := s.Flush(context.Background()); err != nil {
			s.logger.Warnf("Background sync failed: %v", err)
		}
	})
}

// Flush persists every pending answer now. Safe to call at any time (e.g. on
// app foregrounding); concurrent flushes serialize.
func (s *SyncEngine) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	gen := s.store.Generation()

	// Latest value per key: WAL leftovers first, then the live snapshot
	pending := make(map[string]PendingUpsert)
	for _, entry := range s.wal.Entries() {
		pending[entry.InspectionID+"/"+entry.ChecklistItemID] = entry
	}

	if s.store.Dirty() {
		now := time.Now().UTC()
		for _, answer := range s.store.Snapshot() {
			if answer.Result == models.ResultNone {
				continue
			}
			pending[s.store.InspectionID()+"/"+answer.ChecklistItemID] = PendingUpsert{
				InspectionID:    s.store.InspectionID(),
				ChecklistItemID: answer.ChecklistItemID,
				Result:          answer.Result,
				Comment:         answer.Comment,
				QueuedAt:        now,
			}
		}
	}

	if len(pending) == 0 {
		return nil
	}

	entries := make([]PendingUpsert, 0, len(pending))
	for _, entry := range pending {
		entries = append(entries, entry)
	}

	// Durable locally before any network attempt
	if err := s.wal.Replace(entries); err != nil {
		return &SyncFailureError{Err: err}
	}

	var failed []PendingUpsert
	var lastErr error
	for _, entry := range entries {
		response := &models.Response{
			InspectionID:    entry.InspectionID,
			ChecklistItemID: entry.ChecklistItemID,
			Result:          entry.Result,
			Comment:         entry.Comment,
			UpdatedAt:       entry.QueuedAt,
		}
		if err := s.responses.Upsert(ctx, response); err != nil {
			failed = append(failed, entry)
			lastErr = err
		}
	}

	if len(failed) > 0 {
		if err := s.wal.Replace(failed); err != nil {
			s.logger.Errorf("Failed to rewrite WAL after partial flush: %v", err)
		}
		s.scheduleFlush(s.nextBackoff())
		return &SyncFailureError{Err: lastErr}
	}

	// Compare-and-clear: a mutation that landed while the upserts were in
	// flight is not in what we just wrote. Leave the store dirty and the WAL
	// in place so the already-armed debounce flushes it.
	if s.store.MarkCleanIfGeneration(gen) {
		if err := s.wal.Truncate(); err != nil {
			s.logger.Warnf("Failed to truncate WAL: %v", err)
		}
	}

	s.mu.Lock()
	s.attempts = 0
	s.mu.Unlock()

	return nil
}

// Close stops the engine's timers. Pending WAL entries stay on disk and are
// recovered the next time the draft is opened.
func (s *SyncEngine) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	if s.debounce != nil {
		s.debounce.Stop()
	}
	if s.retry != nil {
		s.retry.Stop()
	}
}

func (s *SyncEngine) scheduleFlush(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if s.retry != nil {
		s.retry.Stop()
	}
	s.retry = time.AfterFunc(delay, func() {
		if err := s.Flush(context.Background()); err != nil {
			s.logger.Warnf("WAL flush retry failed: %v", err)
		}
	})
}

// nextBackoff returns the exponential retry delay, capped
func (s *SyncEngine) nextBackoff() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	delay := retryBaseDelay << s.attempts
	if delay > retryMaxDelay || delay <= 0 {
		delay = retryMaxDelay
	}
	s.attempts++
	return delay
}
