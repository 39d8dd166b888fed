package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/facilityinspect/server/internal/models"
)

// PendingUpsert is one queued answer write. Later entries for the same
// (inspection, item) key supersede earlier ones, so the log only ever holds
// the latest pending value per key.
type PendingUpsert struct {
	InspectionID    string        `json:"inspectionId"`
	ChecklistItemID string        `json:"checklistItemId"`
	Result          models.Result `json:"result"`
	Comment         string        `json:"comment"`
	QueuedAt        time.Time     `json:"queuedAt"`
}

// WriteAheadLog is a small durable spool of pending answer upserts, one file
// per inspection. The sync engine writes pending entries here before touching
// the network, so answers survive a crash between edit and sync.
type WriteAheadLog struct {
	mu      sync.Mutex
	path    string
	entries []PendingUpsert
}

// OpenWriteAheadLog opens (or creates) the log for one inspection, loading
// any entries left over from a previous run.
func OpenWriteAheadLog(spoolDir, inspectionID string) (*WriteAheadLog, error) {
	if err := os.MkdirAll(spoolDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create spool directory: %w", err)
	}

	wal := &WriteAheadLog{
		path: filepath.Join(spoolDir, inspectionID+".wal.json"),
	}

	data, err := os.ReadFile(wal.path)
	if os.IsNotExist(err) {
		return wal, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &wal.entries); err != nil {
		// A torn write from a crash; start fresh rather than refuse to open
		wal.entries = nil
	}

	return wal, nil
}

// Replace atomically rewrites the log with the given pending set
func (w *WriteAheadLog) Replace(entries []PendingUpsert) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, w.path); err != nil {
		return err
	}

	w.entries = append([]PendingUpsert(nil), entries...)
	return nil
}

// Entries returns a copy of the pending entries
func (w *WriteAheadLog) Entries() []PendingUpsert {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]PendingUpsert(nil), w.entries...)
}

// Truncate clears the log after a successful flush
func (w *WriteAheadLog) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.entries = nil
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
