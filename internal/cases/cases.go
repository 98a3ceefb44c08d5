// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cases owns the lifecycle of extraction cases: status transitions,
// timing telemetry, operator edits, and the QC gate.
//
// All mutation goes through the Manager. The scheduler drives Begin,
// Complete, and Fail; the operator surface drives SaveEdit, Override, and
// FinalizeQC. The manager is safe for concurrent use: the surrounding layer
// is expected to keep one writer per case, but that is not assumed here.
package cases

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/apeiro/ace/pkg/types"
)

// timeNow is the clock, a package-level var so tests can substitute a
// deterministic one.
var timeNow = time.Now

var (
	// ErrNotFound is returned when no case has the requested ID.
	ErrNotFound = errors.New("case not found")

	// ErrBadTransition is returned when a lifecycle action is not legal
	// from the case's current status.
	ErrBadTransition = errors.New("transition not allowed")

	// ErrReviewGate is returned by FinalizeQC while the verification
	// status still requires review and no override has been recorded.
	ErrReviewGate = errors.New("verification requires review before finalize")
)

// Manager holds the session's cases, in insertion order.
type Manager struct {
	mu    sync.Mutex
	byID  map[string]*types.CaseRecord
	order []string
}

// NewManager returns an empty case collection.
func NewManager() *Manager {
	return &Manager{byID: make(map[string]*types.CaseRecord)}
}

// Add registers new cases. Cases whose ID is already present are dropped,
// matching upload behavior: re-uploading a paper never replaces its case.
// It returns the number actually added.
func (m *Manager) Add(records ...*types.CaseRecord) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, r := range records {
		if _, exists := m.byID[r.ID]; exists {
			continue
		}
		if r.Status == "" {
			r.Status = types.CaseIdle
		}
		m.byID[r.ID] = r
		m.order = append(m.order, r.ID)
		added++
	}
	return added
}

// Get returns a copy of the case, so readers never observe a mid-transition
// record.
func (m *Manager) Get(id string) (types.CaseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byID[id]
	if !ok {
		return types.CaseRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *r, nil
}

// List returns copies of all cases in insertion order.
func (m *Manager) List() []types.CaseRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.CaseRecord, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.byID[id])
	}
	return out
}

// Len returns the number of cases.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Pending returns the IDs of cases eligible for (re)processing, in
// insertion order: everything Idle or Error.
func (m *Manager) Pending() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for _, id := range m.order {
		switch m.byID[id].Status {
		case types.CaseIdle, types.CaseError:
			ids = append(ids, id)
		}
	}
	return ids
}

// Begin moves a case into processing. Legal from Idle and Error (re-run);
// Success also permits re-entry, since no state is terminal. It stamps the
// extraction start and clears any previous error message and extracted
// record, so readers never see a Processing case carrying stale metadata.
func (m *Manager) Begin(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if r.Status == types.CaseProcessing {
		return fmt.Errorf("%w: %s is already processing", ErrBadTransition, id)
	}

	r.Status = types.CaseProcessing
	r.ErrorMessage = ""
	r.Extracted = nil
	r.Timing = types.Timing{ExtractionStart: timeNow()}
	return nil
}

// Complete records a successful extraction. The QC clock starts the instant
// extraction finishes, not when the operator opens the case.
func (m *Manager) Complete(id string, meta *types.ExtractedMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if r.Status != types.CaseProcessing {
		return fmt.Errorf("%w: complete from %s", ErrBadTransition, r.Status)
	}

	now := timeNow()
	r.Status = types.CaseSuccess
	r.Extracted = meta
	r.Timing.ExtractionEnd = now
	r.Timing.QCStart = now
	return nil
}

// Fail records a terminal extraction failure. Any record from an earlier
// successful run is cleared, keeping "Extracted non-nil iff Success" true
// unconditionally.
func (m *Manager) Fail(id string, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if r.Status != types.CaseProcessing {
		return fmt.Errorf("%w: fail from %s", ErrBadTransition, r.Status)
	}

	r.Status = types.CaseError
	r.Extracted = nil
	r.ErrorMessage = cause.Error()
	r.Timing.ExtractionEnd = timeNow()
	return nil
}

// SaveEdit replaces the extracted record with an operator correction.
// Allowed only on successful cases; QC timing is untouched. The corrected
// record's affiliation references are validated so an edit can never break
// the author-group linkage.
func (m *Manager) SaveEdit(id string, meta *types.ExtractedMetadata) error {
	if err := meta.ValidateRefs(); err != nil {
		return fmt.Errorf("rejecting edit: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if r.Status != types.CaseSuccess {
		return fmt.Errorf("%w: edit while %s", ErrBadTransition, r.Status)
	}

	r.Extracted = meta
	r.IsEdited = true
	return nil
}

// Override records an auditable operator decision to proceed despite a
// mismatched verification status. Allowed only on successful cases.
func (m *Manager) Override(id, operator, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if r.Status != types.CaseSuccess {
		return fmt.Errorf("%w: override while %s", ErrBadTransition, r.Status)
	}

	r.Override = &types.OverrideRecord{Operator: operator, Reason: reason, At: timeNow()}
	return nil
}

// FinalizeQC closes the review clock. Allowed only on successful cases, and
// soft-gated: a mismatched verification status blocks finalization until an
// override has been recorded. The status itself does not change.
func (m *Manager) FinalizeQC(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if r.Status != types.CaseSuccess {
		return fmt.Errorf("%w: finalize while %s", ErrBadTransition, r.Status)
	}
	if r.Extracted.Verification.RequiresReview() && r.Override == nil {
		return fmt.Errorf("%w: status %s", ErrReviewGate, r.Extracted.Verification.Status)
	}

	r.Timing.QCEnd = timeNow()
	return nil
}

// Reset snapshots every case into an archive record and clears the
// collection. Returns nil when there was nothing to archive.
func (m *Manager) Reset() *types.HistoricalSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.order) == 0 {
		return nil
	}

	snapshot := make([]types.CaseRecord, 0, len(m.order))
	for _, id := range m.order {
		snapshot = append(snapshot, *m.byID[id])
	}

	m.byID = make(map[string]*types.CaseRecord)
	m.order = nil

	return types.NewHistoricalSession(timeNow(), snapshot)
}

// AnyFinished reports whether at least one case has reached Success or
// Error. The scheduler's completion signal needs this to avoid declaring a
// session done before the first unit of work has even started.
func (m *Manager) AnyFinished() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.byID {
		if r.Status == types.CaseSuccess || r.Status == types.CaseError {
			return true
		}
	}
	return false
}
