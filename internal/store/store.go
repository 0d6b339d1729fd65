// Package store is the in-memory single source of truth for committed service
// logs, drafts, the current draft binding and the pending form snapshot.
package store

import (
	"sync"

	"github.com/ukydev/servicelog/internal/clock"
	"github.com/ukydev/servicelog/internal/models"
)

// Store holds the whole workbench state. All mutations are atomic; readers
// always receive copies.
type Store struct {
	mu             sync.RWMutex
	logs           []models.ServiceRecord
	drafts         []models.ServiceLogDraft
	currentDraftID string
	formData       *models.FormData

	clock     clock.Clock
	listeners []Listener
	seq       uint64

	// emitMu serializes delivery; delivered is the Seq of the last event
	// handed to the listeners.
	emitMu    sync.Mutex
	emitted   *sync.Cond
	delivered uint64
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to timestamp events.
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithListener registers a listener for every mutation.
func WithListener(l Listener) Option {
	return func(s *Store) {
		if l != nil {
			s.listeners = append(s.listeners, l)
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{clock: clock.Real()}
	s.emitted = sync.NewCond(&s.emitMu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Logs returns every committed record in insertion order.
func (s *Store) Logs() []models.ServiceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ServiceRecord, len(s.logs))
	copy(out, s.logs)
	return out
}

// Log finds a committed record by id.
func (s *Store) Log(id string) (models.ServiceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.logIndex(id); i >= 0 {
		return s.logs[i], true
	}
	return models.ServiceRecord{}, false
}

// Drafts returns every draft in insertion order.
func (s *Store) Drafts() []models.ServiceLogDraft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ServiceLogDraft, len(s.drafts))
	for i, d := range s.drafts {
		out[i] = d.Clone()
	}
	return out
}

// Draft finds a draft by id.
func (s *Store) Draft(id string) (models.ServiceLogDraft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.draftIndex(id); i >= 0 {
		return s.drafts[i].Clone(), true
	}
	return models.ServiceLogDraft{}, false
}

// CurrentDraftID returns the id of the draft bound to the live form, or "".
func (s *Store) CurrentDraftID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentDraftID
}

// FormData returns the pending form snapshot, if any.
func (s *Store) FormData() (models.FormData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.formData == nil {
		return models.FormData{}, false
	}
	return s.formData.Clone(), true
}

// CreateLog appends a committed record.
func (s *Store) CreateLog(rec models.ServiceRecord) {
	s.mu.Lock()
	s.logs = append(s.logs, rec)
	e := s.event(LogCreated, rec.ID)
	s.mu.Unlock()
	s.emit(e)
}

// UpdateLog replaces the record with the same id in place. It reports whether
// a record matched.
func (s *Store) UpdateLog(rec models.ServiceRecord) bool {
	s.mu.Lock()
	i := s.logIndex(rec.ID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.logs[i] = rec
	e := s.event(LogUpdated, rec.ID)
	s.mu.Unlock()
	s.emit(e)
	return true
}

// DeleteLog removes the record with the given id. It reports whether a record
// was removed.
func (s *Store) DeleteLog(id string) bool {
	s.mu.Lock()
	i := s.logIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.logs = append(s.logs[:i:i], s.logs[i+1:]...)
	e := s.event(LogDeleted, id)
	s.mu.Unlock()
	s.emit(e)
	return true
}

// CreateDraft inserts the draft, replacing one with the same id, and binds it
// as the current draft.
func (s *Store) CreateDraft(d models.ServiceLogDraft) {
	d = d.Clone()
	s.mu.Lock()
	if i := s.draftIndex(d.ID); i >= 0 {
		s.drafts[i] = d
	} else {
		s.drafts = append(s.drafts, d)
	}
	s.currentDraftID = d.ID
	e := s.event(DraftCreated, d.ID)
	s.mu.Unlock()
	s.emit(e)
}

// UpdateDraft overwrites the draft's values and marks it unsaved. Unknown ids
// are ignored.
func (s *Store) UpdateDraft(id string, fields models.FormData) {
	s.mu.Lock()
	i := s.draftIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.drafts[i].FormData = fields.Clone()
	s.drafts[i].IsSaved = false
	e := s.event(DraftUpdated, id)
	s.mu.Unlock()
	s.emit(e)
}

// SaveDraft marks the draft saved with a fresh timestamp. Unknown ids are ignored.
func (s *Store) SaveDraft(id string) {
	s.mu.Lock()
	i := s.draftIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	at := s.clock.Now()
	s.drafts[i].IsSaved = true
	s.drafts[i].LastSaved = &at
	e := s.event(DraftSaved, id)
	s.mu.Unlock()
	s.emit(e)
}

// DeleteDraft removes a draft and unbinds it if it was current.
func (s *Store) DeleteDraft(id string) {
	s.mu.Lock()
	i := s.draftIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.drafts = append(s.drafts[:i:i], s.drafts[i+1:]...)
	if s.currentDraftID == id {
		s.currentDraftID = ""
	}
	e := s.event(DraftDeleted, id)
	s.mu.Unlock()
	s.emit(e)
}

// ClearDrafts removes every draft and the current binding.
func (s *Store) ClearDrafts() {
	s.mu.Lock()
	s.drafts = nil
	s.currentDraftID = ""
	e := s.event(DraftsCleared, "")
	s.mu.Unlock()
	s.emit(e)
}

// SetCurrentDraftID binds a draft to the live form; "" unbinds. Ids that do not
// reference an existing draft are ignored.
func (s *Store) SetCurrentDraftID(id string) {
	s.mu.Lock()
	if id != "" && s.draftIndex(id) < 0 {
		s.mu.Unlock()
		return
	}
	s.currentDraftID = id
	e := s.event(CurrentDraftSet, id)
	s.mu.Unlock()
	s.emit(e)
}

// SetFormData replaces the pending form snapshot; nil clears it.
func (s *Store) SetFormData(data *models.FormData) {
	s.mu.Lock()
	kind := FormDataCleared
	if data == nil {
		s.formData = nil
	} else {
		cp := data.Clone()
		s.formData = &cp
		kind = FormDataSet
	}
	e := s.event(kind, "")
	s.mu.Unlock()
	s.emit(e)
}

func (s *Store) logIndex(id string) int {
	for i := range s.logs {
		if s.logs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) draftIndex(id string) int {
	for i := range s.drafts {
		if s.drafts[i].ID == id {
			return i
		}
	}
	return -1
}

// event must be called with the lock held, and the result must be passed to
// emit, otherwise delivery of later events stalls.
func (s *Store) event(kind EventKind, id string) Event {
	s.seq++
	return Event{
		Seq:    s.seq,
		Kind:   kind,
		ID:     id,
		Logs:   len(s.logs),
		Drafts: len(s.drafts),
		At:     s.clock.Now(),
	}
}

// emit delivers e once every earlier event has been delivered, so listeners
// observe mutations in the order they were applied.
func (s *Store) emit(e Event) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	for s.delivered+1 != e.Seq {
		s.emitted.Wait()
	}
	for _, l := range s.listeners {
		l.HandleEvent(e)
	}
	s.delivered = e.Seq
	s.emitted.Broadcast()
}
