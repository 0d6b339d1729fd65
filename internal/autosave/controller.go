// Package autosave binds the live entry form to the store: it mirrors edits into
// the pending form snapshot and into the bound draft on two independent
// debounce windows, and drives the save status indicator.
package autosave

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/servicelog/internal/clock"
	"github.com/ukydev/servicelog/internal/dates"
	"github.com/ukydev/servicelog/internal/models"
	"github.com/ukydev/servicelog/internal/store"
)

var (
	ErrDraftNotFound  = errors.New("draft not found")
	ErrNoCurrentDraft = errors.New("no draft is bound to the form")
)

// Status is the autosave indicator state.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSaving  Status = "saving"
	StatusSaved   Status = "saved"
)

// Label returns the indicator text shown for the status.
func (s Status) Label() string {
	switch s {
	case StatusSaving:
		return "Saving…"
	case StatusSaved:
		return "Draft saved"
	default:
		return ""
	}
}

// Timings are the fixed delays of the autosave state machine.
type Timings struct {
	MountSettle   time.Duration
	FormDebounce  time.Duration
	DraftDebounce time.Duration
	SaveSettle    time.Duration
	SavedHold     time.Duration
}

// DefaultTimings returns the stock delays.
func DefaultTimings() Timings {
	return Timings{
		MountSettle:   100 * time.Millisecond,
		FormDebounce:  300 * time.Millisecond,
		DraftDebounce: time.Second,
		SaveSettle:    100 * time.Millisecond,
		SavedHold:     2 * time.Second,
	}
}

// Observer is notified of autosave activity. Calls happen with the controller
// lock held and must not call back into the controller.
type Observer interface {
	FormSnapshotPersisted()
	DraftSaveStarted(draftID string)
	DraftSaveCompleted(draftID string)
}

type nopObserver struct{}

func (nopObserver) FormSnapshotPersisted()    {}
func (nopObserver) DraftSaveStarted(string)   {}
func (nopObserver) DraftSaveCompleted(string) {}

// Snapshot is a read-only view of the live form session.
type Snapshot struct {
	Values         models.FormData `json:"values"`
	Status         Status          `json:"status"`
	StatusLabel    string          `json:"statusLabel,omitempty"`
	Initialized    bool            `json:"initialized"`
	CurrentDraftID string          `json:"currentDraftId,omitempty"`
}

// slot holds one cancellable timer. gen invalidates callbacks that were already
// dispatched by the runtime when the timer got replaced.
type slot struct {
	timer clock.Timer
	gen   uint64
}

// Controller owns the live form values and the autosave timers.
type Controller struct {
	mu       sync.Mutex
	store    *store.Store
	clock    clock.Clock
	timings  Timings
	log      logrus.FieldLogger
	observer Observer
	newID    func() string

	values        models.FormData
	lastPersisted models.FormData
	initialized   bool
	status        Status
	saving        bool

	mountTimer slot
	formTimer  slot
	draftTimer slot
}

// Option configures a Controller.
type Option func(*Controller)

func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

func WithTimings(t Timings) Option {
	return func(ctrl *Controller) { ctrl.timings = t }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(ctrl *Controller) { ctrl.log = l }
}

func WithObserver(o Observer) Option {
	return func(ctrl *Controller) {
		if o != nil {
			ctrl.observer = o
		}
	}
}

// WithDraftIDs overrides draft id generation.
func WithDraftIDs(next func() string) Option {
	return func(ctrl *Controller) { ctrl.newID = next }
}

// New creates a controller for st. The form holds its initial values right
// away but autosave stays off until Mount settles.
func New(st *store.Store, opts ...Option) *Controller {
	c := &Controller{
		store:    st,
		clock:    clock.Real(),
		timings:  DefaultTimings(),
		log:      logrus.StandardLogger(),
		observer: nopObserver{},
		newID:    func() string { return "draft-" + uuid.NewString() },
		status:   StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.values = c.initialValues()
	return c
}

// Mount schedules the initial load. Once it settles the form holds the pending
// snapshot, else the bound draft, else the empty template, and autosave starts.
func (c *Controller) Mount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized || c.mountTimer.timer != nil {
		return
	}
	c.arm(&c.mountTimer, c.timings.MountSettle, func() {
		initial := c.initialValues()
		c.values = initial.Clone()
		c.lastPersisted = initial.Clone()
		c.initialized = true
		c.log.WithField("draft_id", c.store.CurrentDraftID()).Debug("form initialized")
	})
}

// Close cancels the mount and debounce timers. A draft save already in flight
// still completes.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel(&c.mountTimer)
	c.cancelPending()
	c.settleStatus()
}

// Snapshot returns the current form session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Values:         c.values.Clone(),
		Status:         c.status,
		StatusLabel:    c.status.Label(),
		Initialized:    c.initialized,
		CurrentDraftID: c.store.CurrentDraftID(),
	}
}

// Values returns the live form values.
func (c *Controller) Values() models.FormData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values.Clone()
}

// Status returns the autosave indicator state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// SetValues applies a user edit replacing every field.
func (c *Controller) SetValues(v models.FormData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edit(v.Clone())
}

// SetField applies a user edit to one field given as raw text.
func (c *Controller) SetField(name, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := c.values.Clone()
	if err := next.SetField(name, raw); err != nil {
		return err
	}
	c.edit(next)
	return nil
}

// SelectDraft binds an existing draft without touching the live values.
func (c *Controller) SelectDraft(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.store.Draft(id); !ok {
		return ErrDraftNotFound
	}
	c.store.SetCurrentDraftID(id)
	return nil
}

// UseDraft loads a draft into the form and binds it. No save cycle fires for
// the load itself.
func (c *Controller) UseDraft(id string) (models.FormData, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.store.Draft(id)
	if !ok {
		return models.FormData{}, ErrDraftNotFound
	}

	c.cancelPending()
	fields := d.Fields()
	c.values = fields.Clone()
	c.lastPersisted = fields.Clone()
	c.store.SetFormData(&fields)
	c.store.SetCurrentDraftID(id)
	c.settleStatus()

	c.log.WithField("draft_id", id).Info("draft loaded into form")
	return fields.Clone(), nil
}

// CreateDraft stores the live values as a new saved draft and resets the form.
func (c *Controller) CreateDraft() models.ServiceLogDraft {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	d := models.ServiceLogDraft{
		ID:        c.newID(),
		FormData:  c.values.Clone(),
		IsSaved:   true,
		LastSaved: &now,
	}
	c.store.CreateDraft(d)
	c.reset()

	c.log.WithFields(logrus.Fields{
		"draft_id":    d.ID,
		"provider_id": d.ProviderID,
	}).Info("draft created")
	return d
}

// DeleteDraft removes a draft. The form is reset only when the draft was bound.
func (c *Controller) DeleteDraft(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.store.Draft(id); !ok {
		return ErrDraftNotFound
	}
	current := c.store.CurrentDraftID() == id
	c.store.DeleteDraft(id)
	if current {
		c.reset()
	}
	c.log.WithFields(logrus.Fields{"draft_id": id, "was_current": current}).Info("draft deleted")
	return nil
}

// DeleteCurrentDraft removes the bound draft and resets the form.
func (c *Controller) DeleteCurrentDraft() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.store.CurrentDraftID()
	if id == "" {
		return ErrNoCurrentDraft
	}
	c.store.DeleteDraft(id)
	c.reset()
	c.log.WithField("draft_id", id).Info("current draft deleted")
	return nil
}

// ClearAllDrafts removes every draft and resets the form.
func (c *Controller) ClearAllDrafts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.ClearDrafts()
	c.reset()
	c.log.Info("all drafts cleared")
}

// Commit hands the live values to fn. When fn succeeds the bound draft is
// deleted and the form is reset; otherwise nothing changes.
func (c *Controller) Commit(fn func(models.FormData) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := fn(c.values.Clone()); err != nil {
		return err
	}
	if id := c.store.CurrentDraftID(); id != "" {
		c.store.DeleteDraft(id)
	}
	c.reset()
	return nil
}

func (c *Controller) initialValues() models.FormData {
	if data, ok := c.store.FormData(); ok {
		return data
	}
	if id := c.store.CurrentDraftID(); id != "" {
		if d, ok := c.store.Draft(id); ok {
			return d.Fields()
		}
	}
	return c.emptyForm()
}

func (c *Controller) emptyForm() models.FormData {
	start, end := dates.Defaults(c.clock.Now())
	return models.EmptyForm(start, end)
}

// edit must be called with the lock held.
func (c *Controller) edit(next models.FormData) {
	c.values = next.WithDerivedEndDate(c.values)
	if !c.initialized {
		return
	}

	snapshot := c.values.Clone()
	if snapshot.Equal(c.lastPersisted) {
		c.cancel(&c.formTimer)
	} else {
		c.arm(&c.formTimer, c.timings.FormDebounce, func() {
			c.store.SetFormData(&snapshot)
			c.lastPersisted = snapshot.Clone()
			c.observer.FormSnapshotPersisted()
		})
	}

	draftID := c.store.CurrentDraftID()
	if draftID == "" || c.saving {
		return
	}
	if snapshot.Equal(c.lastPersisted) && c.draftTimer.timer == nil {
		return
	}
	c.arm(&c.draftTimer, c.timings.DraftDebounce, func() {
		c.saveDraft(draftID)
	})
	if c.draftDiffers(draftID, snapshot) {
		if c.status == StatusIdle {
			c.status = StatusPending
		}
	} else {
		c.settleStatus()
	}
}

// saveDraft runs when the draft debounce fires. The cycle targets the id that
// was bound when the timer was armed.
func (c *Controller) saveDraft(draftID string) {
	if c.saving {
		return
	}
	live := c.values.Clone()
	if !c.draftDiffers(draftID, live) {
		c.settleStatus()
		return
	}

	c.saving = true
	c.status = StatusSaving
	c.store.UpdateDraft(draftID, live)
	c.observer.DraftSaveStarted(draftID)
	log := c.log.WithField("draft_id", draftID)
	log.Debug("saving draft")

	c.after(c.timings.SaveSettle, func() {
		c.store.SaveDraft(draftID)
		c.status = StatusSaved
		c.observer.DraftSaveCompleted(draftID)
		log.Debug("draft saved")

		c.after(c.timings.SavedHold, func() {
			c.status = StatusIdle
			c.saving = false
		})
	})
}

func (c *Controller) draftDiffers(draftID string, values models.FormData) bool {
	d, ok := c.store.Draft(draftID)
	if !ok {
		return false
	}
	return !d.Fields().Equal(values)
}

// reset returns the form to the empty template and drops the pending snapshot
// and the draft binding.
func (c *Controller) reset() {
	c.cancelPending()
	empty := c.emptyForm()
	c.values = empty.Clone()
	c.lastPersisted = empty.Clone()
	c.store.SetFormData(nil)
	c.store.SetCurrentDraftID("")
	c.settleStatus()
}

// settleStatus drops a pending indicator once no write is due.
func (c *Controller) settleStatus() {
	if c.status == StatusPending {
		c.status = StatusIdle
	}
}

func (c *Controller) cancelPending() {
	c.cancel(&c.formTimer)
	c.cancel(&c.draftTimer)
}

func (c *Controller) arm(s *slot, d time.Duration, fn func()) {
	c.cancel(s)
	gen := s.gen
	s.timer = c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if s.gen != gen {
			return
		}
		s.timer = nil
		fn()
	})
}

func (c *Controller) cancel(s *slot) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

// after schedules a step of an in-flight save; it cannot be cancelled.
func (c *Controller) after(d time.Duration, fn func()) {
	c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		fn()
	})
}
