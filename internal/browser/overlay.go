package browser

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/servicelog/internal/models"
	"github.com/ukydev/servicelog/internal/store"
	"github.com/ukydev/servicelog/internal/validation"
)

// Overlay edits a private copy of one record. The store only changes on Save.
type Overlay struct {
	mu       sync.Mutex
	store    *store.Store
	log      logrus.FieldLogger
	original models.ServiceRecord
	values   models.FormData
	closed   bool
}

// ID returns the id of the record being edited.
func (o *Overlay) ID() string {
	return o.original.ID
}

func (o *Overlay) Values() models.FormData {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.values.Clone()
}

// SetValues replaces the edited copy, deriving endDate when startDate moves.
func (o *Overlay) SetValues(v models.FormData) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrOverlayClosed
	}
	o.values = v.Clone().WithDerivedEndDate(o.values)
	return nil
}

// SetField edits one field of the copy from raw text.
func (o *Overlay) SetField(name, raw string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrOverlayClosed
	}
	next := o.values.Clone()
	if err := next.SetField(name, raw); err != nil {
		return err
	}
	o.values = next.WithDerivedEndDate(o.values)
	return nil
}

// Save validates the copy and replaces the record in place, keeping its id and
// createdAt. On validation failure the overlay stays open.
func (o *Overlay) Save() (models.ServiceRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return models.ServiceRecord{}, ErrOverlayClosed
	}
	valid, errs := validation.Validate(o.values)
	if errs != nil {
		return models.ServiceRecord{}, errs
	}
	rec := valid.Record(o.original.ID, o.original.CreatedAt)
	if !o.store.UpdateLog(rec) {
		o.closed = true
		return models.ServiceRecord{}, ErrNotFound
	}
	o.closed = true
	o.log.Info("service log updated")
	return rec, nil
}

// Cancel discards the copy.
func (o *Overlay) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}
