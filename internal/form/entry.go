// Package form turns the live entry form into committed service logs.
package form

import (
	"github.com/sirupsen/logrus"
	"github.com/ukydev/servicelog/internal/autosave"
	"github.com/ukydev/servicelog/internal/clock"
	"github.com/ukydev/servicelog/internal/models"
	"github.com/ukydev/servicelog/internal/store"
	"github.com/ukydev/servicelog/internal/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ValidationObserver is told about submissions rejected by validation.
type ValidationObserver interface {
	ValidationFailed(fields int)
}

// EntryForm submits the live form held by an autosave controller.
type EntryForm struct {
	ctrl     *autosave.Controller
	store    *store.Store
	clock    clock.Clock
	log      logrus.FieldLogger
	observer ValidationObserver
	newID    func() string
}

// Option configures an EntryForm.
type Option func(*EntryForm)

func WithClock(c clock.Clock) Option {
	return func(f *EntryForm) { f.clock = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(f *EntryForm) { f.log = l }
}

func WithValidationObserver(o ValidationObserver) Option {
	return func(f *EntryForm) { f.observer = o }
}

// WithRecordIDs overrides record id generation.
func WithRecordIDs(next func() string) Option {
	return func(f *EntryForm) { f.newID = next }
}

// NewEntryForm creates an entry form over ctrl and st.
func NewEntryForm(ctrl *autosave.Controller, st *store.Store, opts ...Option) *EntryForm {
	f := &EntryForm{
		ctrl:  ctrl,
		store: st,
		clock: clock.Real(),
		log:   logrus.StandardLogger(),
		newID: func() string { return primitive.NewObjectID().Hex() },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Controller returns the autosave controller behind the form.
func (f *EntryForm) Controller() *autosave.Controller {
	return f.ctrl
}

// Submit validates the live values and commits them as a new service log. On
// success the form is reset and the bound draft is removed. Validation
// failures are returned as validation.FieldErrors and change nothing.
func (f *EntryForm) Submit() (models.ServiceRecord, error) {
	var rec models.ServiceRecord
	err := f.ctrl.Commit(func(values models.FormData) error {
		valid, errs := validation.Validate(values)
		if errs != nil {
			return errs
		}
		rec = valid.Record(f.newID(), f.clock.Now())
		f.store.CreateLog(rec)
		return nil
	})
	if err != nil {
		if fe, ok := validation.AsFieldErrors(err); ok {
			if f.observer != nil {
				f.observer.ValidationFailed(len(fe))
			}
			f.log.WithField("fields", fe.Messages()).Debug("service log rejected")
		}
		return models.ServiceRecord{}, err
	}

	f.log.WithFields(logrus.Fields{
		"log_id":      rec.ID,
		"provider_id": rec.ProviderID,
		"car_id":      rec.CarID,
		"type":        rec.Type,
	}).Info("service log created")
	return rec, nil
}
