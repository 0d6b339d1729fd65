// Package browser lists, edits and deletes committed service logs.
package browser

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/servicelog/internal/models"
	"github.com/ukydev/servicelog/internal/store"
)

// DeletePrompt is the question put to the user before a record is removed.
const DeletePrompt = "Are you sure you want to delete this service log?"

var (
	ErrNotFound      = errors.New("service log not found")
	ErrOverlayClosed = errors.New("edit overlay is closed")
)

// Confirmer answers a yes/no prompt.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Browser works directly on the store's committed records.
type Browser struct {
	store *store.Store
	log   logrus.FieldLogger
}

// New creates a browser over st.
func New(st *store.Store, logger logrus.FieldLogger) *Browser {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Browser{store: st, log: logger}
}

// List returns the committed records matching f in insertion order.
func (b *Browser) List(f Filter) []models.ServiceRecord {
	return f.Apply(b.store.Logs())
}

func (b *Browser) Get(id string) (models.ServiceRecord, error) {
	rec, ok := b.store.Log(id)
	if !ok {
		return models.ServiceRecord{}, ErrNotFound
	}
	return rec, nil
}

// Delete removes the record once c accepts DeletePrompt. It reports whether
// the record was removed; a declined prompt is not an error.
func (b *Browser) Delete(id string, c Confirmer) (bool, error) {
	if _, ok := b.store.Log(id); !ok {
		return false, ErrNotFound
	}
	if c == nil || !c.Confirm(DeletePrompt) {
		b.log.WithField("log_id", id).Debug("delete declined")
		return false, nil
	}
	if !b.store.DeleteLog(id) {
		return false, ErrNotFound
	}
	b.log.WithField("log_id", id).Info("service log deleted")
	return true, nil
}

// Edit opens an overlay seeded with a copy of the record.
func (b *Browser) Edit(id string) (*Overlay, error) {
	rec, ok := b.store.Log(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &Overlay{
		store:    b.store,
		log:      b.log.WithField("log_id", id),
		original: rec,
		values:   rec.Fields(),
	}, nil
}
