package form

import (
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/servicelog/internal/autosave"
	"github.com/ukydev/servicelog/internal/clock"
	"github.com/ukydev/servicelog/internal/models"
	"github.com/ukydev/servicelog/internal/store"
	"github.com/ukydev/servicelog/internal/validation"
)

var epoch = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

type countingObserver struct {
	failures []int
}

func (o *countingObserver) ValidationFailed(fields int) {
	o.failures = append(o.failures, fields)
}

func setup(t *testing.T, seed func(*store.Store)) (*EntryForm, *store.Store, *clock.Fake, *countingObserver) {
	t.Helper()
	fc := clock.NewFake(epoch)
	st := store.New(store.WithClock(fc))
	if seed != nil {
		seed(st)
	}
	logger, _ := test.NewNullLogger()
	ctrl := autosave.New(st, autosave.WithClock(fc), autosave.WithLogger(logger))
	ctrl.Mount()
	fc.Advance(100 * time.Millisecond)

	obs := &countingObserver{}
	n := 0
	f := NewEntryForm(ctrl, st,
		WithClock(fc),
		WithLogger(logger),
		WithValidationObserver(obs),
		WithRecordIDs(func() string {
			n++
			return fmt.Sprintf("log-%d", n)
		}),
	)
	return f, st, fc, obs
}

func fill(t *testing.T, ctrl *autosave.Controller, provider string) {
	t.Helper()
	fields := map[string]string{
		"providerId":         provider,
		"serviceOrder":       "SO-1",
		"carId":              "CAR-1",
		"odometer":           "1000",
		"engineHours":        "12",
		"type":               "emergency",
		"serviceDescription": "Tow and tyre swap",
	}
	for _, name := range models.FieldNames {
		if v, ok := fields[name]; ok {
			require.NoError(t, ctrl.SetField(name, v))
		}
	}
}

func TestSubmit_CreatesRecordAndResets(t *testing.T) {
	f, st, fc, obs := setup(t, nil)
	fill(t, f.Controller(), "P1")
	fc.Advance(300 * time.Millisecond)

	rec, err := f.Submit()
	require.NoError(t, err)
	assert.Equal(t, "log-1", rec.ID)
	assert.Equal(t, "P1", rec.ProviderID)
	assert.Equal(t, 1000.0, rec.Odometer)
	assert.Equal(t, models.ServiceEmergency, rec.Type)
	assert.Equal(t, "2024-01-15", rec.StartDate)
	assert.Equal(t, "2024-01-16", rec.EndDate)
	assert.Equal(t, epoch.Add(400*time.Millisecond), rec.CreatedAt)

	logs := st.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, rec, logs[0])

	assert.Equal(t, models.EmptyForm("2024-01-15", "2024-01-16"), f.Controller().Values())
	_, ok := st.FormData()
	assert.False(t, ok)
	assert.Empty(t, obs.failures)
}

func TestSubmit_UniqueIDs(t *testing.T) {
	f, st, _, _ := setup(t, nil)

	fill(t, f.Controller(), "P1")
	first, err := f.Submit()
	require.NoError(t, err)
	fill(t, f.Controller(), "P2")
	second, err := f.Submit()
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, st.Logs(), 2)
}

func TestSubmit_ValidationFailureBlocksCreate(t *testing.T) {
	f, st, _, obs := setup(t, nil)
	require.NoError(t, f.Controller().SetField("providerId", "P1"))
	require.NoError(t, f.Controller().SetField("odometer", "-1"))

	_, err := f.Submit()
	require.Error(t, err)
	fe, ok := validation.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, validation.CodeOutOfRange, fe["odometer"].Code)
	assert.Contains(t, fe, "serviceOrder")
	assert.NotContains(t, fe, "providerId")

	assert.Empty(t, st.Logs())
	assert.Equal(t, "P1", f.Controller().Values().ProviderID)
	assert.Equal(t, []int{len(fe)}, obs.failures)
}

func TestSubmit_RemovesBoundDraft(t *testing.T) {
	f, st, _, _ := setup(t, func(s *store.Store) {
		s.CreateDraft(models.ServiceLogDraft{ID: "d1"})
		s.CreateDraft(models.ServiceLogDraft{ID: "d2"})
	})
	fill(t, f.Controller(), "P1")
	require.NoError(t, f.Controller().SetField("startDate", "2024-02-01"))

	_, err := f.Submit()
	require.NoError(t, err)

	drafts := st.Drafts()
	require.Len(t, drafts, 1)
	assert.Equal(t, "d1", drafts[0].ID)
	assert.Equal(t, "", st.CurrentDraftID())
}

func TestSubmit_DefaultIDsAreObjectIDs(t *testing.T) {
	fc := clock.NewFake(epoch)
	st := store.New(store.WithClock(fc))
	ctrl := autosave.New(st, autosave.WithClock(fc))
	ctrl.Mount()
	fc.Advance(time.Second)
	fill(t, ctrl, "P1")

	rec, err := NewEntryForm(ctrl, st, WithClock(fc)).Submit()
	require.NoError(t, err)
	assert.Len(t, rec.ID, 24)
}
