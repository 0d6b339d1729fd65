package main

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/servicelog/internal/auth"
	"github.com/ukydev/servicelog/internal/autosave"
	"github.com/ukydev/servicelog/internal/browser"
	"github.com/ukydev/servicelog/internal/config"
	"github.com/ukydev/servicelog/internal/form"
	"github.com/ukydev/servicelog/internal/handlers"
	"github.com/ukydev/servicelog/internal/models"
	"github.com/ukydev/servicelog/internal/store"
	"golang.org/x/crypto/bcrypt"
)

func newServer(t *testing.T, authCfg config.AuthConfig) (*httptest.Server, *store.Store) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	st := store.New()
	ctrl := autosave.New(st, autosave.WithLogger(logger))
	authService, err := auth.NewService(authCfg)
	require.NoError(t, err)

	srv := httptest.NewServer(handlers.NewRouter(handlers.Deps{
		Store:   st,
		Entry:   form.NewEntryForm(ctrl, st, form.WithLogger(logger)),
		Browser: browser.New(st, logger),
		Auth:    authService,
		Logger:  logger,
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(ctrl.Close)
	return srv, st
}

func TestRandomServiceLog(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		fields := randomServiceLog(rng, now)
		typ := models.ServiceType(fields["type"].(string))
		assert.True(t, models.IsValidServiceType(typ))
		assert.Contains(t, descriptions[typ], fields["serviceDescription"])
		assert.GreaterOrEqual(t, fields["odometer"].(float64), 0.0)
		assert.GreaterOrEqual(t, fields["engineHours"].(float64), 0.0)
		assert.LessOrEqual(t, fields["startDate"].(string), "2024-06-01")
		assert.NotContains(t, fields, "endDate")
	}
}

func TestSubmitServiceLog(t *testing.T) {
	srv, st := newServer(t, config.AuthConfig{})
	rng := rand.New(rand.NewSource(2))

	fields := randomServiceLog(rng, time.Now())
	rec, err := submitServiceLog(srv.URL+"/api", fields)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, fields["providerId"], rec.ProviderID)
	assert.NotEmpty(t, rec.EndDate)

	logs := st.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, rec.ID, logs[0].ID)
}

func TestSubmitServiceLog_Rejected(t *testing.T) {
	srv, st := newServer(t, config.AuthConfig{})

	_, err := submitServiceLog(srv.URL+"/api", map[string]interface{}{"providerId": "P1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "Service order is required")
	assert.Empty(t, st.Logs())
}

func TestSaveDraft(t *testing.T) {
	srv, st := newServer(t, config.AuthConfig{})
	rng := rand.New(rand.NewSource(3))

	d, err := saveDraft(srv.URL+"/api", randomServiceLog(rng, time.Now()))
	require.NoError(t, err)
	assert.True(t, d.IsSaved)

	drafts := st.Drafts()
	require.Len(t, drafts, 1)
	assert.Equal(t, d.ID, drafts[0].ID)
}

func TestSimulate(t *testing.T) {
	srv, st := newServer(t, config.AuthConfig{})
	rng := rand.New(rand.NewSource(4))

	created := simulate(srv.URL+"/api", rng, 10, 0, 0)
	assert.Equal(t, 10, created)
	assert.Len(t, st.Logs(), 10)
}

func TestLoginAndAuthorizedSubmit(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	srv, st := newServer(t, config.AuthConfig{
		JWTSecret:    "sim-secret",
		JWTExpiry:    time.Hour,
		Username:     "operator",
		PasswordHash: string(hash),
	})
	t.Cleanup(func() { authToken = "" })

	_, err = submitServiceLog(srv.URL+"/api", randomServiceLog(rand.New(rand.NewSource(5)), time.Now()))
	require.Error(t, err)

	_, err = login(srv.URL+"/api", "operator", "wrong")
	require.Error(t, err)

	token, err := login(srv.URL+"/api", "operator", "password123")
	require.NoError(t, err)
	authToken = token

	_, err = submitServiceLog(srv.URL+"/api", randomServiceLog(rand.New(rand.NewSource(5)), time.Now()))
	require.NoError(t, err)
	assert.Len(t, st.Logs(), 1)
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("SIM_TEST_INT", "7")
	assert.Equal(t, 7, getenvInt("SIM_TEST_INT", 1))

	t.Setenv("SIM_TEST_INT", "-2")
	assert.Equal(t, 1, getenvInt("SIM_TEST_INT", 1))

	t.Setenv("SIM_TEST_INT", "many")
	assert.Equal(t, 1, getenvInt("SIM_TEST_INT", 1))
}

func TestAuthorizedDo_SetsHeaders(t *testing.T) {
	authToken = "abc"
	t.Cleanup(func() { authToken = "" })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		json.NewEncoder(w).Encode(map[string]string{"ok": "yes"})
	}))
	defer srv.Close()

	resp, err := authorizedDo(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
